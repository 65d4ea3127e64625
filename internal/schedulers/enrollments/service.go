package enrollments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vbkouture/cencad-backend/pkg/config"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/metrics"
)

const jobName = "enrollment_reconciler"

type assignmentSource interface {
	ListActive(ctx context.Context, afterID uuid.UUID, limit int) ([]models.TraineeAssignment, error)
}

type traineeSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateTrainee, error)
}

type licenseSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateLicense, error)
}

type enrollmentLedger interface {
	EnsureEnrollment(ctx context.Context, userID, scheduleID, courseID uuid.UUID) error
}

// Service re-derives ledger entries from ACTIVE seat assignments. Enrollment
// sync after an assignment is best-effort, so a crash between the seat write
// and the ledger write leaves a gap this job repairs.
type Service struct {
	logg        *logger.Logger
	assignments assignmentSource
	trainees    traineeSource
	licenses    licenseSource
	ledger      enrollmentLedger
	jobMetrics  *metrics.JobMetrics
	interval    time.Duration
	batchSize   int
}

type ServiceParams struct {
	Logger      *logger.Logger
	Assignments assignmentSource
	Trainees    traineeSource
	Licenses    licenseSource
	Ledger      enrollmentLedger
	Metrics     *metrics.JobMetrics
	Config      config.ReconcilerConfig
}

// NewService builds the enrollment reconciler. Metrics may be nil.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if params.Trainees == nil {
		return nil, fmt.Errorf("trainees repository required")
	}
	if params.Licenses == nil {
		return nil, fmt.Errorf("licenses repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("enrollments service required")
	}
	interval := params.Config.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	batchSize := params.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Service{
		logg:        params.Logger,
		assignments: params.Assignments,
		trainees:    params.Trainees,
		licenses:    params.Licenses,
		ledger:      params.Ledger,
		jobMetrics:  params.Metrics,
		interval:    interval,
		batchSize:   batchSize,
	}, nil
}

// Run executes the reconciler loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.runOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "enrollment reconciler context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	start := time.Now()
	repaired, err := s.Reconcile(ctx)
	s.jobMetrics.ObserveDuration(jobName, time.Since(start))
	if err != nil {
		s.jobMetrics.IncFailure(jobName)
		s.logg.Error(ctx, "enrollment reconciler run failed", err)
		return
	}
	s.jobMetrics.IncSuccess(jobName)
	if repaired > 0 {
		s.logg.Info(s.logg.WithField(ctx, "repaired", repaired), "enrollment reconciler repaired ledger gaps")
	}
}

// Reconcile walks every ACTIVE assignment in batches and upserts the backing
// ledger entry. It returns how many assignments were visited.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	visited := 0
	cursor := uuid.Nil
	for {
		batch, err := s.assignments.ListActive(ctx, cursor, s.batchSize)
		if err != nil {
			return visited, fmt.Errorf("list active assignments: %w", err)
		}
		if len(batch) == 0 {
			return visited, nil
		}
		for i := range batch {
			if err := s.reconcileAssignment(ctx, &batch[i]); err != nil {
				return visited, err
			}
			visited++
		}
		cursor = batch[len(batch)-1].ID
	}
}

func (s *Service) reconcileAssignment(ctx context.Context, assignment *models.TraineeAssignment) error {
	trainee, err := s.trainees.FindByID(ctx, assignment.TraineeID)
	if err != nil {
		return fmt.Errorf("load trainee %s: %w", assignment.TraineeID, err)
	}
	license, err := s.licenses.FindByID(ctx, assignment.LicenseID)
	if err != nil {
		return fmt.Errorf("load license %s: %w", assignment.LicenseID, err)
	}
	if err := s.ledger.EnsureEnrollment(ctx, trainee.UserID, license.ScheduleID, license.CourseID); err != nil {
		return fmt.Errorf("ensure enrollment for trainee %s: %w", trainee.ID, err)
	}
	return nil
}
