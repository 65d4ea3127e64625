package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/metrics"
)

type assignmentsRepository interface {
	Create(ctx context.Context, licenseID, traineeID uuid.UUID) (*models.TraineeAssignment, error)
	FindByTraineeAndLicense(ctx context.Context, traineeID, licenseID uuid.UUID) (*models.TraineeAssignment, error)
	ListByTrainee(ctx context.Context, traineeID uuid.UUID) ([]models.TraineeAssignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type seatCounter interface {
	FindForAccount(ctx context.Context, id, accountID uuid.UUID) (*models.CorporateLicense, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateLicense, error)
	IncrementAssignedSeats(ctx context.Context, id uuid.UUID) (bool, error)
	DecrementAssignedSeats(ctx context.Context, id uuid.UUID) (bool, error)
}

type traineeStore interface {
	FindForAccount(ctx context.Context, accountID, traineeID uuid.UUID) (*models.CorporateTrainee, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateTrainee, error)
}

type enrollmentLedger interface {
	EnsureEnrollment(ctx context.Context, userID, scheduleID, courseID uuid.UUID) error
	DropEnrollment(ctx context.Context, userID, scheduleID uuid.UUID) error
}

type accountProvider interface {
	RequireForUser(ctx context.Context, userID uuid.UUID) (*accounts.AccountDTO, error)
}

// Service exposes seat assignment operations.
type Service interface {
	Assign(ctx context.Context, userID, traineeID, licenseID uuid.UUID) error
	Unassign(ctx context.Context, userID, traineeID, licenseID uuid.UUID) error
	AssignForAccount(ctx context.Context, accountID, traineeID, licenseID uuid.UUID) error
	RemoveAllForTrainee(ctx context.Context, traineeID uuid.UUID) error
}

type service struct {
	repo     assignmentsRepository
	seats    seatCounter
	trainees traineeStore
	ledger   enrollmentLedger
	accounts accountProvider
	log      *logger.Logger
	seatStat *metrics.SeatMetrics
}

// NewService builds an assignments service with the provided collaborators.
// Metrics may be nil.
func NewService(repo assignmentsRepository, seats seatCounter, traineesRepo traineeStore, ledger enrollmentLedger, accountsSvc accountProvider, log *logger.Logger, seatStat *metrics.SeatMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if seats == nil {
		return nil, fmt.Errorf("licenses repository required")
	}
	if traineesRepo == nil {
		return nil, fmt.Errorf("trainees repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("enrollments service required")
	}
	if accountsSvc == nil {
		return nil, fmt.Errorf("accounts service required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		seats:    seats,
		trainees: traineesRepo,
		ledger:   ledger,
		accounts: accountsSvc,
		log:      log,
		seatStat: seatStat,
	}, nil
}

func (s *service) Assign(ctx context.Context, userID, traineeID, licenseID uuid.UUID) error {
	account, err := s.accounts.RequireForUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.AssignForAccount(ctx, account.ID, traineeID, licenseID)
}

func (s *service) AssignForAccount(ctx context.Context, accountID, traineeID, licenseID uuid.UUID) error {
	license, err := s.seats.FindForAccount(ctx, licenseID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load license")
	}

	// pre-check only; the conditional increment is the authority
	if license.SeatsAvailable() <= 0 {
		s.seatStat.IncResult(metrics.SeatResultRejected)
		return pkgerrors.New(pkgerrors.CodeCapacity, "no seats available on this license")
	}

	trainee, err := s.trainees.FindForAccount(ctx, accountID, traineeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "trainee not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trainee")
	}

	if _, err := s.repo.FindByTraineeAndLicense(ctx, trainee.ID, license.ID); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "trainee is already assigned to this license")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup existing assignment")
	}

	assignment, err := s.repo.Create(ctx, license.ID, trainee.ID)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "trainee is already assigned to this license")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
	}

	granted, err := s.seats.IncrementAssignedSeats(ctx, license.ID)
	if err != nil {
		s.rollbackAssignment(ctx, assignment.ID)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment assigned seats")
	}
	if !granted {
		// lost the race to a concurrent assignment
		s.rollbackAssignment(ctx, assignment.ID)
		s.seatStat.IncResult(metrics.SeatResultRejected)
		return pkgerrors.New(pkgerrors.CodeCapacity, "no seats available on this license")
	}
	s.seatStat.IncResult(metrics.SeatResultAssigned)

	// the seat is consumed either way; ledger sync is best-effort and the
	// reconciler repairs any gap
	if err := s.ledger.EnsureEnrollment(ctx, trainee.UserID, license.ScheduleID, license.CourseID); err != nil {
		s.log.Error(s.log.WithField(ctx, "license_id", license.ID.String()), "sync enrollment after assignment", err)
	}
	return nil
}

func (s *service) Unassign(ctx context.Context, userID, traineeID, licenseID uuid.UUID) error {
	account, err := s.accounts.RequireForUser(ctx, userID)
	if err != nil {
		return err
	}

	license, err := s.seats.FindForAccount(ctx, licenseID, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load license")
	}

	trainee, err := s.trainees.FindForAccount(ctx, account.ID, traineeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "trainee not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trainee")
	}

	assignment, err := s.repo.FindByTraineeAndLicense(ctx, trainee.ID, license.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup assignment")
	}

	return s.release(ctx, assignment, trainee.UserID, license.ScheduleID)
}

// RemoveAllForTrainee releases every seat a trainee holds. Used when a
// trainee is removed from the roster.
func (s *service) RemoveAllForTrainee(ctx context.Context, traineeID uuid.UUID) error {
	trainee, err := s.trainees.FindByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "trainee not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trainee")
	}

	assignments, err := s.repo.ListByTrainee(ctx, trainee.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trainee assignments")
	}

	for i := range assignments {
		license, err := s.seats.FindByID(ctx, assignments[i].LicenseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned license")
		}
		if err := s.release(ctx, &assignments[i], trainee.UserID, license.ScheduleID); err != nil {
			return err
		}
	}
	return nil
}

// rollbackAssignment deletes the assignment created ahead of a seat
// increment that was then refused. A failed delete is logged; the caller's
// error stands.
func (s *service) rollbackAssignment(ctx context.Context, id uuid.UUID) {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error(s.log.WithField(ctx, "assignment_id", id.String()), "rollback assignment after seat refusal", err)
	}
}

// release deletes the assignment, returns its seat, and drops the matching
// enrollment. A missing enrollment is not an error.
func (s *service) release(ctx context.Context, assignment *models.TraineeAssignment, traineeUserID, scheduleID uuid.UUID) error {
	if err := s.repo.Delete(ctx, assignment.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete assignment")
	}

	freed, err := s.seats.DecrementAssignedSeats(ctx, assignment.LicenseID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement assigned seats")
	}
	if !freed {
		s.log.Warn(s.log.WithField(ctx, "license_id", assignment.LicenseID.String()), "seat counter already at zero on unassignment")
	}
	s.seatStat.IncResult(metrics.SeatResultUnassigned)

	if err := s.ledger.DropEnrollment(ctx, traineeUserID, scheduleID); err != nil {
		s.log.Error(s.log.WithField(ctx, "license_id", assignment.LicenseID.String()), "drop enrollment after unassignment", err)
	}
	return nil
}
