package assignments

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
)

type stubAssignmentsRepo struct {
	existing  map[[2]uuid.UUID]*models.TraineeAssignment
	byTrainee []models.TraineeAssignment
	created   []*models.TraineeAssignment
	createErr error
	deleted   []uuid.UUID
	deleteErr error
}

func (s *stubAssignmentsRepo) Create(_ context.Context, licenseID, traineeID uuid.UUID) (*models.TraineeAssignment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	assignment := &models.TraineeAssignment{ID: uuid.New(), LicenseID: licenseID, TraineeID: traineeID}
	s.created = append(s.created, assignment)
	return assignment, nil
}

func (s *stubAssignmentsRepo) FindByTraineeAndLicense(_ context.Context, traineeID, licenseID uuid.UUID) (*models.TraineeAssignment, error) {
	if a, ok := s.existing[[2]uuid.UUID{traineeID, licenseID}]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAssignmentsRepo) ListByTrainee(_ context.Context, _ uuid.UUID) ([]models.TraineeAssignment, error) {
	return s.byTrainee, nil
}

func (s *stubAssignmentsRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

type stubSeatCounter struct {
	licenses     map[uuid.UUID]*models.CorporateLicense
	accountID    uuid.UUID
	grantSeat    bool
	incrementErr error
	increments   int
	decrements   []uuid.UUID
	freed        bool
}

func (s *stubSeatCounter) FindForAccount(_ context.Context, id, accountID uuid.UUID) (*models.CorporateLicense, error) {
	license, ok := s.licenses[id]
	if !ok || accountID != s.accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return license, nil
}

func (s *stubSeatCounter) FindByID(_ context.Context, id uuid.UUID) (*models.CorporateLicense, error) {
	if license, ok := s.licenses[id]; ok {
		return license, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSeatCounter) IncrementAssignedSeats(_ context.Context, _ uuid.UUID) (bool, error) {
	if s.incrementErr != nil {
		return false, s.incrementErr
	}
	s.increments++
	return s.grantSeat, nil
}

func (s *stubSeatCounter) DecrementAssignedSeats(_ context.Context, id uuid.UUID) (bool, error) {
	s.decrements = append(s.decrements, id)
	return s.freed, nil
}

type stubTraineeStore struct {
	trainees  map[uuid.UUID]*models.CorporateTrainee
	accountID uuid.UUID
}

func (s *stubTraineeStore) FindForAccount(_ context.Context, accountID, traineeID uuid.UUID) (*models.CorporateTrainee, error) {
	trainee, ok := s.trainees[traineeID]
	if !ok || accountID != s.accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return trainee, nil
}

func (s *stubTraineeStore) FindByID(_ context.Context, id uuid.UUID) (*models.CorporateTrainee, error) {
	if trainee, ok := s.trainees[id]; ok {
		return trainee, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type ledgerCall struct {
	userID     uuid.UUID
	scheduleID uuid.UUID
	courseID   uuid.UUID
}

type stubLedger struct {
	ensured   []ledgerCall
	dropped   []ledgerCall
	ensureErr error
}

func (s *stubLedger) EnsureEnrollment(_ context.Context, userID, scheduleID, courseID uuid.UUID) error {
	if s.ensureErr != nil {
		return s.ensureErr
	}
	s.ensured = append(s.ensured, ledgerCall{userID, scheduleID, courseID})
	return nil
}

func (s *stubLedger) DropEnrollment(_ context.Context, userID, scheduleID uuid.UUID) error {
	s.dropped = append(s.dropped, ledgerCall{userID: userID, scheduleID: scheduleID})
	return nil
}

type stubAccounts struct {
	account *accounts.AccountDTO
}

func (s *stubAccounts) RequireForUser(_ context.Context, _ uuid.UUID) (*accounts.AccountDTO, error) {
	return s.account, nil
}

type fixture struct {
	svc       Service
	repo      *stubAssignmentsRepo
	seats     *stubSeatCounter
	trainees  *stubTraineeStore
	ledger    *stubLedger
	accountID uuid.UUID
	license   *models.CorporateLicense
	trainee   *models.CorporateTrainee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accountID := uuid.New()
	license := &models.CorporateLicense{
		ID:                 uuid.New(),
		CorporateAccountID: accountID,
		CourseID:           uuid.New(),
		ScheduleID:         uuid.New(),
		TotalSeats:         5,
		AssignedSeats:      1,
	}
	trainee := &models.CorporateTrainee{
		ID:                 uuid.New(),
		CorporateAccountID: accountID,
		UserID:             uuid.New(),
		IsActive:           true,
	}

	repo := &stubAssignmentsRepo{existing: map[[2]uuid.UUID]*models.TraineeAssignment{}}
	seats := &stubSeatCounter{
		licenses:  map[uuid.UUID]*models.CorporateLicense{license.ID: license},
		accountID: accountID,
		grantSeat: true,
		freed:     true,
	}
	traineeStore := &stubTraineeStore{
		trainees:  map[uuid.UUID]*models.CorporateTrainee{trainee.ID: trainee},
		accountID: accountID,
	}
	ledger := &stubLedger{}
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(repo, seats, traineeStore, ledger, &stubAccounts{account: &accounts.AccountDTO{ID: accountID}}, log, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		svc:       svc,
		repo:      repo,
		seats:     seats,
		trainees:  traineeStore,
		ledger:    ledger,
		accountID: accountID,
		license:   license,
		trainee:   trainee,
	}
}

func TestAssignConsumesSeatAndSyncsEnrollment(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Assign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected one assignment, got %d", len(f.repo.created))
	}
	if f.seats.increments != 1 {
		t.Fatalf("expected one seat increment, got %d", f.seats.increments)
	}
	if len(f.ledger.ensured) != 1 {
		t.Fatalf("expected one enrollment sync, got %d", len(f.ledger.ensured))
	}
	call := f.ledger.ensured[0]
	if call.userID != f.trainee.UserID || call.scheduleID != f.license.ScheduleID || call.courseID != f.license.CourseID {
		t.Fatalf("unexpected enrollment sync call %+v", call)
	}
}

func TestAssignRejectsSaturatedLicense(t *testing.T) {
	f := newFixture(t)
	f.license.AssignedSeats = f.license.TotalSeats

	err := f.svc.Assign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if len(f.repo.created) != 0 {
		t.Fatal("expected no assignment creation")
	}
	if f.seats.increments != 0 {
		t.Fatal("expected no seat increment")
	}
}

func TestAssignRollsBackOnLostSeatRace(t *testing.T) {
	f := newFixture(t)
	f.seats.grantSeat = false

	err := f.svc.Assign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if len(f.repo.created) != 1 || len(f.repo.deleted) != 1 {
		t.Fatalf("expected created assignment to be rolled back, created=%d deleted=%d", len(f.repo.created), len(f.repo.deleted))
	}
	if f.repo.deleted[0] != f.repo.created[0].ID {
		t.Fatal("expected the rolled back assignment to be the one just created")
	}
	if len(f.ledger.ensured) != 0 {
		t.Fatal("expected no enrollment sync after rollback")
	}
}

func TestAssignRollbackDeleteFailureStillReportsCapacity(t *testing.T) {
	f := newFixture(t)
	f.seats.grantSeat = false
	f.repo.deleteErr = errors.New("delete failed")

	err := f.svc.Assign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("rollback failure must not replace the capacity error, got %v", err)
	}
	if len(f.repo.deleted) != 1 {
		t.Fatal("expected a rollback delete attempt")
	}
}

func TestAssignRejectsDuplicatePair(t *testing.T) {
	f := newFixture(t)
	f.repo.existing[[2]uuid.UUID{f.trainee.ID, f.license.ID}] = &models.TraineeAssignment{ID: uuid.New()}

	err := f.svc.Assign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.seats.increments != 0 {
		t.Fatal("expected no seat increment for a duplicate pair")
	}
}

func TestAssignUnknownLicenseOrTrainee(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Assign(context.Background(), uuid.New(), f.trainee.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown license, got %v", err)
	}

	err = f.svc.Assign(context.Background(), uuid.New(), uuid.New(), f.license.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown trainee, got %v", err)
	}
}

func TestAssignEnrollmentFailureDoesNotRollBackSeat(t *testing.T) {
	f := newFixture(t)
	f.ledger.ensureErr = errors.New("ledger unavailable")

	if err := f.svc.Assign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID); err != nil {
		t.Fatalf("assign should survive ledger failure: %v", err)
	}
	if len(f.repo.deleted) != 0 {
		t.Fatal("expected assignment to stand")
	}
	if f.seats.increments != 1 {
		t.Fatal("expected the seat to stay consumed")
	}
}

func TestUnassignReleasesSeatAndDropsEnrollment(t *testing.T) {
	f := newFixture(t)
	assignment := &models.TraineeAssignment{ID: uuid.New(), LicenseID: f.license.ID, TraineeID: f.trainee.ID}
	f.repo.existing[[2]uuid.UUID{f.trainee.ID, f.license.ID}] = assignment

	if err := f.svc.Unassign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if len(f.repo.deleted) != 1 || f.repo.deleted[0] != assignment.ID {
		t.Fatal("expected assignment deletion")
	}
	if len(f.seats.decrements) != 1 || f.seats.decrements[0] != f.license.ID {
		t.Fatal("expected seat decrement")
	}
	if len(f.ledger.dropped) != 1 {
		t.Fatalf("expected one enrollment drop, got %d", len(f.ledger.dropped))
	}
	drop := f.ledger.dropped[0]
	if drop.userID != f.trainee.UserID || drop.scheduleID != f.license.ScheduleID {
		t.Fatalf("unexpected drop call %+v", drop)
	}
}

func TestUnassignUnknownAssignment(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Unassign(context.Background(), uuid.New(), f.trainee.ID, f.license.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.seats.decrements) != 0 {
		t.Fatal("expected no decrement")
	}
}

func TestRemoveAllForTraineeReleasesEverySeat(t *testing.T) {
	f := newFixture(t)
	second := &models.CorporateLicense{
		ID:                 uuid.New(),
		CorporateAccountID: f.accountID,
		CourseID:           uuid.New(),
		ScheduleID:         uuid.New(),
		TotalSeats:         3,
		AssignedSeats:      1,
	}
	f.seats.licenses[second.ID] = second
	f.repo.byTrainee = []models.TraineeAssignment{
		{ID: uuid.New(), LicenseID: f.license.ID, TraineeID: f.trainee.ID},
		{ID: uuid.New(), LicenseID: second.ID, TraineeID: f.trainee.ID},
	}

	if err := f.svc.RemoveAllForTrainee(context.Background(), f.trainee.ID); err != nil {
		t.Fatalf("remove all: %v", err)
	}
	if len(f.repo.deleted) != 2 {
		t.Fatalf("expected 2 deletions, got %d", len(f.repo.deleted))
	}
	if len(f.seats.decrements) != 2 {
		t.Fatalf("expected 2 decrements, got %d", len(f.seats.decrements))
	}
	if len(f.ledger.dropped) != 2 {
		t.Fatalf("expected 2 enrollment drops, got %d", len(f.ledger.dropped))
	}
}
