package accounts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/users"
	"github.com/vbkouture/cencad-backend/pkg/config"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
)

func testPasswordCfg() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestNewServiceRequiresRepos(t *testing.T) {
	if _, err := NewService(nil, &stubUsersRepo{}, stubLicenseStats{}, stubTraineeStats{}, testLogger(), testPasswordCfg()); err == nil {
		t.Fatal("expected error creating service without repo")
	}
	if _, err := NewService(&stubAccountsRepo{}, nil, stubLicenseStats{}, stubTraineeStats{}, testLogger(), testPasswordCfg()); err == nil {
		t.Fatal("expected error creating service without users repo")
	}
}

func TestRegisterSuccess(t *testing.T) {
	repo := &stubAccountsRepo{}
	usersRepo := &stubUsersRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, repo, usersRepo)

	result, err := svc.Register(context.Background(), RegisterInput{
		CompanyName: "Acme Industrial",
		CompanySize: enums.CompanySize11To50,
		AdminName:   "Dana Admin",
		AdminEmail:  "Dana@Acme.example ",
		Password:    "initial-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if result.Admin.Email != "dana@acme.example" {
		t.Fatalf("expected normalized email, got %q", result.Admin.Email)
	}
	if result.Admin.Role != enums.UserRoleCorporateStaff {
		t.Fatalf("unexpected admin role %s", result.Admin.Role)
	}
	if result.Account.Status != enums.AccountStatusActive {
		t.Fatalf("expected active account, got %s", result.Account.Status)
	}
	if len(result.Account.AdminUserIDs) != 1 || result.Account.AdminUserIDs[0] != result.Admin.ID {
		t.Fatalf("expected admin id on account, got %v", result.Account.AdminUserIDs)
	}
	if usersRepo.created == nil || usersRepo.created.PasswordHash == "initial-password" {
		t.Fatal("expected password to be hashed")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	usersRepo := &stubUsersRepo{found: &models.User{ID: uuid.New(), Email: "taken@example.com"}}
	svc := newTestService(t, &stubAccountsRepo{}, usersRepo)

	_, err := svc.Register(context.Background(), RegisterInput{
		CompanyName: "Acme",
		CompanySize: enums.CompanySize1To10,
		AdminEmail:  "taken@example.com",
		AdminName:   "Dana",
		Password:    "pw",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterCompensatesUserOnAccountFailure(t *testing.T) {
	repo := &stubAccountsRepo{createErr: errors.New("insert failed")}
	usersRepo := &stubUsersRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, repo, usersRepo)

	_, err := svc.Register(context.Background(), RegisterInput{
		CompanyName: "Acme",
		CompanySize: enums.CompanySize1To10,
		AdminEmail:  "dana@acme.example",
		AdminName:   "Dana",
		Password:    "pw",
	})
	if err == nil {
		t.Fatal("expected registration failure")
	}
	if !usersRepo.deleted {
		t.Fatal("expected compensating user delete")
	}
}

func TestRegisterReportsRegistrationFailureWhenRollbackFails(t *testing.T) {
	repo := &stubAccountsRepo{createErr: errors.New("insert failed")}
	usersRepo := &stubUsersRepo{findErr: gorm.ErrRecordNotFound, deleteErr: errors.New("delete failed")}
	svc := newTestService(t, repo, usersRepo)

	_, err := svc.Register(context.Background(), RegisterInput{
		CompanyName: "Acme",
		CompanySize: enums.CompanySize1To10,
		AdminEmail:  "dana@acme.example",
		AdminName:   "Dana",
		Password:    "pw",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected the registration failure, got %v", err)
	}
	if typed.Message() != "create corporate account" {
		t.Fatalf("rollback failure must not replace the registration error, got %q", typed.Message())
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, &stubAccountsRepo{}, &stubUsersRepo{findErr: gorm.ErrRecordNotFound})

	cases := []RegisterInput{
		{CompanyName: "Acme", CompanySize: enums.CompanySize1To10, AdminEmail: "not-an-email", AdminName: "D", Password: "pw"},
		{CompanyName: "", CompanySize: enums.CompanySize1To10, AdminEmail: "d@e.com", AdminName: "D", Password: "pw"},
		{CompanyName: "Acme", CompanySize: "huge", AdminEmail: "d@e.com", AdminName: "D", Password: "pw"},
		{CompanyName: "Acme", CompanySize: enums.CompanySize1To10, AdminEmail: "d@e.com", AdminName: "D", Password: ""},
	}
	for i, input := range cases {
		_, err := svc.Register(context.Background(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestRequireForUserNotFound(t *testing.T) {
	repo := &stubAccountsRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, repo, &stubUsersRepo{})

	_, err := svc.RequireForUser(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRequireForUserSuspended(t *testing.T) {
	account := baseAccount()
	account.Status = enums.AccountStatusSuspended
	repo := &stubAccountsRepo{account: account}
	svc := newTestService(t, repo, &stubUsersRepo{})

	_, err := svc.RequireForUser(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateAccountFields(t *testing.T) {
	account := baseAccount()
	repo := &stubAccountsRepo{account: account}
	svc := newTestService(t, repo, &stubUsersRepo{})

	website := "https://acme.example"
	size := enums.CompanySize201To500
	dto, err := svc.Update(context.Background(), uuid.New(), UpdateAccountInput{
		CompanyName:    stringPtr("Acme Renamed"),
		CompanyWebsite: &website,
		CompanySize:    &size,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.CompanyName != "Acme Renamed" {
		t.Fatalf("expected renamed company, got %q", dto.CompanyName)
	}
	if dto.CompanyWebsite == nil || *dto.CompanyWebsite != website {
		t.Fatalf("expected website %q, got %v", website, dto.CompanyWebsite)
	}
	if dto.CompanySize != size {
		t.Fatalf("expected size %s, got %s", size, dto.CompanySize)
	}
	if !repo.updated {
		t.Fatal("expected repo update call")
	}
}

func TestUpdateAccountRejectsEmptyName(t *testing.T) {
	repo := &stubAccountsRepo{account: baseAccount()}
	svc := newTestService(t, repo, &stubUsersRepo{})

	_, err := svc.Update(context.Background(), uuid.New(), UpdateAccountInput{CompanyName: stringPtr("   ")})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetWithAdminsResolvesIdentities(t *testing.T) {
	admin := models.User{ID: uuid.New(), Email: "admin@acme.example", Name: "Dana Admin", Role: enums.UserRoleCorporateStaff}
	account := baseAccount()
	account.AdminUserIDs = pq.StringArray{admin.ID.String()}

	repo := &stubAccountsRepo{account: account}
	svc := newTestService(t, repo, &stubUsersRepo{byIDs: []models.User{admin}})

	detail, err := svc.GetWithAdmins(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get with admins: %v", err)
	}
	if detail.CompanyName != account.CompanyName {
		t.Fatalf("expected account fields carried, got %q", detail.CompanyName)
	}
	if len(detail.Admins) != 1 || detail.Admins[0].Email != admin.Email {
		t.Fatalf("expected the admin identity resolved, got %+v", detail.Admins)
	}
}

func TestDashboardStats(t *testing.T) {
	repo := &stubAccountsRepo{account: baseAccount()}
	svc, err := NewService(repo, &stubUsersRepo{}, stubLicenseStats{stats: SeatStats{
		TotalLicenses:   3,
		TotalSeats:      40,
		AssignedSeats:   25,
		DistinctCourses: 2,
		TotalSpend:      decimal.RequireFromString("1200.50"),
	}}, stubTraineeStats{total: 30, active: 28}, testLogger(), testPasswordCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	stats, err := svc.DashboardStats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("dashboard stats: %v", err)
	}
	if stats.AvailableSeats != 15 {
		t.Fatalf("expected 15 available seats, got %d", stats.AvailableSeats)
	}
	if stats.TotalTrainees != 30 || stats.ActiveTrainees != 28 {
		t.Fatalf("unexpected trainee counts %+v", stats)
	}
	if !stats.TotalSpend.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("unexpected spend %s", stats.TotalSpend)
	}
}

func baseAccount() *models.CorporateAccount {
	return &models.CorporateAccount{
		ID:           uuid.New(),
		CompanyName:  "Acme Industrial",
		CompanySize:  enums.CompanySize11To50,
		Status:       enums.AccountStatusActive,
		AdminUserIDs: pq.StringArray{uuid.NewString()},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, repo *stubAccountsRepo, usersRepo *stubUsersRepo) Service {
	t.Helper()
	svc, err := NewService(repo, usersRepo, stubLicenseStats{}, stubTraineeStats{}, testLogger(), testPasswordCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func stringPtr(v string) *string { return &v }

type stubAccountsRepo struct {
	account   *models.CorporateAccount
	createErr error
	findErr   error
	updateErr error
	updated   bool
}

func (s *stubAccountsRepo) Create(_ context.Context, dto CreateAccountDTO) (*models.CorporateAccount, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	account := dto.ToModel()
	account.ID = uuid.New()
	s.account = account
	return account, nil
}

func (s *stubAccountsRepo) FindByID(context.Context, uuid.UUID) (*models.CorporateAccount, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.account == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.account, nil
}

func (s *stubAccountsRepo) FindByAdminUser(context.Context, uuid.UUID) (*models.CorporateAccount, error) {
	return s.FindByID(context.Background(), uuid.Nil)
}

func (s *stubAccountsRepo) Update(_ context.Context, account *models.CorporateAccount) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = true
	s.account = account
	return nil
}

type stubUsersRepo struct {
	found     *models.User
	findErr   error
	byIDs     []models.User
	created   *models.User
	createErr error
	deleted   bool
	deleteErr error
}

func (s *stubUsersRepo) FindByEmail(context.Context, string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.found, nil
}

func (s *stubUsersRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	matched := make([]models.User, 0, len(ids))
	for _, user := range s.byIDs {
		for _, id := range ids {
			if user.ID == id {
				matched = append(matched, user)
			}
		}
	}
	return matched, nil
}

func (s *stubUsersRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.created = user
	return user, nil
}

func (s *stubUsersRepo) Delete(context.Context, uuid.UUID) error {
	s.deleted = true
	return s.deleteErr
}

type stubLicenseStats struct {
	stats SeatStats
	err   error
}

func (s stubLicenseStats) SeatStatsByAccount(context.Context, uuid.UUID) (SeatStats, error) {
	return s.stats, s.err
}

type stubTraineeStats struct {
	total  int64
	active int64
	err    error
}

func (s stubTraineeStats) CountByAccount(context.Context, uuid.UUID) (int64, int64, error) {
	return s.total, s.active, s.err
}
