package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/users"
	"github.com/vbkouture/cencad-backend/pkg/config"
	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/security"
)

type accountsRepository interface {
	Create(ctx context.Context, dto CreateAccountDTO) (*models.CorporateAccount, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateAccount, error)
	FindByAdminUser(ctx context.Context, userID uuid.UUID) (*models.CorporateAccount, error)
	Update(ctx context.Context, account *models.CorporateAccount) error
}

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SeatStats is the license-side slice of the dashboard aggregation.
type SeatStats struct {
	TotalLicenses   int64
	TotalSeats      int64
	AssignedSeats   int64
	DistinctCourses int64
	TotalSpend      decimal.Decimal
}

type licenseStatsRepository interface {
	SeatStatsByAccount(ctx context.Context, accountID uuid.UUID) (SeatStats, error)
}

type traineeStatsRepository interface {
	CountByAccount(ctx context.Context, accountID uuid.UUID) (total int64, active int64, err error)
}

// Service exposes corporate account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	RequireForUser(ctx context.Context, userID uuid.UUID) (*AccountDTO, error)
	GetWithAdmins(ctx context.Context, userID uuid.UUID) (*AccountDetail, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateAccountInput) (*AccountDTO, error)
	DashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error)
}

type service struct {
	repo         accountsRepository
	users        usersRepository
	licenseStats licenseStatsRepository
	traineeStats traineeStatsRepository
	log          *logger.Logger
	passwordCfg  config.PasswordConfig
}

// NewService builds an accounts service with the provided repositories.
func NewService(repo accountsRepository, usersRepo usersRepository, licenseStats licenseStatsRepository, traineeStats traineeStatsRepository, log *logger.Logger, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if licenseStats == nil {
		return nil, fmt.Errorf("license stats repository required")
	}
	if traineeStats == nil {
		return nil, fmt.Errorf("trainee stats repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         repo,
		users:        usersRepo,
		licenseStats: licenseStats,
		traineeStats: traineeStats,
		log:          log,
		passwordCfg:  passwordCfg,
	}, nil
}

// RegisterInput captures the company profile plus the first admin identity.
type RegisterInput struct {
	CompanyName    string
	CompanyWebsite *string
	Industry       *string
	CompanySize    enums.CompanySize
	Address        *string
	Phone          *string
	AdminName      string
	AdminEmail     string
	Password       string
}

// RegisterResult returns both halves of a successful registration.
type RegisterResult struct {
	Account AccountDTO    `json:"account"`
	Admin   users.UserDTO `json:"admin"`
}

// UpdateAccountInput captures the mutable company profile fields.
type UpdateAccountInput struct {
	CompanyName    *string
	CompanyWebsite *string
	Industry       *string
	CompanySize    *enums.CompanySize
	Address        *string
	Phone          *string
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.AdminEmail))
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin email")
	}
	if strings.TrimSpace(input.CompanyName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name is required")
	}
	if !input.CompanySize.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid company size")
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup admin email")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	admin, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		Name:         strings.TrimSpace(input.AdminName),
		PasswordHash: hash,
		Role:         enums.UserRoleCorporateStaff,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin user")
	}

	account, err := s.repo.Create(ctx, CreateAccountDTO{
		CompanyName:    strings.TrimSpace(input.CompanyName),
		CompanyWebsite: input.CompanyWebsite,
		Industry:       input.Industry,
		CompanySize:    input.CompanySize,
		Address:        input.Address,
		Phone:          input.Phone,
		Status:         enums.AccountStatusActive,
		AdminUserIDs:   []uuid.UUID{admin.ID},
	})
	if err != nil {
		// compensating delete keeps the identity store consistent; a failed
		// rollback is logged and the caller still sees the registration error
		if delErr := s.users.Delete(ctx, admin.ID); delErr != nil {
			s.log.Error(s.log.WithUserID(ctx, admin.ID.String()), "rollback admin user after account failure", delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create corporate account")
	}

	return &RegisterResult{
		Account: *FromModel(account),
		Admin:   *users.FromModel(admin),
	}, nil
}

func (s *service) RequireForUser(ctx context.Context, userID uuid.UUID) (*AccountDTO, error) {
	account, err := s.requireAccountModel(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(account), nil
}

// GetWithAdmins returns the caller's account with its admin_user_ids
// resolved to user identities.
func (s *service) GetWithAdmins(ctx context.Context, userID uuid.UUID) (*AccountDetail, error) {
	account, err := s.RequireForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	admins, err := s.users.FindByIDs(ctx, account.AdminUserIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve admin users")
	}

	detail := &AccountDetail{AccountDTO: *account, Admins: make([]users.UserDTO, 0, len(admins))}
	for i := range admins {
		detail.Admins = append(detail.Admins, *users.FromModel(&admins[i]))
	}
	return detail, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, input UpdateAccountInput) (*AccountDTO, error) {
	account, err := s.requireAccountModel(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.CompanyName != nil {
		if strings.TrimSpace(*input.CompanyName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name cannot be empty")
		}
		account.CompanyName = strings.TrimSpace(*input.CompanyName)
	}
	if input.CompanyWebsite != nil {
		account.CompanyWebsite = cloneStringPtr(input.CompanyWebsite)
	}
	if input.Industry != nil {
		account.Industry = cloneStringPtr(input.Industry)
	}
	if input.CompanySize != nil {
		if !input.CompanySize.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid company size")
		}
		account.CompanySize = *input.CompanySize
	}
	if input.Address != nil {
		account.Address = cloneStringPtr(input.Address)
	}
	if input.Phone != nil {
		account.Phone = cloneStringPtr(input.Phone)
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update corporate account")
	}
	return FromModel(account), nil
}

func (s *service) DashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	account, err := s.requireAccountModel(ctx, userID)
	if err != nil {
		return nil, err
	}

	seatStats, err := s.licenseStats.SeatStatsByAccount(ctx, account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate license stats")
	}

	total, active, err := s.traineeStats.CountByAccount(ctx, account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count trainees")
	}

	return &DashboardStats{
		TotalLicenses:   seatStats.TotalLicenses,
		TotalSeats:      seatStats.TotalSeats,
		AssignedSeats:   seatStats.AssignedSeats,
		AvailableSeats:  seatStats.TotalSeats - seatStats.AssignedSeats,
		DistinctCourses: seatStats.DistinctCourses,
		TotalSpend:      seatStats.TotalSpend,
		TotalTrainees:   total,
		ActiveTrainees:  active,
	}, nil
}

func (s *service) requireAccountModel(ctx context.Context, userID uuid.UUID) (*models.CorporateAccount, error) {
	account, err := s.repo.FindByAdminUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "corporate account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load corporate account")
	}
	if !account.Status.IsOperational() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "corporate account is not active")
	}
	return account, nil
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
