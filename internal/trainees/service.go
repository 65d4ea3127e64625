package trainees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/internal/users"
	"github.com/vbkouture/cencad-backend/pkg/config"
	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/mailer"
	"github.com/vbkouture/cencad-backend/pkg/pagination"
	"github.com/vbkouture/cencad-backend/pkg/security"
)

type traineesRepository interface {
	Create(ctx context.Context, dto CreateTraineeDTO) (*models.CorporateTrainee, error)
	FindForAccount(ctx context.Context, accountID, traineeID uuid.UUID) (*models.CorporateTrainee, error)
	FindByAccountAndUser(ctx context.Context, accountID, userID uuid.UUID) (*models.CorporateTrainee, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]TraineeRow, int64, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID, employeeID, department *string) (*models.CorporateTrainee, error)
}

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type accountProvider interface {
	RequireForUser(ctx context.Context, userID uuid.UUID) (*accounts.AccountDTO, error)
}

type seatAssigner interface {
	AssignForAccount(ctx context.Context, accountID, traineeID, licenseID uuid.UUID) error
	RemoveAllForTrainee(ctx context.Context, traineeID uuid.UUID) error
}

// Service exposes roster and invitation operations.
type Service interface {
	Invite(ctx context.Context, userID uuid.UUID, input InviteInput) (*InviteResult, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[TraineeDTO], error)
	Remove(ctx context.Context, userID uuid.UUID, traineeID uuid.UUID) error
}

type service struct {
	repo        traineesRepository
	users       usersRepository
	accounts    accountProvider
	assignments seatAssigner
	mail        mailer.Mailer
	log         *logger.Logger
	passwordCfg config.PasswordConfig
}

// NewService builds a trainees service with the provided collaborators.
func NewService(repo traineesRepository, usersRepo usersRepository, accountsSvc accountProvider, assignments seatAssigner, mail mailer.Mailer, log *logger.Logger, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("trainees repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if accountsSvc == nil {
		return nil, fmt.Errorf("accounts service required")
	}
	if assignments == nil {
		return nil, fmt.Errorf("assignments service required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		users:       usersRepo,
		accounts:    accountsSvc,
		assignments: assignments,
		mail:        mail,
		log:         log,
		passwordCfg: passwordCfg,
	}, nil
}

// InviteInput captures an invitation request.
type InviteInput struct {
	Email      string
	Name       string
	EmployeeID *string
	Department *string
	LicenseID  *uuid.UUID
}

func (s *service) Invite(ctx context.Context, userID uuid.UUID, input InviteInput) (*InviteResult, error) {
	account, err := s.accounts.RequireForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid trainee email")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trainee name is required")
	}

	user, userCreated, err := s.resolveUser(ctx, account, email, name)
	if err != nil {
		return nil, err
	}

	// removed employees keep their roster row; a new invite re-onboards it
	var trainee *models.CorporateTrainee
	switch existing, err := s.repo.FindByAccountAndUser(ctx, account.ID, user.ID); {
	case err == nil && existing.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a trainee of this account")
	case err == nil:
		trainee, err = s.repo.Reactivate(ctx, existing.ID, input.EmployeeID, input.Department)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reactivate trainee")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		trainee, err = s.repo.Create(ctx, CreateTraineeDTO{
			CorporateAccountID: account.ID,
			UserID:             user.ID,
			EmployeeID:         input.EmployeeID,
			Department:         input.Department,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a trainee of this account")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trainee")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup existing trainee")
	}

	result := &InviteResult{
		Trainee:     fromModel(trainee, user),
		UserCreated: userCreated,
	}

	if input.LicenseID != nil {
		if err := s.assignments.AssignForAccount(ctx, account.ID, trainee.ID, *input.LicenseID); err != nil {
			// the invitation stands; the caller can retry the assignment
			s.log.Warn(s.log.WithField(ctx, "trainee_id", trainee.ID.String()), "inline seat assignment failed")
			note := err.Error()
			result.AssignmentError = &note
		}
	}
	return result, nil
}

// resolveUser finds the platform user for the email, provisioning a shadow
// account with a one-time password when none exists.
func (s *service) resolveUser(ctx context.Context, account *accounts.AccountDTO, email, name string) (*models.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup trainee email")
	}

	otp, err := security.GenerateOTP(security.DefaultOTPLength)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate one-time password")
	}
	hash, err := security.HashPassword(otp, s.passwordCfg)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash one-time password")
	}

	user, err = s.users.Create(ctx, users.CreateUserDTO{
		Email:               email,
		Name:                name,
		PasswordHash:        hash,
		Role:                enums.UserRoleStudent,
		ForcePasswordChange: true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shadow user")
	}

	// delivery failure is logged, never fatal
	if err := s.mail.SendTraineeInvite(ctx, mailer.Invite{
		To:          email,
		Name:        name,
		CompanyName: account.CompanyName,
		TempPass:    otp,
	}); err != nil {
		s.log.Error(s.log.WithUserID(ctx, user.ID.String()), "send invite email", err)
	}
	return user, true, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[TraineeDTO], error) {
	account, err := s.accounts.RequireForUser(ctx, userID)
	if err != nil {
		return pagination.Page[TraineeDTO]{}, err
	}

	params = params.Normalize()
	rows, total, err := s.repo.ListByAccount(ctx, account.ID, params)
	if err != nil {
		return pagination.Page[TraineeDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trainees")
	}

	items := make([]TraineeDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromRow(row))
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *service) Remove(ctx context.Context, userID uuid.UUID, traineeID uuid.UUID) error {
	account, err := s.accounts.RequireForUser(ctx, userID)
	if err != nil {
		return err
	}

	trainee, err := s.repo.FindForAccount(ctx, account.ID, traineeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "trainee not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trainee")
	}

	// seats go back to the pool before the roster entry is retired
	if err := s.assignments.RemoveAllForTrainee(ctx, trainee.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release trainee assignments")
	}

	if err := s.repo.Deactivate(ctx, trainee.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate trainee")
	}
	return nil
}
