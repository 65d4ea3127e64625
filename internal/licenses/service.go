package licenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/pagination"
)

type licensesRepository interface {
	Create(ctx context.Context, dto CreateLicenseDTO) (*models.CorporateLicense, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.CorporateLicense, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.CorporateLicense, int64, error)
}

type accountProvider interface {
	RequireForUser(ctx context.Context, userID uuid.UUID) (*accounts.AccountDTO, error)
}

// Service exposes seat-batch operations.
type Service interface {
	Purchase(ctx context.Context, userID uuid.UUID, input PurchaseInput) (*LicenseDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[LicenseDTO], error)
}

type service struct {
	repo     licensesRepository
	accounts accountProvider
}

// NewService builds a licenses service with the provided collaborators.
func NewService(repo licensesRepository, accountsSvc accountProvider) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("licenses repository required")
	}
	if accountsSvc == nil {
		return nil, fmt.Errorf("accounts service required")
	}
	return &service{repo: repo, accounts: accountsSvc}, nil
}

// PurchaseInput captures a completed seat-batch purchase.
type PurchaseInput struct {
	CourseID              uuid.UUID
	ScheduleID            uuid.UUID
	TotalSeats            int
	AmountTotal           decimal.Decimal
	Currency              string
	StripePaymentIntentID *string
	ExpiresAt             *time.Time
}

// Purchase records a confirmed seat-batch purchase. Calls carrying a payment
// intent id are idempotent per intent, so a redelivered payment confirmation
// returns the already-recorded license instead of a second batch.
func (s *service) Purchase(ctx context.Context, userID uuid.UUID, input PurchaseInput) (*LicenseDTO, error) {
	account, err := s.accounts.RequireForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.CourseID == uuid.Nil || input.ScheduleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course and schedule are required")
	}
	if input.TotalSeats < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total seats must be at least 1")
	}
	if input.AmountTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}

	if input.StripePaymentIntentID != nil {
		if existing, err := s.repo.FindByPaymentIntent(ctx, *input.StripePaymentIntentID); err == nil {
			return FromModel(existing), nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license by payment intent")
		}
	}

	license, err := s.repo.Create(ctx, CreateLicenseDTO{
		CorporateAccountID:    account.ID,
		CourseID:              input.CourseID,
		ScheduleID:            input.ScheduleID,
		TotalSeats:            input.TotalSeats,
		AmountTotal:           input.AmountTotal,
		Currency:              input.Currency,
		StripePaymentIntentID: input.StripePaymentIntentID,
		ExpiresAt:             input.ExpiresAt,
	})
	if err != nil {
		// a concurrent delivery recorded the intent first
		if input.StripePaymentIntentID != nil && db.IsUniqueViolation(err, "") {
			existing, findErr := s.repo.FindByPaymentIntent(ctx, *input.StripePaymentIntentID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "refetch license by payment intent")
			}
			return FromModel(existing), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create license")
	}
	return FromModel(license), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[LicenseDTO], error) {
	account, err := s.accounts.RequireForUser(ctx, userID)
	if err != nil {
		return pagination.Page[LicenseDTO]{}, err
	}

	params = params.Normalize()
	rows, total, err := s.repo.ListByAccount(ctx, account.ID, params)
	if err != nil {
		return pagination.Page[LicenseDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list licenses")
	}

	items := make([]LicenseDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return pagination.NewPage(items, total, params), nil
}
