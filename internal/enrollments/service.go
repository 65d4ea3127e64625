package enrollments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
)

// paidStatus is the provider's payment-status value that triggers
// reconciliation.
const paidStatus = "paid"

type enrollmentsRepository interface {
	Create(ctx context.Context, dto CreateEnrollmentDTO) (*models.Enrollment, error)
	FindByUserAndSchedule(ctx context.Context, userID, scheduleID uuid.UUID) (*models.Enrollment, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Enrollment, error)
	UpdatePaymentIdentifiers(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID, customerID *string) error
	MarkDropped(ctx context.Context, id uuid.UUID) error
}

// Service keeps the shared enrollment ledger in step with seat assignments
// and payment callbacks.
type Service interface {
	EnsureEnrollment(ctx context.Context, userID, scheduleID, courseID uuid.UUID) error
	DropEnrollment(ctx context.Context, userID, scheduleID uuid.UUID) error
	ReconcilePaymentCompletion(ctx context.Context, event PaymentCompletionEvent) error
}

type service struct {
	repo enrollmentsRepository
	log  *logger.Logger
}

// NewService builds an enrollments service.
func NewService(repo enrollmentsRepository, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("enrollments repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, log: log}, nil
}

// EnsureEnrollment upserts the zero-amount ledger entry backing a corporate
// seat assignment. An existing entry for the pair is left untouched.
func (s *service) EnsureEnrollment(ctx context.Context, userID, scheduleID, courseID uuid.UUID) error {
	if _, err := s.repo.FindByUserAndSchedule(ctx, userID, scheduleID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup enrollment")
	}

	_, err := s.repo.Create(ctx, CreateEnrollmentDTO{
		UserID:        userID,
		ScheduleID:    scheduleID,
		CourseID:      courseID,
		PaymentMethod: enums.PaymentMethodCorporateLicense,
		AmountTotal:   decimal.Zero,
	})
	if err != nil {
		// a concurrent writer won the pair; the ledger entry exists
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create enrollment")
	}
	return nil
}

// DropEnrollment transitions the entry for (user, schedule) to DROPPED. A
// missing entry is a no-op.
func (s *service) DropEnrollment(ctx context.Context, userID, scheduleID uuid.UUID) error {
	enrollment, err := s.repo.FindByUserAndSchedule(ctx, userID, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup enrollment")
	}
	if err := s.repo.MarkDropped(ctx, enrollment.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop enrollment")
	}
	return nil
}

// ReconcilePaymentCompletion applies an at-least-once payment callback to the
// ledger. Events that are unpaid or missing metadata are dropped, never
// retried.
func (s *service) ReconcilePaymentCompletion(ctx context.Context, event PaymentCompletionEvent) error {
	if event.PaymentStatus != paidStatus {
		s.log.Warn(s.log.WithField(ctx, "payment_status", event.PaymentStatus), "ignoring unpaid checkout session")
		return nil
	}
	if event.CheckoutSessionID == "" || event.UserID == uuid.Nil || event.ScheduleID == uuid.Nil || event.CourseID == uuid.Nil {
		s.log.Warn(s.log.WithField(ctx, "checkout_session_id", event.CheckoutSessionID), "dropping payment event with missing metadata")
		return nil
	}

	// key 1: the session was already applied
	if _, err := s.repo.FindByCheckoutSession(ctx, event.CheckoutSessionID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup enrollment by checkout session")
	}

	// key 2: the pair is enrolled from an earlier attempt; adopt the new
	// payment identifiers instead of inserting a duplicate
	if existing, err := s.repo.FindByUserAndSchedule(ctx, event.UserID, event.ScheduleID); err == nil {
		sessionID := event.CheckoutSessionID
		if err := s.repo.UpdatePaymentIdentifiers(ctx, existing.ID, &sessionID, event.PaymentIntentID, event.CustomerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment identifiers")
		}
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup enrollment by user and schedule")
	}

	sessionID := event.CheckoutSessionID
	_, err := s.repo.Create(ctx, CreateEnrollmentDTO{
		UserID:                  event.UserID,
		ScheduleID:              event.ScheduleID,
		CourseID:                event.CourseID,
		PaymentMethod:           enums.PaymentMethodDirect,
		AmountTotal:             event.AmountTotal,
		Currency:                event.Currency,
		StripeCheckoutSessionID: &sessionID,
		StripePaymentIntentID:   event.PaymentIntentID,
		StripeCustomerID:        event.CustomerID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create enrollment from payment event")
	}
	return nil
}
