package enrollments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// Repository exposes enrollment-ledger persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an enrollments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a ledger entry and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateEnrollmentDTO) (*models.Enrollment, error) {
	enrollment := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

// FindByUserAndSchedule loads the ledger entry for a (user, schedule) pair.
func (r *Repository) FindByUserAndSchedule(ctx context.Context, userID, scheduleID uuid.UUID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND schedule_id = ?", userID, scheduleID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByCheckoutSession loads the ledger entry carrying the provider's
// checkout-session id.
func (r *Repository) FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("stripe_checkout_session_id = ?", sessionID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UpdatePaymentIdentifiers stamps provider identifiers onto an existing entry
// and marks it paid.
func (r *Repository) UpdatePaymentIdentifiers(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID, customerID *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"stripe_checkout_session_id": sessionID,
			"stripe_payment_intent_id":   paymentIntentID,
			"stripe_customer_id":         customerID,
			"payment_status":             enums.PaymentStatusPaid,
		}).Error
}

// MarkDropped transitions the entry to DROPPED.
func (r *Repository) MarkDropped(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		UpdateColumn("status", enums.EnrollmentStatusDropped).Error
}
