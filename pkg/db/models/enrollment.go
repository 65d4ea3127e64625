package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// Enrollment is the platform-wide registration ledger entry for a user in a
// course offering. This subsystem writes Enrollments but does not own the
// wider schema; (user_id, schedule_id) is unique across the platform.
type Enrollment struct {
	ID                      uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID                  uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_enrollments_user_schedule"`
	ScheduleID              uuid.UUID              `gorm:"column:schedule_id;type:uuid;not null;uniqueIndex:ux_enrollments_user_schedule"`
	CourseID                uuid.UUID              `gorm:"column:course_id;type:uuid;not null"`
	Status                  enums.EnrollmentStatus `gorm:"column:status;not null;default:'ENROLLED'"`
	PaymentStatus           enums.PaymentStatus    `gorm:"column:payment_status;not null;default:'PENDING'"`
	PaymentMethod           enums.PaymentMethod    `gorm:"column:payment_method;not null;default:'direct'"`
	AmountTotal             decimal.Decimal        `gorm:"column:amount_total;type:numeric(12,2);not null"`
	Currency                string                 `gorm:"column:currency;not null;default:'usd'"`
	StripeCheckoutSessionID *string                `gorm:"column:stripe_checkout_session_id;index"`
	StripePaymentIntentID   *string                `gorm:"column:stripe_payment_intent_id"`
	StripeCustomerID        *string                `gorm:"column:stripe_customer_id"`
	EnrolledAt              time.Time              `gorm:"column:enrolled_at;autoCreateTime"`
	CreatedAt               time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
