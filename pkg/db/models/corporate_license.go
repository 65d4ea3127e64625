package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// CorporateLicense is one purchased batch of seats for a (course, schedule)
// pair. AssignedSeats moves only through the conditional increment/decrement
// operations on the repository.
type CorporateLicense struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CorporateAccountID    uuid.UUID           `gorm:"column:corporate_account_id;type:uuid;not null;index"`
	CourseID              uuid.UUID           `gorm:"column:course_id;type:uuid;not null"`
	ScheduleID            uuid.UUID           `gorm:"column:schedule_id;type:uuid;not null"`
	TotalSeats            int                 `gorm:"column:total_seats;not null"`
	AssignedSeats         int                 `gorm:"column:assigned_seats;not null;default:0"`
	AmountTotal           decimal.Decimal     `gorm:"column:amount_total;type:numeric(12,2);not null"`
	Currency              string              `gorm:"column:currency;not null;default:'usd'"`
	Status                enums.LicenseStatus `gorm:"column:status;not null;default:'ACTIVE'"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id;uniqueIndex"`
	PurchasedAt           time.Time           `gorm:"column:purchased_at;autoCreateTime"`
	ExpiresAt             *time.Time          `gorm:"column:expires_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// SeatsAvailable returns the number of unassigned seats.
func (l CorporateLicense) SeatsAvailable() int {
	return l.TotalSeats - l.AssignedSeats
}
