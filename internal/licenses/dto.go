package licenses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// LicenseDTO exposes seat-batch data in API responses.
type LicenseDTO struct {
	ID                    uuid.UUID           `json:"id"`
	CorporateAccountID    uuid.UUID           `json:"corporate_account_id"`
	CourseID              uuid.UUID           `json:"course_id"`
	ScheduleID            uuid.UUID           `json:"schedule_id"`
	TotalSeats            int                 `json:"total_seats"`
	AssignedSeats         int                 `json:"assigned_seats"`
	AvailableSeats        int                 `json:"available_seats"`
	AmountTotal           decimal.Decimal     `json:"amount_total"`
	Currency              string              `json:"currency"`
	Status                enums.LicenseStatus `json:"status"`
	StripePaymentIntentID *string             `json:"stripe_payment_intent_id,omitempty"`
	PurchasedAt           time.Time           `json:"purchased_at"`
	ExpiresAt             *time.Time          `json:"expires_at,omitempty"`
}

// CreateLicenseDTO holds creation-time data for a purchased seat batch.
type CreateLicenseDTO struct {
	CorporateAccountID    uuid.UUID
	CourseID              uuid.UUID
	ScheduleID            uuid.UUID
	TotalSeats            int
	AmountTotal           decimal.Decimal
	Currency              string
	StripePaymentIntentID *string
	ExpiresAt             *time.Time
}

// FromModel maps the persisted license into a DTO.
func FromModel(m *models.CorporateLicense) *LicenseDTO {
	if m == nil {
		return nil
	}

	return &LicenseDTO{
		ID:                    m.ID,
		CorporateAccountID:    m.CorporateAccountID,
		CourseID:              m.CourseID,
		ScheduleID:            m.ScheduleID,
		TotalSeats:            m.TotalSeats,
		AssignedSeats:         m.AssignedSeats,
		AvailableSeats:        m.SeatsAvailable(),
		AmountTotal:           m.AmountTotal,
		Currency:              m.Currency,
		Status:                m.Status,
		StripePaymentIntentID: m.StripePaymentIntentID,
		PurchasedAt:           m.PurchasedAt,
		ExpiresAt:             m.ExpiresAt,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateLicenseDTO) ToModel() *models.CorporateLicense {
	currency := c.Currency
	if currency == "" {
		currency = "usd"
	}

	return &models.CorporateLicense{
		CorporateAccountID:    c.CorporateAccountID,
		CourseID:              c.CourseID,
		ScheduleID:            c.ScheduleID,
		TotalSeats:            c.TotalSeats,
		AssignedSeats:         0,
		AmountTotal:           c.AmountTotal,
		Currency:              currency,
		Status:                enums.LicenseStatusActive,
		StripePaymentIntentID: c.StripePaymentIntentID,
		ExpiresAt:             c.ExpiresAt,
	}
}
