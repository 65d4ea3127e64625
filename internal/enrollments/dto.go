package enrollments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// CreateEnrollmentDTO holds the data required to persist a ledger entry.
type CreateEnrollmentDTO struct {
	UserID                  uuid.UUID
	ScheduleID              uuid.UUID
	CourseID                uuid.UUID
	PaymentMethod           enums.PaymentMethod
	AmountTotal             decimal.Decimal
	Currency                string
	StripeCheckoutSessionID *string
	StripePaymentIntentID   *string
	StripeCustomerID        *string
}

func (c CreateEnrollmentDTO) ToModel() *models.Enrollment {
	currency := c.Currency
	if currency == "" {
		currency = "usd"
	}
	method := c.PaymentMethod
	if !method.IsValid() {
		method = enums.PaymentMethodDirect
	}
	return &models.Enrollment{
		UserID:                  c.UserID,
		ScheduleID:              c.ScheduleID,
		CourseID:                c.CourseID,
		Status:                  enums.EnrollmentStatusEnrolled,
		PaymentStatus:           enums.PaymentStatusPaid,
		PaymentMethod:           method,
		AmountTotal:             c.AmountTotal,
		Currency:                currency,
		StripeCheckoutSessionID: c.StripeCheckoutSessionID,
		StripePaymentIntentID:   c.StripePaymentIntentID,
		StripeCustomerID:        c.StripeCustomerID,
	}
}

// PaymentCompletionEvent is the normalized payment-callback payload handed to
// the reconciler. Metadata ids arrive pre-parsed; uuid.Nil marks a missing
// field.
type PaymentCompletionEvent struct {
	CheckoutSessionID string
	PaymentStatus     string
	AmountTotal       decimal.Decimal
	Currency          string
	PaymentIntentID   *string
	CustomerID        *string
	UserID            uuid.UUID
	ScheduleID        uuid.UUID
	CourseID          uuid.UUID
}
