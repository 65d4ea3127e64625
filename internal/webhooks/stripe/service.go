package stripewebhook

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/vbkouture/cencad-backend/internal/enrollments"
	"github.com/vbkouture/cencad-backend/internal/licenses"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/metrics"
)

// Metadata keys stamped onto checkout sessions at creation time. Corporate
// seat-batch sessions additionally carry a seat count; its presence is what
// routes the completed session to license fulfillment instead of the ledger.
const (
	metadataUserID     = "user_id"
	metadataScheduleID = "schedule_id"
	metadataCourseID   = "course_id"
	metadataSeats      = "seats"
)

type enrollmentLedger interface {
	ReconcilePaymentCompletion(ctx context.Context, event enrollments.PaymentCompletionEvent) error
}

type seatBatchPurchaser interface {
	Purchase(ctx context.Context, userID uuid.UUID, input licenses.PurchaseInput) (*licenses.LicenseDTO, error)
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type ServiceParams struct {
	Ledger   enrollmentLedger
	Licenses seatBatchPurchaser
	Guard    deliveryGuard
	Logger   *logger.Logger
	Metrics  *metrics.WebhookMetrics
}

// Service applies verified Stripe events: corporate seat-batch sessions
// become licenses, direct-purchase sessions reconcile the enrollment ledger.
type Service struct {
	ledger   enrollmentLedger
	licenses seatBatchPurchaser
	guard    deliveryGuard
	log      *logger.Logger
	metrics  *metrics.WebhookMetrics
}

// NewService builds the webhook processor. Metrics may be nil.
func NewService(params ServiceParams) (*Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "enrollments service required")
	}
	if params.Licenses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "licenses service required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		ledger:   params.Ledger,
		licenses: params.Licenses,
		guard:    params.Guard,
		log:      params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// HandleEvent processes one signature-verified delivery. Duplicate deliveries
// are acknowledged without reprocessing; the redis mark is released when the
// handler fails so Stripe's retry can land.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	duplicate, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event delivery")
	}
	if duplicate {
		s.metrics.IncEvent(string(event.Type), metrics.WebhookOutcomeDuplicate)
		return nil
	}

	if err := s.applyEvent(ctx, event); err != nil {
		s.metrics.IncEvent(string(event.Type), metrics.WebhookOutcomeFailed)
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil {
			s.log.Error(s.log.WithField(ctx, "event_id", event.ID), "release delivery mark", delErr)
		}
		return err
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		if _, ok := session.Metadata[metadataSeats]; ok {
			if err := s.fulfillSeatBatch(ctx, &session); err != nil {
				return err
			}
		} else if err := s.ledger.ReconcilePaymentCompletion(ctx, completionFromSession(&session)); err != nil {
			return err
		}
		s.metrics.IncEvent(string(event.Type), metrics.WebhookOutcomeProcessed)
		return nil
	default:
		s.metrics.IncEvent(string(event.Type), metrics.WebhookOutcomeIgnored)
		return nil
	}
}

// fulfillSeatBatch records the corporate license a completed seat-batch
// session paid for. Sessions with unusable metadata are logged and dropped,
// matching the ledger's policy; unpaid sessions are skipped.
func (s *Service) fulfillSeatBatch(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.log.Warn(s.log.WithField(ctx, "payment_status", string(session.PaymentStatus)), "ignoring unpaid seat-batch session")
		return nil
	}

	userID := parseMetadataID(session.Metadata, metadataUserID)
	courseID := parseMetadataID(session.Metadata, metadataCourseID)
	scheduleID := parseMetadataID(session.Metadata, metadataScheduleID)
	seats, seatsErr := strconv.Atoi(session.Metadata[metadataSeats])
	if userID == uuid.Nil || courseID == uuid.Nil || scheduleID == uuid.Nil || seatsErr != nil || seats < 1 {
		s.log.Warn(s.log.WithField(ctx, "checkout_session_id", session.ID), "dropping seat-batch session with missing metadata")
		return nil
	}

	input := licenses.PurchaseInput{
		CourseID:    courseID,
		ScheduleID:  scheduleID,
		TotalSeats:  seats,
		AmountTotal: decimal.New(session.AmountTotal, -2),
		Currency:    string(session.Currency),
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		intentID := session.PaymentIntent.ID
		input.StripePaymentIntentID = &intentID
	}

	_, err := s.licenses.Purchase(ctx, userID, input)
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeNotFound, pkgerrors.CodeForbidden, pkgerrors.CodeValidation:
			// retrying cannot attach the purchase to an account; drop it
			s.log.Error(s.log.WithField(ctx, "checkout_session_id", session.ID), "dropping unfulfillable seat-batch session", err)
			return nil
		}
	}
	return err
}

// completionFromSession normalizes a checkout session into the ledger's
// event shape. Unparseable metadata ids come through as uuid.Nil and the
// ledger drops the event.
func completionFromSession(session *stripe.CheckoutSession) enrollments.PaymentCompletionEvent {
	event := enrollments.PaymentCompletionEvent{
		CheckoutSessionID: session.ID,
		PaymentStatus:     string(session.PaymentStatus),
		AmountTotal:       decimal.New(session.AmountTotal, -2),
		Currency:          string(session.Currency),
		UserID:            parseMetadataID(session.Metadata, metadataUserID),
		ScheduleID:        parseMetadataID(session.Metadata, metadataScheduleID),
		CourseID:          parseMetadataID(session.Metadata, metadataCourseID),
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		intentID := session.PaymentIntent.ID
		event.PaymentIntentID = &intentID
	}
	if session.Customer != nil && session.Customer.ID != "" {
		customerID := session.Customer.ID
		event.CustomerID = &customerID
	}
	return event
}

func parseMetadataID(metadata map[string]string, key string) uuid.UUID {
	raw, ok := metadata[key]
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
