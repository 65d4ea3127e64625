package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/vbkouture/cencad-backend/internal/enrollments"
	"github.com/vbkouture/cencad-backend/internal/licenses"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
)

type stubLedger struct {
	events []enrollments.PaymentCompletionEvent
	err    error
}

func (s *stubLedger) ReconcilePaymentCompletion(_ context.Context, event enrollments.PaymentCompletionEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubPurchaser struct {
	userIDs []uuid.UUID
	inputs  []licenses.PurchaseInput
	err     error
}

func (s *stubPurchaser) Purchase(_ context.Context, userID uuid.UUID, input licenses.PurchaseInput) (*licenses.LicenseDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.userIDs = append(s.userIDs, userID)
	s.inputs = append(s.inputs, input)
	return &licenses.LicenseDTO{ID: uuid.New(), TotalSeats: input.TotalSeats}, nil
}

type stubGuard struct {
	seen     map[string]bool
	markErr  error
	released []string
}

func (s *stubGuard) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[eventID] {
		return true, nil
	}
	s.seen[eventID] = true
	return false, nil
}

func (s *stubGuard) Delete(_ context.Context, eventID string) error {
	delete(s.seen, eventID)
	s.released = append(s.released, eventID)
	return nil
}

func newTestService(t *testing.T, ledger *stubLedger, guard *stubGuard) *Service {
	t.Helper()
	return newTestServiceWithPurchaser(t, ledger, &stubPurchaser{}, guard)
}

func newTestServiceWithPurchaser(t *testing.T, ledger *stubLedger, purchaser *stubPurchaser, guard *stubGuard) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Ledger:   ledger,
		Licenses: purchaser,
		Guard:    guard,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func checkoutCompletedEvent(t *testing.T, session map[string]any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventReconcilesCheckoutSession(t *testing.T) {
	userID := uuid.New()
	scheduleID := uuid.New()
	courseID := uuid.New()

	ledger := &stubLedger{}
	svc := newTestService(t, ledger, &stubGuard{})

	event := checkoutCompletedEvent(t, map[string]any{
		"id":             "cs_test_123",
		"payment_status": "paid",
		"amount_total":   14900,
		"currency":       "usd",
		"payment_intent": map[string]any{"id": "pi_123"},
		"customer":       map[string]any{"id": "cus_123"},
		"metadata": map[string]string{
			"user_id":     userID.String(),
			"schedule_id": scheduleID.String(),
			"course_id":   courseID.String(),
		},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(ledger.events) != 1 {
		t.Fatalf("expected one reconciliation, got %d", len(ledger.events))
	}
	got := ledger.events[0]
	if got.CheckoutSessionID != "cs_test_123" || got.PaymentStatus != "paid" {
		t.Fatalf("unexpected event %+v", got)
	}
	if !got.AmountTotal.Equal(decimal.RequireFromString("149.00")) {
		t.Fatalf("expected amount 149.00, got %s", got.AmountTotal)
	}
	if got.UserID != userID || got.ScheduleID != scheduleID || got.CourseID != courseID {
		t.Fatalf("unexpected metadata ids %+v", got)
	}
	if got.PaymentIntentID == nil || *got.PaymentIntentID != "pi_123" {
		t.Fatal("expected payment intent id")
	}
	if got.CustomerID == nil || *got.CustomerID != "cus_123" {
		t.Fatal("expected customer id")
	}
}

func TestHandleEventDuplicateDeliveryIsAcknowledged(t *testing.T) {
	ledger := &stubLedger{}
	svc := newTestService(t, ledger, &stubGuard{})

	event := checkoutCompletedEvent(t, map[string]any{"id": "cs_dup", "payment_status": "paid"})
	for i := 0; i < 2; i++ {
		if err := svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if len(ledger.events) != 1 {
		t.Fatalf("expected one reconciliation after redelivery, got %d", len(ledger.events))
	}
}

func TestHandleEventReleasesMarkOnFailure(t *testing.T) {
	ledger := &stubLedger{err: errors.New("ledger down")}
	guard := &stubGuard{}
	svc := newTestService(t, ledger, guard)

	event := checkoutCompletedEvent(t, map[string]any{"id": "cs_fail", "payment_status": "paid"})
	if err := svc.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected handler failure")
	}
	if len(guard.released) != 1 || guard.released[0] != event.ID {
		t.Fatal("expected delivery mark release for retry")
	}

	// the retry is processed once the ledger recovers
	ledger.err = nil
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(ledger.events) != 1 {
		t.Fatalf("expected one reconciliation, got %d", len(ledger.events))
	}
}

func TestHandleEventFulfillsSeatBatchSession(t *testing.T) {
	userID := uuid.New()
	scheduleID := uuid.New()
	courseID := uuid.New()

	ledger := &stubLedger{}
	purchaser := &stubPurchaser{}
	svc := newTestServiceWithPurchaser(t, ledger, purchaser, &stubGuard{})

	event := checkoutCompletedEvent(t, map[string]any{
		"id":             "cs_seat_batch_25",
		"payment_status": "paid",
		"amount_total":   125000,
		"currency":       "usd",
		"payment_intent": map[string]any{"id": "pi_seats_25"},
		"metadata": map[string]string{
			"user_id":     userID.String(),
			"schedule_id": scheduleID.String(),
			"course_id":   courseID.String(),
			"seats":       "25",
		},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(ledger.events) != 0 {
		t.Fatal("seat-batch sessions must not touch the enrollment ledger")
	}
	if len(purchaser.inputs) != 1 {
		t.Fatalf("expected one purchase, got %d", len(purchaser.inputs))
	}
	got := purchaser.inputs[0]
	if purchaser.userIDs[0] != userID {
		t.Fatalf("expected purchasing user %s, got %s", userID, purchaser.userIDs[0])
	}
	if got.TotalSeats != 25 || got.CourseID != courseID || got.ScheduleID != scheduleID {
		t.Fatalf("unexpected purchase input %+v", got)
	}
	if !got.AmountTotal.Equal(decimal.RequireFromString("1250.00")) {
		t.Fatalf("expected amount 1250.00, got %s", got.AmountTotal)
	}
	if got.StripePaymentIntentID == nil || *got.StripePaymentIntentID != "pi_seats_25" {
		t.Fatal("expected payment intent id on purchase input")
	}
}

func TestHandleEventDropsSeatBatchWithBadMetadata(t *testing.T) {
	purchaser := &stubPurchaser{}
	svc := newTestServiceWithPurchaser(t, &stubLedger{}, purchaser, &stubGuard{})

	event := checkoutCompletedEvent(t, map[string]any{
		"id":             "cs_bad_seats",
		"payment_status": "paid",
		"metadata": map[string]string{
			"user_id": uuid.NewString(),
			"seats":   "not-a-number",
		},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("bad metadata must be dropped, not retried: %v", err)
	}
	if len(purchaser.inputs) != 0 {
		t.Fatal("expected no purchase for unusable metadata")
	}
}

func TestHandleEventDropsSeatBatchWithoutAccount(t *testing.T) {
	purchaser := &stubPurchaser{err: pkgerrors.New(pkgerrors.CodeNotFound, "corporate account not found")}
	svc := newTestServiceWithPurchaser(t, &stubLedger{}, purchaser, &stubGuard{})

	event := checkoutCompletedEvent(t, map[string]any{
		"id":             "cs_orphan",
		"payment_status": "paid",
		"metadata": map[string]string{
			"user_id":     uuid.NewString(),
			"schedule_id": uuid.NewString(),
			"course_id":   uuid.NewString(),
			"seats":       "5",
		},
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unattributable purchase must be dropped, not retried: %v", err)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	ledger := &stubLedger{}
	svc := newTestService(t, ledger, &stubGuard{})

	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(ledger.events) != 0 {
		t.Fatal("expected no reconciliation for unrelated events")
	}
}
