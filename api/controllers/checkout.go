package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v84"

	"github.com/vbkouture/cencad-backend/api/responses"
	"github.com/vbkouture/cencad-backend/api/validators"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	stripepkg "github.com/vbkouture/cencad-backend/pkg/stripe"
)

type checkoutSessionCreator interface {
	CreateCheckoutSession(ctx context.Context, input stripepkg.CheckoutSessionInput) (*stripe.CheckoutSession, error)
}

type checkoutSessionRequest struct {
	PriceID    string `json:"price_id" validate:"required"`
	Seats      int64  `json:"seats" validate:"required,min=1"`
	CourseID   string `json:"course_id" validate:"required,uuid"`
	ScheduleID string `json:"schedule_id" validate:"required,uuid"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

type checkoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutSessionCreate hands the purchase off to the hosted payment page.
// Pricing and fulfillment stay on the provider side; the webhook brings the
// completed payment back in.
func CheckoutSessionCreate(client checkoutSessionCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := client.CreateCheckoutSession(r.Context(), stripepkg.CheckoutSessionInput{
			PriceID:    body.PriceID,
			Quantity:   body.Seats,
			SuccessURL: body.SuccessURL,
			CancelURL:  body.CancelURL,
			Metadata: map[string]string{
				"user_id":     userID.String(),
				"course_id":   body.CourseID,
				"schedule_id": body.ScheduleID,
				"seats":       strconv.FormatInt(body.Seats, 10),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session"))
			return
		}

		responses.WriteSuccess(w, checkoutSessionResponse{SessionID: session.ID, URL: session.URL})
	}
}
