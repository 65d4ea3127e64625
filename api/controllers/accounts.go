package controllers

import (
	"net/http"

	"github.com/vbkouture/cencad-backend/api/middleware"
	"github.com/vbkouture/cencad-backend/api/responses"
	"github.com/vbkouture/cencad-backend/api/validators"
	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/google/uuid"
)

type accountUpdateRequest struct {
	CompanyName    *string `json:"company_name"`
	CompanyWebsite *string `json:"company_website"`
	Industry       *string `json:"industry"`
	CompanySize    *string `json:"company_size"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
}

func (r accountUpdateRequest) toInput() (accounts.UpdateAccountInput, error) {
	input := accounts.UpdateAccountInput{
		CompanyName:    r.CompanyName,
		CompanyWebsite: r.CompanyWebsite,
		Industry:       r.Industry,
		Address:        r.Address,
		Phone:          r.Phone,
	}

	if r.CompanySize != nil {
		size, err := enums.ParseCompanySize(*r.CompanySize)
		if err != nil {
			return accounts.UpdateAccountInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid company size")
		}
		input.CompanySize = &size
	}

	return input, nil
}

func callerID(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

// AccountGet returns the caller's corporate account.
func AccountGet(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.GetWithAdmins(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, account)
	}
}

// AccountUpdate patches the caller's company profile.
func AccountUpdate(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body accountUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.Update(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, account)
	}
}

// DashboardStats returns the seat and roster aggregates for the caller's account.
func DashboardStats(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.DashboardStats(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
