package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vbkouture/cencad-backend/api/responses"
	"github.com/vbkouture/cencad-backend/api/validators"
	"github.com/vbkouture/cencad-backend/internal/trainees"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/pagination"
)

type traineeInviteRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	Name       string  `json:"name" validate:"required"`
	EmployeeID *string `json:"employee_id"`
	Department *string `json:"department"`
	LicenseID  *string `json:"license_id"`
}

func (r traineeInviteRequest) toInput() (trainees.InviteInput, error) {
	input := trainees.InviteInput{
		Email:      r.Email,
		Name:       r.Name,
		EmployeeID: r.EmployeeID,
		Department: r.Department,
	}

	if r.LicenseID != nil && strings.TrimSpace(*r.LicenseID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*r.LicenseID))
		if err != nil {
			return trainees.InviteInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid license_id")
		}
		input.LicenseID = &id
	}

	return input, nil
}

// TraineeInvite adds an employee to the roster, provisioning a user when needed.
func TraineeInvite(svc trainees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trainees service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body traineeInviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Invite(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// TraineeList returns the caller's roster joined with user identity.
func TraineeList(svc trainees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trainees service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), userID, pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// TraineeRemove retires a roster entry after releasing its seats.
func TraineeRemove(svc trainees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trainees service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		traineeID, err := validators.UUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), userID, traineeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
