package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vbkouture/cencad-backend/api/responses"
	"github.com/vbkouture/cencad-backend/api/validators"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
)

type assignmentsService interface {
	Assign(ctx context.Context, userID, traineeID, licenseID uuid.UUID) error
	Unassign(ctx context.Context, userID, traineeID, licenseID uuid.UUID) error
}

type assignmentRequest struct {
	TraineeID string `json:"trainee_id" validate:"required,uuid"`
	LicenseID string `json:"license_id" validate:"required,uuid"`
}

func (r assignmentRequest) ids() (uuid.UUID, uuid.UUID, error) {
	traineeID, err := uuid.Parse(r.TraineeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trainee_id")
	}
	licenseID, err := uuid.Parse(r.LicenseID)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid license_id")
	}
	return traineeID, licenseID, nil
}

// AssignmentCreate grants a trainee one seat on a license.
func AssignmentCreate(svc assignmentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		traineeID, licenseID, err := body.ids()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Assign(r.Context(), userID, traineeID, licenseID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "assigned"})
	}
}

// AssignmentRemove releases a trainee's seat back to the license pool.
func AssignmentRemove(svc assignmentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		traineeID, licenseID, err := body.ids()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unassign(r.Context(), userID, traineeID, licenseID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "unassigned"})
	}
}
