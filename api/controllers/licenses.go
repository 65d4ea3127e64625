package controllers

import (
	"net/http"

	"github.com/vbkouture/cencad-backend/api/responses"
	"github.com/vbkouture/cencad-backend/internal/licenses"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/pagination"
)

// LicenseList returns the caller's seat batches, newest purchase first.
func LicenseList(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "licenses service unavailable"))
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
