package controllers

import (
	"net/http"

	"github.com/vbkouture/cencad-backend/api/responses"
	"github.com/vbkouture/cencad-backend/api/validators"
	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	pkgerrors "github.com/vbkouture/cencad-backend/pkg/errors"
	"github.com/vbkouture/cencad-backend/pkg/logger"
)

type registerRequest struct {
	CompanyName    string  `json:"company_name" validate:"required"`
	CompanyWebsite *string `json:"company_website"`
	Industry       *string `json:"industry"`
	CompanySize    string  `json:"company_size" validate:"required"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	AdminName      string  `json:"admin_name" validate:"required"`
	AdminEmail     string  `json:"admin_email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
}

func (r registerRequest) toInput() (accounts.RegisterInput, error) {
	size, err := enums.ParseCompanySize(r.CompanySize)
	if err != nil {
		return accounts.RegisterInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid company size")
	}

	return accounts.RegisterInput{
		CompanyName:    r.CompanyName,
		CompanyWebsite: r.CompanyWebsite,
		Industry:       r.Industry,
		CompanySize:    size,
		Address:        r.Address,
		Phone:          r.Phone,
		AdminName:      r.AdminName,
		AdminEmail:     r.AdminEmail,
		Password:       r.Password,
	}, nil
}

// CorporateRegister handles onboarding a company with its first admin.
func CorporateRegister(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), input)
		if err != nil {
			if logg != nil {
				logg.Error(r.Context(), "corporate register failed", err)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
