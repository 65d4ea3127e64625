package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/vbkouture/cencad-backend/internal/users"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// AccountDTO exposes corporate account data in API responses.
type AccountDTO struct {
	ID             uuid.UUID           `json:"id"`
	CompanyName    string              `json:"company_name"`
	CompanyWebsite *string             `json:"company_website,omitempty"`
	Industry       *string             `json:"industry,omitempty"`
	CompanySize    enums.CompanySize   `json:"company_size"`
	Address        *string             `json:"address,omitempty"`
	Phone          *string             `json:"phone,omitempty"`
	Status         enums.AccountStatus `json:"status"`
	AdminUserIDs   []uuid.UUID         `json:"admin_user_ids"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// AccountDetail is the account joined with its resolved admin identities.
type AccountDetail struct {
	AccountDTO
	Admins []users.UserDTO `json:"admins"`
}

// CreateAccountDTO holds creation-time data for a new corporate account.
type CreateAccountDTO struct {
	CompanyName    string
	CompanyWebsite *string
	Industry       *string
	CompanySize    enums.CompanySize
	Address        *string
	Phone          *string
	Status         enums.AccountStatus
	AdminUserIDs   []uuid.UUID
}

// DashboardStats aggregates the account's license and roster activity.
type DashboardStats struct {
	TotalLicenses   int64           `json:"total_licenses"`
	TotalSeats      int64           `json:"total_seats"`
	AssignedSeats   int64           `json:"assigned_seats"`
	AvailableSeats  int64           `json:"available_seats"`
	DistinctCourses int64           `json:"distinct_courses"`
	TotalSpend      decimal.Decimal `json:"total_spend"`
	TotalTrainees   int64           `json:"total_trainees"`
	ActiveTrainees  int64           `json:"active_trainees"`
}

// FromModel maps the persisted account into a DTO.
func FromModel(m *models.CorporateAccount) *AccountDTO {
	if m == nil {
		return nil
	}

	adminIDs := make([]uuid.UUID, 0, len(m.AdminUserIDs))
	for _, raw := range m.AdminUserIDs {
		if id, err := uuid.Parse(raw); err == nil {
			adminIDs = append(adminIDs, id)
		}
	}

	return &AccountDTO{
		ID:             m.ID,
		CompanyName:    m.CompanyName,
		CompanyWebsite: m.CompanyWebsite,
		Industry:       m.Industry,
		CompanySize:    m.CompanySize,
		Address:        m.Address,
		Phone:          m.Phone,
		Status:         m.Status,
		AdminUserIDs:   adminIDs,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateAccountDTO) ToModel() *models.CorporateAccount {
	status := c.Status
	if !status.IsValid() {
		status = enums.AccountStatusActive
	}

	adminIDs := make(pq.StringArray, 0, len(c.AdminUserIDs))
	for _, id := range c.AdminUserIDs {
		adminIDs = append(adminIDs, id.String())
	}

	return &models.CorporateAccount{
		CompanyName:    c.CompanyName,
		CompanyWebsite: c.CompanyWebsite,
		Industry:       c.Industry,
		CompanySize:    c.CompanySize,
		Address:        c.Address,
		Phone:          c.Phone,
		Status:         status,
		AdminUserIDs:   adminIDs,
	}
}
