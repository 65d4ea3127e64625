package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// CorporateAccount is one purchasing company. AdminUserIDs is never empty
// after registration.
type CorporateAccount struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CompanyName    string              `gorm:"column:company_name;not null"`
	CompanyWebsite *string             `gorm:"column:company_website"`
	Industry       *string             `gorm:"column:industry"`
	CompanySize    enums.CompanySize   `gorm:"column:company_size;not null"`
	Address        *string             `gorm:"column:address"`
	Phone          *string             `gorm:"column:phone"`
	Status         enums.AccountStatus `gorm:"column:status;not null;default:'PENDING'"`
	AdminUserIDs   pq.StringArray      `gorm:"column:admin_user_ids;type:uuid[];not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
