package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// User represents the canonical identity entity. This service does not own
// authentication; it only provisions shadow accounts and compensating deletes.
type User struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email               string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name                string         `gorm:"column:name;not null"`
	PasswordHash        string         `gorm:"column:password_hash;not null"`
	Role                enums.UserRole `gorm:"column:role;not null"`
	ForcePasswordChange bool           `gorm:"column:force_password_change;not null;default:false"`
	IsActive            bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
