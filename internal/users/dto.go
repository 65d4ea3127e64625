package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                  uuid.UUID      `json:"id"`
	Email               string         `json:"email"`
	Name                string         `json:"name"`
	Role                enums.UserRole `json:"role"`
	ForcePasswordChange bool           `json:"force_password_change"`
	IsActive            bool           `json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email               string
	Name                string
	PasswordHash        string
	Role                enums.UserRole
	ForcePasswordChange bool
	IsActive            *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Role:                u.Role,
		ForcePasswordChange: u.ForcePasswordChange,
		IsActive:            u.IsActive,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:               c.Email,
		Name:                c.Name,
		PasswordHash:        c.PasswordHash,
		Role:                c.Role,
		ForcePasswordChange: c.ForcePasswordChange,
		IsActive:            isActive,
	}
}
