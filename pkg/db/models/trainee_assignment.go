package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// TraineeAssignment is the consumption of exactly one license seat by one
// trainee. Rows are deleted on unassignment, so the composite unique index
// holds one live pairing at a time.
type TraineeAssignment struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	LicenseID   uuid.UUID              `gorm:"column:license_id;type:uuid;not null;uniqueIndex:ux_assignments_trainee_license"`
	TraineeID   uuid.UUID              `gorm:"column:trainee_id;type:uuid;not null;uniqueIndex:ux_assignments_trainee_license"`
	Status      enums.AssignmentStatus `gorm:"column:status;not null;default:'PENDING'"`
	AssignedAt  time.Time              `gorm:"column:assigned_at;autoCreateTime"`
	CompletedAt *time.Time             `gorm:"column:completed_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
