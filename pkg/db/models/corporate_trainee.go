package models

import (
	"time"

	"github.com/google/uuid"
)

// CorporateTrainee links a platform user to a company's roster, independent
// of any seat. A user appears at most once per account.
type CorporateTrainee struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CorporateAccountID uuid.UUID  `gorm:"column:corporate_account_id;type:uuid;not null;uniqueIndex:ux_trainees_account_user"`
	UserID             uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_trainees_account_user"`
	EmployeeID         *string    `gorm:"column:employee_id"`
	Department         *string    `gorm:"column:department"`
	IsActive           bool       `gorm:"column:is_active;not null;default:true"`
	InvitedAt          time.Time  `gorm:"column:invited_at;autoCreateTime"`
	JoinedAt           *time.Time `gorm:"column:joined_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
