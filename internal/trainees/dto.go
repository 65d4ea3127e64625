package trainees

import (
	"time"

	"github.com/google/uuid"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
)

// TraineeDTO is the roster entry joined with the user identity.
type TraineeDTO struct {
	ID                 uuid.UUID  `json:"id"`
	CorporateAccountID uuid.UUID  `json:"corporate_account_id"`
	UserID             uuid.UUID  `json:"user_id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	EmployeeID         *string    `json:"employee_id,omitempty"`
	Department         *string    `json:"department,omitempty"`
	IsActive           bool       `json:"is_active"`
	InvitedAt          time.Time  `json:"invited_at"`
	JoinedAt           *time.Time `json:"joined_at,omitempty"`
}

// InviteResult is the invite response. AssignmentError carries the reason an
// inline seat assignment failed; the invitation itself still succeeded.
type InviteResult struct {
	Trainee         TraineeDTO `json:"trainee"`
	UserCreated     bool       `json:"user_created"`
	AssignmentError *string    `json:"assignment_error,omitempty"`
}

// CreateTraineeDTO holds the data required to persist a roster entry.
type CreateTraineeDTO struct {
	CorporateAccountID uuid.UUID
	UserID             uuid.UUID
	EmployeeID         *string
	Department         *string
}

func (c CreateTraineeDTO) ToModel() *models.CorporateTrainee {
	return &models.CorporateTrainee{
		CorporateAccountID: c.CorporateAccountID,
		UserID:             c.UserID,
		EmployeeID:         c.EmployeeID,
		Department:         c.Department,
		IsActive:           true,
	}
}

// TraineeRow is the repo's joined projection over corporate_trainees and users.
type TraineeRow struct {
	models.CorporateTrainee
	Email string `gorm:"column:email"`
	Name  string `gorm:"column:name"`
}

func fromRow(row TraineeRow) TraineeDTO {
	return TraineeDTO{
		ID:                 row.ID,
		CorporateAccountID: row.CorporateAccountID,
		UserID:             row.UserID,
		Email:              row.Email,
		Name:               row.Name,
		EmployeeID:         row.EmployeeID,
		Department:         row.Department,
		IsActive:           row.IsActive,
		InvitedAt:          row.InvitedAt,
		JoinedAt:           row.JoinedAt,
	}
}

func fromModel(trainee *models.CorporateTrainee, user *models.User) TraineeDTO {
	dto := TraineeDTO{
		ID:                 trainee.ID,
		CorporateAccountID: trainee.CorporateAccountID,
		UserID:             trainee.UserID,
		EmployeeID:         trainee.EmployeeID,
		Department:         trainee.Department,
		IsActive:           trainee.IsActive,
		InvitedAt:          trainee.InvitedAt,
		JoinedAt:           trainee.JoinedAt,
	}
	if user != nil {
		dto.Email = user.Email
		dto.Name = user.Name
	}
	return dto
}
