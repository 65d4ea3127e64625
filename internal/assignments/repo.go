package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
)

// Repository exposes seat-assignment persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an assignments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an assignment in ACTIVE status.
func (r *Repository) Create(ctx context.Context, licenseID, traineeID uuid.UUID) (*models.TraineeAssignment, error) {
	assignment := &models.TraineeAssignment{
		LicenseID: licenseID,
		TraineeID: traineeID,
		Status:    enums.AssignmentStatusActive,
	}
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

// FindByTraineeAndLicense loads the live assignment for a (trainee, license)
// pair. Unassignment deletes rows, so at most one can exist.
func (r *Repository) FindByTraineeAndLicense(ctx context.Context, traineeID, licenseID uuid.UUID) (*models.TraineeAssignment, error) {
	var assignment models.TraineeAssignment
	err := r.db.WithContext(ctx).
		Where("trainee_id = ? AND license_id = ?", traineeID, licenseID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByTrainee returns every live assignment held by a trainee.
func (r *Repository) ListByTrainee(ctx context.Context, traineeID uuid.UUID) ([]models.TraineeAssignment, error) {
	var assignments []models.TraineeAssignment
	err := r.db.WithContext(ctx).
		Where("trainee_id = ?", traineeID).
		Order("assigned_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListActive returns ACTIVE assignments in id order, paged by primary key.
// The reconciler walks these in batches.
func (r *Repository) ListActive(ctx context.Context, afterID uuid.UUID, limit int) ([]models.TraineeAssignment, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.AssignmentStatusActive).
		Order("id ASC").
		Limit(limit)
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}
	var assignments []models.TraineeAssignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// Delete removes an assignment row, freeing the (trainee, license) pairing.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.TraineeAssignment{}, "id = ?", id).Error
}
