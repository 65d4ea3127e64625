package trainees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/pagination"
)

// Repository exposes roster persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a trainees repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a roster entry and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateTraineeDTO) (*models.CorporateTrainee, error) {
	trainee := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(trainee).Error; err != nil {
		return nil, err
	}
	return trainee, nil
}

// FindForAccount loads a trainee scoped to the given account. Cross-tenant
// ids come back as ErrRecordNotFound.
func (r *Repository) FindForAccount(ctx context.Context, accountID, traineeID uuid.UUID) (*models.CorporateTrainee, error) {
	var trainee models.CorporateTrainee
	err := r.db.WithContext(ctx).
		Where("id = ? AND corporate_account_id = ?", traineeID, accountID).
		First(&trainee).Error
	if err != nil {
		return nil, err
	}
	return &trainee, nil
}

// FindByID loads a trainee without tenant scoping. Callers that act on
// behalf of an account must use FindForAccount instead.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateTrainee, error) {
	var trainee models.CorporateTrainee
	if err := r.db.WithContext(ctx).First(&trainee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &trainee, nil
}

// FindByAccountAndUser loads the roster entry for a (account, user) pair.
func (r *Repository) FindByAccountAndUser(ctx context.Context, accountID, userID uuid.UUID) (*models.CorporateTrainee, error) {
	var trainee models.CorporateTrainee
	err := r.db.WithContext(ctx).
		Where("corporate_account_id = ? AND user_id = ?", accountID, userID).
		First(&trainee).Error
	if err != nil {
		return nil, err
	}
	return &trainee, nil
}

// ListByAccount returns roster rows joined with user identity, newest
// invitation first, along with the unpaged total.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]TraineeRow, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.CorporateTrainee{}).
		Where("corporate_trainees.corporate_account_id = ?", accountID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []TraineeRow
	err := base.
		Select("corporate_trainees.*, users.email AS email, users.name AS name").
		Joins("JOIN users ON users.id = corporate_trainees.user_id").
		Order("corporate_trainees.invited_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountByAccount returns the total and active roster sizes.
func (r *Repository) CountByAccount(ctx context.Context, accountID uuid.UUID) (total int64, active int64, err error) {
	base := r.db.WithContext(ctx).
		Model(&models.CorporateTrainee{}).
		Where("corporate_account_id = ?", accountID)

	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = base.Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// Deactivate flips the roster entry inactive. The row is kept for history
// and returns to the roster through Reactivate on a later invite.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CorporateTrainee{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}

// Reactivate returns a removed roster entry to the active roster, refreshing
// the invitation metadata from the new invite.
func (r *Repository) Reactivate(ctx context.Context, id uuid.UUID, employeeID, department *string) (*models.CorporateTrainee, error) {
	updates := map[string]any{
		"is_active":  true,
		"invited_at": time.Now().UTC(),
		"joined_at":  nil,
	}
	if employeeID != nil {
		updates["employee_id"] = employeeID
	}
	if department != nil {
		updates["department"] = department
	}
	if err := r.db.WithContext(ctx).
		Model(&models.CorporateTrainee{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}
