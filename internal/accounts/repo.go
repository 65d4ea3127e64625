package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/pkg/db/models"
)

// Repository handles corporate account persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to corporate account operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new corporate account row.
func (r *Repository) Create(ctx context.Context, dto CreateAccountDTO) (*models.CorporateAccount, error) {
	account := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindByID loads an account by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateAccount, error) {
	var account models.CorporateAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByAdminUser returns the account the given user administers.
func (r *Repository) FindByAdminUser(ctx context.Context, userID uuid.UUID) (*models.CorporateAccount, error) {
	var account models.CorporateAccount
	if err := r.db.WithContext(ctx).
		Where("? = ANY(admin_user_ids)", userID.String()).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Update saves the provided account.
func (r *Repository) Update(ctx context.Context, account *models.CorporateAccount) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	return r.db.WithContext(ctx).Save(account).Error
}
