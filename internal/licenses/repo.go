package licenses

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/pkg/db/models"
	"github.com/vbkouture/cencad-backend/pkg/enums"
	"github.com/vbkouture/cencad-backend/pkg/pagination"
)

// Repository handles seat-batch persistence. Seat counters move only through
// the conditional increment/decrement below.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to license operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a newly purchased license.
func (r *Repository) Create(ctx context.Context, dto CreateLicenseDTO) (*models.CorporateLicense, error) {
	license := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(license).Error; err != nil {
		return nil, err
	}
	return license, nil
}

// FindByID loads a license by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CorporateLicense, error) {
	var license models.CorporateLicense
	if err := r.db.WithContext(ctx).First(&license, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

// FindByPaymentIntent loads the license fulfilled by a payment intent, if
// one was already recorded.
func (r *Repository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.CorporateLicense, error) {
	var license models.CorporateLicense
	if err := r.db.WithContext(ctx).
		First(&license, "stripe_payment_intent_id = ?", paymentIntentID).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

// FindForAccount loads a license scoped to the given account. Cross-tenant
// ids come back as ErrRecordNotFound.
func (r *Repository) FindForAccount(ctx context.Context, id, accountID uuid.UUID) (*models.CorporateLicense, error) {
	var license models.CorporateLicense
	if err := r.db.WithContext(ctx).
		Where("id = ? AND corporate_account_id = ?", id, accountID).
		First(&license).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

// ListByAccount returns the account's licenses, newest purchase first, with
// the total row count.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.CorporateLicense, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.CorporateLicense{}).
		Where("corporate_account_id = ?", accountID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var licenses []models.CorporateLicense
	if err := r.db.WithContext(ctx).
		Where("corporate_account_id = ?", accountID).
		Order("purchased_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&licenses).Error; err != nil {
		return nil, 0, err
	}
	return licenses, total, nil
}

// IncrementAssignedSeats consumes one seat if capacity remains and the
// license is active. Returns false when the guard rejects the update.
func (r *Repository) IncrementAssignedSeats(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CorporateLicense{}).
		Where("id = ? AND assigned_seats < total_seats AND status = ?", id, enums.LicenseStatusActive).
		UpdateColumn("assigned_seats", gorm.Expr("assigned_seats + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DecrementAssignedSeats releases one seat, refusing to go below zero.
func (r *Repository) DecrementAssignedSeats(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CorporateLicense{}).
		Where("id = ? AND assigned_seats > 0", id).
		UpdateColumn("assigned_seats", gorm.Expr("assigned_seats - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SeatStatsByAccount aggregates the license rows for the dashboard.
func (r *Repository) SeatStatsByAccount(ctx context.Context, accountID uuid.UUID) (accounts.SeatStats, error) {
	var row struct {
		TotalLicenses   int64
		TotalSeats      int64
		AssignedSeats   int64
		DistinctCourses int64
		TotalSpend      *string
	}

	err := r.db.WithContext(ctx).
		Model(&models.CorporateLicense{}).
		Select(
			"COUNT(*) AS total_licenses, " +
				"COALESCE(SUM(total_seats), 0) AS total_seats, " +
				"COALESCE(SUM(assigned_seats), 0) AS assigned_seats, " +
				"COUNT(DISTINCT course_id) AS distinct_courses, " +
				"CAST(COALESCE(SUM(amount_total), 0) AS TEXT) AS total_spend",
		).
		Where("corporate_account_id = ?", accountID).
		Scan(&row).Error
	if err != nil {
		return accounts.SeatStats{}, err
	}

	stats := accounts.SeatStats{
		TotalLicenses:   row.TotalLicenses,
		TotalSeats:      row.TotalSeats,
		AssignedSeats:   row.AssignedSeats,
		DistinctCourses: row.DistinctCourses,
	}
	if row.TotalSpend != nil {
		if spend, perr := decimal.NewFromString(*row.TotalSpend); perr == nil {
			stats.TotalSpend = spend
		}
	}
	return stats, nil
}
