package persistence

import (
	"context"
	"errors"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFinancialConfigRepository implements fleet.FinancialConfigRepository
// using GORM. Config versions are append-only rows; Save only ever inserts.
type GormFinancialConfigRepository struct {
	db *gorm.DB
}

// NewGormFinancialConfigRepository creates a new GormFinancialConfigRepository
func NewGormFinancialConfigRepository(db *gorm.DB) *GormFinancialConfigRepository {
	return &GormFinancialConfigRepository{db: db}
}

// FindLatest returns the highest config version for a driver
func (r *GormFinancialConfigRepository) FindLatest(ctx context.Context, driverID uuid.UUID) (*fleet.DriverFinancialConfig, error) {
	var model models.DriverFinancialConfigModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("config_version desc").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindVersion returns one specific config version for a driver
func (r *GormFinancialConfigRepository) FindVersion(ctx context.Context, driverID uuid.UUID, version int) (*fleet.DriverFinancialConfig, error) {
	var model models.DriverFinancialConfigModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ? AND config_version = ?", driverID, version).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts a new config version row. The unique index on
// (driver_id, config_version) rejects concurrent appends of the same version.
func (r *GormFinancialConfigRepository) Save(ctx context.Context, cfg *fleet.DriverFinancialConfig) error {
	model := models.DriverFinancialConfigModelFromDomain(cfg)
	return r.db.WithContext(ctx).Create(model).Error
}
