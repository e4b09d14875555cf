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

// GormDriverRepository implements fleet.DriverRepository using GORM
type GormDriverRepository struct {
	db *gorm.DB
}

// NewGormDriverRepository creates a new GormDriverRepository
func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// FindByID finds a driver by its ID
func (r *GormDriverRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Driver, error) {
	var model models.DriverModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPartner returns all drivers working under a partner, ordered by name
func (r *GormDriverRepository) FindByPartner(ctx context.Context, partnerID uuid.UUID) ([]fleet.Driver, error) {
	var driverModels []models.DriverModel
	if err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("name asc").
		Find(&driverModels).Error; err != nil {
		return nil, err
	}

	drivers := make([]fleet.Driver, len(driverModels))
	for i, model := range driverModels {
		drivers[i] = *model.ToDomain()
	}
	return drivers, nil
}

// Save persists a driver
func (r *GormDriverRepository) Save(ctx context.Context, d *fleet.Driver) error {
	model := &models.DriverModel{}
	model.FromDomain(d)
	return r.db.WithContext(ctx).Save(model).Error
}
