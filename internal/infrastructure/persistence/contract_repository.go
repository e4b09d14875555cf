package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractRepository implements fleet.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns the contract covering the given date for a
// vehicle+driver pairing. A contract is active on a date when the date is
// on or after its start and before its end (open end means still active).
func (r *GormContractRepository) FindActive(ctx context.Context, vehicleID, driverID uuid.UUID, at time.Time) (*fleet.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND driver_id = ?", vehicleID, driverID).
		Where("start_date <= ?", at).
		Where("(end_date IS NULL OR end_date > ?)", at).
		Order("start_date desc").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen returns the open (end date unset) contract for a pairing
func (r *GormContractRepository) FindOpen(ctx context.Context, vehicleID, driverID uuid.UUID) (*fleet.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND driver_id = ? AND end_date IS NULL", vehicleID, driverID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDriver returns all contracts for a driver, newest first
func (r *GormContractRepository) FindByDriver(ctx context.Context, driverID uuid.UUID) ([]fleet.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("start_date desc").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}

	contracts := make([]fleet.Contract, len(contractModels))
	for i, model := range contractModels {
		contracts[i] = *model.ToDomain()
	}
	return contracts, nil
}

// Save persists a contract
func (r *GormContractRepository) Save(ctx context.Context, contract *fleet.Contract) error {
	model := models.ContractModelFromDomain(contract)
	return r.db.WithContext(ctx).Save(model).Error
}
