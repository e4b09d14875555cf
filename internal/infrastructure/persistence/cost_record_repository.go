package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCostRecordRepository implements settlement.CostRecordRepository using GORM
type GormCostRecordRepository struct {
	db *gorm.DB
}

// NewGormCostRecordRepository creates a new GormCostRecordRepository
func NewGormCostRecordRepository(db *gorm.DB) *GormCostRecordRepository {
	return &GormCostRecordRepository{db: db}
}

// FindByID finds a cost record by its ID
func (r *GormCostRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.CostRecord, error) {
	var model models.CostRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForVehicle returns a vehicle's cost records incurred within the window
func (r *GormCostRecordRepository) FindForVehicle(ctx context.Context, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.CostRecord, error) {
	return r.findInWindow(ctx, periodStart, periodEnd, "vehicle_id = ?", vehicleID)
}

// FindForSettlement returns the records deductible on one settlement: the
// driver's own costs plus vehicle-scoped costs not tied to any driver.
func (r *GormCostRecordRepository) FindForSettlement(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.CostRecord, error) {
	return r.findInWindow(ctx, periodStart, periodEnd,
		"driver_id = ? OR (vehicle_id = ? AND driver_id IS NULL)", driverID, vehicleID)
}

func (r *GormCostRecordRepository) findInWindow(ctx context.Context, periodStart, periodEnd time.Time, cond string, args ...interface{}) ([]*settlement.CostRecord, error) {
	var recordModels []models.CostRecordModel
	if err := r.db.WithContext(ctx).
		Where(cond, args...).
		Where("incurred_at >= ? AND incurred_at < ?", periodStart, periodEnd).
		Order("incurred_at asc").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]*settlement.CostRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Save persists a cost record
func (r *GormCostRecordRepository) Save(ctx context.Context, rec *settlement.CostRecord) error {
	model := &models.CostRecordModel{}
	model.FromDomain(rec)
	return r.db.WithContext(ctx).Save(model).Error
}
