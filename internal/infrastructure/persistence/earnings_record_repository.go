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

// GormEarningsRecordRepository implements settlement.EarningsRecordRepository using GORM
type GormEarningsRecordRepository struct {
	db *gorm.DB
}

// NewGormEarningsRecordRepository creates a new GormEarningsRecordRepository
func NewGormEarningsRecordRepository(db *gorm.DB) *GormEarningsRecordRepository {
	return &GormEarningsRecordRepository{db: db}
}

// FindByID finds an earnings record by its ID
func (r *GormEarningsRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.EarningsRecord, error) {
	var model models.EarningsRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForDriver returns a driver's earnings records whose own period
// overlaps the settlement window, including records that only partially
// fall inside it
func (r *GormEarningsRecordRepository) FindForDriver(ctx context.Context, driverID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.EarningsRecord, error) {
	var recordModels []models.EarningsRecordModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("period_start < ? AND period_end > ?", periodEnd, periodStart).
		Order("period_start asc").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]*settlement.EarningsRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Save persists an earnings record
func (r *GormEarningsRecordRepository) Save(ctx context.Context, rec *settlement.EarningsRecord) error {
	model := &models.EarningsRecordModel{}
	model.FromDomain(rec)
	return r.db.WithContext(ctx).Save(model).Error
}
