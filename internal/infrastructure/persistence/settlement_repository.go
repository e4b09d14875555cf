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

// GormSettlementRepository implements settlement.Repository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// FindByID finds a settlement by its ID
func (r *GormSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	var model models.SettlementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKey finds the settlement for one driver+vehicle+period start. The
// unique index on these columns guarantees at most one row.
func (r *GormSettlementRepository) FindByKey(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart time.Time) (*settlement.Settlement, error) {
	var model models.SettlementModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ? AND vehicle_id = ? AND period_start = ?",
			driverID, vehicleID, periodStart).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns settlements matching the filter, newest period first.
// A non-positive limit disables pagination.
func (r *GormSettlementRepository) List(ctx context.Context, filter settlement.ListFilter) (*shared.Paginated[*settlement.Settlement], error) {
	var total int64
	countQuery := r.applyFilter(r.db.WithContext(ctx).Model(&models.SettlementModel{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SettlementModel{}), filter).
		Order("period_start desc")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var settlementModels []models.SettlementModel
	if err := query.Find(&settlementModels).Error; err != nil {
		return nil, err
	}

	items := make([]*settlement.Settlement, len(settlementModels))
	for i := range settlementModels {
		items[i] = settlementModels[i].ToDomain()
	}

	pageSize := filter.Limit
	page := 1
	if pageSize > 0 {
		page = filter.Offset/pageSize + 1
	} else {
		pageSize = len(items)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// FindByPeriod returns all settlements for an exact period window
func (r *GormSettlementRepository) FindByPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*settlement.Settlement, error) {
	var settlementModels []models.SettlementModel
	if err := r.db.WithContext(ctx).
		Where("period_start = ? AND period_end = ?", periodStart, periodEnd).
		Find(&settlementModels).Error; err != nil {
		return nil, err
	}

	items := make([]*settlement.Settlement, len(settlementModels))
	for i := range settlementModels {
		items[i] = settlementModels[i].ToDomain()
	}
	return items, nil
}

// CountByStatus returns the number of settlements per workflow status
func (r *GormSettlementRepository) CountByStatus(ctx context.Context) (map[settlement.Status]int64, error) {
	type statusCount struct {
		Status settlement.Status
		Count  int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.SettlementModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[settlement.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Save persists a settlement, inserting or updating by primary key
func (r *GormSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	model := models.SettlementModelFromDomain(s)
	return r.db.WithContext(ctx).Save(model).Error
}

func (r *GormSettlementRepository) applyFilter(query *gorm.DB, filter settlement.ListFilter) *gorm.DB {
	if filter.DriverID != nil {
		query = query.Where("driver_id = ?", *filter.DriverID)
	}
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PeriodStart != nil {
		query = query.Where("period_start >= ?", *filter.PeriodStart)
	}
	if filter.PeriodEnd != nil {
		query = query.Where("period_end <= ?", *filter.PeriodEnd)
	}
	return query
}
