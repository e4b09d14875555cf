package persistence

import (
	"context"

	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/fleetops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerRepository implements ledger.Repository using GORM. Entries are
// append-only: only Create is ever issued, never Update or Delete.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts a new ledger entry
func (r *GormLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	model := &models.LedgerEntryModel{}
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// Balance derives the driver's current balance as sum(credits) - sum(debits)
func (r *GormLedgerRepository) Balance(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Balance decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0) as balance",
			ledger.EntryTypeCredit).
		Where("driver_id = ?", driverID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Balance, nil
}

// HasCreditForSource reports whether a credit for the given cost record
// already exists
func (r *GormLedgerRepository) HasCreditForSource(ctx context.Context, driverID, costRecordID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("driver_id = ? AND type = ? AND source_type = ? AND source_id = ?",
			driverID, ledger.EntryTypeCredit, ledger.SourceTypeCostRecord, costRecordID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByDriver returns a driver's entries within a period, oldest first
func (r *GormLedgerRepository) FindByDriver(ctx context.Context, driverID uuid.UUID, period valueobject.Period) ([]ledger.Entry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("occurred_at >= ? AND occurred_at < ?", period.Start(), period.End()).
		Order("occurred_at asc").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, nil
}
