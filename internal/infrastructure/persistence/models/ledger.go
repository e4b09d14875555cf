package models

import (
	"time"

	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for accrual ledger entries.
// Rows are append-only; (driver_id, source_type, source_id) is unique for
// credits so the same toll can never be accrued twice.
type LedgerEntryModel struct {
	BaseModel
	DriverID   uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_ledger_source,priority:1"`
	Type       ledger.EntryType  `gorm:"type:varchar(10);not null"`
	Amount     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	SourceType ledger.SourceType `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_source,priority:2"`
	SourceID   uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_source,priority:3"`
	OccurredAt time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		BaseEntity: m.ToDomainBaseEntity(),
		DriverID:   m.DriverID,
		Type:       m.Type,
		Amount:     m.Amount,
		SourceType: m.SourceType,
		SourceID:   m.SourceID,
		OccurredAt: m.OccurredAt,
	}
}

// FromDomain populates the persistence model from a domain Entry.
func (m *LedgerEntryModel) FromDomain(e *ledger.Entry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.DriverID = e.DriverID
	m.Type = e.Type
	m.Amount = e.Amount
	m.SourceType = e.SourceType
	m.SourceID = e.SourceID
	m.OccurredAt = e.OccurredAt
}
