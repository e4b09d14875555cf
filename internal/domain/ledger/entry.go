package ledger

import (
	"time"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the direction of a ledger entry
type EntryType string

const (
	// EntryTypeCredit accumulates a deferred charge (e.g. a toll) onto the
	// driver's balance.
	EntryTypeCredit EntryType = "credit"
	// EntryTypeDebit settles part of the balance into a settlement.
	EntryTypeDebit EntryType = "debit"
)

// IsValid returns true if the entry type is valid
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeCredit, EntryTypeDebit:
		return true
	}
	return false
}

// SourceType identifies the document an entry originates from
type SourceType string

const (
	// SourceTypeCostRecord: credits posted from an accrual-eligible cost
	SourceTypeCostRecord SourceType = "cost_record"
	// SourceTypeSettlement: debits posted when settling against a report
	SourceTypeSettlement SourceType = "settlement"
)

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeCostRecord, SourceTypeSettlement:
		return true
	}
	return false
}

// ErrInsufficientLedgerBalance signals a debit larger than the current balance
var ErrInsufficientLedgerBalance = shared.NewDomainError("INSUFFICIENT_LEDGER_BALANCE", "Requested debit exceeds the driver's accrued balance")

// Entry is one immutable record in a driver's accrual ledger.
// The balance is never stored: it is derived as sum(credits) - sum(debits),
// which keeps concurrent credits commutative and lock-free. Entries are
// only ever appended; corrections are made with new entries.
type Entry struct {
	shared.BaseEntity
	DriverID   uuid.UUID
	Type       EntryType
	Amount     decimal.Decimal // always positive; direction comes from Type
	SourceType SourceType
	SourceID   uuid.UUID
	OccurredAt time.Time
}

// NewEntry creates a ledger entry
func NewEntry(driverID uuid.UUID, entryType EntryType, amount decimal.Decimal, sourceType SourceType, sourceID uuid.UUID) (*Entry, error) {
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DRIVER", "Driver ID cannot be empty")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Invalid ledger entry type")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Ledger entry amount must be positive")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid ledger source type")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Ledger entry requires a source reference")
	}
	return &Entry{
		BaseEntity: shared.NewBaseEntity(),
		DriverID:   driverID,
		Type:       entryType,
		Amount:     amount,
		SourceType: sourceType,
		SourceID:   sourceID,
		OccurredAt: time.Now(),
	}, nil
}

// NewCredit creates a credit entry sourced from a cost record
func NewCredit(driverID uuid.UUID, amount decimal.Decimal, costRecordID uuid.UUID) (*Entry, error) {
	return NewEntry(driverID, EntryTypeCredit, amount, SourceTypeCostRecord, costRecordID)
}

// NewDebit creates a debit entry sourced from a settlement.
// The balance guard lives in the application service; constructing a debit
// does not itself check the balance.
func NewDebit(driverID uuid.UUID, amount decimal.Decimal, settlementID uuid.UUID) (*Entry, error) {
	return NewEntry(driverID, EntryTypeDebit, amount, SourceTypeSettlement, settlementID)
}

// SignedAmount returns the amount with its direction applied
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Balance derives a balance from a list of entries
func Balance(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		total = total.Add(entries[i].SignedAmount())
	}
	return total
}
