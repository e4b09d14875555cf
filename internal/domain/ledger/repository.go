package ledger

import (
	"context"

	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository provides append-only access to the accrual ledger
type Repository interface {
	// Append inserts a new entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *Entry) error
	// Balance derives the current balance for a driver:
	// sum(credits) - sum(debits).
	Balance(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error)
	// HasCreditForSource reports whether a credit for the given cost record
	// already exists, making credit posting idempotent per source event.
	HasCreditForSource(ctx context.Context, driverID, costRecordID uuid.UUID) (bool, error)
	// FindByDriver returns a driver's entries within a period, oldest first.
	FindByDriver(ctx context.Context, driverID uuid.UUID, period valueobject.Period) ([]Entry, error)
}
