package fleet

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContractRepository provides access to contracts
type ContractRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	// FindActive returns the contract covering the given date for a
	// vehicle+driver pairing, or shared.ErrNotFound.
	FindActive(ctx context.Context, vehicleID, driverID uuid.UUID, at time.Time) (*Contract, error)
	// FindOpen returns the open (end date unset) contract for a pairing,
	// or shared.ErrNotFound.
	FindOpen(ctx context.Context, vehicleID, driverID uuid.UUID) (*Contract, error)
	FindByDriver(ctx context.Context, driverID uuid.UUID) ([]Contract, error)
	Save(ctx context.Context, contract *Contract) error
}

// FinancialConfigRepository provides access to driver financial configs.
// Configs are append-only; Save always inserts a new version row.
type FinancialConfigRepository interface {
	FindLatest(ctx context.Context, driverID uuid.UUID) (*DriverFinancialConfig, error)
	FindVersion(ctx context.Context, driverID uuid.UUID, version int) (*DriverFinancialConfig, error)
	Save(ctx context.Context, cfg *DriverFinancialConfig) error
}

// VehicleRepository provides read access to fleet vehicles
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	FindByPartner(ctx context.Context, partnerID uuid.UUID) ([]Vehicle, error)
}

// DriverRepository provides read access to drivers
type DriverRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	FindByPartner(ctx context.Context, partnerID uuid.UUID) ([]Driver, error)
}

// PartnerRepository provides read access to partner companies
type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PartnerCompany, error)
	FindAll(ctx context.Context) ([]PartnerCompany, error)
}
