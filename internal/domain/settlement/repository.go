package settlement

import (
	"context"
	"time"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListFilter narrows settlement listings
type ListFilter struct {
	DriverID    *uuid.UUID
	VehicleID   *uuid.UUID
	PartnerID   *uuid.UUID
	Status      *Status
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Offset      int
	Limit       int
}

// Repository persists settlements. Uniqueness over (driver, vehicle,
// period start) is enforced at the storage layer.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Settlement, error)
	FindByKey(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart time.Time) (*Settlement, error)
	List(ctx context.Context, filter ListFilter) (*shared.Paginated[*Settlement], error)
	FindByPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*Settlement, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	Save(ctx context.Context, s *Settlement) error
}

// EarningsRecordRepository persists platform earnings records.
// FindForDriver matches any record whose own period overlaps the window,
// not only records fully contained by it.
type EarningsRecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*EarningsRecord, error)
	FindForDriver(ctx context.Context, driverID uuid.UUID, periodStart, periodEnd time.Time) ([]*EarningsRecord, error)
	Save(ctx context.Context, r *EarningsRecord) error
}

// CostRecordRepository persists operating cost records
type CostRecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CostRecord, error)
	FindForVehicle(ctx context.Context, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*CostRecord, error)
	// FindForSettlement returns the records deductible on one settlement:
	// the driver's own costs plus vehicle-scoped costs not tied to any driver.
	FindForSettlement(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*CostRecord, error)
	Save(ctx context.Context, r *CostRecord) error
}
