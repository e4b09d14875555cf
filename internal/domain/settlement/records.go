package settlement

import (
	"time"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Platform identifies the ride-hailing platform an earnings record came from
type Platform string

const (
	PlatformUber    Platform = "uber"
	PlatformBolt    Platform = "bolt"
	PlatformFreeNow Platform = "freenow"
	PlatformOther   Platform = "other"
)

// IsValid returns true if the platform is valid
func (p Platform) IsValid() bool {
	switch p {
	case PlatformUber, PlatformBolt, PlatformFreeNow, PlatformOther:
		return true
	}
	return false
}

// EarningsRecord is one platform payout line for a driver over a period.
// Records are produced by external ingestion and are immutable here; the
// platform-retained commission is authoritative and never recomputed.
type EarningsRecord struct {
	shared.BaseEntity
	Platform           Platform
	DriverID           uuid.UUID
	VehicleID          uuid.UUID
	PeriodStart        time.Time
	PeriodEnd          time.Time
	GrossAmount        decimal.Decimal
	PlatformCommission decimal.Decimal
	NetAmount          decimal.Decimal
	TipAmount          decimal.Decimal // separable gratuity component of GrossAmount
}

// NewEarningsRecord creates an earnings record
func NewEarningsRecord(platform Platform, driverID, vehicleID uuid.UUID, periodStart, periodEnd time.Time, gross, commission, net, tips decimal.Decimal) (*EarningsRecord, error) {
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Unknown earnings platform")
	}
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DRIVER", "Driver ID cannot be empty")
	}
	if vehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VEHICLE", "Vehicle ID cannot be empty")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Earnings period end must be after start")
	}
	if gross.IsNegative() || commission.IsNegative() || net.IsNegative() || tips.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Earnings amounts cannot be negative")
	}
	if tips.GreaterThan(gross) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tip amount cannot exceed gross amount")
	}
	return &EarningsRecord{
		BaseEntity:         shared.NewBaseEntity(),
		Platform:           platform,
		DriverID:           driverID,
		VehicleID:          vehicleID,
		PeriodStart:        periodStart,
		PeriodEnd:          periodEnd,
		GrossAmount:        gross,
		PlatformCommission: commission,
		NetAmount:          net,
		TipAmount:          tips,
	}, nil
}

// CostCategory classifies operating costs
type CostCategory string

const (
	CostCategoryFuel             CostCategory = "fuel"
	CostCategoryToll             CostCategory = "toll"
	CostCategoryElectricCharging CostCategory = "electric_charging"
	CostCategoryRent             CostCategory = "rent"
	CostCategoryMaintenance      CostCategory = "maintenance"
	CostCategoryFine             CostCategory = "fine"
	CostCategoryOther            CostCategory = "other"
)

// IsValid returns true if the category is valid
func (c CostCategory) IsValid() bool {
	switch c {
	case CostCategoryFuel, CostCategoryToll, CostCategoryElectricCharging,
		CostCategoryRent, CostCategoryMaintenance, CostCategoryFine, CostCategoryOther:
		return true
	}
	return false
}

// CostRecord is one operating cost scoped to a driver and/or vehicle.
// Immutable once created. AccrualEligible may only be set on toll costs;
// whether an eligible toll actually accrues depends on the driver's
// financial config at settlement time.
type CostRecord struct {
	shared.BaseEntity
	Category        CostCategory
	DriverID        *uuid.UUID
	VehicleID       *uuid.UUID
	Amount          decimal.Decimal
	IncurredAt      time.Time
	AccrualEligible bool
	Platform        string // source platform for toll costs, empty otherwise
}

// NewCostRecord creates a cost record. At least one of driverID/vehicleID
// must be set.
func NewCostRecord(category CostCategory, driverID, vehicleID *uuid.UUID, amount decimal.Decimal, incurredAt time.Time) (*CostRecord, error) {
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_COST_CATEGORY", "Unknown cost category")
	}
	if (driverID == nil || *driverID == uuid.Nil) && (vehicleID == nil || *vehicleID == uuid.Nil) {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Cost record requires a driver or vehicle scope")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Cost amount must be positive")
	}
	if incurredAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Cost incurred date is required")
	}
	return &CostRecord{
		BaseEntity: shared.NewBaseEntity(),
		Category:   category,
		DriverID:   driverID,
		VehicleID:  vehicleID,
		Amount:     amount,
		IncurredAt: incurredAt,
	}, nil
}

// MarkAccrualEligible flags a toll cost as eligible for ledger accumulation.
// Non-toll categories can never accrue.
func (r *CostRecord) MarkAccrualEligible(platform string) error {
	if r.Category != CostCategoryToll {
		return shared.NewDomainError("INVALID_ACCRUAL", "Only toll costs can be accrual-eligible")
	}
	r.AccrualEligible = true
	r.Platform = platform
	return nil
}
