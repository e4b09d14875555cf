package fleet

import (
	"fmt"
	"time"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractModel distinguishes the two compensation models
type ContractModel string

const (
	// ContractModelRental: the driver keeps all platform-net earnings and
	// pays the partner a fixed periodic rent.
	ContractModelRental ContractModel = "rental"
	// ContractModelCommission: platform earnings are split between driver
	// and partner by percentage.
	ContractModelCommission ContractModel = "commission"
)

// IsValid returns true if the contract model is valid
func (m ContractModel) IsValid() bool {
	switch m {
	case ContractModelRental, ContractModelCommission:
		return true
	}
	return false
}

// RentPeriodicity is the billing cadence of a rental contract
type RentPeriodicity string

const (
	RentPeriodicityWeekly  RentPeriodicity = "weekly"
	RentPeriodicityMonthly RentPeriodicity = "monthly"
)

// IsValid returns true if the periodicity is valid
func (p RentPeriodicity) IsValid() bool {
	switch p {
	case RentPeriodicityWeekly, RentPeriodicityMonthly:
		return true
	}
	return false
}

// Contract validation errors
var (
	ErrInvalidCommissionSplit = shared.NewDomainError("INVALID_COMMISSION_SPLIT", "Driver and partner percentages must sum to 100")
	ErrNoActiveContract       = shared.NewDomainError("NO_ACTIVE_CONTRACT", "No active contract for this vehicle and driver pairing")
	ErrInvalidContractModel   = shared.NewDomainError("INVALID_CONTRACT_MODEL", "Contract model must be rental or commission")
)

// RentalTerms carries the fields specific to a rental contract
type RentalTerms struct {
	RentAmount  decimal.Decimal
	Periodicity RentPeriodicity
	Deposit     *decimal.Decimal
}

// RentMoney returns the periodic rent as Money
func (t RentalTerms) RentMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(t.RentAmount)
}

// CommissionTerms carries the fields specific to a commission contract
type CommissionTerms struct {
	DriverPct  decimal.Decimal
	PartnerPct decimal.Decimal
}

// Validate enforces the sum-to-100 invariant. Violations are a data-entry
// mistake with direct financial consequence and are never normalized.
func (t CommissionTerms) Validate() error {
	driver, err := valueobject.NewPercentage(t.DriverPct)
	if err != nil {
		return ErrInvalidCommissionSplit
	}
	partner, err := valueobject.NewPercentage(t.PartnerPct)
	if err != nil {
		return ErrInvalidCommissionSplit
	}
	if !driver.Add(partner).Equal(decimal.NewFromInt(100)) {
		return ErrInvalidCommissionSplit
	}
	return nil
}

// Contract is the compensation agreement for one vehicle+driver pairing.
// Exactly one contract may be open per pairing at a time; superseding a
// contract closes the prior one rather than mutating it, so settlements
// always reference the version active during their period.
type Contract struct {
	shared.BaseAggregateRoot
	VehicleID  uuid.UUID
	DriverID   uuid.UUID
	PartnerID  uuid.UUID
	Model      ContractModel
	Rental     *RentalTerms
	Commission *CommissionTerms
	StartDate  time.Time
	EndDate    *time.Time
}

// NewRentalContract creates a rental contract
func NewRentalContract(vehicleID, driverID, partnerID uuid.UUID, terms RentalTerms, startDate time.Time) (*Contract, error) {
	if err := validatePairing(vehicleID, driverID, partnerID, startDate); err != nil {
		return nil, err
	}
	if terms.RentAmount.IsNegative() || terms.RentAmount.IsZero() {
		return nil, shared.NewDomainError("INVALID_RENT_AMOUNT", "Rent amount must be positive")
	}
	if !terms.Periodicity.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERIODICITY", fmt.Sprintf("Unknown rent periodicity %q", terms.Periodicity))
	}
	if terms.Deposit != nil && terms.Deposit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DEPOSIT", "Deposit cannot be negative")
	}
	c := &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VehicleID:         vehicleID,
		DriverID:          driverID,
		PartnerID:         partnerID,
		Model:             ContractModelRental,
		Rental:            &terms,
		StartDate:         startDate,
	}
	c.AddDomainEvent(NewContractOpenedEvent(c))
	return c, nil
}

// NewCommissionContract creates a commission contract
func NewCommissionContract(vehicleID, driverID, partnerID uuid.UUID, terms CommissionTerms, startDate time.Time) (*Contract, error) {
	if err := validatePairing(vehicleID, driverID, partnerID, startDate); err != nil {
		return nil, err
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	c := &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VehicleID:         vehicleID,
		DriverID:          driverID,
		PartnerID:         partnerID,
		Model:             ContractModelCommission,
		Commission:        &terms,
		StartDate:         startDate,
	}
	c.AddDomainEvent(NewContractOpenedEvent(c))
	return c, nil
}

func validatePairing(vehicleID, driverID, partnerID uuid.UUID, startDate time.Time) error {
	if vehicleID == uuid.Nil {
		return shared.NewDomainError("INVALID_VEHICLE", "Vehicle ID cannot be empty")
	}
	if driverID == uuid.Nil {
		return shared.NewDomainError("INVALID_DRIVER", "Driver ID cannot be empty")
	}
	if partnerID == uuid.Nil {
		return shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if startDate.IsZero() {
		return shared.NewDomainError("INVALID_START_DATE", "Contract start date is required")
	}
	return nil
}

// IsOpen returns true if the contract has no end date
func (c *Contract) IsOpen() bool {
	return c.EndDate == nil
}

// ActiveOn returns true if the contract covers the given date
// (start <= date < end-or-open)
func (c *Contract) ActiveOn(date time.Time) bool {
	if date.Before(c.StartDate) {
		return false
	}
	return c.EndDate == nil || date.Before(*c.EndDate)
}

// Close ends the contract at the given date. Closing is how a contract is
// superseded; the record itself is never rewritten.
func (c *Contract) Close(endDate time.Time) error {
	if c.EndDate != nil {
		return shared.NewDomainError("CONTRACT_CLOSED", "Contract is already closed")
	}
	if !endDate.After(c.StartDate) {
		return shared.NewDomainError("INVALID_END_DATE", "Contract end date must be after its start date")
	}
	c.EndDate = &endDate
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewContractClosedEvent(c))
	return nil
}

// DefaultSplit returns the contract's commission percentages.
// Only meaningful for commission contracts.
func (c *Contract) DefaultSplit() (driverPct, partnerPct decimal.Decimal, err error) {
	if c.Model != ContractModelCommission || c.Commission == nil {
		return decimal.Zero, decimal.Zero, shared.NewDomainError("NOT_COMMISSION_CONTRACT", "Contract has no commission split")
	}
	return c.Commission.DriverPct, c.Commission.PartnerPct, nil
}

// RentDue returns the fixed periodic rent owed for one settlement period.
// Zero for commission contracts.
func (c *Contract) RentDue() decimal.Decimal {
	if c.Model != ContractModelRental || c.Rental == nil {
		return decimal.Zero
	}
	return c.Rental.RentAmount
}
