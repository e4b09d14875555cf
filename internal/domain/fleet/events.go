package fleet

import (
	"time"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the fleet aggregate roots
const (
	EventTypeContractOpened          = "fleet.contract.opened"
	EventTypeContractClosed          = "fleet.contract.closed"
	EventTypeFinancialConfigUpdated  = "fleet.financial_config.updated"
	AggregateTypeContract            = "Contract"
	AggregateTypeDriverFinancialConfig = "DriverFinancialConfig"
)

// ContractOpenedEvent is recorded when a contract is created
type ContractOpenedEvent struct {
	shared.BaseDomainEvent
	VehicleID uuid.UUID     `json:"vehicle_id"`
	DriverID  uuid.UUID     `json:"driver_id"`
	Model     ContractModel `json:"model"`
	StartDate time.Time     `json:"start_date"`
}

// NewContractOpenedEvent creates a ContractOpenedEvent
func NewContractOpenedEvent(c *Contract) *ContractOpenedEvent {
	return &ContractOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractOpened, c.ID, AggregateTypeContract),
		VehicleID:       c.VehicleID,
		DriverID:        c.DriverID,
		Model:           c.Model,
		StartDate:       c.StartDate,
	}
}

// ContractClosedEvent is recorded when a contract is superseded or ended
type ContractClosedEvent struct {
	shared.BaseDomainEvent
	VehicleID uuid.UUID  `json:"vehicle_id"`
	DriverID  uuid.UUID  `json:"driver_id"`
	EndDate   *time.Time `json:"end_date"`
}

// NewContractClosedEvent creates a ContractClosedEvent
func NewContractClosedEvent(c *Contract) *ContractClosedEvent {
	return &ContractClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractClosed, c.ID, AggregateTypeContract),
		VehicleID:       c.VehicleID,
		DriverID:        c.DriverID,
		EndDate:         c.EndDate,
	}
}

// FinancialConfigUpdatedEvent is recorded when a new config version is written
type FinancialConfigUpdatedEvent struct {
	shared.BaseDomainEvent
	DriverID      uuid.UUID `json:"driver_id"`
	ConfigVersion int       `json:"config_version"`
}

// NewFinancialConfigUpdatedEvent creates a FinancialConfigUpdatedEvent
func NewFinancialConfigUpdatedEvent(cfg *DriverFinancialConfig) *FinancialConfigUpdatedEvent {
	return &FinancialConfigUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFinancialConfigUpdated, cfg.ID, AggregateTypeDriverFinancialConfig),
		DriverID:        cfg.DriverID,
		ConfigVersion:   cfg.ConfigVersion,
	}
}
