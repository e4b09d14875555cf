package settlement

import (
	"time"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	EventTypeSettlementGenerated    = "settlement.generated"
	EventTypeSettlementTransitioned = "settlement.transitioned"
)

// SettlementGeneratedEvent is raised when a new settlement is created
type SettlementGeneratedEvent struct {
	shared.BaseDomainEvent
	DriverID    uuid.UUID
	VehicleID   uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// NewSettlementGeneratedEvent creates a settlement generated event
func NewSettlementGeneratedEvent(settlementID, driverID, vehicleID uuid.UUID, periodStart, periodEnd time.Time) *SettlementGeneratedEvent {
	return &SettlementGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementGenerated, settlementID, "Settlement"),
		DriverID:        driverID,
		VehicleID:       vehicleID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
	}
}

// SettlementTransitionedEvent is raised on every workflow transition
type SettlementTransitionedEvent struct {
	shared.BaseDomainEvent
	FromStatus Status
	ToStatus   Status
	Actor      uuid.UUID
}

// NewSettlementTransitionedEvent creates a settlement transitioned event
func NewSettlementTransitionedEvent(settlementID uuid.UUID, from, to Status, actor uuid.UUID) *SettlementTransitionedEvent {
	return &SettlementTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementTransitioned, settlementID, "Settlement"),
		FromStatus:      from,
		ToStatus:        to,
		Actor:           actor,
	}
}
