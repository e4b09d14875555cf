package fleet

import (
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VehicleStatus represents the operational status of a vehicle
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusRetired     VehicleStatus = "retired"
)

// IsValid returns true if the status is valid
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusActive, VehicleStatusMaintenance, VehicleStatusRetired:
		return true
	}
	return false
}

// Vehicle represents a fleet vehicle owned by a partner company
type Vehicle struct {
	shared.BaseAggregateRoot
	PartnerID uuid.UUID
	Plate     string
	Brand     string
	Model     string
	Year      int
	Status    VehicleStatus
}

// NewVehicle creates a new vehicle
func NewVehicle(partnerID uuid.UUID, plate, brand, model string, year int) (*Vehicle, error) {
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if plate == "" {
		return nil, shared.NewDomainError("INVALID_PLATE", "Vehicle plate cannot be empty")
	}
	return &Vehicle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PartnerID:         partnerID,
		Plate:             plate,
		Brand:             brand,
		Model:             model,
		Year:              year,
		Status:            VehicleStatusActive,
	}, nil
}

// IsActive returns true if the vehicle is in service
func (v *Vehicle) IsActive() bool {
	return v.Status == VehicleStatusActive
}
