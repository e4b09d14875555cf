package fleet

import (
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DriverStatus represents the status of a driver
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
)

// IsValid returns true if the status is valid
func (s DriverStatus) IsValid() bool {
	switch s {
	case DriverStatusActive, DriverStatusInactive:
		return true
	}
	return false
}

// Driver represents a driver working under a partner company
type Driver struct {
	shared.BaseAggregateRoot
	PartnerID     uuid.UUID
	Name          string
	LicenseNumber string
	Email         string
	Phone         string
	Status        DriverStatus
}

// NewDriver creates a new driver
func NewDriver(partnerID uuid.UUID, name, licenseNumber string) (*Driver, error) {
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_DRIVER_NAME", "Driver name cannot be empty")
	}
	return &Driver{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PartnerID:         partnerID,
		Name:              name,
		LicenseNumber:     licenseNumber,
		Status:            DriverStatusActive,
	}, nil
}

// IsActive returns true if the driver is active
func (d *Driver) IsActive() bool {
	return d.Status == DriverStatusActive
}
