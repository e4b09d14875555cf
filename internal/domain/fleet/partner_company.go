package fleet

import (
	"github.com/fleetops/backend/internal/domain/shared"
)

// PartnerStatus represents the status of a partner company
type PartnerStatus string

const (
	PartnerStatusActive    PartnerStatus = "active"
	PartnerStatusSuspended PartnerStatus = "suspended"
)

// IsValid returns true if the status is valid
func (s PartnerStatus) IsValid() bool {
	switch s {
	case PartnerStatusActive, PartnerStatusSuspended:
		return true
	}
	return false
}

// PartnerCompany represents a fleet partner that owns vehicles and
// contracts drivers. Partner CRUD is owned by the surrounding platform;
// the engine reads partners for scoping and roll-ups.
type PartnerCompany struct {
	shared.BaseAggregateRoot
	Name   string
	TaxID  string
	Status PartnerStatus
}

// NewPartnerCompany creates a new partner company
func NewPartnerCompany(name, taxID string) (*PartnerCompany, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PARTNER_NAME", "Partner name cannot be empty")
	}
	return &PartnerCompany{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		TaxID:             taxID,
		Status:            PartnerStatusActive,
	}, nil
}

// IsActive returns true if the partner is active
func (p *PartnerCompany) IsActive() bool {
	return p.Status == PartnerStatusActive
}
