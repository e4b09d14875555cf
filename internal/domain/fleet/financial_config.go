package fleet

import (
	"slices"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GratuityPolicy controls how gratuities are treated when splitting earnings
type GratuityPolicy string

const (
	// GratuityIncludedInCommission: tips stay inside the commission base
	// and are split like any other earning.
	GratuityIncludedInCommission GratuityPolicy = "included_in_commission"
	// GratuityPaidSeparately: tips are removed from the commission base
	// and paid to the driver in full.
	GratuityPaidSeparately GratuityPolicy = "paid_separately"
)

// IsValid returns true if the policy is valid
func (p GratuityPolicy) IsValid() bool {
	switch p {
	case GratuityIncludedInCommission, GratuityPaidSeparately:
		return true
	}
	return false
}

// ErrInvalidVatConfig signals a VAT percentage outside [0, 100)
var ErrInvalidVatConfig = shared.NewDomainError("INVALID_VAT_CONFIG", "VAT percentage must be at least 0 and below 100")

// DriverFinancialConfig holds the per-driver financial policy knobs.
// Configs are versioned append-only: a change writes a new row with a
// higher ConfigVersion, and every settlement snapshots the version it was
// computed with so it stays reproducible against history.
type DriverFinancialConfig struct {
	shared.BaseAggregateRoot
	DriverID      uuid.UUID
	ConfigVersion int

	TollAccumulation bool
	TollPlatforms    []string // platforms whose trip tolls accrue; empty means all

	Gratuity GratuityPolicy

	VATIncluded bool
	VATPercent  decimal.Decimal

	CommissionOverride bool
	OverrideDriverPct  decimal.Decimal
	OverridePartnerPct decimal.Decimal
}

// NewDriverFinancialConfig creates the first config version for a driver
// with platform defaults: no toll accumulation, tips inside commission,
// VAT-exclusive earnings.
func NewDriverFinancialConfig(driverID uuid.UUID) (*DriverFinancialConfig, error) {
	if driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DRIVER", "Driver ID cannot be empty")
	}
	cfg := &DriverFinancialConfig{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DriverID:          driverID,
		ConfigVersion:     1,
		Gratuity:          GratuityIncludedInCommission,
	}
	cfg.AddDomainEvent(NewFinancialConfigUpdatedEvent(cfg))
	return cfg, nil
}

// Validate checks the config invariants that settlement math depends on.
// Violations are fatal to settlement computation and are never defaulted.
func (c *DriverFinancialConfig) Validate() error {
	if !c.Gratuity.IsValid() {
		return shared.NewDomainError("INVALID_GRATUITY_POLICY", "Unknown gratuity policy")
	}
	if c.VATIncluded {
		if c.VATPercent.IsNegative() || c.VATPercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return ErrInvalidVatConfig
		}
	}
	if c.CommissionOverride {
		split := CommissionTerms{DriverPct: c.OverrideDriverPct, PartnerPct: c.OverridePartnerPct}
		if err := split.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NextVersion returns a copy of the config as a new appended version.
// The mutate callback applies the requested changes; the result is
// validated before being returned.
func (c *DriverFinancialConfig) NextVersion(mutate func(*DriverFinancialConfig)) (*DriverFinancialConfig, error) {
	next := &DriverFinancialConfig{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		DriverID:           c.DriverID,
		ConfigVersion:      c.ConfigVersion + 1,
		TollAccumulation:   c.TollAccumulation,
		TollPlatforms:      slices.Clone(c.TollPlatforms),
		Gratuity:           c.Gratuity,
		VATIncluded:        c.VATIncluded,
		VATPercent:         c.VATPercent,
		CommissionOverride: c.CommissionOverride,
		OverrideDriverPct:  c.OverrideDriverPct,
		OverridePartnerPct: c.OverridePartnerPct,
	}
	if mutate != nil {
		mutate(next)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.Touch()
	next.AddDomainEvent(NewFinancialConfigUpdatedEvent(next))
	return next, nil
}

// TollPlatformInScope reports whether tolls from the given platform count
// toward accumulation. An empty scope means every platform counts.
func (c *DriverFinancialConfig) TollPlatformInScope(platform string) bool {
	if len(c.TollPlatforms) == 0 {
		return true
	}
	return slices.Contains(c.TollPlatforms, platform)
}

// EffectiveSplit resolves the commission percentages to apply for a
// commission contract: the override when set, otherwise the contract's
// defaults. The chosen split is validated either way.
func (c *DriverFinancialConfig) EffectiveSplit(contract *Contract) (driverPct, partnerPct decimal.Decimal, err error) {
	if c.CommissionOverride {
		split := CommissionTerms{DriverPct: c.OverrideDriverPct, PartnerPct: c.OverridePartnerPct}
		if err := split.Validate(); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return c.OverrideDriverPct, c.OverridePartnerPct, nil
	}
	dp, pp, err := contract.DefaultSplit()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	split := CommissionTerms{DriverPct: dp, PartnerPct: pp}
	if err := split.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return dp, pp, nil
}
