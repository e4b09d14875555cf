package models

import (
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnerCompanyModel is the persistence model for the PartnerCompany aggregate root.
type PartnerCompanyModel struct {
	AggregateModel
	Name   string              `gorm:"type:varchar(200);not null"`
	TaxID  string              `gorm:"type:varchar(50);index"`
	Status fleet.PartnerStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (PartnerCompanyModel) TableName() string {
	return "partner_companies"
}

// ToDomain converts the persistence model to a domain PartnerCompany.
func (m *PartnerCompanyModel) ToDomain() *fleet.PartnerCompany {
	return &fleet.PartnerCompany{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		TaxID:             m.TaxID,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain PartnerCompany.
func (m *PartnerCompanyModel) FromDomain(p *fleet.PartnerCompany) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.TaxID = p.TaxID
	m.Status = p.Status
}

// VehicleModel is the persistence model for the Vehicle aggregate root.
type VehicleModel struct {
	AggregateModel
	PartnerID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Plate     string              `gorm:"type:varchar(20);not null;uniqueIndex"`
	Brand     string              `gorm:"type:varchar(100)"`
	Model     string              `gorm:"type:varchar(100)"`
	Year      int                 `gorm:"not null"`
	Status    fleet.VehicleStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string {
	return "vehicles"
}

// ToDomain converts the persistence model to a domain Vehicle.
func (m *VehicleModel) ToDomain() *fleet.Vehicle {
	return &fleet.Vehicle{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PartnerID:         m.PartnerID,
		Plate:             m.Plate,
		Brand:             m.Brand,
		Model:             m.Model,
		Year:              m.Year,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Vehicle.
func (m *VehicleModel) FromDomain(v *fleet.Vehicle) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.PartnerID = v.PartnerID
	m.Plate = v.Plate
	m.Brand = v.Brand
	m.Model = v.Model
	m.Year = v.Year
	m.Status = v.Status
}

// DriverModel is the persistence model for the Driver aggregate root.
type DriverModel struct {
	AggregateModel
	PartnerID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	Name          string             `gorm:"type:varchar(200);not null"`
	LicenseNumber string             `gorm:"type:varchar(50)"`
	Email         string             `gorm:"type:varchar(200)"`
	Phone         string             `gorm:"type:varchar(50)"`
	Status        fleet.DriverStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (DriverModel) TableName() string {
	return "drivers"
}

// ToDomain converts the persistence model to a domain Driver.
func (m *DriverModel) ToDomain() *fleet.Driver {
	return &fleet.Driver{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PartnerID:         m.PartnerID,
		Name:              m.Name,
		LicenseNumber:     m.LicenseNumber,
		Email:             m.Email,
		Phone:             m.Phone,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Driver.
func (m *DriverModel) FromDomain(d *fleet.Driver) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.PartnerID = d.PartnerID
	m.Name = d.Name
	m.LicenseNumber = d.LicenseNumber
	m.Email = d.Email
	m.Phone = d.Phone
	m.Status = d.Status
}

// ContractModel is the persistence model for the Contract aggregate root.
// Rental and commission terms are flattened into nullable columns; the
// populated set follows the Model column.
type ContractModel struct {
	AggregateModel
	VehicleID uuid.UUID           `gorm:"type:uuid;not null;index:idx_contracts_pairing,priority:1"`
	DriverID  uuid.UUID           `gorm:"type:uuid;not null;index:idx_contracts_pairing,priority:2"`
	PartnerID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Model     fleet.ContractModel `gorm:"type:varchar(20);not null"`

	RentAmount      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	RentPeriodicity *string          `gorm:"type:varchar(20)"`
	Deposit         *decimal.Decimal `gorm:"type:decimal(18,4)"`

	CommissionDriverPct  *decimal.Decimal `gorm:"type:decimal(8,4)"`
	CommissionPartnerPct *decimal.Decimal `gorm:"type:decimal(8,4)"`

	StartDate time.Time  `gorm:"not null;index"`
	EndDate   *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *fleet.Contract {
	c := &fleet.Contract{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		VehicleID:         m.VehicleID,
		DriverID:          m.DriverID,
		PartnerID:         m.PartnerID,
		Model:             m.Model,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
	}
	switch m.Model {
	case fleet.ContractModelRental:
		terms := fleet.RentalTerms{Deposit: m.Deposit}
		if m.RentAmount != nil {
			terms.RentAmount = *m.RentAmount
		}
		if m.RentPeriodicity != nil {
			terms.Periodicity = fleet.RentPeriodicity(*m.RentPeriodicity)
		}
		c.Rental = &terms
	case fleet.ContractModelCommission:
		terms := fleet.CommissionTerms{}
		if m.CommissionDriverPct != nil {
			terms.DriverPct = *m.CommissionDriverPct
		}
		if m.CommissionPartnerPct != nil {
			terms.PartnerPct = *m.CommissionPartnerPct
		}
		c.Commission = &terms
	}
	return c
}

// FromDomain populates the persistence model from a domain Contract.
func (m *ContractModel) FromDomain(c *fleet.Contract) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.VehicleID = c.VehicleID
	m.DriverID = c.DriverID
	m.PartnerID = c.PartnerID
	m.Model = c.Model
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate

	m.RentAmount = nil
	m.RentPeriodicity = nil
	m.Deposit = nil
	m.CommissionDriverPct = nil
	m.CommissionPartnerPct = nil

	if c.Rental != nil {
		rent := c.Rental.RentAmount
		periodicity := string(c.Rental.Periodicity)
		m.RentAmount = &rent
		m.RentPeriodicity = &periodicity
		m.Deposit = c.Rental.Deposit
	}
	if c.Commission != nil {
		driverPct := c.Commission.DriverPct
		partnerPct := c.Commission.PartnerPct
		m.CommissionDriverPct = &driverPct
		m.CommissionPartnerPct = &partnerPct
	}
}

// ContractModelFromDomain creates a new persistence model from a domain Contract.
func ContractModelFromDomain(c *fleet.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// DriverFinancialConfigModel is the persistence model for DriverFinancialConfig.
// Versions are append-only rows; (driver_id, config_version) is unique.
type DriverFinancialConfigModel struct {
	AggregateModel
	DriverID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_financial_configs_driver_version,priority:1"`
	ConfigVersion int       `gorm:"not null;uniqueIndex:idx_financial_configs_driver_version,priority:2"`

	TollAccumulation bool       `gorm:"not null;default:false"`
	TollPlatforms    StringList `gorm:"type:jsonb;default:'[]'"`

	Gratuity fleet.GratuityPolicy `gorm:"type:varchar(30);not null"`

	VATIncluded bool            `gorm:"not null;default:false"`
	VATPercent  decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`

	CommissionOverride bool            `gorm:"not null;default:false"`
	OverrideDriverPct  decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	OverridePartnerPct decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (DriverFinancialConfigModel) TableName() string {
	return "driver_financial_configs"
}

// ToDomain converts the persistence model to a domain DriverFinancialConfig.
func (m *DriverFinancialConfigModel) ToDomain() *fleet.DriverFinancialConfig {
	return &fleet.DriverFinancialConfig{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		DriverID:           m.DriverID,
		ConfigVersion:      m.ConfigVersion,
		TollAccumulation:   m.TollAccumulation,
		TollPlatforms:      m.TollPlatforms,
		Gratuity:           m.Gratuity,
		VATIncluded:        m.VATIncluded,
		VATPercent:         m.VATPercent,
		CommissionOverride: m.CommissionOverride,
		OverrideDriverPct:  m.OverrideDriverPct,
		OverridePartnerPct: m.OverridePartnerPct,
	}
}

// FromDomain populates the persistence model from a domain DriverFinancialConfig.
func (m *DriverFinancialConfigModel) FromDomain(cfg *fleet.DriverFinancialConfig) {
	m.FromDomainAggregateRoot(cfg.BaseAggregateRoot)
	m.DriverID = cfg.DriverID
	m.ConfigVersion = cfg.ConfigVersion
	m.TollAccumulation = cfg.TollAccumulation
	m.TollPlatforms = cfg.TollPlatforms
	m.Gratuity = cfg.Gratuity
	m.VATIncluded = cfg.VATIncluded
	m.VATPercent = cfg.VATPercent
	m.CommissionOverride = cfg.CommissionOverride
	m.OverrideDriverPct = cfg.OverrideDriverPct
	m.OverridePartnerPct = cfg.OverridePartnerPct
}

// DriverFinancialConfigModelFromDomain creates a new persistence model from a domain config.
func DriverFinancialConfigModelFromDomain(cfg *fleet.DriverFinancialConfig) *DriverFinancialConfigModel {
	m := &DriverFinancialConfigModel{}
	m.FromDomain(cfg)
	return m
}
