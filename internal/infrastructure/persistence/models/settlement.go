package models

import (
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningsRecordModel is the persistence model for platform earnings records.
type EarningsRecordModel struct {
	BaseModel
	Platform           settlement.Platform `gorm:"type:varchar(20);not null;index"`
	DriverID           uuid.UUID           `gorm:"type:uuid;not null;index:idx_earnings_driver_period,priority:1"`
	VehicleID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	PeriodStart        time.Time           `gorm:"not null;index:idx_earnings_driver_period,priority:2"`
	PeriodEnd          time.Time           `gorm:"not null"`
	GrossAmount        decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PlatformCommission decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	NetAmount          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	TipAmount          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (EarningsRecordModel) TableName() string {
	return "earnings_records"
}

// ToDomain converts the persistence model to a domain EarningsRecord.
func (m *EarningsRecordModel) ToDomain() *settlement.EarningsRecord {
	return &settlement.EarningsRecord{
		BaseEntity:         m.ToDomainBaseEntity(),
		Platform:           m.Platform,
		DriverID:           m.DriverID,
		VehicleID:          m.VehicleID,
		PeriodStart:        m.PeriodStart,
		PeriodEnd:          m.PeriodEnd,
		GrossAmount:        m.GrossAmount,
		PlatformCommission: m.PlatformCommission,
		NetAmount:          m.NetAmount,
		TipAmount:          m.TipAmount,
	}
}

// FromDomain populates the persistence model from a domain EarningsRecord.
func (m *EarningsRecordModel) FromDomain(r *settlement.EarningsRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.Platform = r.Platform
	m.DriverID = r.DriverID
	m.VehicleID = r.VehicleID
	m.PeriodStart = r.PeriodStart
	m.PeriodEnd = r.PeriodEnd
	m.GrossAmount = r.GrossAmount
	m.PlatformCommission = r.PlatformCommission
	m.NetAmount = r.NetAmount
	m.TipAmount = r.TipAmount
}

// CostRecordModel is the persistence model for operating cost records.
type CostRecordModel struct {
	BaseModel
	Category        settlement.CostCategory `gorm:"type:varchar(30);not null;index"`
	DriverID        *uuid.UUID              `gorm:"type:uuid;index"`
	VehicleID       *uuid.UUID              `gorm:"type:uuid;index"`
	Amount          decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	IncurredAt      time.Time               `gorm:"not null;index"`
	AccrualEligible bool                    `gorm:"not null;default:false"`
	Platform        string                  `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (CostRecordModel) TableName() string {
	return "cost_records"
}

// ToDomain converts the persistence model to a domain CostRecord.
func (m *CostRecordModel) ToDomain() *settlement.CostRecord {
	return &settlement.CostRecord{
		BaseEntity:      m.ToDomainBaseEntity(),
		Category:        m.Category,
		DriverID:        m.DriverID,
		VehicleID:       m.VehicleID,
		Amount:          m.Amount,
		IncurredAt:      m.IncurredAt,
		AccrualEligible: m.AccrualEligible,
		Platform:        m.Platform,
	}
}

// FromDomain populates the persistence model from a domain CostRecord.
func (m *CostRecordModel) FromDomain(r *settlement.CostRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.Category = r.Category
	m.DriverID = r.DriverID
	m.VehicleID = r.VehicleID
	m.Amount = r.Amount
	m.IncurredAt = r.IncurredAt
	m.AccrualEligible = r.AccrualEligible
	m.Platform = r.Platform
}

// SettlementModel is the persistence model for the Settlement aggregate root.
// (driver_id, vehicle_id, period_start) is unique so recomputes update the
// existing row instead of inserting a sibling.
type SettlementModel struct {
	AggregateModel
	DriverID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_settlements_key,priority:1"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_settlements_key,priority:2"`
	PartnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_settlements_key,priority:3"`
	PeriodEnd   time.Time `gorm:"not null"`

	ContractID    uuid.UUID           `gorm:"type:uuid;not null"`
	ContractModel fleet.ContractModel `gorm:"type:varchar(20);not null"`
	ConfigVersion int                 `gorm:"not null"`

	EarningsLines EarningsLines `gorm:"type:jsonb;default:'[]'"`

	TotalGross      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCommission decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalNet        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTips       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	CommissionBase   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DriverPct        decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	PartnerPct       decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	DriverShare      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PartnerShare     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GratuitySeparate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	RentDue        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ImmediateCosts decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DeferredCosts  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LedgerDebit    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	TotalDeductions decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LiquidValue     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Status          settlement.Status `gorm:"type:varchar(30);not null;default:'pending_receipt';index"`
	ReceiptRef      string            `gorm:"type:varchar(500)"`
	PaymentProofRef string            `gorm:"type:varchar(500)"`
	RejectionReason string            `gorm:"type:varchar(500)"`

	SubmittedAt *time.Time
	SubmittedBy *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt  *time.Time
	ApprovedBy  *uuid.UUID `gorm:"type:uuid"`
	PaidAt      *time.Time
	PaidBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedAt  *time.Time
	RejectedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts the persistence model to a domain Settlement.
func (m *SettlementModel) ToDomain() *settlement.Settlement {
	return &settlement.Settlement{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DriverID:          m.DriverID,
		VehicleID:         m.VehicleID,
		PartnerID:         m.PartnerID,
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		ContractID:        m.ContractID,
		ContractModel:     m.ContractModel,
		ConfigVersion:     m.ConfigVersion,
		EarningsLines:     m.EarningsLines,
		Breakdown: settlement.Breakdown{
			TotalGross:       m.TotalGross,
			TotalCommission:  m.TotalCommission,
			TotalNet:         m.TotalNet,
			TotalTips:        m.TotalTips,
			CommissionBase:   m.CommissionBase,
			DriverPct:        m.DriverPct,
			PartnerPct:       m.PartnerPct,
			DriverShare:      m.DriverShare,
			PartnerShare:     m.PartnerShare,
			GratuitySeparate: m.GratuitySeparate,
			RentDue:          m.RentDue,
			ImmediateCosts:   m.ImmediateCosts,
			DeferredCosts:    m.DeferredCosts,
			LedgerDebit:      m.LedgerDebit,
			TotalDeductions:  m.TotalDeductions,
			LiquidValue:      m.LiquidValue,
		},
		Status:          m.Status,
		ReceiptRef:      m.ReceiptRef,
		PaymentProofRef: m.PaymentProofRef,
		RejectionReason: m.RejectionReason,
		SubmittedAt:     m.SubmittedAt,
		SubmittedBy:     m.SubmittedBy,
		ApprovedAt:      m.ApprovedAt,
		ApprovedBy:      m.ApprovedBy,
		PaidAt:          m.PaidAt,
		PaidBy:          m.PaidBy,
		RejectedAt:      m.RejectedAt,
		RejectedBy:      m.RejectedBy,
	}
}

// FromDomain populates the persistence model from a domain Settlement.
func (m *SettlementModel) FromDomain(s *settlement.Settlement) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.DriverID = s.DriverID
	m.VehicleID = s.VehicleID
	m.PartnerID = s.PartnerID
	m.PeriodStart = s.PeriodStart
	m.PeriodEnd = s.PeriodEnd
	m.ContractID = s.ContractID
	m.ContractModel = s.ContractModel
	m.ConfigVersion = s.ConfigVersion
	m.EarningsLines = s.EarningsLines

	m.TotalGross = s.Breakdown.TotalGross
	m.TotalCommission = s.Breakdown.TotalCommission
	m.TotalNet = s.Breakdown.TotalNet
	m.TotalTips = s.Breakdown.TotalTips
	m.CommissionBase = s.Breakdown.CommissionBase
	m.DriverPct = s.Breakdown.DriverPct
	m.PartnerPct = s.Breakdown.PartnerPct
	m.DriverShare = s.Breakdown.DriverShare
	m.PartnerShare = s.Breakdown.PartnerShare
	m.GratuitySeparate = s.Breakdown.GratuitySeparate
	m.RentDue = s.Breakdown.RentDue
	m.ImmediateCosts = s.Breakdown.ImmediateCosts
	m.DeferredCosts = s.Breakdown.DeferredCosts
	m.LedgerDebit = s.Breakdown.LedgerDebit
	m.TotalDeductions = s.Breakdown.TotalDeductions
	m.LiquidValue = s.Breakdown.LiquidValue

	m.Status = s.Status
	m.ReceiptRef = s.ReceiptRef
	m.PaymentProofRef = s.PaymentProofRef
	m.RejectionReason = s.RejectionReason
	m.SubmittedAt = s.SubmittedAt
	m.SubmittedBy = s.SubmittedBy
	m.ApprovedAt = s.ApprovedAt
	m.ApprovedBy = s.ApprovedBy
	m.PaidAt = s.PaidAt
	m.PaidBy = s.PaidBy
	m.RejectedAt = s.RejectedAt
	m.RejectedBy = s.RejectedBy
}

// SettlementModelFromDomain creates a new persistence model from a domain Settlement.
func SettlementModelFromDomain(s *settlement.Settlement) *SettlementModel {
	m := &SettlementModel{}
	m.FromDomain(s)
	return m
}
