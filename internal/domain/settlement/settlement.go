package settlement

import (
	"fmt"
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTransition indicates a workflow transition not allowed from the current status
	ErrInvalidTransition = shared.NewDomainError("INVALID_TRANSITION", "Settlement status transition not allowed")
	// ErrSettlementLocked indicates a recompute attempted after the settlement left pending receipt
	ErrSettlementLocked = shared.NewDomainError("SETTLEMENT_LOCKED", "Settlement can only be recomputed while pending receipt")
	// ErrRejectionReasonRequired indicates a rejection without a reason
	ErrRejectionReasonRequired = shared.NewDomainError("REJECTION_REASON_REQUIRED", "Rejecting a settlement requires a reason")
)

// Breakdown holds the monetary result of a settlement calculation.
// All amounts are rounded to 2 decimal places; LiquidValue may be negative.
type Breakdown struct {
	TotalGross      decimal.Decimal
	TotalCommission decimal.Decimal
	TotalNet        decimal.Decimal
	TotalTips       decimal.Decimal

	CommissionBase   decimal.Decimal // VAT-adjusted, gratuity-removed base for splitting
	DriverPct        decimal.Decimal
	PartnerPct       decimal.Decimal
	DriverShare      decimal.Decimal
	PartnerShare     decimal.Decimal
	GratuitySeparate decimal.Decimal // tips paid outside the commission split

	RentDue        decimal.Decimal
	ImmediateCosts decimal.Decimal
	DeferredCosts  decimal.Decimal // informational, posted to the ledger not deducted
	LedgerDebit    decimal.Decimal

	TotalDeductions decimal.Decimal
	LiquidValue     decimal.Decimal
}

// Settlement is the periodic financial reconciliation between the fleet and
// one driver on one vehicle. Contract, config version and partner are
// snapshotted at generation time so later contract or config changes never
// alter an existing settlement.
type Settlement struct {
	shared.BaseAggregateRoot
	DriverID  uuid.UUID
	VehicleID uuid.UUID
	PartnerID uuid.UUID

	PeriodStart time.Time
	PeriodEnd   time.Time

	ContractID    uuid.UUID
	ContractModel fleet.ContractModel
	ConfigVersion int

	EarningsLines []PlatformEarnings
	Breakdown     Breakdown

	Status          Status
	ReceiptRef      string
	PaymentProofRef string
	RejectionReason string

	SubmittedAt *time.Time
	SubmittedBy *uuid.UUID
	ApprovedAt  *time.Time
	ApprovedBy  *uuid.UUID
	PaidAt      *time.Time
	PaidBy      *uuid.UUID
	RejectedAt  *time.Time
	RejectedBy  *uuid.UUID
}

// NewSettlement creates a settlement in pending receipt status
func NewSettlement(driverID, vehicleID, partnerID uuid.UUID, periodStart, periodEnd time.Time, contract *fleet.Contract, configVersion int) (*Settlement, error) {
	if driverID == uuid.Nil || vehicleID == uuid.Nil || partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Driver, vehicle and partner are required")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Settlement period end must be after start")
	}
	if contract == nil {
		return nil, fleet.ErrNoActiveContract
	}
	if configVersion < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Financial config version must be at least 1")
	}

	s := &Settlement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DriverID:          driverID,
		VehicleID:         vehicleID,
		PartnerID:         partnerID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		ContractID:        contract.ID,
		ContractModel:     contract.Model,
		ConfigVersion:     configVersion,
		Status:            StatusPendingReceipt,
	}
	s.AddDomainEvent(NewSettlementGeneratedEvent(s.ID, driverID, vehicleID, periodStart, periodEnd))
	return s, nil
}

// CanRecompute reports whether the breakdown may still be replaced
func (s *Settlement) CanRecompute() bool {
	return s.Status == StatusPendingReceipt
}

// ApplyBreakdown replaces the settlement's monetary breakdown. Only allowed
// while the settlement is pending receipt.
func (s *Settlement) ApplyBreakdown(lines []PlatformEarnings, b Breakdown) error {
	if !s.CanRecompute() {
		return ErrSettlementLocked
	}
	s.EarningsLines = lines
	s.Breakdown = b
	s.Touch()
	s.IncrementVersion()
	return nil
}

// SubmitReceipt moves the settlement to receipt submitted
func (s *Settlement) SubmitReceipt(actor uuid.UUID, receiptRef string) error {
	if err := s.guardTransition(StatusReceiptSubmitted); err != nil {
		return err
	}
	now := time.Now()
	s.Status = StatusReceiptSubmitted
	s.ReceiptRef = receiptRef
	s.SubmittedAt = &now
	s.SubmittedBy = &actor
	s.touch(now)
	s.AddDomainEvent(NewSettlementTransitionedEvent(s.ID, StatusPendingReceipt, StatusReceiptSubmitted, actor))
	return nil
}

// Approve moves the settlement to approved for payment
func (s *Settlement) Approve(actor uuid.UUID) error {
	if err := s.guardTransition(StatusApprovedForPayment); err != nil {
		return err
	}
	from := s.Status
	now := time.Now()
	s.Status = StatusApprovedForPayment
	s.ApprovedAt = &now
	s.ApprovedBy = &actor
	s.touch(now)
	s.AddDomainEvent(NewSettlementTransitionedEvent(s.ID, from, StatusApprovedForPayment, actor))
	return nil
}

// MarkPaid moves the settlement to its terminal paid status
func (s *Settlement) MarkPaid(actor uuid.UUID, paymentProofRef string) error {
	if err := s.guardTransition(StatusPaid); err != nil {
		return err
	}
	from := s.Status
	now := time.Now()
	s.Status = StatusPaid
	s.PaymentProofRef = paymentProofRef
	s.PaidAt = &now
	s.PaidBy = &actor
	s.touch(now)
	s.AddDomainEvent(NewSettlementTransitionedEvent(s.ID, from, StatusPaid, actor))
	return nil
}

// Reject moves the settlement to rejected. A reason is mandatory.
func (s *Settlement) Reject(actor uuid.UUID, reason string) error {
	if reason == "" {
		return ErrRejectionReasonRequired
	}
	if err := s.guardTransition(StatusRejected); err != nil {
		return err
	}
	from := s.Status
	now := time.Now()
	s.Status = StatusRejected
	s.RejectionReason = reason
	s.RejectedAt = &now
	s.RejectedBy = &actor
	s.touch(now)
	s.AddDomainEvent(NewSettlementTransitionedEvent(s.ID, from, StatusRejected, actor))
	return nil
}

// Reopen returns a rejected settlement to pending receipt for resubmission.
// The previous receipt reference and rejection reason are kept for audit.
func (s *Settlement) Reopen(actor uuid.UUID) error {
	if err := s.guardTransition(StatusPendingReceipt); err != nil {
		return err
	}
	now := time.Now()
	s.Status = StatusPendingReceipt
	s.touch(now)
	s.AddDomainEvent(NewSettlementTransitionedEvent(s.ID, StatusRejected, StatusPendingReceipt, actor))
	return nil
}

func (s *Settlement) guardTransition(target Status) error {
	if !s.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition settlement from %s to %s", s.Status, target))
	}
	return nil
}

func (s *Settlement) touch(now time.Time) {
	s.UpdatedAt = now
	s.IncrementVersion()
}
