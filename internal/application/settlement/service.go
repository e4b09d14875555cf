// Package settlement provides application services for settlement
// generation and the settlement workflow.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerapp "github.com/fleetops/backend/internal/application/ledger"
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/fleetops/backend/internal/infrastructure/cache"
	"github.com/fleetops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrGenerationInProgress indicates a concurrent generation run holds the
// lock for the same settlement key
var ErrGenerationInProgress = shared.NewDomainError("GENERATION_IN_PROGRESS", "Settlement generation already running for this driver, vehicle and period")

const generationLockTTL = 2 * time.Minute

// Service generates settlements and drives their workflow
type Service struct {
	settlementRepo settlement.Repository
	configRepo     fleet.FinancialConfigRepository
	resolver       *fleet.ContractResolver
	earnings       *EarningsAggregator
	costs          *CostAggregator
	ledgerSvc      *ledgerapp.Service
	calculator     *settlement.Calculator
	lock           cache.GenerationLock
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
}

// NewService creates a settlement service
func NewService(
	settlementRepo settlement.Repository,
	configRepo fleet.FinancialConfigRepository,
	resolver *fleet.ContractResolver,
	earnings *EarningsAggregator,
	costs *CostAggregator,
	ledgerSvc *ledgerapp.Service,
	lock cache.GenerationLock,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settlementRepo: settlementRepo,
		configRepo:     configRepo,
		resolver:       resolver,
		earnings:       earnings,
		costs:          costs,
		ledgerSvc:      ledgerSvc,
		calculator:     settlement.NewCalculator(),
		lock:           lock,
		metrics:        metrics,
		logger:         logger,
	}
}

// ComputeRequest identifies the settlement to generate or recompute.
// LedgerDebit is the amount the operator explicitly asked to settle from
// the driver's accrual ledger into this settlement; zero means no debit.
type ComputeRequest struct {
	DriverID    uuid.UUID
	VehicleID   uuid.UUID
	Period      valueobject.Period
	LedgerDebit decimal.Decimal
}

// Compute generates the settlement for a (driver, vehicle, period) key, or
// recomputes it in place while it is still pending receipt. Generation runs
// under a per-key lock so concurrent requests cannot produce duplicates.
//
// The contract active at the period end and the latest financial config are
// snapshotted onto the settlement. The accrual ledger is touched only when
// the request carries an explicit debit amount; the request fails with
// INSUFFICIENT_LEDGER_BALANCE before anything is persisted if that amount
// exceeds the driver's balance, and the debit entry posts once the
// settlement is saved.
func (s *Service) Compute(ctx context.Context, req ComputeRequest) (*settlement.Settlement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "compute")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, req.DriverID.String(),
		telemetry.SpanAttrVehicleID, req.VehicleID.String(),
		telemetry.SpanAttrPeriodStart, req.Period.Start().Format("2006-01-02"),
		telemetry.SpanAttrPeriodEnd, req.Period.End().Format("2006-01-02"),
	)

	lockKey := fmt.Sprintf("%s:%s:%s", req.DriverID, req.VehicleID, req.Period.Key())
	telemetry.SetAttribute(span, telemetry.SpanAttrLockKey, lockKey)

	acquired, err := s.lock.Acquire(ctx, lockKey, generationLockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !acquired {
		telemetry.RecordError(span, ErrGenerationInProgress)
		return nil, ErrGenerationInProgress
	}
	defer func() {
		if err := s.lock.Release(ctx, lockKey); err != nil {
			s.logger.Warn("Failed to release generation lock",
				zap.String("lock_key", lockKey), zap.Error(err))
		}
	}()

	contract, err := s.resolver.Resolve(ctx, req.VehicleID, req.DriverID, req.Period.End())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrContractID, contract.ID.String(),
		telemetry.SpanAttrContractModel, string(contract.Model),
	)

	config, err := s.latestConfig(ctx, req.DriverID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrConfigVersion, config.ConfigVersion)

	earningsSummary, err := s.earnings.Aggregate(ctx, req.DriverID, req.Period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	costSummary, err := s.costs.Aggregate(ctx, req.DriverID, req.VehicleID, req.Period, config)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Fail fast before anything is persisted. The authoritative check runs
	// again under the driver lock when the debit entry posts below.
	if req.LedgerDebit.IsPositive() {
		balance, err := s.ledgerSvc.Balance(ctx, req.DriverID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if req.LedgerDebit.GreaterThan(balance) {
			telemetry.RecordError(span, ledger.ErrInsufficientLedgerBalance)
			return nil, ledger.ErrInsufficientLedgerBalance
		}
	}

	breakdown, err := s.calculator.Calculate(settlement.CalculationInput{
		Earnings:    earningsSummary,
		Costs:       costSummary,
		Contract:    contract,
		Config:      config,
		LedgerDebit: req.LedgerDebit,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	existing, err := s.settlementRepo.FindByKey(ctx, req.DriverID, req.VehicleID, req.Period.Start())
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to look up settlement: %w", err)
	}

	stl := existing
	if stl == nil {
		stl, err = settlement.NewSettlement(
			req.DriverID, req.VehicleID, contract.PartnerID,
			req.Period.Start(), req.Period.End(),
			contract, config.ConfigVersion,
		)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if err := stl.ApplyBreakdown(earningsSummary.Lines, breakdown); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.settlementRepo.Save(ctx, stl); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save settlement: %w", err)
	}

	if req.LedgerDebit.IsPositive() {
		if _, err := s.ledgerSvc.Debit(ctx, req.DriverID, req.LedgerDebit, stl.ID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordLedgerEntry(ctx, req.DriverID, "debit")
		}
	}

	if existing != nil {
		s.logger.Info("Recomputed settlement",
			zap.String("settlement_id", stl.ID.String()),
			zap.String("liquid_value", breakdown.LiquidValue.String()),
		)
		return stl, nil
	}

	if s.metrics != nil {
		s.metrics.RecordSettlementGenerated(ctx, stl.PartnerID, string(stl.ContractModel))
		s.metrics.RecordSettlementAmount(ctx, stl.PartnerID, string(stl.ContractModel), breakdown.LiquidValue)
	}

	s.logger.Info("Generated settlement",
		zap.String("settlement_id", stl.ID.String()),
		zap.String("driver_id", req.DriverID.String()),
		zap.String("vehicle_id", req.VehicleID.String()),
		zap.String("period", req.Period.Key()),
		zap.String("liquid_value", breakdown.LiquidValue.String()),
	)
	return stl, nil
}

// latestConfig loads the driver's latest financial config, falling back to
// defaults for drivers that were never configured.
func (s *Service) latestConfig(ctx context.Context, driverID uuid.UUID) (*fleet.DriverFinancialConfig, error) {
	config, err := s.configRepo.FindLatest(ctx, driverID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fleet.NewDriverFinancialConfig(driverID)
		}
		return nil, fmt.Errorf("failed to load financial config: %w", err)
	}
	return config, nil
}

// SubmitReceipt records the driver's receipt and advances the workflow
func (s *Service) SubmitReceipt(ctx context.Context, settlementID, actorID uuid.UUID, receiptRef string) (*settlement.Settlement, error) {
	return s.transition(ctx, settlementID, "submit_receipt", func(stl *settlement.Settlement) error {
		return stl.SubmitReceipt(actorID, receiptRef)
	})
}

// Approve approves the settlement for payment
func (s *Service) Approve(ctx context.Context, settlementID, actorID uuid.UUID) (*settlement.Settlement, error) {
	return s.transition(ctx, settlementID, "approve", func(stl *settlement.Settlement) error {
		return stl.Approve(actorID)
	})
}

// MarkPaid finalizes the settlement. Any requested ledger debit already
// posted during computation, so this is a pure status transition.
func (s *Service) MarkPaid(ctx context.Context, settlementID, actorID uuid.UUID, paymentProofRef string) (*settlement.Settlement, error) {
	return s.transition(ctx, settlementID, "mark_paid", func(stl *settlement.Settlement) error {
		return stl.MarkPaid(actorID, paymentProofRef)
	})
}

// Reject rejects the settlement with a mandatory reason
func (s *Service) Reject(ctx context.Context, settlementID, actorID uuid.UUID, reason string) (*settlement.Settlement, error) {
	return s.transition(ctx, settlementID, "reject", func(stl *settlement.Settlement) error {
		return stl.Reject(actorID, reason)
	})
}

// Reopen returns a rejected settlement to pending receipt
func (s *Service) Reopen(ctx context.Context, settlementID, actorID uuid.UUID) (*settlement.Settlement, error) {
	return s.transition(ctx, settlementID, "reopen", func(stl *settlement.Settlement) error {
		return stl.Reopen(actorID)
	})
}

func (s *Service) transition(ctx context.Context, settlementID uuid.UUID, op string, apply func(*settlement.Settlement) error) (*settlement.Settlement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", op)
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSettlementID, settlementID.String())

	stl, err := s.settlementRepo.FindByID(ctx, settlementID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	from := stl.Status
	if err := apply(stl); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.settlementRepo.Save(ctx, stl); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save settlement: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSettlementTransition(ctx, string(from), string(stl.Status))
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrSettlementStatus, string(stl.Status))
	s.logger.Info("Settlement transitioned",
		zap.String("settlement_id", stl.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(stl.Status)),
	)
	return stl, nil
}

// Get returns one settlement by ID
func (s *Service) Get(ctx context.Context, settlementID uuid.UUID) (*settlement.Settlement, error) {
	return s.settlementRepo.FindByID(ctx, settlementID)
}

// List returns settlements matching the filter
func (s *Service) List(ctx context.Context, filter settlement.ListFilter) (*shared.Paginated[*settlement.Settlement], error) {
	return s.settlementRepo.List(ctx, filter)
}

// CountsByStatus returns the number of settlements per workflow status
func (s *Service) CountsByStatus(ctx context.Context) (map[settlement.Status]int64, error) {
	return s.settlementRepo.CountByStatus(ctx)
}

// GetSettlementCountsByStatus implements telemetry.SettlementMetricsProvider
func (s *Service) GetSettlementCountsByStatus(ctx context.Context) (map[string]int64, error) {
	counts, err := s.settlementRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out, nil
}
