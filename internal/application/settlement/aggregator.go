package settlement

import (
	"context"
	"fmt"

	ledgerapp "github.com/fleetops/backend/internal/application/ledger"
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/fleetops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EarningsAggregator builds per-period earnings summaries from ingested
// platform records
type EarningsAggregator struct {
	earningsRepo settlement.EarningsRecordRepository
}

// NewEarningsAggregator creates an earnings aggregator
func NewEarningsAggregator(earningsRepo settlement.EarningsRecordRepository) *EarningsAggregator {
	return &EarningsAggregator{earningsRepo: earningsRepo}
}

// Aggregate groups a driver's earnings records inside the period by platform
func (a *EarningsAggregator) Aggregate(ctx context.Context, driverID uuid.UUID, period valueobject.Period) (settlement.EarningsSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "earnings", "aggregate")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, driverID.String(),
		telemetry.SpanAttrPeriodStart, period.Start().Format("2006-01-02"),
		telemetry.SpanAttrPeriodEnd, period.End().Format("2006-01-02"),
	)

	records, err := a.earningsRepo.FindForDriver(ctx, driverID, period.Start(), period.End())
	if err != nil {
		telemetry.RecordError(span, err)
		return settlement.EarningsSummary{}, fmt.Errorf("failed to load earnings records: %w", err)
	}

	summary := settlement.BuildEarningsSummary(driverID, period.Start(), period.End(), records)
	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, summary.TotalGross.String())
	return summary, nil
}

// CostAggregator partitions a driver's costs for a period and posts accrual
// credits for the deferred share
type CostAggregator struct {
	costRepo  settlement.CostRecordRepository
	ledgerSvc *ledgerapp.Service
	logger    *zap.Logger
}

// NewCostAggregator creates a cost aggregator
func NewCostAggregator(costRepo settlement.CostRecordRepository, ledgerSvc *ledgerapp.Service, logger *zap.Logger) *CostAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostAggregator{
		costRepo:  costRepo,
		ledgerSvc: ledgerSvc,
		logger:    logger,
	}
}

// Aggregate partitions the cost records applicable to one settlement per
// the financial config. Vehicle-scoped costs with no driver (maintenance,
// insurance) count alongside the driver's own. Deferred toll costs are
// credited to the accrual ledger; credits are idempotent per cost record,
// so repeated aggregation runs (or settlement recomputes) never
// double-credit.
func (a *CostAggregator) Aggregate(ctx context.Context, driverID, vehicleID uuid.UUID, period valueobject.Period, config *fleet.DriverFinancialConfig) (settlement.CostSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "costs", "aggregate")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, driverID.String(),
		telemetry.SpanAttrVehicleID, vehicleID.String(),
		telemetry.SpanAttrPeriodStart, period.Start().Format("2006-01-02"),
		telemetry.SpanAttrPeriodEnd, period.End().Format("2006-01-02"),
	)

	records, err := a.costRepo.FindForSettlement(ctx, driverID, vehicleID, period.Start(), period.End())
	if err != nil {
		telemetry.RecordError(span, err)
		return settlement.CostSummary{}, fmt.Errorf("failed to load cost records: %w", err)
	}

	summary := settlement.PartitionCosts(driverID, period.Start(), period.End(), records, config)

	for _, rec := range summary.Deferred {
		posted, err := a.ledgerSvc.Credit(ctx, driverID, rec.Amount, rec.ID)
		if err != nil {
			telemetry.RecordError(span, err)
			return settlement.CostSummary{}, fmt.Errorf("failed to post accrual credit: %w", err)
		}
		if posted {
			a.logger.Info("Posted accrual credit",
				zap.String("driver_id", driverID.String()),
				zap.String("cost_record_id", rec.ID.String()),
				zap.String("amount", rec.Amount.String()),
			)
		}
	}

	return summary, nil
}
