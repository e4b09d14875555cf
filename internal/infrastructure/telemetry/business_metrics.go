package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks settlement throughput, workflow activity and
// accrual ledger movement.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	settlementGeneratedTotal  *Counter
	settlementTransitionTotal *Counter
	settlementAmountTotal     *Counter
	ledgerEntryTotal          *Counter

	// Gauge metrics (point-in-time values)
	settlementStatusCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	settlementProvider SettlementMetricsProvider
}

// SettlementMetricsProvider provides settlement workflow state for periodic
// metrics collection. The interface keeps the telemetry layer from depending
// on the settlement domain directly.
type SettlementMetricsProvider interface {
	// GetSettlementCountsByStatus returns the number of settlements per workflow status
	GetSettlementCountsByStatus(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter              metric.Meter
	Logger             *zap.Logger
	CollectInterval    time.Duration // Default: 5 minutes
	SettlementProvider SettlementMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:              cfg.Meter,
		logger:             logger,
		stopChan:           make(chan struct{}),
		settlementProvider: cfg.SettlementProvider,
	}

	var err error

	bm.settlementGeneratedTotal, err = NewCounter(
		cfg.Meter,
		"fleet_settlement_generated_total",
		"Total number of settlements generated",
		"{settlements}",
	)
	if err != nil {
		return nil, err
	}

	bm.settlementTransitionTotal, err = NewCounter(
		cfg.Meter,
		"fleet_settlement_transition_total",
		"Total number of settlement workflow transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	bm.settlementAmountTotal, err = NewCounter(
		cfg.Meter,
		"fleet_settlement_liquid_amount_total",
		"Total settled liquid amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.ledgerEntryTotal, err = NewCounter(
		cfg.Meter,
		"fleet_ledger_entry_total",
		"Total number of accrual ledger entries posted",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}

	bm.settlementStatusCount, err = NewGauge(
		cfg.Meter,
		"fleet_settlement_status_count",
		"Current number of settlements per workflow status",
		"{settlements}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordSettlementGenerated records a settlement generation event.
func (bm *BusinessMetrics) RecordSettlementGenerated(ctx context.Context, partnerID uuid.UUID, contractModel string) {
	bm.settlementGeneratedTotal.Inc(ctx,
		AttrPartnerID.String(partnerID.String()),
		AttrContractModel.String(contractModel),
	)
}

// RecordSettlementAmount records a settlement's liquid value. The amount is
// converted to cents so the counter stays integral.
func (bm *BusinessMetrics) RecordSettlementAmount(ctx context.Context, partnerID uuid.UUID, contractModel string, liquid decimal.Decimal) {
	cents := liquid.Mul(decimal.NewFromInt(100)).IntPart()
	bm.settlementAmountTotal.Add(ctx, cents,
		AttrPartnerID.String(partnerID.String()),
		AttrContractModel.String(contractModel),
	)
}

// RecordSettlementTransition records a workflow transition.
func (bm *BusinessMetrics) RecordSettlementTransition(ctx context.Context, from, to string) {
	bm.settlementTransitionTotal.Inc(ctx,
		AttrSettlementStatus.String(to),
	)
}

// RecordLedgerEntry records an accrual ledger posting.
func (bm *BusinessMetrics) RecordLedgerEntry(ctx context.Context, driverID uuid.UUID, entryType string) {
	bm.ledgerEntryTotal.Inc(ctx,
		AttrDriverID.String(driverID.String()),
		AttrLedgerEntryType.String(entryType),
	)
}

// RecordSettlementStatusCount records the current settlement count per status.
func (bm *BusinessMetrics) RecordSettlementStatusCount(ctx context.Context, status string, count int64) {
	bm.settlementStatusCount.Record(ctx, count,
		AttrSettlementStatus.String(status),
	)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// Non-blocking; use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectSettlementMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectSettlementMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectSettlementMetrics(ctx context.Context) {
	if bm.settlementProvider == nil {
		bm.logger.Debug("No settlement provider configured, skipping status metrics collection")
		return
	}

	counts, err := bm.settlementProvider.GetSettlementCountsByStatus(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get settlement counts by status", zap.Error(err))
		return
	}

	for status, count := range counts {
		bm.RecordSettlementStatusCount(ctx, status, count)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
