// Package reporting provides profitability roll-ups over settled periods.
package reporting

import (
	"context"
	"fmt"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/fleetops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VehicleROI is the profitability of one vehicle over a period. Revenue is
// the total gross earnings settled on the vehicle in the window; costs are
// all vehicle-scoped cost records in the period. ROIPercent is nil when
// costs are zero, because the ratio is undefined, not infinite.
type VehicleROI struct {
	VehicleID  uuid.UUID
	Period     valueobject.Period
	Revenue    decimal.Decimal
	Costs      decimal.Decimal
	Profit     decimal.Decimal
	ROIPercent *decimal.Decimal
}

// PartnerSummary aggregates vehicle profitability for one partner company,
// plus the liquid value, earnings and deduction sums across the partner's
// settlements in the period and their counts per workflow status.
type PartnerSummary struct {
	PartnerID           uuid.UUID
	Period              valueobject.Period
	Vehicles            []VehicleROI
	TotalRevenue        decimal.Decimal
	TotalCosts          decimal.Decimal
	TotalProfit         decimal.Decimal
	TotalLiquid         decimal.Decimal
	TotalEarnings       decimal.Decimal
	TotalDeductions     decimal.Decimal
	SettlementsByStatus map[settlement.Status]int
}

// FleetRollup aggregates every partner's summary for a period
type FleetRollup struct {
	Period       valueobject.Period
	Partners     []PartnerSummary
	TotalRevenue decimal.Decimal
	TotalCosts   decimal.Decimal
	TotalProfit  decimal.Decimal
}

// Service computes profitability reports from settlements and cost records
type Service struct {
	settlementRepo settlement.Repository
	costRepo       settlement.CostRecordRepository
	vehicleRepo    fleet.VehicleRepository
	partnerRepo    fleet.PartnerRepository
	logger         *zap.Logger
}

// NewService creates a reporting service
func NewService(
	settlementRepo settlement.Repository,
	costRepo settlement.CostRecordRepository,
	vehicleRepo fleet.VehicleRepository,
	partnerRepo fleet.PartnerRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settlementRepo: settlementRepo,
		costRepo:       costRepo,
		vehicleRepo:    vehicleRepo,
		partnerRepo:    partnerRepo,
		logger:         logger,
	}
}

// VehicleROI computes one vehicle's profitability for a period
func (s *Service) VehicleROI(ctx context.Context, vehicleID uuid.UUID, period valueobject.Period) (*VehicleROI, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "vehicle_roi")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrVehicleID, vehicleID.String(),
		telemetry.SpanAttrPeriodStart, period.Start().Format("2006-01-02"),
		telemetry.SpanAttrPeriodEnd, period.End().Format("2006-01-02"),
	)

	roi, err := s.vehicleROI(ctx, vehicleID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return roi, nil
}

func (s *Service) vehicleROI(ctx context.Context, vehicleID uuid.UUID, period valueobject.Period) (*VehicleROI, error) {
	start, end := period.Start(), period.End()

	filter := settlement.ListFilter{
		VehicleID:   &vehicleID,
		PeriodStart: &start,
		PeriodEnd:   &end,
		Limit:       -1,
	}
	page, err := s.settlementRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlements for vehicle: %w", err)
	}

	revenue := decimal.Zero
	for _, stl := range page.Items {
		revenue = revenue.Add(stl.Breakdown.TotalGross)
	}

	costRecords, err := s.costRepo.FindForVehicle(ctx, vehicleID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle costs: %w", err)
	}
	costs := decimal.Zero
	for _, rec := range costRecords {
		costs = costs.Add(rec.Amount)
	}

	profit := revenue.Sub(costs)
	roi := &VehicleROI{
		VehicleID: vehicleID,
		Period:    period,
		Revenue:   revenue.Round(2),
		Costs:     costs.Round(2),
		Profit:    profit.Round(2),
	}
	if costs.IsPositive() {
		pct := profit.Div(costs).Mul(decimal.NewFromInt(100)).Round(2)
		roi.ROIPercent = &pct
	}
	return roi, nil
}

// PartnerSummary computes per-vehicle profitability for one partner
func (s *Service) PartnerSummary(ctx context.Context, partnerID uuid.UUID, period valueobject.Period) (*PartnerSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "partner_summary")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPartnerID, partnerID.String())

	summary, err := s.partnerSummary(ctx, partnerID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return summary, nil
}

func (s *Service) partnerSummary(ctx context.Context, partnerID uuid.UUID, period valueobject.Period) (*PartnerSummary, error) {
	vehicles, err := s.vehicleRepo.FindByPartner(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load partner vehicles: %w", err)
	}

	summary := &PartnerSummary{
		PartnerID:           partnerID,
		Period:              period,
		TotalRevenue:        decimal.Zero,
		TotalCosts:          decimal.Zero,
		TotalProfit:         decimal.Zero,
		TotalLiquid:         decimal.Zero,
		TotalEarnings:       decimal.Zero,
		TotalDeductions:     decimal.Zero,
		SettlementsByStatus: make(map[settlement.Status]int),
	}

	for _, vehicle := range vehicles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		roi, err := s.vehicleROI(ctx, vehicle.ID, period)
		if err != nil {
			return nil, err
		}
		summary.Vehicles = append(summary.Vehicles, *roi)
		summary.TotalRevenue = summary.TotalRevenue.Add(roi.Revenue)
		summary.TotalCosts = summary.TotalCosts.Add(roi.Costs)
		summary.TotalProfit = summary.TotalProfit.Add(roi.Profit)
	}

	start, end := period.Start(), period.End()
	page, err := s.settlementRepo.List(ctx, settlement.ListFilter{
		PartnerID:   &partnerID,
		PeriodStart: &start,
		PeriodEnd:   &end,
		Limit:       -1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load partner settlements: %w", err)
	}
	for _, stl := range page.Items {
		summary.TotalLiquid = summary.TotalLiquid.Add(stl.Breakdown.LiquidValue)
		summary.TotalEarnings = summary.TotalEarnings.Add(stl.Breakdown.TotalGross)
		summary.TotalDeductions = summary.TotalDeductions.Add(stl.Breakdown.TotalDeductions)
		summary.SettlementsByStatus[stl.Status]++
	}
	return summary, nil
}

// FleetRollup aggregates every partner's profitability for a period. The
// rollup walks all partners and vehicles; it honors context cancellation
// between partners so a slow report can be abandoned.
func (s *Service) FleetRollup(ctx context.Context, period valueobject.Period) (*FleetRollup, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "fleet_rollup")
	defer span.End()

	partners, err := s.partnerRepo.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load partners: %w", err)
	}

	rollup := &FleetRollup{
		Period:       period,
		TotalRevenue: decimal.Zero,
		TotalCosts:   decimal.Zero,
		TotalProfit:  decimal.Zero,
	}

	for _, partner := range partners {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		summary, err := s.partnerSummary(ctx, partner.ID, period)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		rollup.Partners = append(rollup.Partners, *summary)
		rollup.TotalRevenue = rollup.TotalRevenue.Add(summary.TotalRevenue)
		rollup.TotalCosts = rollup.TotalCosts.Add(summary.TotalCosts)
		rollup.TotalProfit = rollup.TotalProfit.Add(summary.TotalProfit)
	}

	s.logger.Info("Computed fleet rollup",
		zap.String("period", period.Key()),
		zap.Int("partners", len(rollup.Partners)),
		zap.String("total_profit", rollup.TotalProfit.String()),
	)
	return rollup, nil
}
