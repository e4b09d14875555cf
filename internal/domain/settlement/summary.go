package settlement

import (
	"sort"
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformEarnings is one per-platform line of an earnings summary
type PlatformEarnings struct {
	Platform           Platform
	GrossAmount        decimal.Decimal
	PlatformCommission decimal.Decimal
	NetAmount          decimal.Decimal
	TipAmount          decimal.Decimal
}

// EarningsSummary aggregates a driver's earnings records for a period,
// grouped by platform, plus cross-platform totals
type EarningsSummary struct {
	DriverID        uuid.UUID
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Lines           []PlatformEarnings
	TotalGross      decimal.Decimal
	TotalCommission decimal.Decimal
	TotalNet        decimal.Decimal
	TotalTips       decimal.Decimal
}

// BuildEarningsSummary groups earnings records by platform and sums totals.
// The caller is responsible for passing only records inside the period.
func BuildEarningsSummary(driverID uuid.UUID, periodStart, periodEnd time.Time, records []*EarningsRecord) EarningsSummary {
	byPlatform := make(map[Platform]*PlatformEarnings)
	summary := EarningsSummary{
		DriverID:        driverID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		TotalGross:      decimal.Zero,
		TotalCommission: decimal.Zero,
		TotalNet:        decimal.Zero,
		TotalTips:       decimal.Zero,
	}

	for _, rec := range records {
		line, ok := byPlatform[rec.Platform]
		if !ok {
			line = &PlatformEarnings{
				Platform:           rec.Platform,
				GrossAmount:        decimal.Zero,
				PlatformCommission: decimal.Zero,
				NetAmount:          decimal.Zero,
				TipAmount:          decimal.Zero,
			}
			byPlatform[rec.Platform] = line
		}
		line.GrossAmount = line.GrossAmount.Add(rec.GrossAmount)
		line.PlatformCommission = line.PlatformCommission.Add(rec.PlatformCommission)
		line.NetAmount = line.NetAmount.Add(rec.NetAmount)
		line.TipAmount = line.TipAmount.Add(rec.TipAmount)

		summary.TotalGross = summary.TotalGross.Add(rec.GrossAmount)
		summary.TotalCommission = summary.TotalCommission.Add(rec.PlatformCommission)
		summary.TotalNet = summary.TotalNet.Add(rec.NetAmount)
		summary.TotalTips = summary.TotalTips.Add(rec.TipAmount)
	}

	platforms := make([]Platform, 0, len(byPlatform))
	for p := range byPlatform {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	for _, p := range platforms {
		summary.Lines = append(summary.Lines, *byPlatform[p])
	}
	return summary
}

// CostSummary partitions a driver's costs for a period into those deducted
// immediately on the settlement and those deferred to the accrual ledger
type CostSummary struct {
	DriverID            uuid.UUID
	PeriodStart         time.Time
	PeriodEnd           time.Time
	Immediate           []*CostRecord
	Deferred            []*CostRecord
	ImmediateByCategory map[CostCategory]decimal.Decimal
	ImmediateTotal      decimal.Decimal
	DeferredTotal       decimal.Decimal
}

// PartitionCosts splits cost records per the driver's financial config.
// A toll cost defers only when it is accrual-eligible, the driver has toll
// accumulation enabled, and the toll's platform is in the config's scope.
// Everything else is an immediate deduction.
func PartitionCosts(driverID uuid.UUID, periodStart, periodEnd time.Time, records []*CostRecord, config *fleet.DriverFinancialConfig) CostSummary {
	summary := CostSummary{
		DriverID:            driverID,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		ImmediateByCategory: make(map[CostCategory]decimal.Decimal),
		ImmediateTotal:      decimal.Zero,
		DeferredTotal:       decimal.Zero,
	}

	for _, rec := range records {
		defers := rec.Category == CostCategoryToll &&
			rec.AccrualEligible &&
			config != nil &&
			config.TollAccumulation &&
			config.TollPlatformInScope(rec.Platform)

		if defers {
			summary.Deferred = append(summary.Deferred, rec)
			summary.DeferredTotal = summary.DeferredTotal.Add(rec.Amount)
			continue
		}
		summary.Immediate = append(summary.Immediate, rec)
		summary.ImmediateTotal = summary.ImmediateTotal.Add(rec.Amount)
		current, ok := summary.ImmediateByCategory[rec.Category]
		if !ok {
			current = decimal.Zero
		}
		summary.ImmediateByCategory[rec.Category] = current.Add(rec.Amount)
	}
	return summary
}
