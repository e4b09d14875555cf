package settlement

import (
	"testing"
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func earningsRecord(t *testing.T, driverID uuid.UUID, platform Platform, gross, commission, net, tips float64) *EarningsRecord {
	t.Helper()
	r, err := NewEarningsRecord(platform, driverID, uuid.New(),
		calcDate(2025, 3, 3), calcDate(2025, 3, 10),
		decimal.NewFromFloat(gross), decimal.NewFromFloat(commission),
		decimal.NewFromFloat(net), decimal.NewFromFloat(tips))
	require.NoError(t, err)
	return r
}

func costRecord(t *testing.T, driverID uuid.UUID, category CostCategory, amount float64) *CostRecord {
	t.Helper()
	r, err := NewCostRecord(category, &driverID, nil,
		decimal.NewFromFloat(amount), calcDate(2025, 3, 5))
	require.NoError(t, err)
	return r
}

func TestBuildEarningsSummary(t *testing.T) {
	driverID := uuid.New()
	records := []*EarningsRecord{
		earningsRecord(t, driverID, PlatformUber, 600, 90, 510, 20),
		earningsRecord(t, driverID, PlatformBolt, 300, 45, 255, 5),
		earningsRecord(t, driverID, PlatformUber, 100, 15, 85, 0),
	}

	s := BuildEarningsSummary(driverID, calcDate(2025, 3, 3), calcDate(2025, 3, 10), records)

	assert.Equal(t, "1000", s.TotalGross.String())
	assert.Equal(t, "150", s.TotalCommission.String())
	assert.Equal(t, "850", s.TotalNet.String())
	assert.Equal(t, "25", s.TotalTips.String())

	require.Len(t, s.Lines, 2)
	// Lines come back in platform order.
	assert.Equal(t, PlatformBolt, s.Lines[0].Platform)
	assert.Equal(t, PlatformUber, s.Lines[1].Platform)
	assert.Equal(t, "700", s.Lines[1].GrossAmount.String())
	assert.Equal(t, "595", s.Lines[1].NetAmount.String())
}

func TestBuildEarningsSummary_Empty(t *testing.T) {
	s := BuildEarningsSummary(uuid.New(), calcDate(2025, 3, 3), calcDate(2025, 3, 10), nil)
	assert.True(t, s.TotalGross.IsZero())
	assert.Empty(t, s.Lines)
}

func TestPartitionCosts_TollAccrual(t *testing.T) {
	driverID := uuid.New()
	cfg, err := fleet.NewDriverFinancialConfig(driverID)
	require.NoError(t, err)
	cfg.TollAccumulation = true

	toll := costRecord(t, driverID, CostCategoryToll, 12.50)
	require.NoError(t, toll.MarkAccrualEligible("uber"))
	fuel := costRecord(t, driverID, CostCategoryFuel, 50)
	plainToll := costRecord(t, driverID, CostCategoryToll, 4)

	s := PartitionCosts(driverID, calcDate(2025, 3, 3), calcDate(2025, 3, 10),
		[]*CostRecord{toll, fuel, plainToll}, cfg)

	assert.Equal(t, "12.5", s.DeferredTotal.String())
	assert.Equal(t, "54", s.ImmediateTotal.String())
	require.Len(t, s.Deferred, 1)
	require.Len(t, s.Immediate, 2)
	assert.Equal(t, "50", s.ImmediateByCategory[CostCategoryFuel].String())
	assert.Equal(t, "4", s.ImmediateByCategory[CostCategoryToll].String())
}

func TestPartitionCosts_AccumulationDisabled(t *testing.T) {
	driverID := uuid.New()
	cfg, err := fleet.NewDriverFinancialConfig(driverID)
	require.NoError(t, err)

	toll := costRecord(t, driverID, CostCategoryToll, 12.50)
	require.NoError(t, toll.MarkAccrualEligible("uber"))

	s := PartitionCosts(driverID, calcDate(2025, 3, 3), calcDate(2025, 3, 10),
		[]*CostRecord{toll}, cfg)

	assert.True(t, s.DeferredTotal.IsZero())
	assert.Equal(t, "12.5", s.ImmediateTotal.String())
}

func TestPartitionCosts_PlatformScope(t *testing.T) {
	driverID := uuid.New()
	cfg, err := fleet.NewDriverFinancialConfig(driverID)
	require.NoError(t, err)
	cfg.TollAccumulation = true
	cfg.TollPlatforms = []string{"bolt"}

	uberToll := costRecord(t, driverID, CostCategoryToll, 10)
	require.NoError(t, uberToll.MarkAccrualEligible("uber"))
	boltToll := costRecord(t, driverID, CostCategoryToll, 6)
	require.NoError(t, boltToll.MarkAccrualEligible("bolt"))

	s := PartitionCosts(driverID, calcDate(2025, 3, 3), calcDate(2025, 3, 10),
		[]*CostRecord{uberToll, boltToll}, cfg)

	assert.Equal(t, "6", s.DeferredTotal.String())
	assert.Equal(t, "10", s.ImmediateTotal.String())
}

func TestNewCostRecord_Validation(t *testing.T) {
	driverID := uuid.New()

	_, err := NewCostRecord(CostCategoryFuel, nil, nil, decimal.NewFromInt(10), calcDate(2025, 3, 5))
	require.Error(t, err)

	_, err = NewCostRecord(CostCategoryFuel, &driverID, nil, decimal.Zero, calcDate(2025, 3, 5))
	require.Error(t, err)

	_, err = NewCostRecord(CostCategoryFuel, &driverID, nil, decimal.NewFromInt(10), time.Time{})
	require.Error(t, err)
}

func TestCostRecord_AccrualOnlyForTolls(t *testing.T) {
	driverID := uuid.New()
	fuel := costRecord(t, driverID, CostCategoryFuel, 50)

	err := fuel.MarkAccrualEligible("uber")
	require.Error(t, err)
	assert.False(t, fuel.AccrualEligible)
}
