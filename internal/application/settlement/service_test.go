package settlement

import (
	"context"
	"sync"
	"testing"
	"time"

	ledgerapp "github.com/fleetops/backend/internal/application/ledger"
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/fleetops/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSettlementRepository is a mock implementation of settlement.Repository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindByKey(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart time.Time) (*settlement.Settlement, error) {
	args := m.Called(ctx, driverID, vehicleID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) List(ctx context.Context, filter settlement.ListFilter) (*shared.Paginated[*settlement.Settlement], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*settlement.Settlement]), args.Error(1)
}

func (m *MockSettlementRepository) FindByPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*settlement.Settlement, error) {
	args := m.Called(ctx, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) CountByStatus(ctx context.Context) (map[settlement.Status]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[settlement.Status]int64), args.Error(1)
}

func (m *MockSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockContractRepository is a mock implementation of fleet.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.Contract), args.Error(1)
}

func (m *MockContractRepository) FindActive(ctx context.Context, vehicleID, driverID uuid.UUID, at time.Time) (*fleet.Contract, error) {
	args := m.Called(ctx, vehicleID, driverID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.Contract), args.Error(1)
}

func (m *MockContractRepository) FindOpen(ctx context.Context, vehicleID, driverID uuid.UUID) (*fleet.Contract, error) {
	args := m.Called(ctx, vehicleID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByDriver(ctx context.Context, driverID uuid.UUID) ([]fleet.Contract, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fleet.Contract), args.Error(1)
}

func (m *MockContractRepository) Save(ctx context.Context, contract *fleet.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

// MockFinancialConfigRepository is a mock implementation of fleet.FinancialConfigRepository
type MockFinancialConfigRepository struct {
	mock.Mock
}

func (m *MockFinancialConfigRepository) FindLatest(ctx context.Context, driverID uuid.UUID) (*fleet.DriverFinancialConfig, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.DriverFinancialConfig), args.Error(1)
}

func (m *MockFinancialConfigRepository) FindVersion(ctx context.Context, driverID uuid.UUID, version int) (*fleet.DriverFinancialConfig, error) {
	args := m.Called(ctx, driverID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fleet.DriverFinancialConfig), args.Error(1)
}

func (m *MockFinancialConfigRepository) Save(ctx context.Context, cfg *fleet.DriverFinancialConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockEarningsRecordRepository is a mock implementation of settlement.EarningsRecordRepository
type MockEarningsRecordRepository struct {
	mock.Mock
}

func (m *MockEarningsRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.EarningsRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.EarningsRecord), args.Error(1)
}

func (m *MockEarningsRecordRepository) FindForDriver(ctx context.Context, driverID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.EarningsRecord, error) {
	args := m.Called(ctx, driverID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.EarningsRecord), args.Error(1)
}

func (m *MockEarningsRecordRepository) Save(ctx context.Context, r *settlement.EarningsRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockCostRecordRepository is a mock implementation of settlement.CostRecordRepository
type MockCostRecordRepository struct {
	mock.Mock
}

func (m *MockCostRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.CostRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.CostRecord), args.Error(1)
}

func (m *MockCostRecordRepository) FindForVehicle(ctx context.Context, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.CostRecord, error) {
	args := m.Called(ctx, vehicleID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.CostRecord), args.Error(1)
}

func (m *MockCostRecordRepository) FindForSettlement(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.CostRecord, error) {
	args := m.Called(ctx, driverID, vehicleID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.CostRecord), args.Error(1)
}

func (m *MockCostRecordRepository) Save(ctx context.Context, r *settlement.CostRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// fakeLedgerRepo backs the ledger service with real in-memory state
type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []*ledger.Entry
}

func (f *fakeLedgerRepo) Append(_ context.Context, entry *ledger.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedgerRepo) Balance(_ context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance := decimal.Zero
	for _, e := range f.entries {
		if e.DriverID == driverID {
			balance = balance.Add(e.SignedAmount())
		}
	}
	return balance, nil
}

func (f *fakeLedgerRepo) HasCreditForSource(_ context.Context, driverID, costRecordID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.DriverID == driverID && e.Type == ledger.EntryTypeCredit && e.SourceID == costRecordID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerRepo) FindByDriver(_ context.Context, driverID uuid.UUID, _ valueobject.Period) ([]ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Entry
	for _, e := range f.entries {
		if e.DriverID == driverID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type serviceFixture struct {
	svc            *Service
	settlementRepo *MockSettlementRepository
	contractRepo   *MockContractRepository
	configRepo     *MockFinancialConfigRepository
	earningsRepo   *MockEarningsRecordRepository
	costRepo       *MockCostRecordRepository
	ledgerRepo     *fakeLedgerRepo
	ledgerSvc      *ledgerapp.Service
	lock           *cache.InMemoryGenerationLock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		settlementRepo: new(MockSettlementRepository),
		contractRepo:   new(MockContractRepository),
		configRepo:     new(MockFinancialConfigRepository),
		earningsRepo:   new(MockEarningsRecordRepository),
		costRepo:       new(MockCostRecordRepository),
		ledgerRepo:     &fakeLedgerRepo{},
		lock:           cache.NewInMemoryGenerationLock(),
	}
	t.Cleanup(func() { f.lock.Close() })

	f.ledgerSvc = ledgerapp.NewService(f.ledgerRepo)
	resolver := fleet.NewContractResolver(f.contractRepo)
	earnings := NewEarningsAggregator(f.earningsRepo)
	costs := NewCostAggregator(f.costRepo, f.ledgerSvc, zap.NewNop())

	f.svc = NewService(
		f.settlementRepo, f.configRepo, resolver,
		earnings, costs, f.ledgerSvc,
		f.lock, nil, zap.NewNop(),
	)
	return f
}

func testPeriod() valueobject.Period {
	return valueobject.MustPeriod(
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	)
}

func testCommissionContract(t *testing.T, vehicleID, driverID uuid.UUID) *fleet.Contract {
	t.Helper()
	c, err := fleet.NewCommissionContract(
		vehicleID, driverID, uuid.New(),
		fleet.CommissionTerms{DriverPct: decimal.NewFromInt(75), PartnerPct: decimal.NewFromInt(25)},
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return c
}

func testEarningsRecord(t *testing.T, driverID, vehicleID uuid.UUID, gross, commission, net, tips float64) *settlement.EarningsRecord {
	t.Helper()
	period := testPeriod()
	r, err := settlement.NewEarningsRecord(settlement.PlatformUber, driverID, vehicleID,
		period.Start(), period.End(),
		decimal.NewFromFloat(gross), decimal.NewFromFloat(commission),
		decimal.NewFromFloat(net), decimal.NewFromFloat(tips))
	require.NoError(t, err)
	return r
}

func TestCompute_GeneratesSettlement(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()
	contract := testCommissionContract(t, vehicleID, driverID)
	cfg, err := fleet.NewDriverFinancialConfig(driverID)
	require.NoError(t, err)
	cfg.VATIncluded = true
	cfg.VATPercent = decimal.NewFromInt(23)

	f.contractRepo.On("FindActive", mock.Anything, vehicleID, driverID, period.End()).Return(contract, nil)
	f.configRepo.On("FindLatest", mock.Anything, driverID).Return(cfg, nil)
	f.earningsRepo.On("FindForDriver", mock.Anything, driverID, period.Start(), period.End()).
		Return([]*settlement.EarningsRecord{testEarningsRecord(t, driverID, vehicleID, 1000, 0, 1000, 0)}, nil)

	fuel, err := settlement.NewCostRecord(settlement.CostCategoryFuel, &driverID, nil,
		decimal.NewFromInt(50), period.Start().Add(24*time.Hour))
	require.NoError(t, err)
	maintenance, err := settlement.NewCostRecord(settlement.CostCategoryMaintenance, nil, &vehicleID,
		decimal.NewFromInt(30), period.Start().Add(48*time.Hour))
	require.NoError(t, err)
	f.costRepo.On("FindForSettlement", mock.Anything, driverID, vehicleID, period.Start(), period.End()).
		Return([]*settlement.CostRecord{fuel, maintenance}, nil)

	f.settlementRepo.On("FindByKey", mock.Anything, driverID, vehicleID, period.Start()).
		Return(nil, shared.ErrNotFound)
	f.settlementRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	stl, err := f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: period,
	})
	require.NoError(t, err)

	assert.Equal(t, settlement.StatusPendingReceipt, stl.Status)
	assert.Equal(t, contract.PartnerID, stl.PartnerID)
	assert.Equal(t, 1, stl.ConfigVersion)
	assert.Equal(t, "813.01", stl.Breakdown.CommissionBase.StringFixed(2))
	assert.Equal(t, "609.76", stl.Breakdown.DriverShare.StringFixed(2))
	// Vehicle-scoped maintenance deducts alongside the driver's own fuel.
	assert.Equal(t, "80.00", stl.Breakdown.ImmediateCosts.StringFixed(2))
	assert.Equal(t, "529.76", stl.Breakdown.LiquidValue.StringFixed(2))
	f.settlementRepo.AssertExpectations(t)
	f.contractRepo.AssertExpectations(t)
}

func TestCompute_RecomputesPendingInPlace(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()
	contract := testCommissionContract(t, vehicleID, driverID)

	existing, err := settlement.NewSettlement(driverID, vehicleID, contract.PartnerID,
		period.Start(), period.End(), contract, 1)
	require.NoError(t, err)

	f.contractRepo.On("FindActive", mock.Anything, vehicleID, driverID, period.End()).Return(contract, nil)
	f.configRepo.On("FindLatest", mock.Anything, driverID).Return(nil, shared.ErrNotFound)
	f.earningsRepo.On("FindForDriver", mock.Anything, driverID, period.Start(), period.End()).
		Return([]*settlement.EarningsRecord{testEarningsRecord(t, driverID, vehicleID, 400, 0, 400, 0)}, nil)
	f.costRepo.On("FindForSettlement", mock.Anything, driverID, vehicleID, period.Start(), period.End()).
		Return([]*settlement.CostRecord{}, nil)
	f.settlementRepo.On("FindByKey", mock.Anything, driverID, vehicleID, period.Start()).
		Return(existing, nil)
	f.settlementRepo.On("Save", mock.Anything, existing).Return(nil)

	stl, err := f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: period,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, stl.ID)
	assert.Equal(t, "300.00", stl.Breakdown.DriverShare.StringFixed(2))
}

func TestCompute_LockedAfterSubmission(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()
	contract := testCommissionContract(t, vehicleID, driverID)

	existing, err := settlement.NewSettlement(driverID, vehicleID, contract.PartnerID,
		period.Start(), period.End(), contract, 1)
	require.NoError(t, err)
	require.NoError(t, existing.SubmitReceipt(uuid.New(), "receipt.pdf"))

	f.contractRepo.On("FindActive", mock.Anything, vehicleID, driverID, period.End()).Return(contract, nil)
	f.configRepo.On("FindLatest", mock.Anything, driverID).Return(nil, shared.ErrNotFound)
	f.earningsRepo.On("FindForDriver", mock.Anything, driverID, period.Start(), period.End()).
		Return([]*settlement.EarningsRecord{}, nil)
	f.costRepo.On("FindForSettlement", mock.Anything, driverID, vehicleID, period.Start(), period.End()).
		Return([]*settlement.CostRecord{}, nil)
	f.settlementRepo.On("FindByKey", mock.Anything, driverID, vehicleID, period.Start()).
		Return(existing, nil)

	_, err = f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: period,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SETTLEMENT_LOCKED")
	f.settlementRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCompute_NoActiveContract(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()

	f.contractRepo.On("FindActive", mock.Anything, vehicleID, driverID, period.End()).
		Return(nil, shared.ErrNotFound)

	_, err := f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: period,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_ACTIVE_CONTRACT")
}

func TestCompute_GenerationLockContention(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()

	key := driverID.String() + ":" + vehicleID.String() + ":" + period.Key()
	held, err := f.lock.Acquire(context.Background(), key, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: period,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENERATION_IN_PROGRESS")
}

func TestCompute_DeferredTollsCreditLedger(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()
	contract := testCommissionContract(t, vehicleID, driverID)

	cfg, err := fleet.NewDriverFinancialConfig(driverID)
	require.NoError(t, err)
	cfg.TollAccumulation = true

	toll, err := settlement.NewCostRecord(settlement.CostCategoryToll, &driverID, nil,
		decimal.NewFromFloat(12.50), period.Start().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, toll.MarkAccrualEligible("uber"))

	f.contractRepo.On("FindActive", mock.Anything, vehicleID, driverID, period.End()).Return(contract, nil)
	f.configRepo.On("FindLatest", mock.Anything, driverID).Return(cfg, nil)
	f.earningsRepo.On("FindForDriver", mock.Anything, driverID, period.Start(), period.End()).
		Return([]*settlement.EarningsRecord{testEarningsRecord(t, driverID, vehicleID, 1000, 0, 1000, 0)}, nil)
	f.costRepo.On("FindForSettlement", mock.Anything, driverID, vehicleID, period.Start(), period.End()).
		Return([]*settlement.CostRecord{toll}, nil)
	f.settlementRepo.On("FindByKey", mock.Anything, driverID, vehicleID, period.Start()).
		Return(nil, shared.ErrNotFound)
	f.settlementRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	stl, err := f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: period,
	})
	require.NoError(t, err)

	// The deferred toll is credited but not recovered: without an explicit
	// debit request the accrued balance stays on the ledger.
	assert.Equal(t, "0.00", stl.Breakdown.LedgerDebit.StringFixed(2))
	assert.Equal(t, "0.00", stl.Breakdown.ImmediateCosts.StringFixed(2))

	balance, err := f.ledgerSvc.Balance(context.Background(), driverID)
	require.NoError(t, err)
	assert.Equal(t, "12.5", balance.String())
}

func computeFixtureWithAccruedBalance(t *testing.T, f *serviceFixture, driverID, vehicleID uuid.UUID, accrued int64) {
	t.Helper()
	period := testPeriod()
	contract := testCommissionContract(t, vehicleID, driverID)

	_, err := f.ledgerSvc.Credit(context.Background(), driverID, decimal.NewFromInt(accrued), uuid.New())
	require.NoError(t, err)

	f.contractRepo.On("FindActive", mock.Anything, vehicleID, driverID, period.End()).Return(contract, nil)
	f.configRepo.On("FindLatest", mock.Anything, driverID).Return(nil, shared.ErrNotFound)
	f.earningsRepo.On("FindForDriver", mock.Anything, driverID, period.Start(), period.End()).
		Return([]*settlement.EarningsRecord{testEarningsRecord(t, driverID, vehicleID, 1000, 0, 1000, 0)}, nil)
	f.costRepo.On("FindForSettlement", mock.Anything, driverID, vehicleID, period.Start(), period.End()).
		Return([]*settlement.CostRecord{}, nil)
	f.settlementRepo.On("FindByKey", mock.Anything, driverID, vehicleID, period.Start()).
		Return(nil, shared.ErrNotFound)
}

func TestCompute_ExplicitLedgerDebitRequest(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	computeFixtureWithAccruedBalance(t, f, driverID, vehicleID, 15)
	f.settlementRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	stl, err := f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: testPeriod(),
		LedgerDebit: decimal.NewFromInt(15),
	})
	require.NoError(t, err)

	assert.Equal(t, "15.00", stl.Breakdown.LedgerDebit.StringFixed(2))
	assert.Equal(t, "15.00", stl.Breakdown.TotalDeductions.StringFixed(2))

	balance, err := f.ledgerSvc.Balance(context.Background(), driverID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	// The debit entry references the settlement it was recovered on.
	entries, err := f.ledgerRepo.FindByDriver(context.Background(), driverID, testPeriod())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.EntryTypeDebit, entries[1].Type)
	assert.Equal(t, stl.ID, entries[1].SourceID)
}

func TestCompute_LedgerDebitExceedsBalance(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	computeFixtureWithAccruedBalance(t, f, driverID, vehicleID, 15)

	_, err := f.svc.Compute(context.Background(), ComputeRequest{
		DriverID: driverID, VehicleID: vehicleID, Period: testPeriod(),
		LedgerDebit: decimal.NewFromInt(16),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_LEDGER_BALANCE")
	f.settlementRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	// The balance is untouched; nothing partial was posted.
	balance, err := f.ledgerSvc.Balance(context.Background(), driverID)
	require.NoError(t, err)
	assert.Equal(t, "15", balance.String())
}

func TestMarkPaid_DoesNotTouchLedger(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()
	contract := testCommissionContract(t, vehicleID, driverID)
	actor := uuid.New()

	stl, err := settlement.NewSettlement(driverID, vehicleID, contract.PartnerID,
		period.Start(), period.End(), contract, 1)
	require.NoError(t, err)
	require.NoError(t, stl.ApplyBreakdown(nil, settlement.Breakdown{
		LedgerDebit: decimal.NewFromInt(50),
	}))
	require.NoError(t, stl.SubmitReceipt(actor, "r"))
	require.NoError(t, stl.Approve(actor))

	f.settlementRepo.On("FindByID", mock.Anything, stl.ID).Return(stl, nil)
	f.settlementRepo.On("Save", mock.Anything, stl).Return(nil)

	// Any requested debit posted at computation time; paying the settlement
	// must not post it again.
	paid, err := f.svc.MarkPaid(context.Background(), stl.ID, actor, "transfer-1")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusPaid, paid.Status)

	entries, err := f.ledgerRepo.FindByDriver(context.Background(), driverID, period)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransitions_FullWorkflow(t *testing.T) {
	f := newServiceFixture(t)
	driverID, vehicleID := uuid.New(), uuid.New()
	period := testPeriod()
	contract := testCommissionContract(t, vehicleID, driverID)
	actor := uuid.New()

	stl, err := settlement.NewSettlement(driverID, vehicleID, contract.PartnerID,
		period.Start(), period.End(), contract, 1)
	require.NoError(t, err)

	f.settlementRepo.On("FindByID", mock.Anything, stl.ID).Return(stl, nil)
	f.settlementRepo.On("Save", mock.Anything, stl).Return(nil)

	_, err = f.svc.SubmitReceipt(context.Background(), stl.ID, actor, "receipt.pdf")
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), stl.ID, actor, "receipt unreadable")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusRejected, stl.Status)

	_, err = f.svc.Reopen(context.Background(), stl.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusPendingReceipt, stl.Status)

	_, err = f.svc.SubmitReceipt(context.Background(), stl.ID, actor, "receipt-v2.pdf")
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), stl.ID, actor)
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), stl.ID, actor, "transfer-2")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusPaid, stl.Status)
}
