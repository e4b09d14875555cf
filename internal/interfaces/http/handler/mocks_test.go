package handler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/fleetops/backend/internal/domain/settlement"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Mock repositories shared by the handler tests. Each one keeps its data
// in memory and fails every call once returnErr is set.

type mockSettlementRepository struct {
	settlements map[uuid.UUID]*settlement.Settlement
	returnErr   error
}

func newMockSettlementRepository() *mockSettlementRepository {
	return &mockSettlementRepository{
		settlements: make(map[uuid.UUID]*settlement.Settlement),
	}
}

func (m *mockSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if stl, ok := m.settlements[id]; ok {
		return stl, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockSettlementRepository) FindByKey(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart time.Time) (*settlement.Settlement, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, stl := range m.settlements {
		if stl.DriverID == driverID && stl.VehicleID == vehicleID &&
			stl.PeriodStart.Equal(periodStart) {
			return stl, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockSettlementRepository) List(ctx context.Context, filter settlement.ListFilter) (*shared.Paginated[*settlement.Settlement], error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var matched []*settlement.Settlement
	for _, stl := range m.settlements {
		if filter.DriverID != nil && stl.DriverID != *filter.DriverID {
			continue
		}
		if filter.VehicleID != nil && stl.VehicleID != *filter.VehicleID {
			continue
		}
		if filter.PartnerID != nil && stl.PartnerID != *filter.PartnerID {
			continue
		}
		if filter.Status != nil && stl.Status != *filter.Status {
			continue
		}
		if filter.PeriodStart != nil && stl.PeriodStart.Before(*filter.PeriodStart) {
			continue
		}
		if filter.PeriodEnd != nil && stl.PeriodEnd.After(*filter.PeriodEnd) {
			continue
		}
		matched = append(matched, stl)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PeriodStart.Equal(matched[j].PeriodStart) {
			return matched[i].PeriodStart.Before(matched[j].PeriodStart)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	if filter.Limit <= 0 {
		return &shared.Paginated[*settlement.Settlement]{
			Items:      matched,
			Total:      total,
			Page:       1,
			PageSize:   len(matched),
			TotalPages: 1,
		}, nil
	}

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page := filter.Offset/filter.Limit + 1
	result := shared.NewPaginated(matched[start:end], total, page, filter.Limit)
	return &result, nil
}

func (m *mockSettlementRepository) FindByPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*settlement.Settlement, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []*settlement.Settlement
	for _, stl := range m.settlements {
		if stl.PeriodStart.Equal(periodStart) && stl.PeriodEnd.Equal(periodEnd) {
			result = append(result, stl)
		}
	}
	return result, nil
}

func (m *mockSettlementRepository) CountByStatus(ctx context.Context) (map[settlement.Status]int64, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	counts := make(map[settlement.Status]int64)
	for _, stl := range m.settlements {
		counts[stl.Status]++
	}
	return counts, nil
}

func (m *mockSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.settlements[s.ID] = s
	return nil
}

type mockContractRepository struct {
	contracts map[uuid.UUID]*fleet.Contract
	returnErr error
}

func newMockContractRepository() *mockContractRepository {
	return &mockContractRepository{
		contracts: make(map[uuid.UUID]*fleet.Contract),
	}
}

func (m *mockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Contract, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if contract, ok := m.contracts[id]; ok {
		return contract, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockContractRepository) FindActive(ctx context.Context, vehicleID, driverID uuid.UUID, at time.Time) (*fleet.Contract, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, contract := range m.contracts {
		if contract.VehicleID == vehicleID && contract.DriverID == driverID && contract.ActiveOn(at) {
			return contract, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockContractRepository) FindOpen(ctx context.Context, vehicleID, driverID uuid.UUID) (*fleet.Contract, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, contract := range m.contracts {
		if contract.VehicleID == vehicleID && contract.DriverID == driverID && contract.EndDate == nil {
			return contract, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockContractRepository) FindByDriver(ctx context.Context, driverID uuid.UUID) ([]fleet.Contract, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fleet.Contract
	for _, contract := range m.contracts {
		if contract.DriverID == driverID {
			result = append(result, *contract)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.After(result[j].StartDate)
	})
	return result, nil
}

func (m *mockContractRepository) Save(ctx context.Context, contract *fleet.Contract) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.contracts[contract.ID] = contract
	return nil
}

type mockFinancialConfigRepository struct {
	configs   map[uuid.UUID][]*fleet.DriverFinancialConfig
	returnErr error
}

func newMockFinancialConfigRepository() *mockFinancialConfigRepository {
	return &mockFinancialConfigRepository{
		configs: make(map[uuid.UUID][]*fleet.DriverFinancialConfig),
	}
}

func (m *mockFinancialConfigRepository) FindLatest(ctx context.Context, driverID uuid.UUID) (*fleet.DriverFinancialConfig, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	versions := m.configs[driverID]
	if len(versions) == 0 {
		return nil, shared.ErrNotFound
	}
	latest := versions[0]
	for _, cfg := range versions[1:] {
		if cfg.ConfigVersion > latest.ConfigVersion {
			latest = cfg
		}
	}
	return latest, nil
}

func (m *mockFinancialConfigRepository) FindVersion(ctx context.Context, driverID uuid.UUID, version int) (*fleet.DriverFinancialConfig, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, cfg := range m.configs[driverID] {
		if cfg.ConfigVersion == version {
			return cfg, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockFinancialConfigRepository) Save(ctx context.Context, cfg *fleet.DriverFinancialConfig) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.configs[cfg.DriverID] = append(m.configs[cfg.DriverID], cfg)
	return nil
}

type mockEarningsRecordRepository struct {
	records   []*settlement.EarningsRecord
	returnErr error
}

func newMockEarningsRecordRepository() *mockEarningsRecordRepository {
	return &mockEarningsRecordRepository{}
}

func (m *mockEarningsRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.EarningsRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockEarningsRecordRepository) FindForDriver(ctx context.Context, driverID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.EarningsRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []*settlement.EarningsRecord
	for _, rec := range m.records {
		if rec.DriverID == driverID && !rec.PeriodStart.Before(periodStart) && !rec.PeriodEnd.After(periodEnd) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m *mockEarningsRecordRepository) Save(ctx context.Context, r *settlement.EarningsRecord) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.records = append(m.records, r)
	return nil
}

type mockCostRecordRepository struct {
	records   []*settlement.CostRecord
	returnErr error
}

func newMockCostRecordRepository() *mockCostRecordRepository {
	return &mockCostRecordRepository{}
}

func (m *mockCostRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.CostRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockCostRecordRepository) FindForVehicle(ctx context.Context, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.CostRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []*settlement.CostRecord
	for _, rec := range m.records {
		if rec.VehicleID != nil && *rec.VehicleID == vehicleID &&
			!rec.IncurredAt.Before(periodStart) && rec.IncurredAt.Before(periodEnd) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m *mockCostRecordRepository) FindForSettlement(ctx context.Context, driverID, vehicleID uuid.UUID, periodStart, periodEnd time.Time) ([]*settlement.CostRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []*settlement.CostRecord
	for _, rec := range m.records {
		if !rec.IncurredAt.Before(periodStart) && rec.IncurredAt.Before(periodEnd) {
			if rec.DriverID != nil && *rec.DriverID == driverID {
				result = append(result, rec)
			} else if rec.DriverID == nil && rec.VehicleID != nil && *rec.VehicleID == vehicleID {
				result = append(result, rec)
			}
		}
	}
	return result, nil
}

func (m *mockCostRecordRepository) Save(ctx context.Context, r *settlement.CostRecord) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.records = append(m.records, r)
	return nil
}

type mockLedgerRepository struct {
	mu        sync.Mutex
	entries   []*ledger.Entry
	returnErr error
}

func newMockLedgerRepository() *mockLedgerRepository {
	return &mockLedgerRepository{}
}

func (m *mockLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockLedgerRepository) Balance(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	if m.returnErr != nil {
		return decimal.Zero, m.returnErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := decimal.Zero
	for _, entry := range m.entries {
		if entry.DriverID == driverID {
			balance = balance.Add(entry.SignedAmount())
		}
	}
	return balance, nil
}

func (m *mockLedgerRepository) HasCreditForSource(ctx context.Context, driverID, costRecordID uuid.UUID) (bool, error) {
	if m.returnErr != nil {
		return false, m.returnErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.DriverID == driverID && entry.Type == ledger.EntryTypeCredit &&
			entry.SourceType == ledger.SourceTypeCostRecord && entry.SourceID == costRecordID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLedgerRepository) FindByDriver(ctx context.Context, driverID uuid.UUID, period valueobject.Period) ([]ledger.Entry, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []ledger.Entry
	for _, entry := range m.entries {
		if entry.DriverID == driverID && period.Contains(entry.OccurredAt) {
			result = append(result, *entry)
		}
	}
	return result, nil
}

type mockVehicleRepository struct {
	vehicles  map[uuid.UUID]*fleet.Vehicle
	returnErr error
}

func newMockVehicleRepository() *mockVehicleRepository {
	return &mockVehicleRepository{
		vehicles: make(map[uuid.UUID]*fleet.Vehicle),
	}
}

func (m *mockVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if vehicle, ok := m.vehicles[id]; ok {
		return vehicle, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockVehicleRepository) FindByPartner(ctx context.Context, partnerID uuid.UUID) ([]fleet.Vehicle, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fleet.Vehicle
	for _, vehicle := range m.vehicles {
		if vehicle.PartnerID == partnerID {
			result = append(result, *vehicle)
		}
	}
	return result, nil
}

type mockDriverRepository struct {
	drivers   map[uuid.UUID]*fleet.Driver
	returnErr error
}

func newMockDriverRepository() *mockDriverRepository {
	return &mockDriverRepository{
		drivers: make(map[uuid.UUID]*fleet.Driver),
	}
}

func (m *mockDriverRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Driver, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if driver, ok := m.drivers[id]; ok {
		return driver, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockDriverRepository) FindByPartner(ctx context.Context, partnerID uuid.UUID) ([]fleet.Driver, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fleet.Driver
	for _, driver := range m.drivers {
		if driver.PartnerID == partnerID {
			result = append(result, *driver)
		}
	}
	return result, nil
}

type mockPartnerRepository struct {
	partners  map[uuid.UUID]*fleet.PartnerCompany
	returnErr error
}

func newMockPartnerRepository() *mockPartnerRepository {
	return &mockPartnerRepository{
		partners: make(map[uuid.UUID]*fleet.PartnerCompany),
	}
}

func (m *mockPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.PartnerCompany, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if partner, ok := m.partners[id]; ok {
		return partner, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockPartnerRepository) FindAll(ctx context.Context) ([]fleet.PartnerCompany, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fleet.PartnerCompany
	for _, partner := range m.partners {
		result = append(result, *partner)
	}
	return result, nil
}

// Shared fixtures

var (
	testPeriodStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	testPeriodEnd   = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
)

func createTestCommissionContract(t *testing.T, vehicleID, driverID, partnerID uuid.UUID) *fleet.Contract {
	t.Helper()
	contract, err := fleet.NewCommissionContract(vehicleID, driverID, partnerID, fleet.CommissionTerms{
		DriverPct:  decimal.NewFromInt(75),
		PartnerPct: decimal.NewFromInt(25),
	}, testPeriodStart.AddDate(0, -1, 0))
	require.NoError(t, err)
	return contract
}

func createTestSettlement(t *testing.T, contract *fleet.Contract) *settlement.Settlement {
	t.Helper()
	stl, err := settlement.NewSettlement(
		contract.DriverID, contract.VehicleID, contract.PartnerID,
		testPeriodStart, testPeriodEnd, contract, 1,
	)
	require.NoError(t, err)
	return stl
}

func createTestEarningsRecord(t *testing.T, driverID, vehicleID uuid.UUID, platform settlement.Platform, gross, commission, net, tips float64) *settlement.EarningsRecord {
	t.Helper()
	rec, err := settlement.NewEarningsRecord(platform, driverID, vehicleID,
		testPeriodStart, testPeriodEnd,
		decimal.NewFromFloat(gross), decimal.NewFromFloat(commission),
		decimal.NewFromFloat(net), decimal.NewFromFloat(tips))
	require.NoError(t, err)
	return rec
}

func createTestCostRecord(t *testing.T, category settlement.CostCategory, driverID, vehicleID *uuid.UUID, amount float64) *settlement.CostRecord {
	t.Helper()
	rec, err := settlement.NewCostRecord(category, driverID, vehicleID,
		decimal.NewFromFloat(amount), testPeriodStart.AddDate(0, 0, 2))
	require.NoError(t, err)
	return rec
}
