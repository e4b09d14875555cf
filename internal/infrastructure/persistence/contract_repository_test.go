package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockContractRepository(t *testing.T) (*GormContractRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormContractRepository(gormDB), mock, mockDB
}

func TestGormContractRepository_FindActive(t *testing.T) {
	t.Run("finds contract covering the date", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()
		vehicleID := uuid.New()
		driverID := uuid.New()
		partnerID := uuid.New()
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		at := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{
			"id", "vehicle_id", "driver_id", "partner_id", "model",
			"commission_driver_pct", "commission_partner_pct", "start_date", "end_date",
		}).AddRow(
			contractID, vehicleID, driverID, partnerID, "commission",
			"75", "25", start, nil,
		)

		mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE \(vehicle_id = \$1 AND driver_id = \$2\) AND start_date <= \$3 AND \(\(end_date IS NULL OR end_date > \$4\)\) ORDER BY start_date desc.* LIMIT .*`).
			WithArgs(vehicleID, driverID, at, at, 1).
			WillReturnRows(rows)

		contract, err := repo.FindActive(context.Background(), vehicleID, driverID, at)

		require.NoError(t, err)
		assert.Equal(t, contractID, contract.ID)
		assert.Equal(t, fleet.ContractModelCommission, contract.Model)
		require.NotNil(t, contract.Commission)
		assert.Equal(t, "75", contract.Commission.DriverPct.String())
		assert.Nil(t, contract.EndDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when no contract covers the date", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		vehicleID := uuid.New()
		driverID := uuid.New()
		at := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT \* FROM "contracts"`).
			WithArgs(vehicleID, driverID, at, at, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		contract, err := repo.FindActive(context.Background(), vehicleID, driverID, at)

		assert.Nil(t, contract)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_FindActive_RentalTerms(t *testing.T) {
	repo, mock, mockDB := newMockContractRepository(t)
	defer mockDB.Close()

	vehicleID := uuid.New()
	driverID := uuid.New()
	at := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "vehicle_id", "driver_id", "partner_id", "model",
		"rent_amount", "rent_periodicity", "start_date",
	}).AddRow(
		uuid.New(), vehicleID, driverID, uuid.New(), "rental",
		"200", "weekly", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	)

	mock.ExpectQuery(`SELECT \* FROM "contracts"`).
		WithArgs(vehicleID, driverID, at, at, 1).
		WillReturnRows(rows)

	contract, err := repo.FindActive(context.Background(), vehicleID, driverID, at)

	require.NoError(t, err)
	assert.Equal(t, fleet.ContractModelRental, contract.Model)
	require.NotNil(t, contract.Rental)
	assert.Equal(t, "200", contract.Rental.RentAmount.String())
	assert.Equal(t, fleet.RentPeriodicityWeekly, contract.Rental.Periodicity)
	assert.Nil(t, contract.Commission)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormContractRepository_FindByDriver(t *testing.T) {
	repo, mock, mockDB := newMockContractRepository(t)
	defer mockDB.Close()

	driverID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "driver_id", "model", "start_date"}).
		AddRow(uuid.New(), driverID, "commission", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)).
		AddRow(uuid.New(), driverID, "rental", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE driver_id = \$1 ORDER BY start_date desc`).
		WithArgs(driverID).
		WillReturnRows(rows)

	contracts, err := repo.FindByDriver(context.Background(), driverID)

	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, fleet.ContractModelCommission, contracts[0].Model)
	assert.Equal(t, fleet.ContractModelRental, contracts[1].Model)
	assert.NoError(t, mock.ExpectationsWereMet())
}
