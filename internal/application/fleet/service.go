// Package fleet provides application services for contracts and driver
// financial configuration.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/fleetops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ContractService manages compensation contracts
type ContractService struct {
	contractRepo fleet.ContractRepository
	vehicleRepo  fleet.VehicleRepository
	driverRepo   fleet.DriverRepository
	logger       *zap.Logger
}

// NewContractService creates a contract service
func NewContractService(
	contractRepo fleet.ContractRepository,
	vehicleRepo fleet.VehicleRepository,
	driverRepo fleet.DriverRepository,
	logger *zap.Logger,
) *ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{
		contractRepo: contractRepo,
		vehicleRepo:  vehicleRepo,
		driverRepo:   driverRepo,
		logger:       logger,
	}
}

// OpenRentalRequest opens a rental contract for a pairing
type OpenRentalRequest struct {
	VehicleID   uuid.UUID
	DriverID    uuid.UUID
	RentAmount  decimal.Decimal
	Periodicity fleet.RentPeriodicity
	Deposit     *decimal.Decimal
	StartDate   time.Time
}

// OpenCommissionRequest opens a commission contract for a pairing
type OpenCommissionRequest struct {
	VehicleID  uuid.UUID
	DriverID   uuid.UUID
	DriverPct  decimal.Decimal
	PartnerPct decimal.Decimal
	StartDate  time.Time
}

// OpenRental opens a rental contract. Any open contract for the pairing is
// closed the day before the new one starts, so at most one contract is ever
// in force.
func (s *ContractService) OpenRental(ctx context.Context, req OpenRentalRequest) (*fleet.Contract, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "open_rental")
	defer span.End()

	partnerID, err := s.pairingPartner(ctx, req.VehicleID, req.DriverID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.closeOpenContract(ctx, req.VehicleID, req.DriverID, req.StartDate); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	contract, err := fleet.NewRentalContract(req.VehicleID, req.DriverID, partnerID, fleet.RentalTerms{
		RentAmount:  req.RentAmount,
		Periodicity: req.Periodicity,
		Deposit:     req.Deposit,
	}, req.StartDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.logger.Info("Opened rental contract",
		zap.String("contract_id", contract.ID.String()),
		zap.String("vehicle_id", req.VehicleID.String()),
		zap.String("driver_id", req.DriverID.String()),
		zap.String("rent", req.RentAmount.String()),
	)
	return contract, nil
}

// OpenCommission opens a commission contract
func (s *ContractService) OpenCommission(ctx context.Context, req OpenCommissionRequest) (*fleet.Contract, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "open_commission")
	defer span.End()

	partnerID, err := s.pairingPartner(ctx, req.VehicleID, req.DriverID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.closeOpenContract(ctx, req.VehicleID, req.DriverID, req.StartDate); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	contract, err := fleet.NewCommissionContract(req.VehicleID, req.DriverID, partnerID, fleet.CommissionTerms{
		DriverPct:  req.DriverPct,
		PartnerPct: req.PartnerPct,
	}, req.StartDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.logger.Info("Opened commission contract",
		zap.String("contract_id", contract.ID.String()),
		zap.String("vehicle_id", req.VehicleID.String()),
		zap.String("driver_id", req.DriverID.String()),
	)
	return contract, nil
}

// Close ends a contract on the given date. Closed contracts stay in place
// so historical settlements keep resolving against them.
func (s *ContractService) Close(ctx context.Context, contractID uuid.UUID, endDate time.Time) (*fleet.Contract, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "close")
	defer span.End()

	contract, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := contract.Close(endDate); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}
	return contract, nil
}

// Resolve returns the contract active for a pairing on a date
func (s *ContractService) Resolve(ctx context.Context, vehicleID, driverID uuid.UUID, at time.Time) (*fleet.Contract, error) {
	resolver := fleet.NewContractResolver(s.contractRepo)
	return resolver.Resolve(ctx, vehicleID, driverID, at)
}

// ListByDriver returns a driver's contract history
func (s *ContractService) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]fleet.Contract, error) {
	return s.contractRepo.FindByDriver(ctx, driverID)
}

func (s *ContractService) pairingPartner(ctx context.Context, vehicleID, driverID uuid.UUID) (uuid.UUID, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	driver, err := s.driverRepo.FindByID(ctx, driverID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load driver: %w", err)
	}
	if vehicle.PartnerID != driver.PartnerID {
		return uuid.Nil, shared.NewDomainError("PARTNER_MISMATCH", "Vehicle and driver belong to different partner companies")
	}
	return vehicle.PartnerID, nil
}

func (s *ContractService) closeOpenContract(ctx context.Context, vehicleID, driverID uuid.UUID, newStart time.Time) error {
	open, err := s.contractRepo.FindOpen(ctx, vehicleID, driverID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up open contract: %w", err)
	}

	if err := open.Close(newStart); err != nil {
		return err
	}
	if err := s.contractRepo.Save(ctx, open); err != nil {
		return fmt.Errorf("failed to close previous contract: %w", err)
	}

	s.logger.Info("Closed previous contract",
		zap.String("contract_id", open.ID.String()),
		zap.Time("end_date", newStart),
	)
	return nil
}

// ConfigService manages driver financial configuration versions
type ConfigService struct {
	configRepo fleet.FinancialConfigRepository
	logger     *zap.Logger
}

// NewConfigService creates a config service
func NewConfigService(configRepo fleet.FinancialConfigRepository, logger *zap.Logger) *ConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{configRepo: configRepo, logger: logger}
}

// ConfigUpdate carries the fields to change on a driver's financial config.
// Nil fields keep their current value.
type ConfigUpdate struct {
	TollAccumulation   *bool
	TollPlatforms      []string
	Gratuity           *fleet.GratuityPolicy
	VATIncluded        *bool
	VATPercent         *decimal.Decimal
	CommissionOverride *bool
	OverrideDriverPct  *decimal.Decimal
	OverridePartnerPct *decimal.Decimal
}

// Update appends a new config version with the changes applied. Existing
// versions are never mutated; settlements referencing them stay stable.
func (s *ConfigService) Update(ctx context.Context, driverID uuid.UUID, update ConfigUpdate) (*fleet.DriverFinancialConfig, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "financial_config", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrDriverID, driverID.String())

	current, err := s.configRepo.FindLatest(ctx, driverID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load financial config: %w", err)
		}
		current, err = fleet.NewDriverFinancialConfig(driverID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		// First version gets persisted so the next update has a base row.
		if err := s.configRepo.Save(ctx, current); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save initial financial config: %w", err)
		}
	}

	next, err := current.NextVersion(func(c *fleet.DriverFinancialConfig) {
		if update.TollAccumulation != nil {
			c.TollAccumulation = *update.TollAccumulation
		}
		if update.TollPlatforms != nil {
			c.TollPlatforms = update.TollPlatforms
		}
		if update.Gratuity != nil {
			c.Gratuity = *update.Gratuity
		}
		if update.VATIncluded != nil {
			c.VATIncluded = *update.VATIncluded
		}
		if update.VATPercent != nil {
			c.VATPercent = *update.VATPercent
		}
		if update.CommissionOverride != nil {
			c.CommissionOverride = *update.CommissionOverride
		}
		if update.OverrideDriverPct != nil {
			c.OverrideDriverPct = *update.OverrideDriverPct
		}
		if update.OverridePartnerPct != nil {
			c.OverridePartnerPct = *update.OverridePartnerPct
		}
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.configRepo.Save(ctx, next); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save financial config: %w", err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrConfigVersion, next.ConfigVersion)
	s.logger.Info("Updated driver financial config",
		zap.String("driver_id", driverID.String()),
		zap.Int("version", next.ConfigVersion),
	)
	return next, nil
}

// Latest returns the driver's current config, defaulting when none exists
func (s *ConfigService) Latest(ctx context.Context, driverID uuid.UUID) (*fleet.DriverFinancialConfig, error) {
	cfg, err := s.configRepo.FindLatest(ctx, driverID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fleet.NewDriverFinancialConfig(driverID)
		}
		return nil, err
	}
	return cfg, nil
}

// Version returns a specific historical config version
func (s *ConfigService) Version(ctx context.Context, driverID uuid.UUID, version int) (*fleet.DriverFinancialConfig, error) {
	return s.configRepo.FindVersion(ctx, driverID, version)
}
