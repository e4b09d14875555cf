package fleet

import (
	"context"
	"errors"
	"time"

	"github.com/fleetops/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractResolver resolves the compensation contract in force for a
// vehicle+driver pairing on a given date. Settlement generation cannot
// proceed without one: resolution failure is fatal, never defaulted.
type ContractResolver struct {
	contracts ContractRepository
}

// NewContractResolver creates a ContractResolver
func NewContractResolver(contracts ContractRepository) *ContractResolver {
	return &ContractResolver{contracts: contracts}
}

// Resolve returns the contract active on the given date
// (start <= date < end-or-open), or ErrNoActiveContract.
func (r *ContractResolver) Resolve(ctx context.Context, vehicleID, driverID uuid.UUID, at time.Time) (*Contract, error) {
	if vehicleID == uuid.Nil || driverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAIRING", "Vehicle and driver IDs are required")
	}
	contract, err := r.contracts.FindActive(ctx, vehicleID, driverID, at)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNoActiveContract
		}
		return nil, err
	}
	if !contract.ActiveOn(at) {
		return nil, ErrNoActiveContract
	}
	return contract, nil
}
