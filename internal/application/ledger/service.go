// Package ledger provides application services for the driver accrual ledger.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/fleetops/backend/internal/domain/ledger"
	"github.com/fleetops/backend/internal/domain/shared/valueobject"
	"github.com/fleetops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service coordinates accrual ledger postings. Credits are idempotent per
// source cost record and lock-free. Debits are serialized per driver so the
// read-check-write against the balance cannot race.
type Service struct {
	repo ledger.Repository

	mu          sync.Mutex
	driverLocks map[uuid.UUID]*sync.Mutex
}

// NewService creates a ledger service
func NewService(repo ledger.Repository) *Service {
	return &Service{
		repo:        repo,
		driverLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Service) lockFor(driverID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.driverLocks[driverID]
	if !ok {
		l = &sync.Mutex{}
		s.driverLocks[driverID] = l
	}
	return l
}

// Credit posts an accrual credit for a deferred cost record. Posting the
// same cost record twice is a no-op, so retries and settlement recomputes
// cannot double-credit.
func (s *Service) Credit(ctx context.Context, driverID uuid.UUID, amount decimal.Decimal, costRecordID uuid.UUID) (bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "credit")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, driverID.String(),
		telemetry.SpanAttrAmount, amount.String(),
		telemetry.SpanAttrSourceID, costRecordID.String(),
	)

	exists, err := s.repo.HasCreditForSource(ctx, driverID, costRecordID)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, fmt.Errorf("failed to check existing credit: %w", err)
	}
	if exists {
		telemetry.AddEvent(span, "credit_already_posted")
		return false, nil
	}

	entry, err := ledger.NewCredit(driverID, amount, costRecordID)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return false, fmt.Errorf("failed to append credit: %w", err)
	}
	return true, nil
}

// Debit recovers accumulated accruals against a settlement. The debit is
// guarded by the driver's derived balance; exceeding it fails with
// INSUFFICIENT_LEDGER_BALANCE. The check and the append run under a
// per-driver lock.
func (s *Service) Debit(ctx context.Context, driverID uuid.UUID, amount decimal.Decimal, settlementID uuid.UUID) (*ledger.Entry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "debit")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, driverID.String(),
		telemetry.SpanAttrAmount, amount.String(),
		telemetry.SpanAttrSourceID, settlementID.String(),
	)

	lock := s.lockFor(driverID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := s.repo.Balance(ctx, driverID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to derive ledger balance: %w", err)
	}

	if amount.GreaterThan(balance) {
		telemetry.RecordError(span, ledger.ErrInsufficientLedgerBalance)
		return nil, ledger.ErrInsufficientLedgerBalance
	}

	entry, err := ledger.NewDebit(driverID, amount, settlementID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to append debit: %w", err)
	}
	return entry, nil
}

// Balance returns the driver's current derived balance
func (s *Service) Balance(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "balance")
	defer span.End()

	balance, err := s.repo.Balance(ctx, driverID)
	if err != nil {
		telemetry.RecordError(span, err)
		return decimal.Zero, fmt.Errorf("failed to derive ledger balance: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, balance.String())
	return balance, nil
}

// StatementLine is one entry of a ledger statement with a running balance
type StatementLine struct {
	Entry          ledger.Entry
	RunningBalance decimal.Decimal
}

// Statement returns a driver's entries within a period with running
// balances, oldest first. The running balance only covers the requested
// window; it starts from zero at the window's first entry.
func (s *Service) Statement(ctx context.Context, driverID uuid.UUID, period valueobject.Period) ([]StatementLine, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "statement")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDriverID, driverID.String(),
		telemetry.SpanAttrPeriodStart, period.Start().Format("2006-01-02"),
		telemetry.SpanAttrPeriodEnd, period.End().Format("2006-01-02"),
	)

	entries, err := s.repo.FindByDriver(ctx, driverID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	lines := make([]StatementLine, 0, len(entries))
	running := decimal.Zero
	for _, e := range entries {
		running = running.Add(e.SignedAmount())
		lines = append(lines, StatementLine{Entry: e, RunningBalance: running})
	}
	return lines, nil
}
