package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/event"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/pkg/events"
)

// ---------------------------------------------------------------------------
// Reconciliation propagator
// ---------------------------------------------------------------------------

// ReconciliationPropagator keeps derived ledger state in step with allocation
// line changes: installment paid totals and settled flags, and the payment
// reconciled flag. All flag updates are re-derivations from current amounts,
// so every operation is idempotent.
type ReconciliationPropagator struct{}

// ApplyDelta adjusts an installment's paid totals by the net change of one
// allocation line and re-derives its settled flag. Returns the settlement
// transition events, if any.
func (ReconciliationPropagator) ApplyDelta(
	inst *model.Installment,
	capitalDelta, interestDelta decimal.Decimal,
	now time.Time,
) ([]events.DomainEvent, error) {
	wasSettled := inst.Settled()
	if err := inst.ApplyPaymentAmounts(capitalDelta, interestDelta); err != nil {
		return nil, err
	}
	return settlementEvents(inst, wasSettled, now), nil
}

// Rebuild recomputes an installment's paid totals from the authoritative set
// of allocation lines targeting it, discarding whatever was stored. This is
// the repair path for drifted aggregates.
func (ReconciliationPropagator) Rebuild(
	inst *model.Installment,
	lines []*model.AllocationLine,
	now time.Time,
) ([]events.DomainEvent, error) {
	wasSettled := inst.Settled()

	capital := decimal.Zero
	interest := decimal.Zero
	for _, line := range lines {
		if !line.IsInstallment() || line.InstallmentID() == nil {
			continue
		}
		if *line.InstallmentID() != inst.ID() {
			continue
		}
		capital = capital.Add(line.Capital())
		interest = interest.Add(line.Interest())
	}

	if err := inst.SetPaidTotals(capital, interest); err != nil {
		return nil, err
	}
	return settlementEvents(inst, wasSettled, now), nil
}

// SyncPayment re-derives the payment's reconciled flag from its live line
// amounts. Returns true when the flag changed.
func (ReconciliationPropagator) SyncPayment(p *model.Payment, now time.Time) bool {
	return p.RecomputeReconciled(now)
}

func settlementEvents(inst *model.Installment, wasSettled bool, now time.Time) []events.DomainEvent {
	if inst.Settled() == wasSettled {
		return nil
	}
	if inst.Settled() {
		return []events.DomainEvent{
			event.NewInstallmentSettled(inst.ID(), inst.LoanID(), inst.Sequence(), now),
		}
	}
	return []events.DomainEvent{
		event.NewInstallmentReopened(inst.ID(), inst.LoanID(), inst.Sequence(), now),
	}
}
