package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
	"github.com/FONAR-bit/fonar-project/pkg/money"
)

// ---------------------------------------------------------------------------
// Installment entity (Installment Ledger)
// ---------------------------------------------------------------------------

// Installment is one period of a loan's amortization schedule, tracking the
// capital and interest paid against it. Paid totals are only mutated through
// ApplyPaymentAmounts or SetPaidTotals; pending amounts are always derived,
// never stored.
type Installment struct {
	id                uuid.UUID
	loanID            uuid.UUID
	sequence          int
	dueDate           time.Time
	scheduledCapital  decimal.Decimal
	scheduledInterest decimal.Decimal
	total             decimal.Decimal
	paidCapital       decimal.Decimal
	paidInterest      decimal.Decimal
	settled           bool
}

func newInstallment(loanID uuid.UUID, entry ScheduleEntry) *Installment {
	return &Installment{
		id:                uuid.New(),
		loanID:            loanID,
		sequence:          entry.Sequence,
		dueDate:           entry.DueDate,
		scheduledCapital:  entry.Capital,
		scheduledInterest: entry.Interest,
		total:             entry.Total,
		paidCapital:       decimal.Zero,
		paidInterest:      decimal.Zero,
	}
}

// ReconstructInstallment rebuilds an installment from persistence.
func ReconstructInstallment(
	id, loanID uuid.UUID,
	sequence int,
	dueDate time.Time,
	scheduledCapital, scheduledInterest, total decimal.Decimal,
	paidCapital, paidInterest decimal.Decimal,
	settled bool,
) *Installment {
	return &Installment{
		id:                id,
		loanID:            loanID,
		sequence:          sequence,
		dueDate:           dueDate,
		scheduledCapital:  scheduledCapital,
		scheduledInterest: scheduledInterest,
		total:             total,
		paidCapital:       paidCapital,
		paidInterest:      paidInterest,
		settled:           settled,
	}
}

func (i *Installment) ID() uuid.UUID                      { return i.id }
func (i *Installment) LoanID() uuid.UUID                  { return i.loanID }
func (i *Installment) Sequence() int                      { return i.sequence }
func (i *Installment) DueDate() time.Time                 { return i.dueDate }
func (i *Installment) ScheduledCapital() decimal.Decimal  { return i.scheduledCapital }
func (i *Installment) ScheduledInterest() decimal.Decimal { return i.scheduledInterest }
func (i *Installment) Total() decimal.Decimal             { return i.total }
func (i *Installment) PaidCapital() decimal.Decimal       { return i.paidCapital }
func (i *Installment) PaidInterest() decimal.Decimal      { return i.paidInterest }
func (i *Installment) Settled() bool                      { return i.settled }

// State returns the derived settlement state.
func (i *Installment) State() valueobject.InstallmentState {
	if i.settled {
		return valueobject.InstallmentStateSettled
	}
	return valueobject.InstallmentStateOpen
}

// PendingCapital is the scheduled capital not yet covered by payments,
// floored at zero. Recomputed on every call so it cannot drift.
func (i *Installment) PendingCapital() decimal.Decimal {
	return money.FloorZero(i.scheduledCapital.Sub(i.paidCapital))
}

// PendingInterest is the scheduled interest not yet covered by payments,
// floored at zero.
func (i *Installment) PendingInterest() decimal.Decimal {
	return money.FloorZero(i.scheduledInterest.Sub(i.paidInterest))
}

// HasPayments reports whether any capital or interest has been recorded.
func (i *Installment) HasPayments() bool {
	return i.paidCapital.IsPositive() || i.paidInterest.IsPositive()
}

// ApplyPaymentAmounts adjusts paid capital and interest by the given deltas.
// Negative deltas represent removal of a prior allocation. A delta that would
// drive either total below zero is an integrity fault: nothing is changed and
// a NegativeBalanceError is returned.
func (i *Installment) ApplyPaymentAmounts(capitalDelta, interestDelta decimal.Decimal) error {
	newCapital := i.paidCapital.Add(capitalDelta)
	if newCapital.IsNegative() {
		return &NegativeBalanceError{InstallmentID: i.id, Field: "paid capital", Result: newCapital}
	}
	newInterest := i.paidInterest.Add(interestDelta)
	if newInterest.IsNegative() {
		return &NegativeBalanceError{InstallmentID: i.id, Field: "paid interest", Result: newInterest}
	}

	i.paidCapital = newCapital
	i.paidInterest = newInterest
	i.RecomputeSettled()
	return nil
}

// SetPaidTotals overwrites the paid totals from an authoritative sum of the
// installment's allocation lines (the full recomputation path).
func (i *Installment) SetPaidTotals(paidCapital, paidInterest decimal.Decimal) error {
	if paidCapital.IsNegative() {
		return &NegativeBalanceError{InstallmentID: i.id, Field: "paid capital", Result: paidCapital}
	}
	if paidInterest.IsNegative() {
		return &NegativeBalanceError{InstallmentID: i.id, Field: "paid interest", Result: paidInterest}
	}

	i.paidCapital = paidCapital
	i.paidInterest = paidInterest
	i.RecomputeSettled()
	return nil
}

// RecomputeSettled re-derives the settled flag from current paid totals.
// Settlement tracks capital only: an interest shortfall does not keep an
// installment open. Idempotent.
func (i *Installment) RecomputeSettled() {
	i.settled = i.paidCapital.GreaterThanOrEqual(i.scheduledCapital)
}
