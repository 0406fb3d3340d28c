package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/event"
	"github.com/FONAR-bit/fonar-project/pkg/events"
	"github.com/FONAR-bit/fonar-project/pkg/money"
)

// ---------------------------------------------------------------------------
// Payment aggregate root
// ---------------------------------------------------------------------------

// Payment is an incoming transfer reported by a member, later reconciled
// against loan installments and/or recorded as contributions through its
// allocation lines. The reconciled flag is always re-derived from the live
// sum of line amounts, never tracked incrementally.
type Payment struct {
	events.EventCollector

	id             uuid.UUID
	payerID        uuid.UUID
	reportedAmount decimal.Decimal
	receivedAt     time.Time
	reconciled     bool
	receiptRef     string
	notes          string
	lines          []*AllocationLine
	createdAt      time.Time
	updatedAt      time.Time
}

// NewPayment registers a reported payment with no allocations yet.
func NewPayment(
	payerID uuid.UUID,
	reportedAmount decimal.Decimal,
	receivedAt time.Time,
	receiptRef, notes string,
	now time.Time,
) (*Payment, error) {
	if payerID == uuid.Nil {
		return nil, errors.New("payer ID is required")
	}
	if reportedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("reported amount must be positive")
	}
	if receivedAt.IsZero() {
		return nil, errors.New("received time is required")
	}

	p := &Payment{
		id:             uuid.New(),
		payerID:        payerID,
		reportedAmount: reportedAmount,
		receivedAt:     receivedAt,
		receiptRef:     receiptRef,
		notes:          notes,
		createdAt:      now,
		updatedAt:      now,
	}

	p.Record(event.NewPaymentRegistered(p.id, payerID, reportedAmount, now))

	return p, nil
}

// ReconstructPayment rebuilds a payment aggregate from persistence.
func ReconstructPayment(
	id, payerID uuid.UUID,
	reportedAmount decimal.Decimal,
	receivedAt time.Time,
	reconciled bool,
	receiptRef, notes string,
	lines []*AllocationLine,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:             id,
		payerID:        payerID,
		reportedAmount: reportedAmount,
		receivedAt:     receivedAt,
		reconciled:     reconciled,
		receiptRef:     receiptRef,
		notes:          notes,
		lines:          lines,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (p *Payment) ID() uuid.UUID                   { return p.id }
func (p *Payment) PayerID() uuid.UUID              { return p.payerID }
func (p *Payment) ReportedAmount() decimal.Decimal { return p.reportedAmount }
func (p *Payment) ReceivedAt() time.Time           { return p.receivedAt }
func (p *Payment) Reconciled() bool                { return p.reconciled }
func (p *Payment) ReceiptRef() string              { return p.receiptRef }
func (p *Payment) Notes() string                   { return p.notes }
func (p *Payment) CreatedAt() time.Time            { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time            { return p.updatedAt }

// Lines returns the allocation lines in application order. The slice is a
// copy; the lines themselves are live.
func (p *Payment) Lines() []*AllocationLine {
	out := make([]*AllocationLine, len(p.lines))
	copy(out, p.lines)
	return out
}

// LineByID returns the line with the given ID, or nil.
func (p *Payment) LineByID(id uuid.UUID) *AllocationLine {
	for _, line := range p.lines {
		if line.id == id {
			return line
		}
	}
	return nil
}

// AppliedTotal is the live sum of all allocation line amounts.
func (p *Payment) AppliedTotal() decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(p.lines))
	for _, line := range p.lines {
		amounts = append(amounts, line.amount)
	}
	return money.Sum(amounts...)
}

// Shortfall is the reported amount not yet covered by allocations.
func (p *Payment) Shortfall() decimal.Decimal {
	return p.reportedAmount.Sub(p.AppliedTotal())
}

// AttachLine adds an allocation line. Called by the allocation engine only;
// the engine has already validated the aggregate invariants.
func (p *Payment) AttachLine(line *AllocationLine) {
	p.lines = append(p.lines, line)
}

// DetachLine removes the line with the given ID and returns it, or nil when
// no such line exists. Called by the allocation engine only.
func (p *Payment) DetachLine(id uuid.UUID) *AllocationLine {
	for idx, line := range p.lines {
		if line.id == id {
			p.lines = append(p.lines[:idx], p.lines[idx+1:]...)
			return line
		}
	}
	return nil
}

// Touch updates the modification time.
func (p *Payment) Touch(now time.Time) {
	p.updatedAt = now
}

// RecomputeReconciled re-derives the reconciled flag: true iff the applied
// total equals the reported amount exactly (not merely covering it).
// Idempotent; returns true when the flag changed.
func (p *Payment) RecomputeReconciled(now time.Time) bool {
	was := p.reconciled
	p.reconciled = p.AppliedTotal().Equal(p.reportedAmount)
	if p.reconciled == was {
		return false
	}

	if p.reconciled {
		p.Record(event.NewPaymentReconciled(p.id, p.payerID, money.Round(p.AppliedTotal()), now))
	}
	return true
}
