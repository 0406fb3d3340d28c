package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/event"
	"github.com/FONAR-bit/fonar-project/pkg/events"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// Loan is an interest-bearing installment loan issued by the pool. It owns
// its installment schedule exclusively: installments are created and
// discarded only through schedule generation.
type Loan struct {
	events.EventCollector

	id               uuid.UUID
	memberID         uuid.UUID
	requestID        *uuid.UUID
	principal        decimal.Decimal
	monthlyRate      decimal.Decimal
	termCount        int
	disbursementDate time.Time
	installments     []*Installment
	createdAt        time.Time
	updatedAt        time.Time
}

// NewLoan creates a loan and generates its amortization schedule.
func NewLoan(
	memberID uuid.UUID,
	principal, monthlyRate decimal.Decimal,
	termCount int,
	disbursementDate time.Time,
	now time.Time,
) (*Loan, error) {
	if memberID == uuid.Nil {
		return nil, errors.New("member ID is required")
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("principal must be positive")
	}
	if monthlyRate.IsNegative() {
		return nil, errors.New("monthly rate must not be negative")
	}
	if termCount < 1 {
		return nil, errors.New("term count must be at least 1")
	}
	if disbursementDate.IsZero() {
		return nil, errors.New("disbursement date is required")
	}

	l := &Loan{
		id:               uuid.New(),
		memberID:         memberID,
		principal:        principal,
		monthlyRate:      monthlyRate,
		termCount:        termCount,
		disbursementDate: disbursementDate,
		createdAt:        now,
		updatedAt:        now,
	}
	l.regenerate()

	l.Record(event.NewLoanCreated(
		l.id, memberID, principal, monthlyRate, termCount, disbursementDate, now,
	))

	return l, nil
}

// ReconstructLoan rebuilds a loan aggregate from persistence.
func ReconstructLoan(
	id, memberID uuid.UUID,
	requestID *uuid.UUID,
	principal, monthlyRate decimal.Decimal,
	termCount int,
	disbursementDate time.Time,
	installments []*Installment,
	createdAt, updatedAt time.Time,
) *Loan {
	return &Loan{
		id:               id,
		memberID:         memberID,
		requestID:        requestID,
		principal:        principal,
		monthlyRate:      monthlyRate,
		termCount:        termCount,
		disbursementDate: disbursementDate,
		installments:     installments,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (l *Loan) ID() uuid.UUID                 { return l.id }
func (l *Loan) MemberID() uuid.UUID           { return l.memberID }
func (l *Loan) RequestID() *uuid.UUID         { return l.requestID }
func (l *Loan) Principal() decimal.Decimal    { return l.principal }
func (l *Loan) MonthlyRate() decimal.Decimal  { return l.monthlyRate }
func (l *Loan) TermCount() int                { return l.termCount }
func (l *Loan) DisbursementDate() time.Time   { return l.disbursementDate }
func (l *Loan) CreatedAt() time.Time          { return l.createdAt }
func (l *Loan) UpdatedAt() time.Time          { return l.updatedAt }

// BindRequest links the loan to the request it originated from.
func (l *Loan) BindRequest(requestID uuid.UUID) {
	l.requestID = &requestID
}

// Installments returns the schedule in sequence order. The slice is a copy;
// the installments themselves are the live ledger records.
func (l *Loan) Installments() []*Installment {
	out := make([]*Installment, len(l.installments))
	copy(out, l.installments)
	return out
}

// InstallmentByID returns the installment with the given ID, or nil.
func (l *Loan) InstallmentByID(id uuid.UUID) *Installment {
	for _, inst := range l.installments {
		if inst.id == id {
			return inst
		}
	}
	return nil
}

// FixedInstallmentAmount returns the annuity installment for the loan terms.
func (l *Loan) FixedInstallmentAmount() decimal.Decimal {
	return FixedInstallment(l.principal, l.monthlyRate, l.termCount)
}

// OutstandingCapital is the scheduled capital not yet covered by payments,
// summed over all installments.
func (l *Loan) OutstandingCapital() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.installments {
		total = total.Add(inst.PendingCapital())
	}
	return total
}

// CollectedInterest is the interest paid to date across all installments.
func (l *Loan) CollectedInterest() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.installments {
		total = total.Add(inst.paidInterest)
	}
	return total
}

// HasRecordedPayments reports whether any installment carries paid amounts.
func (l *Loan) HasRecordedPayments() bool {
	for _, inst := range l.installments {
		if inst.HasPayments() {
			return true
		}
	}
	return false
}

// UpdateTerms changes principal, rate and/or term and regenerates the
// schedule when any of the three differ. Regeneration discards the existing
// installments, so it is refused with ErrScheduleLocked once any installment
// carries paid amounts.
func (l *Loan) UpdateTerms(principal, monthlyRate decimal.Decimal, termCount int, now time.Time) error {
	if principal.LessThanOrEqual(decimal.Zero) {
		return errors.New("principal must be positive")
	}
	if monthlyRate.IsNegative() {
		return errors.New("monthly rate must not be negative")
	}
	if termCount < 1 {
		return errors.New("term count must be at least 1")
	}

	if principal.Equal(l.principal) && monthlyRate.Equal(l.monthlyRate) && termCount == l.termCount {
		return nil
	}

	if l.HasRecordedPayments() {
		return ErrScheduleLocked
	}

	l.principal = principal
	l.monthlyRate = monthlyRate
	l.termCount = termCount
	l.updatedAt = now
	l.regenerate()

	l.Record(event.NewScheduleRegenerated(l.id, principal, monthlyRate, termCount, now))

	return nil
}

// regenerate discards the current installments and rebuilds them from the
// amortization schedule.
func (l *Loan) regenerate() {
	entries := GenerateSchedule(l.principal, l.monthlyRate, l.termCount, l.disbursementDate)
	l.installments = make([]*Installment, 0, len(entries))
	for _, entry := range entries {
		l.installments = append(l.installments, newInstallment(l.id, entry))
	}
}
