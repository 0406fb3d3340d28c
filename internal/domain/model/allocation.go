package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// AllocationLine entity
// ---------------------------------------------------------------------------

// AllocationLine is one slice of a payment, applied either against a specific
// loan installment (capital + interest split) or into the pool as a generic
// contribution. Lines are created, updated and deleted only by the payment
// allocation engine; kind-specific fields are validated at construction.
type AllocationLine struct {
	id             uuid.UUID
	paymentID      uuid.UUID
	kind           valueobject.AllocationKind
	installmentID  *uuid.UUID
	loanID         *uuid.UUID
	contributionID *uuid.UUID
	contributedOn  *time.Time
	capital        decimal.Decimal
	interest       decimal.Decimal
	amount         decimal.Decimal
}

// NewInstallmentLine builds a LOAN_INSTALLMENT allocation line. The applied
// amount is always capital + interest, never client-provided.
func NewInstallmentLine(
	paymentID uuid.UUID,
	installment *Installment,
	capital, interest decimal.Decimal,
) (*AllocationLine, error) {
	if installment == nil {
		return nil, ErrInvalidAllocation
	}
	if capital.IsNegative() || interest.IsNegative() {
		return nil, ErrInvalidAllocation
	}
	loanID := installment.LoanID()
	instID := installment.ID()
	return &AllocationLine{
		id:            uuid.New(),
		paymentID:     paymentID,
		kind:          valueobject.AllocationKindLoanInstallment,
		installmentID: &instID,
		loanID:        &loanID,
		capital:       capital,
		interest:      interest,
		amount:        capital.Add(interest),
	}, nil
}

// NewContributionLine builds a GENERIC_CONTRIBUTION allocation line. Amount
// must be strictly positive; capital and interest are always zero.
func NewContributionLine(
	paymentID uuid.UUID,
	amount decimal.Decimal,
	contributedOn *time.Time,
) (*AllocationLine, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAllocation
	}
	return &AllocationLine{
		id:            uuid.New(),
		paymentID:     paymentID,
		kind:          valueobject.AllocationKindGenericContribution,
		contributedOn: contributedOn,
		capital:       decimal.Zero,
		interest:      decimal.Zero,
		amount:        amount,
	}, nil
}

// ReconstructAllocationLine rebuilds a line from persistence.
func ReconstructAllocationLine(
	id, paymentID uuid.UUID,
	kind valueobject.AllocationKind,
	installmentID, loanID, contributionID *uuid.UUID,
	contributedOn *time.Time,
	capital, interest, amount decimal.Decimal,
) *AllocationLine {
	return &AllocationLine{
		id:             id,
		paymentID:      paymentID,
		kind:           kind,
		installmentID:  installmentID,
		loanID:         loanID,
		contributionID: contributionID,
		contributedOn:  contributedOn,
		capital:        capital,
		interest:       interest,
		amount:         amount,
	}
}

func (a *AllocationLine) ID() uuid.UUID                    { return a.id }
func (a *AllocationLine) PaymentID() uuid.UUID             { return a.paymentID }
func (a *AllocationLine) Kind() valueobject.AllocationKind { return a.kind }
func (a *AllocationLine) InstallmentID() *uuid.UUID        { return a.installmentID }
func (a *AllocationLine) LoanID() *uuid.UUID               { return a.loanID }
func (a *AllocationLine) ContributionID() *uuid.UUID       { return a.contributionID }
func (a *AllocationLine) ContributedOn() *time.Time        { return a.contributedOn }
func (a *AllocationLine) Capital() decimal.Decimal         { return a.capital }
func (a *AllocationLine) Interest() decimal.Decimal        { return a.interest }
func (a *AllocationLine) Amount() decimal.Decimal          { return a.amount }

// IsInstallment reports whether the line targets a loan installment.
func (a *AllocationLine) IsInstallment() bool {
	return a.kind.Equal(valueobject.AllocationKindLoanInstallment)
}

// IsContribution reports whether the line is a generic contribution.
func (a *AllocationLine) IsContribution() bool {
	return a.kind.Equal(valueobject.AllocationKindGenericContribution)
}

// BindContribution links the line to its owned contribution record.
func (a *AllocationLine) BindContribution(contributionID uuid.UUID) {
	a.contributionID = &contributionID
}

// UpdateInstallmentSplit replaces the capital/interest split of a
// LOAN_INSTALLMENT line. Amount is recomputed as capital + interest.
// Called by the allocation engine only.
func (a *AllocationLine) UpdateInstallmentSplit(capital, interest decimal.Decimal) error {
	if !a.IsInstallment() {
		return ErrInvalidAllocation
	}
	if capital.IsNegative() || interest.IsNegative() {
		return ErrInvalidAllocation
	}
	a.capital = capital
	a.interest = interest
	a.amount = capital.Add(interest)
	return nil
}

// UpdateContributionAmount replaces a GENERIC_CONTRIBUTION line's amount and
// optionally its contribution date. Called by the allocation engine only.
func (a *AllocationLine) UpdateContributionAmount(amount decimal.Decimal, contributedOn *time.Time) error {
	if !a.IsContribution() {
		return ErrInvalidAllocation
	}
	if !amount.IsPositive() {
		return ErrInvalidAllocation
	}
	a.amount = amount
	if contributedOn != nil {
		a.contributedOn = contributedOn
	}
	return nil
}
