package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// AllocationKind – immutable value object
// ---------------------------------------------------------------------------

// AllocationKind is the discriminator of an allocation line: a payment slice
// either settles part of a loan installment or enters the pool as a generic
// contribution.
type AllocationKind struct {
	value string
}

const (
	allocationKindLoanInstallment     = "LOAN_INSTALLMENT"
	allocationKindGenericContribution = "GENERIC_CONTRIBUTION"
)

var (
	AllocationKindLoanInstallment     = AllocationKind{value: allocationKindLoanInstallment}
	AllocationKindGenericContribution = AllocationKind{value: allocationKindGenericContribution}
)

var validAllocationKinds = map[string]AllocationKind{
	allocationKindLoanInstallment:     AllocationKindLoanInstallment,
	allocationKindGenericContribution: AllocationKindGenericContribution,
}

// NewAllocationKind creates an AllocationKind from a raw string.
func NewAllocationKind(s string) (AllocationKind, error) {
	v, ok := validAllocationKinds[s]
	if !ok {
		return AllocationKind{}, fmt.Errorf("invalid allocation kind: %q", s)
	}
	return v, nil
}

// String returns the string representation of the kind.
func (k AllocationKind) String() string { return k.value }

// IsZero returns true if the kind has not been initialised.
func (k AllocationKind) IsZero() bool { return k.value == "" }

// Equal returns true when both kinds carry the same value.
func (k AllocationKind) Equal(other AllocationKind) bool { return k.value == other.value }

// ---------------------------------------------------------------------------
// InstallmentState – immutable value object
// ---------------------------------------------------------------------------

// InstallmentState is the derived settlement state of an installment. It is
// always recomputed from paid totals, never tracked from history, so both
// transitions are reachable.
type InstallmentState struct {
	value string
}

const (
	installmentStateOpen    = "OPEN"
	installmentStateSettled = "SETTLED"
)

var (
	InstallmentStateOpen    = InstallmentState{value: installmentStateOpen}
	InstallmentStateSettled = InstallmentState{value: installmentStateSettled}
)

// String returns the string representation of the state.
func (s InstallmentState) String() string { return s.value }

// Equal returns true when both states carry the same value.
func (s InstallmentState) Equal(other InstallmentState) bool { return s.value == other.value }
