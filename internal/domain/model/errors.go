package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Domain error taxonomy
// ---------------------------------------------------------------------------

var (
	// ErrNoApplicableRate is returned when the interest rate table holds no
	// entry covering the requested member class and term.
	ErrNoApplicableRate = errors.New("no applicable interest rate")

	// ErrInvalidAllocation is returned for a malformed allocation line, e.g.
	// a generic contribution with a non-positive amount.
	ErrInvalidAllocation = errors.New("invalid allocation")

	// ErrScheduleLocked is returned when a schedule regeneration is attempted
	// on a loan whose installments already carry reconciled payments.
	ErrScheduleLocked = errors.New("schedule has recorded payments and cannot be regenerated")

	// ErrNotFound is returned by repositories when an entity does not exist.
	ErrNotFound = errors.New("not found")
)

// OverAllocationError signals that the sum of allocation line amounts exceeds
// the payment's reported amount. The reconciliation is rejected as a whole.
type OverAllocationError struct {
	Allocated decimal.Decimal
	Reported  decimal.Decimal
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("allocated total %s exceeds reported payment amount %s",
		e.Allocated.StringFixed(2), e.Reported.StringFixed(2))
}

// NegativeBalanceError signals that removing an allocation would drive an
// installment's paid totals below zero. This indicates a caller bug (e.g.
// reversing the same line twice) and is not user-recoverable.
type NegativeBalanceError struct {
	InstallmentID uuid.UUID
	Field         string
	Result        decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("installment %s: %s would become negative (%s)",
		e.InstallmentID, e.Field, e.Result.StringFixed(2))
}
