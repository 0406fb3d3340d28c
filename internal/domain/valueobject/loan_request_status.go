package valueobject

import (
	"errors"
	"fmt"
)

// ErrInvalidStatusTransition rejects a lifecycle move the status does not
// allow, such as deciding an already decided request.
var ErrInvalidStatusTransition = errors.New("invalid status transition")

// ---------------------------------------------------------------------------
// LoanRequestStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanRequestStatus represents the lifecycle stage of a loan request.
type LoanRequestStatus struct {
	value string
}

const (
	loanRequestStatusPending  = "PENDING"
	loanRequestStatusApproved = "APPROVED"
	loanRequestStatusRejected = "REJECTED"
)

var (
	LoanRequestStatusPending  = LoanRequestStatus{value: loanRequestStatusPending}
	LoanRequestStatusApproved = LoanRequestStatus{value: loanRequestStatusApproved}
	LoanRequestStatusRejected = LoanRequestStatus{value: loanRequestStatusRejected}
)

var validLoanRequestStatuses = map[string]LoanRequestStatus{
	loanRequestStatusPending:  LoanRequestStatusPending,
	loanRequestStatusApproved: LoanRequestStatusApproved,
	loanRequestStatusRejected: LoanRequestStatusRejected,
}

// NewLoanRequestStatus creates a LoanRequestStatus from a raw string.
func NewLoanRequestStatus(s string) (LoanRequestStatus, error) {
	v, ok := validLoanRequestStatuses[s]
	if !ok {
		return LoanRequestStatus{}, fmt.Errorf("invalid loan request status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanRequestStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanRequestStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanRequestStatus) Equal(other LoanRequestStatus) bool { return s.value == other.value }
