package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/event"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
	"github.com/FONAR-bit/fonar-project/pkg/events"
)

// ---------------------------------------------------------------------------
// LoanRequest aggregate root
// ---------------------------------------------------------------------------

// LoanRequest is a member's application for a loan. The monthly rate is
// looked up and frozen when the request is submitted, so later rate table
// changes do not affect it.
type LoanRequest struct {
	events.EventCollector

	id                  uuid.UUID
	memberID            uuid.UUID
	amount              decimal.Decimal
	termCount           int
	monthlyRate         decimal.Decimal
	desiredDisbursement time.Time
	status              valueobject.LoanRequestStatus
	requestedAt         time.Time
	decidedAt           *time.Time
}

// NewLoanRequest creates a pending request with the given frozen rate.
func NewLoanRequest(
	memberID uuid.UUID,
	amount decimal.Decimal,
	termCount int,
	monthlyRate decimal.Decimal,
	desiredDisbursement time.Time,
	now time.Time,
) (*LoanRequest, error) {
	if memberID == uuid.Nil {
		return nil, errors.New("member ID is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("amount must be positive")
	}
	if termCount < 1 {
		return nil, errors.New("term count must be at least 1")
	}
	if monthlyRate.IsNegative() {
		return nil, errors.New("monthly rate must not be negative")
	}
	if desiredDisbursement.IsZero() {
		return nil, errors.New("desired disbursement date is required")
	}

	r := &LoanRequest{
		id:                  uuid.New(),
		memberID:            memberID,
		amount:              amount,
		termCount:           termCount,
		monthlyRate:         monthlyRate,
		desiredDisbursement: desiredDisbursement,
		status:              valueobject.LoanRequestStatusPending,
		requestedAt:         now,
	}

	r.Record(event.NewLoanRequestSubmitted(r.id, memberID, amount, termCount, monthlyRate, now))

	return r, nil
}

// ReconstructLoanRequest rebuilds a request from persistence.
func ReconstructLoanRequest(
	id, memberID uuid.UUID,
	amount decimal.Decimal,
	termCount int,
	monthlyRate decimal.Decimal,
	desiredDisbursement time.Time,
	status valueobject.LoanRequestStatus,
	requestedAt time.Time,
	decidedAt *time.Time,
) *LoanRequest {
	return &LoanRequest{
		id:                  id,
		memberID:            memberID,
		amount:              amount,
		termCount:           termCount,
		monthlyRate:         monthlyRate,
		desiredDisbursement: desiredDisbursement,
		status:              status,
		requestedAt:         requestedAt,
		decidedAt:           decidedAt,
	}
}

func (r *LoanRequest) ID() uuid.UUID                         { return r.id }
func (r *LoanRequest) MemberID() uuid.UUID                   { return r.memberID }
func (r *LoanRequest) Amount() decimal.Decimal               { return r.amount }
func (r *LoanRequest) TermCount() int                        { return r.termCount }
func (r *LoanRequest) MonthlyRate() decimal.Decimal          { return r.monthlyRate }
func (r *LoanRequest) DesiredDisbursement() time.Time        { return r.desiredDisbursement }
func (r *LoanRequest) Status() valueobject.LoanRequestStatus { return r.status }
func (r *LoanRequest) RequestedAt() time.Time                { return r.requestedAt }
func (r *LoanRequest) DecidedAt() *time.Time                 { return r.decidedAt }

// Approve transitions PENDING -> APPROVED.
func (r *LoanRequest) Approve(now time.Time) error {
	if !r.status.Equal(valueobject.LoanRequestStatusPending) {
		return valueobject.ErrInvalidStatusTransition
	}
	r.status = valueobject.LoanRequestStatusApproved
	r.decidedAt = &now
	r.Record(event.NewLoanRequestApproved(r.id, r.memberID, now))
	return nil
}

// Reject transitions PENDING -> REJECTED.
func (r *LoanRequest) Reject(reason string, now time.Time) error {
	if !r.status.Equal(valueobject.LoanRequestStatusPending) {
		return valueobject.ErrInvalidStatusTransition
	}
	r.status = valueobject.LoanRequestStatusRejected
	r.decidedAt = &now
	r.Record(event.NewLoanRequestRejected(r.id, r.memberID, reason, now))
	return nil
}

// IssueLoan creates the loan for an approved request, disbursed on the
// requested date with the frozen rate.
func (r *LoanRequest) IssueLoan(now time.Time) (*Loan, error) {
	if !r.status.Equal(valueobject.LoanRequestStatusApproved) {
		return nil, valueobject.ErrInvalidStatusTransition
	}
	loan, err := NewLoan(r.memberID, r.amount, r.monthlyRate, r.termCount, r.desiredDisbursement, now)
	if err != nil {
		return nil, err
	}
	loan.BindRequest(r.id)
	return loan, nil
}
