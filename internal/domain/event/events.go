package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// ---------------------------------------------------------------------------
// Loan events
// ---------------------------------------------------------------------------

// LoanCreated is raised when a loan is created and its schedule generated.
type LoanCreated struct {
	events.BaseEvent
	MemberID         uuid.UUID       `json:"member_id"`
	Principal        decimal.Decimal `json:"principal"`
	MonthlyRate      decimal.Decimal `json:"monthly_rate"`
	TermCount        int             `json:"term_count"`
	DisbursementDate time.Time       `json:"disbursement_date"`
}

func NewLoanCreated(
	loanID, memberID uuid.UUID,
	principal, monthlyRate decimal.Decimal,
	termCount int,
	disbursementDate, now time.Time,
) LoanCreated {
	return LoanCreated{
		BaseEvent:        events.NewBaseEvent("fund.loan.created", loanID, "Loan", now),
		MemberID:         memberID,
		Principal:        principal,
		MonthlyRate:      monthlyRate,
		TermCount:        termCount,
		DisbursementDate: disbursementDate,
	}
}

// ScheduleRegenerated is raised when a loan's terms change and its
// installment schedule is rebuilt.
type ScheduleRegenerated struct {
	events.BaseEvent
	Principal   decimal.Decimal `json:"principal"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	TermCount   int             `json:"term_count"`
}

func NewScheduleRegenerated(
	loanID uuid.UUID,
	principal, monthlyRate decimal.Decimal,
	termCount int,
	now time.Time,
) ScheduleRegenerated {
	return ScheduleRegenerated{
		BaseEvent:   events.NewBaseEvent("fund.loan.schedule_regenerated", loanID, "Loan", now),
		Principal:   principal,
		MonthlyRate: monthlyRate,
		TermCount:   termCount,
	}
}

// InstallmentSettled is raised when an installment's paid capital reaches its
// scheduled capital.
type InstallmentSettled struct {
	events.BaseEvent
	LoanID   uuid.UUID `json:"loan_id"`
	Sequence int       `json:"sequence"`
}

func NewInstallmentSettled(installmentID, loanID uuid.UUID, sequence int, now time.Time) InstallmentSettled {
	return InstallmentSettled{
		BaseEvent: events.NewBaseEvent("fund.installment.settled", installmentID, "Installment", now),
		LoanID:    loanID,
		Sequence:  sequence,
	}
}

// InstallmentReopened is raised when a previously settled installment drops
// back below its scheduled capital after an allocation is reduced or removed.
type InstallmentReopened struct {
	events.BaseEvent
	LoanID   uuid.UUID `json:"loan_id"`
	Sequence int       `json:"sequence"`
}

func NewInstallmentReopened(installmentID, loanID uuid.UUID, sequence int, now time.Time) InstallmentReopened {
	return InstallmentReopened{
		BaseEvent: events.NewBaseEvent("fund.installment.reopened", installmentID, "Installment", now),
		LoanID:    loanID,
		Sequence:  sequence,
	}
}

// ---------------------------------------------------------------------------
// Payment events
// ---------------------------------------------------------------------------

// PaymentRegistered is raised when a member reports an incoming payment.
type PaymentRegistered struct {
	events.BaseEvent
	PayerID        uuid.UUID       `json:"payer_id"`
	ReportedAmount decimal.Decimal `json:"reported_amount"`
}

func NewPaymentRegistered(paymentID, payerID uuid.UUID, reportedAmount decimal.Decimal, now time.Time) PaymentRegistered {
	return PaymentRegistered{
		BaseEvent:      events.NewBaseEvent("fund.payment.registered", paymentID, "Payment", now),
		PayerID:        payerID,
		ReportedAmount: reportedAmount,
	}
}

// PaymentReconciled is raised when a payment's allocations cover its reported
// amount exactly.
type PaymentReconciled struct {
	events.BaseEvent
	PayerID      uuid.UUID       `json:"payer_id"`
	AppliedTotal decimal.Decimal `json:"applied_total"`
}

func NewPaymentReconciled(paymentID, payerID uuid.UUID, appliedTotal decimal.Decimal, now time.Time) PaymentReconciled {
	return PaymentReconciled{
		BaseEvent:    events.NewBaseEvent("fund.payment.reconciled", paymentID, "Payment", now),
		PayerID:      payerID,
		AppliedTotal: appliedTotal,
	}
}

// ContributionRecorded is raised when a contribution enters the pool, whether
// reported directly or carved out of a payment.
type ContributionRecorded struct {
	events.BaseEvent
	MemberID      uuid.UUID       `json:"member_id"`
	Amount        decimal.Decimal `json:"amount"`
	ContributedOn time.Time       `json:"contributed_on"`
}

func NewContributionRecorded(contributionID, memberID uuid.UUID, amount decimal.Decimal, contributedOn, now time.Time) ContributionRecorded {
	return ContributionRecorded{
		BaseEvent:     events.NewBaseEvent("fund.contribution.recorded", contributionID, "Contribution", now),
		MemberID:      memberID,
		Amount:        amount,
		ContributedOn: contributedOn,
	}
}

// ---------------------------------------------------------------------------
// Loan request events
// ---------------------------------------------------------------------------

// LoanRequestSubmitted is raised when a member requests a loan. The monthly
// rate is frozen at submission time.
type LoanRequestSubmitted struct {
	events.BaseEvent
	MemberID    uuid.UUID       `json:"member_id"`
	Amount      decimal.Decimal `json:"amount"`
	TermCount   int             `json:"term_count"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
}

func NewLoanRequestSubmitted(
	requestID, memberID uuid.UUID,
	amount decimal.Decimal,
	termCount int,
	monthlyRate decimal.Decimal,
	now time.Time,
) LoanRequestSubmitted {
	return LoanRequestSubmitted{
		BaseEvent:   events.NewBaseEvent("fund.loan_request.submitted", requestID, "LoanRequest", now),
		MemberID:    memberID,
		Amount:      amount,
		TermCount:   termCount,
		MonthlyRate: monthlyRate,
	}
}

// LoanRequestApproved is raised when a pending request is approved.
type LoanRequestApproved struct {
	events.BaseEvent
	MemberID uuid.UUID `json:"member_id"`
}

func NewLoanRequestApproved(requestID, memberID uuid.UUID, now time.Time) LoanRequestApproved {
	return LoanRequestApproved{
		BaseEvent: events.NewBaseEvent("fund.loan_request.approved", requestID, "LoanRequest", now),
		MemberID:  memberID,
	}
}

// LoanRequestRejected is raised when a pending request is rejected.
type LoanRequestRejected struct {
	events.BaseEvent
	MemberID uuid.UUID `json:"member_id"`
	Reason   string    `json:"reason"`
}

func NewLoanRequestRejected(requestID, memberID uuid.UUID, reason string, now time.Time) LoanRequestRejected {
	return LoanRequestRejected{
		BaseEvent: events.NewBaseEvent("fund.loan_request.rejected", requestID, "LoanRequest", now),
		MemberID:  memberID,
		Reason:    reason,
	}
}
