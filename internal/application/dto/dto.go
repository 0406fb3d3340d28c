package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CreateLoanRequest carries the data needed to issue a new loan. When
// MonthlyRate is nil the rate is looked up from the rate table using the
// member's class and the term count.
type CreateLoanRequest struct {
	MemberID         uuid.UUID        `json:"member_id"`
	Principal        decimal.Decimal  `json:"principal"`
	MonthlyRate      *decimal.Decimal `json:"monthly_rate,omitempty"`
	TermCount        int              `json:"term_count"`
	DisbursementDate time.Time        `json:"disbursement_date"`
}

// UpdateLoanRequest changes a loan's terms. Nil fields keep their current
// value; changing any of the three regenerates the schedule.
type UpdateLoanRequest struct {
	LoanID      uuid.UUID        `json:"loan_id"`
	Principal   *decimal.Decimal `json:"principal,omitempty"`
	MonthlyRate *decimal.Decimal `json:"monthly_rate,omitempty"`
	TermCount   *int             `json:"term_count,omitempty"`
}

// SubmitLoanRequestRequest carries a member's loan application. The monthly
// rate is resolved from the rate table and frozen on the request.
type SubmitLoanRequestRequest struct {
	MemberID            uuid.UUID       `json:"member_id"`
	Amount              decimal.Decimal `json:"amount"`
	TermCount           int             `json:"term_count"`
	DesiredDisbursement time.Time       `json:"desired_disbursement"`
}

// DecideLoanRequestRequest approves or rejects a pending loan request.
// Approval issues the loan with the frozen rate.
type DecideLoanRequestRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	Approve   bool      `json:"approve"`
	Reason    string    `json:"reason,omitempty"`
}

// RegisterPaymentRequest records an incoming payment reported by a member.
type RegisterPaymentRequest struct {
	PayerID        uuid.UUID       `json:"payer_id"`
	ReportedAmount decimal.Decimal `json:"reported_amount"`
	ReceivedAt     time.Time       `json:"received_at"`
	ReceiptRef     string          `json:"receipt_ref,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// AllocationSpecRequest describes one desired allocation line. LineID set
// means "update the existing line"; InstallmentID set means the line targets
// an installment, otherwise it is a generic contribution. Nil amounts are
// defaulted from pending balances.
type AllocationSpecRequest struct {
	LineID        *uuid.UUID       `json:"line_id,omitempty"`
	InstallmentID *uuid.UUID       `json:"installment_id,omitempty"`
	Capital       *decimal.Decimal `json:"capital,omitempty"`
	Interest      *decimal.Decimal `json:"interest,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	ContributedOn *time.Time       `json:"contributed_on,omitempty"`
}

// ReconcilePaymentRequest replaces a payment's allocation line set.
type ReconcilePaymentRequest struct {
	PaymentID uuid.UUID               `json:"payment_id"`
	Lines     []AllocationSpecRequest `json:"lines"`
}

// DeleteAllocationLineRequest removes one allocation line from a payment.
type DeleteAllocationLineRequest struct {
	PaymentID uuid.UUID `json:"payment_id"`
	LineID    uuid.UUID `json:"line_id"`
}

// LookupRateRequest resolves the applicable monthly rate for a member class
// and term count.
type LookupRateRequest struct {
	MemberClass string `json:"member_class"`
	TermCount   int    `json:"term_count"`
}

// DistributionReportRequest computes the fund distribution for a fiscal year.
type DistributionReportRequest struct {
	Year int `json:"year"`
}

// MemberSummaryRequest identifies a member to summarize.
type MemberSummaryRequest struct {
	MemberID uuid.UUID `json:"member_id"`
}

// UpsertFundBalanceRequest declares the fund's cash position for a year.
type UpsertFundBalanceRequest struct {
	Year   int             `json:"year"`
	Cash   decimal.Decimal `json:"cash"`
	Bank   decimal.Decimal `json:"bank"`
	Wallet decimal.Decimal `json:"wallet"`
	Notes  string          `json:"notes,omitempty"`
}

// RecalculateAggregatesRequest triggers a full rebuild of derived ledger
// state. With LoanID set only that loan's installments are rebuilt.
type RecalculateAggregatesRequest struct {
	LoanID *uuid.UUID `json:"loan_id,omitempty"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// InstallmentResponse is the external representation of one schedule period.
type InstallmentResponse struct {
	ID                uuid.UUID       `json:"id"`
	LoanID            uuid.UUID       `json:"loan_id"`
	Sequence          int             `json:"sequence"`
	DueDate           time.Time       `json:"due_date"`
	ScheduledCapital  decimal.Decimal `json:"scheduled_capital"`
	ScheduledInterest decimal.Decimal `json:"scheduled_interest"`
	Total             decimal.Decimal `json:"total"`
	PaidCapital       decimal.Decimal `json:"paid_capital"`
	PaidInterest      decimal.Decimal `json:"paid_interest"`
	PendingCapital    decimal.Decimal `json:"pending_capital"`
	PendingInterest   decimal.Decimal `json:"pending_interest"`
	State             string          `json:"state"`
}

// LoanResponse is the external representation of a loan.
type LoanResponse struct {
	ID                 uuid.UUID             `json:"id"`
	MemberID           uuid.UUID             `json:"member_id"`
	RequestID          *uuid.UUID            `json:"request_id,omitempty"`
	Principal          decimal.Decimal       `json:"principal"`
	MonthlyRate        decimal.Decimal       `json:"monthly_rate"`
	TermCount          int                   `json:"term_count"`
	DisbursementDate   time.Time             `json:"disbursement_date"`
	FixedInstallment   decimal.Decimal       `json:"fixed_installment"`
	OutstandingCapital decimal.Decimal       `json:"outstanding_capital"`
	CollectedInterest  decimal.Decimal       `json:"collected_interest"`
	Schedule           []InstallmentResponse `json:"schedule,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// LoanRequestResponse is the external representation of a loan request.
type LoanRequestResponse struct {
	ID                  uuid.UUID       `json:"id"`
	MemberID            uuid.UUID       `json:"member_id"`
	Amount              decimal.Decimal `json:"amount"`
	TermCount           int             `json:"term_count"`
	MonthlyRate         decimal.Decimal `json:"monthly_rate"`
	DesiredDisbursement time.Time       `json:"desired_disbursement"`
	Status              string          `json:"status"`
	RequestedAt         time.Time       `json:"requested_at"`
	DecidedAt           *time.Time      `json:"decided_at,omitempty"`
	LoanID              *uuid.UUID      `json:"loan_id,omitempty"`
}

// AllocationLineResponse is the external representation of one allocation
// line.
type AllocationLineResponse struct {
	ID             uuid.UUID       `json:"id"`
	Kind           string          `json:"kind"`
	InstallmentID  *uuid.UUID      `json:"installment_id,omitempty"`
	LoanID         *uuid.UUID      `json:"loan_id,omitempty"`
	ContributionID *uuid.UUID      `json:"contribution_id,omitempty"`
	ContributedOn  *time.Time      `json:"contributed_on,omitempty"`
	Capital        decimal.Decimal `json:"capital"`
	Interest       decimal.Decimal `json:"interest"`
	Amount         decimal.Decimal `json:"amount"`
}

// PaymentResponse is the external representation of a payment.
type PaymentResponse struct {
	ID             uuid.UUID                `json:"id"`
	PayerID        uuid.UUID                `json:"payer_id"`
	ReportedAmount decimal.Decimal          `json:"reported_amount"`
	AppliedTotal   decimal.Decimal          `json:"applied_total"`
	Shortfall      decimal.Decimal          `json:"shortfall"`
	Reconciled     bool                     `json:"reconciled"`
	ReceivedAt     time.Time                `json:"received_at"`
	ReceiptRef     string                   `json:"receipt_ref,omitempty"`
	Notes          string                   `json:"notes,omitempty"`
	Lines          []AllocationLineResponse `json:"lines,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// RateResponse is the resolved rate for a lookup.
type RateResponse struct {
	MemberClass   string          `json:"member_class"`
	Category      string          `json:"category"`
	MinTerm       int             `json:"min_term"`
	MaxTerm       int             `json:"max_term"`
	MonthlyRate   decimal.Decimal `json:"monthly_rate"`
	EffectiveFrom time.Time       `json:"effective_from"`
}

// MemberDistributionResponse is one row of the distribution report.
type MemberDistributionResponse struct {
	MemberID           uuid.UUID       `json:"member_id"`
	Name               string          `json:"name"`
	ContributionTotal  decimal.Decimal `json:"contribution_total"`
	LastContribution   *time.Time      `json:"last_contribution,omitempty"`
	DaysActive         int             `json:"days_active"`
	ParticipationShare decimal.Decimal `json:"participation_share"`
	GrossInterest      decimal.Decimal `json:"gross_interest"`
	AdminFee           decimal.Decimal `json:"admin_fee"`
	NetInterest        decimal.Decimal `json:"net_interest"`
	YieldRate          decimal.Decimal `json:"yield_rate"`
	PayableTotal       decimal.Decimal `json:"payable_total"`
	InterestPaid       decimal.Decimal `json:"interest_paid"`
	OutstandingCapital decimal.Decimal `json:"outstanding_capital"`
	InArrears          bool            `json:"in_arrears"`
}

// ExternalSummaryResponse aggregates non-contributing borrowers.
type ExternalSummaryResponse struct {
	InterestCollected  decimal.Decimal `json:"interest_collected"`
	OutstandingCapital decimal.Decimal `json:"outstanding_capital"`
}

// DistributionReportResponse is the full per-year distribution report.
type DistributionReportResponse struct {
	Year               int                          `json:"year"`
	Today              time.Time                    `json:"today"`
	FundStartDate      time.Time                    `json:"fund_start_date"`
	FundAgeDays        int                          `json:"fund_age_days"`
	TotalContributions decimal.Decimal              `json:"total_contributions"`
	TotalInterest      decimal.Decimal              `json:"total_interest"`
	TotalAdminFees     decimal.Decimal              `json:"total_admin_fees"`
	TotalNetInterest   decimal.Decimal              `json:"total_net_interest"`
	Members            []MemberDistributionResponse `json:"members"`
	External           ExternalSummaryResponse      `json:"external"`
	FundBalance        *FundBalanceResponse         `json:"fund_balance,omitempty"`
}

// MemberSummaryResponse is the per-member activity snapshot.
type MemberSummaryResponse struct {
	MemberID           uuid.UUID       `json:"member_id"`
	Name               string          `json:"name"`
	Class              string          `json:"class"`
	ContributionTotal  decimal.Decimal `json:"contribution_total"`
	LastContribution   *time.Time      `json:"last_contribution,omitempty"`
	ActiveLoans        int             `json:"active_loans"`
	OutstandingCapital decimal.Decimal `json:"outstanding_capital"`
	InterestPaid       decimal.Decimal `json:"interest_paid"`
}

// FundBalanceResponse is the declared cash position of one fiscal year.
type FundBalanceResponse struct {
	Year       int             `json:"year"`
	Cash       decimal.Decimal `json:"cash"`
	Bank       decimal.Decimal `json:"bank"`
	Wallet     decimal.Decimal `json:"wallet"`
	Total      decimal.Decimal `json:"total"`
	Notes      string          `json:"notes,omitempty"`
	ModifiedAt time.Time       `json:"modified_at"`
}

// RecalculateAggregatesResponse reports what a rebuild touched.
type RecalculateAggregatesResponse struct {
	LoansScanned        int `json:"loans_scanned"`
	InstallmentsChanged int `json:"installments_changed"`
	PaymentsScanned     int `json:"payments_scanned"`
	PaymentsChanged     int `json:"payments_changed"`
}
