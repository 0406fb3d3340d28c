package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// LoanRepository persists loan aggregates together with their installment
// schedules. Implementations return model.ErrNotFound for missing aggregates.
type LoanRepository interface {
	Save(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	// FindByInstallmentIDs loads the loans owning any of the given
	// installments, deduplicated.
	FindByInstallmentIDs(ctx context.Context, installmentIDs []uuid.UUID) ([]*model.Loan, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.Loan, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Loan, error)
	ListAll(ctx context.Context) ([]*model.Loan, error)
}

// PaymentRepository persists payment aggregates together with their
// allocation lines.
type PaymentRepository interface {
	Save(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	ListByPayer(ctx context.Context, payerID uuid.UUID) ([]*model.Payment, error)
	ListAll(ctx context.Context) ([]*model.Payment, error)
	// SaveReconciliation writes the payment, its line set and the full
	// reconciliation changeset in one transaction, locking the touched
	// installments for the duration.
	SaveReconciliation(ctx context.Context, payment *model.Payment, result *service.ReconcileResult) error
	// InterestByBorrowerInYear sums applied interest per borrowing member
	// over allocation lines whose installment falls due in the given year
	// and whose owning payment is fully reconciled.
	InterestByBorrowerInYear(ctx context.Context, year int) (map[uuid.UUID]decimal.Decimal, error)
}

// ContributionRepository persists contribution records, both directly
// reported ones and those owned by allocation lines.
type ContributionRepository interface {
	Save(ctx context.Context, contribution *model.Contribution) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Contribution, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Contribution, error)
	ListByYear(ctx context.Context, year int) ([]*model.Contribution, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RateTableRepository persists the rate table consulted at loan and request
// creation.
type RateTableRepository interface {
	Save(ctx context.Context, entry model.RateEntry) error
	ListForClass(ctx context.Context, class valueobject.MemberClass) ([]model.RateEntry, error)
}

// LoanRequestRepository persists loan requests.
type LoanRequestRepository interface {
	Save(ctx context.Context, request *model.LoanRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error)
	ListPending(ctx context.Context) ([]*model.LoanRequest, error)
}

// FundBalanceRepository persists the declared per-year fund balances.
type FundBalanceRepository interface {
	Upsert(ctx context.Context, balance *model.FundBalance) error
	FindByYear(ctx context.Context, year int) (*model.FundBalance, error)
	ListAll(ctx context.Context) ([]*model.FundBalance, error)
}

// Member is the identity snapshot the fund keeps about a person: an opaque
// id, a display name and a member class.
type Member struct {
	ID    uuid.UUID
	Name  string
	Class valueobject.MemberClass
}

// MemberDirectory resolves member identity references.
type MemberDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	ListAll(ctx context.Context) ([]Member, error)
}
