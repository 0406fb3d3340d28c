package usecase_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
	"github.com/FONAR-bit/fonar-project/pkg/events"
)

// ---------------------------------------------------------------------------
// Hand-rolled mocks
// ---------------------------------------------------------------------------

type mockLoanRepository struct {
	saveFunc                 func(ctx context.Context, loan *model.Loan) error
	findByIDFunc             func(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	findByInstallmentIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*model.Loan, error)
	findByRequestIDFunc      func(ctx context.Context, requestID uuid.UUID) (*model.Loan, error)
	listByMemberFunc         func(ctx context.Context, memberID uuid.UUID) ([]*model.Loan, error)
	listAllFunc              func(ctx context.Context) ([]*model.Loan, error)

	savedLoans []*model.Loan
}

func (m *mockLoanRepository) Save(ctx context.Context, loan *model.Loan) error {
	m.savedLoans = append(m.savedLoans, loan)
	if m.saveFunc != nil {
		return m.saveFunc(ctx, loan)
	}
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockLoanRepository) FindByInstallmentIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Loan, error) {
	if m.findByInstallmentIDsFunc != nil {
		return m.findByInstallmentIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockLoanRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.Loan, error) {
	if m.findByRequestIDFunc != nil {
		return m.findByRequestIDFunc(ctx, requestID)
	}
	return nil, model.ErrNotFound
}

func (m *mockLoanRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Loan, error) {
	if m.listByMemberFunc != nil {
		return m.listByMemberFunc(ctx, memberID)
	}
	return nil, nil
}

func (m *mockLoanRepository) ListAll(ctx context.Context) ([]*model.Loan, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

type mockPaymentRepository struct {
	saveFunc                     func(ctx context.Context, payment *model.Payment) error
	findByIDFunc                 func(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	listByPayerFunc              func(ctx context.Context, payerID uuid.UUID) ([]*model.Payment, error)
	listAllFunc                  func(ctx context.Context) ([]*model.Payment, error)
	saveReconciliationFunc       func(ctx context.Context, payment *model.Payment, result *service.ReconcileResult) error
	interestByBorrowerInYearFunc func(ctx context.Context, year int) (map[uuid.UUID]decimal.Decimal, error)

	savedPayments        []*model.Payment
	savedReconciliations []*service.ReconcileResult
}

func (m *mockPaymentRepository) Save(ctx context.Context, payment *model.Payment) error {
	m.savedPayments = append(m.savedPayments, payment)
	if m.saveFunc != nil {
		return m.saveFunc(ctx, payment)
	}
	return nil
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockPaymentRepository) ListByPayer(ctx context.Context, payerID uuid.UUID) ([]*model.Payment, error) {
	if m.listByPayerFunc != nil {
		return m.listByPayerFunc(ctx, payerID)
	}
	return nil, nil
}

func (m *mockPaymentRepository) ListAll(ctx context.Context) ([]*model.Payment, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockPaymentRepository) SaveReconciliation(ctx context.Context, payment *model.Payment, result *service.ReconcileResult) error {
	m.savedReconciliations = append(m.savedReconciliations, result)
	if m.saveReconciliationFunc != nil {
		return m.saveReconciliationFunc(ctx, payment, result)
	}
	return nil
}

func (m *mockPaymentRepository) InterestByBorrowerInYear(ctx context.Context, year int) (map[uuid.UUID]decimal.Decimal, error) {
	if m.interestByBorrowerInYearFunc != nil {
		return m.interestByBorrowerInYearFunc(ctx, year)
	}
	return nil, nil
}

type mockContributionRepository struct {
	saveFunc         func(ctx context.Context, contribution *model.Contribution) error
	findByIDFunc     func(ctx context.Context, id uuid.UUID) (*model.Contribution, error)
	listByMemberFunc func(ctx context.Context, memberID uuid.UUID) ([]*model.Contribution, error)
	listByYearFunc   func(ctx context.Context, year int) ([]*model.Contribution, error)
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockContributionRepository) Save(ctx context.Context, contribution *model.Contribution) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, contribution)
	}
	return nil
}

func (m *mockContributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Contribution, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockContributionRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Contribution, error) {
	if m.listByMemberFunc != nil {
		return m.listByMemberFunc(ctx, memberID)
	}
	return nil, nil
}

func (m *mockContributionRepository) ListByYear(ctx context.Context, year int) ([]*model.Contribution, error) {
	if m.listByYearFunc != nil {
		return m.listByYearFunc(ctx, year)
	}
	return nil, nil
}

func (m *mockContributionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockRateTableRepository struct {
	saveFunc         func(ctx context.Context, entry model.RateEntry) error
	listForClassFunc func(ctx context.Context, class valueobject.MemberClass) ([]model.RateEntry, error)
}

func (m *mockRateTableRepository) Save(ctx context.Context, entry model.RateEntry) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, entry)
	}
	return nil
}

func (m *mockRateTableRepository) ListForClass(ctx context.Context, class valueobject.MemberClass) ([]model.RateEntry, error) {
	if m.listForClassFunc != nil {
		return m.listForClassFunc(ctx, class)
	}
	return nil, nil
}

type mockLoanRequestRepository struct {
	saveFunc        func(ctx context.Context, request *model.LoanRequest) error
	findByIDFunc    func(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error)
	listPendingFunc func(ctx context.Context) ([]*model.LoanRequest, error)

	savedRequests []*model.LoanRequest
}

func (m *mockLoanRequestRepository) Save(ctx context.Context, request *model.LoanRequest) error {
	m.savedRequests = append(m.savedRequests, request)
	if m.saveFunc != nil {
		return m.saveFunc(ctx, request)
	}
	return nil
}

func (m *mockLoanRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockLoanRequestRepository) ListPending(ctx context.Context) ([]*model.LoanRequest, error) {
	if m.listPendingFunc != nil {
		return m.listPendingFunc(ctx)
	}
	return nil, nil
}

type mockFundBalanceRepository struct {
	upsertFunc     func(ctx context.Context, balance *model.FundBalance) error
	findByYearFunc func(ctx context.Context, year int) (*model.FundBalance, error)
	listAllFunc    func(ctx context.Context) ([]*model.FundBalance, error)

	savedBalances []*model.FundBalance
}

func (m *mockFundBalanceRepository) Upsert(ctx context.Context, balance *model.FundBalance) error {
	m.savedBalances = append(m.savedBalances, balance)
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, balance)
	}
	return nil
}

func (m *mockFundBalanceRepository) FindByYear(ctx context.Context, year int) (*model.FundBalance, error) {
	if m.findByYearFunc != nil {
		return m.findByYearFunc(ctx, year)
	}
	return nil, model.ErrNotFound
}

func (m *mockFundBalanceRepository) ListAll(ctx context.Context) ([]*model.FundBalance, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

type mockMemberDirectory struct {
	findByIDFunc func(ctx context.Context, id uuid.UUID) (*port.Member, error)
	listAllFunc  func(ctx context.Context) ([]port.Member, error)
}

func (m *mockMemberDirectory) FindByID(ctx context.Context, id uuid.UUID) (*port.Member, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockMemberDirectory) ListAll(ctx context.Context) ([]port.Member, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

type mockEventPublisher struct {
	publishFunc func(ctx context.Context, evts ...events.DomainEvent) error

	published []events.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	m.published = append(m.published, evts...)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	return nil
}

func (m *mockEventPublisher) Close() error { return nil }

func (m *mockEventPublisher) eventTypes() []string {
	types := make([]string, 0, len(m.published))
	for _, evt := range m.published {
		types = append(types, evt.EventType())
	}
	return types
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
