package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/application/usecase"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/pkg/money"
	"github.com/FONAR-bit/fonar-project/pkg/testutil"
)

func TestRecalculateAggregatesUseCase(t *testing.T) {
	t.Run("repairs drifted installment totals and payment flags", func(t *testing.T) {
		loan := loanWithSchedule(t)
		first := loan.Installments()[0]

		// The allocation lines are the source of truth: one line fully covers
		// the first installment and the payment.
		payment := reportedPayment(t, "178525.81")
		line, err := model.NewInstallmentLine(payment.ID(), first, money.MustFromString("158525.81"), money.MustFromString("20000.00"))
		require.NoError(t, err)
		payment.AttachLine(line)

		// Stored aggregates drifted: the installment shows nothing paid and
		// the payment is still marked unreconciled.
		require.False(t, first.HasPayments())
		require.False(t, payment.Reconciled())

		loanRepo := &mockLoanRepository{
			listAllFunc: func(context.Context) ([]*model.Loan, error) {
				return []*model.Loan{loan}, nil
			},
		}
		paymentRepo := &mockPaymentRepository{
			listAllFunc: func(context.Context) ([]*model.Payment, error) {
				return []*model.Payment{payment}, nil
			},
		}
		publisher := &mockEventPublisher{}
		uc := usecase.NewRecalculateAggregatesUseCase(loanRepo, paymentRepo, publisher, fixedClock{testNow})

		resp, err := uc.Execute(context.Background(), dto.RecalculateAggregatesRequest{})
		require.NoError(t, err)

		assert.Equal(t, 1, resp.LoansScanned)
		assert.Equal(t, 1, resp.InstallmentsChanged)
		assert.Equal(t, 1, resp.PaymentsScanned)
		assert.Equal(t, 1, resp.PaymentsChanged)

		assert.True(t, first.Settled())
		testutil.AssertDecimalEqual(t, money.MustFromString("158525.81"), first.PaidCapital())
		assert.True(t, payment.Reconciled())

		require.Len(t, loanRepo.savedLoans, 1)
		require.Len(t, paymentRepo.savedPayments, 1)
		assert.Contains(t, publisher.eventTypes(), "fund.installment.settled")
		assert.Contains(t, publisher.eventTypes(), "fund.payment.reconciled")
	})

	t.Run("a consistent ledger is left untouched", func(t *testing.T) {
		loan := loanWithSchedule(t)

		loanRepo := &mockLoanRepository{
			listAllFunc: func(context.Context) ([]*model.Loan, error) {
				return []*model.Loan{loan}, nil
			},
		}
		paymentRepo := &mockPaymentRepository{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewRecalculateAggregatesUseCase(loanRepo, paymentRepo, publisher, fixedClock{testNow})

		resp, err := uc.Execute(context.Background(), dto.RecalculateAggregatesRequest{})
		require.NoError(t, err)

		assert.Equal(t, 1, resp.LoansScanned)
		assert.Equal(t, 0, resp.InstallmentsChanged)
		assert.Equal(t, 0, resp.PaymentsChanged)
		assert.Empty(t, loanRepo.savedLoans)
		assert.Empty(t, publisher.published)
	})

	t.Run("orphaned paid totals are reset to the line sum", func(t *testing.T) {
		loan := loanWithSchedule(t)
		first := loan.Installments()[0]
		require.NoError(t, first.SetPaidTotals(money.MustFromString("999.99"), decimal.Zero))

		loanRepo := &mockLoanRepository{
			findByIDFunc: func(_ context.Context, id uuid.UUID) (*model.Loan, error) {
				require.Equal(t, loan.ID(), id)
				return loan, nil
			},
		}
		uc := usecase.NewRecalculateAggregatesUseCase(loanRepo, &mockPaymentRepository{}, &mockEventPublisher{}, fixedClock{testNow})

		loanID := loan.ID()
		resp, err := uc.Execute(context.Background(), dto.RecalculateAggregatesRequest{LoanID: &loanID})
		require.NoError(t, err)

		assert.Equal(t, 1, resp.InstallmentsChanged)
		assert.False(t, first.HasPayments())
		require.Len(t, loanRepo.savedLoans, 1)
	})

	t.Run("running twice is idempotent", func(t *testing.T) {
		loan := loanWithSchedule(t)
		first := loan.Installments()[0]
		payment := reportedPayment(t, "178525.81")
		line, err := model.NewInstallmentLine(payment.ID(), first, money.MustFromString("158525.81"), money.MustFromString("20000.00"))
		require.NoError(t, err)
		payment.AttachLine(line)

		loanRepo := &mockLoanRepository{
			listAllFunc: func(context.Context) ([]*model.Loan, error) {
				return []*model.Loan{loan}, nil
			},
		}
		paymentRepo := &mockPaymentRepository{
			listAllFunc: func(context.Context) ([]*model.Payment, error) {
				return []*model.Payment{payment}, nil
			},
		}
		uc := usecase.NewRecalculateAggregatesUseCase(loanRepo, paymentRepo, &mockEventPublisher{}, fixedClock{testNow})

		_, err = uc.Execute(context.Background(), dto.RecalculateAggregatesRequest{})
		require.NoError(t, err)

		resp, err := uc.Execute(context.Background(), dto.RecalculateAggregatesRequest{})
		require.NoError(t, err)
		assert.Equal(t, 0, resp.InstallmentsChanged)
		assert.Equal(t, 0, resp.PaymentsChanged)
	})
}
