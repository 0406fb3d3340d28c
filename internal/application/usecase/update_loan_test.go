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

func TestUpdateLoanUseCase(t *testing.T) {
	t.Run("changing the term regenerates the schedule", func(t *testing.T) {
		loan := loanWithSchedule(t)
		loanRepo := &mockLoanRepository{
			findByIDFunc: func(context.Context, uuid.UUID) (*model.Loan, error) {
				return loan, nil
			},
		}
		publisher := &mockEventPublisher{}
		uc := usecase.NewUpdateLoanUseCase(loanRepo, publisher, fixedClock{testNow})

		term := 12
		resp, err := uc.Execute(context.Background(), dto.UpdateLoanRequest{
			LoanID:    loan.ID(),
			TermCount: &term,
		})
		require.NoError(t, err)

		// Principal and rate were left alone.
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(1_000_000), resp.Principal)
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(2), resp.MonthlyRate)
		assert.Equal(t, 12, resp.TermCount)
		require.Len(t, resp.Schedule, 12)

		require.Len(t, loanRepo.savedLoans, 1)
		assert.Equal(t, []string{"fund.loan.schedule_regenerated"}, publisher.eventTypes())
	})

	t.Run("identical terms save without regenerating", func(t *testing.T) {
		loan := loanWithSchedule(t)
		before := loan.Installments()

		loanRepo := &mockLoanRepository{
			findByIDFunc: func(context.Context, uuid.UUID) (*model.Loan, error) {
				return loan, nil
			},
		}
		publisher := &mockEventPublisher{}
		uc := usecase.NewUpdateLoanUseCase(loanRepo, publisher, fixedClock{testNow})

		principal := decimal.NewFromInt(1_000_000)
		_, err := uc.Execute(context.Background(), dto.UpdateLoanRequest{
			LoanID:    loan.ID(),
			Principal: &principal,
		})
		require.NoError(t, err)

		after := loan.Installments()
		for i := range before {
			assert.Equal(t, before[i].ID(), after[i].ID())
		}
		assert.Empty(t, publisher.published)
	})

	t.Run("refused once payments are recorded", func(t *testing.T) {
		loan := loanWithSchedule(t)
		first := loan.Installments()[0]
		require.NoError(t, first.ApplyPaymentAmounts(money.MustFromString("100.00"), decimal.Zero))

		loanRepo := &mockLoanRepository{
			findByIDFunc: func(context.Context, uuid.UUID) (*model.Loan, error) {
				return loan, nil
			},
		}
		uc := usecase.NewUpdateLoanUseCase(loanRepo, &mockEventPublisher{}, fixedClock{testNow})

		term := 12
		_, err := uc.Execute(context.Background(), dto.UpdateLoanRequest{
			LoanID:    loan.ID(),
			TermCount: &term,
		})

		assert.ErrorIs(t, err, model.ErrScheduleLocked)
		assert.Empty(t, loanRepo.savedLoans)
	})

	t.Run("unknown loan fails with not found", func(t *testing.T) {
		uc := usecase.NewUpdateLoanUseCase(&mockLoanRepository{}, &mockEventPublisher{}, fixedClock{testNow})
		_, err := uc.Execute(context.Background(), dto.UpdateLoanRequest{LoanID: uuid.New()})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
