package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/application/usecase"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
	"github.com/FONAR-bit/fonar-project/pkg/money"
	"github.com/FONAR-bit/fonar-project/pkg/testutil"
)

var (
	testNow       = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	testDisbursed = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
)

func contributorDirectory() *mockMemberDirectory {
	return &mockMemberDirectory{
		findByIDFunc: func(_ context.Context, id uuid.UUID) (*port.Member, error) {
			return &port.Member{ID: id, Name: "Alice", Class: valueobject.MemberClassContributor}, nil
		},
	}
}

func contributorRates(t *testing.T, rate string) *mockRateTableRepository {
	t.Helper()
	entry, err := model.NewRateEntry(
		valueobject.MemberClassContributor, "", 1, 24,
		money.MustFromString(rate), testDisbursed.AddDate(-1, 0, 0),
	)
	require.NoError(t, err)
	return &mockRateTableRepository{
		listForClassFunc: func(context.Context, valueobject.MemberClass) ([]model.RateEntry, error) {
			return []model.RateEntry{entry}, nil
		},
	}
}

func TestCreateLoanUseCase(t *testing.T) {
	t.Run("creates a loan with an explicit rate", func(t *testing.T) {
		loanRepo := &mockLoanRepository{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewCreateLoanUseCase(loanRepo, &mockRateTableRepository{}, &mockMemberDirectory{}, publisher, fixedClock{testNow})

		rate := decimal.NewFromInt(2)
		resp, err := uc.Execute(context.Background(), dto.CreateLoanRequest{
			MemberID:         testutil.TestMemberID1,
			Principal:        decimal.NewFromInt(1_000_000),
			MonthlyRate:      &rate,
			TermCount:        6,
			DisbursementDate: testDisbursed,
		})
		require.NoError(t, err)

		assert.Equal(t, testutil.TestMemberID1, resp.MemberID)
		testutil.AssertDecimalEqual(t, money.MustFromString("178525.81"), resp.FixedInstallment)
		require.Len(t, resp.Schedule, 6)
		assert.Equal(t, "OPEN", resp.Schedule[0].State)

		require.Len(t, loanRepo.savedLoans, 1)
		assert.Equal(t, []string{"fund.loan.created"}, publisher.eventTypes())
	})

	t.Run("looks up the rate from the member's class and term", func(t *testing.T) {
		loanRepo := &mockLoanRepository{}
		uc := usecase.NewCreateLoanUseCase(loanRepo, contributorRates(t, "1.5"), contributorDirectory(), &mockEventPublisher{}, fixedClock{testNow})

		resp, err := uc.Execute(context.Background(), dto.CreateLoanRequest{
			MemberID:         testutil.TestMemberID1,
			Principal:        decimal.NewFromInt(100_000),
			TermCount:        12,
			DisbursementDate: testDisbursed,
		})
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, money.MustFromString("1.5"), resp.MonthlyRate)
	})

	t.Run("no covering rate fails before anything is saved", func(t *testing.T) {
		loanRepo := &mockLoanRepository{}
		rateRepo := &mockRateTableRepository{
			listForClassFunc: func(context.Context, valueobject.MemberClass) ([]model.RateEntry, error) {
				return nil, nil
			},
		}
		uc := usecase.NewCreateLoanUseCase(loanRepo, rateRepo, contributorDirectory(), &mockEventPublisher{}, fixedClock{testNow})

		_, err := uc.Execute(context.Background(), dto.CreateLoanRequest{
			MemberID:         testutil.TestMemberID1,
			Principal:        decimal.NewFromInt(100_000),
			TermCount:        12,
			DisbursementDate: testDisbursed,
		})

		assert.ErrorIs(t, err, model.ErrNoApplicableRate)
		assert.Empty(t, loanRepo.savedLoans)
	})

	t.Run("save failures are wrapped and propagated", func(t *testing.T) {
		loanRepo := &mockLoanRepository{
			saveFunc: func(context.Context, *model.Loan) error {
				return errors.New("connection reset")
			},
		}
		publisher := &mockEventPublisher{}
		uc := usecase.NewCreateLoanUseCase(loanRepo, &mockRateTableRepository{}, &mockMemberDirectory{}, publisher, fixedClock{testNow})

		rate := decimal.NewFromInt(2)
		_, err := uc.Execute(context.Background(), dto.CreateLoanRequest{
			MemberID:         testutil.TestMemberID1,
			Principal:        decimal.NewFromInt(1000),
			MonthlyRate:      &rate,
			TermCount:        3,
			DisbursementDate: testDisbursed,
		})

		testutil.AssertErrorContains(t, err, "save loan")
		assert.Empty(t, publisher.published)
	})
}
