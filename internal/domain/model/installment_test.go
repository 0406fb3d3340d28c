package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
	"github.com/FONAR-bit/fonar-project/pkg/money"
	"github.com/FONAR-bit/fonar-project/pkg/testutil"
)

func openInstallment(t *testing.T, capital, interest string) *model.Installment {
	t.Helper()
	scheduledCapital := money.MustFromString(capital)
	scheduledInterest := money.MustFromString(interest)
	return model.ReconstructInstallment(
		uuid.New(), testutil.TestLoanID,
		1, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		scheduledCapital, scheduledInterest, scheduledCapital.Add(scheduledInterest),
		decimal.Zero, decimal.Zero,
		false,
	)
}

func TestInstallmentApplyPaymentAmounts(t *testing.T) {
	t.Run("accumulates paid totals", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")

		err := inst.ApplyPaymentAmounts(money.MustFromString("300.00"), money.MustFromString("50.00"))
		require.NoError(t, err)
		err = inst.ApplyPaymentAmounts(money.MustFromString("100.00"), money.MustFromString("25.00"))
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, money.MustFromString("400.00"), inst.PaidCapital())
		testutil.AssertDecimalEqual(t, money.MustFromString("75.00"), inst.PaidInterest())
		testutil.AssertDecimalEqual(t, money.MustFromString("400.00"), inst.PendingCapital())
		testutil.AssertDecimalEqual(t, money.MustFromString("125.00"), inst.PendingInterest())
		assert.False(t, inst.Settled())
	})

	t.Run("settles on capital alone, interest shortfall notwithstanding", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")

		err := inst.ApplyPaymentAmounts(money.MustFromString("800.00"), decimal.Zero)
		require.NoError(t, err)

		assert.True(t, inst.Settled())
		assert.True(t, inst.State().Equal(valueobject.InstallmentStateSettled))
		testutil.AssertDecimalEqual(t, money.MustFromString("200.00"), inst.PendingInterest())
	})

	t.Run("negative delta reopens a settled installment", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")
		require.NoError(t, inst.ApplyPaymentAmounts(money.MustFromString("800.00"), money.MustFromString("200.00")))
		require.True(t, inst.Settled())

		err := inst.ApplyPaymentAmounts(money.MustFromString("-100.00"), decimal.Zero)
		require.NoError(t, err)

		assert.False(t, inst.Settled())
		assert.True(t, inst.State().Equal(valueobject.InstallmentStateOpen))
		testutil.AssertDecimalEqual(t, money.MustFromString("100.00"), inst.PendingCapital())
	})

	t.Run("rejects deltas that would drive paid capital negative", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")
		require.NoError(t, inst.ApplyPaymentAmounts(money.MustFromString("100.00"), decimal.Zero))

		err := inst.ApplyPaymentAmounts(money.MustFromString("-150.00"), decimal.Zero)

		var negErr *model.NegativeBalanceError
		require.ErrorAs(t, err, &negErr)
		assert.Equal(t, inst.ID(), negErr.InstallmentID)
		assert.Equal(t, "paid capital", negErr.Field)
		// Nothing changed.
		testutil.AssertDecimalEqual(t, money.MustFromString("100.00"), inst.PaidCapital())
	})

	t.Run("rejects deltas that would drive paid interest negative", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")

		err := inst.ApplyPaymentAmounts(decimal.Zero, money.MustFromString("-0.01"))

		var negErr *model.NegativeBalanceError
		require.ErrorAs(t, err, &negErr)
		assert.Equal(t, "paid interest", negErr.Field)
	})

	t.Run("overpaid capital floors pending at zero", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")
		require.NoError(t, inst.ApplyPaymentAmounts(money.MustFromString("900.00"), decimal.Zero))

		assert.True(t, inst.PendingCapital().IsZero())
		assert.True(t, inst.Settled())
	})
}

func TestInstallmentSetPaidTotals(t *testing.T) {
	t.Run("overwrites totals and re-derives settlement", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")
		require.NoError(t, inst.ApplyPaymentAmounts(money.MustFromString("500.00"), decimal.Zero))

		err := inst.SetPaidTotals(money.MustFromString("800.00"), money.MustFromString("150.00"))
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, money.MustFromString("800.00"), inst.PaidCapital())
		testutil.AssertDecimalEqual(t, money.MustFromString("150.00"), inst.PaidInterest())
		assert.True(t, inst.Settled())
	})

	t.Run("rejects negative totals", func(t *testing.T) {
		inst := openInstallment(t, "800.00", "200.00")

		var negErr *model.NegativeBalanceError
		require.ErrorAs(t, inst.SetPaidTotals(money.MustFromString("-1"), decimal.Zero), &negErr)
		require.ErrorAs(t, inst.SetPaidTotals(decimal.Zero, money.MustFromString("-1")), &negErr)
	})
}

func TestInstallmentRecomputeSettled(t *testing.T) {
	inst := openInstallment(t, "800.00", "200.00")
	require.NoError(t, inst.ApplyPaymentAmounts(money.MustFromString("800.00"), decimal.Zero))

	// Idempotent under repeated recomputation.
	inst.RecomputeSettled()
	inst.RecomputeSettled()
	assert.True(t, inst.Settled())
}

func TestInstallmentHasPayments(t *testing.T) {
	inst := openInstallment(t, "800.00", "200.00")
	assert.False(t, inst.HasPayments())

	require.NoError(t, inst.ApplyPaymentAmounts(decimal.Zero, money.MustFromString("0.01")))
	assert.True(t, inst.HasPayments())
}
