package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/pkg/money"
	"github.com/FONAR-bit/fonar-project/pkg/testutil"
)

func TestPropagatorApplyDelta(t *testing.T) {
	var propagator service.ReconciliationPropagator

	t.Run("emits a settlement event on the open to settled transition", func(t *testing.T) {
		inst := newInstallment(t, "800.00", "200.00")

		evts, err := propagator.ApplyDelta(inst, money.MustFromString("800.00"), decimal.Zero, now)
		require.NoError(t, err)

		require.Len(t, evts, 1)
		assert.Equal(t, "fund.installment.settled", evts[0].EventType())
	})

	t.Run("no event without a transition", func(t *testing.T) {
		inst := newInstallment(t, "800.00", "200.00")

		evts, err := propagator.ApplyDelta(inst, money.MustFromString("100.00"), decimal.Zero, now)
		require.NoError(t, err)
		assert.Empty(t, evts)

		// Still settled after a further payment: no second event.
		_, err = propagator.ApplyDelta(inst, money.MustFromString("700.00"), decimal.Zero, now)
		require.NoError(t, err)
		evts, err = propagator.ApplyDelta(inst, decimal.Zero, money.MustFromString("50.00"), now)
		require.NoError(t, err)
		assert.Empty(t, evts)
	})

	t.Run("reopening emits its counterpart event", func(t *testing.T) {
		inst := newInstallment(t, "800.00", "200.00")
		_, err := propagator.ApplyDelta(inst, money.MustFromString("800.00"), decimal.Zero, now)
		require.NoError(t, err)

		evts, err := propagator.ApplyDelta(inst, money.MustFromString("-1.00"), decimal.Zero, now)
		require.NoError(t, err)

		require.Len(t, evts, 1)
		assert.Equal(t, "fund.installment.reopened", evts[0].EventType())
	})

	t.Run("integrity faults abort before mutation", func(t *testing.T) {
		inst := newInstallment(t, "800.00", "200.00")

		var negErr *model.NegativeBalanceError
		_, err := propagator.ApplyDelta(inst, money.MustFromString("-1.00"), decimal.Zero, now)
		require.ErrorAs(t, err, &negErr)
		assert.False(t, inst.HasPayments())
	})
}

func TestPropagatorRebuild(t *testing.T) {
	var propagator service.ReconciliationPropagator

	t.Run("recomputes totals from the lines targeting the installment", func(t *testing.T) {
		inst := newInstallment(t, "800.00", "200.00")
		other := newInstallment(t, "500.00", "100.00")

		// Stored totals have drifted.
		require.NoError(t, inst.SetPaidTotals(money.MustFromString("999.00"), money.MustFromString("999.00")))

		lineA, err := model.NewInstallmentLine(testutil.TestPaymentID, inst, money.MustFromString("300.00"), money.MustFromString("50.00"))
		require.NoError(t, err)
		lineB, err := model.NewInstallmentLine(testutil.TestPaymentID, inst, money.MustFromString("200.00"), money.MustFromString("25.00"))
		require.NoError(t, err)
		foreign, err := model.NewInstallmentLine(testutil.TestPaymentID, other, money.MustFromString("400.00"), decimal.Zero)
		require.NoError(t, err)
		contribution, err := model.NewContributionLine(testutil.TestPaymentID, money.MustFromString("10.00"), nil)
		require.NoError(t, err)

		evts, err := propagator.Rebuild(inst, []*model.AllocationLine{lineA, lineB, foreign, contribution}, now)
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, money.MustFromString("500.00"), inst.PaidCapital())
		testutil.AssertDecimalEqual(t, money.MustFromString("75.00"), inst.PaidInterest())
		require.Len(t, evts, 1)
		assert.Equal(t, "fund.installment.reopened", evts[0].EventType())
	})

	t.Run("idempotent: a second rebuild changes nothing", func(t *testing.T) {
		inst := newInstallment(t, "800.00", "200.00")
		line, err := model.NewInstallmentLine(testutil.TestPaymentID, inst, money.MustFromString("800.00"), decimal.Zero)
		require.NoError(t, err)
		lines := []*model.AllocationLine{line}

		evts, err := propagator.Rebuild(inst, lines, now)
		require.NoError(t, err)
		require.Len(t, evts, 1)

		evts, err = propagator.Rebuild(inst, lines, now)
		require.NoError(t, err)
		assert.Empty(t, evts)
		testutil.AssertDecimalEqual(t, money.MustFromString("800.00"), inst.PaidCapital())
	})

	t.Run("no lines resets the installment", func(t *testing.T) {
		inst := newInstallment(t, "800.00", "200.00")
		require.NoError(t, inst.SetPaidTotals(money.MustFromString("800.00"), decimal.Zero))
		require.True(t, inst.Settled())

		evts, err := propagator.Rebuild(inst, nil, now)
		require.NoError(t, err)

		assert.False(t, inst.HasPayments())
		assert.False(t, inst.Settled())
		require.Len(t, evts, 1)
		assert.Equal(t, "fund.installment.reopened", evts[0].EventType())
	})
}

func TestPropagatorSyncPayment(t *testing.T) {
	var propagator service.ReconciliationPropagator

	payment := newPayment(t, "500.00")
	line, err := model.NewContributionLine(payment.ID(), money.MustFromString("500.00"), nil)
	require.NoError(t, err)
	payment.AttachLine(line)

	assert.True(t, propagator.SyncPayment(payment, now))
	assert.True(t, payment.Reconciled())

	// Idempotent.
	assert.False(t, propagator.SyncPayment(payment, now))
	assert.True(t, payment.Reconciled())
}
