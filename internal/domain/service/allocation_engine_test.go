package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/pkg/money"
	"github.com/FONAR-bit/fonar-project/pkg/testutil"
)

var (
	now        = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	receivedAt = time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
)

func newInstallment(t *testing.T, capital, interest string) *model.Installment {
	t.Helper()
	scheduledCapital := money.MustFromString(capital)
	scheduledInterest := money.MustFromString(interest)
	return model.ReconstructInstallment(
		uuid.New(), testutil.TestLoanID,
		1, time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		scheduledCapital, scheduledInterest, scheduledCapital.Add(scheduledInterest),
		decimal.Zero, decimal.Zero,
		false,
	)
}

func newPayment(t *testing.T, reported string) *model.Payment {
	t.Helper()
	p, err := model.NewPayment(testutil.TestMemberID1, money.MustFromString(reported), receivedAt, "RCPT-7", "", now)
	require.NoError(t, err)
	p.ClearEvents()
	return p
}

func resolverFor(installments ...*model.Installment) service.InstallmentResolver {
	byID := map[uuid.UUID]*model.Installment{}
	for _, inst := range installments {
		byID[inst.ID()] = inst
	}
	return func(id uuid.UUID) (*model.Installment, error) {
		return byID[id], nil
	}
}

func contributionsFor(contributions ...*model.Contribution) service.ContributionResolver {
	byID := map[uuid.UUID]*model.Contribution{}
	for _, c := range contributions {
		byID[c.ID()] = c
	}
	return func(id uuid.UUID) (*model.Contribution, error) {
		return byID[id], nil
	}
}

func ptr[T any](v T) *T { return &v }

func TestAllocationEngineReconcile(t *testing.T) {
	engine := service.NewAllocationEngine()

	t.Run("partial allocation leaves the payment unreconciled", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		result, err := engine.Reconcile(payment, []service.AllocationSpec{
			{InstallmentID: &instID},
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)

		// Capital and interest default to the installment's pending amounts.
		require.Len(t, payment.Lines(), 1)
		testutil.AssertDecimalEqual(t, money.MustFromString("80000.00"), payment.AppliedTotal())
		testutil.AssertDecimalEqual(t, money.MustFromString("20000.00"), payment.Shortfall())
		assert.False(t, payment.Reconciled())

		assert.True(t, inst.Settled())
		require.Len(t, result.TouchedInstallments, 1)
		require.Len(t, result.Events, 1)
		assert.Equal(t, "fund.installment.settled", result.Events[0].EventType())
	})

	t.Run("contribution remainder reconciles the payment exactly", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		result, err := engine.Reconcile(payment, []service.AllocationSpec{
			{InstallmentID: &instID},
			{}, // contribution, amount defaulted to the remaining shortfall
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)

		require.Len(t, payment.Lines(), 2)
		assert.True(t, payment.Reconciled())
		assert.True(t, payment.Shortfall().IsZero())

		require.Len(t, result.NewContributions, 1)
		contribution := result.NewContributions[0]
		testutil.AssertDecimalEqual(t, money.MustFromString("20000.00"), contribution.Amount())
		assert.Equal(t, payment.PayerID(), contribution.MemberID())
		assert.Equal(t, receivedAt, contribution.ContributedOn())
		assert.Equal(t, "RCPT-7", contribution.ReceiptRef())

		// The contribution line owns the contribution record.
		var contributionLine *model.AllocationLine
		for _, line := range payment.Lines() {
			if line.IsContribution() {
				contributionLine = line
			}
		}
		require.NotNil(t, contributionLine)
		require.NotNil(t, contributionLine.ContributionID())
		assert.Equal(t, contribution.ID(), *contributionLine.ContributionID())
	})

	t.Run("over-allocation is rejected atomically", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{InstallmentID: &instID},
			{Amount: ptr(money.MustFromString("40000.01"))},
		}, resolverFor(inst), contributionsFor(), now)

		var overErr *model.OverAllocationError
		require.ErrorAs(t, err, &overErr)
		testutil.AssertDecimalEqual(t, money.MustFromString("120000.01"), overErr.Allocated)
		testutil.AssertDecimalEqual(t, money.MustFromString("100000.00"), overErr.Reported)

		// Nothing was mutated.
		assert.Empty(t, payment.Lines())
		assert.False(t, inst.HasPayments())
		assert.False(t, inst.Settled())
	})

	t.Run("explicit split overrides the defaults", func(t *testing.T) {
		payment := newPayment(t, "50000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{
				InstallmentID: &instID,
				Capital:       ptr(money.MustFromString("40000.00")),
				Interest:      ptr(money.MustFromString("10000.00")),
			},
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, money.MustFromString("40000.00"), inst.PaidCapital())
		testutil.AssertDecimalEqual(t, money.MustFromString("10000.00"), inst.PaidInterest())
		assert.False(t, inst.Settled())
		assert.True(t, payment.Reconciled())
	})

	t.Run("updating a kept line applies only the delta", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{
				InstallmentID: &instID,
				Capital:       ptr(money.MustFromString("30000.00")),
				Interest:      ptr(money.MustFromString("10000.00")),
			},
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)

		lineID := payment.Lines()[0].ID()
		_, err = engine.Reconcile(payment, []service.AllocationSpec{
			{
				LineID:   &lineID,
				Capital:  ptr(money.MustFromString("60000.00")),
				Interest: ptr(money.MustFromString("20000.00")),
			},
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)

		require.Len(t, payment.Lines(), 1)
		assert.Equal(t, lineID, payment.Lines()[0].ID())
		testutil.AssertDecimalEqual(t, money.MustFromString("60000.00"), inst.PaidCapital())
		testutil.AssertDecimalEqual(t, money.MustFromString("20000.00"), inst.PaidInterest())
		assert.True(t, inst.Settled())
	})

	t.Run("lines absent from the spec set are removed and reversed", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		first, err := engine.Reconcile(payment, []service.AllocationSpec{
			{InstallmentID: &instID},
			{},
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)
		require.True(t, inst.Settled())
		require.Len(t, first.NewContributions, 1)
		contribution := first.NewContributions[0]

		var contributionLineID uuid.UUID
		for _, line := range payment.Lines() {
			if line.IsContribution() {
				contributionLineID = line.ID()
			}
		}

		// Keep only the contribution line; the installment line is reversed.
		result, err := engine.Reconcile(payment, []service.AllocationSpec{
			{LineID: &contributionLineID},
		}, resolverFor(inst), contributionsFor(contribution), now)
		require.NoError(t, err)

		require.Len(t, payment.Lines(), 1)
		assert.False(t, inst.HasPayments())
		assert.False(t, inst.Settled())
		assert.False(t, payment.Reconciled())
		assert.Empty(t, result.DeleteContributionIDs)

		// The surviving line still owns its contribution, and the record is
		// synced in place.
		require.Len(t, result.SyncedContributions, 1)
		assert.Same(t, contribution, result.SyncedContributions[0])

		reopened := false
		for _, evt := range result.Events {
			if evt.EventType() == "fund.installment.reopened" {
				reopened = true
			}
		}
		assert.True(t, reopened)
	})

	t.Run("retargeting a line to another installment is rejected", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		first := newInstallment(t, "60000.00", "20000.00")
		second := newInstallment(t, "30000.00", "10000.00")
		firstID := first.ID()
		secondID := second.ID()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{InstallmentID: &firstID},
		}, resolverFor(first, second), contributionsFor(), now)
		require.NoError(t, err)

		lineID := payment.Lines()[0].ID()
		_, err = engine.Reconcile(payment, []service.AllocationSpec{
			{LineID: &lineID, InstallmentID: &secondID},
		}, resolverFor(first, second), contributionsFor(), now)
		assert.ErrorIs(t, err, model.ErrInvalidAllocation)
	})

	t.Run("unknown installment fails with not found", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		missing := uuid.New()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{InstallmentID: &missing},
		}, resolverFor(), contributionsFor(), now)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("unknown line fails with not found", func(t *testing.T) {
		payment := newPayment(t, "100000.00")
		missing := uuid.New()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{LineID: &missing},
		}, resolverFor(), contributionsFor(), now)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("two specs against one installment share the same live record", func(t *testing.T) {
		payment := newPayment(t, "80000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{
				InstallmentID: &instID,
				Capital:       ptr(money.MustFromString("30000.00")),
				Interest:      ptr(money.MustFromString("10000.00")),
			},
			{
				InstallmentID: &instID,
				Capital:       ptr(money.MustFromString("30000.00")),
				Interest:      ptr(money.MustFromString("10000.00")),
			},
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, money.MustFromString("60000.00"), inst.PaidCapital())
		testutil.AssertDecimalEqual(t, money.MustFromString("20000.00"), inst.PaidInterest())
		assert.True(t, inst.Settled())
	})

	t.Run("resizing a kept contribution line syncs its record", func(t *testing.T) {
		payment := newPayment(t, "20000.00")

		first, err := engine.Reconcile(payment, []service.AllocationSpec{{}}, resolverFor(), contributionsFor(), now)
		require.NoError(t, err)
		require.Len(t, first.NewContributions, 1)
		contribution := first.NewContributions[0]
		testutil.AssertDecimalEqual(t, money.MustFromString("20000.00"), contribution.Amount())

		lineID := payment.Lines()[0].ID()
		newDate := receivedAt.AddDate(0, 0, 3)
		result, err := engine.Reconcile(payment, []service.AllocationSpec{
			{LineID: &lineID, Amount: ptr(money.MustFromString("15000.00")), ContributedOn: &newDate},
		}, resolverFor(), contributionsFor(contribution), now)
		require.NoError(t, err)

		require.Len(t, result.SyncedContributions, 1)
		assert.Same(t, contribution, result.SyncedContributions[0])
		testutil.AssertDecimalEqual(t, money.MustFromString("15000.00"), contribution.Amount())
		assert.Equal(t, newDate, contribution.ContributedOn())
		assert.Empty(t, result.NewContributions)
	})

	t.Run("a kept line whose contribution record is missing fails before mutating", func(t *testing.T) {
		payment := newPayment(t, "20000.00")

		_, err := engine.Reconcile(payment, []service.AllocationSpec{{}}, resolverFor(), contributionsFor(), now)
		require.NoError(t, err)
		lineID := payment.Lines()[0].ID()

		_, err = engine.Reconcile(payment, []service.AllocationSpec{
			{LineID: &lineID, Amount: ptr(money.MustFromString("10000.00"))},
		}, resolverFor(), contributionsFor(), now)
		assert.ErrorIs(t, err, model.ErrNotFound)

		// The line keeps its original amount.
		testutil.AssertDecimalEqual(t, money.MustFromString("20000.00"), payment.Lines()[0].Amount())
	})
}

func TestAllocationEngineRemoveLine(t *testing.T) {
	engine := service.NewAllocationEngine()

	t.Run("removing a settling line reopens the installment", func(t *testing.T) {
		payment := newPayment(t, "80000.00")
		inst := newInstallment(t, "60000.00", "20000.00")
		instID := inst.ID()

		_, err := engine.Reconcile(payment, []service.AllocationSpec{
			{InstallmentID: &instID},
		}, resolverFor(inst), contributionsFor(), now)
		require.NoError(t, err)
		require.True(t, inst.Settled())
		require.True(t, payment.Reconciled())

		lineID := payment.Lines()[0].ID()
		result, err := engine.RemoveLine(payment, lineID, resolverFor(inst), now)
		require.NoError(t, err)

		assert.Empty(t, payment.Lines())
		assert.False(t, inst.Settled())
		assert.False(t, payment.Reconciled())
		testutil.AssertDecimalEqual(t, money.MustFromString("60000.00"), inst.PendingCapital())

		require.Len(t, result.Events, 1)
		assert.Equal(t, "fund.installment.reopened", result.Events[0].EventType())
	})

	t.Run("removing a contribution line deletes its contribution", func(t *testing.T) {
		payment := newPayment(t, "5000.00")

		_, err := engine.Reconcile(payment, []service.AllocationSpec{{}}, resolverFor(), contributionsFor(), now)
		require.NoError(t, err)

		line := payment.Lines()[0]
		require.NotNil(t, line.ContributionID())
		contributionID := *line.ContributionID()

		result, err := engine.RemoveLine(payment, line.ID(), resolverFor(), now)
		require.NoError(t, err)

		assert.Empty(t, payment.Lines())
		require.Len(t, result.DeleteContributionIDs, 1)
		assert.Equal(t, contributionID, result.DeleteContributionIDs[0])
	})

	t.Run("unknown line fails with not found", func(t *testing.T) {
		payment := newPayment(t, "5000.00")
		_, err := engine.RemoveLine(payment, uuid.New(), resolverFor(), now)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
