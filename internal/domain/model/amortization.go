package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/pkg/money"
)

// ScheduleEntry is an immutable value object representing one period of a
// fixed-installment amortization schedule.
type ScheduleEntry struct {
	DueDate  time.Time
	Capital  decimal.Decimal
	Interest decimal.Decimal
	Total    decimal.Decimal
	Sequence int
}

// FixedInstallment computes the fixed (annuity) installment amount for a loan.
//
// Parameters:
//   - principal:   the loan amount
//   - monthlyRate: monthly interest rate as a percentage (e.g. 2 = 2%/month)
//   - termCount:   number of monthly periods
//
// At a zero rate the principal is split evenly. Otherwise:
//
//	installment = P * r(1+r)^n / ((1+r)^n - 1), r = monthlyRate/100
//
// The result is rounded half-up to two decimals.
func FixedInstallment(principal, monthlyRate decimal.Decimal, termCount int) decimal.Decimal {
	if termCount <= 0 {
		return decimal.Zero
	}

	n := decimal.NewFromInt(int64(termCount))
	r := money.Percent(monthlyRate)
	if r.IsZero() {
		return money.Round(principal.Div(n))
	}

	factor := decimal.NewFromInt(1).Add(r).Pow(n) // (1+r)^n
	installment := principal.Mul(r.Mul(factor)).Div(factor.Sub(decimal.NewFromInt(1)))
	return money.Round(installment)
}

// GenerateSchedule computes the full amortization schedule for a loan.
//
// For each period, interest accrues on the outstanding balance and capital is
// the fixed installment minus that interest; the due date of period i is the
// disbursement date plus i months. The last period's capital is forced to the
// remaining balance so that the capital column sums to the principal exactly,
// absorbing all rounding drift.
func GenerateSchedule(
	principal, monthlyRate decimal.Decimal,
	termCount int,
	disbursementDate time.Time,
) []ScheduleEntry {
	if termCount <= 0 || principal.LessThanOrEqual(decimal.Zero) || monthlyRate.IsNegative() {
		return nil
	}

	installment := FixedInstallment(principal, monthlyRate, termCount)
	r := money.Percent(monthlyRate)

	schedule := make([]ScheduleEntry, 0, termCount)
	balance := principal

	for period := 1; period <= termCount; period++ {
		interest := money.Round(balance.Mul(r))
		capital := money.Round(installment.Sub(interest))
		total := installment

		// Last period: the remaining balance is repaid exactly.
		if period == termCount {
			capital = money.Round(balance)
			total = money.Round(capital.Add(interest))
		}

		balance = money.Round(balance.Sub(capital))

		schedule = append(schedule, ScheduleEntry{
			Sequence: period,
			DueDate:  disbursementDate.AddDate(0, period, 0),
			Capital:  capital,
			Interest: interest,
			Total:    total,
		})
	}

	return schedule
}
