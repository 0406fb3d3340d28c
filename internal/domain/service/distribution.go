package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
	"github.com/FONAR-bit/fonar-project/pkg/money"
)

// ---------------------------------------------------------------------------
// Fund distribution calculator
// ---------------------------------------------------------------------------

// DefaultAdminFeeRate is the fixed administrative retention on earned
// interest.
var DefaultAdminFeeRate = decimal.NewFromFloat(0.10)

// MemberRecord is the identity snapshot of one member for a distribution run.
type MemberRecord struct {
	ID    uuid.UUID
	Name  string
	Class valueobject.MemberClass
}

// ContributionRecord is one contribution dated in the report year.
type ContributionRecord struct {
	MemberID      uuid.UUID
	ContributedOn time.Time
	Amount        decimal.Decimal
}

// DistributionInput is the read-only snapshot a distribution is computed
// from. Contributions and interest figures are already scoped to the report
// year by the caller.
type DistributionInput struct {
	Year                       int
	Today                      time.Time
	AdminFeeRate               decimal.Decimal
	Members                    []MemberRecord
	Contributions              []ContributionRecord
	TotalInterestCollected     decimal.Decimal
	InterestPaidByMember       map[uuid.UUID]decimal.Decimal
	OutstandingByMember        map[uuid.UUID]decimal.Decimal
	ExternalInterestCollected  decimal.Decimal
	ExternalOutstandingCapital decimal.Decimal
}

// MemberDistribution is one report row. ParticipationShare is the plain
// contribution share as a percentage; the day weighting shows up in
// GrossInterest only. YieldRate is gross interest over contributions as a
// percentage. InterestPaid and OutstandingCapital are the member's own
// borrower-side figures.
type MemberDistribution struct {
	MemberID           uuid.UUID
	Name               string
	ContributionTotal  decimal.Decimal
	LastContribution   *time.Time
	DaysActive         int
	ParticipationShare decimal.Decimal
	GrossInterest      decimal.Decimal
	AdminFee           decimal.Decimal
	NetInterest        decimal.Decimal
	YieldRate          decimal.Decimal
	PayableTotal       decimal.Decimal
	InterestPaid       decimal.Decimal
	OutstandingCapital decimal.Decimal
	InArrears          bool
}

// ExternalSummary aggregates borrowers outside the contributing population
// into one synthetic row: their collected interest and outstanding capital,
// excluded from the participation math.
type ExternalSummary struct {
	InterestCollected  decimal.Decimal
	OutstandingCapital decimal.Decimal
}

// DistributionReport is the full per-year distribution output.
type DistributionReport struct {
	Year               int
	Today              time.Time
	FundStartDate      time.Time
	FundAgeDays        int
	TotalContributions decimal.Decimal
	TotalInterest      decimal.Decimal
	TotalAdminFees     decimal.Decimal
	TotalNetInterest   decimal.Decimal
	Members            []MemberDistribution
	External           ExternalSummary
}

// DistributionCalculator computes how collected interest is split across
// contributing members, weighted by contribution share and by how long each
// member's money has been in the fund. Pure over its input snapshot.
type DistributionCalculator struct{}

func (DistributionCalculator) Calculate(input DistributionInput) DistributionReport {
	feeRate := input.AdminFeeRate
	if feeRate.IsZero() {
		feeRate = DefaultAdminFeeRate
	}

	report := DistributionReport{
		Year:          input.Year,
		Today:         input.Today,
		TotalInterest: money.Round(input.TotalInterestCollected),
		External: ExternalSummary{
			InterestCollected:  money.Round(input.ExternalInterestCollected),
			OutstandingCapital: money.Round(input.ExternalOutstandingCapital),
		},
	}

	byMember := map[uuid.UUID][]ContributionRecord{}
	total := decimal.Zero
	fundStart := time.Time{}
	latestContribution := time.Time{}
	for _, c := range input.Contributions {
		byMember[c.MemberID] = append(byMember[c.MemberID], c)
		total = total.Add(c.Amount)
		if fundStart.IsZero() || c.ContributedOn.Before(fundStart) {
			fundStart = c.ContributedOn
		}
		if c.ContributedOn.After(latestContribution) {
			latestContribution = c.ContributedOn
		}
	}
	if fundStart.IsZero() {
		fundStart = input.Today
	}
	report.FundStartDate = fundStart
	report.TotalContributions = total

	fundAgeDays := daysBetween(fundStart, input.Today)
	if fundAgeDays < 1 {
		fundAgeDays = 1
	}
	report.FundAgeDays = fundAgeDays

	for _, member := range input.Members {
		if !member.Class.Equal(valueobject.MemberClassContributor) {
			continue
		}

		row := MemberDistribution{
			MemberID:           member.ID,
			Name:               member.Name,
			ContributionTotal:  decimal.Zero,
			ParticipationShare: decimal.Zero,
			GrossInterest:      decimal.Zero,
			AdminFee:           decimal.Zero,
			NetInterest:        decimal.Zero,
			YieldRate:          decimal.Zero,
			InterestPaid:       money.Round(input.InterestPaidByMember[member.ID]),
			OutstandingCapital: money.Round(input.OutstandingByMember[member.ID]),
		}

		contribs := byMember[member.ID]
		first := time.Time{}
		last := time.Time{}
		for _, c := range contribs {
			row.ContributionTotal = row.ContributionTotal.Add(c.Amount)
			if first.IsZero() || c.ContributedOn.Before(first) {
				first = c.ContributedOn
			}
			if c.ContributedOn.After(last) {
				last = c.ContributedOn
			}
		}

		if !first.IsZero() {
			row.DaysActive = daysBetween(first, input.Today)
			if row.DaysActive < 0 {
				row.DaysActive = 0
			}
		}
		if !last.IsZero() {
			lastCopy := last
			row.LastContribution = &lastCopy
		}
		row.InArrears = !latestContribution.IsZero() &&
			(last.IsZero() || last.Before(truncateToDay(latestContribution)))

		if total.IsPositive() && row.ContributionTotal.IsPositive() {
			ratio := row.ContributionTotal.Div(total)
			timeWeight := decimal.NewFromInt(int64(row.DaysActive)).
				Div(decimal.NewFromInt(int64(fundAgeDays)))
			row.ParticipationShare = money.Round(ratio.Mul(decimal.NewFromInt(100)))
			row.GrossInterest = money.Round(input.TotalInterestCollected.Mul(ratio).Mul(timeWeight))
			row.AdminFee = money.Round(row.GrossInterest.Mul(feeRate))
			row.NetInterest = row.GrossInterest.Sub(row.AdminFee)
			row.YieldRate = money.Round(row.GrossInterest.Div(row.ContributionTotal).Mul(decimal.NewFromInt(100)))
		}
		row.PayableTotal = row.ContributionTotal.Add(row.NetInterest)

		report.TotalAdminFees = report.TotalAdminFees.Add(row.AdminFee)
		report.TotalNetInterest = report.TotalNetInterest.Add(row.NetInterest)
		report.Members = append(report.Members, row)
	}

	sort.Slice(report.Members, func(i, j int) bool {
		return report.Members[i].Name < report.Members[j].Name
	})

	return report
}

func daysBetween(from, to time.Time) int {
	return int(truncateToDay(to).Sub(truncateToDay(from)).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
