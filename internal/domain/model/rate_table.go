package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// DefaultLoanCategory is the category applied when a loan does not specify one.
const DefaultLoanCategory = "consumer"

// ---------------------------------------------------------------------------
// RateEntry – interest rate table reference data
// ---------------------------------------------------------------------------

// RateEntry is one row of the interest rate table: a monthly rate that applies
// to a member class and loan category for terms within [TermMin, TermMax],
// effective from a given date.
type RateEntry struct {
	id            uuid.UUID
	memberClass   valueobject.MemberClass
	loanCategory  string
	termMin       int
	termMax       int
	monthlyRate   decimal.Decimal
	effectiveFrom time.Time
}

// NewRateEntry creates a rate table entry.
func NewRateEntry(
	memberClass valueobject.MemberClass,
	loanCategory string,
	termMin, termMax int,
	monthlyRate decimal.Decimal,
	effectiveFrom time.Time,
) (RateEntry, error) {
	if memberClass.IsZero() {
		return RateEntry{}, errors.New("member class is required")
	}
	if loanCategory == "" {
		loanCategory = DefaultLoanCategory
	}
	if termMin < 1 || termMax < termMin {
		return RateEntry{}, errors.New("term band must satisfy 1 <= min <= max")
	}
	if monthlyRate.IsNegative() {
		return RateEntry{}, errors.New("monthly rate must not be negative")
	}
	return RateEntry{
		id:            uuid.New(),
		memberClass:   memberClass,
		loanCategory:  loanCategory,
		termMin:       termMin,
		termMax:       termMax,
		monthlyRate:   monthlyRate,
		effectiveFrom: effectiveFrom,
	}, nil
}

// ReconstructRateEntry rebuilds a rate entry from persistence.
func ReconstructRateEntry(
	id uuid.UUID,
	memberClass valueobject.MemberClass,
	loanCategory string,
	termMin, termMax int,
	monthlyRate decimal.Decimal,
	effectiveFrom time.Time,
) RateEntry {
	return RateEntry{
		id:            id,
		memberClass:   memberClass,
		loanCategory:  loanCategory,
		termMin:       termMin,
		termMax:       termMax,
		monthlyRate:   monthlyRate,
		effectiveFrom: effectiveFrom,
	}
}

func (r RateEntry) ID() uuid.UUID                        { return r.id }
func (r RateEntry) MemberClass() valueobject.MemberClass { return r.memberClass }
func (r RateEntry) LoanCategory() string                 { return r.loanCategory }
func (r RateEntry) TermMin() int                         { return r.termMin }
func (r RateEntry) TermMax() int                         { return r.termMax }
func (r RateEntry) MonthlyRate() decimal.Decimal         { return r.monthlyRate }
func (r RateEntry) EffectiveFrom() time.Time             { return r.effectiveFrom }

// Covers reports whether this entry applies to the given class and term.
func (r RateEntry) Covers(class valueobject.MemberClass, termCount int) bool {
	return r.memberClass.Equal(class) && termCount >= r.termMin && termCount <= r.termMax
}

// SelectApplicableRate picks the entry covering (class, termCount) with the
// most recent effective date. Returns ErrNoApplicableRate when nothing matches.
func SelectApplicableRate(
	entries []RateEntry,
	class valueobject.MemberClass,
	termCount int,
) (RateEntry, error) {
	var best RateEntry
	found := false

	for _, e := range entries {
		if !e.Covers(class, termCount) {
			continue
		}
		if !found || e.effectiveFrom.After(best.effectiveFrom) {
			best = e
			found = true
		}
	}

	if !found {
		return RateEntry{}, ErrNoApplicableRate
	}
	return best, nil
}
