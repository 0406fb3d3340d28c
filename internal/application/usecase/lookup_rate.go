package usecase

import (
	"context"
	"fmt"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// LookupRateUseCase resolves the applicable monthly rate for a member class
// and term count from the rate table.
type LookupRateUseCase struct {
	rateRepo port.RateTableRepository
}

// NewLookupRateUseCase wires dependencies.
func NewLookupRateUseCase(rateRepo port.RateTableRepository) *LookupRateUseCase {
	return &LookupRateUseCase{rateRepo: rateRepo}
}

// Execute performs the lookup. Returns model.ErrNoApplicableRate when no
// entry covers the class and term.
func (uc *LookupRateUseCase) Execute(
	ctx context.Context,
	req dto.LookupRateRequest,
) (dto.RateResponse, error) {
	class, err := valueobject.NewMemberClass(req.MemberClass)
	if err != nil {
		return dto.RateResponse{}, err
	}

	entries, err := uc.rateRepo.ListForClass(ctx, class)
	if err != nil {
		return dto.RateResponse{}, fmt.Errorf("list rates: %w", err)
	}

	entry, err := model.SelectApplicableRate(entries, class, req.TermCount)
	if err != nil {
		return dto.RateResponse{}, err
	}

	return dto.RateResponse{
		MemberClass:   entry.MemberClass().String(),
		Category:      entry.LoanCategory(),
		MinTerm:       entry.TermMin(),
		MaxTerm:       entry.TermMax(),
		MonthlyRate:   entry.MonthlyRate(),
		EffectiveFrom: entry.EffectiveFrom(),
	}, nil
}
