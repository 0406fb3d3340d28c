package usecase

import (
	"context"
	"fmt"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
)

// UpdateLoanUseCase changes a loan's principal, rate or term. Any change of
// the three regenerates the installment schedule, which is refused once the
// loan carries recorded payments.
type UpdateLoanUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	clock     port.Clock
}

// NewUpdateLoanUseCase wires dependencies.
func NewUpdateLoanUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	clock port.Clock,
) *UpdateLoanUseCase {
	return &UpdateLoanUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		clock:     clock,
	}
}

// Execute applies the term changes.
func (uc *UpdateLoanUseCase) Execute(
	ctx context.Context,
	req dto.UpdateLoanRequest,
) (dto.LoanResponse, error) {
	now := uc.clock.Now().UTC()

	// 1. Retrieve the loan.
	loan, err := uc.loanRepo.FindByID(ctx, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	// 2. Fill unchanged fields from the current terms.
	principal := loan.Principal()
	if req.Principal != nil {
		principal = *req.Principal
	}
	rate := loan.MonthlyRate()
	if req.MonthlyRate != nil {
		rate = *req.MonthlyRate
	}
	termCount := loan.TermCount()
	if req.TermCount != nil {
		termCount = *req.TermCount
	}

	// 3. Apply; a no-op change returns without regenerating.
	if err := loan.UpdateTerms(principal, rate, termCount, now); err != nil {
		return dto.LoanResponse{}, err
	}

	// 4. Persist and publish.
	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}
	if err := uc.publisher.Publish(ctx, loan.ClearEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toLoanResponse(loan, true), nil
}
