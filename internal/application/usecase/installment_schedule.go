package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
)

// InstallmentScheduleUseCase returns a loan with its ordered installment
// snapshots.
type InstallmentScheduleUseCase struct {
	loanRepo port.LoanRepository
}

// NewInstallmentScheduleUseCase wires dependencies.
func NewInstallmentScheduleUseCase(loanRepo port.LoanRepository) *InstallmentScheduleUseCase {
	return &InstallmentScheduleUseCase{loanRepo: loanRepo}
}

// Execute loads the loan and maps its schedule.
func (uc *InstallmentScheduleUseCase) Execute(
	ctx context.Context,
	loanID uuid.UUID,
) (dto.LoanResponse, error) {
	loan, err := uc.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}
	return toLoanResponse(loan, true), nil
}
