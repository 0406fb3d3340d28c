package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
)

// MemberSummaryUseCase assembles the per-member activity snapshot:
// contribution totals, open loan exposure and interest paid to date.
type MemberSummaryUseCase struct {
	members          port.MemberDirectory
	contributionRepo port.ContributionRepository
	loanRepo         port.LoanRepository
}

// NewMemberSummaryUseCase wires dependencies.
func NewMemberSummaryUseCase(
	members port.MemberDirectory,
	contributionRepo port.ContributionRepository,
	loanRepo port.LoanRepository,
) *MemberSummaryUseCase {
	return &MemberSummaryUseCase{
		members:          members,
		contributionRepo: contributionRepo,
		loanRepo:         loanRepo,
	}
}

// Execute builds the summary.
func (uc *MemberSummaryUseCase) Execute(
	ctx context.Context,
	req dto.MemberSummaryRequest,
) (dto.MemberSummaryResponse, error) {
	member, err := uc.members.FindByID(ctx, req.MemberID)
	if err != nil {
		return dto.MemberSummaryResponse{}, fmt.Errorf("find member: %w", err)
	}

	resp := dto.MemberSummaryResponse{
		MemberID:           member.ID,
		Name:               member.Name,
		Class:              member.Class.String(),
		ContributionTotal:  decimal.Zero,
		OutstandingCapital: decimal.Zero,
		InterestPaid:       decimal.Zero,
	}

	contributions, err := uc.contributionRepo.ListByMember(ctx, req.MemberID)
	if err != nil {
		return dto.MemberSummaryResponse{}, fmt.Errorf("list contributions: %w", err)
	}
	var last time.Time
	for _, c := range contributions {
		resp.ContributionTotal = resp.ContributionTotal.Add(c.Amount())
		if c.ContributedOn().After(last) {
			last = c.ContributedOn()
		}
	}
	if !last.IsZero() {
		resp.LastContribution = &last
	}

	loans, err := uc.loanRepo.ListByMember(ctx, req.MemberID)
	if err != nil {
		return dto.MemberSummaryResponse{}, fmt.Errorf("list loans: %w", err)
	}
	for _, loan := range loans {
		outstanding := loan.OutstandingCapital()
		if outstanding.IsPositive() {
			resp.ActiveLoans++
		}
		resp.OutstandingCapital = resp.OutstandingCapital.Add(outstanding)
		resp.InterestPaid = resp.InterestPaid.Add(loan.CollectedInterest())
	}

	return resp, nil
}
