package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// DistributionReportUseCase assembles the read-only snapshot for a fiscal
// year and runs the fund distribution calculator over it.
type DistributionReportUseCase struct {
	contributionRepo port.ContributionRepository
	paymentRepo      port.PaymentRepository
	loanRepo         port.LoanRepository
	balanceRepo      port.FundBalanceRepository
	members          port.MemberDirectory
	calculator       service.DistributionCalculator
	clock            port.Clock
}

// NewDistributionReportUseCase wires dependencies.
func NewDistributionReportUseCase(
	contributionRepo port.ContributionRepository,
	paymentRepo port.PaymentRepository,
	loanRepo port.LoanRepository,
	balanceRepo port.FundBalanceRepository,
	members port.MemberDirectory,
	clock port.Clock,
) *DistributionReportUseCase {
	return &DistributionReportUseCase{
		contributionRepo: contributionRepo,
		paymentRepo:      paymentRepo,
		loanRepo:         loanRepo,
		balanceRepo:      balanceRepo,
		members:          members,
		clock:            clock,
	}
}

// Execute computes the distribution report for the year.
func (uc *DistributionReportUseCase) Execute(
	ctx context.Context,
	req dto.DistributionReportRequest,
) (dto.DistributionReportResponse, error) {
	today := uc.clock.Now().UTC()

	// 1. Member population with classes.
	members, err := uc.members.ListAll(ctx)
	if err != nil {
		return dto.DistributionReportResponse{}, fmt.Errorf("list members: %w", err)
	}
	memberRecords := make([]service.MemberRecord, 0, len(members))
	external := map[string]bool{}
	for _, m := range members {
		memberRecords = append(memberRecords, service.MemberRecord{
			ID: m.ID, Name: m.Name, Class: m.Class,
		})
		if m.Class.Equal(valueobject.MemberClassExternal) {
			external[m.ID.String()] = true
		}
	}

	// 2. Contributions dated in the year.
	contributions, err := uc.contributionRepo.ListByYear(ctx, req.Year)
	if err != nil {
		return dto.DistributionReportResponse{}, fmt.Errorf("list contributions: %w", err)
	}
	contributionRecords := make([]service.ContributionRecord, 0, len(contributions))
	for _, c := range contributions {
		contributionRecords = append(contributionRecords, service.ContributionRecord{
			MemberID:      c.MemberID(),
			ContributedOn: c.ContributedOn(),
			Amount:        c.Amount(),
		})
	}

	// 3. Interest collected in the year, split by borrower class.
	interestByBorrower, err := uc.paymentRepo.InterestByBorrowerInYear(ctx, req.Year)
	if err != nil {
		return dto.DistributionReportResponse{}, fmt.Errorf("sum interest: %w", err)
	}
	totalInterest := decimal.Zero
	externalInterest := decimal.Zero
	for memberID, interest := range interestByBorrower {
		totalInterest = totalInterest.Add(interest)
		if external[memberID.String()] {
			externalInterest = externalInterest.Add(interest)
		}
	}

	// 4. Outstanding capital per borrower; external borrowers also feed the
	// summary row.
	loans, err := uc.loanRepo.ListAll(ctx)
	if err != nil {
		return dto.DistributionReportResponse{}, fmt.Errorf("list loans: %w", err)
	}
	outstandingByMember := map[uuid.UUID]decimal.Decimal{}
	externalOutstanding := decimal.Zero
	for _, loan := range loans {
		outstanding := loan.OutstandingCapital()
		outstandingByMember[loan.MemberID()] = outstandingByMember[loan.MemberID()].Add(outstanding)
		if external[loan.MemberID().String()] {
			externalOutstanding = externalOutstanding.Add(outstanding)
		}
	}

	report := uc.calculator.Calculate(service.DistributionInput{
		Year:                       req.Year,
		Today:                      today,
		Members:                    memberRecords,
		Contributions:              contributionRecords,
		TotalInterestCollected:     totalInterest,
		InterestPaidByMember:       interestByBorrower,
		OutstandingByMember:        outstandingByMember,
		ExternalInterestCollected:  externalInterest,
		ExternalOutstandingCapital: externalOutstanding,
	})
	resp := toDistributionReportResponse(report)

	// 5. The declared cash position for the year, when one was recorded.
	balance, err := uc.balanceRepo.FindByYear(ctx, req.Year)
	switch {
	case err == nil:
		resp.FundBalance = &dto.FundBalanceResponse{
			Year:       balance.Year(),
			Cash:       balance.Cash(),
			Bank:       balance.Bank(),
			Wallet:     balance.Wallet(),
			Total:      balance.Total(),
			Notes:      balance.Notes(),
			ModifiedAt: balance.ModifiedAt(),
		}
	case errors.Is(err, model.ErrNotFound):
	default:
		return dto.DistributionReportResponse{}, fmt.Errorf("find fund balance: %w", err)
	}

	return resp, nil
}

func toDistributionReportResponse(report service.DistributionReport) dto.DistributionReportResponse {
	resp := dto.DistributionReportResponse{
		Year:               report.Year,
		Today:              report.Today,
		FundStartDate:      report.FundStartDate,
		FundAgeDays:        report.FundAgeDays,
		TotalContributions: report.TotalContributions,
		TotalInterest:      report.TotalInterest,
		TotalAdminFees:     report.TotalAdminFees,
		TotalNetInterest:   report.TotalNetInterest,
		External: dto.ExternalSummaryResponse{
			InterestCollected:  report.External.InterestCollected,
			OutstandingCapital: report.External.OutstandingCapital,
		},
	}
	for _, row := range report.Members {
		resp.Members = append(resp.Members, dto.MemberDistributionResponse{
			MemberID:           row.MemberID,
			Name:               row.Name,
			ContributionTotal:  row.ContributionTotal,
			LastContribution:   row.LastContribution,
			DaysActive:         row.DaysActive,
			ParticipationShare: row.ParticipationShare,
			GrossInterest:      row.GrossInterest,
			AdminFee:           row.AdminFee,
			NetInterest:        row.NetInterest,
			YieldRate:          row.YieldRate,
			PayableTotal:       row.PayableTotal,
			InterestPaid:       row.InterestPaid,
			OutstandingCapital: row.OutstandingCapital,
			InArrears:          row.InArrears,
		})
	}
	return resp
}
