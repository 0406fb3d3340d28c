package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
)

// CreateLoanUseCase issues a new loan and generates its installment schedule.
type CreateLoanUseCase struct {
	loanRepo  port.LoanRepository
	rateRepo  port.RateTableRepository
	members   port.MemberDirectory
	publisher port.EventPublisher
	clock     port.Clock
}

// NewCreateLoanUseCase wires dependencies.
func NewCreateLoanUseCase(
	loanRepo port.LoanRepository,
	rateRepo port.RateTableRepository,
	members port.MemberDirectory,
	publisher port.EventPublisher,
	clock port.Clock,
) *CreateLoanUseCase {
	return &CreateLoanUseCase{
		loanRepo:  loanRepo,
		rateRepo:  rateRepo,
		members:   members,
		publisher: publisher,
		clock:     clock,
	}
}

// Execute creates the loan. When no explicit rate is given, the rate table is
// consulted for the member's class and term.
func (uc *CreateLoanUseCase) Execute(
	ctx context.Context,
	req dto.CreateLoanRequest,
) (dto.LoanResponse, error) {
	now := uc.clock.Now().UTC()

	// 1. Resolve the monthly rate.
	var rate decimal.Decimal
	if req.MonthlyRate != nil {
		rate = *req.MonthlyRate
	} else {
		resolved, err := uc.lookupRate(ctx, req)
		if err != nil {
			return dto.LoanResponse{}, err
		}
		rate = resolved
	}

	// 2. Create the loan; schedule generation happens inside the aggregate.
	loan, err := model.NewLoan(req.MemberID, req.Principal, rate, req.TermCount, req.DisbursementDate, now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create loan: %w", err)
	}

	// 3. Persist the aggregate.
	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}

	// 4. Publish events.
	if err := uc.publisher.Publish(ctx, loan.ClearEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toLoanResponse(loan, true), nil
}

func (uc *CreateLoanUseCase) lookupRate(ctx context.Context, req dto.CreateLoanRequest) (decimal.Decimal, error) {
	member, err := uc.members.FindByID(ctx, req.MemberID)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("find member: %w", err)
	}

	entries, err := uc.rateRepo.ListForClass(ctx, member.Class)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("list rates: %w", err)
	}

	entry, err := model.SelectApplicableRate(entries, member.Class, req.TermCount)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return entry.MonthlyRate(), nil
}
