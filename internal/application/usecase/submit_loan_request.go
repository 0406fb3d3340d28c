package usecase

import (
	"context"
	"fmt"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
)

// SubmitLoanRequestUseCase records a member's loan application. The monthly
// rate is resolved from the rate table and frozen on the request, so a later
// rate change does not reprice a pending application.
type SubmitLoanRequestUseCase struct {
	requestRepo port.LoanRequestRepository
	rateRepo    port.RateTableRepository
	members     port.MemberDirectory
	publisher   port.EventPublisher
	clock       port.Clock
}

// NewSubmitLoanRequestUseCase wires dependencies.
func NewSubmitLoanRequestUseCase(
	requestRepo port.LoanRequestRepository,
	rateRepo port.RateTableRepository,
	members port.MemberDirectory,
	publisher port.EventPublisher,
	clock port.Clock,
) *SubmitLoanRequestUseCase {
	return &SubmitLoanRequestUseCase{
		requestRepo: requestRepo,
		rateRepo:    rateRepo,
		members:     members,
		publisher:   publisher,
		clock:       clock,
	}
}

// Execute submits the application.
func (uc *SubmitLoanRequestUseCase) Execute(
	ctx context.Context,
	req dto.SubmitLoanRequestRequest,
) (dto.LoanRequestResponse, error) {
	now := uc.clock.Now().UTC()

	// 1. Resolve and freeze the applicable rate.
	member, err := uc.members.FindByID(ctx, req.MemberID)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("find member: %w", err)
	}
	entries, err := uc.rateRepo.ListForClass(ctx, member.Class)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("list rates: %w", err)
	}
	entry, err := model.SelectApplicableRate(entries, member.Class, req.TermCount)
	if err != nil {
		return dto.LoanRequestResponse{}, err
	}

	// 2. Create the request.
	request, err := model.NewLoanRequest(
		req.MemberID, req.Amount, req.TermCount, entry.MonthlyRate(), req.DesiredDisbursement, now,
	)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("create loan request: %w", err)
	}

	// 3. Persist and publish.
	if err := uc.requestRepo.Save(ctx, request); err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("save loan request: %w", err)
	}
	if err := uc.publisher.Publish(ctx, request.ClearEvents()...); err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toLoanRequestResponse(request), nil
}
