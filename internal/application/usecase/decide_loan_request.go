package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// DecideLoanRequestUseCase approves or rejects a pending loan request.
// Approval issues the loan with the rate frozen at submission. Re-deciding an
// already approved request is idempotent: the existing loan is returned.
type DecideLoanRequestUseCase struct {
	requestRepo port.LoanRequestRepository
	loanRepo    port.LoanRepository
	publisher   port.EventPublisher
	clock       port.Clock
}

// NewDecideLoanRequestUseCase wires dependencies.
func NewDecideLoanRequestUseCase(
	requestRepo port.LoanRequestRepository,
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	clock port.Clock,
) *DecideLoanRequestUseCase {
	return &DecideLoanRequestUseCase{
		requestRepo: requestRepo,
		loanRepo:    loanRepo,
		publisher:   publisher,
		clock:       clock,
	}
}

// Execute applies the decision.
func (uc *DecideLoanRequestUseCase) Execute(
	ctx context.Context,
	req dto.DecideLoanRequestRequest,
) (dto.LoanRequestResponse, error) {
	now := uc.clock.Now().UTC()

	// 1. Retrieve the request.
	request, err := uc.requestRepo.FindByID(ctx, req.RequestID)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("find loan request: %w", err)
	}

	// 2. Idempotent replay of an identical approval.
	if req.Approve && request.Status().Equal(valueobject.LoanRequestStatusApproved) {
		return uc.approvedResponse(ctx, request)
	}

	if !req.Approve {
		if err := request.Reject(req.Reason, now); err != nil {
			return dto.LoanRequestResponse{}, err
		}
		if err := uc.requestRepo.Save(ctx, request); err != nil {
			return dto.LoanRequestResponse{}, fmt.Errorf("save loan request: %w", err)
		}
		if err := uc.publisher.Publish(ctx, request.ClearEvents()...); err != nil {
			return dto.LoanRequestResponse{}, fmt.Errorf("publish events: %w", err)
		}
		return toLoanRequestResponse(request), nil
	}

	// 3. Approve and issue the loan.
	if err := request.Approve(now); err != nil {
		return dto.LoanRequestResponse{}, err
	}
	loan, err := request.IssueLoan(now)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("issue loan: %w", err)
	}

	// 4. Persist both aggregates.
	if err := uc.requestRepo.Save(ctx, request); err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("save loan request: %w", err)
	}
	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("save loan: %w", err)
	}

	// 5. Publish events.
	evts := append(request.ClearEvents(), loan.ClearEvents()...)
	if err := uc.publisher.Publish(ctx, evts...); err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("publish events: %w", err)
	}

	resp := toLoanRequestResponse(request)
	loanID := loan.ID()
	resp.LoanID = &loanID
	return resp, nil
}

func (uc *DecideLoanRequestUseCase) approvedResponse(
	ctx context.Context,
	request *model.LoanRequest,
) (dto.LoanRequestResponse, error) {
	resp := toLoanRequestResponse(request)

	loan, err := uc.loanRepo.FindByRequestID(ctx, request.ID())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return resp, nil
		}
		return dto.LoanRequestResponse{}, fmt.Errorf("find loan: %w", err)
	}
	loanID := loan.ID()
	resp.LoanID = &loanID
	return resp, nil
}
