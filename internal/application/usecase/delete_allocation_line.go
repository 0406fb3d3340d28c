package usecase

import (
	"context"
	"fmt"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
)

// DeleteAllocationLineUseCase removes one allocation line from a payment,
// reversing its effect on the targeted installment or deleting the owned
// contribution record.
type DeleteAllocationLineUseCase struct {
	paymentRepo port.PaymentRepository
	loanRepo    port.LoanRepository
	engine      *service.AllocationEngine
	publisher   port.EventPublisher
	clock       port.Clock
}

// NewDeleteAllocationLineUseCase wires dependencies.
func NewDeleteAllocationLineUseCase(
	paymentRepo port.PaymentRepository,
	loanRepo port.LoanRepository,
	engine *service.AllocationEngine,
	publisher port.EventPublisher,
	clock port.Clock,
) *DeleteAllocationLineUseCase {
	return &DeleteAllocationLineUseCase{
		paymentRepo: paymentRepo,
		loanRepo:    loanRepo,
		engine:      engine,
		publisher:   publisher,
		clock:       clock,
	}
}

// Execute removes the line.
func (uc *DeleteAllocationLineUseCase) Execute(
	ctx context.Context,
	req dto.DeleteAllocationLineRequest,
) (dto.PaymentResponse, error) {
	now := uc.clock.Now().UTC()

	// 1. Retrieve the payment.
	payment, err := uc.paymentRepo.FindByID(ctx, req.PaymentID)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find payment: %w", err)
	}

	// 2. Resolve the targeted installment, if the line has one.
	resolve, err := buildInstallmentResolver(ctx, uc.loanRepo, payment, nil)
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	// 3. Remove the line and reverse its ledger effects.
	result, err := uc.engine.RemoveLine(payment, req.LineID, resolve, now)
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	// 4. Persist the changeset atomically.
	if err := uc.paymentRepo.SaveReconciliation(ctx, payment, result); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("save reconciliation: %w", err)
	}

	// 5. Publish events.
	evts := append(payment.ClearEvents(), result.Events...)
	if err := uc.publisher.Publish(ctx, evts...); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toPaymentResponse(payment), nil
}
