package usecase

import (
	"context"
	"fmt"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
)

// RegisterPaymentUseCase records an incoming payment with no allocations yet.
type RegisterPaymentUseCase struct {
	paymentRepo port.PaymentRepository
	publisher   port.EventPublisher
	clock       port.Clock
}

// NewRegisterPaymentUseCase wires dependencies.
func NewRegisterPaymentUseCase(
	paymentRepo port.PaymentRepository,
	publisher port.EventPublisher,
	clock port.Clock,
) *RegisterPaymentUseCase {
	return &RegisterPaymentUseCase{
		paymentRepo: paymentRepo,
		publisher:   publisher,
		clock:       clock,
	}
}

// Execute registers the payment.
func (uc *RegisterPaymentUseCase) Execute(
	ctx context.Context,
	req dto.RegisterPaymentRequest,
) (dto.PaymentResponse, error) {
	now := uc.clock.Now().UTC()

	payment, err := model.NewPayment(
		req.PayerID, req.ReportedAmount, req.ReceivedAt, req.ReceiptRef, req.Notes, now,
	)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("register payment: %w", err)
	}

	if err := uc.paymentRepo.Save(ctx, payment); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("save payment: %w", err)
	}

	if err := uc.publisher.Publish(ctx, payment.ClearEvents()...); err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toPaymentResponse(payment), nil
}
