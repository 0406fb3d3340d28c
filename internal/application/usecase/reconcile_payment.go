package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
)

// ReconcilePaymentUseCase replaces a payment's allocation line set and
// propagates the changes into the installment ledger and contribution
// records, all persisted in one transaction.
type ReconcilePaymentUseCase struct {
	paymentRepo      port.PaymentRepository
	loanRepo         port.LoanRepository
	contributionRepo port.ContributionRepository
	engine           *service.AllocationEngine
	publisher        port.EventPublisher
	clock            port.Clock
}

// NewReconcilePaymentUseCase wires dependencies.
func NewReconcilePaymentUseCase(
	paymentRepo port.PaymentRepository,
	loanRepo port.LoanRepository,
	contributionRepo port.ContributionRepository,
	engine *service.AllocationEngine,
	publisher port.EventPublisher,
	clock port.Clock,
) *ReconcilePaymentUseCase {
	return &ReconcilePaymentUseCase{
		paymentRepo:      paymentRepo,
		loanRepo:         loanRepo,
		contributionRepo: contributionRepo,
		engine:           engine,
		publisher:        publisher,
		clock:            clock,
	}
}

// Execute runs the reconciliation.
func (uc *ReconcilePaymentUseCase) Execute(
	ctx context.Context,
	req dto.ReconcilePaymentRequest,
) (dto.PaymentResponse, error) {
	now := uc.clock.Now().UTC()

	// 1. Retrieve the payment.
	payment, err := uc.paymentRepo.FindByID(ctx, req.PaymentID)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find payment: %w", err)
	}

	// 2. Load every installment the reconciliation may touch: targets of the
	// new specs plus targets of the current lines (for reversals).
	specs := make([]service.AllocationSpec, 0, len(req.Lines))
	for _, line := range req.Lines {
		specs = append(specs, service.AllocationSpec{
			LineID:        line.LineID,
			InstallmentID: line.InstallmentID,
			Capital:       line.Capital,
			Interest:      line.Interest,
			Amount:        line.Amount,
			ContributedOn: line.ContributedOn,
		})
	}
	resolve, err := buildInstallmentResolver(ctx, uc.loanRepo, payment, specs)
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	resolveContribution := func(id uuid.UUID) (*model.Contribution, error) {
		return uc.contributionRepo.FindByID(ctx, id)
	}

	// 3. Run the engine; nothing is mutated on validation failure.
	result, err := uc.engine.Reconcile(payment, specs, resolve, resolveContribution, now)
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	// 4. Persist the whole changeset atomically.
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

// buildInstallmentResolver preloads every installment a line change may
// touch and exposes them as a lookup for the allocation engine.
func buildInstallmentResolver(
	ctx context.Context,
	loanRepo port.LoanRepository,
	payment *model.Payment,
	specs []service.AllocationSpec,
) (service.InstallmentResolver, error) {
	idSet := map[uuid.UUID]bool{}
	for _, spec := range specs {
		if spec.InstallmentID != nil {
			idSet[*spec.InstallmentID] = true
		}
	}
	for _, line := range payment.Lines() {
		if line.InstallmentID() != nil {
			idSet[*line.InstallmentID()] = true
		}
	}

	installments := map[uuid.UUID]*model.Installment{}
	if len(idSet) > 0 {
		ids := make([]uuid.UUID, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		loans, err := loanRepo.FindByInstallmentIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("find loans: %w", err)
		}
		for _, loan := range loans {
			for _, inst := range loan.Installments() {
				installments[inst.ID()] = inst
			}
		}
	}

	return func(id uuid.UUID) (*model.Installment, error) {
		inst, ok := installments[id]
		if !ok {
			return nil, fmt.Errorf("installment %s: %w", id, model.ErrNotFound)
		}
		return inst, nil
	}, nil
}
