package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/pkg/events"
)

// RecalculateAggregatesUseCase rebuilds all derived ledger state from the
// allocation lines: installment paid totals, settled flags and payment
// reconciled flags. The repair path for aggregates that drifted, e.g. after
// a manual database correction. Safe to run repeatedly.
type RecalculateAggregatesUseCase struct {
	loanRepo    port.LoanRepository
	paymentRepo port.PaymentRepository
	propagator  service.ReconciliationPropagator
	publisher   port.EventPublisher
	clock       port.Clock
}

// NewRecalculateAggregatesUseCase wires dependencies.
func NewRecalculateAggregatesUseCase(
	loanRepo port.LoanRepository,
	paymentRepo port.PaymentRepository,
	publisher port.EventPublisher,
	clock port.Clock,
) *RecalculateAggregatesUseCase {
	return &RecalculateAggregatesUseCase{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		clock:       clock,
	}
}

// Execute runs the rebuild. With LoanID set only that loan's installments
// are recomputed; payments are always re-derived in full.
func (uc *RecalculateAggregatesUseCase) Execute(
	ctx context.Context,
	req dto.RecalculateAggregatesRequest,
) (dto.RecalculateAggregatesResponse, error) {
	now := uc.clock.Now().UTC()
	resp := dto.RecalculateAggregatesResponse{}

	// 1. Load every payment; their lines are the source of truth.
	payments, err := uc.paymentRepo.ListAll(ctx)
	if err != nil {
		return resp, fmt.Errorf("list payments: %w", err)
	}
	linesByInstallment := map[uuid.UUID][]*model.AllocationLine{}
	for _, payment := range payments {
		for _, line := range payment.Lines() {
			if line.InstallmentID() != nil {
				id := *line.InstallmentID()
				linesByInstallment[id] = append(linesByInstallment[id], line)
			}
		}
	}

	// 2. Rebuild installment paid totals per loan.
	var loans []*model.Loan
	if req.LoanID != nil {
		loan, err := uc.loanRepo.FindByID(ctx, *req.LoanID)
		if err != nil {
			return resp, fmt.Errorf("find loan: %w", err)
		}
		loans = []*model.Loan{loan}
	} else {
		loans, err = uc.loanRepo.ListAll(ctx)
		if err != nil {
			return resp, fmt.Errorf("list loans: %w", err)
		}
	}

	var collected []events.DomainEvent
	for _, loan := range loans {
		resp.LoansScanned++
		changed := false
		for _, inst := range loan.Installments() {
			beforeCapital := inst.PaidCapital()
			beforeInterest := inst.PaidInterest()

			evts, err := uc.propagator.Rebuild(inst, linesByInstallment[inst.ID()], now)
			if err != nil {
				return resp, fmt.Errorf("rebuild installment %s: %w", inst.ID(), err)
			}
			collected = append(collected, evts...)

			if !inst.PaidCapital().Equal(beforeCapital) || !inst.PaidInterest().Equal(beforeInterest) || len(evts) > 0 {
				resp.InstallmentsChanged++
				changed = true
			}
		}
		if changed {
			if err := uc.loanRepo.Save(ctx, loan); err != nil {
				return resp, fmt.Errorf("save loan: %w", err)
			}
		}
	}

	// 3. Re-derive payment reconciled flags.
	for _, payment := range payments {
		resp.PaymentsScanned++
		if uc.propagator.SyncPayment(payment, now) {
			resp.PaymentsChanged++
			if err := uc.paymentRepo.Save(ctx, payment); err != nil {
				return resp, fmt.Errorf("save payment: %w", err)
			}
			collected = append(collected, payment.ClearEvents()...)
		}
	}

	// 4. Publish transition events.
	if len(collected) > 0 {
		if err := uc.publisher.Publish(ctx, collected...); err != nil {
			return resp, fmt.Errorf("publish events: %w", err)
		}
	}

	return resp, nil
}
