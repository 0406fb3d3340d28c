package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/event"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/pkg/events"
	"github.com/FONAR-bit/fonar-project/pkg/money"
)

// ---------------------------------------------------------------------------
// Payment allocation engine
// ---------------------------------------------------------------------------

// InstallmentResolver loads the live installment record for an allocation
// target. The same instance must be returned for repeated lookups within one
// reconciliation so deltas accumulate on a single entity.
type InstallmentResolver func(installmentID uuid.UUID) (*model.Installment, error)

// AllocationSpec describes one desired allocation line of a payment. A spec
// with LineID updates the existing line; without it a new line is created.
// A spec with InstallmentID targets a loan installment, otherwise it is a
// generic contribution. Nil amounts are defaulted: installment capital and
// interest from the installment's pending amounts, contribution amounts from
// the payment's remaining shortfall.
type AllocationSpec struct {
	LineID        *uuid.UUID
	InstallmentID *uuid.UUID
	Capital       *decimal.Decimal
	Interest      *decimal.Decimal
	Amount        *decimal.Decimal
	ContributedOn *time.Time
}

// ContributionResolver loads the live contribution record an allocation line
// owns.
type ContributionResolver func(contributionID uuid.UUID) (*model.Contribution, error)

// ReconcileResult is the changeset one reconciliation produced, for the
// caller to persist atomically alongside the payment aggregate.
type ReconcileResult struct {
	TouchedInstallments   []*model.Installment
	NewContributions      []*model.Contribution
	SyncedContributions   []*model.Contribution
	DeleteContributionIDs []uuid.UUID
	Events                []events.DomainEvent
}

// AllocationEngine applies allocation line changes to a payment and
// propagates them into the installment ledger and contribution records.
// Validation runs in full before any mutation, so a rejected reconciliation
// leaves the aggregates untouched.
type AllocationEngine struct {
	propagator ReconciliationPropagator
}

func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

type linePlan struct {
	line          *model.AllocationLine
	inst          *model.Installment
	contribution  *model.Contribution
	capital       decimal.Decimal
	interest      decimal.Decimal
	amount        decimal.Decimal
	contributedOn *time.Time
}

// Reconcile replaces the payment's allocation line set with the given specs.
// Existing lines not referenced by any spec are removed and their effects
// reversed. The applied total may never exceed the reported amount; crossing
// it fails the whole reconciliation with an OverAllocationError.
func (e *AllocationEngine) Reconcile(
	payment *model.Payment,
	specs []AllocationSpec,
	resolve InstallmentResolver,
	resolveContribution ContributionResolver,
	now time.Time,
) (*ReconcileResult, error) {
	instCache := map[uuid.UUID]*model.Installment{}
	lookup := func(id uuid.UUID) (*model.Installment, error) {
		if inst, ok := instCache[id]; ok {
			return inst, nil
		}
		inst, err := resolve(id)
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, fmt.Errorf("installment %s: %w", id, model.ErrNotFound)
		}
		instCache[id] = inst
		return inst, nil
	}

	// Planning phase: resolve targets, fill defaults and check the aggregate
	// cap before anything is mutated.
	keep := map[uuid.UUID]bool{}
	plans := make([]linePlan, 0, len(specs))
	planned := decimal.Zero

	for _, spec := range specs {
		var plan linePlan

		if spec.LineID != nil {
			line := payment.LineByID(*spec.LineID)
			if line == nil {
				return nil, fmt.Errorf("allocation line %s: %w", *spec.LineID, model.ErrNotFound)
			}
			keep[line.ID()] = true
			plan.line = line
		}

		targetsInstallment := spec.InstallmentID != nil || (plan.line != nil && plan.line.IsInstallment())

		if targetsInstallment {
			instID, err := installmentTarget(spec, plan.line)
			if err != nil {
				return nil, err
			}
			inst, err := lookup(instID)
			if err != nil {
				return nil, err
			}
			plan.inst = inst

			plan.capital = defaultedCapital(spec, plan.line, inst)
			plan.interest = defaultedInterest(spec, plan.line, inst)
			if plan.capital.IsNegative() || plan.interest.IsNegative() {
				return nil, model.ErrInvalidAllocation
			}
			plan.amount = plan.capital.Add(plan.interest)
		} else {
			plan.contributedOn = spec.ContributedOn
			switch {
			case spec.Amount != nil:
				plan.amount = *spec.Amount
			case plan.line != nil:
				plan.amount = plan.line.Amount()
			default:
				plan.amount = money.FloorZero(payment.ReportedAmount().Sub(planned))
			}
			if !plan.amount.IsPositive() {
				return nil, model.ErrInvalidAllocation
			}

			// A kept line that already owns a contribution record is synced
			// in place; resolve it now so a missing record aborts before any
			// mutation.
			if plan.line != nil && plan.line.ContributionID() != nil {
				contribution, err := resolveContribution(*plan.line.ContributionID())
				if err != nil {
					return nil, err
				}
				if contribution == nil {
					return nil, fmt.Errorf("contribution %s: %w", *plan.line.ContributionID(), model.ErrNotFound)
				}
				plan.contribution = contribution
			}
		}

		planned = planned.Add(plan.amount)
		plans = append(plans, plan)
	}

	if planned.GreaterThan(payment.ReportedAmount()) {
		return nil, &model.OverAllocationError{
			Allocated: planned,
			Reported:  payment.ReportedAmount(),
		}
	}

	result := &ReconcileResult{}
	touched := map[uuid.UUID]*model.Installment{}

	// Removal phase: lines absent from the spec set are detached and their
	// ledger effects reversed.
	for _, line := range payment.Lines() {
		if keep[line.ID()] {
			continue
		}
		if err := e.removeLine(payment, line, lookup, touched, result, now); err != nil {
			return nil, err
		}
	}

	// Apply phase: update kept lines, create new ones.
	for _, plan := range plans {
		if err := e.applyPlan(payment, plan, touched, result, now); err != nil {
			return nil, err
		}
	}

	payment.Touch(now)
	e.propagator.SyncPayment(payment, now)

	for _, inst := range touched {
		result.TouchedInstallments = append(result.TouchedInstallments, inst)
	}
	return result, nil
}

// RemoveLine detaches a single allocation line and reverses its effects.
func (e *AllocationEngine) RemoveLine(
	payment *model.Payment,
	lineID uuid.UUID,
	resolve InstallmentResolver,
	now time.Time,
) (*ReconcileResult, error) {
	line := payment.LineByID(lineID)
	if line == nil {
		return nil, fmt.Errorf("allocation line %s: %w", lineID, model.ErrNotFound)
	}

	lookup := func(id uuid.UUID) (*model.Installment, error) {
		inst, err := resolve(id)
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, fmt.Errorf("installment %s: %w", id, model.ErrNotFound)
		}
		return inst, nil
	}

	result := &ReconcileResult{}
	touched := map[uuid.UUID]*model.Installment{}
	if err := e.removeLine(payment, line, lookup, touched, result, now); err != nil {
		return nil, err
	}

	payment.Touch(now)
	e.propagator.SyncPayment(payment, now)

	for _, inst := range touched {
		result.TouchedInstallments = append(result.TouchedInstallments, inst)
	}
	return result, nil
}

func (e *AllocationEngine) removeLine(
	payment *model.Payment,
	line *model.AllocationLine,
	lookup InstallmentResolver,
	touched map[uuid.UUID]*model.Installment,
	result *ReconcileResult,
	now time.Time,
) error {
	if line.IsInstallment() && line.InstallmentID() != nil {
		inst, err := lookup(*line.InstallmentID())
		if err != nil {
			return err
		}
		evts, err := e.propagator.ApplyDelta(inst, line.Capital().Neg(), line.Interest().Neg(), now)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, evts...)
		touched[inst.ID()] = inst
	}
	if line.IsContribution() && line.ContributionID() != nil {
		result.DeleteContributionIDs = append(result.DeleteContributionIDs, *line.ContributionID())
	}
	payment.DetachLine(line.ID())
	return nil
}

func (e *AllocationEngine) applyPlan(
	payment *model.Payment,
	plan linePlan,
	touched map[uuid.UUID]*model.Installment,
	result *ReconcileResult,
	now time.Time,
) error {
	if plan.inst != nil {
		var capitalDelta, interestDelta decimal.Decimal
		if plan.line != nil {
			capitalDelta = plan.capital.Sub(plan.line.Capital())
			interestDelta = plan.interest.Sub(plan.line.Interest())
			if err := plan.line.UpdateInstallmentSplit(plan.capital, plan.interest); err != nil {
				return err
			}
		} else {
			capitalDelta = plan.capital
			interestDelta = plan.interest
			line, err := model.NewInstallmentLine(payment.ID(), plan.inst, plan.capital, plan.interest)
			if err != nil {
				return err
			}
			payment.AttachLine(line)
		}

		evts, err := e.propagator.ApplyDelta(plan.inst, capitalDelta, interestDelta, now)
		if err != nil {
			return err
		}
		result.Events = append(result.Events, evts...)
		touched[plan.inst.ID()] = plan.inst
		return nil
	}

	contributedOn := payment.ReceivedAt()
	if plan.contributedOn != nil {
		contributedOn = *plan.contributedOn
	} else if plan.line != nil && plan.line.ContributedOn() != nil {
		contributedOn = *plan.line.ContributedOn()
	}

	if plan.line != nil {
		if err := plan.line.UpdateContributionAmount(plan.amount, plan.contributedOn); err != nil {
			return err
		}
		if plan.contribution != nil {
			if err := plan.contribution.Sync(contributedOn, plan.amount, payment.ReceiptRef()); err != nil {
				return err
			}
			result.SyncedContributions = append(result.SyncedContributions, plan.contribution)
			return nil
		}
		return e.createContribution(payment, plan.line, contributedOn, result, now)
	}

	line, err := model.NewContributionLine(payment.ID(), plan.amount, plan.contributedOn)
	if err != nil {
		return err
	}
	payment.AttachLine(line)
	return e.createContribution(payment, line, contributedOn, result, now)
}

func (e *AllocationEngine) createContribution(
	payment *model.Payment,
	line *model.AllocationLine,
	contributedOn time.Time,
	result *ReconcileResult,
	now time.Time,
) error {
	contribution, err := model.NewContribution(
		payment.PayerID(), contributedOn, line.Amount(), payment.ReceiptRef(), now,
	)
	if err != nil {
		return err
	}
	line.BindContribution(contribution.ID())
	result.NewContributions = append(result.NewContributions, contribution)
	result.Events = append(result.Events, event.NewContributionRecorded(
		contribution.ID(), payment.PayerID(), contribution.Amount(), contributedOn, now,
	))
	return nil
}

func installmentTarget(spec AllocationSpec, line *model.AllocationLine) (uuid.UUID, error) {
	if spec.InstallmentID != nil {
		if line != nil && line.IsInstallment() && line.InstallmentID() != nil &&
			*line.InstallmentID() != *spec.InstallmentID {
			// Retargeting a line to a different installment is expressed as
			// remove + add, never as an in-place update.
			return uuid.Nil, model.ErrInvalidAllocation
		}
		if line != nil && line.IsContribution() {
			return uuid.Nil, model.ErrInvalidAllocation
		}
		return *spec.InstallmentID, nil
	}
	if line != nil && line.InstallmentID() != nil {
		return *line.InstallmentID(), nil
	}
	return uuid.Nil, model.ErrInvalidAllocation
}

func defaultedCapital(spec AllocationSpec, line *model.AllocationLine, inst *model.Installment) decimal.Decimal {
	if spec.Capital != nil {
		return *spec.Capital
	}
	if line != nil {
		return line.Capital()
	}
	return inst.PendingCapital()
}

func defaultedInterest(spec AllocationSpec, line *model.AllocationLine, inst *model.Installment) decimal.Decimal {
	if spec.Interest != nil {
		return *spec.Interest
	}
	if line != nil {
		return line.Interest()
	}
	return inst.PendingInterest()
}
