package usecase

import (
	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
)

func toInstallmentResponse(inst *model.Installment) dto.InstallmentResponse {
	return dto.InstallmentResponse{
		ID:                inst.ID(),
		LoanID:            inst.LoanID(),
		Sequence:          inst.Sequence(),
		DueDate:           inst.DueDate(),
		ScheduledCapital:  inst.ScheduledCapital(),
		ScheduledInterest: inst.ScheduledInterest(),
		Total:             inst.Total(),
		PaidCapital:       inst.PaidCapital(),
		PaidInterest:      inst.PaidInterest(),
		PendingCapital:    inst.PendingCapital(),
		PendingInterest:   inst.PendingInterest(),
		State:             inst.State().String(),
	}
}

func toLoanResponse(loan *model.Loan, includeSchedule bool) dto.LoanResponse {
	resp := dto.LoanResponse{
		ID:                 loan.ID(),
		MemberID:           loan.MemberID(),
		RequestID:          loan.RequestID(),
		Principal:          loan.Principal(),
		MonthlyRate:        loan.MonthlyRate(),
		TermCount:          loan.TermCount(),
		DisbursementDate:   loan.DisbursementDate(),
		FixedInstallment:   loan.FixedInstallmentAmount(),
		OutstandingCapital: loan.OutstandingCapital(),
		CollectedInterest:  loan.CollectedInterest(),
		CreatedAt:          loan.CreatedAt(),
		UpdatedAt:          loan.UpdatedAt(),
	}
	if includeSchedule {
		for _, inst := range loan.Installments() {
			resp.Schedule = append(resp.Schedule, toInstallmentResponse(inst))
		}
	}
	return resp
}

func toAllocationLineResponse(line *model.AllocationLine) dto.AllocationLineResponse {
	return dto.AllocationLineResponse{
		ID:             line.ID(),
		Kind:           line.Kind().String(),
		InstallmentID:  line.InstallmentID(),
		LoanID:         line.LoanID(),
		ContributionID: line.ContributionID(),
		ContributedOn:  line.ContributedOn(),
		Capital:        line.Capital(),
		Interest:       line.Interest(),
		Amount:         line.Amount(),
	}
}

func toPaymentResponse(p *model.Payment) dto.PaymentResponse {
	resp := dto.PaymentResponse{
		ID:             p.ID(),
		PayerID:        p.PayerID(),
		ReportedAmount: p.ReportedAmount(),
		AppliedTotal:   p.AppliedTotal(),
		Shortfall:      p.Shortfall(),
		Reconciled:     p.Reconciled(),
		ReceivedAt:     p.ReceivedAt(),
		ReceiptRef:     p.ReceiptRef(),
		Notes:          p.Notes(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
	for _, line := range p.Lines() {
		resp.Lines = append(resp.Lines, toAllocationLineResponse(line))
	}
	return resp
}

func toLoanRequestResponse(r *model.LoanRequest) dto.LoanRequestResponse {
	return dto.LoanRequestResponse{
		ID:                  r.ID(),
		MemberID:            r.MemberID(),
		Amount:              r.Amount(),
		TermCount:           r.TermCount(),
		MonthlyRate:         r.MonthlyRate(),
		DesiredDisbursement: r.DesiredDisbursement(),
		Status:              r.Status().String(),
		RequestedAt:         r.RequestedAt(),
		DecidedAt:           r.DecidedAt(),
	}
}
