package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	pgshared "github.com/FONAR-bit/fonar-project/pkg/postgres"
)

const loanColumns = `id, member_id, request_id, principal, monthly_rate, term_count,
       disbursement_date, created_at, updated_at`

const installmentColumns = `id, loan_id, sequence, due_date, scheduled_capital,
       scheduled_interest, total, paid_capital, paid_interest, settled`

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRepo creates a PostgreSQL-backed loan repository.
func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

// Save persists the loan and its installment set. Installments are upserted
// by ID and rows no longer in the schedule are removed, so a regenerated
// schedule replaces the old one.
func (r *LoanRepo) Save(ctx context.Context, loan *model.Loan) error {
	return pgshared.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		loanQuery := `
			INSERT INTO loans (id, member_id, request_id, principal, monthly_rate,
			                   term_count, disbursement_date, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (id) DO UPDATE SET
				principal         = EXCLUDED.principal,
				monthly_rate      = EXCLUDED.monthly_rate,
				term_count        = EXCLUDED.term_count,
				disbursement_date = EXCLUDED.disbursement_date,
				updated_at        = EXCLUDED.updated_at
		`
		_, err := tx.Exec(ctx, loanQuery,
			loan.ID(), loan.MemberID(), loan.RequestID(), loan.Principal(),
			loan.MonthlyRate(), loan.TermCount(), loan.DisbursementDate(),
			loan.CreatedAt(), loan.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("save loan: %w", err)
		}

		ids := make([]uuid.UUID, 0, len(loan.Installments()))
		for _, inst := range loan.Installments() {
			ids = append(ids, inst.ID())

			instQuery := `
				INSERT INTO installments (id, loan_id, sequence, due_date,
				                          scheduled_capital, scheduled_interest, total,
				                          paid_capital, paid_interest, settled)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				ON CONFLICT (id) DO UPDATE SET
					due_date           = EXCLUDED.due_date,
					scheduled_capital  = EXCLUDED.scheduled_capital,
					scheduled_interest = EXCLUDED.scheduled_interest,
					total              = EXCLUDED.total,
					paid_capital       = EXCLUDED.paid_capital,
					paid_interest      = EXCLUDED.paid_interest,
					settled            = EXCLUDED.settled
			`
			_, err := tx.Exec(ctx, instQuery,
				inst.ID(), inst.LoanID(), inst.Sequence(), inst.DueDate(),
				inst.ScheduledCapital(), inst.ScheduledInterest(), inst.Total(),
				inst.PaidCapital(), inst.PaidInterest(), inst.Settled(),
			)
			if err != nil {
				return fmt.Errorf("save installment %d: %w", inst.Sequence(), err)
			}
		}

		_, err = tx.Exec(ctx,
			`DELETE FROM installments WHERE loan_id = $1 AND NOT (id = ANY($2))`,
			loan.ID(), ids,
		)
		if err != nil {
			return fmt.Errorf("prune installments: %w", err)
		}

		return nil
	})
}

// FindByID retrieves a loan with its installment schedule.
func (r *LoanRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.loadOne(ctx, query, id)
}

// FindByRequestID retrieves the loan issued for a request.
func (r *LoanRepo) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE request_id = $1`
	return r.loadOne(ctx, query, requestID)
}

// FindByInstallmentIDs loads the loans owning any of the given installments.
func (r *LoanRepo) FindByInstallmentIDs(ctx context.Context, installmentIDs []uuid.UUID) ([]*model.Loan, error) {
	if len(installmentIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + loanColumns + ` FROM loans
		WHERE id IN (SELECT DISTINCT loan_id FROM installments WHERE id = ANY($1))
	`
	return r.loadMany(ctx, query, installmentIDs)
}

// ListByMember retrieves all loans of one member.
func (r *LoanRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE member_id = $1 ORDER BY created_at DESC`
	return r.loadMany(ctx, query, memberID)
}

// ListAll retrieves every loan.
func (r *LoanRepo) ListAll(ctx context.Context) ([]*model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at`
	return r.loadMany(ctx, query)
}

// ---------------------------------------------------------------------------
// internal helpers
// ---------------------------------------------------------------------------

type loanRow struct {
	id               uuid.UUID
	memberID         uuid.UUID
	requestID        *uuid.UUID
	principal        decimal.Decimal
	monthlyRate      decimal.Decimal
	termCount        int
	disbursementDate time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

func scanLoanRow(s scannable) (loanRow, error) {
	var row loanRow
	err := s.Scan(
		&row.id, &row.memberID, &row.requestID, &row.principal, &row.monthlyRate,
		&row.termCount, &row.disbursementDate, &row.createdAt, &row.updatedAt,
	)
	if err != nil {
		return loanRow{}, fmt.Errorf("scan loan: %w", err)
	}
	return row, nil
}

func (r *LoanRepo) loadOne(ctx context.Context, query string, args ...any) (*model.Loan, error) {
	row, err := scanLoanRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return r.reconstruct(ctx, row)
}

func (r *LoanRepo) loadMany(ctx context.Context, query string, args ...any) ([]*model.Loan, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loanRows []loanRow
	for rows.Next() {
		row, err := scanLoanRow(rows)
		if err != nil {
			return nil, err
		}
		loanRows = append(loanRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	loans := make([]*model.Loan, 0, len(loanRows))
	for _, row := range loanRows {
		loan, err := r.reconstruct(ctx, row)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

func (r *LoanRepo) reconstruct(ctx context.Context, row loanRow) (*model.Loan, error) {
	installments, err := r.loadInstallments(ctx, row.id)
	if err != nil {
		return nil, err
	}
	return model.ReconstructLoan(
		row.id, row.memberID, row.requestID,
		row.principal, row.monthlyRate, row.termCount, row.disbursementDate,
		installments, row.createdAt, row.updatedAt,
	), nil
}

func (r *LoanRepo) loadInstallments(ctx context.Context, loanID uuid.UUID) ([]*model.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE loan_id = $1 ORDER BY sequence`
	rows, err := r.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var installments []*model.Installment
	for rows.Next() {
		var (
			id, ownerID                               uuid.UUID
			sequence                                  int
			dueDate                                   time.Time
			scheduledCapital, scheduledInterest, total decimal.Decimal
			paidCapital, paidInterest                 decimal.Decimal
			settled                                   bool
		)
		err := rows.Scan(
			&id, &ownerID, &sequence, &dueDate,
			&scheduledCapital, &scheduledInterest, &total,
			&paidCapital, &paidInterest, &settled,
		)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		installments = append(installments, model.ReconstructInstallment(
			id, ownerID, sequence, dueDate,
			scheduledCapital, scheduledInterest, total,
			paidCapital, paidInterest, settled,
		))
	}
	return installments, rows.Err()
}
