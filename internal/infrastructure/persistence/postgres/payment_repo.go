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
	"github.com/FONAR-bit/fonar-project/internal/domain/service"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
	pgshared "github.com/FONAR-bit/fonar-project/pkg/postgres"
)

const paymentColumns = `id, payer_id, reported_amount, received_at, reconciled,
       receipt_ref, notes, created_at, updated_at`

const lineColumns = `id, payment_id, kind, installment_id, loan_id, contribution_id,
       contributed_on, capital, interest, amount`

// PaymentRepo implements port.PaymentRepository.
type PaymentRepo struct {
	pool *pgxpool.Pool
}

// NewPaymentRepo creates a PostgreSQL-backed payment repository.
func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Save upserts the payment row. Allocation lines are persisted only through
// SaveReconciliation, which owns the full changeset.
func (r *PaymentRepo) Save(ctx context.Context, payment *model.Payment) error {
	_, err := r.pool.Exec(ctx, upsertPaymentQuery, paymentArgs(payment)...)
	if err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

const upsertPaymentQuery = `
	INSERT INTO payments (id, payer_id, reported_amount, received_at, reconciled,
	                      receipt_ref, notes, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (id) DO UPDATE SET
		reported_amount = EXCLUDED.reported_amount,
		reconciled      = EXCLUDED.reconciled,
		receipt_ref     = EXCLUDED.receipt_ref,
		notes           = EXCLUDED.notes,
		updated_at      = EXCLUDED.updated_at
`

func paymentArgs(payment *model.Payment) []any {
	return []any{
		payment.ID(), payment.PayerID(), payment.ReportedAmount(), payment.ReceivedAt(),
		payment.Reconciled(), payment.ReceiptRef(), payment.Notes(),
		payment.CreatedAt(), payment.UpdatedAt(),
	}
}

// SaveReconciliation writes the payment, its allocation line set and the
// whole reconciliation changeset in one serializable transaction. The payment
// row is locked first so two concurrent reconciliations of the same payment
// cannot interleave.
func (r *PaymentRepo) SaveReconciliation(
	ctx context.Context,
	payment *model.Payment,
	result *service.ReconcileResult,
) error {
	return pgshared.WithSerializedTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM payments WHERE id = $1 FOR UPDATE`, payment.ID()).
			Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		// New contributions first: lines reference them.
		for _, c := range result.NewContributions {
			_, err := tx.Exec(ctx, `
				INSERT INTO contributions (id, member_id, contributed_on, amount, receipt_ref, registered_at)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, c.ID(), c.MemberID(), c.ContributedOn(), c.Amount(), c.ReceiptRef(), c.RegisteredAt())
			if err != nil {
				return fmt.Errorf("insert contribution: %w", err)
			}
		}

		lineIDs := make([]uuid.UUID, 0, len(payment.Lines()))
		for _, line := range payment.Lines() {
			lineIDs = append(lineIDs, line.ID())
			_, err := tx.Exec(ctx, `
				INSERT INTO allocation_lines (id, payment_id, kind, installment_id, loan_id,
				                              contribution_id, contributed_on, capital, interest, amount)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				ON CONFLICT (id) DO UPDATE SET
					contribution_id = EXCLUDED.contribution_id,
					contributed_on  = EXCLUDED.contributed_on,
					capital         = EXCLUDED.capital,
					interest        = EXCLUDED.interest,
					amount          = EXCLUDED.amount
			`,
				line.ID(), line.PaymentID(), line.Kind().String(),
				line.InstallmentID(), line.LoanID(), line.ContributionID(),
				line.ContributedOn(), line.Capital(), line.Interest(), line.Amount(),
			)
			if err != nil {
				return fmt.Errorf("save allocation line: %w", err)
			}
		}

		_, err = tx.Exec(ctx,
			`DELETE FROM allocation_lines WHERE payment_id = $1 AND NOT (id = ANY($2))`,
			payment.ID(), lineIDs,
		)
		if err != nil {
			return fmt.Errorf("prune allocation lines: %w", err)
		}

		for _, c := range result.SyncedContributions {
			_, err := tx.Exec(ctx, `
				UPDATE contributions SET contributed_on = $2, amount = $3, receipt_ref = $4 WHERE id = $1
			`, c.ID(), c.ContributedOn(), c.Amount(), c.ReceiptRef())
			if err != nil {
				return fmt.Errorf("sync contribution: %w", err)
			}
		}

		if len(result.DeleteContributionIDs) > 0 {
			_, err := tx.Exec(ctx,
				`DELETE FROM contributions WHERE id = ANY($1)`,
				result.DeleteContributionIDs,
			)
			if err != nil {
				return fmt.Errorf("delete contributions: %w", err)
			}
		}

		for _, inst := range result.TouchedInstallments {
			_, err := tx.Exec(ctx, `
				UPDATE installments SET paid_capital = $2, paid_interest = $3, settled = $4
				WHERE id = $1
			`, inst.ID(), inst.PaidCapital(), inst.PaidInterest(), inst.Settled())
			if err != nil {
				return fmt.Errorf("update installment: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, upsertPaymentQuery, paymentArgs(payment)...); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		return nil
	})
}

// FindByID retrieves a payment with its allocation lines.
func (r *PaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	row, err := scanPaymentRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return r.reconstruct(ctx, row)
}

// ListByPayer retrieves a member's payments, newest first.
func (r *PaymentRepo) ListByPayer(ctx context.Context, payerID uuid.UUID) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payer_id = $1 ORDER BY received_at DESC`
	return r.loadMany(ctx, query, payerID)
}

// ListAll retrieves every payment.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY received_at`
	return r.loadMany(ctx, query)
}

// InterestByBorrowerInYear sums applied interest per borrowing member over
// lines whose installment falls due in the year and whose payment is fully
// reconciled.
func (r *PaymentRepo) InterestByBorrowerInYear(ctx context.Context, year int) (map[uuid.UUID]decimal.Decimal, error) {
	query := `
		SELECT l.member_id, COALESCE(SUM(al.interest), 0)
		FROM allocation_lines al
		JOIN installments i ON i.id = al.installment_id
		JOIN loans l        ON l.id = i.loan_id
		JOIN payments p     ON p.id = al.payment_id
		WHERE al.kind = $1
		  AND p.reconciled
		  AND EXTRACT(YEAR FROM i.due_date) = $2
		GROUP BY l.member_id
	`
	rows, err := r.pool.Query(ctx, query, valueobject.AllocationKindLoanInstallment.String(), year)
	if err != nil {
		return nil, fmt.Errorf("query interest: %w", err)
	}
	defer rows.Close()

	result := map[uuid.UUID]decimal.Decimal{}
	for rows.Next() {
		var memberID uuid.UUID
		var interest decimal.Decimal
		if err := rows.Scan(&memberID, &interest); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		result[memberID] = interest
	}
	return result, rows.Err()
}

// ---------------------------------------------------------------------------
// internal helpers
// ---------------------------------------------------------------------------

type paymentRow struct {
	id             uuid.UUID
	payerID        uuid.UUID
	reportedAmount decimal.Decimal
	receivedAt     time.Time
	reconciled     bool
	receiptRef     string
	notes          string
	createdAt      time.Time
	updatedAt      time.Time
}

func scanPaymentRow(s scannable) (paymentRow, error) {
	var row paymentRow
	err := s.Scan(
		&row.id, &row.payerID, &row.reportedAmount, &row.receivedAt, &row.reconciled,
		&row.receiptRef, &row.notes, &row.createdAt, &row.updatedAt,
	)
	if err != nil {
		return paymentRow{}, fmt.Errorf("scan payment: %w", err)
	}
	return row, nil
}

func (r *PaymentRepo) loadMany(ctx context.Context, query string, args ...any) ([]*model.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var paymentRows []paymentRow
	for rows.Next() {
		row, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		paymentRows = append(paymentRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	payments := make([]*model.Payment, 0, len(paymentRows))
	for _, row := range paymentRows {
		payment, err := r.reconstruct(ctx, row)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

func (r *PaymentRepo) reconstruct(ctx context.Context, row paymentRow) (*model.Payment, error) {
	lines, err := r.loadLines(ctx, row.id)
	if err != nil {
		return nil, err
	}
	return model.ReconstructPayment(
		row.id, row.payerID, row.reportedAmount, row.receivedAt, row.reconciled,
		row.receiptRef, row.notes, lines, row.createdAt, row.updatedAt,
	), nil
}

func (r *PaymentRepo) loadLines(ctx context.Context, paymentID uuid.UUID) ([]*model.AllocationLine, error) {
	query := `SELECT ` + lineColumns + ` FROM allocation_lines WHERE payment_id = $1 ORDER BY line_no`
	rows, err := r.pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("query allocation lines: %w", err)
	}
	defer rows.Close()

	var lines []*model.AllocationLine
	for rows.Next() {
		var (
			id, ownerID                       uuid.UUID
			kindStr                           string
			installmentID, loanID, contribID  *uuid.UUID
			contributedOn                     *time.Time
			capital, interest, amount         decimal.Decimal
		)
		err := rows.Scan(
			&id, &ownerID, &kindStr, &installmentID, &loanID, &contribID,
			&contributedOn, &capital, &interest, &amount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan allocation line: %w", err)
		}

		kind, err := valueobject.NewAllocationKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("parse allocation kind: %w", err)
		}

		lines = append(lines, model.ReconstructAllocationLine(
			id, ownerID, kind, installmentID, loanID, contribID,
			contributedOn, capital, interest, amount,
		))
	}
	return lines, rows.Err()
}
