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
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

const loanRequestColumns = `id, member_id, amount, term_count, monthly_rate,
       desired_disbursement, status, requested_at, decided_at`

// LoanRequestRepo implements port.LoanRequestRepository.
type LoanRequestRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRequestRepo creates a PostgreSQL-backed loan request repository.
func NewLoanRequestRepo(pool *pgxpool.Pool) *LoanRequestRepo {
	return &LoanRequestRepo{pool: pool}
}

// Save upserts a loan request.
func (r *LoanRequestRepo) Save(ctx context.Context, request *model.LoanRequest) error {
	query := `
		INSERT INTO loan_requests (id, member_id, amount, term_count, monthly_rate,
		                           desired_disbursement, status, requested_at, decided_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			status     = EXCLUDED.status,
			decided_at = EXCLUDED.decided_at
	`
	_, err := r.pool.Exec(ctx, query,
		request.ID(), request.MemberID(), request.Amount(), request.TermCount(),
		request.MonthlyRate(), request.DesiredDisbursement(),
		request.Status().String(), request.RequestedAt(), request.DecidedAt(),
	)
	if err != nil {
		return fmt.Errorf("save loan request: %w", err)
	}
	return nil
}

// FindByID retrieves one loan request.
func (r *LoanRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.LoanRequest, error) {
	query := `SELECT ` + loanRequestColumns + ` FROM loan_requests WHERE id = $1`
	request, err := scanLoanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

// ListPending retrieves all undecided requests, oldest first.
func (r *LoanRequestRepo) ListPending(ctx context.Context) ([]*model.LoanRequest, error) {
	query := `SELECT ` + loanRequestColumns + ` FROM loan_requests
		WHERE status = $1 ORDER BY requested_at`
	rows, err := r.pool.Query(ctx, query, valueobject.LoanRequestStatusPending.String())
	if err != nil {
		return nil, fmt.Errorf("query loan requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.LoanRequest
	for rows.Next() {
		request, err := scanLoanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func scanLoanRequest(s scannable) (*model.LoanRequest, error) {
	var (
		id, memberID        uuid.UUID
		amount, monthlyRate decimal.Decimal
		termCount           int
		desired             time.Time
		statusStr           string
		requestedAt         time.Time
		decidedAt           *time.Time
	)
	err := s.Scan(&id, &memberID, &amount, &termCount, &monthlyRate,
		&desired, &statusStr, &requestedAt, &decidedAt)
	if err != nil {
		return nil, fmt.Errorf("scan loan request: %w", err)
	}

	status, err := valueobject.NewLoanRequestStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("parse loan request status: %w", err)
	}

	return model.ReconstructLoanRequest(
		id, memberID, amount, termCount, monthlyRate, desired, status, requestedAt, decidedAt,
	), nil
}
