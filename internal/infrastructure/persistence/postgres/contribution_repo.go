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
)

const contributionColumns = `id, member_id, contributed_on, amount, receipt_ref, registered_at`

// ContributionRepo implements port.ContributionRepository.
type ContributionRepo struct {
	pool *pgxpool.Pool
}

// NewContributionRepo creates a PostgreSQL-backed contribution repository.
func NewContributionRepo(pool *pgxpool.Pool) *ContributionRepo {
	return &ContributionRepo{pool: pool}
}

// Save upserts a contribution.
func (r *ContributionRepo) Save(ctx context.Context, c *model.Contribution) error {
	query := `
		INSERT INTO contributions (id, member_id, contributed_on, amount, receipt_ref, registered_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			contributed_on = EXCLUDED.contributed_on,
			amount         = EXCLUDED.amount,
			receipt_ref    = EXCLUDED.receipt_ref
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID(), c.MemberID(), c.ContributedOn(), c.Amount(), c.ReceiptRef(), c.RegisteredAt(),
	)
	if err != nil {
		return fmt.Errorf("save contribution: %w", err)
	}
	return nil
}

// FindByID retrieves one contribution.
func (r *ContributionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions WHERE id = $1`
	c, err := scanContribution(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByMember retrieves a member's contributions, oldest first.
func (r *ContributionRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions WHERE member_id = $1 ORDER BY contributed_on`
	return r.loadMany(ctx, query, memberID)
}

// ListByYear retrieves all contributions dated in a fiscal year.
func (r *ContributionRepo) ListByYear(ctx context.Context, year int) ([]*model.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions
		WHERE EXTRACT(YEAR FROM contributed_on) = $1 ORDER BY contributed_on`
	return r.loadMany(ctx, query, year)
}

// Delete removes a contribution.
func (r *ContributionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM contributions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	return nil
}

func (r *ContributionRepo) loadMany(ctx context.Context, query string, args ...any) ([]*model.Contribution, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func scanContribution(s scannable) (*model.Contribution, error) {
	var (
		id, memberID  uuid.UUID
		contributedOn time.Time
		amount        decimal.Decimal
		receiptRef    string
		registeredAt  time.Time
	)
	err := s.Scan(&id, &memberID, &contributedOn, &amount, &receiptRef, &registeredAt)
	if err != nil {
		return nil, fmt.Errorf("scan contribution: %w", err)
	}
	return model.ReconstructContribution(id, memberID, contributedOn, amount, receiptRef, registeredAt), nil
}
