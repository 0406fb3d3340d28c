package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// RateRepo implements port.RateTableRepository.
type RateRepo struct {
	pool *pgxpool.Pool
}

// NewRateRepo creates a PostgreSQL-backed rate table repository.
func NewRateRepo(pool *pgxpool.Pool) *RateRepo {
	return &RateRepo{pool: pool}
}

// Save upserts a rate table entry.
func (r *RateRepo) Save(ctx context.Context, entry model.RateEntry) error {
	query := `
		INSERT INTO rate_table (id, member_class, loan_category, term_min, term_max,
		                        monthly_rate, effective_from)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			term_min       = EXCLUDED.term_min,
			term_max       = EXCLUDED.term_max,
			monthly_rate   = EXCLUDED.monthly_rate,
			effective_from = EXCLUDED.effective_from
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID(), entry.MemberClass().String(), entry.LoanCategory(),
		entry.TermMin(), entry.TermMax(), entry.MonthlyRate(), entry.EffectiveFrom(),
	)
	if err != nil {
		return fmt.Errorf("save rate entry: %w", err)
	}
	return nil
}

// ListForClass retrieves all rate entries for one member class.
func (r *RateRepo) ListForClass(ctx context.Context, class valueobject.MemberClass) ([]model.RateEntry, error) {
	query := `
		SELECT id, member_class, loan_category, term_min, term_max, monthly_rate, effective_from
		FROM rate_table WHERE member_class = $1 ORDER BY effective_from DESC
	`
	rows, err := r.pool.Query(ctx, query, class.String())
	if err != nil {
		return nil, fmt.Errorf("query rate table: %w", err)
	}
	defer rows.Close()

	var entries []model.RateEntry
	for rows.Next() {
		var (
			id               uuid.UUID
			classStr         string
			category         string
			termMin, termMax int
			rate             decimal.Decimal
			effectiveFrom    time.Time
		)
		if err := rows.Scan(&id, &classStr, &category, &termMin, &termMax, &rate, &effectiveFrom); err != nil {
			return nil, fmt.Errorf("scan rate entry: %w", err)
		}

		memberClass, err := valueobject.NewMemberClass(classStr)
		if err != nil {
			return nil, fmt.Errorf("parse member class: %w", err)
		}

		entries = append(entries, model.ReconstructRateEntry(
			id, memberClass, category, termMin, termMax, rate, effectiveFrom,
		))
	}
	return entries, rows.Err()
}
