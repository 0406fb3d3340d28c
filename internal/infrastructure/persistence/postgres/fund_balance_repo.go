package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
)

// FundBalanceRepo implements port.FundBalanceRepository.
type FundBalanceRepo struct {
	pool *pgxpool.Pool
}

// NewFundBalanceRepo creates a PostgreSQL-backed fund balance repository.
func NewFundBalanceRepo(pool *pgxpool.Pool) *FundBalanceRepo {
	return &FundBalanceRepo{pool: pool}
}

// Upsert writes the balance row for a year.
func (r *FundBalanceRepo) Upsert(ctx context.Context, balance *model.FundBalance) error {
	query := `
		INSERT INTO fund_balances (year, cash, bank, wallet, notes, modified_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (year) DO UPDATE SET
			cash        = EXCLUDED.cash,
			bank        = EXCLUDED.bank,
			wallet      = EXCLUDED.wallet,
			notes       = EXCLUDED.notes,
			modified_at = EXCLUDED.modified_at
	`
	_, err := r.pool.Exec(ctx, query,
		balance.Year(), balance.Cash(), balance.Bank(), balance.Wallet(),
		balance.Notes(), balance.ModifiedAt(),
	)
	if err != nil {
		return fmt.Errorf("save fund balance: %w", err)
	}
	return nil
}

// FindByYear retrieves the balance row of one year.
func (r *FundBalanceRepo) FindByYear(ctx context.Context, year int) (*model.FundBalance, error) {
	query := `SELECT year, cash, bank, wallet, notes, modified_at FROM fund_balances WHERE year = $1`
	balance, err := scanFundBalance(r.pool.QueryRow(ctx, query, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return balance, nil
}

// ListAll retrieves all balance rows, newest year first.
func (r *FundBalanceRepo) ListAll(ctx context.Context) ([]*model.FundBalance, error) {
	query := `SELECT year, cash, bank, wallet, notes, modified_at FROM fund_balances ORDER BY year DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query fund balances: %w", err)
	}
	defer rows.Close()

	var balances []*model.FundBalance
	for rows.Next() {
		balance, err := scanFundBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, rows.Err()
}

func scanFundBalance(s scannable) (*model.FundBalance, error) {
	var (
		year               int
		cash, bank, wallet decimal.Decimal
		notes              string
		modifiedAt         time.Time
	)
	if err := s.Scan(&year, &cash, &bank, &wallet, &notes, &modifiedAt); err != nil {
		return nil, fmt.Errorf("scan fund balance: %w", err)
	}
	return model.ReconstructFundBalance(year, cash, bank, wallet, notes, modifiedAt), nil
}
