package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// FundBalance entity
// ---------------------------------------------------------------------------

// FundBalance is the declared cash position of the pool for one fiscal year,
// split across the accounts the fund actually holds money in. One row per
// year, upserted by administrators.
type FundBalance struct {
	year       int
	cash       decimal.Decimal
	bank       decimal.Decimal
	wallet     decimal.Decimal
	notes      string
	modifiedAt time.Time
}

// NewFundBalance creates the balance row for a year.
func NewFundBalance(year int, cash, bank, wallet decimal.Decimal, notes string, now time.Time) (*FundBalance, error) {
	if year < 1 {
		return nil, errors.New("year is required")
	}
	if cash.IsNegative() || bank.IsNegative() || wallet.IsNegative() {
		return nil, errors.New("account balances must not be negative")
	}
	return &FundBalance{
		year:       year,
		cash:       cash,
		bank:       bank,
		wallet:     wallet,
		notes:      notes,
		modifiedAt: now,
	}, nil
}

// ReconstructFundBalance rebuilds a balance from persistence.
func ReconstructFundBalance(year int, cash, bank, wallet decimal.Decimal, notes string, modifiedAt time.Time) *FundBalance {
	return &FundBalance{year: year, cash: cash, bank: bank, wallet: wallet, notes: notes, modifiedAt: modifiedAt}
}

func (b *FundBalance) Year() int               { return b.year }
func (b *FundBalance) Cash() decimal.Decimal   { return b.cash }
func (b *FundBalance) Bank() decimal.Decimal   { return b.bank }
func (b *FundBalance) Wallet() decimal.Decimal { return b.wallet }
func (b *FundBalance) Notes() string           { return b.notes }
func (b *FundBalance) ModifiedAt() time.Time   { return b.modifiedAt }

// Total is the sum across all accounts.
func (b *FundBalance) Total() decimal.Decimal {
	return b.cash.Add(b.bank).Add(b.wallet)
}

// Update overwrites the declared balances.
func (b *FundBalance) Update(cash, bank, wallet decimal.Decimal, notes string, now time.Time) error {
	if cash.IsNegative() || bank.IsNegative() || wallet.IsNegative() {
		return errors.New("account balances must not be negative")
	}
	b.cash = cash
	b.bank = bank
	b.wallet = wallet
	b.notes = notes
	b.modifiedAt = now
	return nil
}
