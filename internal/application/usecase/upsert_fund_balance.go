package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/FONAR-bit/fonar-project/internal/application/dto"
	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
)

// UpsertFundBalanceUseCase declares or corrects the fund's cash position for
// one fiscal year.
type UpsertFundBalanceUseCase struct {
	balanceRepo port.FundBalanceRepository
	clock       port.Clock
}

// NewUpsertFundBalanceUseCase wires dependencies.
func NewUpsertFundBalanceUseCase(
	balanceRepo port.FundBalanceRepository,
	clock port.Clock,
) *UpsertFundBalanceUseCase {
	return &UpsertFundBalanceUseCase{balanceRepo: balanceRepo, clock: clock}
}

// Execute writes the balance row, creating it when the year has none yet.
func (uc *UpsertFundBalanceUseCase) Execute(
	ctx context.Context,
	req dto.UpsertFundBalanceRequest,
) (dto.FundBalanceResponse, error) {
	now := uc.clock.Now().UTC()

	balance, err := uc.balanceRepo.FindByYear(ctx, req.Year)
	switch {
	case err == nil:
		if err := balance.Update(req.Cash, req.Bank, req.Wallet, req.Notes, now); err != nil {
			return dto.FundBalanceResponse{}, err
		}
	case errors.Is(err, model.ErrNotFound):
		balance, err = model.NewFundBalance(req.Year, req.Cash, req.Bank, req.Wallet, req.Notes, now)
		if err != nil {
			return dto.FundBalanceResponse{}, err
		}
	default:
		return dto.FundBalanceResponse{}, fmt.Errorf("find fund balance: %w", err)
	}

	if err := uc.balanceRepo.Upsert(ctx, balance); err != nil {
		return dto.FundBalanceResponse{}, fmt.Errorf("save fund balance: %w", err)
	}

	return dto.FundBalanceResponse{
		Year:       balance.Year(),
		Cash:       balance.Cash(),
		Bank:       balance.Bank(),
		Wallet:     balance.Wallet(),
		Total:      balance.Total(),
		Notes:      balance.Notes(),
		ModifiedAt: balance.ModifiedAt(),
	}, nil
}
