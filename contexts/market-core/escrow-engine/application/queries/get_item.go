package queries

import (
	"context"
	"log/slog"

	"caravel/contexts/market-core/escrow-engine/domain/entities"
	"caravel/contexts/market-core/escrow-engine/ports"
)

type GetItemQuery struct {
	ItemID uint64
}

type GetItemResult struct {
	Item entities.MarketItem
}

type GetItemUseCase struct {
	Items  ports.ItemRepository
	Logger *slog.Logger
}

func (u GetItemUseCase) Execute(ctx context.Context, query GetItemQuery) (GetItemResult, error) {
	item, err := u.Items.GetItem(ctx, query.ItemID)
	if err != nil {
		return GetItemResult{}, err
	}
	return GetItemResult{Item: item}, nil
}
