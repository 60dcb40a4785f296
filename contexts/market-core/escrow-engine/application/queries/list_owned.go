package queries

import (
	"context"
	"log/slog"
	"strings"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/ports"
)

type ListOwnedQuery struct {
	Caller string
}

type ListOwnedResult struct {
	Items []entities.MarketItem
}

type ListOwnedUseCase struct {
	Items  ports.ItemRepository
	Logger *slog.Logger
}

func (u ListOwnedUseCase) Execute(ctx context.Context, query ListOwnedQuery) (ListOwnedResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(query.Caller) == "" {
		return ListOwnedResult{}, domainerrors.ErrInvalidListFilter
	}

	items, err := u.Items.ListItemsByOwner(ctx, query.Caller)
	if err != nil {
		logger.Error("owned listing read failed",
			"event", "list_owned_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"owner", query.Caller,
			"error", err.Error(),
		)
		return ListOwnedResult{}, err
	}
	return ListOwnedResult{Items: items}, nil
}
