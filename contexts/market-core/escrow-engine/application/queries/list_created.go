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

type ListCreatedQuery struct {
	Caller string
}

type ListCreatedResult struct {
	Items []entities.MarketItem
}

type ListCreatedUseCase struct {
	Items  ports.ItemRepository
	Logger *slog.Logger
}

// Execute returns every record the caller listed that is still present in the
// registry, sold or not. Cancelled listings are gone and do not reappear here.
func (u ListCreatedUseCase) Execute(ctx context.Context, query ListCreatedQuery) (ListCreatedResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(query.Caller) == "" {
		return ListCreatedResult{}, domainerrors.ErrInvalidListFilter
	}

	items, err := u.Items.ListItemsBySeller(ctx, query.Caller)
	if err != nil {
		logger.Error("created listing read failed",
			"event", "list_created_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"seller", query.Caller,
			"error", err.Error(),
		)
		return ListCreatedResult{}, err
	}
	return ListCreatedResult{Items: items}, nil
}
