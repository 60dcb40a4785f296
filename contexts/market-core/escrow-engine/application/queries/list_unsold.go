package queries

import (
	"context"
	"log/slog"
	"sort"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/ports"
)

type ListUnsoldQuery struct {
	PriceFilter string
	Sort        string
}

type ListUnsoldResult struct {
	Items       []entities.MarketItem
	UnsoldCount int
}

type ListUnsoldUseCase struct {
	Items  ports.ItemRepository
	Rarity ports.RarityScorer
	Logger *slog.Logger
}

// Execute projects currently present unsold records. Price ordering is pushed
// to the repository; rarity ordering needs the external scorer and is applied
// here, highest score first with item id as tiebreak.
func (u ListUnsoldUseCase) Execute(ctx context.Context, query ListUnsoldQuery) (ListUnsoldResult, error) {
	logger := application.ResolveLogger(u.Logger)

	filter, err := parseFilter(query)
	if err != nil {
		return ListUnsoldResult{}, err
	}

	items, err := u.Items.ListUnsoldItems(ctx, filter)
	if err != nil {
		logger.Error("unsold listing read failed",
			"event", "list_unsold_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return ListUnsoldResult{}, err
	}

	if filter.Sort == ports.SortRarity {
		if err := u.sortByRarity(ctx, items); err != nil {
			return ListUnsoldResult{}, err
		}
	}

	count, err := u.Items.CountUnsoldItems(ctx)
	if err != nil {
		return ListUnsoldResult{}, err
	}

	return ListUnsoldResult{Items: items, UnsoldCount: count}, nil
}

func (u ListUnsoldUseCase) sortByRarity(ctx context.Context, items []entities.MarketItem) error {
	scores := make(map[uint64]float64, len(items))
	for _, item := range items {
		score, err := u.Rarity.Score(ctx, item.AssetContract, item.TokenID)
		if err != nil {
			return err
		}
		scores[item.ItemID] = score
	}
	sort.Slice(items, func(i, j int) bool {
		if scores[items[i].ItemID] == scores[items[j].ItemID] {
			return items[i].ItemID < items[j].ItemID
		}
		return scores[items[i].ItemID] > scores[items[j].ItemID]
	})
	return nil
}

func parseFilter(query ListUnsoldQuery) (ports.ItemListFilter, error) {
	filter := ports.ItemListFilter{}

	switch ports.PriceFilter(query.PriceFilter) {
	case ports.PriceFilterAll, ports.PriceFilterFixedPrice, ports.PriceFilterNoPrice:
		filter.Price = ports.PriceFilter(query.PriceFilter)
	default:
		return ports.ItemListFilter{}, domainerrors.ErrInvalidListFilter
	}

	switch ports.SortKey(query.Sort) {
	case ports.SortNewest, ports.SortPriceAsc, ports.SortPriceDesc, ports.SortRarity:
		filter.Sort = ports.SortKey(query.Sort)
	default:
		return ports.ItemListFilter{}, domainerrors.ErrInvalidListFilter
	}

	return filter, nil
}
