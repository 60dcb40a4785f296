package commands

import (
	"context"
	"log/slog"
	"time"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/domain/services"
	"caravel/contexts/market-core/escrow-engine/ports"
)

type UpdateListingPriceCommand struct {
	ItemID   uint64
	NewPrice int64
	Caller   string
}

type UpdateListingPriceResult struct {
	Item entities.MarketItem
}

type UpdateListingPriceUseCase struct {
	Items       ports.ItemRepository
	Guard       ports.EntryGuard
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	GraceWindow time.Duration
	Logger      *slog.Logger
}

// Execute overwrites a listing price. Only the original seller may amend, and
// only within the grace window.
func (u UpdateListingPriceUseCase) Execute(ctx context.Context, cmd UpdateListingPriceCommand) (UpdateListingPriceResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if cmd.NewPrice <= 0 {
		return UpdateListingPriceResult{}, domainerrors.ErrInvalidPrice
	}

	release, err := u.Guard.Acquire(ctx)
	if err != nil {
		return UpdateListingPriceResult{}, err
	}
	defer release()

	now := resolveNow(u.Clock)

	item, err := u.Items.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return UpdateListingPriceResult{}, err
	}
	if err := services.AuthorizeListingEdit(item, cmd.Caller, now, resolveWindow(u.GraceWindow)); err != nil {
		logger.Warn("price update rejected",
			"event", "update_listing_price_rejected",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"caller", cmd.Caller,
			"error", err.Error(),
		)
		return UpdateListingPriceResult{}, err
	}

	item.Price = cmd.NewPrice
	item.UpdatedAt = now

	event, err := newMarketEvent(ctx, u.IDGenerator, listingPriceUpdatedEventType, item, now)
	if err != nil {
		return UpdateListingPriceResult{}, err
	}

	if err := u.Items.UpdateItemPriceWithOutbox(ctx, cmd.ItemID, cmd.NewPrice, now, event); err != nil {
		logger.Error("price update write failed",
			"event", "update_listing_price_write_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		return UpdateListingPriceResult{}, err
	}

	logger.Info("listing price updated",
		"event", "market_listing_price_updated",
		"module", "market-core/escrow-engine",
		"layer", "application",
		"item_id", cmd.ItemID,
		"new_price", cmd.NewPrice,
	)

	return UpdateListingPriceResult{Item: item}, nil
}
