package commands

import (
	"context"
	"log/slog"
	"time"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/domain/services"
	"caravel/contexts/market-core/escrow-engine/ports"
)

type CancelListingCommand struct {
	ItemID uint64
	Caller string
}

type CancelListingResult struct {
	ItemID uint64
}

type CancelListingUseCase struct {
	Items         ports.ItemRepository
	Assets        ports.AssetRegistry
	Guard         ports.EntryGuard
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	GraceWindow   time.Duration
	EscrowAccount string
	Logger        *slog.Logger
}

// Execute returns custody to the seller and removes the record. The
// cancellation record is captured from the record's fields before removal;
// emitting afterwards would read a cleared record. The listing fee stays in
// escrow — it is not returned on cancellation.
func (u CancelListingUseCase) Execute(ctx context.Context, cmd CancelListingCommand) (CancelListingResult, error) {
	logger := application.ResolveLogger(u.Logger)

	release, err := u.Guard.Acquire(ctx)
	if err != nil {
		return CancelListingResult{}, err
	}
	defer release()

	now := resolveNow(u.Clock)
	escrow := resolveAccount(u.EscrowAccount, defaultEscrowAccount)

	item, err := u.Items.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return CancelListingResult{}, err
	}
	if err := services.AuthorizeListingEdit(item, cmd.Caller, now, resolveWindow(u.GraceWindow)); err != nil {
		logger.Warn("cancel listing rejected",
			"event", "cancel_listing_rejected",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"caller", cmd.Caller,
			"error", err.Error(),
		)
		return CancelListingResult{}, err
	}

	event, err := newMarketEvent(ctx, u.IDGenerator, listingCancelledEventType, item, now)
	if err != nil {
		return CancelListingResult{}, err
	}

	if err := u.Assets.TransferCustody(ctx, item.AssetContract, item.TokenID, escrow, item.Seller); err != nil {
		logger.Error("cancel custody return failed",
			"event", "cancel_listing_custody_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		return CancelListingResult{}, err
	}

	if err := u.Items.RemoveItemWithOutbox(ctx, cmd.ItemID, event); err != nil {
		logger.Error("cancel registry remove failed",
			"event", "cancel_listing_write_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		return CancelListingResult{}, err
	}

	logger.Info("listing cancelled",
		"event", "market_listing_cancelled",
		"module", "market-core/escrow-engine",
		"layer", "application",
		"item_id", cmd.ItemID,
		"seller", item.Seller,
	)

	return CancelListingResult{ItemID: cmd.ItemID}, nil
}
