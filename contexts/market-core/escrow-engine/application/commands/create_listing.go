package commands

import (
	"context"
	"log/slog"
	"strings"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/domain/services"
	"caravel/contexts/market-core/escrow-engine/ports"
)

type CreateListingCommand struct {
	AssetContract  string
	TokenID        string
	Price          int64
	RoyaltyBps     int64
	Caller         string
	AttachedAmount int64
}

type CreateListingResult struct {
	Item entities.MarketItem
}

type CreateListingUseCase struct {
	Items         ports.ItemRepository
	Assets        ports.AssetRegistry
	Payments      ports.PaymentLedger
	Guard         ports.EntryGuard
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	ListingFee    int64
	EscrowAccount string
	Logger        *slog.Logger
}

// Execute runs the listing workflow in this order:
// 1) precondition checks (no external calls yet)
// 2) fee intake into escrow
// 3) registry write + creation/royalty-set outbox records
// 4) asset custody seller -> escrow
// 5) royalty registration when a rate was supplied.
// A failure after the registry write removes the record again; the consumed
// item id is never reissued.
func (u CreateListingUseCase) Execute(ctx context.Context, cmd CreateListingCommand) (CreateListingResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.AssetContract) == "" ||
		strings.TrimSpace(cmd.TokenID) == "" ||
		strings.TrimSpace(cmd.Caller) == "" {
		return CreateListingResult{}, domainerrors.ErrInvalidListing
	}
	if cmd.Price <= 0 {
		return CreateListingResult{}, domainerrors.ErrInvalidPrice
	}
	if cmd.AttachedAmount != u.ListingFee {
		return CreateListingResult{}, domainerrors.ErrInvalidFee
	}
	if !services.ValidRoyaltyRate(cmd.RoyaltyBps) {
		return CreateListingResult{}, domainerrors.ErrInvalidRoyalty
	}

	release, err := u.Guard.Acquire(ctx)
	if err != nil {
		return CreateListingResult{}, err
	}
	defer release()

	now := resolveNow(u.Clock)
	escrow := resolveAccount(u.EscrowAccount, defaultEscrowAccount)

	logger.Info("create listing started",
		"event", "create_listing_started",
		"module", "market-core/escrow-engine",
		"layer", "application",
		"seller", cmd.Caller,
		"asset_contract", cmd.AssetContract,
		"token_id", cmd.TokenID,
		"price", cmd.Price,
	)

	if err := u.Payments.Deposit(ctx, cmd.Caller, cmd.AttachedAmount); err != nil {
		logger.Error("listing fee intake failed",
			"event", "create_listing_fee_intake_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"seller", cmd.Caller,
			"error", err.Error(),
		)
		return CreateListingResult{}, err
	}

	itemID, err := u.Items.NextItemID(ctx)
	if err != nil {
		u.refundFee(ctx, logger, cmd)
		return CreateListingResult{}, err
	}

	item, err := entities.NewMarketItem(itemID, cmd.AssetContract, cmd.TokenID, cmd.Caller, cmd.Price, now)
	if err != nil {
		u.refundFee(ctx, logger, cmd)
		return CreateListingResult{}, err
	}

	created, err := newMarketEvent(ctx, u.IDGenerator, listingCreatedEventType, item, now)
	if err != nil {
		u.refundFee(ctx, logger, cmd)
		return CreateListingResult{}, err
	}
	events := []ports.MarketEvent{created}
	if cmd.RoyaltyBps > 0 {
		royaltySet, err := newMarketEvent(ctx, u.IDGenerator, royaltySetEventType, item, now)
		if err != nil {
			u.refundFee(ctx, logger, cmd)
			return CreateListingResult{}, err
		}
		royaltySet.Creator = cmd.Caller
		royaltySet.RoyaltyBps = cmd.RoyaltyBps
		events = append(events, royaltySet)
	}

	if err := u.Items.CreateItemWithOutbox(ctx, item, events); err != nil {
		logger.Error("listing registry write failed",
			"event", "create_listing_write_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", itemID,
			"error", err.Error(),
		)
		u.refundFee(ctx, logger, cmd)
		return CreateListingResult{}, err
	}

	// Custody moves after the registry write so a re-entering callee observes
	// a consistent record; the guard blocks the re-entry itself.
	if err := u.Assets.TransferCustody(ctx, cmd.AssetContract, cmd.TokenID, cmd.Caller, escrow); err != nil {
		logger.Error("listing custody transfer failed",
			"event", "create_listing_custody_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", itemID,
			"error", err.Error(),
		)
		u.undoRegistryWrite(ctx, logger, itemID)
		u.refundFee(ctx, logger, cmd)
		return CreateListingResult{}, err
	}

	if cmd.RoyaltyBps > 0 {
		if err := u.Assets.RegisterRoyalty(ctx, cmd.AssetContract, cmd.TokenID, cmd.Caller, cmd.RoyaltyBps); err != nil {
			logger.Error("royalty registration failed",
				"event", "create_listing_royalty_failed",
				"module", "market-core/escrow-engine",
				"layer", "application",
				"item_id", itemID,
				"error", err.Error(),
			)
			if custodyErr := u.Assets.TransferCustody(ctx, cmd.AssetContract, cmd.TokenID, escrow, cmd.Caller); custodyErr != nil {
				logger.Error("custody return after royalty failure failed",
					"event", "create_listing_custody_return_failed",
					"module", "market-core/escrow-engine",
					"layer", "application",
					"item_id", itemID,
					"error", custodyErr.Error(),
				)
			}
			u.undoRegistryWrite(ctx, logger, itemID)
			u.refundFee(ctx, logger, cmd)
			return CreateListingResult{}, err
		}
	}

	logger.Info("listing created",
		"event", "market_listing_created",
		"module", "market-core/escrow-engine",
		"layer", "application",
		"item_id", item.ItemID,
		"seller", item.Seller,
		"price", item.Price,
		"royalty_bps", cmd.RoyaltyBps,
	)

	return CreateListingResult{Item: item}, nil
}

func (u CreateListingUseCase) refundFee(ctx context.Context, logger *slog.Logger, cmd CreateListingCommand) {
	if err := u.Payments.Transfer(ctx, cmd.Caller, cmd.AttachedAmount); err != nil {
		logger.Error("listing fee refund failed",
			"event", "create_listing_fee_refund_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"seller", cmd.Caller,
			"error", err.Error(),
		)
	}
}

func (u CreateListingUseCase) undoRegistryWrite(ctx context.Context, logger *slog.Logger, itemID uint64) {
	if err := u.Items.RemoveItem(ctx, itemID); err != nil {
		logger.Error("listing registry undo failed",
			"event", "create_listing_undo_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", itemID,
			"error", err.Error(),
		)
	}
}
