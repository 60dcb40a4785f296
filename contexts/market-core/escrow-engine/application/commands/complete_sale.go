package commands

import (
	"context"
	"log/slog"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/domain/services"
	"caravel/contexts/market-core/escrow-engine/ports"
)

type CompleteSaleCommand struct {
	ItemID         uint64
	AssetContract  string
	Caller         string
	AttachedAmount int64
}

type CompleteSaleResult struct {
	Item           entities.MarketItem
	Creator        string
	RoyaltyPaid    int64
	SellerProceeds int64
}

type CompleteSaleUseCase struct {
	Items           ports.ItemRepository
	Assets          ports.AssetRegistry
	Royalties       ports.RoyaltyRegistry
	Payments        ports.PaymentLedger
	Guard           ports.EntryGuard
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	ListingFee      int64
	EscrowAccount   string
	PlatformAccount string
	Logger          *slog.Logger
}

// Execute settles a purchase in this order:
// 1) precondition checks against the stored record
// 2) royalty lookup and split computation
// 3) payment intake into escrow
// 4) royalty disbursement to the creator
// 5) remainder disbursement to the seller
// 6) asset custody escrow -> buyer
// 7) registry mutation (owner, sold flag, sold counter) + sold record
// 8) flat listing fee to the platform account.
// A failure at any step after the payment intake unwinds every step already
// taken: disbursements are clawed back into escrow, custody returns to escrow
// once it has moved, the sold mark is reverted, and the buyer is refunded the
// full payment. The listing fee collected at creation stays in escrow.
func (u CompleteSaleUseCase) Execute(ctx context.Context, cmd CompleteSaleCommand) (CompleteSaleResult, error) {
	logger := application.ResolveLogger(u.Logger)

	release, err := u.Guard.Acquire(ctx)
	if err != nil {
		return CompleteSaleResult{}, err
	}
	defer release()

	now := resolveNow(u.Clock)
	escrow := resolveAccount(u.EscrowAccount, defaultEscrowAccount)
	platform := resolveAccount(u.PlatformAccount, defaultPlatformAccount)

	item, err := u.Items.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return CompleteSaleResult{}, err
	}
	if cmd.AssetContract != "" && cmd.AssetContract != item.AssetContract {
		return CompleteSaleResult{}, domainerrors.ErrCollectionMismatch
	}
	if item.Sold {
		return CompleteSaleResult{}, domainerrors.ErrAlreadySold
	}
	if cmd.AttachedAmount != item.Price {
		logger.Warn("sale payment mismatch",
			"event", "complete_sale_payment_mismatch",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"attached", cmd.AttachedAmount,
			"price", item.Price,
		)
		return CompleteSaleResult{}, domainerrors.ErrPaymentMismatch
	}

	creator, rateBps, err := u.Royalties.RoyaltyInfo(ctx, item.AssetContract, item.TokenID)
	if err != nil {
		logger.Error("royalty lookup failed",
			"event", "complete_sale_royalty_lookup_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		return CompleteSaleResult{}, err
	}
	royalty, remainder := services.SplitPayment(cmd.AttachedAmount, rateBps)

	logger.Info("sale settlement started",
		"event", "complete_sale_started",
		"module", "market-core/escrow-engine",
		"layer", "application",
		"item_id", cmd.ItemID,
		"buyer", cmd.Caller,
		"payment", cmd.AttachedAmount,
		"royalty", royalty,
	)

	if err := u.Payments.Deposit(ctx, cmd.Caller, cmd.AttachedAmount); err != nil {
		logger.Error("sale payment intake failed",
			"event", "complete_sale_payment_intake_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		return CompleteSaleResult{}, err
	}

	if royalty > 0 {
		if err := u.Payments.Transfer(ctx, creator, royalty); err != nil {
			logger.Error("royalty disbursement failed",
				"event", "complete_sale_royalty_transfer_failed",
				"module", "market-core/escrow-engine",
				"layer", "application",
				"item_id", cmd.ItemID,
				"creator", creator,
				"error", err.Error(),
			)
			u.refund(ctx, logger, cmd.Caller, cmd.AttachedAmount, cmd.ItemID)
			return CompleteSaleResult{}, err
		}
	}

	if err := u.Payments.Transfer(ctx, item.Seller, remainder); err != nil {
		logger.Error("seller disbursement failed",
			"event", "complete_sale_seller_transfer_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"seller", item.Seller,
			"error", err.Error(),
		)
		u.clawBack(ctx, logger, creator, royalty, cmd.ItemID)
		u.refund(ctx, logger, cmd.Caller, cmd.AttachedAmount, cmd.ItemID)
		return CompleteSaleResult{}, err
	}

	if err := u.Assets.TransferCustody(ctx, item.AssetContract, item.TokenID, escrow, cmd.Caller); err != nil {
		logger.Error("sale custody transfer failed",
			"event", "complete_sale_custody_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"buyer", cmd.Caller,
			"error", err.Error(),
		)
		u.unwindDisbursements(ctx, logger, item, cmd.Caller, creator, royalty, remainder)
		return CompleteSaleResult{}, err
	}

	item.Owner = cmd.Caller
	item.Sold = true
	item.UpdatedAt = now

	event, err := newMarketEvent(ctx, u.IDGenerator, itemSoldEventType, item, now)
	if err != nil {
		u.returnCustody(ctx, logger, item, cmd.Caller, escrow)
		u.unwindDisbursements(ctx, logger, item, cmd.Caller, creator, royalty, remainder)
		return CompleteSaleResult{}, err
	}
	if err := u.Items.MarkItemSoldWithOutbox(ctx, cmd.ItemID, cmd.Caller, now, event); err != nil {
		logger.Error("sale registry write failed",
			"event", "complete_sale_write_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		u.returnCustody(ctx, logger, item, cmd.Caller, escrow)
		u.unwindDisbursements(ctx, logger, item, cmd.Caller, creator, royalty, remainder)
		return CompleteSaleResult{}, err
	}

	if err := u.Payments.Transfer(ctx, platform, u.ListingFee); err != nil {
		logger.Error("listing fee disbursement failed",
			"event", "complete_sale_fee_transfer_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		u.returnCustody(ctx, logger, item, cmd.Caller, escrow)
		if undoErr := u.Items.UnmarkItemSold(ctx, cmd.ItemID, event.EventID); undoErr != nil {
			logger.Error("sale registry undo failed",
				"event", "complete_sale_undo_failed",
				"module", "market-core/escrow-engine",
				"layer", "application",
				"item_id", cmd.ItemID,
				"error", undoErr.Error(),
			)
		}
		u.unwindDisbursements(ctx, logger, item, cmd.Caller, creator, royalty, remainder)
		return CompleteSaleResult{}, err
	}

	logger.Info("sale settled",
		"event", "market_item_sold",
		"module", "market-core/escrow-engine",
		"layer", "application",
		"item_id", cmd.ItemID,
		"buyer", cmd.Caller,
		"seller", item.Seller,
		"creator", creator,
		"royalty", royalty,
		"seller_proceeds", remainder,
	)

	return CompleteSaleResult{
		Item:           item,
		Creator:        creator,
		RoyaltyPaid:    royalty,
		SellerProceeds: remainder,
	}, nil
}

// unwindDisbursements reverses a settlement whose payouts already left escrow:
// the royalty and seller proceeds are clawed back, then the buyer is refunded
// the full payment.
func (u CompleteSaleUseCase) unwindDisbursements(
	ctx context.Context,
	logger *slog.Logger,
	item entities.MarketItem,
	buyer string,
	creator string,
	royalty int64,
	remainder int64,
) {
	u.clawBack(ctx, logger, creator, royalty, item.ItemID)
	u.clawBack(ctx, logger, item.Seller, remainder, item.ItemID)
	u.refund(ctx, logger, buyer, royalty+remainder, item.ItemID)
}

// clawBack pulls an already-disbursed amount back into escrow from its
// recipient so the buyer can be made whole.
func (u CompleteSaleUseCase) clawBack(ctx context.Context, logger *slog.Logger, account string, amount int64, itemID uint64) {
	if amount <= 0 {
		return
	}
	if err := u.Payments.Deposit(ctx, account, amount); err != nil {
		logger.Error("settlement claw back failed",
			"event", "complete_sale_claw_back_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", itemID,
			"account", account,
			"amount", amount,
			"error", err.Error(),
		)
	}
}

func (u CompleteSaleUseCase) returnCustody(ctx context.Context, logger *slog.Logger, item entities.MarketItem, buyer string, escrow string) {
	if err := u.Assets.TransferCustody(ctx, item.AssetContract, item.TokenID, buyer, escrow); err != nil {
		logger.Error("custody return after settlement failure failed",
			"event", "complete_sale_custody_return_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", item.ItemID,
			"error", err.Error(),
		)
	}
}

func (u CompleteSaleUseCase) refund(ctx context.Context, logger *slog.Logger, buyer string, amount int64, itemID uint64) {
	if err := u.Payments.Transfer(ctx, buyer, amount); err != nil {
		logger.Error("sale refund failed",
			"event", "complete_sale_refund_failed",
			"module", "market-core/escrow-engine",
			"layer", "application",
			"item_id", itemID,
			"buyer", buyer,
			"error", err.Error(),
		)
	}
}
