package escrowengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	escrowengine "caravel/contexts/market-core/escrow-engine"
	"caravel/contexts/market-core/escrow-engine/adapters/memory"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	httptransport "caravel/contexts/market-core/escrow-engine/transport/http"
)

const (
	listingFee   = escrowengine.DefaultListingFee
	sellerID     = "seller-1"
	buyerID      = "buyer-1"
	contractAddr = "0xcafe"
)

func newSeededModule(t *testing.T) escrowengine.Module {
	t.Helper()
	module := escrowengine.NewInMemoryModule(nil)
	module.Payments.Credit(sellerID, listingFee)
	module.Assets.SetCustodian(contractAddr, "token-1", sellerID)
	return module
}

func createListing(t *testing.T, module escrowengine.Module, royaltyBps int64) httptransport.CreateListingResponse {
	t.Helper()
	resp, err := module.Handler.CreateListingHandler(context.Background(), sellerID, httptransport.CreateListingRequest{
		AssetContract:  contractAddr,
		TokenID:        "token-1",
		Price:          100,
		RoyaltyBps:     royaltyBps,
		AttachedAmount: listingFee,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return resp
}

func TestCreateListingEscrowsAssetAndFee(t *testing.T) {
	module := newSeededModule(t)

	resp := createListing(t, module, 500)
	if resp.Item.ItemID != 1 {
		t.Fatalf("expected first item id 1, got %d", resp.Item.ItemID)
	}
	if resp.Item.Sold || resp.Item.Owner != "" {
		t.Fatalf("fresh listing should be unsold with no owner")
	}

	if holder := module.Assets.Custodian(contractAddr, "token-1"); holder != escrowengine.DefaultEscrowAccount {
		t.Fatalf("expected escrow custody, got %q", holder)
	}
	if got := module.Payments.Balance(sellerID); got != 0 {
		t.Fatalf("expected listing fee drawn from seller, balance %d", got)
	}
	if got := module.Payments.Balance(escrowengine.DefaultEscrowAccount); got != listingFee {
		t.Fatalf("expected fee held in escrow, balance %d", got)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending outbox: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected creation and royalty records pending, got %d", len(pending))
	}
	if pending[0].EventType != "market.listing_created" || pending[1].EventType != "market.royalty_set" {
		t.Fatalf("unexpected record types: %s, %s", pending[0].EventType, pending[1].EventType)
	}
}

func TestCreateListingRejectsWrongFee(t *testing.T) {
	module := newSeededModule(t)

	_, err := module.Handler.CreateListingHandler(context.Background(), sellerID, httptransport.CreateListingRequest{
		AssetContract:  contractAddr,
		TokenID:        "token-1",
		Price:          100,
		AttachedAmount: listingFee + 1,
	})
	if !errors.Is(err, domainerrors.ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
}

func TestCreateListingRejectsBadInput(t *testing.T) {
	module := newSeededModule(t)
	ctx := context.Background()

	_, err := module.Handler.CreateListingHandler(ctx, sellerID, httptransport.CreateListingRequest{
		AssetContract:  contractAddr,
		TokenID:        "token-1",
		Price:          0,
		AttachedAmount: listingFee,
	})
	if !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("zero price: expected ErrInvalidPrice, got %v", err)
	}

	_, err = module.Handler.CreateListingHandler(ctx, sellerID, httptransport.CreateListingRequest{
		AssetContract:  contractAddr,
		TokenID:        "token-1",
		Price:          100,
		RoyaltyBps:     10001,
		AttachedAmount: listingFee,
	})
	if !errors.Is(err, domainerrors.ErrInvalidRoyalty) {
		t.Fatalf("oversized royalty: expected ErrInvalidRoyalty, got %v", err)
	}

	_, err = module.Handler.CreateListingHandler(ctx, sellerID, httptransport.CreateListingRequest{
		TokenID:        "token-1",
		Price:          100,
		AttachedAmount: listingFee,
	})
	if !errors.Is(err, domainerrors.ErrInvalidListing) {
		t.Fatalf("blank contract: expected ErrInvalidListing, got %v", err)
	}
}

func TestCreateListingCompensatesWhenCustodyFails(t *testing.T) {
	module := newSeededModule(t)

	// Asset custody was never seeded for this token, so the custody transfer
	// fails after the registry write.
	_, err := module.Handler.CreateListingHandler(context.Background(), sellerID, httptransport.CreateListingRequest{
		AssetContract:  contractAddr,
		TokenID:        "token-unowned",
		Price:          100,
		AttachedAmount: listingFee,
	})
	if !errors.Is(err, memory.ErrNotCustodian) {
		t.Fatalf("expected custody failure, got %v", err)
	}

	if got := module.Payments.Balance(sellerID); got != listingFee {
		t.Fatalf("expected fee refunded, seller balance %d", got)
	}
	unsold, err := module.Handler.ListUnsoldHandler(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list unsold: %v", err)
	}
	if len(unsold.Items) != 0 || unsold.UnsoldCount != 0 {
		t.Fatalf("expected registry rolled back, got %d items", len(unsold.Items))
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending outbox: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no records survive the rollback, got %d", len(pending))
	}

	// The consumed id is not reissued.
	resp := createListing(t, module, 0)
	if resp.Item.ItemID != 2 {
		t.Fatalf("expected id 2 after failed listing consumed id 1, got %d", resp.Item.ItemID)
	}
}

func TestPurchaseSplitsRoyaltyAndSettles(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 500)
	module.Payments.Credit(buyerID, 100)

	resp, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 1, httptransport.PurchaseRequest{
		AttachedAmount: 100,
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if resp.RoyaltyPaid != 5 || resp.SellerProceeds != 95 {
		t.Fatalf("expected 5/95 split, got %d/%d", resp.RoyaltyPaid, resp.SellerProceeds)
	}
	if resp.Creator != sellerID {
		t.Fatalf("expected lister as creator of record, got %q", resp.Creator)
	}
	if !resp.Item.Sold || resp.Item.Owner != buyerID {
		t.Fatalf("expected item sold to buyer, got sold=%v owner=%q", resp.Item.Sold, resp.Item.Owner)
	}

	// Seller is also the creator here, so both shares land on one account.
	if got := module.Payments.Balance(sellerID); got != 100 {
		t.Fatalf("seller balance: expected 100, got %d", got)
	}
	if got := module.Payments.Balance(buyerID); got != 0 {
		t.Fatalf("buyer balance: expected 0, got %d", got)
	}
	if got := module.Payments.Balance(escrowengine.DefaultPlatformAccount); got != listingFee {
		t.Fatalf("platform balance: expected %d, got %d", listingFee, got)
	}
	if got := module.Payments.Balance(escrowengine.DefaultEscrowAccount); got != 0 {
		t.Fatalf("escrow should be drained, got %d", got)
	}
	if holder := module.Assets.Custodian(contractAddr, "token-1"); holder != buyerID {
		t.Fatalf("expected buyer custody, got %q", holder)
	}
}

func TestPurchaseRejectsPaymentMismatch(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)
	module.Payments.Credit(buyerID, 100)

	_, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 1, httptransport.PurchaseRequest{
		AttachedAmount: 99,
	})
	if !errors.Is(err, domainerrors.ErrPaymentMismatch) {
		t.Fatalf("expected ErrPaymentMismatch, got %v", err)
	}
	if got := module.Payments.Balance(buyerID); got != 100 {
		t.Fatalf("buyer balance must be untouched, got %d", got)
	}
}

func TestPurchaseRejectsCollectionMismatch(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)
	module.Payments.Credit(buyerID, 100)

	_, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 1, httptransport.PurchaseRequest{
		AssetContract:  "0xother",
		AttachedAmount: 100,
	})
	if !errors.Is(err, domainerrors.ErrCollectionMismatch) {
		t.Fatalf("expected ErrCollectionMismatch, got %v", err)
	}
}

func TestPurchaseTwiceReturnsAlreadySold(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)
	module.Payments.Credit(buyerID, 200)

	if _, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 1, httptransport.PurchaseRequest{AttachedAmount: 100}); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	_, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 1, httptransport.PurchaseRequest{AttachedAmount: 100})
	if !errors.Is(err, domainerrors.ErrAlreadySold) {
		t.Fatalf("expected ErrAlreadySold, got %v", err)
	}
}

func TestPurchaseMissingItem(t *testing.T) {
	module := newSeededModule(t)
	_, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 99, httptransport.PurchaseRequest{AttachedAmount: 100})
	if !errors.Is(err, domainerrors.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestUpdatePriceWithinWindow(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)

	module.Store.AdvanceClock(10 * time.Hour)
	resp, err := module.Handler.UpdatePriceHandler(context.Background(), sellerID, 1, httptransport.UpdatePriceRequest{NewPrice: 150})
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	if resp.Item.Price != 150 {
		t.Fatalf("expected price 150, got %d", resp.Item.Price)
	}

	got, err := module.Handler.GetItemHandler(context.Background(), 1)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.Item.Price != 150 {
		t.Fatalf("expected stored price 150, got %d", got.Item.Price)
	}
}

func TestUpdatePriceRejectsNonSeller(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)

	_, err := module.Handler.UpdatePriceHandler(context.Background(), "intruder", 1, httptransport.UpdatePriceRequest{NewPrice: 1})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdatePriceRejectsAfterWindow(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)

	module.Store.AdvanceClock(25 * time.Hour)
	_, err := module.Handler.UpdatePriceHandler(context.Background(), sellerID, 1, httptransport.UpdatePriceRequest{NewPrice: 150})
	if !errors.Is(err, domainerrors.ErrEditWindowExpired) {
		t.Fatalf("expected ErrEditWindowExpired, got %v", err)
	}
}

func TestCancelListingReturnsAssetAndKeepsFee(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)

	module.Store.AdvanceClock(10 * time.Hour)
	resp, err := module.Handler.CancelListingHandler(context.Background(), sellerID, 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !resp.Cancelled || resp.ItemID != 1 {
		t.Fatalf("unexpected cancel response: %+v", resp)
	}

	if holder := module.Assets.Custodian(contractAddr, "token-1"); holder != sellerID {
		t.Fatalf("expected custody back with seller, got %q", holder)
	}
	// The flat listing fee is not returned on cancellation.
	if got := module.Payments.Balance(sellerID); got != 0 {
		t.Fatalf("expected fee retained in escrow, seller balance %d", got)
	}

	if _, err := module.Handler.GetItemHandler(context.Background(), 1); !errors.Is(err, domainerrors.ErrItemNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}
	unsold, err := module.Handler.ListUnsoldHandler(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list unsold: %v", err)
	}
	if unsold.UnsoldCount != 0 || len(unsold.Items) != 0 {
		t.Fatalf("expected empty unsold projection after cancel")
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending outbox: %v", err)
	}
	var sawCancelled bool
	for _, message := range pending {
		if message.EventType == "market.listing_cancelled" {
			sawCancelled = true
		}
	}
	if !sawCancelled {
		t.Fatalf("expected cancellation record in outbox")
	}
}

func TestCancelListingRejectsSoldItem(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)
	module.Payments.Credit(buyerID, 100)
	if _, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 1, httptransport.PurchaseRequest{AttachedAmount: 100}); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	_, err := module.Handler.CancelListingHandler(context.Background(), sellerID, 1)
	if !errors.Is(err, domainerrors.ErrAlreadySold) {
		t.Fatalf("expected ErrAlreadySold, got %v", err)
	}
}

func TestQueriesProjectOwnershipAndListings(t *testing.T) {
	module := newSeededModule(t)
	createListing(t, module, 0)
	module.Payments.Credit(buyerID, 100)
	if _, err := module.Handler.PurchaseHandler(context.Background(), buyerID, 1, httptransport.PurchaseRequest{AttachedAmount: 100}); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	owned, err := module.Handler.ListOwnedHandler(context.Background(), buyerID)
	if err != nil {
		t.Fatalf("list owned: %v", err)
	}
	if len(owned.Items) != 1 || owned.Items[0].ItemID != 1 {
		t.Fatalf("expected buyer portfolio to hold item 1")
	}

	created, err := module.Handler.ListCreatedHandler(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("list created: %v", err)
	}
	if len(created.Items) != 1 || !created.Items[0].Sold {
		t.Fatalf("expected seller listing history to show the sold item")
	}

	unsold, err := module.Handler.ListUnsoldHandler(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list unsold: %v", err)
	}
	if len(unsold.Items) != 0 || unsold.UnsoldCount != 0 {
		t.Fatalf("sold item must leave the unsold projection")
	}
}

func TestListUnsoldRejectsUnknownFilter(t *testing.T) {
	module := newSeededModule(t)

	if _, err := module.Handler.ListUnsoldHandler(context.Background(), "bogus", ""); !errors.Is(err, domainerrors.ErrInvalidListFilter) {
		t.Fatalf("expected ErrInvalidListFilter for price filter, got %v", err)
	}
	if _, err := module.Handler.ListUnsoldHandler(context.Background(), "", "bogus"); !errors.Is(err, domainerrors.ErrInvalidListFilter) {
		t.Fatalf("expected ErrInvalidListFilter for sort, got %v", err)
	}
}

func TestListUnsoldRaritySortIsStable(t *testing.T) {
	module := newSeededModule(t)
	module.Payments.Credit(sellerID, listingFee)
	module.Assets.SetCustodian(contractAddr, "token-2", sellerID)

	createListing(t, module, 0)
	if _, err := module.Handler.CreateListingHandler(context.Background(), sellerID, httptransport.CreateListingRequest{
		AssetContract:  contractAddr,
		TokenID:        "token-2",
		Price:          200,
		AttachedAmount: listingFee,
	}); err != nil {
		t.Fatalf("second listing: %v", err)
	}

	first, err := module.Handler.ListUnsoldHandler(context.Background(), "", "rarity")
	if err != nil {
		t.Fatalf("rarity sort: %v", err)
	}
	second, err := module.Handler.ListUnsoldHandler(context.Background(), "", "rarity")
	if err != nil {
		t.Fatalf("rarity sort repeat: %v", err)
	}
	if len(first.Items) != 2 || len(second.Items) != 2 {
		t.Fatalf("expected both listings in the projection")
	}
	for i := range first.Items {
		if first.Items[i].ItemID != second.Items[i].ItemID {
			t.Fatalf("rarity order must be stable across calls")
		}
	}
}
