package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/ports"
)

func storeWithItems(t *testing.T, seed []entities.MarketItem) *Store {
	t.Helper()
	store := NewStore(nil)
	ctx := context.Background()
	for _, item := range seed {
		if _, err := store.NextItemID(ctx); err != nil {
			t.Fatalf("next item id: %v", err)
		}
		if err := store.CreateItemWithOutbox(ctx, item, nil); err != nil {
			t.Fatalf("create item %d: %v", item.ItemID, err)
		}
	}
	return store
}

func mustItem(t *testing.T, id uint64, price int64, listedAt time.Time) entities.MarketItem {
	t.Helper()
	item, err := entities.NewMarketItem(id, "0xcafe", "token", "seller", price, listedAt)
	if err != nil {
		t.Fatalf("build item %d: %v", id, err)
	}
	return item
}

func TestNextItemIDIsMonotonic(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	first, err := store.NextItemID(ctx)
	if err != nil || first != 1 {
		t.Fatalf("expected first id 1, got %d (%v)", first, err)
	}
	second, err := store.NextItemID(ctx)
	if err != nil || second != 2 {
		t.Fatalf("expected second id 2, got %d (%v)", second, err)
	}

	// Removing a record never frees its id.
	item := mustItem(t, 2, 100, store.Now())
	if err := store.CreateItemWithOutbox(ctx, item, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RemoveItem(ctx, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	third, err := store.NextItemID(ctx)
	if err != nil || third != 3 {
		t.Fatalf("expected id 3 after removal, got %d (%v)", third, err)
	}
}

func TestGetItemMissing(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.GetItem(context.Background(), 42); !errors.Is(err, domainerrors.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestListUnsoldSortOrders(t *testing.T) {
	base := time.Now().UTC()
	store := storeWithItems(t, []entities.MarketItem{
		mustItem(t, 1, 300, base.Add(-3*time.Hour)),
		mustItem(t, 2, 100, base.Add(-2*time.Hour)),
		mustItem(t, 3, 200, base.Add(-1*time.Hour)),
	})
	ctx := context.Background()

	asc, err := store.ListUnsoldItems(ctx, ports.ItemListFilter{Sort: ports.SortPriceAsc})
	if err != nil {
		t.Fatalf("price asc: %v", err)
	}
	if asc[0].ItemID != 2 || asc[1].ItemID != 3 || asc[2].ItemID != 1 {
		t.Fatalf("unexpected asc order: %d %d %d", asc[0].ItemID, asc[1].ItemID, asc[2].ItemID)
	}

	desc, err := store.ListUnsoldItems(ctx, ports.ItemListFilter{Sort: ports.SortPriceDesc})
	if err != nil {
		t.Fatalf("price desc: %v", err)
	}
	if desc[0].ItemID != 1 || desc[1].ItemID != 3 || desc[2].ItemID != 2 {
		t.Fatalf("unexpected desc order: %d %d %d", desc[0].ItemID, desc[1].ItemID, desc[2].ItemID)
	}

	newest, err := store.ListUnsoldItems(ctx, ports.ItemListFilter{})
	if err != nil {
		t.Fatalf("newest: %v", err)
	}
	if newest[0].ItemID != 3 || newest[2].ItemID != 1 {
		t.Fatalf("unexpected newest order: %d %d %d", newest[0].ItemID, newest[1].ItemID, newest[2].ItemID)
	}
}

func TestMarkItemSoldIsSingleShot(t *testing.T) {
	base := time.Now().UTC()
	store := storeWithItems(t, []entities.MarketItem{mustItem(t, 1, 100, base)})
	ctx := context.Background()

	event := ports.MarketEvent{EventID: "evt-1", EventType: "market.item_sold", ItemID: 1, PartitionKey: "1", OccurredAt: base}
	if err := store.MarkItemSoldWithOutbox(ctx, 1, "buyer", base, event); err != nil {
		t.Fatalf("first mark sold: %v", err)
	}
	err := store.MarkItemSoldWithOutbox(ctx, 1, "other-buyer", base, event)
	if !errors.Is(err, domainerrors.ErrAlreadySold) {
		t.Fatalf("expected ErrAlreadySold, got %v", err)
	}

	sold, err := store.SoldItemCount(ctx)
	if err != nil || sold != 1 {
		t.Fatalf("expected sold counter 1, got %d (%v)", sold, err)
	}
	unsold, err := store.CountUnsoldItems(ctx)
	if err != nil || unsold != 0 {
		t.Fatalf("expected no unsold items, got %d (%v)", unsold, err)
	}
}

func TestUnmarkItemSoldRevertsStateAndOutbox(t *testing.T) {
	base := time.Now().UTC()
	store := NewStore(nil)
	ctx := context.Background()

	item := mustItem(t, 1, 100, base)
	created := ports.MarketEvent{EventID: "evt-created", EventType: "market.listing_created", ItemID: 1, PartitionKey: "1", OccurredAt: base}
	if err := store.CreateItemWithOutbox(ctx, item, []ports.MarketEvent{created}); err != nil {
		t.Fatalf("create: %v", err)
	}

	sold := ports.MarketEvent{EventID: "evt-sold", EventType: "market.item_sold", ItemID: 1, PartitionKey: "1", OccurredAt: base}
	if err := store.MarkItemSoldWithOutbox(ctx, 1, "buyer", base, sold); err != nil {
		t.Fatalf("mark sold: %v", err)
	}
	if err := store.UnmarkItemSold(ctx, 1, sold.EventID); err != nil {
		t.Fatalf("unmark sold: %v", err)
	}

	got, err := store.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if !got.Unsold() {
		t.Fatalf("expected record back to unsold")
	}

	// The listing is still live, so its creation record must survive the undo.
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected only the sold record withdrawn, got %d pending rows", len(pending))
	}
	if pending[0].EventType != "market.listing_created" {
		t.Fatalf("expected listing_created to stay pending, got %s", pending[0].EventType)
	}
}

func TestRemoveItemDropsPendingOutbox(t *testing.T) {
	base := time.Now().UTC()
	store := NewStore(nil)
	ctx := context.Background()

	item := mustItem(t, 1, 100, base)
	events := []ports.MarketEvent{
		{EventID: "evt-created", EventType: "market.listing_created", ItemID: 1, PartitionKey: "1", OccurredAt: base},
		{EventID: "evt-royalty", EventType: "market.royalty_set", ItemID: 1, PartitionKey: "1", OccurredAt: base},
	}
	if err := store.CreateItemWithOutbox(ctx, item, events); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RemoveItem(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected pending records dropped with the item, got %d", len(pending))
	}
}

func TestOutboxSentRowsStayPut(t *testing.T) {
	base := time.Now().UTC()
	store := NewStore(nil)
	ctx := context.Background()

	item := mustItem(t, 1, 100, base)
	event := ports.MarketEvent{EventID: "evt-created", EventType: "market.listing_created", ItemID: 1, PartitionKey: "1", OccurredAt: base}
	if err := store.CreateItemWithOutbox(ctx, item, []ports.MarketEvent{event}); err != nil {
		t.Fatalf("create: %v", err)
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending row, got %d (%v)", len(pending), err)
	}
	if err := store.MarkOutboxSent(ctx, pending[0].OutboxID, base); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected no pending rows after ack, got %d (%v)", len(pending), err)
	}
}

func TestLatchFailsFastWhileHeld(t *testing.T) {
	latch := NewLatch()
	ctx := context.Background()

	release, err := latch.Acquire(ctx)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := latch.Acquire(ctx); !errors.Is(err, domainerrors.ErrReentrantCall) {
		t.Fatalf("expected ErrReentrantCall while held, got %v", err)
	}

	release()
	release() // second call is a no-op

	again, err := latch.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestPaymentLedgerEscrowFlow(t *testing.T) {
	ledger := NewPaymentLedger("escrow")
	ctx := context.Background()

	ledger.Credit("buyer", 100)
	if err := ledger.Deposit(ctx, "buyer", 60); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := ledger.Transfer(ctx, "seller", 40); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.Balance("buyer"); got != 40 {
		t.Fatalf("buyer balance: expected 40, got %d", got)
	}
	if got := ledger.Balance("escrow"); got != 20 {
		t.Fatalf("escrow balance: expected 20, got %d", got)
	}
	if got := ledger.Balance("seller"); got != 40 {
		t.Fatalf("seller balance: expected 40, got %d", got)
	}

	if err := ledger.Deposit(ctx, "buyer", 1000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestAssetLedgerCustody(t *testing.T) {
	ledger := NewAssetLedger()
	ctx := context.Background()

	ledger.SetCustodian("0xcafe", "token-1", "seller")
	if err := ledger.TransferCustody(ctx, "0xcafe", "token-1", "not-the-holder", "escrow"); !errors.Is(err, ErrNotCustodian) {
		t.Fatalf("expected ErrNotCustodian, got %v", err)
	}
	if err := ledger.TransferCustody(ctx, "0xcafe", "token-1", "seller", "escrow"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.Custodian("0xcafe", "token-1"); got != "escrow" {
		t.Fatalf("expected escrow custody, got %q", got)
	}
}
