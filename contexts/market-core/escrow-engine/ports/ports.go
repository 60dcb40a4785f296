package ports

import (
	"context"
	"time"

	"caravel/contexts/market-core/escrow-engine/domain/entities"
	contractsv1 "caravel/contracts/gen/events/v1"
)

// PriceFilter narrows the unsold projection by whether a price is set.
type PriceFilter string

const (
	PriceFilterAll        PriceFilter = ""
	PriceFilterFixedPrice PriceFilter = "fixed_price"
	PriceFilterNoPrice    PriceFilter = "no_price"
)

// SortKey orders the unsold projection.
type SortKey string

const (
	SortNewest    SortKey = ""
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortRarity    SortKey = "rarity"
)

// ItemListFilter defines read-side filtering/ordering for unsold listings.
// Rarity ordering is applied above the repository because the score lives
// with an external collaborator.
type ItemListFilter struct {
	Price PriceFilter
	Sort  SortKey
}

// MarketEvent is the outbound integration payload persisted to outbox
// alongside the registry write that produced it.
type MarketEvent struct {
	EventID       string
	EventType     string
	ItemID        uint64
	AssetContract string
	TokenID       string
	Seller        string
	Owner         string
	Price         int64
	Creator       string
	RoyaltyBps    int64
	PartitionKey  string
	OccurredAt    time.Time
}

// ItemRepository owns the market-item registry: the keyed store, the monotonic
// item-id counter, and the sold counter. Mutations and their emitted records
// share one write boundary; compensating undo paths skip the outbox.
type ItemRepository interface {
	// NextItemID increments and returns the item counter. Ids are never reused,
	// including for listings that later fail or are cancelled.
	NextItemID(ctx context.Context) (uint64, error)
	GetItem(ctx context.Context, itemID uint64) (entities.MarketItem, error)
	CreateItemWithOutbox(ctx context.Context, item entities.MarketItem, events []MarketEvent) error
	UpdateItemPriceWithOutbox(ctx context.Context, itemID uint64, newPrice int64, updatedAt time.Time, event MarketEvent) error
	RemoveItemWithOutbox(ctx context.Context, itemID uint64, event MarketEvent) error
	// RemoveItem is the compensating undo for a listing whose external calls
	// failed after the registry write. It also drops the item's still-pending
	// outbox rows; no cancellation record is emitted.
	RemoveItem(ctx context.Context, itemID uint64) error
	// MarkItemSold sets owner/sold exactly once and increments the sold counter.
	MarkItemSoldWithOutbox(ctx context.Context, itemID uint64, owner string, soldAt time.Time, event MarketEvent) error
	// UnmarkItemSold reverts a settlement whose trailing fee transfer failed.
	// Only the sold record identified by soldEventID leaves the outbox; the
	// listing's earlier records stay pending because the listing stays live.
	UnmarkItemSold(ctx context.Context, itemID uint64, soldEventID string) error

	ListUnsoldItems(ctx context.Context, filter ItemListFilter) ([]entities.MarketItem, error)
	ListItemsByOwner(ctx context.Context, owner string) ([]entities.MarketItem, error)
	ListItemsBySeller(ctx context.Context, seller string) ([]entities.MarketItem, error)
	// CountUnsoldItems counts currently present unsold records. Cancellations
	// remove rows without touching either counter, so total-minus-sold drifts.
	CountUnsoldItems(ctx context.Context) (int, error)
	TotalItemCount(ctx context.Context) (uint64, error)
	SoldItemCount(ctx context.Context) (uint64, error)
}

// AssetRegistry is the external collection contract holding true custody.
type AssetRegistry interface {
	TransferCustody(ctx context.Context, assetContract string, tokenID string, from string, to string) error
	RegisterRoyalty(ctx context.Context, assetContract string, tokenID string, creator string, rateBps int64) error
}

// RoyaltyRegistry resolves the creator and rate recorded for an asset.
type RoyaltyRegistry interface {
	RoyaltyInfo(ctx context.Context, assetContract string, tokenID string) (creator string, rateBps int64, err error)
}

// PaymentLedger moves value. Deposit pulls a caller's attached amount into the
// engine escrow account; Transfer disburses from escrow.
type PaymentLedger interface {
	Deposit(ctx context.Context, from string, amount int64) error
	Transfer(ctx context.Context, to string, amount int64) error
}

// RarityScorer is the external collaborator backing the rarity sort key.
type RarityScorer interface {
	Score(ctx context.Context, assetContract string, tokenID string) (float64, error)
}

// EntryGuard is the single-flight latch wrapped around every mutating
// operation. Acquire fails fast with ErrReentrantCall while held; the returned
// release must run on every exit path.
type EntryGuard interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Clock allows deterministic testing of grace-window rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
