package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/ports"
)

// Store is the in-memory item registry for local runtime and tests. It owns
// the keyed record map, the monotonic item counter, and the sold counter, and
// it doubles as the module Clock and IDGenerator so grace-window behavior can
// be driven deterministically.
type Store struct {
	mu          sync.RWMutex
	items       map[uint64]entities.MarketItem
	itemSeq     uint64
	soldSeq     uint64
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	idSeq       uint64
	clockOffset time.Duration
	logger      *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		items:       make(map[uint64]entities.MarketItem),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxOrder: make([]string, 0),
		outboxSent:  make(map[string]time.Time),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) NextItemID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.itemSeq++
	return s.itemSeq, nil
}

func (s *Store) GetItem(_ context.Context, itemID uint64) (entities.MarketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return entities.MarketItem{}, domainerrors.ErrItemNotFound
	}
	return item, nil
}

func (s *Store) CreateItemWithOutbox(_ context.Context, item entities.MarketItem, events []ports.MarketEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ItemID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.items[item.ItemID] = item
	for _, event := range events {
		if err := s.appendOutboxLocked(event); err != nil {
			return err
		}
	}

	s.logger.Debug("item stored in memory registry",
		"event", "memory_item_created",
		"module", "market-core/escrow-engine",
		"layer", "adapter",
		"item_id", item.ItemID,
	)
	return nil
}

func (s *Store) UpdateItemPriceWithOutbox(
	_ context.Context,
	itemID uint64,
	newPrice int64,
	updatedAt time.Time,
	event ports.MarketEvent,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return domainerrors.ErrItemNotFound
	}
	item.Price = newPrice
	item.UpdatedAt = updatedAt.UTC()
	s.items[itemID] = item
	return s.appendOutboxLocked(event)
}

func (s *Store) RemoveItemWithOutbox(_ context.Context, itemID uint64, event ports.MarketEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return domainerrors.ErrItemNotFound
	}
	delete(s.items, itemID)
	return s.appendOutboxLocked(event)
}

func (s *Store) RemoveItem(_ context.Context, itemID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return domainerrors.ErrItemNotFound
	}
	delete(s.items, itemID)
	s.dropPendingOutboxLocked(strconv.FormatUint(itemID, 10))
	return nil
}

func (s *Store) MarkItemSoldWithOutbox(
	_ context.Context,
	itemID uint64,
	owner string,
	soldAt time.Time,
	event ports.MarketEvent,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return domainerrors.ErrItemNotFound
	}
	if item.Sold {
		return domainerrors.ErrAlreadySold
	}
	item.Owner = owner
	item.Sold = true
	item.UpdatedAt = soldAt.UTC()
	s.items[itemID] = item
	s.soldSeq++
	return s.appendOutboxLocked(event)
}

func (s *Store) UnmarkItemSold(_ context.Context, itemID uint64, soldEventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return domainerrors.ErrItemNotFound
	}
	if !item.Sold {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	item.Owner = ""
	item.Sold = false
	s.items[itemID] = item
	s.soldSeq--
	// The listing stays live, so its creation/royalty records stay pending;
	// only the sold record is withdrawn.
	s.dropPendingOutboxIDLocked(fmt.Sprintf("outbox-%s", soldEventID))
	return nil
}

func (s *Store) ListUnsoldItems(_ context.Context, filter ports.ItemListFilter) ([]entities.MarketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Sized by counting present unsold rows: cancellations remove records
	// without decrementing any counter, so itemSeq-soldSeq overcounts.
	unsold := make([]entities.MarketItem, 0, s.countUnsoldLocked())
	for _, item := range s.items {
		if !item.Unsold() {
			continue
		}
		switch filter.Price {
		case ports.PriceFilterFixedPrice:
			if item.Price <= 0 {
				continue
			}
		case ports.PriceFilterNoPrice:
			if item.Price > 0 {
				continue
			}
		}
		unsold = append(unsold, item)
	}

	sort.Slice(unsold, func(i, j int) bool {
		switch filter.Sort {
		case ports.SortPriceAsc:
			if unsold[i].Price == unsold[j].Price {
				return unsold[i].ItemID < unsold[j].ItemID
			}
			return unsold[i].Price < unsold[j].Price
		case ports.SortPriceDesc:
			if unsold[i].Price == unsold[j].Price {
				return unsold[i].ItemID < unsold[j].ItemID
			}
			return unsold[i].Price > unsold[j].Price
		default:
			if unsold[i].ListedAt.Equal(unsold[j].ListedAt) {
				return unsold[i].ItemID < unsold[j].ItemID
			}
			return unsold[i].ListedAt.After(unsold[j].ListedAt)
		}
	})

	return unsold, nil
}

func (s *Store) ListItemsByOwner(_ context.Context, owner string) ([]entities.MarketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []entities.MarketItem
	for _, item := range s.items {
		if item.Owner == owner {
			owned = append(owned, item)
		}
	}
	sortByItemID(owned)
	return owned, nil
}

func (s *Store) ListItemsBySeller(_ context.Context, seller string) ([]entities.MarketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var listed []entities.MarketItem
	for _, item := range s.items {
		if item.Seller == seller {
			listed = append(listed, item)
		}
	}
	sortByItemID(listed)
	return listed, nil
}

func (s *Store) CountUnsoldItems(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countUnsoldLocked(), nil
}

func (s *Store) TotalItemCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemSeq, nil
}

func (s *Store) SoldItemCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.soldSeq, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	pending := make([]ports.OutboxMessage, 0, limit)
	for _, outboxID := range s.outboxOrder {
		if _, sent := s.outboxSent[outboxID]; sent {
			continue
		}
		pending = append(pending, s.outbox[outboxID])
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

// Now implements ports.Clock. AdvanceClock shifts the reported time forward,
// which is how tests exercise grace-window expiry.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Now().UTC().Add(s.clockOffset)
}

func (s *Store) AdvanceClock(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clockOffset += d
}

func (s *Store) NewID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idSeq++
	return fmt.Sprintf("mem-%06d", s.idSeq), nil
}

func (s *Store) countUnsoldLocked() int {
	count := 0
	for _, item := range s.items {
		if item.Unsold() {
			count++
		}
	}
	return count
}

func (s *Store) appendOutboxLocked(event ports.MarketEvent) error {
	envelope, err := buildMarketEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	outboxID := fmt.Sprintf("outbox-%s", event.EventID)
	s.outbox[outboxID] = ports.OutboxMessage{
		OutboxID:     outboxID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt.UTC(),
	}
	s.outboxOrder = append(s.outboxOrder, outboxID)
	return nil
}

func (s *Store) dropPendingOutboxIDLocked(outboxID string) {
	if _, sent := s.outboxSent[outboxID]; sent {
		return
	}
	if _, ok := s.outbox[outboxID]; !ok {
		return
	}
	delete(s.outbox, outboxID)
	kept := make([]string, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if id != outboxID {
			kept = append(kept, id)
		}
	}
	s.outboxOrder = kept
}

func (s *Store) dropPendingOutboxLocked(partitionKey string) {
	kept := make([]string, 0, len(s.outboxOrder))
	for _, outboxID := range s.outboxOrder {
		message := s.outbox[outboxID]
		_, sent := s.outboxSent[outboxID]
		if message.PartitionKey == partitionKey && !sent {
			delete(s.outbox, outboxID)
			continue
		}
		kept = append(kept, outboxID)
	}
	s.outboxOrder = kept
}

func sortByItemID(items []entities.MarketItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ItemID < items[j].ItemID
	})
}

func buildMarketEnvelope(event ports.MarketEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(marketEventData{
		ItemID:        event.ItemID,
		AssetContract: event.AssetContract,
		TokenID:       event.TokenID,
		Seller:        event.Seller,
		Owner:         event.Owner,
		Price:         event.Price,
		Creator:       event.Creator,
		RoyaltyBps:    event.RoyaltyBps,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "market-escrow-engine",
		SchemaVersion:    1,
		PartitionKeyPath: "item_id",
		PartitionKey:     event.PartitionKey,
		Data:             data,
	}, nil
}

type marketEventData struct {
	ItemID        uint64 `json:"item_id"`
	AssetContract string `json:"asset_contract"`
	TokenID       string `json:"token_id"`
	Seller        string `json:"seller"`
	Owner         string `json:"owner"`
	Price         int64  `json:"price"`
	Creator       string `json:"creator,omitempty"`
	RoyaltyBps    int64  `json:"royalty_bps,omitempty"`
}
