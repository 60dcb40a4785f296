package commands

import (
	"context"
	"strconv"
	"time"

	"caravel/contexts/market-core/escrow-engine/domain/entities"
	"caravel/contexts/market-core/escrow-engine/ports"
)

const (
	listingCreatedEventType      = "market.listing_created"
	listingPriceUpdatedEventType = "market.listing_price_updated"
	listingCancelledEventType    = "market.listing_cancelled"
	royaltySetEventType          = "market.royalty_set"
	itemSoldEventType            = "market.item_sold"
)

const (
	defaultGraceWindow     = 24 * time.Hour
	defaultEscrowAccount   = "market-escrow"
	defaultPlatformAccount = "market-platform"
)

func resolveWindow(window time.Duration) time.Duration {
	if window <= 0 {
		return defaultGraceWindow
	}
	return window
}

func resolveAccount(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

func newMarketEvent(
	ctx context.Context,
	generator ports.IDGenerator,
	eventType string,
	item entities.MarketItem,
	occurredAt time.Time,
) (ports.MarketEvent, error) {
	eventID, err := generator.NewID(ctx)
	if err != nil {
		return ports.MarketEvent{}, err
	}
	return ports.MarketEvent{
		EventID:       eventID,
		EventType:     eventType,
		ItemID:        item.ItemID,
		AssetContract: item.AssetContract,
		TokenID:       item.TokenID,
		Seller:        item.Seller,
		Owner:         item.Owner,
		Price:         item.Price,
		PartitionKey:  strconv.FormatUint(item.ItemID, 10),
		OccurredAt:    occurredAt,
	}, nil
}
