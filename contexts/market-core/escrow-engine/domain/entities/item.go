package entities

import (
	"strings"
	"time"

	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
)

// MarketItem is one escrowed listing. The engine holds custody of the
// underlying asset from listing until sale or cancellation.
type MarketItem struct {
	ItemID        uint64
	AssetContract string
	TokenID       string
	Seller        string
	Owner         string
	Price         int64
	Sold          bool
	ListedAt      time.Time
	UpdatedAt     time.Time
}

func NewMarketItem(
	itemID uint64,
	assetContract string,
	tokenID string,
	seller string,
	price int64,
	listedAt time.Time,
) (MarketItem, error) {
	if itemID == 0 ||
		strings.TrimSpace(assetContract) == "" ||
		strings.TrimSpace(tokenID) == "" ||
		strings.TrimSpace(seller) == "" {
		return MarketItem{}, domainerrors.ErrInvalidListing
	}
	if price <= 0 {
		return MarketItem{}, domainerrors.ErrInvalidPrice
	}

	return MarketItem{
		ItemID:        itemID,
		AssetContract: assetContract,
		TokenID:       tokenID,
		Seller:        seller,
		Owner:         "",
		Price:         price,
		Sold:          false,
		ListedAt:      listedAt.UTC(),
		UpdatedAt:     listedAt.UTC(),
	}, nil
}

// Unsold holds the owner/sold pairing invariant: a record is unsold exactly
// while it has no owner of record.
func (i MarketItem) Unsold() bool {
	return !i.Sold && i.Owner == ""
}

// WithinGraceWindow reports whether the seller may still amend or cancel.
func (i MarketItem) WithinGraceWindow(now time.Time, window time.Duration) bool {
	return now.UTC().Sub(i.ListedAt) <= window
}
