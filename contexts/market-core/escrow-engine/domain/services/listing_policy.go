package services

import (
	"time"

	"caravel/contexts/market-core/escrow-engine/domain/entities"
	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
)

// AuthorizeListingEdit enforces the seller-only, grace-window rules shared by
// price updates and cancellations. Sold records are immutable.
func AuthorizeListingEdit(
	item entities.MarketItem,
	caller string,
	now time.Time,
	window time.Duration,
) error {
	if item.Sold {
		return domainerrors.ErrAlreadySold
	}
	if caller != item.Seller {
		return domainerrors.ErrUnauthorized
	}
	if !item.WithinGraceWindow(now, window) {
		return domainerrors.ErrEditWindowExpired
	}
	return nil
}
