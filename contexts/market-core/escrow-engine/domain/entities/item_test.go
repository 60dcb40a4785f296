package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
)

func TestNewMarketItemValidation(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewMarketItem(0, "0xabc", "t-1", "seller", 100, now); !errors.Is(err, domainerrors.ErrInvalidListing) {
		t.Fatalf("zero item id: expected ErrInvalidListing, got %v", err)
	}
	if _, err := NewMarketItem(1, "  ", "t-1", "seller", 100, now); !errors.Is(err, domainerrors.ErrInvalidListing) {
		t.Fatalf("blank contract: expected ErrInvalidListing, got %v", err)
	}
	if _, err := NewMarketItem(1, "0xabc", "", "seller", 100, now); !errors.Is(err, domainerrors.ErrInvalidListing) {
		t.Fatalf("blank token: expected ErrInvalidListing, got %v", err)
	}
	if _, err := NewMarketItem(1, "0xabc", "t-1", "", 100, now); !errors.Is(err, domainerrors.ErrInvalidListing) {
		t.Fatalf("blank seller: expected ErrInvalidListing, got %v", err)
	}
	if _, err := NewMarketItem(1, "0xabc", "t-1", "seller", 0, now); !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("zero price: expected ErrInvalidPrice, got %v", err)
	}
	if _, err := NewMarketItem(1, "0xabc", "t-1", "seller", -5, now); !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("negative price: expected ErrInvalidPrice, got %v", err)
	}
}

func TestNewMarketItemStartsUnsold(t *testing.T) {
	now := time.Now().UTC()
	item, err := NewMarketItem(7, "0xabc", "t-7", "seller", 250, now)
	if err != nil {
		t.Fatalf("valid listing should build: %v", err)
	}
	if !item.Unsold() {
		t.Fatalf("fresh listing should report unsold")
	}
	if item.Owner != "" || item.Sold {
		t.Fatalf("fresh listing should have no owner and sold=false")
	}
	if !item.UpdatedAt.Equal(item.ListedAt) {
		t.Fatalf("updated-at should start at listed-at")
	}
}

func TestUnsoldPairsOwnerAndFlag(t *testing.T) {
	item := MarketItem{Owner: "buyer", Sold: true}
	if item.Unsold() {
		t.Fatalf("sold item with owner must not report unsold")
	}
	item = MarketItem{Owner: "buyer", Sold: false}
	if item.Unsold() {
		t.Fatalf("owned item must not report unsold")
	}
}

func TestWithinGraceWindow(t *testing.T) {
	listedAt := time.Now().UTC()
	item := MarketItem{ListedAt: listedAt}

	if !item.WithinGraceWindow(listedAt.Add(24*time.Hour), 24*time.Hour) {
		t.Fatalf("boundary instant should still be within the window")
	}
	if item.WithinGraceWindow(listedAt.Add(24*time.Hour+time.Second), 24*time.Hour) {
		t.Fatalf("past the window should report false")
	}
}
