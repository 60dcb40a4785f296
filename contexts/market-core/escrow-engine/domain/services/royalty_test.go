package services

import (
	"math"
	"testing"
)

func TestSplitPaymentExactBasisPoints(t *testing.T) {
	royalty, remainder := SplitPayment(100, 500)
	if royalty != 5 {
		t.Fatalf("expected royalty 5, got %d", royalty)
	}
	if remainder != 95 {
		t.Fatalf("expected remainder 95, got %d", remainder)
	}
}

func TestSplitPaymentFloorsFractionalRoyalty(t *testing.T) {
	// 333 * 250 / 10000 = 8.325, cut to 8.
	royalty, remainder := SplitPayment(333, 250)
	if royalty != 8 {
		t.Fatalf("expected floored royalty 8, got %d", royalty)
	}
	if remainder != 325 {
		t.Fatalf("expected remainder 325, got %d", remainder)
	}
}

func TestSplitPaymentConservesTotal(t *testing.T) {
	payments := []int64{1, 99, 100, 333, 10000, 123456789}
	rates := []int64{0, 1, 250, 500, 9999, 10000}
	for _, payment := range payments {
		for _, rate := range rates {
			royalty, remainder := SplitPayment(payment, rate)
			if royalty+remainder != payment {
				t.Fatalf("split of %d at %dbps lost value: %d + %d", payment, rate, royalty, remainder)
			}
			if royalty < 0 || remainder < 0 {
				t.Fatalf("split of %d at %dbps produced negative part", payment, rate)
			}
		}
	}
}

func TestSplitPaymentFullRate(t *testing.T) {
	royalty, remainder := SplitPayment(100, RoyaltyDenominator)
	if royalty != 100 || remainder != 0 {
		t.Fatalf("expected full payment as royalty, got %d/%d", royalty, remainder)
	}
}

func TestSplitPaymentLargePayments(t *testing.T) {
	// payment * rateBps would wrap around int64 here.
	max := int64(math.MaxInt64)

	royalty, remainder := SplitPayment(max, 1)
	if royalty != max/RoyaltyDenominator {
		t.Fatalf("expected royalty %d, got %d", max/RoyaltyDenominator, royalty)
	}
	if royalty+remainder != max {
		t.Fatalf("split lost value: %d + %d", royalty, remainder)
	}

	royalty, remainder = SplitPayment(max, RoyaltyDenominator)
	if royalty != max || remainder != 0 {
		t.Fatalf("expected full payment as royalty, got %d/%d", royalty, remainder)
	}

	royalty, remainder = SplitPayment(max, 9999)
	if royalty < 0 || remainder < 0 {
		t.Fatalf("split of max payment produced negative part: %d/%d", royalty, remainder)
	}
	if royalty+remainder != max {
		t.Fatalf("split of max payment lost value: %d + %d", royalty, remainder)
	}
}

func TestValidRoyaltyRateBounds(t *testing.T) {
	cases := []struct {
		rate  int64
		valid bool
	}{
		{-1, false},
		{0, true},
		{500, true},
		{10000, true},
		{10001, false},
	}
	for _, tc := range cases {
		if got := ValidRoyaltyRate(tc.rate); got != tc.valid {
			t.Fatalf("rate %d: expected valid=%v, got %v", tc.rate, tc.valid, got)
		}
	}
}
