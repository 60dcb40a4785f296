package services

// RoyaltyDenominator is the basis-point denominator for royalty rates.
const RoyaltyDenominator = 10000

// ValidRoyaltyRate bounds a rate to [0, RoyaltyDenominator].
func ValidRoyaltyRate(rateBps int64) bool {
	return rateBps >= 0 && rateBps <= RoyaltyDenominator
}

// SplitPayment divides a sale payment into the creator royalty and the seller
// remainder. The royalty rounds down; royalty + remainder == payment always.
// The quotient/remainder decomposition keeps the intermediate product below
// RoyaltyDenominator^2, so the split is exact for any int64 payment.
func SplitPayment(payment int64, rateBps int64) (royalty int64, remainder int64) {
	whole := payment / RoyaltyDenominator
	part := payment % RoyaltyDenominator
	royalty = whole*rateBps + part*rateBps/RoyaltyDenominator
	return royalty, payment - royalty
}
