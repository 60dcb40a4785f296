package memory

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
)

// The asset, payment, and rarity collaborators are external systems in a full
// deployment. These in-memory renditions back the developer runtime and the
// test suite until real adapters are wired into bootstrap.

var (
	ErrNotCustodian      = errors.New("transfer from non-custodian")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type royaltyRecord struct {
	creator string
	rateBps int64
}

// AssetLedger tracks per-asset custody and registered royalty rates.
type AssetLedger struct {
	mu        sync.RWMutex
	custody   map[string]string
	royalties map[string]royaltyRecord
}

func NewAssetLedger() *AssetLedger {
	return &AssetLedger{
		custody:   make(map[string]string),
		royalties: make(map[string]royaltyRecord),
	}
}

func assetKey(assetContract string, tokenID string) string {
	return assetContract + "/" + tokenID
}

// SetCustodian seeds custody state, typically the seller before listing.
func (l *AssetLedger) SetCustodian(assetContract string, tokenID string, holder string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.custody[assetKey(assetContract, tokenID)] = holder
}

func (l *AssetLedger) Custodian(assetContract string, tokenID string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.custody[assetKey(assetContract, tokenID)]
}

func (l *AssetLedger) TransferCustody(_ context.Context, assetContract string, tokenID string, from string, to string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := assetKey(assetContract, tokenID)
	if l.custody[key] != from {
		return ErrNotCustodian
	}
	l.custody[key] = to
	return nil
}

func (l *AssetLedger) RegisterRoyalty(_ context.Context, assetContract string, tokenID string, creator string, rateBps int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.royalties[assetKey(assetContract, tokenID)] = royaltyRecord{creator: creator, rateBps: rateBps}
	return nil
}

// RoyaltyInfo returns a zero rate for assets with no registered royalty.
func (l *AssetLedger) RoyaltyInfo(_ context.Context, assetContract string, tokenID string) (string, int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record := l.royalties[assetKey(assetContract, tokenID)]
	return record.creator, record.rateBps, nil
}

// PaymentLedger is a balance map with one escrow account the engine draws
// from. Deposit pulls attached value out of a caller's balance into escrow;
// Transfer disburses from escrow.
type PaymentLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	escrow   string
}

func NewPaymentLedger(escrowAccount string) *PaymentLedger {
	return &PaymentLedger{
		balances: make(map[string]int64),
		escrow:   escrowAccount,
	}
}

// Credit seeds an account balance.
func (p *PaymentLedger) Credit(account string, amount int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[account] += amount
}

func (p *PaymentLedger) Balance(account string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[account]
}

func (p *PaymentLedger) Deposit(_ context.Context, from string, amount int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[from] < amount {
		return ErrInsufficientFunds
	}
	p.balances[from] -= amount
	p.balances[p.escrow] += amount
	return nil
}

func (p *PaymentLedger) Transfer(_ context.Context, to string, amount int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[p.escrow] < amount {
		return ErrInsufficientFunds
	}
	p.balances[p.escrow] -= amount
	p.balances[to] += amount
	return nil
}

// RarityScorer derives a stable pseudo-score from the asset identity. The real
// collaborator is an external scoring service; stability is all the sort
// contract needs here.
type RarityScorer struct{}

func (RarityScorer) Score(_ context.Context, assetContract string, tokenID string) (float64, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(assetKey(assetContract, tokenID)))
	return float64(h.Sum32()) / float64(^uint32(0)), nil
}
