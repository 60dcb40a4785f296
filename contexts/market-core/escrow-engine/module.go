package escrowengine

import (
	"log/slog"
	"time"

	httpadapter "caravel/contexts/market-core/escrow-engine/adapters/http"
	"caravel/contexts/market-core/escrow-engine/adapters/memory"
	"caravel/contexts/market-core/escrow-engine/application/commands"
	"caravel/contexts/market-core/escrow-engine/application/queries"
	"caravel/contexts/market-core/escrow-engine/ports"
)

const (
	// DefaultListingFee is the flat fee charged when a listing is created, in
	// ledger base units.
	DefaultListingFee int64 = 25

	// DefaultGraceWindow bounds post-listing price edits and cancellations.
	DefaultGraceWindow = 24 * time.Hour

	DefaultEscrowAccount   = "market-escrow"
	DefaultPlatformAccount = "market-platform"
)

// Module is the composition surface for the escrow engine.
// Runtime wiring should consume Handler; the in-memory collaborators are
// exposed for tests/inspection.
type Module struct {
	Handler  httpadapter.Handler
	Store    *memory.Store
	Assets   *memory.AssetLedger
	Payments *memory.PaymentLedger
}

type Dependencies struct {
	Items           ports.ItemRepository
	Assets          ports.AssetRegistry
	Royalties       ports.RoyaltyRegistry
	Payments        ports.PaymentLedger
	Rarity          ports.RarityScorer
	Guard           ports.EntryGuard
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	ListingFee      int64
	GraceWindow     time.Duration
	EscrowAccount   string
	PlatformAccount string
	Logger          *slog.Logger
}

// NewModule wires the escrow-engine use cases against explicit ports.
func NewModule(deps Dependencies) Module {
	createListing := commands.CreateListingUseCase{
		Items:         deps.Items,
		Assets:        deps.Assets,
		Payments:      deps.Payments,
		Guard:         deps.Guard,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		ListingFee:    deps.ListingFee,
		EscrowAccount: deps.EscrowAccount,
		Logger:        deps.Logger,
	}
	updatePrice := commands.UpdateListingPriceUseCase{
		Items:       deps.Items,
		Guard:       deps.Guard,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		GraceWindow: deps.GraceWindow,
		Logger:      deps.Logger,
	}
	cancelListing := commands.CancelListingUseCase{
		Items:         deps.Items,
		Assets:        deps.Assets,
		Guard:         deps.Guard,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		GraceWindow:   deps.GraceWindow,
		EscrowAccount: deps.EscrowAccount,
		Logger:        deps.Logger,
	}
	completeSale := commands.CompleteSaleUseCase{
		Items:           deps.Items,
		Assets:          deps.Assets,
		Royalties:       deps.Royalties,
		Payments:        deps.Payments,
		Guard:           deps.Guard,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		ListingFee:      deps.ListingFee,
		EscrowAccount:   deps.EscrowAccount,
		PlatformAccount: deps.PlatformAccount,
		Logger:          deps.Logger,
	}
	listUnsold := queries.ListUnsoldUseCase{
		Items:  deps.Items,
		Rarity: deps.Rarity,
		Logger: deps.Logger,
	}
	listOwned := queries.ListOwnedUseCase{
		Items:  deps.Items,
		Logger: deps.Logger,
	}
	listCreated := queries.ListCreatedUseCase{
		Items:  deps.Items,
		Logger: deps.Logger,
	}
	getItem := queries.GetItemUseCase{
		Items:  deps.Items,
		Logger: deps.Logger,
	}

	handler := httpadapter.Handler{
		CreateListing: createListing,
		UpdatePrice:   updatePrice,
		CancelListing: cancelListing,
		CompleteSale:  completeSale,
		ListUnsold:    listUnsold,
		ListOwned:     listOwned,
		ListCreated:   listCreated,
		GetItem:       getItem,
		Logger:        deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule wires the escrow engine against in-memory adapters.
// This is the current developer/runtime bootstrap path until platform adapters
// (Postgres/Redis/Kafka) are fully wired into bootstrap.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	assets := memory.NewAssetLedger()
	payments := memory.NewPaymentLedger(DefaultEscrowAccount)

	module := NewModule(Dependencies{
		Items:           store,
		Assets:          assets,
		Royalties:       assets,
		Payments:        payments,
		Rarity:          memory.RarityScorer{},
		Guard:           memory.NewLatch(),
		Clock:           store,
		IDGenerator:     store,
		ListingFee:      DefaultListingFee,
		GraceWindow:     DefaultGraceWindow,
		EscrowAccount:   DefaultEscrowAccount,
		PlatformAccount: DefaultPlatformAccount,
		Logger:          logger,
	})
	module.Store = store
	module.Assets = assets
	module.Payments = payments
	return module
}
