package httpadapter

import (
	"context"
	"log/slog"

	application "caravel/contexts/market-core/escrow-engine/application"
	"caravel/contexts/market-core/escrow-engine/application/commands"
	"caravel/contexts/market-core/escrow-engine/application/queries"
	"caravel/contexts/market-core/escrow-engine/domain/entities"
	httptransport "caravel/contexts/market-core/escrow-engine/transport/http"
)

type Handler struct {
	CreateListing commands.CreateListingUseCase
	UpdatePrice   commands.UpdateListingPriceUseCase
	CancelListing commands.CancelListingUseCase
	CompleteSale  commands.CompleteSaleUseCase
	ListUnsold    queries.ListUnsoldUseCase
	ListOwned     queries.ListOwnedUseCase
	ListCreated   queries.ListCreatedUseCase
	GetItem       queries.GetItemUseCase
	Logger        *slog.Logger
}

// CreateListingHandler godoc
// @Summary Create a listing
// @Description Escrows the asset, records the listing, and charges the flat listing fee.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.CreateListingRequest true "Listing payload"
// @Success 200 {object} httptransport.CreateListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/items [post]
func (h Handler) CreateListingHandler(ctx context.Context, caller string, req httptransport.CreateListingRequest) (httptransport.CreateListingResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("create listing request received",
		"event", "http_create_listing_received",
		"module", "market-core/escrow-engine",
		"layer", "transport",
		"seller", caller,
	)

	result, err := h.CreateListing.Execute(ctx, commands.CreateListingCommand{
		AssetContract:  req.AssetContract,
		TokenID:        req.TokenID,
		Price:          req.Price,
		RoyaltyBps:     req.RoyaltyBps,
		Caller:         caller,
		AttachedAmount: req.AttachedAmount,
	})
	if err != nil {
		logger.Error("create listing request failed",
			"event", "http_create_listing_failed",
			"module", "market-core/escrow-engine",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.CreateListingResponse{}, err
	}

	return httptransport.CreateListingResponse{Item: mapItem(result.Item)}, nil
}

// UpdatePriceHandler godoc
// @Summary Update a listing price
// @Description Reprices an unsold listing within the seller's edit window.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller account"
// @Param item_id path int true "Item id"
// @Param request body httptransport.UpdatePriceRequest true "New price"
// @Success 200 {object} httptransport.UpdatePriceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/items/{item_id}/price [patch]
func (h Handler) UpdatePriceHandler(ctx context.Context, caller string, itemID uint64, req httptransport.UpdatePriceRequest) (httptransport.UpdatePriceResponse, error) {
	result, err := h.UpdatePrice.Execute(ctx, commands.UpdateListingPriceCommand{
		ItemID:   itemID,
		NewPrice: req.NewPrice,
		Caller:   caller,
	})
	if err != nil {
		return httptransport.UpdatePriceResponse{}, err
	}
	return httptransport.UpdatePriceResponse{Item: mapItem(result.Item)}, nil
}

// CancelListingHandler godoc
// @Summary Cancel a listing
// @Description Returns the asset to the seller and removes the listing record.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller account"
// @Param item_id path int true "Item id"
// @Success 200 {object} httptransport.CancelListingResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/items/{item_id} [delete]
func (h Handler) CancelListingHandler(ctx context.Context, caller string, itemID uint64) (httptransport.CancelListingResponse, error) {
	result, err := h.CancelListing.Execute(ctx, commands.CancelListingCommand{
		ItemID: itemID,
		Caller: caller,
	})
	if err != nil {
		return httptransport.CancelListingResponse{}, err
	}
	return httptransport.CancelListingResponse{
		ItemID:    result.ItemID,
		Cancelled: true,
	}, nil
}

// PurchaseHandler godoc
// @Summary Purchase a listed item
// @Description Settles a sale: royalty split, seller proceeds, custody to buyer, fee to platform.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller account"
// @Param item_id path int true "Item id"
// @Param request body httptransport.PurchaseRequest true "Purchase payload"
// @Success 200 {object} httptransport.PurchaseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/items/{item_id}/purchase [post]
func (h Handler) PurchaseHandler(ctx context.Context, caller string, itemID uint64, req httptransport.PurchaseRequest) (httptransport.PurchaseResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("purchase request received",
		"event", "http_purchase_received",
		"module", "market-core/escrow-engine",
		"layer", "transport",
		"item_id", itemID,
		"buyer", caller,
	)

	result, err := h.CompleteSale.Execute(ctx, commands.CompleteSaleCommand{
		ItemID:         itemID,
		AssetContract:  req.AssetContract,
		Caller:         caller,
		AttachedAmount: req.AttachedAmount,
	})
	if err != nil {
		logger.Error("purchase request failed",
			"event", "http_purchase_failed",
			"module", "market-core/escrow-engine",
			"layer", "transport",
			"item_id", itemID,
			"error", err.Error(),
		)
		return httptransport.PurchaseResponse{}, err
	}

	return httptransport.PurchaseResponse{
		Item:           mapItem(result.Item),
		Creator:        result.Creator,
		RoyaltyPaid:    result.RoyaltyPaid,
		SellerProceeds: result.SellerProceeds,
	}, nil
}

// ListUnsoldHandler godoc
// @Summary List unsold items
// @Description Returns items still in escrow with optional price filter and sort key.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param price_filter query string false "Price filter: fixed_price,no_price"
// @Param sort query string false "Sort: price_asc,price_desc,rarity"
// @Success 200 {object} httptransport.ListUnsoldResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/items [get]
func (h Handler) ListUnsoldHandler(ctx context.Context, priceFilter string, sortKey string) (httptransport.ListUnsoldResponse, error) {
	result, err := h.ListUnsold.Execute(ctx, queries.ListUnsoldQuery{
		PriceFilter: priceFilter,
		Sort:        sortKey,
	})
	if err != nil {
		return httptransport.ListUnsoldResponse{}, err
	}
	return httptransport.ListUnsoldResponse{
		Items:       mapItems(result.Items),
		UnsoldCount: result.UnsoldCount,
	}, nil
}

// ListOwnedHandler godoc
// @Summary List purchased items
// @Description Returns items the caller has bought.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller account"
// @Success 200 {object} httptransport.ItemsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/portfolio [get]
func (h Handler) ListOwnedHandler(ctx context.Context, caller string) (httptransport.ItemsResponse, error) {
	result, err := h.ListOwned.Execute(ctx, queries.ListOwnedQuery{Caller: caller})
	if err != nil {
		return httptransport.ItemsResponse{}, err
	}
	return httptransport.ItemsResponse{Items: mapItems(result.Items)}, nil
}

// ListCreatedHandler godoc
// @Summary List created listings
// @Description Returns items the caller listed, sold or not.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-User-Id header string true "Caller account"
// @Success 200 {object} httptransport.ItemsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings [get]
func (h Handler) ListCreatedHandler(ctx context.Context, caller string) (httptransport.ItemsResponse, error) {
	result, err := h.ListCreated.Execute(ctx, queries.ListCreatedQuery{Caller: caller})
	if err != nil {
		return httptransport.ItemsResponse{}, err
	}
	return httptransport.ItemsResponse{Items: mapItems(result.Items)}, nil
}

// GetItemHandler godoc
// @Summary Get item details
// @Description Returns one market item by id.
// @Tags escrow-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item_id path int true "Item id"
// @Success 200 {object} httptransport.GetItemResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/items/{item_id} [get]
func (h Handler) GetItemHandler(ctx context.Context, itemID uint64) (httptransport.GetItemResponse, error) {
	result, err := h.GetItem.Execute(ctx, queries.GetItemQuery{ItemID: itemID})
	if err != nil {
		return httptransport.GetItemResponse{}, err
	}
	return httptransport.GetItemResponse{Item: mapItem(result.Item)}, nil
}

func mapItems(items []entities.MarketItem) []httptransport.ItemDTO {
	mapped := make([]httptransport.ItemDTO, 0, len(items))
	for _, item := range items {
		mapped = append(mapped, mapItem(item))
	}
	return mapped
}

func mapItem(item entities.MarketItem) httptransport.ItemDTO {
	return httptransport.ItemDTO{
		ItemID:        item.ItemID,
		AssetContract: item.AssetContract,
		TokenID:       item.TokenID,
		Seller:        item.Seller,
		Owner:         item.Owner,
		Price:         item.Price,
		Sold:          item.Sold,
		ListedAt:      item.ListedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
