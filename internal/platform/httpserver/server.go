package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	escrowengine "caravel/contexts/market-core/escrow-engine"
	marketerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	markethttp "caravel/contexts/market-core/escrow-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "caravel/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	market escrowengine.Module
}

func New(market escrowengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		market: market,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /market/items", s.handleCreateListing)
	s.mux.HandleFunc("GET /market/items", s.handleListUnsold)
	s.mux.HandleFunc("GET /market/items/{item_id}", s.handleGetItem)
	s.mux.HandleFunc("PATCH /market/items/{item_id}/price", s.handleUpdatePrice)
	s.mux.HandleFunc("DELETE /market/items/{item_id}", s.handleCancelListing)
	s.mux.HandleFunc("POST /market/items/{item_id}/purchase", s.handlePurchase)
	s.mux.HandleFunc("GET /market/portfolio", s.handleListOwned)
	s.mux.HandleFunc("GET /market/listings", s.handleListCreated)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req markethttp.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.market.Handler.CreateListingHandler(r.Context(), caller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUnsold(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.market.Handler.ListUnsoldHandler(r.Context(), query.Get("price_filter"), query.Get("sort"))
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}
	resp, err := s.market.Handler.GetItemHandler(r.Context(), itemID)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req markethttp.UpdatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.market.Handler.UpdatePriceHandler(r.Context(), caller, itemID, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	resp, err := s.market.Handler.CancelListingHandler(r.Context(), caller, itemID)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req markethttp.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.market.Handler.PurchaseHandler(r.Context(), caller, itemID, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListOwned(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.market.Handler.ListOwnedHandler(r.Context(), caller)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCreated(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.market.Handler.ListCreatedHandler(r.Context(), caller)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseItemID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	itemID, err := strconv.ParseUint(r.PathValue("item_id"), 10, 64)
	if err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be an unsigned integer")
		return 0, false
	}
	return itemID, true
}

func writeMarketDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketerrors.ErrItemNotFound):
		writeMarketError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, marketerrors.ErrAlreadySold):
		writeMarketError(w, http.StatusConflict, "already_sold", err.Error())
	case errors.Is(err, marketerrors.ErrReentrantCall):
		writeMarketError(w, http.StatusConflict, "reentrant_call", err.Error())
	case errors.Is(err, marketerrors.ErrUnauthorized):
		writeMarketError(w, http.StatusForbidden, "not_seller", err.Error())
	case errors.Is(err, marketerrors.ErrEditWindowExpired):
		writeMarketError(w, http.StatusForbidden, "edit_window_expired", err.Error())
	case errors.Is(err, marketerrors.ErrPaymentMismatch):
		writeMarketError(w, http.StatusBadRequest, "payment_mismatch", err.Error())
	case errors.Is(err, marketerrors.ErrCollectionMismatch):
		writeMarketError(w, http.StatusBadRequest, "collection_mismatch", err.Error())
	case errors.Is(err, marketerrors.ErrInvalidListing):
		writeMarketError(w, http.StatusBadRequest, "invalid_listing", err.Error())
	case errors.Is(err, marketerrors.ErrInvalidPrice):
		writeMarketError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, marketerrors.ErrInvalidFee):
		writeMarketError(w, http.StatusBadRequest, "invalid_fee", err.Error())
	case errors.Is(err, marketerrors.ErrInvalidRoyalty):
		writeMarketError(w, http.StatusBadRequest, "invalid_royalty", err.Error())
	case errors.Is(err, marketerrors.ErrInvalidListFilter):
		writeMarketError(w, http.StatusBadRequest, "invalid_list_filter", err.Error())
	default:
		writeMarketError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMarketError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, markethttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
