package handler

import (
	"net/http"

	"pcbank/transport/http/response"
)

// ListItemRequest is the body of a new marketplace listing
type ListItemRequest struct {
	InventoryID int64 `json:"inventory_id"`
	Price       int64 `json:"price"`
}

// ListItem handles POST /api/v1/market/listings
func (h *Handler) ListItem(w http.ResponseWriter, r *http.Request) {
	var req ListItemRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	listing, err := h.economy.ListItem(r.Context(), actorOf(r), req.InventoryID, req.Price)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, listing)
}

// BuyListing handles POST /api/v1/market/listings/{listingID}/buy
func (h *Handler) BuyListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := pathID(r, "listingID")
	if err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.BuyListing(r.Context(), actorOf(r), listingID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, result)
}

// CancelListing handles POST /api/v1/market/listings/{listingID}/cancel
func (h *Handler) CancelListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := pathID(r, "listingID")
	if err != nil {
		response.Error(w, err)
		return
	}

	listing, err := h.economy.CancelListing(r.Context(), actorOf(r), listingID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, listing)
}
