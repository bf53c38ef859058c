package handler

import (
	"net/http"

	"pcbank/domain/entities"
	"pcbank/transport/http/response"
)

// CollectivePurchaseRequest is the body of a collective purchase
type CollectivePurchaseRequest struct {
	Items []entities.CartLine `json:"items"`
}

// Purchase handles POST /api/v1/store/items/{itemID}/purchase
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemID")
	if err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.Purchase(r.Context(), actorOf(r), itemID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, result)
}

// CollectivePurchase handles POST /api/v1/store/collective-purchases
func (h *Handler) CollectivePurchase(w http.ResponseWriter, r *http.Request) {
	var req CollectivePurchaseRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.CollectivePurchase(r.Context(), actorOf(r), req.Items)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, result)
}
