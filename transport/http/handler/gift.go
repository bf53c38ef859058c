package handler

import (
	"net/http"

	"pcbank/transport/http/response"
)

// ClaimGift handles POST /api/v1/gifts/{giftID}/claim
func (h *Handler) ClaimGift(w http.ResponseWriter, r *http.Request) {
	giftID, err := pathID(r, "giftID")
	if err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.ClaimGift(r.Context(), actorOf(r), giftID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, result)
}

// PublicStats handles GET /api/v1/stats/public
func (h *Handler) PublicStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.economy.PublicStats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stats)
}
