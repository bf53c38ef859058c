package handler

import (
	"context"
	"net/http"

	"pcbank/domain/entities"
	"pcbank/transport/http/response"
)

// ProposeTradeRequest is the body of a trade proposal
type ProposeTradeRequest struct {
	TargetAccountID int64               `json:"target_account_id"`
	InitiatorOffer  entities.OfferInput `json:"initiator_offer"`
	TargetOffer     entities.OfferInput `json:"target_offer"`
}

type tradeAction func(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error)

// ProposeTrade handles POST /api/v1/trades
func (h *Handler) ProposeTrade(w http.ResponseWriter, r *http.Request) {
	var req ProposeTradeRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	trade, err := h.economy.ProposeTrade(r.Context(), actorOf(r), entities.ProposeTradeRequest{
		TargetAccountID: req.TargetAccountID,
		InitiatorOffer:  req.InitiatorOffer,
		TargetOffer:     req.TargetOffer,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, trade)
}

// AcceptTrade handles POST /api/v1/trades/{tradeID}/accept
func (h *Handler) AcceptTrade(w http.ResponseWriter, r *http.Request) {
	h.resolveTrade(w, r, h.economy.AcceptTrade)
}

// CancelTrade handles POST /api/v1/trades/{tradeID}/cancel
func (h *Handler) CancelTrade(w http.ResponseWriter, r *http.Request) {
	h.resolveTrade(w, r, h.economy.CancelTrade)
}

// RejectTrade handles POST /api/v1/trades/{tradeID}/reject
func (h *Handler) RejectTrade(w http.ResponseWriter, r *http.Request) {
	h.resolveTrade(w, r, h.economy.RejectTrade)
}

func (h *Handler) resolveTrade(w http.ResponseWriter, r *http.Request, action tradeAction) {
	tradeID, err := pathID(r, "tradeID")
	if err != nil {
		response.Error(w, err)
		return
	}

	trade, err := action(r.Context(), actorOf(r), tradeID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, trade)
}
