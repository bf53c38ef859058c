package handler

import (
	"net/http"

	"pcbank/transport/http/response"
)

// IssueTicketRequest is the body of a ticket issuance
type IssueTicketRequest struct {
	InventoryID int64 `json:"inventory_id"`
}

// ValidateTicketRequest is the body of a ticket validation
type ValidateTicketRequest struct {
	Code string `json:"code"`
}

// IssueTicket handles POST /api/v1/tickets
func (h *Handler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req IssueTicketRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.IssueTicket(r.Context(), actorOf(r), req.InventoryID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, result)
}

// ValidateTicket handles POST /api/v1/tickets/validate
func (h *Handler) ValidateTicket(w http.ResponseWriter, r *http.Request) {
	var req ValidateTicketRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	ticket, err := h.economy.ValidateTicket(r.Context(), actorOf(r), req.Code)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, ticket)
}

// CancelTicket handles POST /api/v1/tickets/{ticketID}/cancel
func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathID(r, "ticketID")
	if err != nil {
		response.Error(w, err)
		return
	}

	slot, err := h.economy.CancelTicket(r.Context(), actorOf(r), ticketID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, slot)
}
