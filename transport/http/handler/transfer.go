package handler

import (
	"net/http"

	"pcbank/domain/entities"
	"pcbank/transport/http/response"
)

// TransferRequest is the body of a peer transfer
type TransferRequest struct {
	Recipient        string              `json:"recipient"`
	Amount           int64               `json:"amount"`
	Credential       string              `json:"credential"`
	RequestExemption bool                `json:"request_exemption"`
	ExemptionSource  entities.SourceKind `json:"exemption_source"`
}

// Transfer handles POST /api/v1/transfers
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.Transfer(r.Context(), actorOf(r), entities.TransferRequest{
		RecipientExternalID: req.Recipient,
		Amount:              req.Amount,
		Credential:          req.Credential,
		RequestExemption:    req.RequestExemption,
		ExemptionSource:     req.ExemptionSource,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, result)
}
