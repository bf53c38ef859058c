package handler

import (
	"net/http"

	"pcbank/domain/entities"
	"pcbank/transport/http/response"
)

// IssueLoanRequest is the body of a loan request
type IssueLoanRequest struct {
	Amount       int64               `json:"amount"`
	UnlockSource entities.SourceKind `json:"unlock_source"`
}

// CreditLine handles GET /api/v1/loans/credit-line
func (h *Handler) CreditLine(w http.ResponseWriter, r *http.Request) {
	line, err := h.economy.CreditLine(r.Context(), actorOf(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, line)
}

// IssueLoan handles POST /api/v1/loans
func (h *Handler) IssueLoan(w http.ResponseWriter, r *http.Request) {
	var req IssueLoanRequest
	if err := decode(r, &req); err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.IssueLoan(r.Context(), actorOf(r), entities.LoanRequest{
		Amount:       req.Amount,
		UnlockSource: req.UnlockSource,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, result)
}

// RepayLoan handles POST /api/v1/loans/{loanID}/repay
func (h *Handler) RepayLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanID")
	if err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.economy.RepayLoan(r.Context(), actorOf(r), loanID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, result)
}
