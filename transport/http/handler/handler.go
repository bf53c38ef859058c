package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"pcbank/domain/entities"
	"pcbank/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 64 << 10

// Economy is the set of operations the HTTP layer exposes
type Economy interface {
	Purchase(ctx context.Context, actor entities.Actor, itemID int64) (*entities.PurchaseResult, error)
	CollectivePurchase(ctx context.Context, actor entities.Actor, cart []entities.CartLine) (*entities.CollectivePurchaseResult, error)

	ListItem(ctx context.Context, actor entities.Actor, slotRef, price int64) (*entities.MarketListing, error)
	BuyListing(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketSaleResult, error)
	CancelListing(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketListing, error)

	Transfer(ctx context.Context, actor entities.Actor, req entities.TransferRequest) (*entities.TransferResult, error)

	ProposeTrade(ctx context.Context, actor entities.Actor, req entities.ProposeTradeRequest) (*entities.Trade, error)
	AcceptTrade(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error)
	CancelTrade(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error)
	RejectTrade(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error)

	CreditLine(ctx context.Context, actor entities.Actor) (*entities.CreditLine, error)
	IssueLoan(ctx context.Context, actor entities.Actor, req entities.LoanRequest) (*entities.LoanResult, error)
	RepayLoan(ctx context.Context, actor entities.Actor, loanID int64) (*entities.LoanResult, error)

	Spin(ctx context.Context, actor entities.Actor, req entities.SpinRequest) (*entities.SpinResult, error)

	IssueTicket(ctx context.Context, actor entities.Actor, slotRef int64) (*entities.TicketIssueResult, error)
	ValidateTicket(ctx context.Context, actor entities.Actor, code string) (*entities.Ticket, error)
	CancelTicket(ctx context.Context, actor entities.Actor, ticketID int64) (*entities.InventorySlot, error)

	ClaimGift(ctx context.Context, actor entities.Actor, giftID int64) (*entities.GiftClaimResult, error)

	PublicStats(ctx context.Context) (*entities.PublicStats, error)
}

// Handler contains all HTTP handlers and their dependencies
type Handler struct {
	economy Economy
	checks  []Check
}

// New creates a new handler. checks are probed by the readiness endpoint.
func New(economy Economy, checks ...Check) *Handler {
	return &Handler{economy: economy, checks: checks}
}

func actorOf(r *http.Request) entities.Actor {
	actor, _ := middleware.ActorFromContext(r.Context())
	return actor
}

// pathID parses a positive integer route parameter
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, entities.Validation("%s must be a positive integer", name)
	}
	return id, nil
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return entities.Validation("invalid JSON body: %v", err)
	}
	return nil
}
