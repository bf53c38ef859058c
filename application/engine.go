package application

import (
	"context"
	"strings"
	"time"

	"pcbank/cache"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/services"

	log "github.com/sirupsen/logrus"
)

// OperationObserver is told the outcome of every operation. reason is empty
// on success.
type OperationObserver interface {
	RecordOperation(operation, reason string, duration time.Duration)
}

// Engine is the entry point of every economy operation. It validates input
// and the actor before a transaction opens, then runs the domain service
// inside a unit of work.
type Engine struct {
	uowFactory interfaces.UnitOfWorkFactory
	policy     entities.EconomyPolicy
	clock      interfaces.Clock
	rng        interfaces.RandomSource
	verifier   interfaces.CredentialVerifier
	stats      cache.StatsCache
	observer   OperationObserver
}

// EngineDeps groups the collaborators of an Engine
type EngineDeps struct {
	UnitOfWorkFactory  interfaces.UnitOfWorkFactory
	Policy             entities.EconomyPolicy
	Clock              interfaces.Clock
	Random             interfaces.RandomSource
	CredentialVerifier interfaces.CredentialVerifier
	Stats              cache.StatsCache
	Observer           OperationObserver
}

// NewEngine creates a new Engine
func NewEngine(deps EngineDeps) *Engine {
	return &Engine{
		uowFactory: deps.UnitOfWorkFactory,
		policy:     deps.Policy,
		clock:      deps.Clock,
		rng:        deps.Random,
		verifier:   deps.CredentialVerifier,
		stats:      deps.Stats,
		observer:   deps.Observer,
	}
}

// run executes one flow in a transaction. fn receives a context detached
// from the caller's cancellation, so a flow that has started always reaches
// commit or rollback.
func run[T any](ctx context.Context, e *Engine, operation string, fn func(ctx context.Context, uow interfaces.UnitOfWork) (T, error)) (T, error) {
	start := time.Now()
	detached := context.WithoutCancel(ctx)
	result, err := WithTransaction(detached, e.uowFactory, func(uow interfaces.UnitOfWork) (T, error) {
		return fn(detached, uow)
	})
	e.observe(operation, err, time.Since(start))
	return result, err
}

func (e *Engine) observe(operation string, err error, d time.Duration) {
	reason := ""
	if err != nil {
		infrastructure := true
		reason = "internal"
		if de, ok := entities.AsDomainError(err); ok {
			reason = string(de.Reason)
			infrastructure = de.Kind == entities.ErrorKindStorage
		}
		if infrastructure {
			log.WithFields(log.Fields{
				"operation": operation,
				"error":     err,
			}).Error("Operation failed on infrastructure")
		}
	}
	if e.observer != nil {
		e.observer.RecordOperation(operation, reason, d)
	}
}

func (e *Engine) reject(operation string, err error) error {
	e.observe(operation, err, 0)
	return err
}

// checkActor rejects anonymous and blocked callers
func checkActor(actor entities.Actor) error {
	if actor.AccountID <= 0 {
		return entities.Validation("actor is required")
	}
	if actor.Blocked {
		return entities.ErrAccountBlocked
	}
	return nil
}

func requireID(name string, id int64) error {
	if id <= 0 {
		return entities.Validation("%s must be a positive id", name)
	}
	return nil
}

// Purchase buys one unit of a catalog item
func (e *Engine) Purchase(ctx context.Context, actor entities.Actor, itemID int64) (*entities.PurchaseResult, error) {
	const op = "store.purchase"
	if err := firstError(checkActor(actor), requireID("item_id", itemID)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.PurchaseResult, error) {
		return services.NewStoreService(uow, e.clock).Purchase(ctx, actor, itemID)
	})
}

// CollectivePurchase buys a cart for the actor's classroom
func (e *Engine) CollectivePurchase(ctx context.Context, actor entities.Actor, cart []entities.CartLine) (*entities.CollectivePurchaseResult, error) {
	const op = "store.collective_purchase"
	if err := firstError(checkActor(actor), validateCart(cart)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.CollectivePurchaseResult, error) {
		return services.NewStoreService(uow, e.clock).CollectivePurchase(ctx, actor, cart)
	})
}

func validateCart(cart []entities.CartLine) error {
	if len(cart) == 0 {
		return entities.Validation("cart is empty")
	}
	for i, line := range cart {
		if line.ItemID <= 0 {
			return entities.Validation("cart line %d has no item", i)
		}
		if line.Quantity <= 0 {
			return entities.Validation("cart line %d must have a positive quantity", i)
		}
	}
	return nil
}

// ListItem puts one unit of a slot on the marketplace
func (e *Engine) ListItem(ctx context.Context, actor entities.Actor, slotRef, price int64) (*entities.MarketListing, error) {
	const op = "market.list"
	err := firstError(checkActor(actor), requireID("inventory_id", slotRef))
	if err == nil && price <= 0 {
		err = entities.Validation("price must be positive")
	}
	if err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.MarketListing, error) {
		return services.NewMarketplaceService(uow, e.policy, e.clock).List(ctx, actor, slotRef, price)
	})
}

// BuyListing buys an active listing
func (e *Engine) BuyListing(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketSaleResult, error) {
	const op = "market.buy"
	if err := firstError(checkActor(actor), requireID("listing_id", listingID)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.MarketSaleResult, error) {
		return services.NewMarketplaceService(uow, e.policy, e.clock).Buy(ctx, actor, listingID)
	})
}

// CancelListing withdraws an active listing and restores its item
func (e *Engine) CancelListing(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketListing, error) {
	const op = "market.cancel"
	if err := firstError(checkActor(actor), requireID("listing_id", listingID)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.MarketListing, error) {
		return services.NewMarketplaceService(uow, e.policy, e.clock).Cancel(ctx, actor, listingID)
	})
}

// Transfer moves currency to another account. The credential is verified
// before the transaction opens.
func (e *Engine) Transfer(ctx context.Context, actor entities.Actor, req entities.TransferRequest) (*entities.TransferResult, error) {
	const op = "transfer.send"
	req.RecipientExternalID = strings.TrimSpace(req.RecipientExternalID)
	err := checkActor(actor)
	switch {
	case err != nil:
	case req.RecipientExternalID == "":
		err = entities.Validation("recipient is required")
	case req.Amount <= 0:
		err = entities.Validation("amount must be positive")
	case req.Credential == "":
		err = entities.Validation("credential is required")
	case !req.ExemptionSource.IsValid():
		err = entities.Validation("unknown exemption source %q", req.ExemptionSource)
	}
	if err != nil {
		return nil, e.reject(op, err)
	}

	if e.verifier != nil {
		if err := e.verifier.Verify(ctx, actor.AccountID, req.Credential); err != nil {
			return nil, e.reject(op, err)
		}
	}

	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.TransferResult, error) {
		return services.NewTransferService(uow, e.policy, e.clock).Transfer(ctx, actor, req)
	})
}

// ProposeTrade opens a barter proposal
func (e *Engine) ProposeTrade(ctx context.Context, actor entities.Actor, req entities.ProposeTradeRequest) (*entities.Trade, error) {
	const op = "trade.propose"
	err := firstError(checkActor(actor), requireID("target_account_id", req.TargetAccountID),
		validateOffer("initiator_offer", req.InitiatorOffer), validateOffer("target_offer", req.TargetOffer))
	if err == nil && isEmptyOffer(req.InitiatorOffer) && isEmptyOffer(req.TargetOffer) {
		err = entities.Validation("trade must offer something")
	}
	if err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.Trade, error) {
		return services.NewTradeService(uow, e.policy, e.clock).Propose(ctx, actor, req)
	})
}

func validateOffer(side string, offer entities.OfferInput) error {
	if offer.Currency < 0 {
		return entities.Validation("%s currency cannot be negative", side)
	}
	for _, item := range offer.Items {
		if item.InventoryID <= 0 {
			return entities.Validation("%s has an item without inventory_id", side)
		}
	}
	return nil
}

func isEmptyOffer(offer entities.OfferInput) bool {
	return offer.Currency == 0 && len(offer.Items) == 0
}

// AcceptTrade executes a pending trade as its target
func (e *Engine) AcceptTrade(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error) {
	return e.resolveTrade(ctx, "trade.accept", actor, tradeID, interfaces.TradeService.Accept)
}

// CancelTrade withdraws a pending trade as its initiator
func (e *Engine) CancelTrade(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error) {
	return e.resolveTrade(ctx, "trade.cancel", actor, tradeID, interfaces.TradeService.Cancel)
}

// RejectTrade declines a pending trade as its target
func (e *Engine) RejectTrade(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error) {
	return e.resolveTrade(ctx, "trade.reject", actor, tradeID, interfaces.TradeService.Reject)
}

func (e *Engine) resolveTrade(
	ctx context.Context,
	op string,
	actor entities.Actor,
	tradeID int64,
	action func(interfaces.TradeService, context.Context, entities.Actor, int64) (*entities.Trade, error),
) (*entities.Trade, error) {
	if err := firstError(checkActor(actor), requireID("trade_id", tradeID)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.Trade, error) {
		return action(services.NewTradeService(uow, e.policy, e.clock), ctx, actor, tradeID)
	})
}

// CreditLine reports what the actor may borrow right now
func (e *Engine) CreditLine(ctx context.Context, actor entities.Actor) (*entities.CreditLine, error) {
	const op = "loan.credit_line"
	if err := checkActor(actor); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.CreditLine, error) {
		return services.NewBankService(uow, e.policy, e.clock).CreditLine(ctx, actor)
	})
}

// IssueLoan draws a loan against the actor's credit line
func (e *Engine) IssueLoan(ctx context.Context, actor entities.Actor, req entities.LoanRequest) (*entities.LoanResult, error) {
	const op = "loan.issue"
	err := checkActor(actor)
	switch {
	case err != nil:
	case req.Amount <= 0:
		err = entities.Validation("amount must be positive")
	case !req.UnlockSource.IsValid():
		err = entities.Validation("unknown unlock source %q", req.UnlockSource)
	}
	if err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.LoanResult, error) {
		return services.NewBankService(uow, e.policy, e.clock).IssueLoan(ctx, actor, req)
	})
}

// RepayLoan repays a loan in full
func (e *Engine) RepayLoan(ctx context.Context, actor entities.Actor, loanID int64) (*entities.LoanResult, error) {
	const op = "loan.repay"
	if err := firstError(checkActor(actor), requireID("loan_id", loanID)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.LoanResult, error) {
		return services.NewBankService(uow, e.policy, e.clock).RepayLoan(ctx, actor, loanID)
	})
}

// Spin plays a roulette once
func (e *Engine) Spin(ctx context.Context, actor entities.Actor, req entities.SpinRequest) (*entities.SpinResult, error) {
	const op = "roulette.spin"
	err := firstError(checkActor(actor), requireID("roulette_id", req.RouletteID))
	if err == nil {
		switch req.Payment {
		case "":
			req.Payment = entities.PaymentCurrency
		case entities.PaymentCurrency, entities.PaymentSkill:
		default:
			err = entities.Validation("unknown payment method %q", req.Payment)
		}
	}
	if err == nil && req.SkillSlotID != nil && *req.SkillSlotID <= 0 {
		err = entities.Validation("skill_slot_id must be a positive id")
	}
	if err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.SpinResult, error) {
		return services.NewRouletteService(uow, e.rng, e.clock).Spin(ctx, actor, req)
	})
}

// IssueTicket turns one unit of a slot into a ticket or an active buff
func (e *Engine) IssueTicket(ctx context.Context, actor entities.Actor, slotRef int64) (*entities.TicketIssueResult, error) {
	const op = "ticket.issue"
	if err := firstError(checkActor(actor), requireID("inventory_id", slotRef)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.TicketIssueResult, error) {
		return services.NewTicketService(uow, e.policy, e.clock).Issue(ctx, actor, slotRef)
	})
}

// ValidateTicket redeems a ticket by its code
func (e *Engine) ValidateTicket(ctx context.Context, actor entities.Actor, code string) (*entities.Ticket, error) {
	const op = "ticket.validate"
	err := checkActor(actor)
	if err == nil && strings.TrimSpace(code) == "" {
		err = entities.Validation("code is required")
	}
	if err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.Ticket, error) {
		return services.NewTicketService(uow, e.policy, e.clock).Validate(ctx, actor, code)
	})
}

// CancelTicket deletes a pending ticket and restores its item
func (e *Engine) CancelTicket(ctx context.Context, actor entities.Actor, ticketID int64) (*entities.InventorySlot, error) {
	const op = "ticket.cancel"
	if err := firstError(checkActor(actor), requireID("ticket_id", ticketID)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.InventorySlot, error) {
		return services.NewTicketService(uow, e.policy, e.clock).Cancel(ctx, actor, ticketID)
	})
}

// ClaimGift claims a pending gift
func (e *Engine) ClaimGift(ctx context.Context, actor entities.Actor, giftID int64) (*entities.GiftClaimResult, error) {
	const op = "gift.claim"
	if err := firstError(checkActor(actor), requireID("gift_id", giftID)); err != nil {
		return nil, e.reject(op, err)
	}
	return run(ctx, e, op, func(ctx context.Context, uow interfaces.UnitOfWork) (*entities.GiftClaimResult, error) {
		return services.NewGiftService(uow, e.clock).Claim(ctx, actor, giftID)
	})
}

// PublicStats returns the cached public aggregates
func (e *Engine) PublicStats(ctx context.Context) (*entities.PublicStats, error) {
	if e.stats == nil {
		return nil, entities.ErrStorageUnavailable
	}
	stats, err := e.stats.Get(ctx)
	if err != nil {
		if _, ok := entities.AsDomainError(err); !ok {
			err = entities.StorageError(err, true)
		}
		return nil, e.reject("stats.public", err)
	}
	return stats, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
