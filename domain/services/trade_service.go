package services

import (
	"context"
	"fmt"

	"pcbank/domain/entities"
	"pcbank/domain/events"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"

	log "github.com/sirupsen/logrus"
)

type tradeService struct {
	accountRepo    interfaces.AccountRepository
	tradeRepo      interfaces.TradeRepository
	catalogRepo    interfaces.CatalogRepository
	ledger         interfaces.LedgerService
	delivery       itemDelivery
	audit          interfaces.AuditRecorder
	eventPublisher interfaces.EventPublisher
	policy         entities.EconomyPolicy
	clock          interfaces.Clock
}

// NewTradeService creates the barter flows for one unit of work
func NewTradeService(uow interfaces.UnitOfWork, policy entities.EconomyPolicy, clock interfaces.Clock) interfaces.TradeService {
	return &tradeService{
		accountRepo:    uow.AccountRepository(),
		tradeRepo:      uow.TradeRepository(),
		catalogRepo:    uow.CatalogRepository(),
		ledger:         NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus()),
		delivery:       newItemDelivery(uow, clock),
		audit:          uow.AuditLog(),
		eventPublisher: uow.EventBus(),
		policy:         policy,
		clock:          clock,
	}
}

// Propose records a pending trade after checking that both offers exist,
// contain no skills and pass the fairness gate.
func (s *tradeService) Propose(ctx context.Context, actor entities.Actor, req entities.ProposeTradeRequest) (*entities.Trade, error) {
	if req.TargetAccountID == actor.AccountID {
		return nil, entities.Validation("cannot trade with yourself")
	}

	initiator, err := s.accountRepo.GetByID(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load initiator: %w", err)
	}
	target, err := s.accountRepo.GetByID(ctx, req.TargetAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade target: %w", err)
	}
	if initiator == nil {
		return nil, entities.ErrAccountNotFound
	}
	if target == nil {
		return nil, entities.Detailed(entities.ErrAccountNotFound, "trade partner %d not found", req.TargetAccountID)
	}

	initiatorOffer, err := s.buildOffer(ctx, initiator, req.InitiatorOffer)
	if err != nil {
		return nil, err
	}
	targetOffer, err := s.buildOffer(ctx, target, req.TargetOffer)
	if err != nil {
		return nil, err
	}

	ratio := entities.FairnessRatio(initiatorOffer, targetOffer)
	if ratio < s.policy.TradeFairnessThreshold {
		return nil, entities.Detailed(entities.ErrUnfairTrade,
			"offers are worth %d and %d PC$ (ratio %.2f, minimum %.2f)",
			initiatorOffer.TotalValue(), targetOffer.TotalValue(), ratio, s.policy.TradeFairnessThreshold)
	}

	if !initiator.CanAfford(initiatorOffer.Currency) {
		return nil, entities.Detailed(entities.ErrInsufficientFunds,
			"you pledged %d PC$ but have %d PC$", initiatorOffer.Currency, initiator.Balance)
	}

	trade := &entities.Trade{
		InitiatorID:    initiator.ID,
		TargetID:       target.ID,
		InitiatorOffer: initiatorOffer,
		TargetOffer:    targetOffer,
		FairnessRatio:  ratio,
		Status:         entities.TradeStatusPending,
	}
	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	utils.RecordAudit(s.audit, actor, &target.ID, entities.AuditTradePropose,
		"proposed trade %d to %s (ratio %.2f)", trade.ID, target.DisplayName, ratio)

	if err := s.eventPublisher.Publish(events.TradeProposedEvent{
		TradeID:       trade.ID,
		InitiatorID:   trade.InitiatorID,
		TargetID:      trade.TargetID,
		FairnessRatio: ratio,
	}); err != nil {
		log.WithError(err).Warn("Failed to stage trade proposed event")
	}

	return trade, nil
}

// buildOffer resolves every pledged slot of the giver to a snapshot with its
// container flag and reference price
func (s *tradeService) buildOffer(ctx context.Context, giver *entities.Account, in entities.OfferInput) (entities.TradeOffer, error) {
	offer := entities.TradeOffer{Currency: in.Currency, Items: make([]entities.TradeItem, 0, len(in.Items))}
	if len(in.Items) == 0 {
		return offer, nil
	}

	personal := s.delivery.personal(giver.ID)
	_, room, err := s.delivery.roomFor(ctx, giver.Turma)
	if err != nil {
		return offer, err
	}

	pledged := make(map[int64]int, len(in.Items))
	for _, ref := range in.Items {
		found, err := ResolveItemLocation(ctx, personal, room, ref.InventoryID, giver.ID)
		if err != nil {
			return offer, err
		}
		if found.Location == LocationNotFound {
			return offer, entities.Detailed(entities.ErrItemNotFound,
				"item %d is not held by %s", ref.InventoryID, giver.DisplayName)
		}
		if found.Slot.Category.UsesCharges() {
			return offer, entities.Detailed(entities.ErrItemNotTradeable, "%s is a skill and cannot be traded", found.Slot.Name)
		}
		pledged[found.Slot.ID]++
		if pledged[found.Slot.ID] > found.Slot.Count() {
			return offer, entities.Validation("%s holds only %d unit(s) of %s",
				giver.DisplayName, found.Slot.Count(), found.Slot.Name)
		}

		snap := found.Slot.Snapshot()
		base, err := lookupBasePrice(ctx, s.catalogRepo, snap)
		if err != nil {
			return offer, err
		}
		offer.Items = append(offer.Items, entities.TradeItem{
			InventoryID: found.Slot.ID,
			Container:   found.Container.Ref().Kind,
			Item:        snap,
			BasePrice:   base,
		})
	}
	return offer, nil
}

// pendingRemoval is a pledged unit already taken out of its giver's container
type pendingRemoval struct {
	snapshot entities.ItemSnapshot
	house    bool
}

// Accept settles a pending trade. Every pledged unit is taken out before any
// delivery; one missing unit aborts the whole transaction.
func (s *tradeService) Accept(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error) {
	trade, err := s.loadPending(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.TargetID != actor.AccountID {
		return nil, entities.Detailed(entities.ErrNotTradeParty, "only the invited player can accept trade %d", trade.ID)
	}

	initiator, target, err := lockPair(ctx, s.accountRepo, trade.InitiatorID, trade.TargetID)
	if err != nil {
		return nil, err
	}
	if !initiator.CanAfford(trade.InitiatorOffer.Currency) {
		return nil, entities.Detailed(entities.ErrInsufficientFunds,
			"%s no longer has the %d PC$ pledged", initiator.DisplayName, trade.InitiatorOffer.Currency)
	}
	if !target.CanAfford(trade.TargetOffer.Currency) {
		return nil, entities.Detailed(entities.ErrInsufficientFunds,
			"%s no longer has the %d PC$ pledged", target.DisplayName, trade.TargetOffer.Currency)
	}

	fromInitiator, err := s.takeOut(ctx, initiator, trade.InitiatorOffer)
	if err != nil {
		return nil, err
	}
	fromTarget, err := s.takeOut(ctx, target, trade.TargetOffer)
	if err != nil {
		return nil, err
	}

	if err := s.handOver(ctx, target, fromInitiator); err != nil {
		return nil, err
	}
	if err := s.handOver(ctx, initiator, fromTarget); err != nil {
		return nil, err
	}

	if err := s.settleCurrency(ctx, trade, initiator, target); err != nil {
		return nil, err
	}

	trade.Resolve(entities.TradeStatusCompleted, s.clock.Now())
	if err := s.tradeRepo.Update(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to complete trade: %w", err)
	}

	utils.RecordAudit(s.audit, actor, &initiator.ID, entities.AuditTradeAccept,
		"accepted trade %d: %d items and %d PC$ for %d items and %d PC$",
		trade.ID, len(trade.TargetOffer.Items), trade.TargetOffer.Currency,
		len(trade.InitiatorOffer.Items), trade.InitiatorOffer.Currency)
	s.publishResolved(trade)

	return trade, nil
}

// Cancel withdraws a pending trade by its initiator
func (s *tradeService) Cancel(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error) {
	return s.close(ctx, actor, tradeID, entities.TradeStatusCancelled)
}

// Reject declines a pending trade by its target
func (s *tradeService) Reject(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error) {
	return s.close(ctx, actor, tradeID, entities.TradeStatusRejected)
}

// close is status-only: pending trades never moved inventory
func (s *tradeService) close(ctx context.Context, actor entities.Actor, tradeID int64, status entities.TradeStatus) (*entities.Trade, error) {
	trade, err := s.loadPending(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	var counterpart int64
	action := entities.AuditTradeCancel
	switch status {
	case entities.TradeStatusCancelled:
		if trade.InitiatorID != actor.AccountID {
			return nil, entities.Detailed(entities.ErrNotTradeParty, "only the proposer can cancel trade %d", trade.ID)
		}
		counterpart = trade.TargetID
	case entities.TradeStatusRejected:
		if trade.TargetID != actor.AccountID {
			return nil, entities.Detailed(entities.ErrNotTradeParty, "only the invited player can reject trade %d", trade.ID)
		}
		counterpart = trade.InitiatorID
		action = entities.AuditTradeReject
	default:
		return nil, fmt.Errorf("unsupported trade closing status %s", status)
	}

	trade.Resolve(status, s.clock.Now())
	if err := s.tradeRepo.Update(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to close trade: %w", err)
	}

	utils.RecordAudit(s.audit, actor, &counterpart, action, "trade %d %s", trade.ID, status)
	s.publishResolved(trade)

	return trade, nil
}

func (s *tradeService) loadPending(ctx context.Context, tradeID int64) (*entities.Trade, error) {
	trade, err := s.tradeRepo.GetByIDForUpdate(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	if trade == nil {
		return nil, entities.ErrTradeNotFound
	}
	if !trade.IsPending() {
		return nil, entities.Detailed(entities.ErrTradeNotPending, "trade %d is %s", trade.ID, trade.Status)
	}
	return trade, nil
}

// takeOut removes every pledged unit from the giver. Units are matched by
// the slot id recorded at proposal in the container it was pledged from;
// room units must still be attributed to the giver.
func (s *tradeService) takeOut(ctx context.Context, giver *entities.Account, offer entities.TradeOffer) ([]pendingRemoval, error) {
	if len(offer.Items) == 0 {
		return nil, nil
	}

	personal := s.delivery.personal(giver.ID)
	_, room, err := s.delivery.roomFor(ctx, giver.Turma)
	if err != nil {
		return nil, err
	}

	removed := make([]pendingRemoval, 0, len(offer.Items))
	for _, item := range offer.Items {
		container, acquirer := personal, (*int64)(nil)
		if item.IsHouse() {
			container, acquirer = room, &giver.ID
		}

		var slot *entities.InventorySlot
		if container != nil {
			if slot, err = container.FindByID(ctx, item.InventoryID, acquirer); err != nil {
				return nil, err
			}
		}
		if slot == nil {
			return nil, entities.Detailed(entities.ErrItemNoLongerAvailable,
				"%s is no longer held by %s", item.Item.Name, giver.DisplayName)
		}

		snap := slot.Snapshot()
		if err := container.ConsumeOne(ctx, slot); err != nil {
			return nil, err
		}
		removed = append(removed, pendingRemoval{
			snapshot: snap,
			house:    item.IsHouse(),
		})
	}
	return removed, nil
}

func (s *tradeService) handOver(ctx context.Context, receiver *entities.Account, units []pendingRemoval) error {
	for _, u := range units {
		if _, err := s.delivery.deliver(ctx, receiver, u.snapshot, u.house, entities.OriginTrade); err != nil {
			return err
		}
	}
	return nil
}

// settleCurrency moves the net difference of both pledges in one direction
func (s *tradeService) settleCurrency(ctx context.Context, trade *entities.Trade, initiator, target *entities.Account) error {
	net := trade.InitiatorOffer.Currency - trade.TargetOffer.Currency
	if net == 0 {
		return nil
	}
	payer, payee := initiator, target
	if net < 0 {
		payer, payee, net = target, initiator, -net
	}
	meta := map[string]any{"trade_id": trade.ID}
	if err := s.ledger.Debit(ctx, payer, net, entities.TransactionTypeTradeOut, meta); err != nil {
		return err
	}
	if err := s.ledger.Credit(ctx, payee, net, entities.TransactionTypeTradeIn, meta); err != nil {
		return err
	}
	return s.ledger.RecordIfPeak(ctx, payee)
}

func (s *tradeService) publishResolved(trade *entities.Trade) {
	if err := s.eventPublisher.Publish(events.TradeResolvedEvent{
		TradeID:     trade.ID,
		InitiatorID: trade.InitiatorID,
		TargetID:    trade.TargetID,
		Status:      trade.Status,
	}); err != nil {
		log.WithError(err).Warn("Failed to stage trade resolved event")
	}
}
