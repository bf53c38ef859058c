package services

import (
	"testing"

	"pcbank/domain/entities"
	"pcbank/domain/events"
	"pcbank/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tradeScenario struct {
	*economyFixture
	ana, bia   *entities.Account
	sticker    *entities.CatalogItem
	badge      *entities.CatalogItem
	anaSticker *entities.InventorySlot
	biaBadge   *entities.InventorySlot
}

// newTradeScenario gives ana a 50 PC$ sticker and bia a 60 PC$ badge
func newTradeScenario(t *testing.T) *tradeScenario {
	f := newEconomyFixture(t)
	s := &tradeScenario{economyFixture: f}
	s.ana = f.student("ana", 200)
	s.bia = f.student("bia", 100)
	s.sticker = f.catalogItem("Sticker", 50, entities.CategoryConsumable)
	s.badge = f.catalogItem("Badge", 60, entities.CategoryPermanent)
	s.anaSticker = f.give(s.ana, s.sticker, 1)
	s.biaBadge = f.give(s.bia, s.badge, 1)
	return s
}

func (s *tradeScenario) propose(req entities.ProposeTradeRequest) (*entities.Trade, error) {
	var trade *entities.Trade
	err := s.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		trade, err = NewTradeService(uow, s.policy, s.clock).Propose(s.ctx, s.actor(s.ana), req)
		return err
	})
	return trade, err
}

// fairProposal pledges the sticker plus 10 PC$ against the badge
func (s *tradeScenario) fairProposal() entities.ProposeTradeRequest {
	return entities.ProposeTradeRequest{
		TargetAccountID: s.bia.ID,
		InitiatorOffer: entities.OfferInput{
			Currency: 10,
			Items:    []entities.OfferItemRef{{InventoryID: s.anaSticker.ID}},
		},
		TargetOffer: entities.OfferInput{
			Items: []entities.OfferItemRef{{InventoryID: s.biaBadge.ID}},
		},
	}
}

func (s *tradeScenario) resolve(actor *entities.Account, action func(svc interfaces.TradeService, actor entities.Actor, id int64) (*entities.Trade, error), tradeID int64) error {
	return s.exec(func(uow interfaces.UnitOfWork) error {
		_, err := action(NewTradeService(uow, s.policy, s.clock), s.actor(actor), tradeID)
		return err
	})
}

func TestTradeService_ProposeRecordsPendingTrade(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	trade, err := s.propose(s.fairProposal())
	require.NoError(t, err)

	assert.Equal(t, entities.TradeStatusPending, trade.Status)
	assert.InDelta(t, 1.0, trade.FairnessRatio, 1e-9)
	require.Len(t, trade.InitiatorOffer.Items, 1)
	assert.Equal(t, int64(50), trade.InitiatorOffer.Items[0].BasePrice)
	assert.Equal(t, entities.ContainerPersonal, trade.InitiatorOffer.Items[0].Container)
	assert.Equal(t, int64(60), trade.TargetOffer.TotalValue())

	// Nothing moves until the target accepts
	assert.Equal(t, 1, s.unitCount(s.sticker.ID))
	assert.Len(t, s.personalSlots(s.ana), 1)
	assert.Equal(t, int64(200), s.store.Account(s.ana.ID).Balance)

	require.NotEmpty(t, s.store.Published())
	_, ok := s.store.Published()[0].(events.TradeProposedEvent)
	assert.True(t, ok)
}

func TestTradeService_AcceptConservesItemsAndCurrency(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	trade, err := s.propose(s.fairProposal())
	require.NoError(t, err)
	currencyBefore := s.store.TotalCurrency()

	require.NoError(t, s.resolve(s.bia, func(svc interfaces.TradeService, actor entities.Actor, id int64) (*entities.Trade, error) {
		return svc.Accept(s.ctx, actor, id)
	}, trade.ID))

	assert.Equal(t, currencyBefore, s.store.TotalCurrency())
	assert.Equal(t, int64(190), s.store.Account(s.ana.ID).Balance)
	assert.Equal(t, int64(110), s.store.Account(s.bia.ID).Balance)
	assert.Equal(t, 1, s.unitCount(s.sticker.ID))
	assert.Equal(t, 1, s.unitCount(s.badge.ID))

	anaSlots := s.personalSlots(s.ana)
	require.Len(t, anaSlots, 1)
	assert.Equal(t, "Badge", anaSlots[0].Name)
	assert.Equal(t, entities.OriginTrade, anaSlots[0].Origin)
	biaSlots := s.personalSlots(s.bia)
	require.Len(t, biaSlots, 1)
	assert.Equal(t, "Sticker", biaSlots[0].Name)

	stored := s.store.Trade(trade.ID)
	assert.Equal(t, entities.TradeStatusCompleted, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)
}

func TestTradeService_AcceptAbortsWhenPledgedItemIsGone(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	trade, err := s.propose(s.fairProposal())
	require.NoError(t, err)

	// ana sells the pledged sticker before bia answers
	_, err = listItem(s.economyFixture, s.actor(s.ana), s.anaSticker.ID, 50)
	require.NoError(t, err)

	s.requireUnchangedOnError(entities.ErrItemNoLongerAvailable, func(uow interfaces.UnitOfWork) error {
		_, err := NewTradeService(uow, s.policy, s.clock).Accept(s.ctx, s.actor(s.bia), trade.ID)
		return err
	})
	assert.Equal(t, entities.TradeStatusPending, s.store.Trade(trade.ID).Status)
}

func TestTradeService_AcceptMatchesPledgedSlotByID(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	trade, err := s.propose(s.fairProposal())
	require.NoError(t, err)

	// The pledged slot disappears and an unrelated item whose catalog id
	// equals the old slot id takes its place in the backpack
	require.NoError(t, s.exec(func(uow interfaces.UnitOfWork) error {
		return uow.InventoryRepository().Delete(s.ctx, s.anaSticker.ID)
	}))
	crownID := s.anaSticker.ID
	s.store.AddSlot(&entities.InventorySlot{
		Owner:         entities.PersonalContainerRef(s.ana.ID),
		CatalogItemID: &crownID,
		Name:          "Golden Crown",
		Category:      entities.CategoryPermanent,
		Quantity:      1,
		AcquiredAt:    fixtureNow,
	})

	s.requireUnchangedOnError(entities.ErrItemNoLongerAvailable, func(uow interfaces.UnitOfWork) error {
		_, err := NewTradeService(uow, s.policy, s.clock).Accept(s.ctx, s.actor(s.bia), trade.ID)
		return err
	})
	for _, slot := range s.personalSlots(s.bia) {
		assert.NotEqual(t, "Golden Crown", slot.Name)
	}
}

func TestTradeService_AcceptRequiresRoomUnitStillAttributed(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	plant := s.catalogItem("Plant", 50, entities.CategoryDecoration)
	roomPlant := s.giveRoom(s.ana, plant)
	trade, err := s.propose(entities.ProposeTradeRequest{
		TargetAccountID: s.bia.ID,
		InitiatorOffer:  entities.OfferInput{Items: []entities.OfferItemRef{{InventoryID: roomPlant.ID}}},
		TargetOffer:     entities.OfferInput{Currency: 45},
	})
	require.NoError(t, err)

	// The same chest slot is now attributed to bia
	moved := s.roomSlots()[0]
	moved.AcquiredBy = &s.bia.ID
	s.store.PutSlot(moved)

	s.requireUnchangedOnError(entities.ErrItemNoLongerAvailable, func(uow interfaces.UnitOfWork) error {
		_, err := NewTradeService(uow, s.policy, s.clock).Accept(s.ctx, s.actor(s.bia), trade.ID)
		return err
	})
}

func TestTradeService_ProposeCountsRepeatedPledges(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	twice := entities.ProposeTradeRequest{
		TargetAccountID: s.bia.ID,
		InitiatorOffer: entities.OfferInput{Items: []entities.OfferItemRef{
			{InventoryID: s.anaSticker.ID},
			{InventoryID: s.anaSticker.ID},
		}},
		TargetOffer: entities.OfferInput{Currency: 100},
	}
	s.requireUnchangedOnError(entities.ErrInvalidInput, func(uow interfaces.UnitOfWork) error {
		_, err := NewTradeService(uow, s.policy, s.clock).Propose(s.ctx, s.actor(s.ana), twice)
		return err
	})

	// A stack of two can back two pledges
	pens := s.catalogItem("Pen", 50, entities.CategoryConsumable)
	stack := s.give(s.ana, pens, 2)
	twice.InitiatorOffer.Items = []entities.OfferItemRef{{InventoryID: stack.ID}, {InventoryID: stack.ID}}
	trade, err := s.propose(twice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), trade.InitiatorOffer.TotalValue())

	require.NoError(t, s.resolve(s.bia, func(svc interfaces.TradeService, actor entities.Actor, id int64) (*entities.Trade, error) {
		return svc.Accept(s.ctx, actor, id)
	}, trade.ID))
	assert.Equal(t, 2, s.unitCount(pens.ID))
	assert.Equal(t, int64(300), s.store.Account(s.ana.ID).Balance)
}

func TestTradeService_AcceptAbortsWhenPledgedCurrencyIsGone(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	req := s.fairProposal()
	req.InitiatorOffer.Currency = 15
	trade, err := s.propose(req)
	require.NoError(t, err)

	_, err = transfer(s.economyFixture, s.actor(s.ana), entities.TransferRequest{RecipientExternalID: "bia", Amount: 190})
	require.NoError(t, err)

	s.requireUnchangedOnError(entities.ErrInsufficientFunds, func(uow interfaces.UnitOfWork) error {
		_, err := NewTradeService(uow, s.policy, s.clock).Accept(s.ctx, s.actor(s.bia), trade.ID)
		return err
	})
}

func TestTradeService_HouseItemsStayInClassrooms(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	plant := s.catalogItem("Plant", 50, entities.CategoryDecoration)
	roomPlant := s.giveRoom(s.ana, plant)

	trade, err := s.propose(entities.ProposeTradeRequest{
		TargetAccountID: s.bia.ID,
		InitiatorOffer:  entities.OfferInput{Items: []entities.OfferItemRef{{InventoryID: roomPlant.ID}}},
		TargetOffer:     entities.OfferInput{Currency: 45},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ContainerRoom, trade.InitiatorOffer.Items[0].Container)

	require.NoError(t, s.resolve(s.bia, func(svc interfaces.TradeService, actor entities.Actor, id int64) (*entities.Trade, error) {
		return svc.Accept(s.ctx, actor, id)
	}, trade.ID))

	room := s.roomSlots()
	require.Len(t, room, 1)
	assert.True(t, room[0].IsAcquiredBy(s.bia.ID))
	assert.Equal(t, int64(245), s.store.Account(s.ana.ID).Balance)
	assert.Equal(t, int64(55), s.store.Account(s.bia.ID).Balance)
}

func TestTradeService_ProposalRejections(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	skill := s.catalogItem("Courier", 500, entities.CategoryRankSkill)
	skillSlot := s.give(s.ana, skill, 2)

	tests := []struct {
		name    string
		req     entities.ProposeTradeRequest
		wantErr error
	}{
		{
			name:    "trading with yourself",
			req:     entities.ProposeTradeRequest{TargetAccountID: s.ana.ID, InitiatorOffer: entities.OfferInput{Currency: 1}},
			wantErr: entities.ErrInvalidInput,
		},
		{
			name: "unbalanced offers",
			req: entities.ProposeTradeRequest{
				TargetAccountID: s.bia.ID,
				InitiatorOffer:  entities.OfferInput{Items: []entities.OfferItemRef{{InventoryID: s.anaSticker.ID}}},
				TargetOffer:     entities.OfferInput{Currency: 40, Items: []entities.OfferItemRef{{InventoryID: s.biaBadge.ID}}},
			},
			wantErr: entities.ErrUnfairTrade,
		},
		{
			name: "skills cannot be traded",
			req: entities.ProposeTradeRequest{
				TargetAccountID: s.bia.ID,
				InitiatorOffer:  entities.OfferInput{Items: []entities.OfferItemRef{{InventoryID: skillSlot.ID}}},
				TargetOffer:     entities.OfferInput{Currency: 100},
			},
			wantErr: entities.ErrItemNotTradeable,
		},
		{
			name: "item not held by the giver",
			req: entities.ProposeTradeRequest{
				TargetAccountID: s.bia.ID,
				InitiatorOffer:  entities.OfferInput{Items: []entities.OfferItemRef{{InventoryID: s.biaBadge.ID}}},
				TargetOffer:     entities.OfferInput{Currency: 60},
			},
			wantErr: entities.ErrItemNotFound,
		},
		{
			name: "pledging more currency than held",
			req: entities.ProposeTradeRequest{
				TargetAccountID: s.bia.ID,
				InitiatorOffer:  entities.OfferInput{Currency: 250},
				TargetOffer:     entities.OfferInput{Currency: 150, Items: []entities.OfferItemRef{{InventoryID: s.biaBadge.ID}}},
			},
			wantErr: entities.ErrInsufficientFunds,
		},
		{
			name:    "unknown partner",
			req:     entities.ProposeTradeRequest{TargetAccountID: 9999, InitiatorOffer: entities.OfferInput{Currency: 1}},
			wantErr: entities.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		s.requireUnchangedOnError(tt.wantErr, func(uow interfaces.UnitOfWork) error {
			_, err := NewTradeService(uow, s.policy, s.clock).Propose(s.ctx, s.actor(s.ana), tt.req)
			return err
		})
	}
}

func TestTradeService_OnlyThePartiesCanResolve(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	trade, err := s.propose(s.fairProposal())
	require.NoError(t, err)
	outsider := s.student("caio", 0)

	run := func(actor *entities.Account, fn func(svc interfaces.TradeService, actor entities.Actor) error) func(uow interfaces.UnitOfWork) error {
		return func(uow interfaces.UnitOfWork) error {
			return fn(NewTradeService(uow, s.policy, s.clock), s.actor(actor))
		}
	}
	acceptTrade := func(svc interfaces.TradeService, actor entities.Actor) error {
		_, err := svc.Accept(s.ctx, actor, trade.ID)
		return err
	}
	cancelTrade := func(svc interfaces.TradeService, actor entities.Actor) error {
		_, err := svc.Cancel(s.ctx, actor, trade.ID)
		return err
	}
	rejectTrade := func(svc interfaces.TradeService, actor entities.Actor) error {
		_, err := svc.Reject(s.ctx, actor, trade.ID)
		return err
	}

	s.requireUnchangedOnError(entities.ErrNotTradeParty, run(s.ana, acceptTrade))
	s.requireUnchangedOnError(entities.ErrNotTradeParty, run(s.bia, cancelTrade))
	s.requireUnchangedOnError(entities.ErrNotTradeParty, run(s.ana, rejectTrade))
	s.requireUnchangedOnError(entities.ErrNotTradeParty, run(outsider, acceptTrade))

	require.NoError(t, s.exec(run(s.bia, rejectTrade)))
	assert.Equal(t, entities.TradeStatusRejected, s.store.Trade(trade.ID).Status)
	assert.Len(t, s.personalSlots(s.ana), 1, "rejection moves nothing")

	s.requireUnchangedOnError(entities.ErrTradeNotPending, run(s.bia, acceptTrade))
	s.requireUnchangedOnError(entities.ErrTradeNotPending, run(s.ana, cancelTrade))
}

func TestTradeService_CancelByInitiator(t *testing.T) {
	t.Parallel()
	s := newTradeScenario(t)

	trade, err := s.propose(s.fairProposal())
	require.NoError(t, err)

	require.NoError(t, s.resolve(s.ana, func(svc interfaces.TradeService, actor entities.Actor, id int64) (*entities.Trade, error) {
		return svc.Cancel(s.ctx, actor, id)
	}, trade.ID))
	assert.Equal(t, entities.TradeStatusCancelled, s.store.Trade(trade.ID).Status)

	var resolved []events.TradeResolvedEvent
	for _, e := range s.store.Published() {
		if ev, ok := e.(events.TradeResolvedEvent); ok {
			resolved = append(resolved, ev)
		}
	}
	require.Len(t, resolved, 1)
	assert.Equal(t, entities.TradeStatusCancelled, resolved[0].Status)
}
