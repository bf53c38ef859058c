package services

import (
	"testing"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchase(f *economyFixture, actor entities.Actor, itemID int64) (*entities.PurchaseResult, error) {
	var result *entities.PurchaseResult
	err := f.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewStoreService(uow, f.clock).Purchase(f.ctx, actor, itemID)
		return err
	})
	return result, err
}

func TestStoreService_PurchaseIntoBackpack(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	buyer := f.student("ana", 100)
	pen := f.store.AddCatalogItem(&entities.CatalogItem{
		Name:     "Gel pen",
		Price:    40,
		Stock:    5,
		Active:   true,
		Category: entities.CategoryConsumable,
	})

	result, err := purchase(f, f.actor(buyer), pen.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(60), result.NewBalance)
	assert.Equal(t, entities.ContainerPersonal, result.Container)
	assert.Equal(t, 4, f.store.CatalogItem(pen.ID).Stock)

	slots := f.personalSlots(buyer)
	require.Len(t, slots, 1)
	assert.Equal(t, "Gel pen", slots[0].Name)
	assert.Equal(t, entities.OriginPurchase, slots[0].Origin)
	assert.Nil(t, slots[0].ExpiresAt)
	assert.Nil(t, slots[0].AcquiredBy)
}

func TestStoreService_HousePurchaseIntoClassroom(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	buyer := f.student("ana", 100)
	rug := f.store.AddCatalogItem(&entities.CatalogItem{
		Name:         "Rug",
		Price:        70,
		Stock:        1,
		Active:       true,
		IsHouse:      true,
		ValidityDays: 7,
		Category:     entities.CategoryDecoration,
	})

	result, err := purchase(f, f.actor(buyer), rug.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ContainerRoom, result.Container)

	room := f.roomSlots()
	require.Len(t, room, 1)
	assert.True(t, room[0].IsAcquiredBy(buyer.ID))
	require.NotNil(t, room[0].ExpiresAt)
	assert.Equal(t, fixtureNow.AddDate(0, 0, 7), *room[0].ExpiresAt)
	assert.Empty(t, f.personalSlots(buyer))
}

func TestStoreService_PurchaseRejections(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	buyer := f.student("ana", 30)
	stranger := f.store.AddAccount(&entities.Account{ExternalID: "zed", Balance: 500, Role: entities.RoleStudent, Turma: "9Z"})
	retired := f.store.AddCatalogItem(&entities.CatalogItem{Name: "Retired", Price: 1, Stock: 10})
	soldOut := f.store.AddCatalogItem(&entities.CatalogItem{Name: "Sold out", Price: 1, Stock: 0, Active: true})
	pricey := f.store.AddCatalogItem(&entities.CatalogItem{Name: "Pricey", Price: 31, Stock: 10, Active: true})
	house := f.store.AddCatalogItem(&entities.CatalogItem{Name: "Shelf", Price: 10, Stock: 10, Active: true, IsHouse: true})

	tests := []struct {
		name    string
		actor   entities.Actor
		itemID  int64
		wantErr error
	}{
		{"inactive item", f.actor(buyer), retired.ID, entities.ErrItemInactive},
		{"out of stock", f.actor(buyer), soldOut.ID, entities.ErrOutOfStock},
		{"unknown item", f.actor(buyer), 4040, entities.ErrItemNotFound},
		{"cannot afford", f.actor(buyer), pricey.ID, entities.ErrInsufficientFunds},
		{"house item without classroom", f.actor(stranger), house.ID, entities.ErrClassroomNotFound},
	}
	for _, tt := range tests {
		f.requireUnchangedOnError(tt.wantErr, func(uow interfaces.UnitOfWork) error {
			_, err := NewStoreService(uow, f.clock).Purchase(f.ctx, tt.actor, tt.itemID)
			return err
		})
	}
}

type collectiveScenario struct {
	*economyFixture
	rep, ana, bia         *entities.Account
	prof, exempt, blocked *entities.Account
	poster, marker        *entities.CatalogItem
}

func newCollectiveScenario(t *testing.T) *collectiveScenario {
	f := newEconomyFixture(t)
	member := func(name string, balance int64, role entities.Role, cargos []string, blocked bool) *entities.Account {
		return f.store.AddAccount(&entities.Account{
			ExternalID:  name,
			DisplayName: name,
			Balance:     balance,
			Role:        role,
			Turma:       "3A",
			Cargos:      cargos,
			Blocked:     blocked,
		})
	}
	return &collectiveScenario{
		economyFixture: f,
		rep:            member("rep", 100, entities.RoleStudent, []string{entities.CargoRepresentative}, false),
		ana:            member("ana", 100, entities.RoleStudent, nil, false),
		bia:            member("bia", 100, entities.RoleMonitor, nil, false),
		prof:           member("prof", 100, entities.RoleStaff, nil, false),
		exempt:         member("exempt", 100, entities.RoleStudent, []string{entities.CargoCollectiveExempt}, false),
		blocked:        member("blocked", 100, entities.RoleStudent, nil, true),
		poster:         f.store.AddCatalogItem(&entities.CatalogItem{Name: "Poster", Price: 50, Stock: 3, Active: true, IsHouse: true, Category: entities.CategoryDecoration}),
		marker:         f.store.AddCatalogItem(&entities.CatalogItem{Name: "Marker", Price: 25, Stock: 3, Active: true, IsHouse: true, Category: entities.CategoryConsumable}),
	}
}

func TestStoreService_CollectivePurchaseSplitsCost(t *testing.T) {
	t.Parallel()
	s := newCollectiveScenario(t)

	var result *entities.CollectivePurchaseResult
	require.NoError(t, s.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewStoreService(uow, s.clock).CollectivePurchase(s.ctx, s.actor(s.rep), []entities.CartLine{
			{ItemID: s.poster.ID, Quantity: 1},
			{ItemID: s.marker.ID, Quantity: 1},
			{ItemID: s.poster.ID, Quantity: 1},
		})
		return err
	}))

	assert.Equal(t, int64(125), result.TotalCost)
	assert.Equal(t, int64(42), result.CostPerMember, "ceil(125 / 3)")
	assert.Equal(t, 3, result.MembersCharged)
	assert.Equal(t, s.room.ID, result.ClassroomID)

	for _, payer := range []*entities.Account{s.rep, s.ana, s.bia} {
		assert.Equal(t, int64(58), s.store.Account(payer.ID).Balance, payer.DisplayName)
	}
	for _, skipped := range []*entities.Account{s.prof, s.exempt, s.blocked} {
		assert.Equal(t, int64(100), s.store.Account(skipped.ID).Balance, skipped.DisplayName)
	}

	room := s.roomSlots()
	require.Len(t, room, 3)
	for _, slot := range room {
		assert.True(t, slot.IsAcquiredBy(s.rep.ID))
		assert.Equal(t, entities.OriginCollective, slot.Origin)
		assert.NotNil(t, slot.ExpiresAt)
	}
	assert.Equal(t, 1, s.store.CatalogItem(s.poster.ID).Stock)
	assert.Equal(t, 2, s.store.CatalogItem(s.marker.ID).Stock)
}

func TestStoreService_CollectivePurchaseChargesEverySpellingOfTheGroup(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	rep := f.store.AddAccount(&entities.Account{ExternalID: "rep", DisplayName: "rep", Balance: 100, Role: entities.RoleStudent, Turma: "3A", Cargos: []string{entities.CargoRepresentative}})
	mate := f.store.AddAccount(&entities.Account{ExternalID: "mate", DisplayName: "mate", Balance: 100, Role: entities.RoleStudent, Turma: "3º A"})
	other := f.store.AddAccount(&entities.Account{ExternalID: "other", DisplayName: "other", Balance: 100, Role: entities.RoleStudent, Turma: "3B"})
	globe := f.store.AddCatalogItem(&entities.CatalogItem{Name: "Globe", Price: 100, Stock: 1, Active: true, IsHouse: true, Category: entities.CategoryDecoration})

	var result *entities.CollectivePurchaseResult
	require.NoError(t, f.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewStoreService(uow, f.clock).CollectivePurchase(f.ctx, f.actor(rep), []entities.CartLine{{ItemID: globe.ID, Quantity: 1}})
		return err
	}))

	assert.Equal(t, 2, result.MembersCharged)
	assert.Equal(t, int64(50), result.CostPerMember)
	assert.Equal(t, int64(50), f.store.Account(rep.ID).Balance)
	assert.Equal(t, int64(50), f.store.Account(mate.ID).Balance)
	assert.Equal(t, int64(100), f.store.Account(other.ID).Balance)
}

func TestStoreService_CollectivePurchaseRejections(t *testing.T) {
	t.Parallel()
	s := newCollectiveScenario(t)

	collective := func(actor entities.Actor, cart ...entities.CartLine) func(uow interfaces.UnitOfWork) error {
		return func(uow interfaces.UnitOfWork) error {
			_, err := NewStoreService(uow, s.clock).CollectivePurchase(s.ctx, actor, cart)
			return err
		}
	}

	s.requireUnchangedOnError(entities.ErrForbidden, collective(s.actor(s.ana), entities.CartLine{ItemID: s.marker.ID, Quantity: 1}))
	s.requireUnchangedOnError(entities.ErrOutOfStock, collective(s.actor(s.rep), entities.CartLine{ItemID: s.poster.ID, Quantity: 4}))

	// One payer short of their share aborts everyone's debit
	require.NoError(t, s.exec(func(uow interfaces.UnitOfWork) error {
		return uow.AccountRepository().UpdateBalance(s.ctx, s.bia.ID, 10, 100)
	}))
	s.requireUnchangedOnError(entities.ErrInsufficientFunds, collective(s.actor(s.rep), entities.CartLine{ItemID: s.poster.ID, Quantity: 1}))

	lonely := s.store.AddClassroom(&entities.Classroom{Name: "7B"})
	admin := s.store.AddAccount(&entities.Account{ExternalID: "root", Role: entities.RoleAdmin, Turma: "7B"})
	s.requireUnchangedOnError(entities.ErrNoEligibleMembers, collective(
		entities.Actor{AccountID: admin.ID, Role: entities.RoleAdmin, Turma: "7B"},
		entities.CartLine{ItemID: s.marker.ID, Quantity: 1}))
	assert.Empty(t, s.store.SlotsOf(entities.RoomContainerRef(lonely.ID)))
}
