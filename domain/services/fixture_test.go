package services

import (
	"context"
	"testing"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/testhelpers"
	"pcbank/domain/utils"

	"github.com/stretchr/testify/require"
)

var fixtureNow = time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

// economyFixture seeds a MemoryStore with one classroom and runs service
// calls inside units of work the way the application layer does
type economyFixture struct {
	t      *testing.T
	ctx    context.Context
	store  *testhelpers.MemoryStore
	clock  *utils.FixedClock
	policy entities.EconomyPolicy
	room   *entities.Classroom
}

func newEconomyFixture(t *testing.T) *economyFixture {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	return &economyFixture{
		t:      t,
		ctx:    context.Background(),
		store:  store,
		clock:  &utils.FixedClock{T: fixtureNow},
		policy: entities.DefaultEconomyPolicy(),
		room:   store.AddClassroom(&entities.Classroom{Name: "3º A"}),
	}
}

// student seeds a student of the fixture classroom
func (f *economyFixture) student(name string, balance int64) *entities.Account {
	return f.store.AddAccount(&entities.Account{
		ExternalID:  name,
		DisplayName: name,
		Balance:     balance,
		MaxBalance:  balance,
		Role:        entities.RoleStudent,
		Turma:       "3A",
	})
}

func (f *economyFixture) actor(a *entities.Account) entities.Actor {
	return entities.Actor{
		AccountID:     a.ID,
		Role:          a.Role,
		Turma:         a.Turma,
		Cargos:        a.Cargos,
		OriginAddress: "10.0.0.1",
	}
}

func (f *economyFixture) catalogItem(name string, price int64, category entities.SlotCategory) *entities.CatalogItem {
	return f.store.AddCatalogItem(&entities.CatalogItem{
		Name:     name,
		Price:    price,
		Stock:    100,
		Active:   true,
		Category: category,
		Rarity:   entities.RarityCommon,
	})
}

// give seeds quantity units of a catalog item into an account's backpack
func (f *economyFixture) give(a *entities.Account, item *entities.CatalogItem, quantity int) *entities.InventorySlot {
	itemID := item.ID
	slot := &entities.InventorySlot{
		Owner:         entities.PersonalContainerRef(a.ID),
		CatalogItemID: &itemID,
		Name:          item.Name,
		Rarity:        item.Rarity,
		Category:      item.Category,
		Effect:        item.Effect,
		Origin:        entities.OriginPurchase,
		AcquiredAt:    fixtureNow.Add(-time.Hour),
	}
	if item.Category.UsesCharges() {
		slot.UsesRemaining = quantity
	} else {
		slot.Quantity = quantity
	}
	return f.store.AddSlot(slot)
}

// giveRoom seeds a house unit into the fixture classroom attributed to a
func (f *economyFixture) giveRoom(a *entities.Account, item *entities.CatalogItem) *entities.InventorySlot {
	itemID := item.ID
	acquirer := a.ID
	expiry := fixtureNow.Add(entities.DefaultHouseValidity)
	return f.store.AddSlot(&entities.InventorySlot{
		Owner:         entities.RoomContainerRef(f.room.ID),
		CatalogItemID: &itemID,
		Name:          item.Name,
		Rarity:        item.Rarity,
		Category:      item.Category,
		Effect:        item.Effect,
		Quantity:      1,
		Origin:        entities.OriginPurchase,
		AcquiredAt:    fixtureNow.Add(-time.Hour),
		ExpiresAt:     &expiry,
		AcquiredBy:    &acquirer,
	})
}

// exec runs fn in one unit of work, committing on success
func (f *economyFixture) exec(fn func(uow interfaces.UnitOfWork) error) error {
	f.t.Helper()
	uow := f.store.Create()
	require.NoError(f.t, uow.Begin(f.ctx))
	defer uow.Rollback()
	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

func (f *economyFixture) personalSlots(a *entities.Account) []*entities.InventorySlot {
	return f.store.SlotsOf(entities.PersonalContainerRef(a.ID))
}

func (f *economyFixture) roomSlots() []*entities.InventorySlot {
	return f.store.SlotsOf(entities.RoomContainerRef(f.room.ID))
}

// unitCount sums the units of every slot in the store whose catalog item is itemID
func (f *economyFixture) unitCount(itemID int64) int {
	total := 0
	for _, slot := range f.store.Snapshot().Slots {
		if slot.CatalogItemID != nil && *slot.CatalogItemID == itemID {
			total += slot.Count()
		}
	}
	return total
}

// requireUnchangedOnError asserts that a failing call leaves committed state untouched
func (f *economyFixture) requireUnchangedOnError(target error, fn func(uow interfaces.UnitOfWork) error) {
	f.t.Helper()
	before := f.store.Snapshot()
	err := f.exec(fn)
	require.ErrorIs(f.t, err, target)
	require.Equal(f.t, before, f.store.Snapshot())
}
