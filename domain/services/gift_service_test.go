package services

import (
	"testing"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimGift(f *economyFixture, actor entities.Actor, giftID int64) (*entities.GiftClaimResult, error) {
	var result *entities.GiftClaimResult
	err := f.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewGiftService(uow, f.clock).Claim(f.ctx, actor, giftID)
		return err
	})
	return result, err
}

func TestGiftService_ClaimCurrencyAndItem(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	recipient := f.student("ana", 10)
	medal := f.catalogItem("Medal", 0, entities.CategoryPermanent)
	staleExpiry := fixtureNow.Add(-24 * time.Hour)
	gift := f.store.AddGift(&entities.Gift{
		RecipientID: recipient.ID,
		Amount:      50,
		Item: &entities.ItemSnapshot{
			CatalogItemID: &medal.ID,
			Name:          "Medal",
			Category:      entities.CategoryPermanent,
			ExpiresAt:     &staleExpiry,
		},
		Status: entities.GiftStatusPending,
	})

	result, err := claimGift(f, f.actor(recipient), gift.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(60), result.NewBalance)
	assert.Equal(t, int64(60), f.store.Account(recipient.ID).MaxBalance)
	require.NotNil(t, result.Slot)

	slots := f.personalSlots(recipient)
	require.Len(t, slots, 1)
	assert.Equal(t, "Medal", slots[0].Name)
	assert.Equal(t, entities.OriginGift, slots[0].Origin)
	assert.Nil(t, slots[0].ExpiresAt, "expiry is recomputed on claim")

	stored := f.store.Gift(gift.ID)
	assert.Equal(t, entities.GiftStatusClaimed, stored.Status)
	assert.Equal(t, fixtureNow, *stored.ClaimedAt)

	f.requireUnchangedOnError(entities.ErrGiftAlreadyClaimed, func(uow interfaces.UnitOfWork) error {
		_, err := NewGiftService(uow, f.clock).Claim(f.ctx, f.actor(recipient), gift.ID)
		return err
	})
}

func TestGiftService_HouseGiftGoesToClassroom(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	recipient := f.student("ana", 0)
	gift := f.store.AddGift(&entities.Gift{
		RecipientID: recipient.ID,
		Item:        &entities.ItemSnapshot{Name: "Bean bag", Category: entities.CategoryDecoration},
		IsHouse:     true,
		Status:      entities.GiftStatusPending,
	})

	_, err := claimGift(f, f.actor(recipient), gift.ID)
	require.NoError(t, err)

	room := f.roomSlots()
	require.Len(t, room, 1)
	assert.True(t, room[0].IsAcquiredBy(recipient.ID))
	require.NotNil(t, room[0].ExpiresAt)
	assert.Equal(t, fixtureNow.Add(entities.DefaultHouseValidity), *room[0].ExpiresAt)
	assert.Equal(t, int64(0), f.store.Account(recipient.ID).Balance)
}

func TestGiftService_ClaimRejections(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	recipient := f.student("ana", 0)
	other := f.student("bia", 0)
	expiredAt := fixtureNow.Add(-time.Minute)
	expired := f.store.AddGift(&entities.Gift{RecipientID: recipient.ID, Amount: 5, Status: entities.GiftStatusPending, ExpiresAt: &expiredAt})
	pending := f.store.AddGift(&entities.Gift{RecipientID: recipient.ID, Amount: 5, Status: entities.GiftStatusPending})

	claim := func(actor entities.Actor, id int64) func(uow interfaces.UnitOfWork) error {
		return func(uow interfaces.UnitOfWork) error {
			_, err := NewGiftService(uow, f.clock).Claim(f.ctx, actor, id)
			return err
		}
	}

	f.requireUnchangedOnError(entities.ErrGiftExpired, claim(f.actor(recipient), expired.ID))
	f.requireUnchangedOnError(entities.ErrGiftNotFound, claim(f.actor(other), pending.ID))
	f.requireUnchangedOnError(entities.ErrGiftNotFound, claim(f.actor(recipient), 777))
}
