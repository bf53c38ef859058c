package services

import (
	"math/rand/v2"
	"testing"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightedPrizes(weights ...float64) []entities.RoulettePrize {
	prizes := make([]entities.RoulettePrize, len(weights))
	for i, w := range weights {
		prizes[i] = entities.RoulettePrize{
			ID:     int64(i + 1),
			Name:   string(rune('A' + i)),
			Type:   entities.PrizeTypeCurrency,
			Value:  int64(10 * (i + 1)),
			Weight: w,
			Rarity: entities.RarityCommon,
		}
	}
	return prizes
}

// TestDrawPrize_Frequencies checks that observed frequencies track w_i / Σw
func TestDrawPrize_Frequencies(t *testing.T) {
	t.Parallel()

	prizes := weightedPrizes(10, 20, 30, 40)
	rng := rand.New(rand.NewPCG(2025, 3))
	const draws = 100_000

	counts := make(map[int64]int)
	for range draws {
		counts[DrawPrize(prizes, rng).ID]++
	}

	for _, p := range prizes {
		observed := float64(counts[p.ID]) / draws
		expected := p.Weight / 100
		assert.InDelta(t, expected, observed, 0.01, "prize %s drawn %.4f of the time", p.Name, observed)
	}
}

func TestDrawPrize_Boundaries(t *testing.T) {
	t.Parallel()

	prizes := weightedPrizes(10, 20, 30, 40)
	tests := []struct {
		name string
		draw float64
		want int64
	}{
		{"zero lands in first bucket", 0, 1},
		{"bucket edge moves to next prize", 0.10, 2},
		{"just below third edge", 0.5999, 3},
		{"top of range", 0.999999, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DrawPrize(prizes, &testhelpers.SequenceRandom{Values: []float64{tt.draw}})
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestBestRoll(t *testing.T) {
	t.Parallel()

	common := entities.RoulettePrize{ID: 1, Rarity: entities.RarityCommon, Value: 10}
	epic := entities.RoulettePrize{ID: 2, Rarity: entities.RarityEpic, Value: 0}
	sameWeight := entities.RoulettePrize{ID: 3, Rarity: entities.RarityCommon, Value: 10}
	legendary := entities.RoulettePrize{ID: 4, Rarity: entities.RarityLegendary, Value: 50}

	assert.Equal(t, int64(1), BestRoll([]entities.RoulettePrize{common}).ID)
	assert.Equal(t, int64(1), BestRoll([]entities.RoulettePrize{common, epic}).ID, "value outweighs a small rarity gap")
	assert.Equal(t, int64(1), BestRoll([]entities.RoulettePrize{common, sameWeight}).ID, "earlier roll wins ties")
	assert.Equal(t, int64(4), BestRoll([]entities.RoulettePrize{common, legendary}).ID)
	assert.Equal(t, int64(4), BestRoll([]entities.RoulettePrize{legendary, common}).ID)
}

// TestBestRoll_NeverWorseThanEitherRoll checks best-of-two over every pair of a table
func TestBestRoll_NeverWorseThanEitherRoll(t *testing.T) {
	t.Parallel()

	prizes := weightedPrizes(10, 20, 30, 40)
	prizes[0].Rarity = entities.RarityMythic
	prizes[2].Rarity = entities.RarityEpic

	for _, a := range prizes {
		for _, b := range prizes {
			best := BestRoll([]entities.RoulettePrize{a, b})
			assert.GreaterOrEqual(t, best.TieBreakWeight(), a.TieBreakWeight())
			assert.GreaterOrEqual(t, best.TieBreakWeight(), b.TieBreakWeight())
		}
	}
}

// TestLuck_ShiftsDistributionUpward compares the mean tie-break weight of single
// rolls against best-of-two rolls
func TestLuck_ShiftsDistributionUpward(t *testing.T) {
	t.Parallel()

	prizes := weightedPrizes(40, 30, 20, 10)
	rng := rand.New(rand.NewPCG(11, 13))
	const draws = 20_000

	var single, lucky float64
	for range draws {
		single += float64(DrawPrize(prizes, rng).TieBreakWeight())
		lucky += float64(BestRoll([]entities.RoulettePrize{DrawPrize(prizes, rng), DrawPrize(prizes, rng)}).TieBreakWeight())
	}
	assert.Greater(t, lucky/draws, single/draws)
}

func spinRoulette(f *economyFixture, rng interfaces.RandomSource, actor entities.Actor, req entities.SpinRequest) (*entities.SpinResult, error) {
	var result *entities.SpinResult
	err := f.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewRouletteService(uow, rng, f.clock).Spin(f.ctx, actor, req)
		return err
	})
	return result, err
}

func TestRouletteService_CurrencySpin(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	player := f.student("ana", 100)
	wheel := f.store.AddRoulette(&entities.Roulette{
		Name:   "Daily",
		Cost:   30,
		Active: true,
		Prizes: []entities.RoulettePrize{{Name: "50 PC$", Type: entities.PrizeTypeCurrency, Value: 50, Weight: 1}},
	})

	result, err := spinRoulette(f, &testhelpers.SequenceRandom{Values: []float64{0.5}}, f.actor(player),
		entities.SpinRequest{RouletteID: wheel.ID, Payment: entities.PaymentCurrency})
	require.NoError(t, err)

	assert.Equal(t, int64(120), result.NewBalance)
	assert.False(t, result.LuckUsed)
	assert.Len(t, result.Rolls, 1)
	assert.Equal(t, int64(120), f.store.Account(player.ID).Balance)
	assert.Equal(t, int64(120), f.store.Account(player.ID).MaxBalance)
	assert.Len(t, f.store.Snapshot().Ledger, 2)
}

func TestRouletteService_LuckRollsTwiceAndKeepsBest(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	player := f.student("bia", 100)
	clover := f.catalogItem("Clover", 20, entities.CategoryConsumable)
	clover.Effect = entities.EffectRouletteLuck
	f.give(player, clover, 1)

	wheel := f.store.AddRoulette(&entities.Roulette{
		Name:   "Lucky",
		Cost:   10,
		Active: true,
		Prizes: []entities.RoulettePrize{
			{Name: "small", Type: entities.PrizeTypeCurrency, Value: 1, Weight: 1, Rarity: entities.RarityCommon},
			{Name: "big", Type: entities.PrizeTypeCurrency, Value: 100, Weight: 1, Rarity: entities.RarityLegendary},
		},
	})

	result, err := spinRoulette(f, &testhelpers.SequenceRandom{Values: []float64{0.1, 0.9}}, f.actor(player),
		entities.SpinRequest{RouletteID: wheel.ID, Payment: entities.PaymentCurrency, UseLuck: true})
	require.NoError(t, err)

	assert.True(t, result.LuckUsed)
	require.Len(t, result.Rolls, 2)
	assert.Equal(t, "small", result.Rolls[0].Name)
	assert.Equal(t, "big", result.Prize.Name)
	assert.Equal(t, int64(190), result.NewBalance)

	for _, slot := range f.personalSlots(player) {
		assert.NotEqual(t, entities.EffectRouletteLuck, slot.Effect, "luck charm must be consumed")
	}
}

func TestRouletteService_LuckWithoutCharmRollsOnce(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	player := f.student("caio", 50)
	wheel := f.store.AddRoulette(&entities.Roulette{
		Name:   "Plain",
		Cost:   10,
		Active: true,
		Prizes: []entities.RoulettePrize{{Name: "5 PC$", Type: entities.PrizeTypeCurrency, Value: 5, Weight: 1}},
	})

	result, err := spinRoulette(f, &testhelpers.SequenceRandom{Values: []float64{0.3}}, f.actor(player),
		entities.SpinRequest{RouletteID: wheel.ID, Payment: entities.PaymentCurrency, UseLuck: true})
	require.NoError(t, err)
	assert.False(t, result.LuckUsed)
	assert.Len(t, result.Rolls, 1)
}

func TestRouletteService_SkillPayment(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	player := f.student("duda", 0)
	spinSkill := f.catalogItem("Free Spin", 0, entities.CategoryRankSkill)
	skill := &entities.InventorySlot{
		Owner:         entities.PersonalContainerRef(player.ID),
		CatalogItemID: &spinSkill.ID,
		Name:          "Free Spin",
		Category:      entities.CategoryRankSkill,
		Effect:        entities.EffectFreeSpin,
		UsesRemaining: 2,
		AcquiredAt:    fixtureNow,
	}
	f.store.AddSlot(skill)
	wheel := f.store.AddRoulette(&entities.Roulette{
		Name:   "Weekly",
		Cost:   500,
		Active: true,
		Prizes: []entities.RoulettePrize{{Name: "7 PC$", Type: entities.PrizeTypeCurrency, Value: 7, Weight: 1}},
	})

	result, err := spinRoulette(f, &testhelpers.SequenceRandom{Values: []float64{0}}, f.actor(player),
		entities.SpinRequest{RouletteID: wheel.ID, Payment: entities.PaymentSkill})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.NewBalance)

	slots := f.personalSlots(player)
	require.Len(t, slots, 1)
	assert.Equal(t, 1, slots[0].UsesRemaining)
}

func TestRouletteService_HouseItemPrizeGoesToClassroom(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	player := f.student("eva", 40)
	poster := f.store.AddCatalogItem(&entities.CatalogItem{
		Name:     "Poster",
		Price:    80,
		Active:   true,
		IsHouse:  true,
		Category: entities.CategoryDecoration,
		Rarity:   entities.RarityRare,
	})
	wheel := f.store.AddRoulette(&entities.Roulette{
		Name:   "Decor",
		Cost:   40,
		Active: true,
		Prizes: []entities.RoulettePrize{{Name: "Poster", Type: entities.PrizeTypeItem, CatalogItemID: &poster.ID, Weight: 1}},
	})

	result, err := spinRoulette(f, &testhelpers.SequenceRandom{Values: []float64{0.2}}, f.actor(player),
		entities.SpinRequest{RouletteID: wheel.ID, Payment: entities.PaymentCurrency})
	require.NoError(t, err)
	require.NotNil(t, result.Slot)

	room := f.roomSlots()
	require.Len(t, room, 1)
	assert.True(t, room[0].IsAcquiredBy(player.ID))
	require.NotNil(t, room[0].ExpiresAt, "house payouts always expire")
	assert.Equal(t, fixtureNow.Add(entities.DefaultHouseValidity), *room[0].ExpiresAt)
	assert.Empty(t, f.personalSlots(player))
	assert.Equal(t, int64(0), f.store.Account(player.ID).Balance)
}

func TestRouletteService_FailuresLeaveStateUnchanged(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	player := f.student("fabi", 5)
	closed := f.store.AddRoulette(&entities.Roulette{
		Name:   "Closed",
		Cost:   1,
		Prizes: []entities.RoulettePrize{{Name: "1 PC$", Type: entities.PrizeTypeCurrency, Value: 1, Weight: 1}},
	})
	pricey := f.store.AddRoulette(&entities.Roulette{
		Name:   "Pricey",
		Cost:   50,
		Active: true,
		Prizes: []entities.RoulettePrize{{Name: "1 PC$", Type: entities.PrizeTypeCurrency, Value: 1, Weight: 1}},
	})
	rng := &testhelpers.SequenceRandom{Values: []float64{0.5}}

	tests := []struct {
		name    string
		req     entities.SpinRequest
		wantErr error
	}{
		{"inactive roulette", entities.SpinRequest{RouletteID: closed.ID, Payment: entities.PaymentCurrency}, entities.ErrRouletteInactive},
		{"unknown roulette", entities.SpinRequest{RouletteID: 9999, Payment: entities.PaymentCurrency}, entities.ErrRouletteNotFound},
		{"cannot afford entry", entities.SpinRequest{RouletteID: pricey.ID, Payment: entities.PaymentCurrency}, entities.ErrInsufficientFunds},
		{"no free spin skill", entities.SpinRequest{RouletteID: pricey.ID, Payment: entities.PaymentSkill}, entities.ErrItemNotFound},
	}
	for _, tt := range tests {
		f.requireUnchangedOnError(tt.wantErr, func(uow interfaces.UnitOfWork) error {
			_, err := NewRouletteService(uow, rng, f.clock).Spin(f.ctx, f.actor(player), tt.req)
			return err
		})
	}
}
