package services

import (
	"context"
	"fmt"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"

	log "github.com/sirupsen/logrus"
)

type rouletteService struct {
	accountRepo  interfaces.AccountRepository
	rouletteRepo interfaces.RouletteRepository
	catalogRepo  interfaces.CatalogRepository
	ledger       interfaces.LedgerService
	delivery     itemDelivery
	audit        interfaces.AuditRecorder
	rng          interfaces.RandomSource
	clock        interfaces.Clock
}

// NewRouletteService creates the roulette flow for one unit of work
func NewRouletteService(uow interfaces.UnitOfWork, rng interfaces.RandomSource, clock interfaces.Clock) interfaces.RouletteService {
	return &rouletteService{
		accountRepo:  uow.AccountRepository(),
		rouletteRepo: uow.RouletteRepository(),
		catalogRepo:  uow.CatalogRepository(),
		ledger:       NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus()),
		delivery:     newItemDelivery(uow, clock),
		audit:        uow.AuditLog(),
		rng:          rng,
		clock:        clock,
	}
}

// Spin charges the entry, draws one or two prizes and pays out the best one
func (s *rouletteService) Spin(ctx context.Context, actor entities.Actor, req entities.SpinRequest) (*entities.SpinResult, error) {
	now := s.clock.Now()

	roulette, err := s.rouletteRepo.GetWithPrizes(ctx, req.RouletteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roulette: %w", err)
	}
	if roulette == nil {
		return nil, entities.ErrRouletteNotFound
	}
	if !roulette.IsOpen(now) {
		return nil, entities.Detailed(entities.ErrRouletteInactive, "%s is not open right now", roulette.Name)
	}
	prizes := roulette.AvailablePrizes(now)
	if len(prizes) == 0 {
		return nil, entities.Detailed(entities.ErrRouletteEmpty, "%s has no prizes available", roulette.Name)
	}

	account, err := s.accountRepo.GetByIDForUpdate(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	personal := s.delivery.personal(account.ID)
	if err := s.pay(ctx, account, personal, roulette, req); err != nil {
		return nil, err
	}

	rolls := 1
	luckUsed := false
	if req.UseLuck {
		luck, err := findSource(ctx, personal, entities.SourceAuto, entities.EffectRouletteLuck)
		if err != nil {
			return nil, err
		}
		if luck != nil {
			if err := personal.ConsumeOne(ctx, luck); err != nil {
				return nil, err
			}
			rolls = 2
			luckUsed = true
		}
	}

	drawn := make([]entities.RoulettePrize, 0, rolls)
	for range rolls {
		drawn = append(drawn, DrawPrize(prizes, s.rng))
	}
	prize := BestRoll(drawn)

	result := &entities.SpinResult{Prize: prize, Rolls: drawn, LuckUsed: luckUsed}
	switch prize.Type {
	case entities.PrizeTypeCurrency:
		if err := s.ledger.Credit(ctx, account, prize.Value, entities.TransactionTypeRoulettePrize, map[string]any{
			"roulette_id": roulette.ID,
			"prize_id":    prize.ID,
		}); err != nil {
			return nil, err
		}
		if err := s.ledger.RecordIfPeak(ctx, account); err != nil {
			return nil, err
		}
	case entities.PrizeTypeItem:
		slot, err := s.payoutItem(ctx, account, prize)
		if err != nil {
			return nil, err
		}
		result.Slot = slot
	default:
		return nil, fmt.Errorf("unknown prize type %q on prize %d", prize.Type, prize.ID)
	}
	result.NewBalance = account.Balance

	utils.RecordAudit(s.audit, actor, nil, entities.AuditRouletteSpin,
		"spun %s (%d rolls) and won %s", roulette.Name, rolls, prize.Name)

	log.WithFields(log.Fields{
		"accountID":  account.ID,
		"rouletteID": roulette.ID,
		"prizeID":    prize.ID,
		"rolls":      rolls,
	}).Info("Roulette spin completed")

	return result, nil
}

func (s *rouletteService) pay(ctx context.Context, account *entities.Account, personal interfaces.InventoryContainer, roulette *entities.Roulette, req entities.SpinRequest) error {
	switch req.Payment {
	case entities.PaymentCurrency:
		return s.ledger.Debit(ctx, account, roulette.Cost, entities.TransactionTypeRouletteSpin, map[string]any{
			"roulette_id": roulette.ID,
		})
	case entities.PaymentSkill:
		var skill *entities.InventorySlot
		var err error
		if req.SkillSlotID != nil {
			skill, err = personal.FindByReference(ctx, *req.SkillSlotID)
			if err == nil && skill != nil && !skill.Category.UsesCharges() {
				return entities.Validation("item %d is not a skill", *req.SkillSlotID)
			}
		} else {
			skill, err = personal.FindWithEffect(ctx, entities.CategoryRankSkill, entities.EffectFreeSpin)
		}
		if err != nil {
			return err
		}
		if skill == nil {
			return entities.Detailed(entities.ErrItemNotFound, "you have no free spin skill")
		}
		return personal.ConsumeCharge(ctx, skill)
	default:
		return entities.Validation("unknown payment method %q", req.Payment)
	}
}

// payoutItem resolves display data and house flag from the live catalog when
// the prize references an entry, falling back to the prize's own snapshot.
// House payouts always expire.
func (s *rouletteService) payoutItem(ctx context.Context, account *entities.Account, prize entities.RoulettePrize) (*entities.InventorySlot, error) {
	now := s.clock.Now()

	var item *entities.CatalogItem
	if prize.CatalogItemID != nil {
		var err error
		item, err = s.catalogRepo.GetByID(ctx, *prize.CatalogItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load prize catalog item: %w", err)
		}
	}

	snap := entities.ItemSnapshot{
		Name:       prize.Name,
		Image:      prize.Image,
		Rarity:     prize.Rarity,
		Category:   prize.Category,
		AcquiredAt: now,
	}
	if !snap.Category.IsValid() {
		snap.Category = entities.CategoryConsumable
	}
	house := prize.IsHouse
	days := prize.ValidityDays
	if item != nil {
		id := item.ID
		snap.CatalogItemID = &id
		snap.Name = item.Name
		snap.Image = item.Image
		snap.Description = item.Description
		snap.Category = item.Category
		snap.Effect = item.Effect
		if snap.Rarity == "" {
			snap.Rarity = item.Rarity
		}
		house = item.IsHouse
		if days <= 0 {
			days = item.ValidityDays
		}
	}
	snap.ExpiresAt = entities.ExpiryFor(now, days, house)

	slot, err := s.delivery.deliver(ctx, account, snap, house, entities.OriginRoulette)
	if err != nil {
		return nil, err
	}
	if item != nil && slot.Category.UsesCharges() && item.Uses > 1 {
		slot.UsesRemaining = item.Uses
		if err := s.delivery.inventoryRepo.UpdateCounts(ctx, slot); err != nil {
			return nil, fmt.Errorf("failed to set skill charges: %w", err)
		}
	}
	return slot, nil
}

// DrawPrize picks one prize by cumulative weight. A draw that falls through
// every bucket returns the last entry.
func DrawPrize(prizes []entities.RoulettePrize, rng interfaces.RandomSource) entities.RoulettePrize {
	var total float64
	for _, p := range prizes {
		total += p.Weight
	}
	r := rng.Float64() * total
	var cumulative float64
	for _, p := range prizes {
		cumulative += p.Weight
		if r < cumulative {
			return p
		}
	}
	return prizes[len(prizes)-1]
}

// BestRoll keeps the roll with the highest tie-break weight; earlier rolls win ties
func BestRoll(rolls []entities.RoulettePrize) entities.RoulettePrize {
	best := rolls[0]
	for _, r := range rolls[1:] {
		if r.TieBreakWeight() > best.TieBreakWeight() {
			best = r
		}
	}
	return best
}
