package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"

	log "github.com/sirupsen/logrus"
)

type storeService struct {
	accountRepo interfaces.AccountRepository
	catalogRepo interfaces.CatalogRepository
	ledger      interfaces.LedgerService
	delivery    itemDelivery
	audit       interfaces.AuditRecorder
	clock       interfaces.Clock
}

// NewStoreService creates the store flows for one unit of work
func NewStoreService(uow interfaces.UnitOfWork, clock interfaces.Clock) interfaces.StoreService {
	return &storeService{
		accountRepo: uow.AccountRepository(),
		catalogRepo: uow.CatalogRepository(),
		ledger:      NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus()),
		delivery:    newItemDelivery(uow, clock),
		audit:       uow.AuditLog(),
		clock:       clock,
	}
}

// Purchase buys one unit of a catalog item for the actor
func (s *storeService) Purchase(ctx context.Context, actor entities.Actor, itemID int64) (*entities.PurchaseResult, error) {
	item, err := s.catalogRepo.GetByIDForUpdate(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog item: %w", err)
	}
	if item == nil {
		return nil, entities.Detailed(entities.ErrItemNotFound, "catalog item %d does not exist", itemID)
	}
	if !item.Active {
		return nil, entities.Detailed(entities.ErrItemInactive, "%s is not available for purchase", item.Name)
	}
	if !item.InStock(1) {
		return nil, entities.Detailed(entities.ErrOutOfStock, "%s is out of stock", item.Name)
	}

	account, err := s.accountRepo.GetByIDForUpdate(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	now := s.clock.Now()
	var container interfaces.InventoryContainer
	var acquiredBy *int64
	if item.IsHouse {
		classroom, room, err := s.delivery.roomFor(ctx, actor.Turma)
		if err != nil {
			return nil, err
		}
		if classroom == nil {
			return nil, entities.Detailed(entities.ErrClassroomNotFound,
				"no classroom matches group %q", actor.Turma)
		}
		container = room
		acquiredBy = &account.ID
	} else {
		container = s.delivery.personal(account.ID)
	}

	if err := s.ledger.Debit(ctx, account, item.Price, entities.TransactionTypeStorePurchase, map[string]any{
		"catalog_item_id": item.ID,
		"item_name":       item.Name,
	}); err != nil {
		return nil, err
	}

	if err := s.catalogRepo.UpdateStock(ctx, item.ID, item.Stock-1); err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	slot := item.NewSlot(container.Ref(), entities.OriginPurchase, acquiredBy, now)
	if err := container.Append(ctx, slot); err != nil {
		return nil, err
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditStorePurchase,
		"bought %s for %d PC$ into %s", item.Name, item.Price, container.Ref().Kind)

	log.WithFields(log.Fields{
		"accountID": account.ID,
		"itemID":    item.ID,
		"price":     item.Price,
		"house":     item.IsHouse,
	}).Info("Store purchase completed")

	return &entities.PurchaseResult{
		ItemName:   item.Name,
		Price:      item.Price,
		NewBalance: account.Balance,
		Container:  container.Ref().Kind,
		Slot:       slot,
	}, nil
}

// CollectivePurchase buys a cart into the representative's classroom chest and
// splits the cost evenly across the paying members of the turma.
func (s *storeService) CollectivePurchase(ctx context.Context, actor entities.Actor, cart []entities.CartLine) (*entities.CollectivePurchaseResult, error) {
	if !actor.CanBuyCollectively() {
		return nil, entities.Detailed(entities.ErrForbidden, "only a representative or an admin can buy for the classroom")
	}

	lines := mergeCart(cart)

	// Lock catalog rows in ascending id order
	items := make([]*entities.CatalogItem, 0, len(lines))
	var totalCost int64
	for _, line := range lines {
		item, err := s.catalogRepo.GetByIDForUpdate(ctx, line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog item: %w", err)
		}
		if item == nil {
			return nil, entities.Detailed(entities.ErrItemNotFound, "catalog item %d does not exist", line.ItemID)
		}
		if !item.Active {
			return nil, entities.Detailed(entities.ErrItemInactive, "%s is not available for purchase", item.Name)
		}
		if !item.InStock(line.Quantity) {
			return nil, entities.Detailed(entities.ErrOutOfStock,
				"%s has %d in stock, %d requested", item.Name, item.Stock, line.Quantity)
		}
		items = append(items, item)
		totalCost += item.Price * int64(line.Quantity)
	}

	classroom, room, err := s.delivery.roomFor(ctx, actor.Turma)
	if err != nil {
		return nil, err
	}
	if classroom == nil {
		return nil, entities.Detailed(entities.ErrClassroomNotFound, "no classroom matches group %q", actor.Turma)
	}

	members, err := s.accountRepo.ListByTurmaForUpdate(ctx, actor.Turma)
	if err != nil {
		return nil, fmt.Errorf("failed to load classroom members: %w", err)
	}
	payers := make([]*entities.Account, 0, len(members))
	for _, m := range members {
		if m.SharesCollectiveCost() {
			payers = append(payers, m)
		}
	}
	if len(payers) == 0 {
		return nil, entities.Detailed(entities.ErrNoEligibleMembers,
			"no paying members in group %q", actor.Turma)
	}

	share := ceilDiv(totalCost, int64(len(payers)))
	for _, p := range payers {
		if !p.CanAfford(share) {
			return nil, entities.Detailed(entities.ErrInsufficientFunds,
				"%s cannot cover the %d PC$ share", p.DisplayName, share)
		}
	}

	for _, p := range payers {
		if err := s.ledger.Debit(ctx, p, share, entities.TransactionTypeCollectivePurchase, map[string]any{
			"classroom_id":      classroom.ID,
			"representative_id": actor.AccountID,
			"total_cost":        totalCost,
		}); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	representative := actor.AccountID
	slots := make([]*entities.InventorySlot, 0)
	for i, item := range items {
		qty := lines[i].Quantity
		if err := s.catalogRepo.UpdateStock(ctx, item.ID, item.Stock-qty); err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		for range qty {
			slot := item.NewSlot(room.Ref(), entities.OriginCollective, &representative, now)
			if err := room.Append(ctx, slot); err != nil {
				return nil, err
			}
			slots = append(slots, slot)
		}
	}

	classroomID := classroom.ID
	utils.RecordAudit(s.audit, actor, &classroomID, entities.AuditCollectivePurchase,
		"collective purchase of %d units for %d PC$, %d PC$ from each of %d members",
		len(slots), totalCost, share, len(payers))

	log.WithFields(log.Fields{
		"classroomID": classroom.ID,
		"totalCost":   totalCost,
		"share":       share,
		"payers":      len(payers),
	}).Info("Collective purchase completed")

	return &entities.CollectivePurchaseResult{
		ClassroomID:    classroom.ID,
		TotalCost:      totalCost,
		CostPerMember:  share,
		MembersCharged: len(payers),
		Slots:          slots,
	}, nil
}

// mergeCart sums duplicate lines and orders them by item id
func mergeCart(cart []entities.CartLine) []entities.CartLine {
	byID := make(map[int64]int, len(cart))
	for _, line := range cart {
		byID[line.ItemID] += line.Quantity
	}
	merged := make([]entities.CartLine, 0, len(byID))
	for id, qty := range byID {
		merged = append(merged, entities.CartLine{ItemID: id, Quantity: qty})
	}
	slices.SortFunc(merged, func(a, b entities.CartLine) int {
		return cmp.Compare(a.ItemID, b.ItemID)
	})
	return merged
}
