package services

import (
	"context"
	"fmt"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
)

// itemDelivery grants item units into the right container of a recipient
type itemDelivery struct {
	inventoryRepo interfaces.InventoryRepository
	classroomRepo interfaces.ClassroomRepository
	catalogRepo   interfaces.CatalogRepository
	clock         interfaces.Clock
}

func newItemDelivery(uow interfaces.UnitOfWork, clock interfaces.Clock) itemDelivery {
	return itemDelivery{
		inventoryRepo: uow.InventoryRepository(),
		classroomRepo: uow.ClassroomRepository(),
		catalogRepo:   uow.CatalogRepository(),
		clock:         clock,
	}
}

// personal returns the backpack of an account
func (d itemDelivery) personal(accountID int64) interfaces.InventoryContainer {
	return NewPersonalContainer(d.inventoryRepo, accountID, d.clock)
}

// room returns the chest of a classroom
func (d itemDelivery) room(classroomID int64) interfaces.InventoryContainer {
	return NewRoomContainer(d.inventoryRepo, classroomID, d.clock)
}

// roomFor locks the classroom of a turma and returns its chest. Both results
// are nil when no classroom matches.
func (d itemDelivery) roomFor(ctx context.Context, turma string) (*entities.Classroom, interfaces.InventoryContainer, error) {
	classroom, err := lockClassroomForTurma(ctx, d.classroomRepo, turma)
	if err != nil || classroom == nil {
		return nil, nil, err
	}
	return classroom, d.room(classroom.ID), nil
}

// deliver appends one unit of snap for the recipient. House units go to the
// recipient's classroom chest attributed to them, others to their backpack.
// A missing expiry is recomputed from the live catalog.
func (d itemDelivery) deliver(ctx context.Context, recipient *entities.Account, snap entities.ItemSnapshot, house bool, origin entities.SlotOrigin) (*entities.InventorySlot, error) {
	now := d.clock.Now()

	if snap.ExpiresAt == nil {
		expiry, err := d.liveExpiry(ctx, snap, house)
		if err != nil {
			return nil, err
		}
		snap.ExpiresAt = expiry
	}

	var container interfaces.InventoryContainer
	if house {
		_, room, err := d.roomFor(ctx, recipient.Turma)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, entities.Detailed(entities.ErrClassroomNotFound,
				"no classroom matches group %q of %s", recipient.Turma, recipient.DisplayName)
		}
		container = room
		recipientID := recipient.ID
		snap.AcquiredBy = &recipientID
	} else {
		container = d.personal(recipient.ID)
		snap.AcquiredBy = nil
	}

	slot := snap.NewSlot(container.Ref(), origin, now)
	if err := container.Append(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (d itemDelivery) liveExpiry(ctx context.Context, snap entities.ItemSnapshot, house bool) (*time.Time, error) {
	now := d.clock.Now()
	if snap.CatalogItemID != nil {
		item, err := d.catalogRepo.GetByID(ctx, *snap.CatalogItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog item %d: %w", *snap.CatalogItemID, err)
		}
		if item != nil {
			return entities.ExpiryFor(now, item.ValidityDays, house), nil
		}
	}
	return entities.ExpiryFor(now, 0, house), nil
}

// lockClassroomForTurma finds the classroom whose name matches the turma
// ignoring case and formatting, and locks its row.
func lockClassroomForTurma(ctx context.Context, repo interfaces.ClassroomRepository, turma string) (*entities.Classroom, error) {
	classrooms, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list classrooms: %w", err)
	}
	for _, c := range classrooms {
		if !c.MatchesTurma(turma) {
			continue
		}
		locked, err := repo.GetByIDForUpdate(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock classroom %d: %w", c.ID, err)
		}
		return locked, nil
	}
	return nil, nil
}

// lookupBasePrice resolves the reference price of an item: the primary
// catalog by id, then by name, then the legacy catalog by name. Zero when
// nothing matches.
func lookupBasePrice(ctx context.Context, repo interfaces.CatalogRepository, snap entities.ItemSnapshot) (int64, error) {
	if snap.CatalogItemID != nil {
		item, err := repo.GetByID(ctx, *snap.CatalogItemID)
		if err != nil {
			return 0, fmt.Errorf("failed to load catalog item %d: %w", *snap.CatalogItemID, err)
		}
		if item != nil {
			return item.Price, nil
		}
	}
	if snap.Name == "" {
		return 0, nil
	}
	item, err := repo.GetByName(ctx, snap.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up catalog item %q: %w", snap.Name, err)
	}
	if item != nil {
		return item.Price, nil
	}
	legacy, err := repo.GetLegacyByName(ctx, snap.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to look up legacy catalog item %q: %w", snap.Name, err)
	}
	if legacy != nil {
		return legacy.Price, nil
	}
	return 0, nil
}
