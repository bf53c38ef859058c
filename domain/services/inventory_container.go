package services

import (
	"context"
	"fmt"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
)

// inventoryContainer is the single implementation behind both the personal
// backpack and the classroom chest; only the ContainerRef differs.
type inventoryContainer struct {
	repo  interfaces.InventoryRepository
	ref   entities.ContainerRef
	clock interfaces.Clock
}

// NewPersonalContainer returns the backpack of an account
func NewPersonalContainer(repo interfaces.InventoryRepository, accountID int64, clock interfaces.Clock) interfaces.InventoryContainer {
	return &inventoryContainer{repo: repo, ref: entities.PersonalContainerRef(accountID), clock: clock}
}

// NewRoomContainer returns the chest of a classroom. Callers lock the
// classroom row first so concurrent room writes serialize.
func NewRoomContainer(repo interfaces.InventoryRepository, classroomID int64, clock interfaces.Clock) interfaces.InventoryContainer {
	return &inventoryContainer{repo: repo, ref: entities.RoomContainerRef(classroomID), clock: clock}
}

func (c *inventoryContainer) Ref() entities.ContainerRef {
	return c.ref
}

func (c *inventoryContainer) Active(ctx context.Context) ([]*entities.InventorySlot, error) {
	slots, err := c.repo.ListByOwnerForUpdate(ctx, c.ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %d inventory: %w", c.ref.Kind, c.ref.ID, err)
	}
	now := c.clock.Now()
	active := make([]*entities.InventorySlot, 0, len(slots))
	for _, s := range slots {
		if !s.IsExpired(now) {
			active = append(active, s)
		}
	}
	return active, nil
}

// FindByReference prefers a slot-id match over a catalog-id match, since a
// catalog id may coincide with an unrelated slot id.
func (c *inventoryContainer) FindByReference(ctx context.Context, ref int64) (*entities.InventorySlot, error) {
	return c.find(ctx, func(s *entities.InventorySlot) bool { return s.ID == ref },
		func(s *entities.InventorySlot) bool { return s.MatchesReference(ref) })
}

func (c *inventoryContainer) FindOwnedBy(ctx context.Context, ref int64, acquirerID int64) (*entities.InventorySlot, error) {
	return c.find(ctx,
		func(s *entities.InventorySlot) bool { return s.ID == ref && s.IsAcquiredBy(acquirerID) },
		func(s *entities.InventorySlot) bool { return s.MatchesReference(ref) && s.IsAcquiredBy(acquirerID) })
}

func (c *inventoryContainer) FindByID(ctx context.Context, slotID int64, acquirerID *int64) (*entities.InventorySlot, error) {
	return c.find(ctx, func(s *entities.InventorySlot) bool {
		return s.ID == slotID && (acquirerID == nil || s.IsAcquiredBy(*acquirerID))
	})
}

func (c *inventoryContainer) FindWithEffect(ctx context.Context, category entities.SlotCategory, effect string) (*entities.InventorySlot, error) {
	return c.find(ctx, func(s *entities.InventorySlot) bool {
		return s.Category == category && s.HasEffect(effect) && s.Count() > 0
	})
}

func (c *inventoryContainer) FindStack(ctx context.Context, snapshot entities.ItemSnapshot) (*entities.InventorySlot, error) {
	return c.find(ctx, func(s *entities.InventorySlot) bool { return s.SameStack(snapshot) })
}

// find runs each predicate over the active slots in turn and returns the
// first match of the earliest predicate that matches anything.
func (c *inventoryContainer) find(ctx context.Context, preds ...func(*entities.InventorySlot) bool) (*entities.InventorySlot, error) {
	slots, err := c.Active(ctx)
	if err != nil {
		return nil, err
	}
	for _, pred := range preds {
		for _, s := range slots {
			if pred(s) {
				return s, nil
			}
		}
	}
	return nil, nil
}

func (c *inventoryContainer) DecrementOrRemove(ctx context.Context, slot *entities.InventorySlot) error {
	if slot.Quantity > 1 {
		slot.Quantity--
		if err := c.repo.UpdateCounts(ctx, slot); err != nil {
			return fmt.Errorf("failed to decrement slot %d: %w", slot.ID, err)
		}
		return nil
	}
	if err := c.repo.Delete(ctx, slot.ID); err != nil {
		return fmt.Errorf("failed to remove slot %d: %w", slot.ID, err)
	}
	slot.Quantity = 0
	return nil
}

func (c *inventoryContainer) ConsumeCharge(ctx context.Context, slot *entities.InventorySlot) error {
	if slot.UsesRemaining <= 0 {
		return entities.Detailed(entities.ErrNoChargesLeft, "%s has no charges left", slot.Name)
	}
	slot.UsesRemaining--
	if err := c.repo.UpdateCounts(ctx, slot); err != nil {
		return fmt.Errorf("failed to consume charge of slot %d: %w", slot.ID, err)
	}
	return nil
}

func (c *inventoryContainer) ConsumeOne(ctx context.Context, slot *entities.InventorySlot) error {
	if slot.Category.UsesCharges() {
		return c.ConsumeCharge(ctx, slot)
	}
	return c.DecrementOrRemove(ctx, slot)
}

func (c *inventoryContainer) Append(ctx context.Context, slot *entities.InventorySlot) error {
	slot.Owner = c.ref
	if err := c.repo.Create(ctx, slot); err != nil {
		return fmt.Errorf("failed to append slot to %s %d: %w", c.ref.Kind, c.ref.ID, err)
	}
	return nil
}

func (c *inventoryContainer) Restack(ctx context.Context, slot *entities.InventorySlot) error {
	if slot.Category.UsesCharges() {
		slot.UsesRemaining++
	} else {
		slot.Quantity++
	}
	if err := c.repo.UpdateCounts(ctx, slot); err != nil {
		return fmt.Errorf("failed to restack slot %d: %w", slot.ID, err)
	}
	return nil
}

// ItemLocation tells where a referenced item was found
type ItemLocation string

const (
	LocationPersonal ItemLocation = "PERSONAL"
	LocationRoom     ItemLocation = "ROOM"
	LocationNotFound ItemLocation = "NOT_FOUND"
)

// ResolvedItem is the tagged result of ResolveItemLocation
type ResolvedItem struct {
	Location  ItemLocation
	Slot      *entities.InventorySlot
	Container interfaces.InventoryContainer
}

// ResolveItemLocation looks for ref in the personal container first, then in
// the room container among slots attributed to ownerID. room may be nil when
// the owner has no classroom.
func ResolveItemLocation(ctx context.Context, personal, room interfaces.InventoryContainer, ref int64, ownerID int64) (ResolvedItem, error) {
	if personal != nil {
		slot, err := personal.FindByReference(ctx, ref)
		if err != nil {
			return ResolvedItem{}, err
		}
		if slot != nil {
			return ResolvedItem{Location: LocationPersonal, Slot: slot, Container: personal}, nil
		}
	}
	if room != nil {
		slot, err := room.FindOwnedBy(ctx, ref, ownerID)
		if err != nil {
			return ResolvedItem{}, err
		}
		if slot != nil {
			return ResolvedItem{Location: LocationRoom, Slot: slot, Container: room}, nil
		}
	}
	return ResolvedItem{Location: LocationNotFound}, nil
}
