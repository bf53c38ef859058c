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

type marketplaceService struct {
	accountRepo    interfaces.AccountRepository
	listingRepo    interfaces.MarketListingRepository
	catalogRepo    interfaces.CatalogRepository
	ledger         interfaces.LedgerService
	delivery       itemDelivery
	audit          interfaces.AuditRecorder
	eventPublisher interfaces.EventPublisher
	policy         entities.EconomyPolicy
	clock          interfaces.Clock
}

// NewMarketplaceService creates the marketplace flows for one unit of work
func NewMarketplaceService(uow interfaces.UnitOfWork, policy entities.EconomyPolicy, clock interfaces.Clock) interfaces.MarketplaceService {
	return &marketplaceService{
		accountRepo:    uow.AccountRepository(),
		listingRepo:    uow.MarketListingRepository(),
		catalogRepo:    uow.CatalogRepository(),
		ledger:         NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus()),
		delivery:       newItemDelivery(uow, clock),
		audit:          uow.AuditLog(),
		eventPublisher: uow.EventBus(),
		policy:         policy,
		clock:          clock,
	}
}

// List takes one unit of a slot out of the seller's containers and offers it.
// The house flag comes from where the slot was actually found.
func (s *marketplaceService) List(ctx context.Context, actor entities.Actor, slotRef int64, price int64) (*entities.MarketListing, error) {
	personal := s.delivery.personal(actor.AccountID)
	classroom, room, err := s.delivery.roomFor(ctx, actor.Turma)
	if err != nil {
		return nil, err
	}

	found, err := ResolveItemLocation(ctx, personal, room, slotRef, actor.AccountID)
	if err != nil {
		return nil, err
	}
	if found.Location == LocationNotFound {
		return nil, entities.Detailed(entities.ErrItemNotFound, "item %d is not in your backpack or classroom chest", slotRef)
	}
	if found.Slot.Category.UsesCharges() {
		return nil, entities.Detailed(entities.ErrItemNotTradeable, "%s is a skill and cannot be sold", found.Slot.Name)
	}

	snap := found.Slot.Snapshot()
	if err := found.Container.DecrementOrRemove(ctx, found.Slot); err != nil {
		return nil, err
	}

	basePrice, err := lookupBasePrice(ctx, s.catalogRepo, snap)
	if err != nil {
		return nil, err
	}

	listing := &entities.MarketListing{
		SellerID:     actor.AccountID,
		Item:         snap,
		IsHouse:      found.Location == LocationRoom,
		Price:        price,
		BasePrice:    basePrice,
		IsOverpriced: isOverpriced(price, basePrice, s.policy.OverpricedMultiplier),
		Status:       entities.ListingStatusActive,
	}
	if listing.IsHouse {
		classroomID := classroom.ID
		listing.ClassroomID = &classroomID
	}
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditMarketList,
		"listed %s for %d PC$ (listing %d)", snap.Name, price, listing.ID)

	return listing, nil
}

// Buy settles an active listing: the buyer pays the price, the seller receives
// the price minus tax, and the item lands in the buyer's matching container.
func (s *marketplaceService) Buy(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketSaleResult, error) {
	listing, err := s.listingRepo.GetByIDForUpdate(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, entities.ErrListingNotFound
	}
	if !listing.IsActive() {
		return nil, entities.Detailed(entities.ErrListingUnavailable, "listing %d is %s", listing.ID, listing.Status)
	}
	if listing.SellerID == actor.AccountID {
		return nil, entities.ErrOwnListing
	}

	buyer, seller, err := lockPair(ctx, s.accountRepo, actor.AccountID, listing.SellerID)
	if err != nil {
		return nil, err
	}
	if !buyer.CanAfford(listing.Price) {
		return nil, entities.Detailed(entities.ErrInsufficientFunds,
			"%s costs %d PC$ but you have %d PC$", listing.Item.Name, listing.Price, buyer.Balance)
	}

	proceeds, tax := saleProceeds(listing.Price, s.policy.MarketTaxRate)
	meta := map[string]any{"listing_id": listing.ID, "item_name": listing.Item.Name}

	if err := s.ledger.Debit(ctx, buyer, listing.Price, entities.TransactionTypeMarketBuy, meta); err != nil {
		return nil, err
	}
	if err := s.ledger.Credit(ctx, seller, proceeds, entities.TransactionTypeMarketSale, meta); err != nil {
		return nil, err
	}
	if err := s.ledger.RecordIfPeak(ctx, seller); err != nil {
		return nil, err
	}

	// Marketplace proceeds count toward the annual inflow but never hit the cap
	now := s.clock.Now()
	seller.AddInflow(proceeds, now.Year())
	if err := s.accountRepo.UpdateInflow(ctx, seller.ID, seller.ReceivedThisYear, seller.ReceivedYear); err != nil {
		return nil, fmt.Errorf("failed to update seller inflow: %w", err)
	}

	slot, err := s.delivery.deliver(ctx, buyer, listing.Item, listing.IsHouse, entities.OriginMarketplace)
	if err != nil {
		return nil, err
	}

	listing.MarkSold(buyer.ID, tax, now)
	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to mark listing sold: %w", err)
	}

	sellerID := seller.ID
	utils.RecordAudit(s.audit, actor, &sellerID, entities.AuditMarketBuy,
		"bought %s from listing %d for %d PC$", listing.Item.Name, listing.ID, listing.Price)
	utils.RecordAudit(s.audit, entities.Actor{AccountID: seller.ID, OriginAddress: actor.OriginAddress}, &buyer.ID, entities.AuditMarketSale,
		"sold %s on listing %d, received %d PC$ after %d PC$ tax", listing.Item.Name, listing.ID, proceeds, tax)

	if err := s.eventPublisher.Publish(events.ListingSoldEvent{
		ListingID: listing.ID,
		SellerID:  seller.ID,
		BuyerID:   buyer.ID,
		ItemName:  listing.Item.Name,
		Proceeds:  proceeds,
	}); err != nil {
		log.WithError(err).Warn("Failed to stage listing sold event")
	}

	return &entities.MarketSaleResult{
		Listing:    listing,
		Tax:        tax,
		NewBalance: buyer.Balance,
		Slot:       slot,
	}, nil
}

// Cancel withdraws an active listing and restores the unit to the container
// type it came from.
func (s *marketplaceService) Cancel(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketListing, error) {
	listing, err := s.listingRepo.GetByIDForUpdate(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil {
		return nil, entities.ErrListingNotFound
	}
	if listing.SellerID != actor.AccountID {
		return nil, entities.ErrNotListingOwner
	}
	if !listing.IsActive() {
		return nil, entities.Detailed(entities.ErrListingUnavailable, "listing %d is %s", listing.ID, listing.Status)
	}

	if err := s.restore(ctx, actor, listing); err != nil {
		return nil, err
	}

	listing.Status = entities.ListingStatusCancelled
	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to cancel listing: %w", err)
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditMarketCancel,
		"cancelled listing %d of %s", listing.ID, listing.Item.Name)

	return listing, nil
}

// restore puts the listed unit back exactly as it was snapshotted
func (s *marketplaceService) restore(ctx context.Context, actor entities.Actor, listing *entities.MarketListing) error {
	if !listing.IsHouse {
		container := s.delivery.personal(listing.SellerID)
		return container.Append(ctx, listing.Item.NewSlot(container.Ref(), listing.Item.Origin, listing.Item.AcquiredAt))
	}

	var room interfaces.InventoryContainer
	if listing.ClassroomID != nil {
		classroom, err := s.delivery.classroomRepo.GetByIDForUpdate(ctx, *listing.ClassroomID)
		if err != nil {
			return fmt.Errorf("failed to lock classroom: %w", err)
		}
		if classroom != nil {
			room = s.delivery.room(classroom.ID)
		}
	}
	if room == nil {
		var err error
		if _, room, err = s.delivery.roomFor(ctx, actor.Turma); err != nil {
			return err
		}
	}
	if room == nil {
		return entities.Detailed(entities.ErrClassroomNotFound, "the classroom of listing %d no longer exists", listing.ID)
	}

	snap := listing.Item
	sellerID := listing.SellerID
	snap.AcquiredBy = &sellerID
	return room.Append(ctx, snap.NewSlot(room.Ref(), snap.Origin, snap.AcquiredAt))
}

// lockPair locks two accounts in ascending id order and returns them in
// argument order
func lockPair(ctx context.Context, repo interfaces.AccountRepository, firstID, secondID int64) (*entities.Account, *entities.Account, error) {
	lowID, highID := firstID, secondID
	if lowID > highID {
		lowID, highID = highID, lowID
	}
	low, err := repo.GetByIDForUpdate(ctx, lowID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock account %d: %w", lowID, err)
	}
	high, err := repo.GetByIDForUpdate(ctx, highID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock account %d: %w", highID, err)
	}
	if low == nil || high == nil {
		return nil, nil, entities.ErrAccountNotFound
	}
	if low.ID == firstID {
		return low, high, nil
	}
	return high, low, nil
}
