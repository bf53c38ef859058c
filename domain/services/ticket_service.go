package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/events"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"

	log "github.com/sirupsen/logrus"
)

// maxCodeAttempts bounds the retries on a ticket code collision
const maxCodeAttempts = 8

type ticketService struct {
	accountRepo    interfaces.AccountRepository
	ticketRepo     interfaces.TicketRepository
	classroomRepo  interfaces.ClassroomRepository
	catalogRepo    interfaces.CatalogRepository
	delivery       itemDelivery
	audit          interfaces.AuditRecorder
	eventPublisher interfaces.EventPublisher
	policy         entities.EconomyPolicy
	clock          interfaces.Clock
}

// NewTicketService creates the redemption ticket flows for one unit of work
func NewTicketService(uow interfaces.UnitOfWork, policy entities.EconomyPolicy, clock interfaces.Clock) interfaces.TicketService {
	return &ticketService{
		accountRepo:    uow.AccountRepository(),
		ticketRepo:     uow.TicketRepository(),
		classroomRepo:  uow.ClassroomRepository(),
		catalogRepo:    uow.CatalogRepository(),
		delivery:       newItemDelivery(uow, clock),
		audit:          uow.AuditLog(),
		eventPublisher: uow.EventBus(),
		policy:         policy,
		clock:          clock,
	}
}

// Issue consumes one unit of a slot and mints a ticket for it. Buff items
// install their effect on the account instead.
func (s *ticketService) Issue(ctx context.Context, actor entities.Actor, slotRef int64) (*entities.TicketIssueResult, error) {
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

	snap := found.Slot.Snapshot()
	if err := found.Container.ConsumeOne(ctx, found.Slot); err != nil {
		return nil, err
	}

	if snap.Category == entities.CategoryBuff {
		buff, err := s.activateBuff(ctx, actor, snap)
		if err != nil {
			return nil, err
		}
		return &entities.TicketIssueResult{Buff: buff}, nil
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}
	ticket := &entities.Ticket{
		Code:      code,
		AccountID: actor.AccountID,
		Item:      snap,
		Status:    entities.TicketStatusPending,
	}
	if found.Location == LocationRoom {
		classroomID := classroom.ID
		ticket.ClassroomID = &classroomID
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditTicketIssue,
		"issued ticket %s for %s", ticket.Code, snap.Name)

	log.WithFields(log.Fields{
		"accountID": actor.AccountID,
		"ticketID":  ticket.ID,
		"room":      ticket.IsRoomTicket(),
	}).Info("Ticket issued")

	return &entities.TicketIssueResult{Ticket: ticket}, nil
}

// activateBuff installs the buff carried by snap for the catalog duration,
// replacing any buff with the same effect
func (s *ticketService) activateBuff(ctx context.Context, actor entities.Actor, snap entities.ItemSnapshot) (*entities.Buff, error) {
	duration := s.policy.BuffDefaultDuration
	if snap.CatalogItemID != nil {
		item, err := s.catalogRepo.GetByID(ctx, *snap.CatalogItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load buff catalog item: %w", err)
		}
		if item != nil && item.BuffHours > 0 {
			duration = time.Duration(item.BuffHours) * time.Hour
		}
	}

	effect := snap.Effect
	if effect == "" {
		effect = strings.ToLower(strings.TrimSpace(snap.Name))
	}
	buff := entities.Buff{Effect: effect, ExpiresAt: s.clock.Now().Add(duration)}
	if err := s.accountRepo.UpsertBuff(ctx, actor.AccountID, buff); err != nil {
		return nil, fmt.Errorf("failed to install buff: %w", err)
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditBuffActivate,
		"activated %s until %s", effect, buff.ExpiresAt.Format(time.RFC3339))

	return &buff, nil
}

func (s *ticketService) uniqueCode(ctx context.Context) (string, error) {
	for range maxCodeAttempts {
		code, err := entities.GenerateTicketCode(s.policy.TicketCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := s.ticketRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check ticket code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique ticket code after %d attempts", maxCodeAttempts)
}

// Validate redeems a pending ticket by its typed code
func (s *ticketService) Validate(ctx context.Context, actor entities.Actor, code string) (*entities.Ticket, error) {
	if !actor.IsStaff() {
		return nil, entities.Detailed(entities.ErrForbidden, "only staff can validate tickets")
	}

	normalized := entities.NormalizeTicketCode(code)
	ticket, err := s.ticketRepo.GetByCodeForUpdate(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket == nil {
		return nil, entities.Detailed(entities.ErrInvalidTicket, "no ticket with code %s", normalized)
	}
	if !ticket.IsPending() {
		usedAt := "an earlier date"
		if ticket.UsedAt != nil {
			usedAt = ticket.UsedAt.Format(time.RFC3339)
		}
		return nil, entities.Detailed(entities.ErrAlreadyRedeemed, "ticket %s was already redeemed at %s", ticket.Code, usedAt)
	}

	ticket.MarkUsed(actor.AccountID, s.clock.Now())
	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to mark ticket used: %w", err)
	}

	holder := ticket.AccountID
	utils.RecordAudit(s.audit, actor, &holder, entities.AuditTicketValidate,
		"validated ticket %s for %s", ticket.Code, ticket.Item.Name)

	if err := s.eventPublisher.Publish(events.TicketRedeemedEvent{
		TicketID:    ticket.ID,
		AccountID:   ticket.AccountID,
		ValidatedBy: actor.AccountID,
		ItemName:    ticket.Item.Name,
	}); err != nil {
		log.WithError(err).Error("Failed to publish ticket redeemed event")
	}

	return ticket, nil
}

// Cancel deletes a pending ticket and gives the item back where it came from
func (s *ticketService) Cancel(ctx context.Context, actor entities.Actor, ticketID int64) (*entities.InventorySlot, error) {
	ticket, err := s.ticketRepo.GetByIDForUpdate(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket == nil || ticket.AccountID != actor.AccountID {
		return nil, entities.ErrTicketNotFound
	}
	if !ticket.IsPending() {
		return nil, entities.Detailed(entities.ErrAlreadyRedeemed, "ticket %s was already redeemed", ticket.Code)
	}

	slot, err := s.restore(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Delete(ctx, ticket.ID); err != nil {
		return nil, fmt.Errorf("failed to delete ticket: %w", err)
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditTicketCancel,
		"cancelled ticket %s and restored %s", ticket.Code, ticket.Item.Name)

	return slot, nil
}

// restore puts the ticket's unit back. Room units return to the originating
// chest with their acquirer and expiry; personal units re-stack when a
// matching slot exists.
func (s *ticketService) restore(ctx context.Context, ticket *entities.Ticket) (*entities.InventorySlot, error) {
	snap := ticket.Item
	origin := snap.Origin
	if origin == "" {
		origin = entities.OriginTicketCancel
	}

	if ticket.IsRoomTicket() {
		classroom, err := s.classroomRepo.GetByIDForUpdate(ctx, *ticket.ClassroomID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock classroom: %w", err)
		}
		if classroom == nil {
			return nil, entities.Detailed(entities.ErrClassroomNotFound, "classroom %d no longer exists", *ticket.ClassroomID)
		}
		room := s.delivery.room(classroom.ID)
		slot := snap.NewSlot(room.Ref(), origin, snap.AcquiredAt)
		if err := room.Append(ctx, slot); err != nil {
			return nil, err
		}
		return slot, nil
	}

	personal := s.delivery.personal(ticket.AccountID)
	stack, err := personal.FindStack(ctx, snap)
	if err != nil {
		return nil, err
	}
	if stack != nil {
		if err := personal.Restack(ctx, stack); err != nil {
			return nil, err
		}
		return stack, nil
	}
	snap.AcquiredBy = nil
	slot := snap.NewSlot(personal.Ref(), origin, snap.AcquiredAt)
	if err := personal.Append(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}
