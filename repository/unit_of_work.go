package repository

import (
	"context"
	"errors"
	"fmt"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	auditSink              interfaces.AuditSink
	audit                  *stagedAudit
	accountRepo            interfaces.AccountRepository
	ledgerRepo             interfaces.LedgerRepository
	inventoryRepo          interfaces.InventoryRepository
	classroomRepo          interfaces.ClassroomRepository
	catalogRepo            interfaces.CatalogRepository
	ticketRepo             interfaces.TicketRepository
	listingRepo            interfaces.MarketListingRepository
	tradeRepo              interfaces.TradeRepository
	loanRepo               interfaces.LoanRepository
	rouletteRepo           interfaces.RouletteRepository
	giftRepo               interfaces.GiftRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db: db,
	}
}

// UnitOfWorkFactory builds database units of work
type UnitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork releasing events to publisher and
// committed audit entries to sink. Either may be nil.
func (f *UnitOfWorkFactory) CreateWithPublisher(publisher interfaces.TransactionalEventPublisher, sink interfaces.AuditSink) interfaces.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: publisher,
		auditSink:              sink,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.audit = &stagedAudit{}

	u.accountRepo = newAccountRepository(tx)
	u.ledgerRepo = newLedgerRepository(tx)
	u.inventoryRepo = newInventoryRepository(tx)
	u.classroomRepo = newClassroomRepository(tx)
	u.catalogRepo = newCatalogRepository(tx)
	u.ticketRepo = newTicketRepository(tx)
	u.listingRepo = newMarketListingRepository(tx)
	u.tradeRepo = newTradeRepository(tx)
	u.loanRepo = newLoanRepository(tx)
	u.rouletteRepo = newRouletteRepository(tx)
	u.giftRepo = newGiftRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Events and audit entries are best-effort once the transaction is durable
	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).Warn("Failed to flush events after commit")
		}
	}
	if u.auditSink != nil && len(u.audit.entries) > 0 {
		u.auditSink.Enqueue(u.audit.entries...)
	}
	u.audit.entries = nil

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}
	u.audit.entries = nil

	return nil
}

func notStarted() {
	panic("unit of work not started - call Begin() first")
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		notStarted()
	}
	return u.accountRepo
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() interfaces.LedgerRepository {
	if u.ledgerRepo == nil {
		notStarted()
	}
	return u.ledgerRepo
}

// InventoryRepository returns the inventory repository for this unit of work
func (u *unitOfWork) InventoryRepository() interfaces.InventoryRepository {
	if u.inventoryRepo == nil {
		notStarted()
	}
	return u.inventoryRepo
}

// ClassroomRepository returns the classroom repository for this unit of work
func (u *unitOfWork) ClassroomRepository() interfaces.ClassroomRepository {
	if u.classroomRepo == nil {
		notStarted()
	}
	return u.classroomRepo
}

// CatalogRepository returns the catalog repository for this unit of work
func (u *unitOfWork) CatalogRepository() interfaces.CatalogRepository {
	if u.catalogRepo == nil {
		notStarted()
	}
	return u.catalogRepo
}

// TicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	if u.ticketRepo == nil {
		notStarted()
	}
	return u.ticketRepo
}

// MarketListingRepository returns the listing repository for this unit of work
func (u *unitOfWork) MarketListingRepository() interfaces.MarketListingRepository {
	if u.listingRepo == nil {
		notStarted()
	}
	return u.listingRepo
}

// TradeRepository returns the trade repository for this unit of work
func (u *unitOfWork) TradeRepository() interfaces.TradeRepository {
	if u.tradeRepo == nil {
		notStarted()
	}
	return u.tradeRepo
}

// LoanRepository returns the loan repository for this unit of work
func (u *unitOfWork) LoanRepository() interfaces.LoanRepository {
	if u.loanRepo == nil {
		notStarted()
	}
	return u.loanRepo
}

// RouletteRepository returns the roulette repository for this unit of work
func (u *unitOfWork) RouletteRepository() interfaces.RouletteRepository {
	if u.rouletteRepo == nil {
		notStarted()
	}
	return u.rouletteRepo
}

// GiftRepository returns the gift repository for this unit of work
func (u *unitOfWork) GiftRepository() interfaces.GiftRepository {
	if u.giftRepo == nil {
		notStarted()
	}
	return u.giftRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work has no event publisher")
	}
	return u.transactionalPublisher
}

// AuditLog returns the audit stage for this unit of work
func (u *unitOfWork) AuditLog() interfaces.AuditRecorder {
	if u.audit == nil {
		notStarted()
	}
	return u.audit
}

// stagedAudit holds audit entries until commit
type stagedAudit struct {
	entries []*entities.AuditEntry
}

func (s *stagedAudit) Record(entry *entities.AuditEntry) {
	s.entries = append(s.entries, entry)
}
