package interfaces

import (
	"context"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/events"
)

// Lookups return (nil, nil) when the row does not exist. ForUpdate variants
// lock the returned rows until the surrounding transaction ends.

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account with its buffs
	GetByID(ctx context.Context, id int64) (*entities.Account, error)

	// GetByIDForUpdate retrieves and locks an account
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Account, error)

	// GetByExternalID retrieves an account by login handle without locking it
	GetByExternalID(ctx context.Context, externalID string) (*entities.Account, error)

	// ListByTurmaForUpdate locks every account whose turma folds to the same
	// classroom key, in ascending id order
	ListByTurmaForUpdate(ctx context.Context, turma string) ([]*entities.Account, error)

	// Create inserts a new account and sets its ID
	Create(ctx context.Context, account *entities.Account) error

	// UpdateBalance writes the balance and lifetime maximum
	UpdateBalance(ctx context.Context, id int64, balance, maxBalance int64) error

	// UpdateInflow writes the annual inflow counter
	UpdateInflow(ctx context.Context, id int64, receivedThisYear int64, year int) error

	// UpsertBuff installs a buff, replacing any buff with the same effect
	UpsertBuff(ctx context.Context, accountID int64, buff entities.Buff) error
}

// LedgerRepository defines the interface for balance change records
type LedgerRepository interface {
	// Record appends a ledger entry
	Record(ctx context.Context, entry *entities.LedgerEntry) error

	// ListByAccount returns the most recent entries of an account
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error)
}

// InventoryRepository defines the interface for slot storage of both container kinds
type InventoryRepository interface {
	// ListByOwnerForUpdate locks and returns every slot of a container in id order,
	// expired ones included
	ListByOwnerForUpdate(ctx context.Context, owner entities.ContainerRef) ([]*entities.InventorySlot, error)

	// Create inserts a slot and sets its ID
	Create(ctx context.Context, slot *entities.InventorySlot) error

	// UpdateCounts writes the quantity or uses of a slot
	UpdateCounts(ctx context.Context, slot *entities.InventorySlot) error

	// Delete removes a slot
	Delete(ctx context.Context, id int64) error

	// DeleteExpiredBefore purges slots that expired before cutoff
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ClassroomRepository defines the interface for classroom data access
type ClassroomRepository interface {
	// GetByIDForUpdate retrieves and locks a classroom, serializing room container writes
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Classroom, error)

	// List returns every classroom ordered by id
	List(ctx context.Context) ([]*entities.Classroom, error)
}

// CatalogRepository defines the interface for both store catalogs
type CatalogRepository interface {
	// GetByID retrieves a catalog item
	GetByID(ctx context.Context, id int64) (*entities.CatalogItem, error)

	// GetByIDForUpdate retrieves and locks a catalog item
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.CatalogItem, error)

	// GetByName retrieves a catalog item by case-insensitive name
	GetByName(ctx context.Context, name string) (*entities.CatalogItem, error)

	// UpdateStock writes the remaining stock
	UpdateStock(ctx context.Context, id int64, stock int) error

	// GetLegacyByName retrieves an entry of the legacy catalog
	GetLegacyByName(ctx context.Context, name string) (*entities.LegacyCatalogItem, error)
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	Create(ctx context.Context, ticket *entities.Ticket) error
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Ticket, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*entities.Ticket, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, ticket *entities.Ticket) error
	Delete(ctx context.Context, id int64) error
}

// MarketListingRepository defines the interface for listing data access
type MarketListingRepository interface {
	Create(ctx context.Context, listing *entities.MarketListing) error
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.MarketListing, error)
	Update(ctx context.Context, listing *entities.MarketListing) error
}

// TradeRepository defines the interface for trade data access
type TradeRepository interface {
	Create(ctx context.Context, trade *entities.Trade) error
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Trade, error)
	Update(ctx context.Context, trade *entities.Trade) error
}

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	Create(ctx context.Context, loan *entities.Loan) error
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Loan, error)

	// GetActiveByBorrowerForUpdate returns the PENDING or ATRASADO loan of a borrower
	GetActiveByBorrowerForUpdate(ctx context.Context, borrowerID int64) (*entities.Loan, error)

	Update(ctx context.Context, loan *entities.Loan) error

	// MarkOverdue flips every PENDING loan due before now to ATRASADO
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// RouletteRepository defines the interface for roulette data access
type RouletteRepository interface {
	// GetWithPrizes retrieves a roulette and its prize table in table order
	GetWithPrizes(ctx context.Context, id int64) (*entities.Roulette, error)
}

// GiftRepository defines the interface for gift data access
type GiftRepository interface {
	Create(ctx context.Context, gift *entities.Gift) error
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Gift, error)
	Update(ctx context.Context, gift *entities.Gift) error
}

// AuditLogRepository defines the interface for audit log persistence
type AuditLogRepository interface {
	// RecordBatch appends entries in one statement batch
	RecordBatch(ctx context.Context, entries []*entities.AuditEntry) error
}

// StatsRepository defines the interface for public aggregate statistics
type StatsRepository interface {
	GetPublicStats(ctx context.Context) (*entities.PublicStats, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the transaction outcome is known
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
