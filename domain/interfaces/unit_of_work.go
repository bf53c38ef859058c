package interfaces

import "context"

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction, then releases staged events and audit entries
	Commit() error

	// Rollback rolls back the transaction and drops staged events and audit entries.
	// It is a no-op after Commit.
	Rollback() error

	AccountRepository() AccountRepository
	LedgerRepository() LedgerRepository
	InventoryRepository() InventoryRepository
	ClassroomRepository() ClassroomRepository
	CatalogRepository() CatalogRepository
	TicketRepository() TicketRepository
	MarketListingRepository() MarketListingRepository
	TradeRepository() TradeRepository
	LoanRepository() LoanRepository
	RouletteRepository() RouletteRepository
	GiftRepository() GiftRepository
	EventBus() EventPublisher
	AuditLog() AuditRecorder
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
