package infrastructure

import (
	"pcbank/database"
	"pcbank/domain/interfaces"
	"pcbank/repository"
)

// UnitOfWorkFactory creates units of work that publish events and queue
// audit entries once their transaction commits
type UnitOfWorkFactory struct {
	repoFactory    *repository.UnitOfWorkFactory
	eventPublisher interfaces.EventPublisher
	auditSink      interfaces.AuditSink
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher, auditSink interfaces.AuditSink) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
		auditSink:      auditSink,
	}
}

// Create creates a new UnitOfWork with its own transactional publisher
func (f *UnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.repoFactory.CreateWithPublisher(NewTransactionalPublisher(f.eventPublisher), f.auditSink)
}
