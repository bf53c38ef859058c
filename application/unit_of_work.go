package application

import (
	"context"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// WithTransaction runs fn inside one unit of work. Errors from fn roll the
// transaction back and are returned unchanged, except lock contention which
// surfaces as a retryable storage error. Begin and commit failures are
// storage errors too. Nothing is retried here.
func WithTransaction[T any](ctx context.Context, factory interfaces.UnitOfWorkFactory, fn func(uow interfaces.UnitOfWork) (T, error)) (T, error) {
	var zero T

	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return zero, entities.StorageError(err, true)
	}
	defer func() {
		if err := uow.Rollback(); err != nil {
			log.WithError(err).Warn("Failed to roll back unit of work")
		}
	}()

	result, err := fn(uow)
	if err != nil {
		if database.IsRetryable(err) {
			return zero, entities.StorageError(err, true)
		}
		return zero, err
	}

	if err := uow.Commit(); err != nil {
		return zero, entities.StorageError(err, true)
	}
	return result, nil
}
