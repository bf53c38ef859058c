package repository

import (
	"context"
	"fmt"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

type auditLogRepository struct {
	q Queryable
}

// NewAuditLogRepository creates an audit log repository on the pool
func NewAuditLogRepository(db *database.DB) interfaces.AuditLogRepository {
	return &auditLogRepository{q: db.Pool}
}

// NewAuditLogRepositoryWithTx creates an audit log repository bound to a transaction
func NewAuditLogRepositoryWithTx(tx Queryable) interfaces.AuditLogRepository {
	return &auditLogRepository{q: tx}
}

// RecordBatch appends entries in one statement batch
func (r *auditLogRepository) RecordBatch(ctx context.Context, entries []*entities.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			batch.Queue(`
				INSERT INTO audit_logs (actor_id, target_id, action, detail, origin_address)
				VALUES ($1, $2, $3, $4, $5)`,
				e.ActorID, e.TargetID, e.Action, e.Detail, e.OriginAddress)
			continue
		}
		batch.Queue(`
			INSERT INTO audit_logs (actor_id, target_id, action, detail, origin_address, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ActorID, e.TargetID, e.Action, e.Detail, e.OriginAddress, e.CreatedAt)
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to record audit entry: %w", err)
		}
	}
	return nil
}
