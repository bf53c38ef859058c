package entities

import "time"

// AuditEntry is one append-only audit record
type AuditEntry struct {
	ID            int64       `db:"id"`
	ActorID       int64       `db:"actor_id"`
	TargetID      *int64      `db:"target_id"`
	Action        AuditAction `db:"action"`
	Detail        string      `db:"detail"`
	OriginAddress string      `db:"origin_address"`
	CreatedAt     time.Time   `db:"created_at"`
}
