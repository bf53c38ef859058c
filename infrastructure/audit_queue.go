package infrastructure

import (
	"context"
	"sync"
	"time"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/repository"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// AuditWriter persists one batch of audit entries
type AuditWriter interface {
	RecordBatch(ctx context.Context, entries []*entities.AuditEntry) error
}

// AuditQueue buffers committed audit entries and writes them behind the
// request path. Write failures are logged and the batch is dropped.
type AuditQueue struct {
	mu          sync.Mutex
	pending     []*entities.AuditEntry
	writer      AuditWriter
	maxBatch    int
	flushTicker *time.Ticker
	stopFlush   chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	onFailure   func(count int)
}

// NewAuditQueue creates the queue and starts its background flush
func NewAuditQueue(writer AuditWriter, flushInterval time.Duration, maxBatch int) *AuditQueue {
	if maxBatch <= 0 {
		maxBatch = 500
	}
	q := &AuditQueue{
		writer:      writer,
		maxBatch:    maxBatch,
		flushTicker: time.NewTicker(flushInterval),
		stopFlush:   make(chan struct{}),
		done:        make(chan struct{}),
	}

	go q.backgroundFlush()

	log.WithFields(log.Fields{
		"flushInterval": flushInterval,
		"maxBatch":      maxBatch,
	}).Info("Audit queue started")
	return q
}

// OnFailure registers a callback invoked with the size of each dropped batch
func (q *AuditQueue) OnFailure(fn func(count int)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onFailure = fn
}

// Enqueue adds committed entries. It never blocks on storage.
func (q *AuditQueue) Enqueue(entries ...*entities.AuditEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		q.pending = append(q.pending, e)
	}
}

// Pending returns the number of entries not yet written
func (q *AuditQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush writes everything pending in batches of at most maxBatch
func (q *AuditQueue) Flush(ctx context.Context) {
	q.mu.Lock()
	items := q.pending
	q.pending = nil
	onFailure := q.onFailure
	q.mu.Unlock()

	for len(items) > 0 {
		n := min(len(items), q.maxBatch)
		batch := items[:n]
		items = items[n:]

		if err := q.writer.RecordBatch(ctx, batch); err != nil {
			log.WithFields(log.Fields{
				"count": len(batch),
				"error": err,
			}).Error("Failed to persist audit entries")
			if onFailure != nil {
				onFailure(len(batch))
			}
			continue
		}
		log.WithField("count", len(batch)).Debug("Persisted audit entries")
	}
}

func (q *AuditQueue) backgroundFlush() {
	defer close(q.done)
	for {
		select {
		case <-q.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			q.Flush(ctx)
			cancel()
		case <-q.stopFlush:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			q.Flush(ctx)
			cancel()
			return
		}
	}
}

// Close stops the background flush after a final flush
func (q *AuditQueue) Close() error {
	q.stopOnce.Do(func() {
		q.flushTicker.Stop()
		close(q.stopFlush)
	})
	<-q.done
	return nil
}

// dbAuditWriter writes each batch in its own transaction
type dbAuditWriter struct {
	db *database.DB
}

// NewDatabaseAuditWriter creates an AuditWriter backed by PostgreSQL
func NewDatabaseAuditWriter(db *database.DB) AuditWriter {
	return &dbAuditWriter{db: db}
}

func (w *dbAuditWriter) RecordBatch(ctx context.Context, entries []*entities.AuditEntry) error {
	return w.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return repository.NewAuditLogRepositoryWithTx(tx).RecordBatch(ctx, entries)
	})
}

var _ interfaces.AuditSink = (*AuditQueue)(nil)
