package testhelpers

import (
	"context"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Account, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByTurmaForUpdate(ctx context.Context, turma string) ([]*entities.Account, error) {
	args := m.Called(ctx, turma)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *entities.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, id int64, balance, maxBalance int64) error {
	args := m.Called(ctx, id, balance, maxBalance)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateInflow(ctx context.Context, id int64, receivedThisYear int64, year int) error {
	args := m.Called(ctx, id, receivedThisYear, year)
	return args.Error(0)
}

func (m *MockAccountRepository) UpsertBuff(ctx context.Context, accountID int64, buff entities.Buff) error {
	args := m.Called(ctx, accountID, buff)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) ListByOwnerForUpdate(ctx context.Context, owner entities.ContainerRef) ([]*entities.InventorySlot, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.InventorySlot), args.Error(1)
}

func (m *MockInventoryRepository) Create(ctx context.Context, slot *entities.InventorySlot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *MockInventoryRepository) UpdateCounts(ctx context.Context, slot *entities.InventorySlot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *MockInventoryRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInventoryRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditLogRepository is a mock implementation of AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) RecordBatch(ctx context.Context, entries []*entities.AuditEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) GetPublicStats(ctx context.Context) (*entities.PublicStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PublicStats), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockCredentialVerifier is a mock implementation of CredentialVerifier
type MockCredentialVerifier struct {
	mock.Mock
}

func (m *MockCredentialVerifier) Verify(ctx context.Context, accountID int64, credential string) error {
	args := m.Called(ctx, accountID, credential)
	return args.Error(0)
}

// RecordingAuditSink collects enqueued audit entries
type RecordingAuditSink struct {
	Entries []*entities.AuditEntry
}

func (s *RecordingAuditSink) Enqueue(entries ...*entities.AuditEntry) {
	s.Entries = append(s.Entries, entries...)
}

// SequenceRandom replays a fixed list of draws, cycling when exhausted
type SequenceRandom struct {
	Values []float64
	next   int
}

func (r *SequenceRandom) Float64() float64 {
	v := r.Values[r.next%len(r.Values)]
	r.next++
	return v
}
