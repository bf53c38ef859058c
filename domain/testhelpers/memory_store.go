package testhelpers

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/events"
	"pcbank/domain/interfaces"
)

// StoreState is the full contents of a MemoryStore. Two states compare equal
// with assert.Equal when every row matches. Every table draws ids from its
// own sequence, like the serial columns of the migrations.
type StoreState struct {
	Sequences  map[string]int64
	Accounts   map[int64]*entities.Account
	Ledger     []*entities.LedgerEntry
	Slots      map[int64]*entities.InventorySlot
	Classrooms map[int64]*entities.Classroom
	Catalog    map[int64]*entities.CatalogItem
	Legacy     map[int64]*entities.LegacyCatalogItem
	Tickets    map[int64]*entities.Ticket
	Listings   map[int64]*entities.MarketListing
	Trades     map[int64]*entities.Trade
	Loans      map[int64]*entities.Loan
	Roulettes  map[int64]*entities.Roulette
	Gifts      map[int64]*entities.Gift
}

func newStoreState() *StoreState {
	return &StoreState{
		Sequences:  map[string]int64{},
		Accounts:   map[int64]*entities.Account{},
		Slots:      map[int64]*entities.InventorySlot{},
		Classrooms: map[int64]*entities.Classroom{},
		Catalog:    map[int64]*entities.CatalogItem{},
		Legacy:     map[int64]*entities.LegacyCatalogItem{},
		Tickets:    map[int64]*entities.Ticket{},
		Listings:   map[int64]*entities.MarketListing{},
		Trades:     map[int64]*entities.Trade{},
		Loans:      map[int64]*entities.Loan{},
		Roulettes:  map[int64]*entities.Roulette{},
		Gifts:      map[int64]*entities.Gift{},
	}
}

func (s *StoreState) nextID(table string) int64 {
	s.Sequences[table]++
	return s.Sequences[table]
}

func (s *StoreState) clone() *StoreState {
	c := &StoreState{
		Sequences:  maps.Clone(s.Sequences),
		Accounts:   cloneMap(s.Accounts, copyAccount),
		Slots:      cloneMap(s.Slots, copySlot),
		Classrooms: cloneMap(s.Classrooms, copyPtr[entities.Classroom]),
		Catalog:    cloneMap(s.Catalog, copyPtr[entities.CatalogItem]),
		Legacy:     cloneMap(s.Legacy, copyPtr[entities.LegacyCatalogItem]),
		Tickets:    cloneMap(s.Tickets, copyPtr[entities.Ticket]),
		Listings:   cloneMap(s.Listings, copyPtr[entities.MarketListing]),
		Trades:     cloneMap(s.Trades, copyTrade),
		Loans:      cloneMap(s.Loans, copyPtr[entities.Loan]),
		Roulettes:  cloneMap(s.Roulettes, copyRoulette),
		Gifts:      cloneMap(s.Gifts, copyGift),
	}
	c.Ledger = make([]*entities.LedgerEntry, len(s.Ledger))
	for i, e := range s.Ledger {
		c.Ledger[i] = copyPtr(e)
	}
	return c
}

func cloneMap[V any](m map[int64]*V, cp func(*V) *V) map[int64]*V {
	out := make(map[int64]*V, len(m))
	for k, v := range m {
		out[k] = cp(v)
	}
	return out
}

func copyPtr[T any](v *T) *T {
	c := *v
	return &c
}

func copyAccount(a *entities.Account) *entities.Account {
	c := *a
	c.Cargos = slices.Clone(a.Cargos)
	c.Buffs = slices.Clone(a.Buffs)
	return &c
}

func copySlot(s *entities.InventorySlot) *entities.InventorySlot {
	c := *s
	return &c
}

func copyTrade(t *entities.Trade) *entities.Trade {
	c := *t
	c.InitiatorOffer.Items = slices.Clone(t.InitiatorOffer.Items)
	c.TargetOffer.Items = slices.Clone(t.TargetOffer.Items)
	return &c
}

func copyRoulette(r *entities.Roulette) *entities.Roulette {
	c := *r
	c.Prizes = slices.Clone(r.Prizes)
	return &c
}

func copyGift(g *entities.Gift) *entities.Gift {
	c := *g
	if g.Item != nil {
		item := *g.Item
		c.Item = &item
	}
	return &c
}

// MemoryStore is an in-memory transactional store implementing every
// repository. A unit of work holds the store lock from Begin until Commit or
// Rollback, so units of work run one at a time, and works on a private copy
// of the state that replaces the committed state only on Commit.
type MemoryStore struct {
	mu        sync.Mutex
	txLock    sync.Mutex
	state     *StoreState
	published []events.Event
	audited   []*entities.AuditEntry
	commitErr error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newStoreState()}
}

// Create returns a new unit of work over the store
func (s *MemoryStore) Create() interfaces.UnitOfWork {
	return &memoryUnitOfWork{store: s}
}

// FailNextCommit makes the next Commit return err without applying the changes
func (s *MemoryStore) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// Snapshot returns a deep copy of the committed state
func (s *MemoryStore) Snapshot() *StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Published returns the events released by committed units of work
func (s *MemoryStore) Published() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.published)
}

// Audited returns the audit entries released by committed units of work
func (s *MemoryStore) Audited() []*entities.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audited)
}

func (s *MemoryStore) seed(fn func(st *StoreState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// AddAccount stores a copy of the account and sets its ID
func (s *MemoryStore) AddAccount(a *entities.Account) *entities.Account {
	s.seed(func(st *StoreState) {
		a.ID = st.nextID("accounts")
		st.Accounts[a.ID] = copyAccount(a)
	})
	return a
}

// AddClassroom stores a copy of the classroom and sets its ID
func (s *MemoryStore) AddClassroom(c *entities.Classroom) *entities.Classroom {
	s.seed(func(st *StoreState) {
		c.ID = st.nextID("classrooms")
		st.Classrooms[c.ID] = copyPtr(c)
	})
	return c
}

// AddCatalogItem stores a copy of the item and sets its ID
func (s *MemoryStore) AddCatalogItem(item *entities.CatalogItem) *entities.CatalogItem {
	s.seed(func(st *StoreState) {
		item.ID = st.nextID("items")
		st.Catalog[item.ID] = copyPtr(item)
	})
	return item
}

// AddLegacyItem stores a copy of a legacy catalog entry and sets its ID
func (s *MemoryStore) AddLegacyItem(item *entities.LegacyCatalogItem) *entities.LegacyCatalogItem {
	s.seed(func(st *StoreState) {
		item.ID = st.nextID("legacy_items")
		st.Legacy[item.ID] = copyPtr(item)
	})
	return item
}

// AddSlot stores a copy of the slot and sets its ID
func (s *MemoryStore) AddSlot(slot *entities.InventorySlot) *entities.InventorySlot {
	s.seed(func(st *StoreState) {
		slot.ID = st.nextID("inventory")
		st.Slots[slot.ID] = copySlot(slot)
	})
	return slot
}

// PutSlot overwrites the stored slot with the same ID
func (s *MemoryStore) PutSlot(slot *entities.InventorySlot) {
	s.seed(func(st *StoreState) {
		st.Slots[slot.ID] = copySlot(slot)
	})
}

// AddRoulette stores a copy of the roulette and its prizes and sets their IDs
func (s *MemoryStore) AddRoulette(r *entities.Roulette) *entities.Roulette {
	s.seed(func(st *StoreState) {
		r.ID = st.nextID("roulettes")
		for i := range r.Prizes {
			r.Prizes[i].ID = st.nextID("roulette_prizes")
			r.Prizes[i].RouletteID = r.ID
			r.Prizes[i].Position = i
		}
		st.Roulettes[r.ID] = copyRoulette(r)
	})
	return r
}

// AddGift stores a copy of the gift and sets its ID
func (s *MemoryStore) AddGift(g *entities.Gift) *entities.Gift {
	s.seed(func(st *StoreState) {
		g.ID = st.nextID("gifts")
		st.Gifts[g.ID] = copyGift(g)
	})
	return g
}

// AddLoan stores a copy of the loan and sets its ID
func (s *MemoryStore) AddLoan(l *entities.Loan) *entities.Loan {
	s.seed(func(st *StoreState) {
		l.ID = st.nextID("loans")
		st.Loans[l.ID] = copyPtr(l)
	})
	return l
}

// Account returns a copy of the committed account, or nil
func (s *MemoryStore) Account(id int64) *entities.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.state.Accounts[id]; ok {
		return copyAccount(a)
	}
	return nil
}

// SlotsOf returns copies of every committed slot of a container in id order
func (s *MemoryStore) SlotsOf(owner entities.ContainerRef) []*entities.InventorySlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slotsOf(s.state, owner)
}

// Ticket returns a copy of the committed ticket, or nil
func (s *MemoryStore) Ticket(id int64) *entities.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.state.Tickets[id]; ok {
		return copyPtr(t)
	}
	return nil
}

// Listing returns a copy of the committed listing, or nil
func (s *MemoryStore) Listing(id int64) *entities.MarketListing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.state.Listings[id]; ok {
		return copyPtr(l)
	}
	return nil
}

// Trade returns a copy of the committed trade, or nil
func (s *MemoryStore) Trade(id int64) *entities.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.state.Trades[id]; ok {
		return copyTrade(t)
	}
	return nil
}

// Loan returns a copy of the committed loan, or nil
func (s *MemoryStore) Loan(id int64) *entities.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.state.Loans[id]; ok {
		return copyPtr(l)
	}
	return nil
}

// CatalogItem returns a copy of the committed catalog item, or nil
func (s *MemoryStore) CatalogItem(id int64) *entities.CatalogItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.state.Catalog[id]; ok {
		return copyPtr(c)
	}
	return nil
}

// Gift returns a copy of the committed gift, or nil
func (s *MemoryStore) Gift(id int64) *entities.Gift {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.state.Gifts[id]; ok {
		return copyGift(g)
	}
	return nil
}

// Tickets returns copies of every committed ticket in id order
func (s *MemoryStore) Tickets() []*entities.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.Ticket, 0, len(s.state.Tickets))
	for _, id := range slices.Sorted(maps.Keys(s.state.Tickets)) {
		out = append(out, copyPtr(s.state.Tickets[id]))
	}
	return out
}

// TotalCurrency sums every committed balance
func (s *MemoryStore) TotalCurrency() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, a := range s.state.Accounts {
		total += a.Balance
	}
	return total
}

func slotsOf(st *StoreState, owner entities.ContainerRef) []*entities.InventorySlot {
	out := make([]*entities.InventorySlot, 0)
	for _, slot := range st.Slots {
		if slot.Owner == owner {
			out = append(out, copySlot(slot))
		}
	}
	slices.SortFunc(out, func(a, b *entities.InventorySlot) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// memoryUnitOfWork mirrors the Postgres unit of work over a MemoryStore
type memoryUnitOfWork struct {
	store     *MemoryStore
	tx        *StoreState
	events    []events.Event
	audit     []*entities.AuditEntry
	committed bool
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("transaction already started")
	}
	u.store.txLock.Lock()
	u.store.mu.Lock()
	u.tx = u.store.state.clone()
	u.store.mu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if u.tx == nil {
		return errors.New("no transaction to commit")
	}
	if u.committed {
		return errors.New("transaction already committed")
	}
	u.store.mu.Lock()
	if err := u.store.commitErr; err != nil {
		u.store.commitErr = nil
		u.store.mu.Unlock()
		return err
	}
	u.store.state = u.tx
	u.store.published = append(u.store.published, u.events...)
	u.store.audited = append(u.store.audited, u.audit...)
	u.store.mu.Unlock()
	u.committed = true
	u.store.txLock.Unlock()
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.tx == nil || u.committed {
		return nil
	}
	u.tx = nil
	u.events = nil
	u.audit = nil
	u.committed = true
	u.store.txLock.Unlock()
	return nil
}

func (u *memoryUnitOfWork) state() *StoreState {
	if u.tx == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.tx
}

func (u *memoryUnitOfWork) AccountRepository() interfaces.AccountRepository {
	return &memAccountRepo{u: u}
}
func (u *memoryUnitOfWork) LedgerRepository() interfaces.LedgerRepository {
	return &memLedgerRepo{u: u}
}
func (u *memoryUnitOfWork) InventoryRepository() interfaces.InventoryRepository {
	return &memInventoryRepo{u: u}
}
func (u *memoryUnitOfWork) ClassroomRepository() interfaces.ClassroomRepository {
	return &memClassroomRepo{u: u}
}
func (u *memoryUnitOfWork) CatalogRepository() interfaces.CatalogRepository {
	return &memCatalogRepo{u: u}
}
func (u *memoryUnitOfWork) TicketRepository() interfaces.TicketRepository {
	return &memTicketRepo{u: u}
}
func (u *memoryUnitOfWork) MarketListingRepository() interfaces.MarketListingRepository {
	return &memListingRepo{u: u}
}
func (u *memoryUnitOfWork) TradeRepository() interfaces.TradeRepository {
	return &memTradeRepo{u: u}
}
func (u *memoryUnitOfWork) LoanRepository() interfaces.LoanRepository {
	return &memLoanRepo{u: u}
}
func (u *memoryUnitOfWork) RouletteRepository() interfaces.RouletteRepository {
	return &memRouletteRepo{u: u}
}
func (u *memoryUnitOfWork) GiftRepository() interfaces.GiftRepository {
	return &memGiftRepo{u: u}
}
func (u *memoryUnitOfWork) EventBus() interfaces.EventPublisher {
	return memEventBus{u: u}
}
func (u *memoryUnitOfWork) AuditLog() interfaces.AuditRecorder {
	return memAuditRecorder{u: u}
}

type memEventBus struct{ u *memoryUnitOfWork }

func (b memEventBus) Publish(event events.Event) error {
	b.u.events = append(b.u.events, event)
	return nil
}

type memAuditRecorder struct{ u *memoryUnitOfWork }

func (r memAuditRecorder) Record(entry *entities.AuditEntry) {
	r.u.audit = append(r.u.audit, entry)
}

type memAccountRepo struct{ u *memoryUnitOfWork }

// GetByID fails on a done context the way a pgx query does
func (r *memAccountRepo) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a, ok := r.u.state().Accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, nil
}

func (r *memAccountRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *memAccountRepo) GetByExternalID(ctx context.Context, externalID string) (*entities.Account, error) {
	for _, a := range r.u.state().Accounts {
		if a.ExternalID == externalID {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) ListByTurmaForUpdate(ctx context.Context, turma string) ([]*entities.Account, error) {
	out := make([]*entities.Account, 0)
	key := entities.NormalizeClassroomName(turma)
	for _, a := range r.u.state().Accounts {
		if key != "" && entities.NormalizeClassroomName(a.Turma) == key {
			out = append(out, copyAccount(a))
		}
	}
	slices.SortFunc(out, func(a, b *entities.Account) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *memAccountRepo) Create(ctx context.Context, account *entities.Account) error {
	st := r.u.state()
	for _, a := range st.Accounts {
		if a.ExternalID == account.ExternalID {
			return fmt.Errorf("duplicate external id %q", account.ExternalID)
		}
	}
	account.ID = st.nextID("accounts")
	st.Accounts[account.ID] = copyAccount(account)
	return nil
}

func (r *memAccountRepo) UpdateBalance(ctx context.Context, id int64, balance, maxBalance int64) error {
	a, ok := r.u.state().Accounts[id]
	if !ok {
		return fmt.Errorf("account %d not found", id)
	}
	if balance < 0 {
		return fmt.Errorf("balance of account %d would be negative", id)
	}
	a.Balance = balance
	a.MaxBalance = maxBalance
	return nil
}

func (r *memAccountRepo) UpdateInflow(ctx context.Context, id int64, receivedThisYear int64, year int) error {
	a, ok := r.u.state().Accounts[id]
	if !ok {
		return fmt.Errorf("account %d not found", id)
	}
	a.ReceivedThisYear = receivedThisYear
	a.ReceivedYear = year
	return nil
}

func (r *memAccountRepo) UpsertBuff(ctx context.Context, accountID int64, buff entities.Buff) error {
	a, ok := r.u.state().Accounts[accountID]
	if !ok {
		return fmt.Errorf("account %d not found", accountID)
	}
	a.Buffs = slices.DeleteFunc(a.Buffs, func(b entities.Buff) bool { return b.Effect == buff.Effect })
	a.Buffs = append(a.Buffs, buff)
	return nil
}

type memLedgerRepo struct{ u *memoryUnitOfWork }

func (r *memLedgerRepo) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	st := r.u.state()
	entry.ID = st.nextID("transactions")
	st.Ledger = append(st.Ledger, copyPtr(entry))
	return nil
}

func (r *memLedgerRepo) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	out := make([]*entities.LedgerEntry, 0)
	ledger := r.u.state().Ledger
	for i := len(ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if ledger[i].AccountID == accountID {
			out = append(out, copyPtr(ledger[i]))
		}
	}
	return out, nil
}

type memInventoryRepo struct{ u *memoryUnitOfWork }

func (r *memInventoryRepo) ListByOwnerForUpdate(ctx context.Context, owner entities.ContainerRef) ([]*entities.InventorySlot, error) {
	return slotsOf(r.u.state(), owner), nil
}

func (r *memInventoryRepo) Create(ctx context.Context, slot *entities.InventorySlot) error {
	if slot.Category.UsesCharges() {
		if slot.UsesRemaining < 0 {
			return fmt.Errorf("slot charges must not be negative")
		}
	} else if slot.Quantity <= 0 {
		return fmt.Errorf("slot quantity must be positive")
	}
	st := r.u.state()
	slot.ID = st.nextID("inventory")
	st.Slots[slot.ID] = copySlot(slot)
	return nil
}

func (r *memInventoryRepo) UpdateCounts(ctx context.Context, slot *entities.InventorySlot) error {
	stored, ok := r.u.state().Slots[slot.ID]
	if !ok {
		return fmt.Errorf("slot %d not found", slot.ID)
	}
	if !slot.Category.UsesCharges() && slot.Quantity <= 0 {
		return fmt.Errorf("slot quantity must be positive")
	}
	stored.Quantity = slot.Quantity
	stored.UsesRemaining = slot.UsesRemaining
	return nil
}

func (r *memInventoryRepo) Delete(ctx context.Context, id int64) error {
	delete(r.u.state().Slots, id)
	return nil
}

func (r *memInventoryRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	st := r.u.state()
	for id, slot := range st.Slots {
		if slot.ExpiresAt != nil && slot.ExpiresAt.Before(cutoff) {
			delete(st.Slots, id)
			n++
		}
	}
	return n, nil
}

type memClassroomRepo struct{ u *memoryUnitOfWork }

func (r *memClassroomRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Classroom, error) {
	if c, ok := r.u.state().Classrooms[id]; ok {
		return copyPtr(c), nil
	}
	return nil, nil
}

func (r *memClassroomRepo) List(ctx context.Context) ([]*entities.Classroom, error) {
	st := r.u.state()
	out := make([]*entities.Classroom, 0, len(st.Classrooms))
	for _, id := range slices.Sorted(maps.Keys(st.Classrooms)) {
		out = append(out, copyPtr(st.Classrooms[id]))
	}
	return out, nil
}

type memCatalogRepo struct{ u *memoryUnitOfWork }

func (r *memCatalogRepo) GetByID(ctx context.Context, id int64) (*entities.CatalogItem, error) {
	if c, ok := r.u.state().Catalog[id]; ok {
		return copyPtr(c), nil
	}
	return nil, nil
}

func (r *memCatalogRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.CatalogItem, error) {
	return r.GetByID(ctx, id)
}

func (r *memCatalogRepo) GetByName(ctx context.Context, name string) (*entities.CatalogItem, error) {
	st := r.u.state()
	for _, id := range slices.Sorted(maps.Keys(st.Catalog)) {
		if strings.EqualFold(st.Catalog[id].Name, name) {
			return copyPtr(st.Catalog[id]), nil
		}
	}
	return nil, nil
}

func (r *memCatalogRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	c, ok := r.u.state().Catalog[id]
	if !ok {
		return fmt.Errorf("catalog item %d not found", id)
	}
	if stock < 0 {
		return fmt.Errorf("stock of catalog item %d would be negative", id)
	}
	c.Stock = stock
	return nil
}

func (r *memCatalogRepo) GetLegacyByName(ctx context.Context, name string) (*entities.LegacyCatalogItem, error) {
	for _, l := range r.u.state().Legacy {
		if strings.EqualFold(l.Name, name) {
			return copyPtr(l), nil
		}
	}
	return nil, nil
}

type memTicketRepo struct{ u *memoryUnitOfWork }

func (r *memTicketRepo) Create(ctx context.Context, ticket *entities.Ticket) error {
	exists, _ := r.CodeExists(ctx, ticket.Code)
	if exists {
		return fmt.Errorf("duplicate ticket code %q", ticket.Code)
	}
	st := r.u.state()
	ticket.ID = st.nextID("tickets")
	st.Tickets[ticket.ID] = copyPtr(ticket)
	return nil
}

func (r *memTicketRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Ticket, error) {
	if t, ok := r.u.state().Tickets[id]; ok {
		return copyPtr(t), nil
	}
	return nil, nil
}

func (r *memTicketRepo) GetByCodeForUpdate(ctx context.Context, code string) (*entities.Ticket, error) {
	for _, t := range r.u.state().Tickets {
		if strings.EqualFold(t.Code, code) {
			return copyPtr(t), nil
		}
	}
	return nil, nil
}

func (r *memTicketRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	t, _ := r.GetByCodeForUpdate(ctx, code)
	return t != nil, nil
}

func (r *memTicketRepo) Update(ctx context.Context, ticket *entities.Ticket) error {
	st := r.u.state()
	if _, ok := st.Tickets[ticket.ID]; !ok {
		return fmt.Errorf("ticket %d not found", ticket.ID)
	}
	st.Tickets[ticket.ID] = copyPtr(ticket)
	return nil
}

func (r *memTicketRepo) Delete(ctx context.Context, id int64) error {
	delete(r.u.state().Tickets, id)
	return nil
}

type memListingRepo struct{ u *memoryUnitOfWork }

func (r *memListingRepo) Create(ctx context.Context, listing *entities.MarketListing) error {
	st := r.u.state()
	listing.ID = st.nextID("market_listings")
	st.Listings[listing.ID] = copyPtr(listing)
	return nil
}

func (r *memListingRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.MarketListing, error) {
	if l, ok := r.u.state().Listings[id]; ok {
		return copyPtr(l), nil
	}
	return nil, nil
}

func (r *memListingRepo) Update(ctx context.Context, listing *entities.MarketListing) error {
	st := r.u.state()
	if _, ok := st.Listings[listing.ID]; !ok {
		return fmt.Errorf("listing %d not found", listing.ID)
	}
	st.Listings[listing.ID] = copyPtr(listing)
	return nil
}

type memTradeRepo struct{ u *memoryUnitOfWork }

func (r *memTradeRepo) Create(ctx context.Context, trade *entities.Trade) error {
	st := r.u.state()
	trade.ID = st.nextID("trades")
	st.Trades[trade.ID] = copyTrade(trade)
	return nil
}

func (r *memTradeRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Trade, error) {
	if t, ok := r.u.state().Trades[id]; ok {
		return copyTrade(t), nil
	}
	return nil, nil
}

func (r *memTradeRepo) Update(ctx context.Context, trade *entities.Trade) error {
	st := r.u.state()
	if _, ok := st.Trades[trade.ID]; !ok {
		return fmt.Errorf("trade %d not found", trade.ID)
	}
	st.Trades[trade.ID] = copyTrade(trade)
	return nil
}

type memLoanRepo struct{ u *memoryUnitOfWork }

func (r *memLoanRepo) Create(ctx context.Context, loan *entities.Loan) error {
	st := r.u.state()
	for _, l := range st.Loans {
		if l.BorrowerID == loan.BorrowerID && l.IsActive() {
			return fmt.Errorf("borrower %d already has an active loan", loan.BorrowerID)
		}
	}
	loan.ID = st.nextID("loans")
	st.Loans[loan.ID] = copyPtr(loan)
	return nil
}

func (r *memLoanRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Loan, error) {
	if l, ok := r.u.state().Loans[id]; ok {
		return copyPtr(l), nil
	}
	return nil, nil
}

func (r *memLoanRepo) GetActiveByBorrowerForUpdate(ctx context.Context, borrowerID int64) (*entities.Loan, error) {
	for _, l := range r.u.state().Loans {
		if l.BorrowerID == borrowerID && l.IsActive() {
			return copyPtr(l), nil
		}
	}
	return nil, nil
}

func (r *memLoanRepo) Update(ctx context.Context, loan *entities.Loan) error {
	st := r.u.state()
	if _, ok := st.Loans[loan.ID]; !ok {
		return fmt.Errorf("loan %d not found", loan.ID)
	}
	st.Loans[loan.ID] = copyPtr(loan)
	return nil
}

func (r *memLoanRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, l := range r.u.state().Loans {
		if l.Status == entities.LoanStatusPending && l.DueAt.Before(now) {
			l.Status = entities.LoanStatusOverdue
			n++
		}
	}
	return n, nil
}

type memRouletteRepo struct{ u *memoryUnitOfWork }

func (r *memRouletteRepo) GetWithPrizes(ctx context.Context, id int64) (*entities.Roulette, error) {
	if ro, ok := r.u.state().Roulettes[id]; ok {
		return copyRoulette(ro), nil
	}
	return nil, nil
}

type memGiftRepo struct{ u *memoryUnitOfWork }

func (r *memGiftRepo) Create(ctx context.Context, gift *entities.Gift) error {
	st := r.u.state()
	gift.ID = st.nextID("gifts")
	st.Gifts[gift.ID] = copyGift(gift)
	return nil
}

func (r *memGiftRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Gift, error) {
	if g, ok := r.u.state().Gifts[id]; ok {
		return copyGift(g), nil
	}
	return nil, nil
}

func (r *memGiftRepo) Update(ctx context.Context, gift *entities.Gift) error {
	st := r.u.state()
	if _, ok := st.Gifts[gift.ID]; !ok {
		return fmt.Errorf("gift %d not found", gift.ID)
	}
	st.Gifts[gift.ID] = copyGift(gift)
	return nil
}
