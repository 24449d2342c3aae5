package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
	"condo/pkg/platform/sentinel"
)

// InMemoryStore keeps governance state in maps guarded by a RWMutex.
// RunInTx applies fn to a private copy and swaps it in only on success.
type InMemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{state: newMemState()}
}

// RunInTx runs fn against a snapshot. The snapshot replaces the live state
// only when fn returns nil, so a failed operation leaves no partial writes.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(snapshot); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

func (s *InMemoryStore) FindResidentByWallet(ctx context.Context, wallet id.Address) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindResidentByWallet(ctx, wallet)
}

func (s *InMemoryStore) FindResidentByResidence(ctx context.Context, residence id.ResidenceID) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindResidentByResidence(ctx, residence)
}

func (s *InMemoryStore) SaveResident(ctx context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SaveResident(ctx, resident)
}

func (s *InMemoryStore) DeleteResident(ctx context.Context, wallet id.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DeleteResident(ctx, wallet)
}

func (s *InMemoryStore) ListResidents(ctx context.Context, offset, limit int) ([]*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListResidents(ctx, offset, limit)
}

func (s *InMemoryStore) CountResidents(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CountResidents(ctx)
}

func (s *InMemoryStore) NextPayment(ctx context.Context, residence id.ResidenceID) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.NextPayment(ctx, residence)
}

func (s *InMemoryStore) AppendPayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AppendPayment(ctx, payment)
}

func (s *InMemoryStore) ListPayments(ctx context.Context, residence id.ResidenceID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListPayments(ctx, residence)
}

func (s *InMemoryStore) FindTopic(ctx context.Context, title string) (*models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindTopic(ctx, title)
}

func (s *InMemoryStore) CreateTopic(ctx context.Context, topic *models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CreateTopic(ctx, topic)
}

func (s *InMemoryStore) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UpdateTopic(ctx, topic)
}

func (s *InMemoryStore) DeleteTopic(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DeleteTopic(ctx, title)
}

func (s *InMemoryStore) ListTopics(ctx context.Context, offset, limit int) ([]*models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListTopics(ctx, offset, limit)
}

func (s *InMemoryStore) CountTopics(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CountTopics(ctx)
}

func (s *InMemoryStore) AppendVote(ctx context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AppendVote(ctx, vote)
}

func (s *InMemoryStore) ListVotes(ctx context.Context, title string) ([]*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListVotes(ctx, title)
}

func (s *InMemoryStore) CountVotes(ctx context.Context, title string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CountVotes(ctx, title)
}

func (s *InMemoryStore) HasVoted(ctx context.Context, title string, residence id.ResidenceID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasVoted(ctx, title, residence)
}

func (s *InMemoryStore) ClearVotes(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ClearVotes(ctx, title)
}

func (s *InMemoryStore) LoadSettings(ctx context.Context) (*models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LoadSettings(ctx)
}

func (s *InMemoryStore) SaveSettings(ctx context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SaveSettings(ctx, settings)
}

func (s *InMemoryStore) AppendTransfer(ctx context.Context, transfer *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AppendTransfer(ctx, transfer)
}

func (s *InMemoryStore) ListTransfers(ctx context.Context) ([]*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ListTransfers(ctx)
}

// memState holds the data. It is not safe for concurrent use; InMemoryStore
// serialises access to it.
type memState struct {
	residents     map[id.Address]*models.Resident
	residentOrder []id.Address
	byResidence   map[id.ResidenceID]id.Address
	nextPayment   map[id.ResidenceID]time.Time
	payments      []*models.Payment
	topics        map[string]*models.Topic
	topicOrder    []string
	votes         map[string][]*models.Vote
	settings      *models.Settings
	transfers     []*models.Transfer
}

func newMemState() *memState {
	return &memState{
		residents:   make(map[id.Address]*models.Resident),
		byResidence: make(map[id.ResidenceID]id.Address),
		nextPayment: make(map[id.ResidenceID]time.Time),
		topics:      make(map[string]*models.Topic),
		votes:       make(map[string][]*models.Vote),
	}
}

// clone copies every record. Slices of pointers are re-pointed at copies so
// the snapshot shares nothing mutable with the original.
func (m *memState) clone() *memState {
	c := &memState{
		residents:     make(map[id.Address]*models.Resident, len(m.residents)),
		residentOrder: slices.Clone(m.residentOrder),
		byResidence:   make(map[id.ResidenceID]id.Address, len(m.byResidence)),
		nextPayment:   make(map[id.ResidenceID]time.Time, len(m.nextPayment)),
		payments:      cloneAll(m.payments),
		topics:        make(map[string]*models.Topic, len(m.topics)),
		topicOrder:    slices.Clone(m.topicOrder),
		votes:         make(map[string][]*models.Vote, len(m.votes)),
		transfers:     cloneAll(m.transfers),
	}
	for k, v := range m.residents {
		c.residents[k] = clonePtr(v)
	}
	for k, v := range m.byResidence {
		c.byResidence[k] = v
	}
	for k, v := range m.nextPayment {
		c.nextPayment[k] = v
	}
	for k, v := range m.topics {
		c.topics[k] = clonePtr(v)
	}
	for k, v := range m.votes {
		c.votes[k] = cloneAll(v)
	}
	if m.settings != nil {
		c.settings = clonePtr(m.settings)
	}
	return c
}

func clonePtr[T any](v *T) *T {
	c := *v
	return &c
}

func cloneAll[T any](in []*T) []*T {
	if in == nil {
		return nil
	}
	out := make([]*T, len(in))
	for i, v := range in {
		out[i] = clonePtr(v)
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func (m *memState) FindResidentByWallet(_ context.Context, wallet id.Address) (*models.Resident, error) {
	r, ok := m.residents[wallet]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePtr(r), nil
}

func (m *memState) FindResidentByResidence(ctx context.Context, residence id.ResidenceID) (*models.Resident, error) {
	wallet, ok := m.byResidence[residence]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return m.FindResidentByWallet(ctx, wallet)
}

func (m *memState) SaveResident(_ context.Context, resident *models.Resident) error {
	record := clonePtr(resident)
	record.IsManager = false
	record.NextPayment = time.Time{}
	if existing, ok := m.residents[resident.Wallet]; ok {
		if m.byResidence[existing.Residence] == existing.Wallet {
			delete(m.byResidence, existing.Residence)
		}
		record.CreatedAt = existing.CreatedAt
	} else {
		m.residentOrder = append(m.residentOrder, resident.Wallet)
	}
	m.residents[resident.Wallet] = record
	m.byResidence[resident.Residence] = resident.Wallet
	return nil
}

func (m *memState) DeleteResident(_ context.Context, wallet id.Address) error {
	existing, ok := m.residents[wallet]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(m.residents, wallet)
	if m.byResidence[existing.Residence] == wallet {
		delete(m.byResidence, existing.Residence)
	}
	m.residentOrder = slices.DeleteFunc(m.residentOrder, func(a id.Address) bool { return a == wallet })
	return nil
}

func (m *memState) ListResidents(_ context.Context, offset, limit int) ([]*models.Resident, error) {
	out := make([]*models.Resident, 0, len(m.residentOrder))
	for _, wallet := range page(m.residentOrder, offset, limit) {
		out = append(out, clonePtr(m.residents[wallet]))
	}
	return out, nil
}

func (m *memState) CountResidents(_ context.Context) (int, error) {
	return len(m.residents), nil
}

func (m *memState) NextPayment(_ context.Context, residence id.ResidenceID) (time.Time, bool, error) {
	t, ok := m.nextPayment[residence]
	return t, ok, nil
}

func (m *memState) AppendPayment(_ context.Context, payment *models.Payment) error {
	m.payments = append(m.payments, clonePtr(payment))
	m.nextPayment[payment.Residence] = payment.NextPayment
	return nil
}

func (m *memState) ListPayments(_ context.Context, residence id.ResidenceID) ([]*models.Payment, error) {
	out := []*models.Payment{}
	for _, p := range m.payments {
		if p.Residence == residence {
			out = append(out, clonePtr(p))
		}
	}
	return out, nil
}

func (m *memState) FindTopic(_ context.Context, title string) (*models.Topic, error) {
	t, ok := m.topics[title]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePtr(t), nil
}

func (m *memState) CreateTopic(_ context.Context, topic *models.Topic) error {
	if _, ok := m.topics[topic.Title]; ok {
		return sentinel.ErrConflict
	}
	m.topics[topic.Title] = clonePtr(topic)
	m.topicOrder = append(m.topicOrder, topic.Title)
	return nil
}

func (m *memState) UpdateTopic(_ context.Context, topic *models.Topic) error {
	if _, ok := m.topics[topic.Title]; !ok {
		return sentinel.ErrNotFound
	}
	m.topics[topic.Title] = clonePtr(topic)
	return nil
}

func (m *memState) DeleteTopic(_ context.Context, title string) error {
	if _, ok := m.topics[title]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.topics, title)
	delete(m.votes, title)
	m.topicOrder = slices.DeleteFunc(m.topicOrder, func(t string) bool { return t == title })
	return nil
}

func (m *memState) ListTopics(_ context.Context, offset, limit int) ([]*models.Topic, error) {
	newest := slices.Clone(m.topicOrder)
	slices.Reverse(newest)
	out := []*models.Topic{}
	for _, title := range page(newest, offset, limit) {
		out = append(out, clonePtr(m.topics[title]))
	}
	return out, nil
}

func (m *memState) CountTopics(_ context.Context) (int, error) {
	return len(m.topics), nil
}

func (m *memState) AppendVote(_ context.Context, vote *models.Vote) error {
	for _, v := range m.votes[vote.Topic] {
		if v.Residence == vote.Residence {
			return sentinel.ErrConflict
		}
	}
	m.votes[vote.Topic] = append(m.votes[vote.Topic], clonePtr(vote))
	return nil
}

func (m *memState) ListVotes(_ context.Context, title string) ([]*models.Vote, error) {
	out := cloneAll(m.votes[title])
	if out == nil {
		out = []*models.Vote{}
	}
	return out, nil
}

func (m *memState) CountVotes(_ context.Context, title string) (int, error) {
	return len(m.votes[title]), nil
}

func (m *memState) HasVoted(_ context.Context, title string, residence id.ResidenceID) (bool, error) {
	for _, v := range m.votes[title] {
		if v.Residence == residence {
			return true, nil
		}
	}
	return false, nil
}

func (m *memState) ClearVotes(_ context.Context, title string) error {
	delete(m.votes, title)
	return nil
}

func (m *memState) LoadSettings(_ context.Context) (*models.Settings, error) {
	if m.settings == nil {
		return nil, sentinel.ErrNotFound
	}
	return clonePtr(m.settings), nil
}

func (m *memState) SaveSettings(_ context.Context, settings *models.Settings) error {
	m.settings = clonePtr(settings)
	return nil
}

func (m *memState) AppendTransfer(_ context.Context, transfer *models.Transfer) error {
	m.transfers = append(m.transfers, clonePtr(transfer))
	return nil
}

func (m *memState) ListTransfers(_ context.Context) ([]*models.Transfer, error) {
	out := cloneAll(m.transfers)
	if out == nil {
		out = []*models.Transfer{}
	}
	return out, nil
}
