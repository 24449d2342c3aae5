// Package adapter is the stable entry point in front of the governance
// engine. It forwards every call to the current implementation, which the
// owner can swap at runtime, and publishes notifications after writes.
package adapter

import (
	"context"
	"sort"
	"sync"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
)

// Governance is the full engine surface an implementation must expose.
type Governance interface {
	Address() id.Address

	AddResident(ctx context.Context, caller, wallet id.Address, res id.ResidenceID) (*models.Resident, error)
	RemoveResident(ctx context.Context, caller, wallet id.Address) error
	SetCounselor(ctx context.Context, caller, wallet id.Address, counselor bool) (*models.Resident, error)
	GetResident(ctx context.Context, wallet id.Address) (*models.Resident, error)
	GetResidents(ctx context.Context, page, pageSize int) (*models.ResidentPage, error)
	IsResident(ctx context.Context, wallet id.Address) (bool, error)
	GetManager(ctx context.Context) (id.Address, error)

	PayQuota(ctx context.Context, payer id.Address, res id.ResidenceID, value models.Amount) (*models.Payment, error)
	IsDefaulter(ctx context.Context, res id.ResidenceID) (bool, error)
	MonthlyQuota(ctx context.Context) (models.Amount, error)
	GetPayments(ctx context.Context, res id.ResidenceID) ([]*models.Payment, error)

	AddTopic(ctx context.Context, caller id.Address, draft models.TopicDraft) (*models.Topic, error)
	EditTopic(ctx context.Context, caller id.Address, title string, patch models.TopicPatch) (*models.Topic, error)
	RemoveTopic(ctx context.Context, caller id.Address, title string) error
	GetTopic(ctx context.Context, title string) (*models.Topic, error)
	TopicExists(ctx context.Context, title string) (bool, error)
	GetTopics(ctx context.Context, page, pageSize int) (*models.TopicPage, error)

	OpenVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error)
	Vote(ctx context.Context, caller id.Address, title string, option models.Option) (*models.Vote, error)
	CloseVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error)
	NumberOfVotes(ctx context.Context, title string) (int, error)
	GetVotes(ctx context.Context, title string) ([]*models.Vote, error)

	Transfer(ctx context.Context, caller id.Address, title string, amount models.Amount) (*models.Transfer, error)
	Balance(ctx context.Context) (models.Amount, error)
	GetTransfers(ctx context.Context) ([]*models.Transfer, error)
}

// ErrUnknownImplementation is returned when upgrading to an address nothing
// was registered under.
var ErrUnknownImplementation = dErrors.New(dErrors.CodeNotFound, "Unknown implementation")

// Registry maps implementation addresses to live engines.
type Registry struct {
	mu    sync.RWMutex
	impls map[id.Address]Governance
}

func NewRegistry(impls ...Governance) (*Registry, error) {
	r := &Registry{impls: make(map[id.Address]Governance)}
	for _, impl := range impls {
		if err := r.Register(impl); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register makes impl available to Upgrade under its own address. A later
// registration for the same address replaces the earlier one.
func (r *Registry) Register(impl Governance) error {
	if impl == nil || impl.Address().IsZero() {
		return models.ErrInvalidAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impls[impl.Address()] = impl
	return nil
}

func (r *Registry) Lookup(addr id.Address) (Governance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.impls[addr]
	return impl, ok
}

// Addresses lists registered implementations in checksum order.
func (r *Registry) Addresses() []id.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]id.Address, 0, len(r.impls))
	for addr := range r.impls {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
