// Package store persists governance state. Implementations return
// sentinel.ErrNotFound and sentinel.ErrConflict for the facts the service
// translates into domain errors.
package store

import (
	"context"
	"time"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
)

// Store is the data access surface the governance service consumes.
type Store interface {
	FindResidentByWallet(ctx context.Context, wallet id.Address) (*models.Resident, error)
	FindResidentByResidence(ctx context.Context, residence id.ResidenceID) (*models.Resident, error)
	// SaveResident inserts or replaces the record keyed by wallet. A replaced
	// record keeps its listing position and creation time.
	SaveResident(ctx context.Context, resident *models.Resident) error
	DeleteResident(ctx context.Context, wallet id.Address) error
	// ListResidents returns residents in registration order.
	ListResidents(ctx context.Context, offset, limit int) ([]*models.Resident, error)
	CountResidents(ctx context.Context) (int, error)

	// NextPayment returns the due date for residence; ok is false if it never paid.
	NextPayment(ctx context.Context, residence id.ResidenceID) (time.Time, bool, error)
	// AppendPayment records the payment and moves the residence's due date to
	// payment.NextPayment.
	AppendPayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, residence id.ResidenceID) ([]*models.Payment, error)

	FindTopic(ctx context.Context, title string) (*models.Topic, error)
	CreateTopic(ctx context.Context, topic *models.Topic) error
	UpdateTopic(ctx context.Context, topic *models.Topic) error
	DeleteTopic(ctx context.Context, title string) error
	// ListTopics returns topics newest first.
	ListTopics(ctx context.Context, offset, limit int) ([]*models.Topic, error)
	CountTopics(ctx context.Context) (int, error)

	// AppendVote returns sentinel.ErrConflict if the residence already voted.
	AppendVote(ctx context.Context, vote *models.Vote) error
	ListVotes(ctx context.Context, title string) ([]*models.Vote, error)
	CountVotes(ctx context.Context, title string) (int, error)
	HasVoted(ctx context.Context, title string, residence id.ResidenceID) (bool, error)
	ClearVotes(ctx context.Context, title string) error

	// LoadSettings returns sentinel.ErrNotFound before the first SaveSettings.
	LoadSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error

	AppendTransfer(ctx context.Context, transfer *models.Transfer) error
	ListTransfers(ctx context.Context) ([]*models.Transfer, error)
}

// Tx provides the transactional boundary for governance mutations. Either all
// writes made through the store passed to fn persist, or none do.
type Tx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// TxStore is a store that can also open transactions.
type TxStore interface {
	Store
	Tx
}
