package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so stores
// and sinks can apply different retention.
type EventCategory string

const (
	// CategoryGovernance covers decisions that change who governs the
	// condominium or how: membership, roles, votes, settings.
	CategoryGovernance EventCategory = "governance"

	// CategoryFinancial covers every movement of treasury funds.
	CategoryFinancial EventCategory = "financial"

	// CategorySecurity covers access violations and implementation swaps.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Actor is the wallet that performed the action, EIP-55 encoded.
	Actor     string
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
}

type AuditEvent string

const (
	// Directory events
	EventResidentAdded   AuditEvent = "resident_added"
	EventResidentRemoved AuditEvent = "resident_removed"
	EventCounselorSet    AuditEvent = "counselor_set"

	// Topic events
	EventTopicAdded   AuditEvent = "topic_added"
	EventTopicEdited  AuditEvent = "topic_edited"
	EventTopicRemoved AuditEvent = "topic_removed"

	// Voting events
	EventVotingOpened AuditEvent = "voting_opened"
	EventVoteCast     AuditEvent = "vote_cast"
	EventVotingClosed AuditEvent = "voting_closed"

	// Settings changed by an approved topic
	EventManagerChanged AuditEvent = "manager_changed"
	EventQuotaChanged   AuditEvent = "quota_changed"

	// Treasury events
	EventQuotaPaid        AuditEvent = "quota_paid"
	EventTransferExecuted AuditEvent = "transfer_executed"

	// Platform events
	EventAdapterUpgraded   AuditEvent = "adapter_upgraded"
	EventRateLimitExceeded AuditEvent = "rate_limit_exceeded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventResidentAdded:   CategoryGovernance,
	EventResidentRemoved: CategoryGovernance,
	EventCounselorSet:    CategoryGovernance,
	EventTopicAdded:      CategoryGovernance,
	EventTopicRemoved:    CategoryGovernance,
	EventVotingOpened:    CategoryGovernance,
	EventVotingClosed:    CategoryGovernance,
	EventManagerChanged:  CategoryGovernance,
	EventQuotaChanged:    CategoryGovernance,

	EventQuotaPaid:        CategoryFinancial,
	EventTransferExecuted: CategoryFinancial,

	EventAdapterUpgraded:   CategorySecurity,
	EventRateLimitExceeded: CategorySecurity,

	EventTopicEdited: CategoryOperations,
	EventVoteCast:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
