package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"condo/internal/governance/models"
	"condo/internal/governance/residence"
	"condo/internal/governance/store"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	audit "condo/pkg/platform/audit"
	"condo/pkg/platform/sentinel"
)

// OpenVoting moves an IDLE topic to VOTING with an empty ballot box.
func (s *Service) OpenVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error) {
	var opened *models.Topic
	err := s.mutate(ctx, "open_voting", func(ctx context.Context, tx store.Store) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if caller != settings.Manager {
			return models.ErrOnlyManager
		}
		topic, err := findTopic(ctx, tx, title)
		if err != nil {
			return err
		}
		if topic.Status != models.StatusIdle {
			return models.ErrOpenNotIdle
		}

		if err := tx.ClearVotes(ctx, title); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear votes")
		}
		topic.Status = models.StatusVoting
		topic.StartedAt = now(ctx)
		topic.Votes = 0
		if err := tx.UpdateTopic(ctx, topic); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update topic")
		}
		opened = topic
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventVotingOpened,
		"actor", caller.String(),
		"subject", title,
	)
	return opened, nil
}

// Vote casts caller's ballot on a VOTING topic. One ballot per residence; a
// manager without a dwelling votes from the manager seat. Defaulters are
// turned away, the manager never is.
func (s *Service) Vote(ctx context.Context, caller id.Address, title string, option models.Option) (*models.Vote, error) {
	var ballot *models.Vote
	err := s.mutate(ctx, "vote", func(ctx context.Context, tx store.Store) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		a, err := identify(ctx, tx, settings, caller)
		if err != nil {
			return err
		}
		if !a.manager && !a.isResident() {
			return models.ErrOnlyManagerOrResident
		}
		topic, err := findTopic(ctx, tx, title)
		if err != nil {
			return err
		}
		if topic.Status != models.StatusVoting {
			return models.ErrVoteNotVoting
		}
		if option == models.OptionEmpty {
			return models.ErrEmptyOption
		}
		if !option.IsValid() {
			return models.ErrInvalidOption
		}

		seat := id.ManagerSeat
		if a.isResident() {
			seat = a.resident.Residence
		}
		if !a.manager {
			defaulter, err := isDefaulter(ctx, tx, seat)
			if err != nil {
				return err
			}
			if defaulter {
				return models.ErrDefaulter
			}
		}

		voted, err := tx.HasVoted(ctx, title, seat)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ballot")
		}
		if voted {
			return models.ErrAlreadyVoted
		}
		ballot = &models.Vote{
			Topic:     title,
			Residence: seat,
			Wallet:    caller,
			Option:    option,
			CastAt:    now(ctx),
		}
		if err := tx.AppendVote(ctx, ballot); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return models.ErrAlreadyVoted
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementVote(option.String())
	s.logAudit(ctx, audit.EventVoteCast,
		"actor", caller.String(),
		"subject", title,
		"residence", ballot.Residence.String(),
	)
	return ballot, nil
}

// CloseVoting tallies a VOTING topic and applies its side effect if approved.
// At least half the quorum population must have voted.
func (s *Service) CloseVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error) {
	var (
		closed   *models.Topic
		settings *models.Settings
		tally    models.Tally
	)
	err := s.mutate(ctx, "close_voting", func(ctx context.Context, tx store.Store) error {
		var err error
		settings, err = loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if caller != settings.Manager {
			return models.ErrOnlyManager
		}
		topic, err := findTopic(ctx, tx, title)
		if err != nil {
			return err
		}
		if topic.Status != models.StatusVoting {
			return models.ErrCloseNotVoting
		}

		votes, err := tx.ListVotes(ctx, title)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list votes")
		}
		tally = models.TallyVotes(votes)
		if 2*tally.Total() < residence.QuorumPopulation {
			return models.ErrQuorumNotMet
		}

		topic.Status = models.StatusDenied
		if tally.Yes > tally.No {
			topic.Status = models.StatusApproved
		}
		topic.EndedAt = now(ctx)
		topic.Votes = tally.Total()
		if err := tx.UpdateTopic(ctx, topic); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update topic")
		}

		if topic.Status == models.StatusApproved {
			if err := applyApproved(ctx, tx, settings, topic); err != nil {
				return err
			}
		}
		closed = topic
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTopicClosed(closed.Status.String(), closed.Category.String())
	s.logAudit(ctx, audit.EventVotingClosed,
		"actor", caller.String(),
		"subject", title,
		"decision", closed.Status.String(),
		"yes", tally.Yes,
		"no", tally.No,
		"abstention", tally.Abstention,
	)
	if closed.Status == models.StatusApproved {
		switch closed.Category {
		case models.CategoryChangeManager:
			s.logAudit(ctx, audit.EventManagerChanged,
				"actor", caller.String(),
				"subject", settings.Manager.String(),
			)
		case models.CategoryChangeQuota:
			s.logAudit(ctx, audit.EventQuotaChanged,
				"actor", caller.String(),
				"subject", settings.MonthlyQuota.String(),
			)
		}
	}
	return closed, nil
}

// applyApproved carries out the side effect of an approved topic. SPENT
// topics wait for a treasury transfer and DECISION topics have none.
func applyApproved(ctx context.Context, tx store.Store, settings *models.Settings, topic *models.Topic) error {
	switch topic.Category {
	case models.CategoryChangeManager:
		settings.Manager = topic.Responsible
	case models.CategoryChangeQuota:
		settings.MonthlyQuota = topic.Amount
	default:
		return nil
	}
	if err := tx.SaveSettings(ctx, settings); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save settings")
	}
	return nil
}

// NumberOfVotes returns how many ballots the topic holds.
func (s *Service) NumberOfVotes(ctx context.Context, title string) (int, error) {
	if _, err := findTopic(ctx, s.store, title); err != nil {
		return 0, err
	}
	n, err := s.store.CountVotes(ctx, title)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count votes")
	}
	return n, nil
}

// GetVotes returns the ballots of a topic in casting order.
func (s *Service) GetVotes(ctx context.Context, title string) ([]*models.Vote, error) {
	ctx, span := s.span(ctx, "get_votes", attribute.String("title", title))
	defer span.End()

	if _, err := findTopic(ctx, s.store, title); err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, title)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list votes")
	}
	return votes, nil
}
