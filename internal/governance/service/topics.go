package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"condo/internal/governance/models"
	"condo/internal/governance/store"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	audit "condo/pkg/platform/audit"
	"condo/pkg/platform/sentinel"
)

// AddTopic creates an IDLE topic proposed by caller.
func (s *Service) AddTopic(ctx context.Context, caller id.Address, draft models.TopicDraft) (*models.Topic, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, models.ErrInvalidTitle
	}
	if !draft.Category.IsValid() {
		return nil, models.ErrWrongCategory
	}

	var created *models.Topic
	err := s.mutate(ctx, "add_topic", func(ctx context.Context, tx store.Store) error {
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
		if draft.Amount != 0 && !draft.Category.AllowsAmount() {
			return models.ErrWrongCategory
		}

		responsible := draft.Responsible
		if responsible.IsZero() {
			responsible = caller
		}
		created = &models.Topic{
			Title:       draft.Title,
			Description: draft.Description,
			Category:    draft.Category,
			Amount:      draft.Amount,
			Responsible: responsible,
			Status:      models.StatusIdle,
			CreatedAt:   now(ctx),
		}
		if err := tx.CreateTopic(ctx, created); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return models.ErrTopicAlreadyExists
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create topic")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTopicCreated()
	s.logAudit(ctx, audit.EventTopicAdded,
		"actor", caller.String(),
		"subject", created.Title,
		"category", created.Category.String(),
	)
	return created, nil
}

// EditTopic changes an IDLE topic. Zero fields in patch are left alone.
func (s *Service) EditTopic(ctx context.Context, caller id.Address, title string, patch models.TopicPatch) (*models.Topic, error) {
	var edited *models.Topic
	err := s.mutate(ctx, "edit_topic", func(ctx context.Context, tx store.Store) error {
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
			return models.ErrEditNotIdle
		}

		if patch.Description != "" {
			topic.Description = patch.Description
		}
		if patch.Amount != 0 {
			if !topic.Category.AllowsAmount() {
				return models.ErrWrongCategory
			}
			topic.Amount = patch.Amount
		}
		if !patch.Responsible.IsZero() {
			topic.Responsible = patch.Responsible
		}
		if err := tx.UpdateTopic(ctx, topic); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update topic")
		}
		edited = topic
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventTopicEdited,
		"actor", caller.String(),
		"subject", title,
	)
	return edited, nil
}

// RemoveTopic deletes an IDLE topic.
func (s *Service) RemoveTopic(ctx context.Context, caller id.Address, title string) error {
	err := s.mutate(ctx, "remove_topic", func(ctx context.Context, tx store.Store) error {
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
			return models.ErrRemoveNotIdle
		}
		if err := tx.DeleteTopic(ctx, title); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete topic")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventTopicRemoved,
		"actor", caller.String(),
		"subject", title,
	)
	return nil
}

// GetTopic returns the topic with its current ballot count.
func (s *Service) GetTopic(ctx context.Context, title string) (*models.Topic, error) {
	ctx, span := s.span(ctx, "get_topic", attribute.String("title", title))
	defer span.End()

	topic, err := findTopic(ctx, s.store, title)
	if err != nil {
		return nil, err
	}
	return withVotes(ctx, s.store, topic)
}

// TopicExists reports whether a topic has this exact title.
func (s *Service) TopicExists(ctx context.Context, title string) (bool, error) {
	_, err := findTopic(ctx, s.store, title)
	if errors.Is(err, models.ErrTopicNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetTopics pages through topics, newest first.
func (s *Service) GetTopics(ctx context.Context, page, pageSize int) (*models.TopicPage, error) {
	ctx, span := s.span(ctx, "get_topics")
	defer span.End()

	page, pageSize = models.ClampPage(page, pageSize)
	list, err := s.store.ListTopics(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list topics")
	}
	total, err := s.store.CountTopics(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count topics")
	}
	out := make([]*models.Topic, 0, len(list))
	for _, t := range list {
		t, err := withVotes(ctx, s.store, t)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return &models.TopicPage{Topics: out, Page: page, PageSize: pageSize, Total: total}, nil
}

func withVotes(ctx context.Context, st store.Store, topic *models.Topic) (*models.Topic, error) {
	n, err := st.CountVotes(ctx, topic.Title)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count votes")
	}
	topic.Votes = n
	return topic, nil
}
