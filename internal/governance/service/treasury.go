package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"condo/internal/governance/models"
	"condo/internal/governance/store"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	audit "condo/pkg/platform/audit"
)

// Transfer releases amount from the treasury to the responsible wallet of an
// approved SPENT topic, then marks the topic SPENT.
func (s *Service) Transfer(ctx context.Context, caller id.Address, title string, amount models.Amount) (*models.Transfer, error) {
	var (
		transfer *models.Transfer
		balance  models.Amount
	)
	err := s.mutate(ctx, "transfer", func(ctx context.Context, tx store.Store) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if caller != settings.Manager {
			return models.ErrOnlyManager
		}
		if amount > settings.Balance {
			return models.ErrInsufficientFunds
		}
		topic, err := findTopic(ctx, tx, title)
		if err != nil {
			if errors.Is(err, models.ErrTopicNotFound) {
				return models.ErrWrongTopicState
			}
			return err
		}
		if topic.Category != models.CategorySpent || topic.Status != models.StatusApproved {
			return models.ErrWrongTopicState
		}
		if amount > topic.Amount {
			return models.ErrAmountExceedsApproved
		}

		settings.Balance -= amount
		if err := tx.SaveSettings(ctx, settings); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save settings")
		}
		transfer = &models.Transfer{
			ID:         uuid.New(),
			Topic:      title,
			To:         topic.Responsible,
			Amount:     amount,
			ExecutedAt: now(ctx),
		}
		if err := tx.AppendTransfer(ctx, transfer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transfer")
		}
		topic.Status = models.StatusSpent
		if err := tx.UpdateTopic(ctx, topic); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update topic")
		}
		balance = settings.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransfer()
	s.metrics.SetBalance(uint64(balance))
	s.logAudit(ctx, audit.EventTransferExecuted,
		"actor", caller.String(),
		"subject", title,
		"to", transfer.To.String(),
		"amount", amount.String(),
	)
	return transfer, nil
}

// Balance returns the treasury balance.
func (s *Service) Balance(ctx context.Context) (models.Amount, error) {
	settings, err := loadSettings(ctx, s.store)
	if err != nil {
		return 0, err
	}
	return settings.Balance, nil
}

// GetTransfers returns every treasury release, oldest first.
func (s *Service) GetTransfers(ctx context.Context) ([]*models.Transfer, error) {
	transfers, err := s.store.ListTransfers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transfers")
	}
	return transfers, nil
}
