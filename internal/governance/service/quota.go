package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"condo/internal/governance/models"
	"condo/internal/governance/residence"
	"condo/internal/governance/store"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	audit "condo/pkg/platform/audit"
	"condo/pkg/platform/sentinel"
)

// PayQuota accepts one monthly payment for res from payer. Anyone may pay for
// any residence; the value must equal the current quota exactly.
func (s *Service) PayQuota(ctx context.Context, payer id.Address, res id.ResidenceID, value models.Amount) (*models.Payment, error) {
	if !residence.Exists(res) {
		return nil, models.ErrResidenceNotFound
	}

	var (
		payment *models.Payment
		balance models.Amount
	)
	err := s.mutate(ctx, "pay_quota", func(ctx context.Context, tx store.Store) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if value != settings.MonthlyQuota {
			return models.ErrWrongValue
		}

		at := now(ctx)
		previous, paid, err := tx.NextPayment(ctx, res)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load next payment")
		}
		if paid && at.Before(previous) {
			return models.ErrAlreadyPaidThisPeriod
		}
		if settings.Balance > math.MaxUint64-value {
			return models.ErrBalanceOverflow
		}

		base := at
		if paid && previous.After(at) {
			base = previous
		}
		payment = &models.Payment{
			ID:          uuid.New(),
			Residence:   res,
			Payer:       payer,
			Amount:      value,
			PaidAt:      at,
			NextPayment: base.Add(models.PaymentPeriod),
		}
		if err := tx.AppendPayment(ctx, payment); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
		}

		settings.Balance += value
		if err := tx.SaveSettings(ctx, settings); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save settings")
		}
		balance = settings.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementQuotaPaid()
	s.metrics.SetBalance(uint64(balance))
	s.logAudit(ctx, audit.EventQuotaPaid,
		"actor", payer.String(),
		"subject", res.String(),
		"amount", value.String(),
	)
	return payment, nil
}

// IsDefaulter reports whether res is occupied and its quota is not current.
// An empty residence is never a defaulter.
func (s *Service) IsDefaulter(ctx context.Context, res id.ResidenceID) (bool, error) {
	ctx, span := s.span(ctx, "is_defaulter", attribute.Int("residence", int(res)))
	defer span.End()
	return isDefaulter(ctx, s.store, res)
}

func isDefaulter(ctx context.Context, st store.Store, res id.ResidenceID) (bool, error) {
	if _, err := st.FindResidentByResidence(ctx, res); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load residence occupant")
	}
	next, paid, err := st.NextPayment(ctx, res)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load next payment")
	}
	return !paid || now(ctx).After(next), nil
}

// MonthlyQuota returns the value PayQuota currently expects.
func (s *Service) MonthlyQuota(ctx context.Context) (models.Amount, error) {
	settings, err := loadSettings(ctx, s.store)
	if err != nil {
		return 0, err
	}
	return settings.MonthlyQuota, nil
}

// GetPayments returns the payment history of res, oldest first.
func (s *Service) GetPayments(ctx context.Context, res id.ResidenceID) ([]*models.Payment, error) {
	if !residence.Exists(res) {
		return nil, models.ErrResidenceNotFound
	}
	payments, err := s.store.ListPayments(ctx, res)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}
