package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
	"condo/pkg/platform/sentinel"
)

const settingsRow = 1

func (s *Store) LoadSettings(ctx context.Context) (*models.Settings, error) {
	var manager, quota, balance string
	err := s.queryRow(ctx, `SELECT manager, monthly_quota, balance FROM governance_settings WHERE id = ?`, settingsRow).
		Scan(&manager, &quota, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	addr, err := id.ParseAddress(manager)
	if err != nil {
		return nil, fmt.Errorf("decode manager %q: %w", manager, err)
	}
	q, err := models.ParseAmount(quota)
	if err != nil {
		return nil, fmt.Errorf("decode quota %q: %w", quota, err)
	}
	b, err := models.ParseAmount(balance)
	if err != nil {
		return nil, fmt.Errorf("decode balance %q: %w", balance, err)
	}
	return &models.Settings{Manager: addr, MonthlyQuota: q, Balance: b}, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) error {
	_, err := s.exec(ctx, `
		INSERT INTO governance_settings (id, manager, monthly_quota, balance)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			manager = excluded.manager,
			monthly_quota = excluded.monthly_quota,
			balance = excluded.balance`,
		settingsRow,
		settings.Manager.String(),
		settings.MonthlyQuota.String(),
		settings.Balance.String(),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) NextPayment(ctx context.Context, residence id.ResidenceID) (time.Time, bool, error) {
	var next int64
	err := s.queryRow(ctx, `SELECT next_payment FROM quota_due WHERE residence = ?`, int64(residence)).Scan(&next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("load next payment: %w", err)
	}
	return fromNanos(next), true, nil
}

func (s *Store) AppendPayment(ctx context.Context, payment *models.Payment) error {
	_, err := s.exec(ctx, `
		INSERT INTO quota_payments (id, residence, payer, amount, paid_at, next_payment)
		VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID.String(),
		int64(payment.Residence),
		payment.Payer.String(),
		payment.Amount.String(),
		toNanos(payment.PaidAt),
		toNanos(payment.NextPayment),
	)
	if err != nil {
		return fmt.Errorf("append payment: %w", err)
	}
	_, err = s.exec(ctx, `
		INSERT INTO quota_due (residence, next_payment) VALUES (?, ?)
		ON CONFLICT (residence) DO UPDATE SET next_payment = excluded.next_payment`,
		int64(payment.Residence),
		toNanos(payment.NextPayment),
	)
	if err != nil {
		return fmt.Errorf("advance next payment: %w", err)
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, residence id.ResidenceID) ([]*models.Payment, error) {
	rows, err := s.query(ctx, `
		SELECT id, residence, payer, amount, paid_at, next_payment
		FROM quota_payments WHERE residence = ? ORDER BY paid_at`, int64(residence))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []*models.Payment{}
	for rows.Next() {
		var (
			rawID, payer, amount string
			res, paidAt, next    int64
		)
		if err := rows.Scan(&rawID, &res, &payer, &amount, &paidAt, &next); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p, err := decodePayment(rawID, res, payer, amount, paidAt, next)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

func decodePayment(rawID string, residence int64, payer, amount string, paidAt, next int64) (*models.Payment, error) {
	pid, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("decode payment id %q: %w", rawID, err)
	}
	addr, err := id.ParseAddress(payer)
	if err != nil {
		return nil, fmt.Errorf("decode payer %q: %w", payer, err)
	}
	value, err := models.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("decode payment amount %q: %w", amount, err)
	}
	return &models.Payment{
		ID:          pid,
		Residence:   id.ResidenceID(residence),
		Payer:       addr,
		Amount:      value,
		PaidAt:      fromNanos(paidAt),
		NextPayment: fromNanos(next),
	}, nil
}

func (s *Store) AppendTransfer(ctx context.Context, transfer *models.Transfer) error {
	_, err := s.exec(ctx, `
		INSERT INTO treasury_transfers (id, topic, recipient, amount, executed_at)
		VALUES (?, ?, ?, ?, ?)`,
		transfer.ID.String(),
		transfer.Topic,
		transfer.To.String(),
		transfer.Amount.String(),
		toNanos(transfer.ExecutedAt),
	)
	if err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	return nil
}

func (s *Store) ListTransfers(ctx context.Context) ([]*models.Transfer, error) {
	rows, err := s.query(ctx, `
		SELECT id, topic, recipient, amount, executed_at
		FROM treasury_transfers ORDER BY executed_at`)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	out := []*models.Transfer{}
	for rows.Next() {
		var (
			rawID, topic, recipient, amount string
			executedAt                      int64
		)
		if err := rows.Scan(&rawID, &topic, &recipient, &amount, &executedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		tid, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("decode transfer id %q: %w", rawID, err)
		}
		to, err := id.ParseAddress(recipient)
		if err != nil {
			return nil, fmt.Errorf("decode recipient %q: %w", recipient, err)
		}
		value, err := models.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("decode transfer amount %q: %w", amount, err)
		}
		out = append(out, &models.Transfer{
			ID:         tid,
			Topic:      topic,
			To:         to,
			Amount:     value,
			ExecutedAt: fromNanos(executedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return out, nil
}
