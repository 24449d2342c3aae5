package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
	"condo/pkg/platform/sentinel"
)

const residentColumns = `wallet, residence, is_counselor, created_at`

func (s *Store) FindResidentByWallet(ctx context.Context, wallet id.Address) (*models.Resident, error) {
	row := s.queryRow(ctx, `SELECT `+residentColumns+` FROM residents WHERE wallet = ?`, wallet.String())
	r, err := scanResident(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find resident by wallet: %w", err)
	}
	return r, nil
}

func (s *Store) FindResidentByResidence(ctx context.Context, residence id.ResidenceID) (*models.Resident, error) {
	row := s.queryRow(ctx, `SELECT `+residentColumns+` FROM residents WHERE residence = ?`, int64(residence))
	r, err := scanResident(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find resident by residence: %w", err)
	}
	return r, nil
}

func (s *Store) SaveResident(ctx context.Context, resident *models.Resident) error {
	_, err := s.exec(ctx, `
		INSERT INTO residents (wallet, residence, is_counselor, created_at, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM residents))
		ON CONFLICT (wallet) DO UPDATE SET
			residence = excluded.residence,
			is_counselor = excluded.is_counselor`,
		resident.Wallet.String(),
		int64(resident.Residence),
		resident.IsCounselor,
		toNanos(resident.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save resident: %w", err)
	}
	return nil
}

func (s *Store) DeleteResident(ctx context.Context, wallet id.Address) error {
	res, err := s.exec(ctx, `DELETE FROM residents WHERE wallet = ?`, wallet.String())
	if err != nil {
		return fmt.Errorf("delete resident: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListResidents(ctx context.Context, offset, limit int) ([]*models.Resident, error) {
	if offset < 0 {
		return []*models.Resident{}, nil
	}
	rows, err := s.query(ctx, `SELECT `+residentColumns+` FROM residents ORDER BY seq LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	defer rows.Close()

	out := []*models.Resident{}
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resident: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return out, nil
}

func (s *Store) CountResidents(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM residents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count residents: %w", err)
	}
	return n, nil
}

func scanResident(row scanner) (*models.Resident, error) {
	var (
		wallet    string
		residence int64
		counselor bool
		createdAt int64
	)
	if err := row.Scan(&wallet, &residence, &counselor, &createdAt); err != nil {
		return nil, err
	}
	addr, err := id.ParseAddress(wallet)
	if err != nil {
		return nil, fmt.Errorf("decode wallet %q: %w", wallet, err)
	}
	return &models.Resident{
		Wallet:      addr,
		Residence:   id.ResidenceID(residence),
		IsCounselor: counselor,
		CreatedAt:   fromNanos(createdAt),
	}, nil
}
