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

const topicColumns = `title, description, category, amount, responsible, status, created_at, started_at, ended_at`

func (s *Store) FindTopic(ctx context.Context, title string) (*models.Topic, error) {
	t, err := scanTopic(s.queryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE title = ?`, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find topic: %w", err)
	}
	return t, nil
}

func (s *Store) CreateTopic(ctx context.Context, topic *models.Topic) error {
	res, err := s.exec(ctx, `
		INSERT INTO topics (`+topicColumns+`, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM topics))
		ON CONFLICT (title) DO NOTHING`,
		topic.Title,
		topic.Description,
		int64(topic.Category),
		topic.Amount.String(),
		topic.Responsible.String(),
		int64(topic.Status),
		toNanos(topic.CreatedAt),
		toNanos(topic.StartedAt),
		toNanos(topic.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	res, err := s.exec(ctx, `
		UPDATE topics SET
			description = ?, category = ?, amount = ?, responsible = ?,
			status = ?, started_at = ?, ended_at = ?
		WHERE title = ?`,
		topic.Description,
		int64(topic.Category),
		topic.Amount.String(),
		topic.Responsible.String(),
		int64(topic.Status),
		toNanos(topic.StartedAt),
		toNanos(topic.EndedAt),
		topic.Title,
	)
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
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

func (s *Store) DeleteTopic(ctx context.Context, title string) error {
	if _, err := s.exec(ctx, `DELETE FROM votes WHERE topic = ?`, title); err != nil {
		return fmt.Errorf("delete topic votes: %w", err)
	}
	res, err := s.exec(ctx, `DELETE FROM topics WHERE title = ?`, title)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
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

func (s *Store) ListTopics(ctx context.Context, offset, limit int) ([]*models.Topic, error) {
	if offset < 0 {
		return []*models.Topic{}, nil
	}
	rows, err := s.query(ctx, `SELECT `+topicColumns+` FROM topics ORDER BY seq DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	out := []*models.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return out, nil
}

func (s *Store) CountTopics(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM topics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return n, nil
}

func (s *Store) AppendVote(ctx context.Context, vote *models.Vote) error {
	res, err := s.exec(ctx, `
		INSERT INTO votes (topic, residence, wallet, choice, cast_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (topic, residence) DO NOTHING`,
		vote.Topic,
		int64(vote.Residence),
		vote.Wallet.String(),
		int64(vote.Option),
		toNanos(vote.CastAt),
	)
	if err != nil {
		return fmt.Errorf("append vote: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) ListVotes(ctx context.Context, title string) ([]*models.Vote, error) {
	rows, err := s.query(ctx, `
		SELECT topic, residence, wallet, choice, cast_at
		FROM votes WHERE topic = ? ORDER BY cast_at, residence`, title)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := []*models.Vote{}
	for rows.Next() {
		var (
			v         models.Vote
			residence int64
			wallet    string
			choice    int64
			castAt    int64
		)
		if err := rows.Scan(&v.Topic, &residence, &wallet, &choice, &castAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		addr, err := id.ParseAddress(wallet)
		if err != nil {
			return nil, fmt.Errorf("decode voter %q: %w", wallet, err)
		}
		v.Residence = id.ResidenceID(residence)
		v.Wallet = addr
		v.Option = models.Option(choice)
		v.CastAt = fromNanos(castAt)
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return out, nil
}

func (s *Store) CountVotes(ctx context.Context, title string) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM votes WHERE topic = ?`, title).Scan(&n); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

func (s *Store) HasVoted(ctx context.Context, title string, residence id.ResidenceID) (bool, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM votes WHERE topic = ? AND residence = ?`, title, int64(residence)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check vote: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ClearVotes(ctx context.Context, title string) error {
	if _, err := s.exec(ctx, `DELETE FROM votes WHERE topic = ?`, title); err != nil {
		return fmt.Errorf("clear votes: %w", err)
	}
	return nil
}

func scanTopic(row scanner) (*models.Topic, error) {
	var (
		t           models.Topic
		category    int64
		amount      string
		responsible string
		status      int64
		createdAt   int64
		startedAt   int64
		endedAt     int64
	)
	if err := row.Scan(&t.Title, &t.Description, &category, &amount, &responsible, &status, &createdAt, &startedAt, &endedAt); err != nil {
		return nil, err
	}
	parsedAmount, err := models.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount %q: %w", amount, err)
	}
	addr, err := id.ParseAddress(responsible)
	if err != nil {
		return nil, fmt.Errorf("decode responsible %q: %w", responsible, err)
	}
	t.Category = models.Category(category)
	t.Amount = parsedAmount
	t.Responsible = addr
	t.Status = models.Status(status)
	t.CreatedAt = fromNanos(createdAt)
	t.StartedAt = fromNanos(startedAt)
	t.EndedAt = fromNanos(endedAt)
	return &t, nil
}
