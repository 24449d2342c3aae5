// Package storetest holds the behavioural contract every governance store
// implementation must satisfy. Backends run it from their own test files.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"condo/internal/governance/models"
	"condo/internal/governance/residence"
	"condo/internal/governance/store"
	id "condo/pkg/domain"
	"condo/pkg/platform/sentinel"
)

// Suite exercises a store.TxStore. NewStore must return an empty store; it is
// called before every test.
type Suite struct {
	suite.Suite
	NewStore func() store.TxStore

	store store.TxStore
	ctx   context.Context
	base  time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.base = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func wallet(n int) id.Address {
	var a id.Address
	a[0] = 0xA1
	a[19] = byte(n)
	return a
}

func seat(i int) id.ResidenceID {
	return residence.All()[i]
}

func (s *Suite) resident(n int) *models.Resident {
	return &models.Resident{
		Wallet:    wallet(n),
		Residence: seat(n),
		CreatedAt: s.base.Add(time.Duration(n) * time.Minute),
	}
}

func (s *Suite) topic(title string, n int) *models.Topic {
	return &models.Topic{
		Title:       title,
		Description: "description of " + title,
		Category:    models.CategorySpent,
		Amount:      models.Amount(n) * models.Ether,
		Responsible: wallet(n),
		Status:      models.StatusIdle,
		CreatedAt:   s.base.Add(time.Duration(n) * time.Minute),
	}
}

func (s *Suite) TestResidents() {
	s.Run("not found before save", func() {
		_, err := s.store.FindResidentByWallet(s.ctx, wallet(1))
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindResidentByResidence(s.ctx, seat(1))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("save and find", func() {
		s.Require().NoError(s.store.SaveResident(s.ctx, s.resident(1)))

		byWallet, err := s.store.FindResidentByWallet(s.ctx, wallet(1))
		s.Require().NoError(err)
		s.Equal(seat(1), byWallet.Residence)
		s.True(byWallet.CreatedAt.Equal(s.base.Add(time.Minute)))

		byResidence, err := s.store.FindResidentByResidence(s.ctx, seat(1))
		s.Require().NoError(err)
		s.Equal(wallet(1), byResidence.Wallet)
	})

	s.Run("replace keeps creation time and position", func() {
		s.Require().NoError(s.store.SaveResident(s.ctx, s.resident(2)))

		replaced := s.resident(1)
		replaced.IsCounselor = true
		replaced.CreatedAt = s.base.Add(time.Hour)
		s.Require().NoError(s.store.SaveResident(s.ctx, replaced))

		got, err := s.store.FindResidentByWallet(s.ctx, wallet(1))
		s.Require().NoError(err)
		s.True(got.IsCounselor)
		s.True(got.CreatedAt.Equal(s.base.Add(time.Minute)))

		list, err := s.store.ListResidents(s.ctx, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(wallet(1), list[0].Wallet)
		s.Equal(wallet(2), list[1].Wallet)
	})

	s.Run("count and paging", func() {
		s.Require().NoError(s.store.SaveResident(s.ctx, s.resident(3)))

		n, err := s.store.CountResidents(s.ctx)
		s.Require().NoError(err)
		s.Equal(3, n)

		page, err := s.store.ListResidents(s.ctx, 1, 1)
		s.Require().NoError(err)
		s.Require().Len(page, 1)
		s.Equal(wallet(2), page[0].Wallet)

		past, err := s.store.ListResidents(s.ctx, 10, 10)
		s.Require().NoError(err)
		s.Empty(past)

		negative, err := s.store.ListResidents(s.ctx, -10, 10)
		s.Require().NoError(err)
		s.Empty(negative)
	})

	s.Run("delete", func() {
		s.Require().NoError(s.store.DeleteResident(s.ctx, wallet(2)))
		s.ErrorIs(s.store.DeleteResident(s.ctx, wallet(2)), sentinel.ErrNotFound)

		_, err := s.store.FindResidentByResidence(s.ctx, seat(2))
		s.ErrorIs(err, sentinel.ErrNotFound)

		list, err := s.store.ListResidents(s.ctx, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(wallet(3), list[1].Wallet)
	})
}

func (s *Suite) TestPayments() {
	_, ok, err := s.store.NextPayment(s.ctx, seat(1))
	s.Require().NoError(err)
	s.False(ok)

	first := &models.Payment{
		ID:          uuid.New(),
		Residence:   seat(1),
		Payer:       wallet(1),
		Amount:      models.Ether,
		PaidAt:      s.base,
		NextPayment: s.base.AddDate(0, 0, 30),
	}
	second := &models.Payment{
		ID:          uuid.New(),
		Residence:   seat(1),
		Payer:       wallet(2),
		Amount:      models.Ether,
		PaidAt:      s.base.Add(time.Hour),
		NextPayment: s.base.AddDate(0, 0, 60),
	}
	other := &models.Payment{
		ID:          uuid.New(),
		Residence:   seat(2),
		Payer:       wallet(3),
		Amount:      2 * models.Ether,
		PaidAt:      s.base,
		NextPayment: s.base.AddDate(0, 0, 30),
	}
	for _, p := range []*models.Payment{first, second, other} {
		s.Require().NoError(s.store.AppendPayment(s.ctx, p))
	}

	next, ok, err := s.store.NextPayment(s.ctx, seat(1))
	s.Require().NoError(err)
	s.True(ok)
	s.True(next.Equal(second.NextPayment))

	payments, err := s.store.ListPayments(s.ctx, seat(1))
	s.Require().NoError(err)
	s.Require().Len(payments, 2)
	s.Equal(first.ID, payments[0].ID)
	s.Equal(wallet(2), payments[1].Payer)

	none, err := s.store.ListPayments(s.ctx, seat(5))
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestTopics() {
	s.Run("create and find", func() {
		s.Require().NoError(s.store.CreateTopic(s.ctx, s.topic("roof", 1)))

		got, err := s.store.FindTopic(s.ctx, "roof")
		s.Require().NoError(err)
		s.Equal(models.CategorySpent, got.Category)
		s.Equal(models.Ether, got.Amount)
		s.Equal(wallet(1), got.Responsible)
		s.Equal(models.StatusIdle, got.Status)
		s.True(got.StartedAt.IsZero())
	})

	s.Run("duplicate title conflicts", func() {
		err := s.store.CreateTopic(s.ctx, s.topic("roof", 2))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("update", func() {
		t := s.topic("roof", 1)
		t.Status = models.StatusVoting
		t.StartedAt = s.base.Add(time.Hour)
		s.Require().NoError(s.store.UpdateTopic(s.ctx, t))

		got, err := s.store.FindTopic(s.ctx, "roof")
		s.Require().NoError(err)
		s.Equal(models.StatusVoting, got.Status)
		s.True(got.StartedAt.Equal(s.base.Add(time.Hour)))

		s.ErrorIs(s.store.UpdateTopic(s.ctx, s.topic("missing", 9)), sentinel.ErrNotFound)
	})

	s.Run("list newest first", func() {
		s.Require().NoError(s.store.CreateTopic(s.ctx, s.topic("garden", 2)))
		s.Require().NoError(s.store.CreateTopic(s.ctx, s.topic("pool", 3)))

		list, err := s.store.ListTopics(s.ctx, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(list, 3)
		s.Equal([]string{"pool", "garden", "roof"}, []string{list[0].Title, list[1].Title, list[2].Title})

		page, err := s.store.ListTopics(s.ctx, 2, 5)
		s.Require().NoError(err)
		s.Require().Len(page, 1)
		s.Equal("roof", page[0].Title)

		negative, err := s.store.ListTopics(s.ctx, -5, 5)
		s.Require().NoError(err)
		s.Empty(negative)

		n, err := s.store.CountTopics(s.ctx)
		s.Require().NoError(err)
		s.Equal(3, n)
	})

	s.Run("delete", func() {
		s.Require().NoError(s.store.DeleteTopic(s.ctx, "garden"))
		s.ErrorIs(s.store.DeleteTopic(s.ctx, "garden"), sentinel.ErrNotFound)

		_, err := s.store.FindTopic(s.ctx, "garden")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *Suite) TestVotes() {
	s.Require().NoError(s.store.CreateTopic(s.ctx, s.topic("roof", 1)))

	cast := func(n int, option models.Option) error {
		return s.store.AppendVote(s.ctx, &models.Vote{
			Topic:     "roof",
			Residence: seat(n),
			Wallet:    wallet(n),
			Option:    option,
			CastAt:    s.base.Add(time.Duration(n) * time.Second),
		})
	}

	s.Require().NoError(cast(1, models.OptionYes))
	s.Require().NoError(cast(2, models.OptionNo))
	s.ErrorIs(cast(1, models.OptionNo), sentinel.ErrConflict)

	voted, err := s.store.HasVoted(s.ctx, "roof", seat(1))
	s.Require().NoError(err)
	s.True(voted)
	voted, err = s.store.HasVoted(s.ctx, "roof", seat(3))
	s.Require().NoError(err)
	s.False(voted)

	n, err := s.store.CountVotes(s.ctx, "roof")
	s.Require().NoError(err)
	s.Equal(2, n)

	votes, err := s.store.ListVotes(s.ctx, "roof")
	s.Require().NoError(err)
	s.Require().Len(votes, 2)
	s.Equal(models.OptionYes, votes[0].Option)
	s.Equal(wallet(2), votes[1].Wallet)

	s.Require().NoError(s.store.ClearVotes(s.ctx, "roof"))
	n, err = s.store.CountVotes(s.ctx, "roof")
	s.Require().NoError(err)
	s.Zero(n)

	empty, err := s.store.ListVotes(s.ctx, "unknown")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *Suite) TestDeleteTopicDropsVotes() {
	s.Require().NoError(s.store.CreateTopic(s.ctx, s.topic("roof", 1)))
	s.Require().NoError(s.store.AppendVote(s.ctx, &models.Vote{
		Topic: "roof", Residence: seat(1), Wallet: wallet(1), Option: models.OptionYes, CastAt: s.base,
	}))
	s.Require().NoError(s.store.DeleteTopic(s.ctx, "roof"))

	s.Require().NoError(s.store.CreateTopic(s.ctx, s.topic("roof", 1)))
	n, err := s.store.CountVotes(s.ctx, "roof")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *Suite) TestSettings() {
	_, err := s.store.LoadSettings(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.SaveSettings(s.ctx, &models.Settings{
		Manager:      wallet(1),
		MonthlyQuota: models.Ether,
	}))
	s.Require().NoError(s.store.SaveSettings(s.ctx, &models.Settings{
		Manager:      wallet(2),
		MonthlyQuota: models.Ether,
		Balance:      3 * models.Ether,
	}))

	got, err := s.store.LoadSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal(wallet(2), got.Manager)
	s.Equal(3*models.Ether, got.Balance)
}

func (s *Suite) TestTransfers() {
	empty, err := s.store.ListTransfers(s.ctx)
	s.Require().NoError(err)
	s.Empty(empty)

	first := &models.Transfer{ID: uuid.New(), Topic: "roof", To: wallet(1), Amount: models.Ether, ExecutedAt: s.base}
	second := &models.Transfer{ID: uuid.New(), Topic: "pool", To: wallet(2), Amount: 2 * models.Ether, ExecutedAt: s.base.Add(time.Hour)}
	s.Require().NoError(s.store.AppendTransfer(s.ctx, first))
	s.Require().NoError(s.store.AppendTransfer(s.ctx, second))

	list, err := s.store.ListTransfers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal("pool", list[1].Topic)
	s.True(list[1].ExecutedAt.Equal(second.ExecutedAt))
}

func (s *Suite) TestRunInTx() {
	s.Run("commit", func() {
		err := s.store.RunInTx(s.ctx, func(tx store.Store) error {
			if err := tx.SaveResident(s.ctx, s.resident(1)); err != nil {
				return err
			}
			return tx.SaveSettings(s.ctx, &models.Settings{Manager: wallet(1), MonthlyQuota: models.Ether})
		})
		s.Require().NoError(err)

		_, err = s.store.FindResidentByWallet(s.ctx, wallet(1))
		s.NoError(err)
	})

	s.Run("rollback on error", func() {
		boom := errors.New("boom")
		err := s.store.RunInTx(s.ctx, func(tx store.Store) error {
			if err := tx.SaveResident(s.ctx, s.resident(2)); err != nil {
				return err
			}
			if err := tx.CreateTopic(s.ctx, s.topic("roof", 2)); err != nil {
				return err
			}
			return boom
		})
		s.ErrorIs(err, boom)

		_, err = s.store.FindResidentByWallet(s.ctx, wallet(2))
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindTopic(s.ctx, "roof")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("reads inside see own writes", func() {
		err := s.store.RunInTx(s.ctx, func(tx store.Store) error {
			if err := tx.CreateTopic(s.ctx, s.topic("garden", 3)); err != nil {
				return err
			}
			_, err := tx.FindTopic(s.ctx, "garden")
			return err
		})
		s.NoError(err)
	})

	s.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		err := s.store.RunInTx(ctx, func(store.Store) error { return nil })
		s.ErrorIs(err, context.Canceled)
	})
}
