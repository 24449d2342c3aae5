package service

import (
	"math"
	"time"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
)

func (s *ServiceSuite) TestAddTopic() {
	s.Run("residents and the manager propose topics", func() {
		voters := s.seatResidents(1)
		t, err := s.service.AddTopic(s.ctx(), voters[0], models.TopicDraft{Title: "Paint the hall", Category: models.CategoryDecision})
		s.Require().NoError(err)
		s.Equal(models.StatusIdle, t.Status)
		s.Equal(voters[0], t.Responsible, "zero responsible defaults to the proposer")

		t = s.addTopic("New manager", models.CategoryChangeManager, 0, wallet(9))
		s.Equal(wallet(9), t.Responsible)
	})

	s.Run("strangers cannot propose", func() {
		_, err := s.service.AddTopic(s.ctx(), wallet(50), models.TopicDraft{Title: "x"})
		s.ErrorIs(err, models.ErrPermissionDenied)
		s.Contains(err.Error(), "Only the manager or the residents can do this")
	})

	s.Run("amount only on SPENT and CHANGE_QUOTA", func() {
		for _, c := range []models.Category{models.CategoryDecision, models.CategoryChangeManager} {
			_, err := s.service.AddTopic(s.ctx(), manager, models.TopicDraft{Title: "t " + c.String(), Category: c, Amount: 1})
			s.ErrorIs(err, models.ErrWrongCategory)
		}
		s.addTopic("Repair roof", models.CategorySpent, 10, id.ZeroAddress)
		s.addTopic("Raise quota", models.CategoryChangeQuota, 10, id.ZeroAddress)
	})

	s.Run("titles are unique and non-empty", func() {
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.AddTopic(s.ctx(), manager, models.TopicDraft{Title: "Garden"})
		s.ErrorIs(err, models.ErrTopicAlreadyExists)

		_, err = s.service.AddTopic(s.ctx(), manager, models.TopicDraft{Title: "  "})
		s.ErrorIs(err, models.ErrInvalidTitle)
	})
}

func (s *ServiceSuite) TestEditAndRemoveTopic() {
	s.Run("manager edits an idle topic, zero fields unchanged", func() {
		s.addTopic("Repair roof", models.CategorySpent, 10, wallet(3))

		t, err := s.service.EditTopic(s.ctx(), manager, "Repair roof", models.TopicPatch{Amount: 20})
		s.Require().NoError(err)
		s.Equal(models.Amount(20), t.Amount)
		s.Equal("description of Repair roof", t.Description)
		s.Equal(wallet(3), t.Responsible)

		t, err = s.service.EditTopic(s.ctx(), manager, "Repair roof", models.TopicPatch{Description: "urgent", Responsible: wallet(4)})
		s.Require().NoError(err)
		s.Equal("urgent", t.Description)
		s.Equal(wallet(4), t.Responsible)
		s.Equal(models.Amount(20), t.Amount)
	})

	s.Run("edit checks role, existence, state and category", func() {
		voters := s.seatResidents(1)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)

		_, err := s.service.EditTopic(s.ctx(), voters[0], "Garden", models.TopicPatch{Description: "x"})
		s.ErrorIs(err, models.ErrPermissionDenied)

		_, err = s.service.EditTopic(s.ctx(), manager, "Nope", models.TopicPatch{Description: "x"})
		s.ErrorIs(err, models.ErrTopicNotFound)

		_, err = s.service.EditTopic(s.ctx(), manager, "Garden", models.TopicPatch{Amount: 5})
		s.ErrorIs(err, models.ErrWrongCategory)

		_, err = s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)
		_, err = s.service.EditTopic(s.ctx(), manager, "Garden", models.TopicPatch{Description: "x"})
		s.ErrorIs(err, models.ErrNotIdle)
		s.Contains(err.Error(), "Only IDLE topics can be edited")
	})

	s.Run("remove only while idle", func() {
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		s.addTopic("Pool", models.CategoryDecision, 0, id.ZeroAddress)

		err := s.service.RemoveTopic(s.ctx(), wallet(1), "Garden")
		s.ErrorIs(err, models.ErrPermissionDenied)
		err = s.service.RemoveTopic(s.ctx(), manager, "Nope")
		s.ErrorIs(err, models.ErrTopicNotFound)

		_, err = s.service.OpenVoting(s.ctx(), manager, "Pool")
		s.Require().NoError(err)
		err = s.service.RemoveTopic(s.ctx(), manager, "Pool")
		s.ErrorIs(err, models.ErrNotIdle)

		s.Require().NoError(s.service.RemoveTopic(s.ctx(), manager, "Garden"))
		exists, err := s.service.TopicExists(s.ctx(), "Garden")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("topics list newest first", func() {
		s.addTopic("First", models.CategoryDecision, 0, id.ZeroAddress)
		s.clock.Advance(time.Minute)
		s.addTopic("Second", models.CategoryDecision, 0, id.ZeroAddress)

		page, err := s.service.GetTopics(s.ctx(), 1, 10)
		s.Require().NoError(err)
		s.Equal(2, page.Total)
		s.Require().Len(page.Topics, 2)
		s.Equal("Second", page.Topics[0].Title)
		s.Equal("First", page.Topics[1].Title)
	})

	s.Run("huge page numbers return an empty page", func() {
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)

		s.Require().NotPanics(func() {
			page, err := s.service.GetTopics(s.ctx(), math.MaxInt/100+2, 100)
			s.Require().NoError(err)
			s.Empty(page.Topics)
			s.Equal(1, page.Total)
		})
	})
}

func (s *ServiceSuite) TestVotingLifecycle() {
	s.Run("open requires manager, topic and IDLE", func() {
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)

		_, err := s.service.OpenVoting(s.ctx(), wallet(1), "Garden")
		s.ErrorIs(err, models.ErrPermissionDenied)
		_, err = s.service.OpenVoting(s.ctx(), manager, "Nope")
		s.ErrorIs(err, models.ErrTopicNotFound)

		t, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)
		s.Equal(models.StatusVoting, t.Status)
		s.Equal(start, t.StartedAt)

		_, err = s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.ErrorIs(err, models.ErrNotIdle)
	})

	s.Run("votes only while VOTING", func() {
		voters := s.seatResidents(1)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)

		_, err := s.service.Vote(s.ctx(), voters[0], "Garden", models.OptionYes)
		s.ErrorIs(err, models.ErrNotVoting)
		_, err = s.service.Vote(s.ctx(), voters[0], "Nope", models.OptionYes)
		s.ErrorIs(err, models.ErrTopicNotFound)
	})

	s.Run("closing with no votes misses quorum", func() {
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		_, err = s.service.CloseVoting(s.ctx(), manager, "Garden")
		s.ErrorIs(err, models.ErrQuorumNotMet)

		t, err := s.service.GetTopic(s.ctx(), "Garden")
		s.Require().NoError(err)
		s.Equal(models.StatusVoting, t.Status, "failed close leaves the topic open")
	})

	s.Run("twelve ballots miss quorum and thirteen reach it", func() {
		voters := s.seatResidents(13)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		for _, v := range voters[:12] {
			_, err := s.service.Vote(s.ctx(), v, "Garden", models.OptionYes)
			s.Require().NoError(err)
		}
		_, err = s.service.CloseVoting(s.ctx(), manager, "Garden")
		s.ErrorIs(err, models.ErrQuorumNotMet)

		_, err = s.service.Vote(s.ctx(), voters[12], "Garden", models.OptionAbstention)
		s.Require().NoError(err)
		n, err := s.service.NumberOfVotes(s.ctx(), "Garden")
		s.Require().NoError(err)
		s.Equal(13, n)

		t, err := s.service.CloseVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, t.Status)
		s.Equal(start, t.EndedAt)
	})

	s.Run("ties are denied and abstentions only count toward quorum", func() {
		voters := s.seatResidents(13)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)

		options := append(repeat(models.OptionYes, 2), repeat(models.OptionNo, 2)...)
		options = append(options, repeat(models.OptionAbstention, 9)...)
		t := s.decide("Garden", voters, options...)
		s.Equal(models.StatusDenied, t.Status)
	})

	s.Run("only the manager closes and only VOTING topics", func() {
		voters := s.seatResidents(1)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)

		_, err := s.service.CloseVoting(s.ctx(), voters[0], "Garden")
		s.ErrorIs(err, models.ErrPermissionDenied)
		_, err = s.service.CloseVoting(s.ctx(), manager, "Garden")
		s.ErrorIs(err, models.ErrNotVoting)
		s.Contains(err.Error(), "Only VOTING topics can be closed")
	})
}

func (s *ServiceSuite) TestVoteEligibility() {
	s.Run("one ballot per residence", func() {
		voters := s.seatResidents(1)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		_, err = s.service.Vote(s.ctx(), voters[0], "Garden", models.OptionYes)
		s.Require().NoError(err)
		_, err = s.service.Vote(s.ctx(), voters[0], "Garden", models.OptionNo)
		s.ErrorIs(err, models.ErrAlreadyVoted)
	})

	s.Run("empty and unknown options", func() {
		voters := s.seatResidents(1)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		_, err = s.service.Vote(s.ctx(), voters[0], "Garden", models.OptionEmpty)
		s.ErrorIs(err, models.ErrEmptyOption)
		_, err = s.service.Vote(s.ctx(), voters[0], "Garden", models.Option(9))
		s.ErrorIs(err, models.ErrInvalidOption)
	})

	s.Run("defaulters cannot vote", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err = s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		_, err = s.service.Vote(s.ctx(), wallet(1), "Garden", models.OptionYes)
		s.ErrorIs(err, models.ErrDefaulter)

		_, err = s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.Require().NoError(err)
		_, err = s.service.Vote(s.ctx(), wallet(1), "Garden", models.OptionYes)
		s.NoError(err)
	})

	s.Run("falling behind mid-voting blocks the ballot", func() {
		voters := s.seatResidents(1)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		s.clock.Advance(models.PaymentPeriod + time.Hour)
		_, err = s.service.Vote(s.ctx(), voters[0], "Garden", models.OptionYes)
		s.ErrorIs(err, models.ErrDefaulter)
	})

	s.Run("strangers cannot vote", func() {
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		_, err = s.service.Vote(s.ctx(), wallet(60), "Garden", models.OptionYes)
		s.ErrorIs(err, models.ErrPermissionDenied)
	})

	s.Run("manager without a dwelling votes from the manager seat", func() {
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		v, err := s.service.Vote(s.ctx(), manager, "Garden", models.OptionYes)
		s.Require().NoError(err)
		s.Equal(id.ManagerSeat, v.Residence)

		_, err = s.service.Vote(s.ctx(), manager, "Garden", models.OptionYes)
		s.ErrorIs(err, models.ErrAlreadyVoted)

		residents, err := s.service.GetResidents(s.ctx(), 1, 10)
		s.Require().NoError(err)
		s.Zero(residents.Total, "the manager seat is not a directory entry")
		s.Empty(residents.Residents)
	})

	s.Run("manager is exempt from the defaulter check", func() {
		_, err := s.service.AddResident(s.ctx(), manager, manager, 1101)
		s.Require().NoError(err)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		_, err = s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.Require().NoError(err)

		v, err := s.service.Vote(s.ctx(), manager, "Garden", models.OptionNo)
		s.Require().NoError(err)
		s.Equal(id.ResidenceID(1101), v.Residence)
	})

	s.Run("reopening is impossible after close", func() {
		voters := s.seatResidents(13)
		s.addTopic("Garden", models.CategoryDecision, 0, id.ZeroAddress)
		s.decide("Garden", voters, repeat(models.OptionNo, 13)...)

		_, err := s.service.OpenVoting(s.ctx(), manager, "Garden")
		s.ErrorIs(err, models.ErrNotIdle)

		votes, err := s.service.GetVotes(s.ctx(), "Garden")
		s.Require().NoError(err)
		s.Len(votes, 13)
		tally := models.TallyVotes(votes)
		s.Equal(13, tally.No)
	})
}

func (s *ServiceSuite) TestApprovedSideEffects() {
	s.Run("CHANGE_MANAGER hands over to the responsible", func() {
		voters := s.seatResidents(13)
		s.addTopic("Elect", models.CategoryChangeManager, 0, voters[4])
		t := s.decide("Elect", voters, repeat(models.OptionYes, 13)...)
		s.Equal(models.StatusApproved, t.Status)

		got, err := s.service.GetManager(s.ctx())
		s.Require().NoError(err)
		s.Equal(voters[4], got)

		_, err = s.service.AddTopic(s.ctx(), voters[4], models.TopicDraft{Title: "First act"})
		s.Require().NoError(err)
		_, err = s.service.OpenVoting(s.ctx(), manager, "First act")
		s.ErrorIs(err, models.ErrPermissionDenied, "the previous manager lost the role")
		_, err = s.service.OpenVoting(s.ctx(), voters[4], "First act")
		s.NoError(err)
	})

	s.Run("denied topics have no side effect", func() {
		voters := s.seatResidents(13)
		s.addTopic("Raise", models.CategoryChangeQuota, 5, id.ZeroAddress)
		s.decide("Raise", voters, repeat(models.OptionNo, 13)...)

		q, err := s.service.MonthlyQuota(s.ctx())
		s.Require().NoError(err)
		s.Equal(quota, q)
	})
}
