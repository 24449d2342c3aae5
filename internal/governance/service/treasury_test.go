package service

import (
	"condo/internal/governance/models"
	id "condo/pkg/domain"
)

func (s *ServiceSuite) TestTransfer() {
	// Thirteen paid residents put 13 quotas in the treasury.
	const funds = 13 * quota

	s.Run("checks run in order: role, funds, topic state, approved amount", func() {
		voters := s.seatResidents(13)
		s.addTopic("Repair roof", models.CategorySpent, 5*quota, wallet(200))

		_, err := s.service.Transfer(s.ctx(), voters[0], "Repair roof", quota)
		s.ErrorIs(err, models.ErrPermissionDenied)

		_, err = s.service.Transfer(s.ctx(), manager, "Repair roof", funds+1)
		s.ErrorIs(err, models.ErrInsufficientFunds)

		_, err = s.service.Transfer(s.ctx(), manager, "Repair roof", quota)
		s.ErrorIs(err, models.ErrWrongTopicState, "IDLE topic")
		_, err = s.service.Transfer(s.ctx(), manager, "Nope", quota)
		s.ErrorIs(err, models.ErrWrongTopicState, "missing topic")

		s.decide("Repair roof", voters, repeat(models.OptionYes, 13)...)
		_, err = s.service.Transfer(s.ctx(), manager, "Repair roof", 5*quota+1)
		s.ErrorIs(err, models.ErrAmountExceedsApproved)
	})

	s.Run("successful release pays the responsible and spends the topic", func() {
		voters := s.seatResidents(13)
		s.addTopic("Repair roof", models.CategorySpent, 5*quota, wallet(200))
		s.decide("Repair roof", voters, repeat(models.OptionYes, 13)...)

		tr, err := s.service.Transfer(s.ctx(), manager, "Repair roof", 4*quota)
		s.Require().NoError(err)
		s.Equal(wallet(200), tr.To)
		s.Equal(4*quota, tr.Amount)

		balance, err := s.service.Balance(s.ctx())
		s.Require().NoError(err)
		s.Equal(funds-4*quota, balance)

		t, err := s.service.GetTopic(s.ctx(), "Repair roof")
		s.Require().NoError(err)
		s.Equal(models.StatusSpent, t.Status)

		_, err = s.service.Transfer(s.ctx(), manager, "Repair roof", quota)
		s.ErrorIs(err, models.ErrWrongTopicState, "a topic is spent once")

		transfers, err := s.service.GetTransfers(s.ctx())
		s.Require().NoError(err)
		s.Len(transfers, 1)
		s.Contains(s.auditActions(), "transfer_executed")
	})

	s.Run("only SPENT topics release funds", func() {
		voters := s.seatResidents(13)
		s.addTopic("Raise", models.CategoryChangeQuota, quota, id.ZeroAddress)
		s.decide("Raise", voters, repeat(models.OptionYes, 13)...)

		_, err := s.service.Transfer(s.ctx(), manager, "Raise", quota)
		s.ErrorIs(err, models.ErrWrongTopicState)
	})

	s.Run("denied SPENT topics release nothing", func() {
		voters := s.seatResidents(13)
		s.addTopic("Repair roof", models.CategorySpent, quota, id.ZeroAddress)
		s.decide("Repair roof", voters, repeat(models.OptionNo, 13)...)

		_, err := s.service.Transfer(s.ctx(), manager, "Repair roof", quota)
		s.ErrorIs(err, models.ErrWrongTopicState)
	})
}
