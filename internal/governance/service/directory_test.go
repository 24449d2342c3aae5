package service

import (
	"errors"
	"math"

	"condo/internal/governance/models"
	"condo/internal/governance/residence"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
)

func (s *ServiceSuite) TestAddResident() {
	s.Run("manager registers a resident", func() {
		r, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)
		s.Equal(wallet(1), r.Wallet)
		s.Equal(id.ResidenceID(1101), r.Residence)
		s.False(r.IsCounselor)
		s.False(r.IsManager)
		s.True(r.NextPayment.IsZero())
		s.Equal(start, r.CreatedAt)

		ok, err := s.service.IsResident(s.ctx(), wallet(1))
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("zero wallet is an invalid address", func() {
		_, err := s.service.AddResident(s.ctx(), manager, id.ZeroAddress, 1101)
		s.ErrorIs(err, models.ErrInvalidAddress)
	})

	s.Run("unknown residences are rejected before the role check", func() {
		for _, res := range []id.ResidenceID{0, 1100, 1106, 1601, 6101, 2506, 11101} {
			_, err := s.service.AddResident(s.ctx(), wallet(99), wallet(1), res)
			s.ErrorIs(err, models.ErrResidenceNotFound, "residence %d", res)
			s.False(residence.Exists(res))
		}
	})

	s.Run("plain residents cannot register others", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)

		_, err = s.service.AddResident(s.ctx(), wallet(1), wallet(2), 1102)
		s.ErrorIs(err, models.ErrPermissionDenied)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "Only the manager or the council can do this")
	})

	s.Run("counselors can register residents", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)
		_, err = s.service.SetCounselor(s.ctx(), manager, wallet(1), true)
		s.Require().NoError(err)

		_, err = s.service.AddResident(s.ctx(), wallet(1), wallet(2), 1102)
		s.NoError(err)
	})

	s.Run("an occupied residence cannot take a second wallet", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)

		_, err = s.service.AddResident(s.ctx(), manager, wallet(2), 1101)
		s.ErrorIs(err, models.ErrResidenceOccupied)
	})

	s.Run("adding twice overwrites the record", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)
		_, err = s.service.SetCounselor(s.ctx(), manager, wallet(1), true)
		s.Require().NoError(err)

		s.clock.Advance(1000)
		r, err := s.service.AddResident(s.ctx(), manager, wallet(1), 2305)
		s.Require().NoError(err)
		s.Equal(id.ResidenceID(2305), r.Residence)
		s.False(r.IsCounselor, "overwrite clears the counselor flag")
		s.Equal(start, r.CreatedAt)

		page, err := s.service.GetResidents(s.ctx(), 1, 10)
		s.Require().NoError(err)
		s.Equal(1, page.Total)

		// the old residence is free again
		_, err = s.service.AddResident(s.ctx(), manager, wallet(2), 1101)
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestRemoveResident() {
	s.Run("only the manager removes residents", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)

		err = s.service.RemoveResident(s.ctx(), wallet(1), wallet(1))
		s.ErrorIs(err, models.ErrPermissionDenied)
		s.Contains(err.Error(), "Only the manager can do this")
	})

	s.Run("missing resident", func() {
		err := s.service.RemoveResident(s.ctx(), manager, wallet(7))
		s.ErrorIs(err, models.ErrResidentNotFound)
	})

	s.Run("counselor is protected until the flag is cleared", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)
		_, err = s.service.SetCounselor(s.ctx(), manager, wallet(1), true)
		s.Require().NoError(err)

		err = s.service.RemoveResident(s.ctx(), manager, wallet(1))
		s.ErrorIs(err, models.ErrCounselorProtected)

		_, err = s.service.SetCounselor(s.ctx(), manager, wallet(1), false)
		s.Require().NoError(err)
		s.Require().NoError(s.service.RemoveResident(s.ctx(), manager, wallet(1)))

		_, err = s.service.GetResident(s.ctx(), wallet(1))
		s.ErrorIs(err, models.ErrResidentNotFound)
		s.Equal([]string{"resident_added", "counselor_set", "counselor_set", "resident_removed"}, s.auditActions())
	})
}

func (s *ServiceSuite) TestSetCounselor() {
	s.Run("only the manager sets counselors", func() {
		_, err := s.service.SetCounselor(s.ctx(), wallet(1), wallet(1), true)
		s.ErrorIs(err, models.ErrPermissionDenied)
	})

	s.Run("zero wallet", func() {
		_, err := s.service.SetCounselor(s.ctx(), manager, id.ZeroAddress, true)
		s.ErrorIs(err, models.ErrInvalidAddress)
	})

	s.Run("grant requires a resident", func() {
		_, err := s.service.SetCounselor(s.ctx(), manager, wallet(1), true)
		s.ErrorIs(err, models.ErrMustBeResident)
	})

	s.Run("revoke requires a counselor", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)

		_, err = s.service.SetCounselor(s.ctx(), manager, wallet(1), false)
		s.ErrorIs(err, models.ErrCounselorNotFound)
		_, err = s.service.SetCounselor(s.ctx(), manager, wallet(2), false)
		s.ErrorIs(err, models.ErrCounselorNotFound)
	})

	s.Run("grant and revoke", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)

		r, err := s.service.SetCounselor(s.ctx(), manager, wallet(1), true)
		s.Require().NoError(err)
		s.True(r.IsCounselor)

		r, err = s.service.SetCounselor(s.ctx(), manager, wallet(1), false)
		s.Require().NoError(err)
		s.False(r.IsCounselor)
	})
}

func (s *ServiceSuite) TestDirectoryReads() {
	s.Run("unknown wallet is an explicit not found", func() {
		r, err := s.service.GetResident(s.ctx(), wallet(42))
		s.Nil(r)
		s.True(errors.Is(err, models.ErrResidentNotFound))

		ok, err := s.service.IsResident(s.ctx(), wallet(42))
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("manager flag and next payment are derived", func() {
		_, err := s.service.AddResident(s.ctx(), manager, manager, 1101)
		s.Require().NoError(err)
		_, err = s.service.PayQuota(s.ctx(), manager, 1101, quota)
		s.Require().NoError(err)

		r, err := s.service.GetResident(s.ctx(), manager)
		s.Require().NoError(err)
		s.True(r.IsManager)
		s.Equal(start.Add(models.PaymentPeriod), r.NextPayment)
	})

	s.Run("pages are one indexed in registration order", func() {
		s.seatResidents(12)

		first, err := s.service.GetResidents(s.ctx(), 1, 5)
		s.Require().NoError(err)
		s.Len(first.Residents, 5)
		s.Equal(12, first.Total)
		s.Equal(residence.QuorumPopulation, first.Universe)
		s.Equal(wallet(1), first.Residents[0].Wallet)

		last, err := s.service.GetResidents(s.ctx(), 3, 5)
		s.Require().NoError(err)
		s.Len(last.Residents, 2)
		s.Equal(wallet(12), last.Residents[1].Wallet)

		beyond, err := s.service.GetResidents(s.ctx(), 9, 5)
		s.Require().NoError(err)
		s.Empty(beyond.Residents)

		clamped, err := s.service.GetResidents(s.ctx(), 0, 0)
		s.Require().NoError(err)
		s.Equal(1, clamped.Page)
		s.Equal(10, clamped.PageSize)

		s.Require().NotPanics(func() {
			huge, err := s.service.GetResidents(s.ctx(), math.MaxInt, 100)
			s.Require().NoError(err)
			s.Empty(huge.Residents)
			s.Equal(math.MaxInt/100, huge.Page)
		})
	})
}
