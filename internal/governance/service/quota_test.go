package service

import (
	"time"

	"condo/internal/governance/models"
)

func (s *ServiceSuite) TestPayQuota() {
	s.Run("unknown residence", func() {
		_, err := s.service.PayQuota(s.ctx(), wallet(1), 2506, quota)
		s.ErrorIs(err, models.ErrResidenceNotFound)
	})

	s.Run("value must equal the quota", func() {
		_, err := s.service.PayQuota(s.ctx(), wallet(1), 1101, quota-1)
		s.ErrorIs(err, models.ErrWrongValue)
		_, err = s.service.PayQuota(s.ctx(), wallet(1), 1101, quota+1)
		s.ErrorIs(err, models.ErrWrongValue)
	})

	s.Run("anyone may pay for any valid residence", func() {
		p, err := s.service.PayQuota(s.ctx(), wallet(77), 3402, quota)
		s.Require().NoError(err)
		s.Equal(wallet(77), p.Payer)
		s.Equal(start, p.PaidAt)
		s.Equal(start.Add(models.PaymentPeriod), p.NextPayment)
	})

	s.Run("second payment in the same period is rejected", func() {
		_, err := s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.Require().NoError(err)

		s.clock.Advance(29 * 24 * time.Hour)
		_, err = s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.ErrorIs(err, models.ErrAlreadyPaidThisPeriod)

		balance, err := s.service.Balance(s.ctx())
		s.Require().NoError(err)
		s.Equal(quota, balance)
	})

	s.Run("paying exactly when due advances thirty days", func() {
		_, err := s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.Require().NoError(err)

		s.clock.Advance(models.PaymentPeriod)
		p, err := s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.Require().NoError(err)
		s.Equal(start.Add(2*models.PaymentPeriod), p.NextPayment)

		payments, err := s.service.GetPayments(s.ctx(), 1101)
		s.Require().NoError(err)
		s.Len(payments, 2)

		balance, err := s.service.Balance(s.ctx())
		s.Require().NoError(err)
		s.Equal(2*quota, balance)
	})

	s.Run("late payment counts from now", func() {
		_, err := s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.Require().NoError(err)

		s.clock.Advance(45 * 24 * time.Hour)
		p, err := s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.Require().NoError(err)
		s.Equal(s.clock.Now().Add(models.PaymentPeriod), p.NextPayment)
	})

	s.Run("balance overflow is refused", func() {
		s.Require().NoError(s.store.SaveSettings(s.ctx(), &models.Settings{
			Manager:      manager,
			MonthlyQuota: quota,
			Balance:      ^models.Amount(0) - quota + 1,
		}))
		_, err := s.service.PayQuota(s.ctx(), wallet(1), 1101, quota)
		s.ErrorIs(err, models.ErrBalanceOverflow)
	})
}

func (s *ServiceSuite) TestIsDefaulter() {
	s.Run("an empty residence is never a defaulter", func() {
		defaulter, err := s.service.IsDefaulter(s.ctx(), 1101)
		s.Require().NoError(err)
		s.False(defaulter)
	})

	s.Run("a resident who never paid is a defaulter", func() {
		_, err := s.service.AddResident(s.ctx(), manager, wallet(1), 1101)
		s.Require().NoError(err)

		defaulter, err := s.service.IsDefaulter(s.ctx(), 1101)
		s.Require().NoError(err)
		s.True(defaulter)
	})

	s.Run("payment keeps the resident current until the due date", func() {
		s.seatResidents(1)

		s.clock.Advance(models.PaymentPeriod)
		defaulter, err := s.service.IsDefaulter(s.ctx(), 1101)
		s.Require().NoError(err)
		s.False(defaulter, "due date itself is still current")

		s.clock.Advance(time.Second)
		defaulter, err = s.service.IsDefaulter(s.ctx(), 1101)
		s.Require().NoError(err)
		s.True(defaulter)
	})
}
