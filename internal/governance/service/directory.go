package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"condo/internal/governance/models"
	"condo/internal/governance/residence"
	"condo/internal/governance/store"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	audit "condo/pkg/platform/audit"
	"condo/pkg/platform/sentinel"
)

// AddResident registers wallet at residence, or moves an existing record
// there. The record always starts without the counselor flag.
func (s *Service) AddResident(ctx context.Context, caller, wallet id.Address, res id.ResidenceID) (*models.Resident, error) {
	if wallet.IsZero() {
		return nil, models.ErrInvalidAddress
	}
	if !residence.Exists(res) {
		return nil, models.ErrResidenceNotFound
	}

	var added *models.Resident
	err := s.mutate(ctx, "add_resident", func(ctx context.Context, tx store.Store) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		a, err := identify(ctx, tx, settings, caller)
		if err != nil {
			return err
		}
		if !a.manager && !a.isCounselor() {
			return models.ErrOnlyManagerOrCouncil
		}

		occupant, err := tx.FindResidentByResidence(ctx, res)
		switch {
		case err == nil && occupant.Wallet != wallet:
			return models.ErrResidenceOccupied
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load residence occupant")
		}

		added = &models.Resident{
			Wallet:    wallet,
			Residence: res,
			CreatedAt: now(ctx),
		}
		if err := tx.SaveResident(ctx, added); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save resident")
		}
		// The store keeps the original creation time of a replaced record.
		saved, err := findResident(ctx, tx, wallet)
		if err != nil {
			return err
		}
		added, err = decorate(ctx, tx, settings, saved)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventResidentAdded,
		"actor", caller.String(),
		"subject", wallet.String(),
		"residence", res.String(),
	)
	return added, nil
}

// RemoveResident deletes wallet's record. Counselors must lose the flag first.
func (s *Service) RemoveResident(ctx context.Context, caller, wallet id.Address) error {
	err := s.mutate(ctx, "remove_resident", func(ctx context.Context, tx store.Store) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if caller != settings.Manager {
			return models.ErrOnlyManager
		}
		r, err := findResident(ctx, tx, wallet)
		if err != nil {
			return err
		}
		if r.IsCounselor {
			return models.ErrCounselorProtected
		}
		if err := tx.DeleteResident(ctx, wallet); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete resident")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventResidentRemoved,
		"actor", caller.String(),
		"subject", wallet.String(),
	)
	return nil
}

// SetCounselor grants or revokes the counselor flag.
func (s *Service) SetCounselor(ctx context.Context, caller, wallet id.Address, counselor bool) (*models.Resident, error) {
	var updated *models.Resident
	err := s.mutate(ctx, "set_counselor", func(ctx context.Context, tx store.Store) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if caller != settings.Manager {
			return models.ErrOnlyManager
		}
		if wallet.IsZero() {
			return models.ErrInvalidAddress
		}

		r, err := findResident(ctx, tx, wallet)
		if err != nil && !errors.Is(err, models.ErrResidentNotFound) {
			return err
		}
		if counselor && r == nil {
			return models.ErrMustBeResident
		}
		if !counselor && (r == nil || !r.IsCounselor) {
			return models.ErrCounselorNotFound
		}

		r.IsCounselor = counselor
		if err := tx.SaveResident(ctx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save resident")
		}
		updated, err = decorate(ctx, tx, settings, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	decision := "granted"
	if !counselor {
		decision = "revoked"
	}
	s.logAudit(ctx, audit.EventCounselorSet,
		"actor", caller.String(),
		"subject", wallet.String(),
		"decision", decision,
	)
	return updated, nil
}

// GetResident returns wallet's record or ErrResidentNotFound.
func (s *Service) GetResident(ctx context.Context, wallet id.Address) (*models.Resident, error) {
	ctx, span := s.span(ctx, "get_resident", attribute.String("wallet", wallet.String()))
	defer span.End()

	settings, err := loadSettings(ctx, s.store)
	if err != nil {
		return nil, err
	}
	r, err := findResident(ctx, s.store, wallet)
	if err != nil {
		return nil, err
	}
	return decorate(ctx, s.store, settings, r)
}

// GetResidents pages through the directory in registration order.
func (s *Service) GetResidents(ctx context.Context, page, pageSize int) (*models.ResidentPage, error) {
	ctx, span := s.span(ctx, "get_residents")
	defer span.End()

	page, pageSize = models.ClampPage(page, pageSize)
	settings, err := loadSettings(ctx, s.store)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListResidents(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list residents")
	}
	total, err := s.store.CountResidents(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count residents")
	}

	out := make([]*models.Resident, 0, len(list))
	for _, r := range list {
		d, err := decorate(ctx, s.store, settings, r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return &models.ResidentPage{
		Residents: out,
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		Universe:  residence.QuorumPopulation,
	}, nil
}

// IsResident reports whether wallet has a record.
func (s *Service) IsResident(ctx context.Context, wallet id.Address) (bool, error) {
	_, err := findResident(ctx, s.store, wallet)
	if errors.Is(err, models.ErrResidentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetManager returns the current manager wallet.
func (s *Service) GetManager(ctx context.Context) (id.Address, error) {
	settings, err := loadSettings(ctx, s.store)
	if err != nil {
		return id.ZeroAddress, err
	}
	return settings.Manager, nil
}

// decorate fills the derived resident fields.
func decorate(ctx context.Context, st store.Store, settings *models.Settings, r *models.Resident) (*models.Resident, error) {
	out := *r
	out.IsManager = r.Wallet == settings.Manager
	next, ok, err := st.NextPayment(ctx, r.Residence)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load next payment")
	}
	out.NextPayment = time.Time{}
	if ok {
		out.NextPayment = next
	}
	return &out, nil
}
