package handler

import (
	"net/http"

	"condo/internal/governance/residence"
	"condo/pkg/platform/httputil"
)

// HandleListResidences handles GET /residences.
func (h *Handler) HandleListResidences(w http.ResponseWriter, _ *http.Request) {
	all := residence.All()
	out := make([]ResidenceResponse, 0, len(all))
	for _, r := range all {
		out = append(out, toResidence(r))
	}
	httputil.WriteJSON(w, http.StatusOK, ResidencesResponse{Residences: out, Total: len(out)})
}

// HandleGetResidence handles GET /residences/{id}. Unknown ids answer 200
// with exists=false.
func (h *Handler) HandleGetResidence(w http.ResponseWriter, r *http.Request) {
	res, err := pathResidence(r)
	if err != nil {
		h.fail(w, r, "residence_exists", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResidence(res))
}

func (h *Handler) HandleIsDefaulter(w http.ResponseWriter, r *http.Request) {
	res, err := pathResidence(r)
	if err != nil {
		h.fail(w, r, "is_defaulter", err)
		return
	}
	defaulter, err := h.service.IsDefaulter(r.Context(), res)
	if err != nil {
		h.fail(w, r, "is_defaulter", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DefaulterResponse{Residence: res, Defaulter: defaulter})
}

// HandlePayQuota handles POST /residences/{id}/payments.
func (h *Handler) HandlePayQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payer, ok := h.caller(w, r)
	if !ok {
		return
	}
	res, err := pathResidence(r)
	if err != nil {
		h.fail(w, r, "pay_quota", err)
		return
	}
	req, ok := decode[PayQuotaRequest](w, r, h.logger)
	if !ok {
		return
	}
	payment, err := h.service.PayQuota(ctx, payer, res, req.Value)
	if err != nil {
		h.fail(w, r, "pay_quota", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

func (h *Handler) HandleGetPayments(w http.ResponseWriter, r *http.Request) {
	res, err := pathResidence(r)
	if err != nil {
		h.fail(w, r, "get_payments", err)
		return
	}
	payments, err := h.service.GetPayments(r.Context(), res)
	if err != nil {
		h.fail(w, r, "get_payments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PaymentsResponse{Residence: res, Payments: payments})
}

// HandleGetResidents handles GET /residents?page=&page_size=.
func (h *Handler) HandleGetResidents(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	out, err := h.service.GetResidents(r.Context(), page, size)
	if err != nil {
		h.fail(w, r, "get_residents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGetResident(w http.ResponseWriter, r *http.Request) {
	wallet, err := pathWallet(r)
	if err != nil {
		h.fail(w, r, "get_resident", err)
		return
	}
	resident, err := h.service.GetResident(r.Context(), wallet)
	if err != nil {
		h.fail(w, r, "get_resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resident)
}

// HandleAddResident handles POST /residents.
func (h *Handler) HandleAddResident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := decode[AddResidentRequest](w, r, h.logger)
	if !ok {
		return
	}
	resident, err := h.service.AddResident(ctx, caller, req.wallet, req.Residence)
	if err != nil {
		h.fail(w, r, "add_resident", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resident)
}

func (h *Handler) HandleRemoveResident(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	wallet, err := pathWallet(r)
	if err != nil {
		h.fail(w, r, "remove_resident", err)
		return
	}
	if err := h.service.RemoveResident(r.Context(), caller, wallet); err != nil {
		h.fail(w, r, "remove_resident", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetCounselor handles PUT /residents/{wallet}/counselor.
func (h *Handler) HandleSetCounselor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	wallet, err := pathWallet(r)
	if err != nil {
		h.fail(w, r, "set_counselor", err)
		return
	}
	req, ok := decode[SetCounselorRequest](w, r, h.logger)
	if !ok {
		return
	}
	resident, err := h.service.SetCounselor(ctx, caller, wallet, req.Counselor)
	if err != nil {
		h.fail(w, r, "set_counselor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resident)
}

func (h *Handler) HandleGetManager(w http.ResponseWriter, r *http.Request) {
	manager, err := h.service.GetManager(r.Context())
	if err != nil {
		h.fail(w, r, "get_manager", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ManagerResponse{Manager: manager})
}

func (h *Handler) HandleGetQuota(w http.ResponseWriter, r *http.Request) {
	quota, err := h.service.MonthlyQuota(r.Context())
	if err != nil {
		h.fail(w, r, "monthly_quota", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, QuotaResponse{MonthlyQuota: quota})
}
