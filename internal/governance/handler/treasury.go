package handler

import (
	"net/http"

	"condo/pkg/platform/httputil"
	"condo/pkg/requestcontext"
)

// HandleTransfer handles POST /treasury/transfers.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := decode[TransferRequest](w, r, h.logger)
	if !ok {
		return
	}
	transfer, err := h.service.Transfer(ctx, caller, req.Topic, req.Amount)
	if err != nil {
		h.fail(w, r, "transfer", err)
		return
	}
	h.logger.InfoContext(ctx, "treasury transfer executed",
		"request_id", requestcontext.RequestID(ctx),
		"topic", transfer.Topic,
		"to", transfer.To.String(),
		"amount", transfer.Amount.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, transfer)
}

// HandleGetTreasury returns the balance with the transfer history.
func (h *Handler) HandleGetTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	balance, err := h.service.Balance(ctx)
	if err != nil {
		h.fail(w, r, "balance", err)
		return
	}
	transfers, err := h.service.GetTransfers(ctx)
	if err != nil {
		h.fail(w, r, "get_transfers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TreasuryResponse{Balance: balance, Transfers: transfers})
}

func (h *Handler) HandleGetAdapter(w http.ResponseWriter, _ *http.Request) {
	impl := h.service.ImplementationAddress()
	httputil.WriteJSON(w, http.StatusOK, AdapterResponse{
		Implementation:  impl,
		Upgraded:        !impl.IsZero(),
		Implementations: h.service.Implementations(),
	})
}

// HandleUpgrade handles POST /adapter/upgrade.
func (h *Handler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := decode[UpgradeRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.Upgrade(ctx, caller, req.implementation); err != nil {
		h.fail(w, r, "upgrade", err)
		return
	}
	h.HandleGetAdapter(w, r)
}
