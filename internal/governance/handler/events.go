package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	dErrors "condo/pkg/domain-errors"
	"condo/pkg/platform/httputil"
)

// keepAlive is how often an idle stream sends a comment line.
const keepAlive = 15 * time.Second

// HandleEvents streams notifications as Server-Sent Events until the client
// disconnects. Each event is named after the notification type.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	events, cancel := h.events.Subscribe(ctx)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case n, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode notification", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", n.ID, n.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
