package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. WriteTimeout stays unset so /events streams
// are not cut off; handlers bound their own work with middleware.Timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
