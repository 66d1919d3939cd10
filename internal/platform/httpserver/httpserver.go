package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with defaults sized for this service. The write
// timeout must exceed the ledger confirmation wait (90s default): issuance
// holds the request open while anchoring, and a shorter timeout would cut
// the response off mid-confirmation.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
}
