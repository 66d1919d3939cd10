package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeouts(t *testing.T) {
	srv := New(":8080", http.NewServeMux())

	require.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)

	// Issuance holds the response open for up to the 90s ledger
	// confirmation wait; the write timeout must not cut it off.
	assert.Greater(t, srv.WriteTimeout, 90*time.Second)
}
