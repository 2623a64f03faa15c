package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := newCircuitBreaker("test", time.Minute)
	b.now = func() time.Time { return now }

	require.NoError(t, b.check())

	b.observe(http.StatusInternalServerError)
	require.NoError(t, b.check(), "plain server errors do not trip the breaker")

	b.observe(http.StatusServiceUnavailable)
	require.ErrorIs(t, b.check(), ErrCircuitOpen)

	now = now.Add(30 * time.Second)
	require.ErrorIs(t, b.check(), ErrCircuitOpen)

	now = now.Add(31 * time.Second)
	require.NoError(t, b.check())
	assert.True(t, b.until.IsZero(), "expired breaker is reset")
}

func TestCircuitBreakerDisabled(t *testing.T) {
	b := newCircuitBreaker("test", 0)
	b.observe(http.StatusTooManyRequests)
	assert.NoError(t, b.check())
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "HTTP error: 503 Service Unavailable", (&StatusError{Code: 503, Status: "503 Service Unavailable"}).Error())
	assert.Equal(t, "HTTP error: 404", (&StatusError{Code: 404}).Error())
}
