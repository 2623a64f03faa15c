package client

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("HTTP error: %d", e.Code)
	}
	return fmt.Sprintf("HTTP error: %s", e.Status)
}

// circuitBreaker disables all requests for a cooldown once the server
// reports it is overloaded
type circuitBreaker struct {
	name  string
	mutex sync.RWMutex
	until time.Time
	delay time.Duration
	now   func() time.Time
}

func newCircuitBreaker(name string, delay time.Duration) *circuitBreaker {
	return &circuitBreaker{
		name:  name,
		delay: delay,
		now:   time.Now,
	}
}

// check returns ErrCircuitOpen while the cooldown is running
func (b *circuitBreaker) check() error {
	b.mutex.RLock()
	now := b.now()
	open := now.Before(b.until)
	triggered := !b.until.IsZero()
	remaining := b.until.Sub(now)
	b.mutex.RUnlock()

	if open {
		log.Debugf("🚫 %s request blocked by circuit breaker. Remaining time: %v", b.name, remaining.Round(time.Second))
		return fmt.Errorf("%w: requests to %s disabled for %v more", ErrCircuitOpen, b.name, remaining.Round(time.Second))
	}

	if triggered {
		b.mutex.Lock()
		// Double-check after acquiring write lock
		if !b.until.IsZero() && !now.Before(b.until) {
			b.until = time.Time{}
			log.Infof("✅ %s circuit breaker re-enabled - requests are now allowed", b.name)
		}
		b.mutex.Unlock()
	}
	return nil
}

// observe trips the breaker on overload statuses
func (b *circuitBreaker) observe(statusCode int) {
	if b.delay <= 0 {
		return
	}
	if statusCode != http.StatusTooManyRequests && statusCode != http.StatusServiceUnavailable {
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.until = b.now().Add(b.delay)
	log.Warnf("🚫 %s circuit breaker activated! All requests disabled until %v",
		b.name, b.until.Format("15:04:05"))
}
