package client

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"ecoleta/client/internal/cache"
)

const userAgent = "ecoleta-client/1.0"

// transport paces requests and guards them with a circuit breaker
type transport struct {
	name       string
	rl         ratelimit.Limiter
	httpClient *resty.Client
	breaker    *circuitBreaker
}

func newTransport(name string, httpClient *resty.Client, maxRequestsPerSecond int, breakerDelay time.Duration) *transport {
	rl := ratelimit.NewUnlimited()
	if maxRequestsPerSecond > 0 {
		rl = ratelimit.New(maxRequestsPerSecond)
	}

	return &transport{
		name:       name,
		rl:         rl,
		httpClient: httpClient,
		breaker:    newCircuitBreaker(name, breakerDelay),
	}
}

func (t *transport) send(ctx context.Context, method, url string, build func(*resty.Request)) (*resty.Response, error) {
	if err := t.breaker.check(); err != nil {
		return nil, err
	}

	t.rl.Take()

	req := t.httpClient.R().SetContext(ctx)
	if build != nil {
		build(req)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		// Check if this is a context cancellation from the caller
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to %s %s: %w", method, url, err)
	}

	if resp.IsError() {
		t.breaker.observe(resp.StatusCode())
		log.Debugf("%s %s %s returned %s", t.name, method, url, resp.Status())
		return nil, &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
	}

	return resp, nil
}

func (t *transport) close() error {
	return t.httpClient.Close()
}

// readCache reports a hit. Cache failures are logged and treated as misses.
func readCache(ctx context.Context, c cache.Cache, key string, dst any) bool {
	if c == nil {
		return false
	}
	ok, err := c.Get(ctx, key, dst)
	if err != nil {
		log.Warnf("⚠️ Cache read failed for %s: %v", key, err)
		return false
	}
	return ok
}

func writeCache(ctx context.Context, c cache.Cache, key string, value any) {
	if c == nil {
		return
	}
	if err := c.Set(ctx, key, value); err != nil {
		log.Warnf("⚠️ Cache write failed for %s: %v", key, err)
	}
}
