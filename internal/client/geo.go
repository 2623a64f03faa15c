package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ecoleta/client/internal/cache"
	"ecoleta/client/internal/config"
	"ecoleta/client/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// GeoClient lists federative units and their municipalities
type GeoClient interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	ListCities(ctx context.Context, uf string) ([]domain.City, error)
	Close() error
}

type geoClient struct {
	transport *transport
	cache     cache.Cache
}

func NewGeoClient(cfg config.GeoConfig, geoCache cache.Cache) GeoClient {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(2).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &geoClient{
		transport: newTransport("geo", httpClient, 0, 0),
		cache:     geoCache,
	}
}

func (c *geoClient) ListStates(ctx context.Context) ([]domain.State, error) {
	const key = "geo:states"

	var states []domain.State
	if c.cacheGet(ctx, key, &states) {
		return states, nil
	}

	resp, err := c.transport.send(ctx, resty.MethodGet, "estados", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch states: %w", err)
	}

	if err := json.Unmarshal(resp.Bytes(), &states); err != nil {
		return nil, fmt.Errorf("failed to decode states: %w", err)
	}

	c.cacheSet(ctx, key, states)
	log.Debugf("Successfully fetched %d states", len(states))
	return states, nil
}

func (c *geoClient) ListCities(ctx context.Context, uf string) ([]domain.City, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if uf == "" {
		return nil, fmt.Errorf("failed to fetch cities: empty UF")
	}
	key := "geo:cities:" + uf

	var cities []domain.City
	if c.cacheGet(ctx, key, &cities) {
		return cities, nil
	}

	resp, err := c.transport.send(ctx, resty.MethodGet, "estados/{uf}/municipios", func(r *resty.Request) {
		r.SetPathParam("uf", uf)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cities for %s: %w", uf, err)
	}

	if err := json.Unmarshal(resp.Bytes(), &cities); err != nil {
		return nil, fmt.Errorf("failed to decode cities for %s: %w", uf, err)
	}

	c.cacheSet(ctx, key, cities)
	log.Debugf("Successfully fetched %d cities for %s", len(cities), uf)
	return cities, nil
}

func (c *geoClient) Close() error {
	return c.transport.close()
}

func (c *geoClient) cacheGet(ctx context.Context, key string, dst any) bool {
	return readCache(ctx, c.cache, key, dst)
}

func (c *geoClient) cacheSet(ctx context.Context, key string, value any) {
	writeCache(ctx, c.cache, key, value)
}
