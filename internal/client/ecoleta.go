package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ecoleta/client/internal/cache"
	"ecoleta/client/internal/config"
	"ecoleta/client/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

const itemsCacheKey = "items"

// EcoletaClient talks to the collection point registry backend
type EcoletaClient interface {
	GetItems(ctx context.Context) ([]domain.Item, error)
	GetPoints(ctx context.Context, filter domain.PointFilter) ([]domain.Point, error)
	GetPoint(ctx context.Context, id int) (*domain.PointDetail, error)
	CreatePoint(ctx context.Context, point domain.NewPoint) error
	Close() error
}

type ecoletaClient struct {
	transport *transport
	cache     cache.Cache
}

func NewEcoletaClient(cfg config.APIConfig, itemCache cache.Cache) EcoletaClient {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(cfg.MaxRetries).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &ecoletaClient{
		transport: newTransport("ecoleta", httpClient, cfg.MaxRequestsPerSecond, cfg.BreakerCooldownDuration()),
		cache:     itemCache,
	}
}

func (c *ecoletaClient) GetItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if c.cacheGet(ctx, itemsCacheKey, &items) {
		log.Debugf("Served %d items from cache", len(items))
		return items, nil
	}

	resp, err := c.transport.send(ctx, resty.MethodGet, "items", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	if err := json.Unmarshal(resp.Bytes(), &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	c.cacheSet(ctx, itemsCacheKey, items)
	log.Debugf("Successfully fetched %d items", len(items))
	return items, nil
}

func (c *ecoletaClient) GetPoints(ctx context.Context, filter domain.PointFilter) ([]domain.Point, error) {
	resp, err := c.transport.send(ctx, resty.MethodGet, "points", func(r *resty.Request) {
		r.SetQueryParamsFromValues(filter.Query())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points: %w", err)
	}

	points := make([]domain.Point, 0)
	if err := json.Unmarshal(resp.Bytes(), &points); err != nil {
		return nil, fmt.Errorf("failed to decode points: %w", err)
	}

	log.Debugf("Successfully fetched %d points for %s/%s items=%v", len(points), filter.UF, filter.City, filter.Items)
	return points, nil
}

func (c *ecoletaClient) GetPoint(ctx context.Context, id int) (*domain.PointDetail, error) {
	resp, err := c.transport.send(ctx, resty.MethodGet, "points/{id}", func(r *resty.Request) {
		r.SetPathParam("id", strconv.Itoa(id))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch point %d: %w", id, err)
	}

	var detail domain.PointDetail
	if err := json.Unmarshal(resp.Bytes(), &detail); err != nil {
		return nil, fmt.Errorf("failed to decode point %d: %w", id, err)
	}
	return &detail, nil
}

func (c *ecoletaClient) CreatePoint(ctx context.Context, point domain.NewPoint) error {
	_, err := c.transport.send(ctx, resty.MethodPost, "points", func(r *resty.Request) {
		r.SetMultipartFormData(point.FormFields())
		if point.Image != nil {
			r.SetMultipartField("image", point.Image.FileName, point.Image.ContentType, bytes.NewReader(point.Image.Data))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create point %q: %w", point.Name, err)
	}

	log.Infof("✅ Created collection point %q in %s/%s", point.Name, point.City, point.UF)
	return nil
}

func (c *ecoletaClient) Close() error {
	return c.transport.close()
}

func (c *ecoletaClient) cacheGet(ctx context.Context, key string, dst any) bool {
	return readCache(ctx, c.cache, key, dst)
}

func (c *ecoletaClient) cacheSet(ctx context.Context, key string, value any) {
	writeCache(ctx, c.cache, key, value)
}
