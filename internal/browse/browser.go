// Package browse drives the point browsing screen: a fixed UF/city, a
// category selection, and the point list that follows it.
package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ecoleta/client/internal/domain"
	"ecoleta/client/internal/selection"

	log "github.com/sirupsen/logrus"
)

// Catalog is the part of the registry client the browser needs
type Catalog interface {
	GetItems(ctx context.Context) ([]domain.Item, error)
	GetPoints(ctx context.Context, filter domain.PointFilter) ([]domain.Point, error)
	GetPoint(ctx context.Context, id int) (*domain.PointDetail, error)
}

type Browser struct {
	catalog   Catalog
	locator   domain.Locator
	selection *selection.Controller[domain.CategoryID]
	uf        string
	city      string

	mu          sync.Mutex
	ctx         context.Context
	seq         uint64
	cancel      context.CancelFunc
	items       []domain.Item
	points      []domain.Point
	err         error
	position    domain.Position
	onPoints    func([]domain.Point)
	unsubscribe func()
	wg          sync.WaitGroup
}

func NewBrowser(catalog Catalog, locator domain.Locator, uf, city string) *Browser {
	b := &Browser{
		catalog:   catalog,
		locator:   locator,
		selection: selection.NewController[domain.CategoryID](),
		uf:        uf,
		city:      city,
		points:    []domain.Point{},
	}
	b.unsubscribe = b.selection.Subscribe(func([]domain.CategoryID) {
		b.refresh()
	})
	return b
}

// OnPoints registers a callback for every applied point list
func (b *Browser) OnPoints(fn func([]domain.Point)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPoints = fn
}

// Start loads the catalog and device position and issues the first point
// query. Later queries follow selection changes and are bound to ctx. The
// first query is issued even when the catalog fails to load.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if b.locator != nil {
		position, err := b.locator.Position(ctx)
		switch {
		case errors.Is(err, domain.ErrPermissionDenied):
			log.Warnf("⚠️ Location permission denied, map stays at the origin")
		case err != nil:
			log.Warnf("⚠️ Failed to get current position: %v", err)
		default:
			b.mu.Lock()
			b.position = position
			b.mu.Unlock()
		}
	}

	// The point list does not depend on the catalog
	items, err := b.catalog.GetItems(ctx)
	if err == nil {
		b.mu.Lock()
		b.items = items
		b.mu.Unlock()
	}

	b.refresh()

	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	return nil
}

// Toggle flips a category in the filter; the point list is re-queried.
func (b *Browser) Toggle(id domain.CategoryID) []domain.CategoryID {
	return b.selection.Toggle(id)
}

func (b *Browser) IsSelected(id domain.CategoryID) bool {
	return b.selection.IsSelected(id)
}

func (b *Browser) Selected() []domain.CategoryID {
	return b.selection.Selected()
}

func (b *Browser) Filter() domain.PointFilter {
	return domain.PointFilter{
		City:  b.city,
		UF:    b.uf,
		Items: b.selection.Selected(),
	}
}

func (b *Browser) Items() []domain.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Item(nil), b.items...)
}

// Points returns the most recently applied point list and the error of the
// latest query, if any.
func (b *Browser) Points() ([]domain.Point, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Point(nil), b.points...), b.err
}

func (b *Browser) InitialPosition() domain.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position
}

// Detail loads one point, as when its map marker is pressed
func (b *Browser) Detail(ctx context.Context, id int) (*domain.PointDetail, error) {
	detail, err := b.catalog.GetPoint(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load point detail: %w", err)
	}
	return detail, nil
}

// Wait blocks until every issued query has finished
func (b *Browser) Wait() {
	b.wg.Wait()
}

// Close cancels any in-flight query and detaches from the selection
func (b *Browser) Close() {
	b.unsubscribe()

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.ctx = nil
	b.mu.Unlock()

	b.wg.Wait()
}

// refresh replaces any in-flight query with one for the current selection.
// Only the response to the newest query is applied.
func (b *Browser) refresh() {
	b.mu.Lock()
	if b.ctx == nil {
		b.mu.Unlock()
		return
	}

	if b.cancel != nil {
		b.cancel()
	}
	b.seq++
	seq := b.seq
	ctx, cancel := context.WithCancel(b.ctx)
	b.cancel = cancel
	filter := b.Filter()
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		defer cancel()

		points, err := b.catalog.GetPoints(ctx, filter)

		b.mu.Lock()
		if seq != b.seq {
			b.mu.Unlock()
			log.Debugf("Dropped stale points response #%d (latest #%d)", seq, b.seq)
			return
		}
		if err != nil {
			b.err = err
			b.mu.Unlock()
			log.Warnf("⚠️ Failed to load points for %s/%s: %v", b.uf, b.city, err)
			return
		}
		b.points = points
		b.err = nil
		onPoints := b.onPoints
		b.mu.Unlock()

		if onPoints != nil {
			onPoints(append([]domain.Point(nil), points...))
		}
	}()
}
