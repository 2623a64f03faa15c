package browse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecoleta/client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pointsReply struct {
	points []domain.Point
	err    error
}

type pointsCall struct {
	filter domain.PointFilter
	ctx    context.Context
	reply  chan pointsReply
}

// fakeCatalog hands every GetPoints call to the test, which answers it
// whenever it likes.
type fakeCatalog struct {
	items    []domain.Item
	itemsErr error
	calls    chan *pointsCall

	mu      sync.Mutex
	filters []domain.PointFilter
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		items: []domain.Item{{ID: 1, Title: "Lâmpadas"}, {ID: 2, Title: "Pilhas e Baterias"}},
		calls: make(chan *pointsCall, 16),
	}
}

func (f *fakeCatalog) GetItems(context.Context) ([]domain.Item, error) {
	return f.items, f.itemsErr
}

func (f *fakeCatalog) GetPoints(ctx context.Context, filter domain.PointFilter) ([]domain.Point, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()

	call := &pointsCall{filter: filter, ctx: ctx, reply: make(chan pointsReply, 1)}
	f.calls <- call
	r := <-call.reply
	return r.points, r.err
}

func (f *fakeCatalog) GetPoint(_ context.Context, id int) (*domain.PointDetail, error) {
	if id != 9 {
		return nil, errors.New("not found")
	}
	return &domain.PointDetail{Point: domain.Point{ID: 9, Name: "Mercado"}}, nil
}

func (f *fakeCatalog) next(t *testing.T) *pointsCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a points query")
		return nil
	}
}

func named(name string) []domain.Point {
	return []domain.Point{{Name: name}}
}

func TestStartIssuesUnfilteredQuery(t *testing.T) {
	catalog := newFakeCatalog()
	b := NewBrowser(catalog, domain.StaticLocator{Granted: true, At: domain.Position{Latitude: -27.2, Longitude: -49.6}}, "SC", "Rio do Sul")
	defer b.Close()

	require.NoError(t, b.Start(context.Background()))

	call := catalog.next(t)
	assert.Equal(t, domain.PointFilter{City: "Rio do Sul", UF: "SC", Items: []domain.CategoryID{}}, call.filter)
	call.reply <- pointsReply{points: named("Mercado")}
	b.Wait()

	points, err := b.Points()
	require.NoError(t, err)
	assert.Equal(t, named("Mercado"), points)
	assert.Len(t, b.Items(), 2)
	assert.Equal(t, -27.2, b.InitialPosition().Latitude)
}

func TestToggleRequeriesWithSelection(t *testing.T) {
	catalog := newFakeCatalog()
	b := NewBrowser(catalog, nil, "SC", "Rio do Sul")
	defer b.Close()

	require.NoError(t, b.Start(context.Background()))
	catalog.next(t).reply <- pointsReply{points: named("all")}
	b.Wait()

	b.Toggle(2)
	call := catalog.next(t)
	assert.Equal(t, []domain.CategoryID{2}, call.filter.Items)
	call.reply <- pointsReply{points: named("batteries")}
	b.Wait()

	b.Toggle(7)
	call = catalog.next(t)
	assert.Equal(t, []domain.CategoryID{2, 7}, call.filter.Items)
	call.reply <- pointsReply{points: named("both")}
	b.Wait()

	points, err := b.Points()
	require.NoError(t, err)
	assert.Equal(t, named("both"), points)
	assert.True(t, b.IsSelected(7))
}

func TestStaleResponseIsDropped(t *testing.T) {
	catalog := newFakeCatalog()
	b := NewBrowser(catalog, nil, "SC", "Rio do Sul")
	defer b.Close()

	var applied [][]domain.Point
	var mu sync.Mutex
	b.OnPoints(func(p []domain.Point) {
		mu.Lock()
		applied = append(applied, p)
		mu.Unlock()
	})

	require.NoError(t, b.Start(context.Background()))
	initial := catalog.next(t)

	b.Toggle(3)
	older := catalog.next(t)
	b.Toggle(5)
	newer := catalog.next(t)

	// The superseded queries were cancelled.
	assert.Error(t, initial.ctx.Err())
	assert.Error(t, older.ctx.Err())
	assert.NoError(t, newer.ctx.Err())

	// Newest answers first, then the older ones arrive late.
	newer.reply <- pointsReply{points: named("3+5")}
	older.reply <- pointsReply{points: named("3 only")}
	initial.reply <- pointsReply{points: named("all")}
	b.Wait()

	points, err := b.Points()
	require.NoError(t, err)
	assert.Equal(t, named("3+5"), points)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]domain.Point{named("3+5")}, applied)
}

func TestFailedQueryKeepsSelectionAndPoints(t *testing.T) {
	catalog := newFakeCatalog()
	b := NewBrowser(catalog, nil, "SC", "Rio do Sul")
	defer b.Close()

	require.NoError(t, b.Start(context.Background()))
	catalog.next(t).reply <- pointsReply{points: named("all")}
	b.Wait()

	b.Toggle(4)
	boom := errors.New("HTTP error: 500")
	catalog.next(t).reply <- pointsReply{err: boom}
	b.Wait()

	points, err := b.Points()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, named("all"), points)
	assert.Equal(t, []domain.CategoryID{4}, b.Selected())
}

func TestToggleBeforeStartDoesNotQuery(t *testing.T) {
	catalog := newFakeCatalog()
	b := NewBrowser(catalog, nil, "SC", "Rio do Sul")
	defer b.Close()

	b.Toggle(1)
	b.Wait()

	assert.Empty(t, catalog.calls)
	assert.True(t, b.IsSelected(1))
}

func TestStartQueriesPointsWhenCatalogUnavailable(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.itemsErr = errors.New("offline")
	b := NewBrowser(catalog, nil, "SC", "Rio do Sul")
	defer b.Close()

	require.ErrorIs(t, b.Start(context.Background()), catalog.itemsErr)

	call := catalog.next(t)
	assert.Equal(t, "SC", call.filter.UF)
	call.reply <- pointsReply{points: named("Mercado")}
	b.Wait()

	points, err := b.Points()
	require.NoError(t, err)
	assert.Equal(t, named("Mercado"), points)
	assert.Empty(t, b.Items())
}

func TestPermissionDeniedKeepsOrigin(t *testing.T) {
	catalog := newFakeCatalog()
	b := NewBrowser(catalog, domain.StaticLocator{Granted: false}, "SC", "Rio do Sul")
	defer b.Close()

	require.NoError(t, b.Start(context.Background()))
	catalog.next(t).reply <- pointsReply{}
	b.Wait()

	assert.True(t, b.InitialPosition().IsZero())
}

func TestDetail(t *testing.T) {
	b := NewBrowser(newFakeCatalog(), nil, "SC", "Rio do Sul")
	defer b.Close()

	detail, err := b.Detail(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Mercado", detail.Point.Name)

	_, err = b.Detail(context.Background(), 1)
	require.Error(t, err)
}
