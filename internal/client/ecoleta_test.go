package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ecoleta/client/internal/cache"
	"ecoleta/client/internal/config"
	"ecoleta/client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (EcoletaClient, cache.Cache) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := cache.NewMemoryCache(time.Minute)
	client := NewEcoletaClient(config.APIConfig{
		BaseURL:         srv.URL,
		Timeout:         5,
		MaxRetries:      0,
		BreakerCooldown: 60,
	}, c)
	t.Cleanup(func() { client.Close() })
	return client, c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestGetItemsIsCached(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, `[{"id":1,"title":"Lâmpadas","image_url":"http://x/lampadas.svg"},{"id":2,"title":"Pilhas e Baterias","image_url":"http://x/baterias.svg"}]`)
	})
	client, _ := newTestClient(t, mux)

	items, err := client.GetItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.Item{ID: 2, Title: "Pilhas e Baterias", ImageURL: "http://x/baterias.svg"}, items[1])

	again, err := client.GetItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, items, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetPointsSendsFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Rio do Sul", q.Get("city"))
		assert.Equal(t, "SC", q.Get("uf"))
		assert.Equal(t, "2,7", q.Get("items"))
		writeJSON(w, http.StatusOK, `[{"id":9,"name":"Mercado","image_url":"http://x/9.jpg","latitude":"-27.2","longitude":-49.6}]`)
	})
	client, _ := newTestClient(t, mux)

	points, err := client.GetPoints(context.Background(), domain.PointFilter{
		City:  "Rio do Sul",
		UF:    "SC",
		Items: []domain.CategoryID{2, 7},
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "Mercado", points[0].Name)
	assert.InDelta(t, -27.2, float64(points[0].Latitude), 1e-9)
}

func TestGetPointsWithoutItemsOmitsFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["items"]
		assert.False(t, ok)
		writeJSON(w, http.StatusOK, `[]`)
	})
	client, _ := newTestClient(t, mux)

	points, err := client.GetPoints(context.Background(), domain.PointFilter{City: "Rio do Sul", UF: "SC"})
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestGetPoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"point":{"id":9,"name":"Mercado","email":"m@x.test","whatsapp":"479","city":"Rio do Sul","uf":"SC","image_url":"http://x/9.jpg","latitude":-27.2,"longitude":-49.6},"items":[{"title":"Lâmpadas"}]}`)
	})
	client, _ := newTestClient(t, mux)

	detail, err := client.GetPoint(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "m@x.test", detail.Point.Email)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Lâmpadas", detail.Items[0].Title)
}

func TestCreatePointSendsMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "Mercado", r.FormValue("name"))
		assert.Equal(t, "m@x.test", r.FormValue("email"))
		assert.Equal(t, "4799999999", r.FormValue("whatsapp"))
		assert.Equal(t, "SC", r.FormValue("uf"))
		assert.Equal(t, "Rio do Sul", r.FormValue("city"))
		assert.Equal(t, "-27.2142", r.FormValue("latitude"))
		assert.Equal(t, "-49.6431", r.FormValue("longitude"))
		assert.Equal(t, "1,2,6", r.FormValue("items"))

		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, "front.png", header.Filename)
		assert.Equal(t, []byte("png-bytes"), data)

		writeJSON(w, http.StatusOK, `{"id":10}`)
	})
	client, _ := newTestClient(t, mux)

	err := client.CreatePoint(context.Background(), domain.NewPoint{
		Name:      "Mercado",
		Email:     "m@x.test",
		Whatsapp:  "4799999999",
		UF:        "SC",
		City:      "Rio do Sul",
		Latitude:  -27.2142,
		Longitude: -49.6431,
		Items:     []domain.CategoryID{1, 2, 6},
		Image:     &domain.Image{FileName: "front.png", ContentType: "image/png", Data: []byte("png-bytes")},
	})
	require.NoError(t, err)
}

func TestCreatePointWithoutImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		writeJSON(w, http.StatusOK, `{}`)
	})
	client, _ := newTestClient(t, mux)

	require.NoError(t, client.CreatePoint(context.Background(), domain.NewPoint{Name: "Mercado"}))
}

func TestStatusErrorIsReturned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"invalid"}`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.GetPoints(context.Background(), domain.PointFilter{})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
}

func TestCircuitBreakerOpensOnOverload(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, `{}`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.GetPoints(context.Background(), domain.PointFilter{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCircuitOpen))

	_, err = client.GetPoints(context.Background(), domain.PointFilter{})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(1), calls.Load(), "open breaker must not reach the server")
}

func TestCancelledContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	client, _ := newTestClient(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetPoints(ctx, domain.PointFilter{})
	require.ErrorIs(t, err, context.Canceled)
}
