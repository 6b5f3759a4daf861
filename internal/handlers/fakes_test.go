package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-sql-storefront/internal/cart"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/logger"
	"github.com/safar/go-sql-storefront/internal/middleware"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/store"
)

var testLog = logger.New("error")

type fakeProducts struct {
	products map[string]*models.Product
	inUse    map[string]bool
	err      error
}

func newFakeProducts(ps ...*models.Product) *fakeProducts {
	f := &fakeProducts{products: map[string]*models.Product{}, inUse: map[string]bool{}}
	for _, p := range ps {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) ListProducts(ctx context.Context, filter store.ProductFilter) (*store.OffsetPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	var items []models.Product
	for _, p := range f.products {
		if filter.Category == "" || p.Category == filter.Category {
			items = append(items, *p)
		}
	}
	return &store.OffsetPage{Items: items, Total: int64(len(items)), Page: 1, PageSize: store.DefaultPageSize, TotalPages: 1}, nil
}

func (f *fakeProducts) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProducts) CreateProduct(ctx context.Context, in store.ProductInput) (*models.Product, error) {
	p := &models.Product{
		ID:            "new-product",
		Name:          in.Name,
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		Version:       1,
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProducts) UpdateProduct(ctx context.Context, id string, version int, in store.ProductInput) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	if p.Version != version {
		return nil, database.ErrOptimisticLockFailed
	}
	p.Name = in.Name
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.Version++
	return p, nil
}

func (f *fakeProducts) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return database.ErrProductNotFound
	}
	if f.inUse[id] {
		return database.ErrProductInUse
	}
	delete(f.products, id)
	return nil
}

// memorySessions is a SessionStore shared by every request in a test, with
// the session pinned to one id.
type memorySessions struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memorySessions) Get(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blobs[id], nil
}

func (m *memorySessions) Put(ctx context.Context, id string, blob []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = blob
	return nil
}

type fixedOpener struct {
	store *cart.Store
}

func newFixedOpener() fixedOpener {
	sessions := &memorySessions{blobs: map[string][]byte{}}
	return fixedOpener{store: cart.NewStore(sessions, time.Hour, testLog)}
}

func (o fixedOpener) Open(w http.ResponseWriter, r *http.Request) *cart.Session {
	return o.store.Session("test-session")
}

func jsonRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), user))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	decodeBody(t, w, &resp)
	return resp["error"]
}
