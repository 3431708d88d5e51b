package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/remote"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
)

type nilRemote struct{}

func (nilRemote) FetchCart(context.Context, auth.Identity) (cart.State, error) {
	return cart.State{}, remote.ErrNotFound
}

func (nilRemote) PersistCart(context.Context, auth.Identity, cart.State) error { return nil }

func (nilRemote) FetchProducts(context.Context, catalog.Filter) ([]catalog.Product, error) {
	return nil, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	tests := []struct {
		name   string
		deps   map[string]Pinger
		status int
	}{
		{"all up", map[string]Pinger{"database": pingFunc(func(context.Context) error { return nil })}, http.StatusOK},
		{"nil skipped", map[string]Pinger{"redis": nil}, http.StatusOK},
		{"one down", map[string]Pinger{
			"database": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return errors.New("refused") }),
		}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			HealthReady(cfg, nil, tc.deps).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			if resp.Header().Get("X-Storefront-Env") != "test" {
				t.Fatalf("missing env header")
			}
		})
	}
}
