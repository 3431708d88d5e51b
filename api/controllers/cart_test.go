package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type stubDevices struct {
	device *storefront.Device
	err    error
}

func (s stubDevices) Get(context.Context, uuid.UUID) (*storefront.Device, error) {
	return s.device, s.err
}

type stubProducts map[int64]catalog.Product

func (s stubProducts) Product(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := s[id]
	if !ok {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func newStubDevice() *storefront.Device {
	return &storefront.Device{
		ID:      uuid.New(),
		Engine:  cart.NewEngine(),
		Catalog: catalog.NewView(20, 100),
	}
}

func deviceRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithDeviceID(req.Context(), uuid.New()))
}

func withLineID(req *http.Request, lineID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("lineID", lineID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCartAddLineWithoutCatalogRequiresPrice(t *testing.T) {
	device := newStubDevice()
	handler := CartAddLine(stubDevices{device: device}, nil, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, deviceRequest(http.MethodPost, "/api/v1/cart/lines", `{"product_id":7,"quantity":1}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, deviceRequest(http.MethodPost, "/api/v1/cart/lines",
		`{"product_id":7,"quantity":2,"unit_price":"10.00","variants":[{"name":"color","value":"red"}]}`))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data mutationResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Result.LineID != "7|color=red" {
		t.Fatalf("unexpected line id %q", envelope.Data.Result.LineID)
	}
	if !envelope.Data.Cart.Lines[0].Subtotal.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("unexpected subtotal %s", envelope.Data.Cart.Lines[0].Subtotal)
	}
}

func TestCartAddLineUsesCatalogPrice(t *testing.T) {
	device := newStubDevice()
	products := stubProducts{7: {ID: 7, Name: "Kettle", Price: decimal.RequireFromString("12.50"), StockQuantity: 10}}
	handler := CartAddLine(stubDevices{device: device}, products, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, deviceRequest(http.MethodPost, "/api/v1/cart/lines",
		`{"product_id":7,"quantity":1,"unit_price":"0.01","name":"cheap"}`))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	snapshot := device.Engine.Snapshot()
	line := snapshot.Lines[0]
	if line.Name != "Kettle" || !line.UnitPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("catalog values must win, got %+v", line)
	}
	if line.StockHint == nil || *line.StockHint != 10 {
		t.Fatalf("expected stock hint from catalog, got %v", line.StockHint)
	}
}

func TestCartSetQuantityRemovesAtZero(t *testing.T) {
	device := newStubDevice()
	result, err := device.Engine.AddLine(context.Background(), cart.AddLineInput{
		ProductID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("4"),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	handler := CartSetQuantity(stubDevices{device: device}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, withLineID(deviceRequest(http.MethodPatch, "/", `{"quantity":0}`), string(result.LineID)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := device.Engine.Totals().ItemCount; got != 0 {
		t.Fatalf("expected empty cart, got %d items", got)
	}
}

func TestCartFetchMissingDeviceContext(t *testing.T) {
	handler := CartFetch(stubDevices{device: newStubDevice()}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartFetchRegistryFailure(t *testing.T) {
	handler := CartFetch(stubDevices{err: pkgerrors.New(pkgerrors.CodeStateConflict, "registry closed")}, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, deviceRequest(http.MethodGet, "/api/v1/cart", ""))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCartClearAndSummary(t *testing.T) {
	device := newStubDevice()
	if _, err := device.Engine.AddLine(context.Background(), cart.AddLineInput{
		ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("1.50"),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	devices := stubDevices{device: device}

	resp := httptest.NewRecorder()
	CartSummary(devices, nil).ServeHTTP(resp, deviceRequest(http.MethodGet, "/api/v1/cart/summary", ""))
	var summary struct {
		Data cartSummaryResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Data.Totals.ItemCount != 3 || !summary.Data.Totals.Price.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("unexpected totals %+v", summary.Data.Totals)
	}

	resp = httptest.NewRecorder()
	CartClear(devices, nil).ServeHTTP(resp, deviceRequest(http.MethodDelete, "/api/v1/cart", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(device.Engine.Snapshot().Lines) != 0 {
		t.Fatalf("expected cleared cart")
	}
}
