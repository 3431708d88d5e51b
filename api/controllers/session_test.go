package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
)

func newSessionDevice(t *testing.T) *stubDevices {
	t.Helper()
	device := newStubDevice()
	coordinator, err := session.NewCoordinator(session.Params{
		Engine: device.Engine,
		Remote: nilRemote{},
		JWT:    config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 5},
	})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	device.Session = coordinator
	return &stubDevices{device: device}
}

func TestSessionLoginRequiresBearer(t *testing.T) {
	devices := newSessionDevice(t)
	resp := httptest.NewRecorder()
	SessionLogin(devices, nil).ServeHTTP(resp, deviceRequest(http.MethodPost, "/api/v1/session/login", ""))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSessionLoginRejectsInvalidToken(t *testing.T) {
	devices := newSessionDevice(t)
	req := deviceRequest(http.MethodPost, "/api/v1/session/login", "")
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	SessionLogin(devices, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if devices.device.Session.State() != enums.SessionStateAnonymous {
		t.Fatalf("session must stay anonymous")
	}
}

func TestSessionStatusAnonymous(t *testing.T) {
	devices := newSessionDevice(t)
	resp := httptest.NewRecorder()
	SessionStatus(devices, nil).ServeHTTP(resp, deviceRequest(http.MethodGet, "/api/v1/session", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data session.Status `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.State != enums.SessionStateAnonymous {
		t.Fatalf("unexpected state %q", envelope.Data.State)
	}
}

func TestSessionLogoutWhileAnonymous(t *testing.T) {
	devices := newSessionDevice(t)
	resp := httptest.NewRecorder()
	SessionLogout(devices, nil).ServeHTTP(resp, deviceRequest(http.MethodPost, "/api/v1/session/logout", ""))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
