package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/figmentlabs/figment/internal/service/engine"
	sessionService "github.com/figmentlabs/figment/internal/service/session"
)

func newTestRouter() http.Handler {
	sessions := sessionService.NewService()
	return NewRouter(sessions, engine.New(sessions, nil))
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()

	newTestRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "ok") {
		t.Fatalf("unexpected body: %q", resp.Body.String())
	}
}

func TestServesShell(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()

	newTestRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "<!DOCTYPE html>") {
		t.Fatal("expected the embedded HTML shell")
	}
}
