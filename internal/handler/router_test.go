package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chatService "github.com/zhouzirui/calm-companion/backend/internal/service/chat"
)

func newTestRouter(t *testing.T, origins []string) http.Handler {
	t.Helper()
	chatSvc, err := chatService.NewService(chatService.Config{})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return NewRouter(chatSvc, nil, origins)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Status string `json:"status"`
		Remote bool   `json:"remote"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Remote {
		t.Fatalf("unexpected health: %+v", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestOriginChecker(t *testing.T) {
	if originChecker([]string{"*"}) != nil {
		t.Fatal("wildcard should accept every origin")
	}

	check := originChecker([]string{"http://localhost:5173"})
	allowed := httptest.NewRequest(http.MethodGet, "/", nil)
	allowed.Header.Set("Origin", "http://localhost:5173")
	denied := httptest.NewRequest(http.MethodGet, "/", nil)
	denied.Header.Set("Origin", "http://evil.example")

	if !check(allowed) {
		t.Fatal("expected configured origin to pass")
	}
	if check(denied) {
		t.Fatal("expected unknown origin to be rejected")
	}
}
