package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/zhouzirui/calm-companion/backend/internal/service/chat"
	"github.com/zhouzirui/calm-companion/backend/internal/service/responder"
)

type sseEvent struct {
	name string
	data string
}

func newTestService(t *testing.T) *chatservice.Service {
	t.Helper()
	pacer := responder.NewPacer(responder.DefaultPacerConfig(), responder.WithSleep(func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}))
	svc, err := chatservice.NewService(chatservice.Config{Pacer: pacer})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return svc
}

func parseEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.name != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	return events
}

func serve(t *testing.T, svc *chatservice.Service, sessionID, query string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/stream/"+sessionID+query, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestStreamDeliversTokensInOrder(t *testing.T) {
	svc := newTestService(t)
	session, _ := svc.CreateSession(context.Background())

	resp := serve(t, svc, session.ID, "?message="+url.QueryEscape("I feel so stressed"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	events := parseEvents(t, resp.Body.String())
	if len(events) < 4 {
		t.Fatalf("expected at least 4 events, got %d", len(events))
	}
	if events[0].name != "start" || events[len(events)-1].name != "end" {
		t.Fatalf("unexpected framing: first=%s last=%s", events[0].name, events[len(events)-1].name)
	}

	var streamed strings.Builder
	var final struct {
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	for _, ev := range events {
		switch ev.name {
		case "delta":
			var chunk StreamResponse
			if err := json.Unmarshal([]byte(ev.data), &chunk); err != nil {
				t.Fatalf("decode delta: %v", err)
			}
			streamed.WriteString(chunk.Content)
		case "message":
			if err := json.Unmarshal([]byte(ev.data), &final); err != nil {
				t.Fatalf("decode message: %v", err)
			}
		}
	}

	if streamed.String() != final.Content {
		t.Fatalf("streamed %q, final %q", streamed.String(), final.Content)
	}
	if final.Category != "stress_reset" {
		t.Fatalf("expected stress_reset, got %s", final.Category)
	}
}

func TestStreamRequiresMessageParam(t *testing.T) {
	svc := newTestService(t)
	session, _ := svc.CreateSession(context.Background())

	resp := serve(t, svc, session.ID, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStreamEmptyMessageGetsClarifyingReply(t *testing.T) {
	svc := newTestService(t)
	session, _ := svc.CreateSession(context.Background())

	resp := serve(t, svc, session.ID, "?message=")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	events := parseEvents(t, resp.Body.String())
	var start StreamResponse
	if err := json.Unmarshal([]byte(events[0].data), &start); err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if start.Category != "general_support" {
		t.Fatalf("expected general_support, got %s", start.Category)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	svc := newTestService(t)

	resp := serve(t, svc, "missing", "?message=hi")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
