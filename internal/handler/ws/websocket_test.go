package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/calm-companion/backend/internal/service/chat"
	"github.com/zhouzirui/calm-companion/backend/internal/service/responder"
)

type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	pacer := responder.NewPacer(responder.DefaultPacerConfig(), responder.WithSleep(func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}))
	svc, err := chatservice.NewService(chatservice.Config{Pacer: pacer})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	r := chi.NewRouter()
	New(svc, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocketStreamsReply(t *testing.T) {
	srv, svc := startServer(t)
	session, _ := svc.CreateSession(context.Background())
	conn := dial(t, srv, session.ID)

	if f := readFrame(t, conn); f.Type != TypeConnected {
		t.Fatalf("expected connected frame, got %s", f.Type)
	}

	if err := conn.WriteJSON(InboundMessage{Type: TypeMessage, Text: "help me relax"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	start := readFrame(t, conn)
	if start.Type != TypeStart {
		t.Fatalf("expected start frame, got %s", start.Type)
	}
	var startData map[string]string
	if err := json.Unmarshal(start.Data, &startData); err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if startData["suggestion"] != responder.SuggestBreathing {
		t.Fatalf("expected breathing suggestion, got %q", startData["suggestion"])
	}

	var streamed strings.Builder
	for {
		f := readFrame(t, conn)
		if f.Type == TypeEnd {
			var final struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(f.Data, &final); err != nil {
				t.Fatalf("decode end: %v", err)
			}
			if final.Content != streamed.String() {
				t.Fatalf("streamed %q, final %q", streamed.String(), final.Content)
			}
			break
		}
		if f.Type != TypeDelta {
			t.Fatalf("unexpected frame %s", f.Type)
		}
		var delta map[string]string
		if err := json.Unmarshal(f.Data, &delta); err != nil {
			t.Fatalf("decode delta: %v", err)
		}
		streamed.WriteString(delta["content"])
	}

	metrics, _ := svc.Metrics(context.Background(), session.ID)
	if metrics.TotalInteractions != 1 {
		t.Fatalf("expected 1 interaction, got %d", metrics.TotalInteractions)
	}
}

func TestWebSocketCompleteUsesFallback(t *testing.T) {
	srv, svc := startServer(t)
	session, _ := svc.CreateSession(context.Background())
	conn := dial(t, srv, session.ID)
	readFrame(t, conn)

	if err := conn.WriteJSON(InboundMessage{Type: TypeComplete, Text: "anything"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := readFrame(t, conn)
	if f.Type != TypeResult {
		t.Fatalf("expected result frame, got %s", f.Type)
	}
	var result struct {
		Content string `json:"content"`
		Source  string `json:"source"`
	}
	if err := json.Unmarshal(f.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Source != "fallback" || result.Content == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWebSocketUnsupportedType(t *testing.T) {
	srv, svc := startServer(t)
	session, _ := svc.CreateSession(context.Background())
	conn := dial(t, srv, session.ID)
	readFrame(t, conn)

	if err := conn.WriteJSON(InboundMessage{Type: "audio"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := readFrame(t, conn); f.Type != TypeError {
		t.Fatalf("expected error frame, got %s", f.Type)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _ := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}
