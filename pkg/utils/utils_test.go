package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"calm"}`))
	if err := DecodeJSON(httptest.NewRecorder(), req, &dst); err != nil {
		t.Fatalf("DecodeJSON err: %v", err)
	}
	if dst.Name != "calm" {
		t.Fatalf("unexpected name %q", dst.Name)
	}

	for _, body := range []string{``, `{"name":`, `{"name":"a"} {"name":"b"}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := DecodeJSON(httptest.NewRecorder(), req, &dst); !errors.Is(err, ErrInvalidBody) {
			t.Fatalf("body %q: expected ErrInvalidBody, got %v", body, err)
		}
	}
}

func TestSSEWriterEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	if err != nil {
		t.Fatalf("NewSSEWriter err: %v", err)
	}

	if err := sse.Event("delta", map[string]string{"content": "hi "}); err != nil {
		t.Fatalf("Event err: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	want := "event: delta\ndata: {\"content\":\"hi \"}\n\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusConflict, "busy")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"busy"}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
