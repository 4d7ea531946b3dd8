package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testPayload() *Payload {
	return &Payload{
		Event:       EventExecutionCreated,
		Timestamp:   time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		ExecutionID: uuid.New(),
		Data:        map[string]any{"client_name": "Maria"},
		Content:     "Hello Maria",
	}
}

func decodeResponse(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, raw)
	}
	return doc
}

func TestHTTPTransportSuccess(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"received":true}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(5*time.Second, "s3cret")
	out := tr.Send(context.Background(), srv.URL, testPayload())

	if !out.Success || out.StatusCode != http.StatusOK {
		t.Fatalf("expected success, got %+v", out)
	}
	doc := decodeResponse(t, out.Response)
	if doc["status"] != float64(200) {
		t.Errorf("status = %v", doc["status"])
	}
	if body, ok := doc["body"].(map[string]any); !ok || body["received"] != true {
		t.Errorf("JSON body should be kept as JSON, got %v", doc["body"])
	}

	if gotHeaders.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHeaders.Get("Content-Type"))
	}
	if gotHeaders.Get("User-Agent") != "lexdesk-webhook/1" {
		t.Errorf("User-Agent = %q", gotHeaders.Get("User-Agent"))
	}
	if gotHeaders.Get("X-LexDesk-Event") != EventExecutionCreated {
		t.Errorf("event header = %q", gotHeaders.Get("X-LexDesk-Event"))
	}
	if want := Sign([]byte("s3cret"), gotBody); gotHeaders.Get("X-LexDesk-Signature") != want {
		t.Errorf("signature = %q, want %q", gotHeaders.Get("X-LexDesk-Signature"), want)
	}

	var sent Payload
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if sent.Content != "Hello Maria" || sent.Data["client_name"] != "Maria" {
		t.Errorf("unexpected payload: %+v", sent)
	}
}

func TestHTTPTransportFailures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		out := NewHTTPTransport(5*time.Second, "").Send(context.Background(), srv.URL, testPayload())
		if out.Success || out.StatusCode != 500 {
			t.Fatalf("expected failure with 500, got %+v", out)
		}
		doc := decodeResponse(t, out.Response)
		if doc["body"] != "boom" {
			t.Errorf("text body should be kept as string, got %v", doc["body"])
		}
		if !strings.Contains(doc["error"].(string), "status 500") {
			t.Errorf("error = %v", doc["error"])
		}
	})

	t.Run("no signature without secret", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-LexDesk-Signature") != "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		out := NewHTTPTransport(5*time.Second, "").Send(context.Background(), srv.URL, testPayload())
		if !out.Success || out.StatusCode != http.StatusNoContent {
			t.Errorf("expected 204 success, got %+v", out)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		out := NewHTTPTransport(50*time.Millisecond, "").Send(context.Background(), srv.URL, testPayload())
		if out.Success || out.StatusCode != 0 {
			t.Fatalf("expected network failure, got %+v", out)
		}
		if doc := decodeResponse(t, out.Response); doc["error"] == nil {
			t.Error("timeout should store an error message")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		out := NewHTTPTransport(time.Second, "").Send(context.Background(), "http://127.0.0.1:1/hook", testPayload())
		if out.Success {
			t.Fatal("expected failure for unreachable endpoint")
		}
	})

	t.Run("malformed url", func(t *testing.T) {
		out := NewHTTPTransport(time.Second, "").Send(context.Background(), "://nope", testPayload())
		if out.Success {
			t.Fatal("expected failure for malformed URL")
		}
	})
}

func TestSign(t *testing.T) {
	got := Sign([]byte("key"), []byte("The quick brown fox jumps over the lazy dog"))
	want := "sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Errorf("Sign = %q, want %q", got, want)
	}
}

func TestHTTPTransportNULBodies(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantBody string
	}{
		{"escaped NUL in JSON kept as text", `{"note":"a\u0000b"}`, `{"note":"a\u0000b"}`},
		{"raw NUL byte replaced", "ok\x00done", "ok�done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.reply))
			}))
			defer srv.Close()

			out := NewHTTPTransport(5*time.Second, "").Send(context.Background(), srv.URL, testPayload())
			if !out.Success {
				t.Fatalf("expected success, got %+v", out)
			}
			// jsonb refuses a \u0000 escape that is not itself escaped.
			if strings.Contains(strings.ReplaceAll(string(out.Response), `\\`, ""), `\u0000`) {
				t.Errorf("stored response still carries a NUL escape: %s", out.Response)
			}
			if body := decodeResponse(t, out.Response)["body"]; body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}
