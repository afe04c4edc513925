package ollama

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rag-gateway-be/pkg/llm"
)

func newStreamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)
		for _, line := range lines {
			if _, err := w.Write([]byte(line + "\n")); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
}

func TestChatStreamAggregation(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		wantText    string
		wantOutcome llm.Outcome
	}{
		{
			name: "fragments joined in order with terminal marker",
			lines: []string{
				`{"message":{"content":"Hi"}}`,
				`{"message":{"content":" there"},"done":true}`,
			},
			wantText:    "Hi there",
			wantOutcome: llm.OutcomeComplete,
		},
		{
			name: "malformed line is skipped",
			lines: []string{
				`{"message":{"content":"Hello"}}`,
				`{not json at all`,
				`{"message":{"content":" world"},"done":true}`,
			},
			wantText:    "Hello world",
			wantOutcome: llm.OutcomeComplete,
		},
		{
			name: "terminal marker stops consumption",
			lines: []string{
				`{"message":{"content":"done"},"done":true}`,
				`{"message":{"content":" ignored"}}`,
			},
			wantText:    "done",
			wantOutcome: llm.OutcomeComplete,
		},
		{
			name: "stream close without terminal marker yields partial",
			lines: []string{
				`{"message":{"content":"partial"}}`,
			},
			wantText:    "partial",
			wantOutcome: llm.OutcomePartial,
		},
		{
			name:        "empty stream yields no content",
			lines:       nil,
			wantText:    "",
			wantOutcome: llm.OutcomeNoContent,
		},
		{
			name: "heartbeat and empty fragments do not pollute the accumulator",
			lines: []string{
				``,
				`{"message":{"content":""}}`,
				`{"message":{"content":"ok"}}`,
				``,
				`{"done":true}`,
			},
			wantText:    "ok",
			wantOutcome: llm.OutcomeComplete,
		},
		{
			name: "whitespace between fragments is preserved byte for byte",
			lines: []string{
				`{"message":{"content":"a "}}`,
				`{"message":{"content":" b"},"done":true}`,
			},
			wantText:    "a  b",
			wantOutcome: llm.OutcomeComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newStreamServer(t, tt.lines)
			defer srv.Close()

			p := NewProvider(srv.URL, "llama3", 5*time.Second)
			res, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
			if err != nil {
				t.Fatalf("ChatStream() error = %v", err)
			}
			if res.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", res.Text, tt.wantText)
			}
			if res.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %q, want %q", res.Outcome, tt.wantOutcome)
			}
		})
	}
}

// newSeveredStreamServer sends the response headers and the given lines, then
// resets the connection instead of closing it cleanly, so the client's next
// body read fails mid-stream.
func newSeveredStreamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("response writer does not support hijacking")
		}
		conn, bufrw, err := hj.Hijack()
		if err != nil {
			t.Fatalf("hijack failed: %v", err)
		}
		defer conn.Close()

		// Oversized Content-Length keeps the client reading past what we send.
		bufrw.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/x-ndjson\r\nContent-Length: 1048576\r\n\r\n")
		for _, line := range lines {
			bufrw.WriteString(line + "\n")
		}
		bufrw.Flush()

		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetLinger(0) // RST on close rather than FIN
		}
	}))
}

func TestChatStreamReadErrorAfterContentYieldsPartial(t *testing.T) {
	srv := newSeveredStreamServer(t, []string{
		`{"message":{"content":"half an"}}`,
		`{"message":{"content":" answer"}}`,
	})
	defer srv.Close()

	p := NewProvider(srv.URL, "llama3", 5*time.Second)
	res, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	if res.Outcome != llm.OutcomePartial {
		t.Errorf("Outcome = %q, want %q", res.Outcome, llm.OutcomePartial)
	}
	if res.Text != "half an answer" {
		t.Errorf("Text = %q, want accumulated fragments", res.Text)
	}
}

func TestChatStreamReadErrorBeforeContentIsBackendUnavailable(t *testing.T) {
	srv := newSeveredStreamServer(t, nil)
	defer srv.Close()

	p := NewProvider(srv.URL, "llama3", 5*time.Second)
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, llm.ErrBackendUnavailable) {
		t.Fatalf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestChatStreamBackendUnavailable(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := newStreamServer(t, nil)
		srv.Close() // nothing listening anymore

		p := NewProvider(srv.URL, "llama3", time.Second)
		_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
		if !errors.Is(err, llm.ErrBackendUnavailable) {
			t.Fatalf("error = %v, want ErrBackendUnavailable", err)
		}
	})

	t.Run("non-ok status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		p := NewProvider(srv.URL, "llama3", time.Second)
		_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
		if !errors.Is(err, llm.ErrBackendUnavailable) {
			t.Fatalf("error = %v, want ErrBackendUnavailable", err)
		}
	})
}

func TestChatStreamMapsModelRole(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"message":{"content":"ok"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "llama3", time.Second)
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "model", Content: "earlier reply"}})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	if got := string(gotBody); !strings.Contains(got, `"role":"assistant"`) {
		t.Errorf("request body %q does not map model role to assistant", got)
	}
}
