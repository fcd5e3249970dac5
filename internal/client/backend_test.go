package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aiser-platform/aiser-gateway/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			TimeoutSeconds:         10,
			StreamFirstByteSeconds: 5,
			IdleConnections:        10,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBackendClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewBackendClient(testConfig(), testLogger(), nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/test", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Do(req, "chart", false)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", string(body), `{"status":"ok"}`)
	}
}

func TestBackendClient_Do_Unreachable(t *testing.T) {
	c := NewBackendClient(testConfig(), testLogger(), nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://127.0.0.1:1/nonexistent", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Do(req, "chart", false); err == nil {
		t.Fatal("Do() expected error for unreachable host, got nil")
	}
}

func TestBackendClient_Do_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate a slow upstream; the request should be canceled before this completes.
		time.Sleep(5 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewBackendClient(testConfig(), testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/slow", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Do(req, "chart", true); err == nil {
		t.Fatal("Do() expected error for canceled context, got nil")
	}
}

func TestBackendClient_StreamOutlivesBufferedTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		f := w.(http.Flusher)
		_, _ = w.Write([]byte("data: first\n\n"))
		f.Flush()
		// Hold the stream open past the buffered deadline.
		time.Sleep(1500 * time.Millisecond)
		_, _ = w.Write([]byte("data: second\n\n"))
		f.Flush()
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Backend.TimeoutSeconds = 1
	c := NewBackendClient(cfg, testLogger(), nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/stream", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Do(req, "chart", true)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Reading past the 1s buffered timeout must succeed on the stream client.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != "data: first\n\ndata: second\n\n" {
		t.Errorf("body = %q, want both chunks", string(body))
	}
}
