package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRoutesRegistered(t *testing.T) {
	srv := newTestServer(t).Handler()

	// Every registered route answers something other than 404.
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/ready"},
		{http.MethodPost, "/api/feedback"},
		{http.MethodGet, "/api/state"},
		{http.MethodPost, "/api/prompt"},
		{http.MethodPost, "/api/personalize"},
		{http.MethodPost, "/api/rank"},
		{http.MethodPost, "/api/documents"},
		{http.MethodPost, "/api/documents/feedback"},
	}
	for _, rt := range routes {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
		if rec.Code == http.StatusNotFound {
			t.Errorf("%s %s not registered", rt.method, rt.path)
		}
	}
}

func TestUnknownRouteNotFound(t *testing.T) {
	srv := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRunGracefulShutdown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, "127.0.0.1:0")
	}()

	// Give the listener a moment to come up, then ask for shutdown.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v, want nil on graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
