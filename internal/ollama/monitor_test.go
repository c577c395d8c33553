package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ollamahub/internal/models"
)

func TestCheckAllTransitions(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	host, port := hostPort(t, srv.URL)
	reg := newFakeRegistry()
	reg.put(models.ChatServer{ServerID: 1, EndpointURL: host, EndpointPort: port, Status: models.ServerStatusActive})

	m := NewManager(reg)
	monitor := NewMonitor(reg, m, DefaultMonitorInterval)
	ctx := context.Background()

	// healthy server already marked active: no write
	if err := monitor.CheckAll(ctx); err != nil {
		t.Fatalf("check all: %v", err)
	}
	if got := reg.updateCount(); got != 0 {
		t.Fatalf("expected no status writes, got %d", got)
	}

	// server goes down: one write to offline
	healthy = false
	if err := monitor.CheckAll(ctx); err != nil {
		t.Fatalf("check all: %v", err)
	}
	if got := reg.updateCount(); got != 1 {
		t.Fatalf("expected one status write, got %d", got)
	}
	stored, err := reg.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != models.ServerStatusOffline {
		t.Fatalf("expected offline status, got %q", stored.Status)
	}

	// still down: no redundant write
	if err := monitor.CheckAll(ctx); err != nil {
		t.Fatalf("check all: %v", err)
	}
	if got := reg.updateCount(); got != 1 {
		t.Fatalf("expected no redundant write, got %d", got)
	}

	// recovery: one write back to active
	healthy = true
	if err := monitor.CheckAll(ctx); err != nil {
		t.Fatalf("check all: %v", err)
	}
	if got := reg.updateCount(); got != 2 {
		t.Fatalf("expected recovery write, got %d", got)
	}
	stored, err = reg.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != models.ServerStatusActive {
		t.Fatalf("expected active status, got %q", stored.Status)
	}
}

func TestCheckAllEmptyRegistry(t *testing.T) {
	reg := newFakeRegistry()
	monitor := NewMonitor(reg, NewManager(reg), 0)
	if err := monitor.CheckAll(context.Background()); err != nil {
		t.Fatalf("check all on empty registry: %v", err)
	}
	if monitor.interval != DefaultMonitorInterval {
		t.Fatalf("expected default interval fallback")
	}
}
