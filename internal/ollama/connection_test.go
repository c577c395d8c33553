package ollama

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"ollamahub/internal/models"
)

// fakeRegistry backs the manager with an in-memory server table.
type fakeRegistry struct {
	mu      sync.Mutex
	servers map[int64]models.ChatServer
	updates []int64
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{servers: make(map[int64]models.ChatServer)}
}

func (r *fakeRegistry) put(srv models.ChatServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[srv.ServerID] = srv
}

func (r *fakeRegistry) Get(_ context.Context, serverID int64) (*models.ChatServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	srv, ok := r.servers[serverID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &srv, nil
}

func (r *fakeRegistry) FindDefault(_ context.Context) (*models.ChatServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.ChatServer
	for id := range r.servers {
		srv := r.servers[id]
		if srv.Status != models.ServerStatusActive {
			continue
		}
		if best == nil || srv.ServerID < best.ServerID {
			best = &srv
		}
	}
	if best == nil {
		return nil, sql.ErrNoRows
	}
	return best, nil
}

func (r *fakeRegistry) List(_ context.Context) ([]models.ChatServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ChatServer, 0, len(r.servers))
	for _, srv := range r.servers {
		out = append(out, srv)
	}
	return out, nil
}

func (r *fakeRegistry) UpdateStatus(_ context.Context, serverID int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	srv, ok := r.servers[serverID]
	if !ok {
		return sql.ErrNoRows
	}
	srv.Status = status
	r.servers[serverID] = srv
	r.updates = append(r.updates, serverID)
	return nil
}

func (r *fakeRegistry) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

// hostPort splits an httptest server URL into registry endpoint fields.
func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse test url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test port: %v", err)
	}
	return u.Hostname(), port
}

func TestResolveCachesHandle(t *testing.T) {
	reg := newFakeRegistry()
	reg.put(models.ChatServer{ServerID: 1, EndpointURL: "first.internal", EndpointPort: 11434, Status: models.ServerStatusActive})

	m := NewManager(reg)
	ctx := context.Background()

	h1, err := m.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if h1.BaseURL != "http://first.internal:11434" {
		t.Fatalf("unexpected base url %q", h1.BaseURL)
	}

	// the registry row changes, but the cached handle stays
	reg.put(models.ChatServer{ServerID: 1, EndpointURL: "second.internal", EndpointPort: 9999, Status: models.ServerStatusActive})
	h2, err := m.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if h2 != h1 {
		t.Fatalf("expected the cached handle to be reused")
	}
	if h2.BaseURL != "http://first.internal:11434" {
		t.Fatalf("handle picked up mutated endpoint: %q", h2.BaseURL)
	}
}

func TestResolveUnknownServer(t *testing.T) {
	m := NewManager(newFakeRegistry())
	if _, err := m.Resolve(context.Background(), 99); err == nil {
		t.Fatalf("expected error for unknown server")
	}
}

func TestHeaders(t *testing.T) {
	reg := newFakeRegistry()
	reg.put(models.ChatServer{ServerID: 1, EndpointURL: "a", EndpointPort: 1, Status: models.ServerStatusActive, Token: "secret"})
	reg.put(models.ChatServer{ServerID: 2, EndpointURL: "b", EndpointPort: 2, Status: models.ServerStatusActive})

	m := NewManager(reg)
	ctx := context.Background()

	withToken, err := m.Headers(ctx, 1)
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if withToken["Content-Type"] != "application/json" || withToken["Accept"] != "application/json" {
		t.Fatalf("missing base headers: %v", withToken)
	}
	if withToken["Authorization"] != "Bearer secret" {
		t.Fatalf("missing bearer header: %v", withToken)
	}

	withoutToken, err := m.Headers(ctx, 2)
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if _, ok := withoutToken["Authorization"]; ok {
		t.Fatalf("unexpected bearer header for tokenless server")
	}
}

func TestProbe(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected probe path %s", r.URL.Path)
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	host, port := hostPort(t, srv.URL)
	reg := newFakeRegistry()
	reg.put(models.ChatServer{ServerID: 1, EndpointURL: host, EndpointPort: port, Status: models.ServerStatusActive})
	reg.put(models.ChatServer{ServerID: 2, EndpointURL: "127.0.0.1", EndpointPort: 1, Status: models.ServerStatusActive})

	m := NewManager(reg)
	ctx := context.Background()

	status = http.StatusOK
	if !m.Probe(ctx, 1) {
		t.Fatalf("expected healthy probe")
	}
	status = http.StatusInternalServerError
	if m.Probe(ctx, 1) {
		t.Fatalf("5xx should read as unreachable")
	}
	if m.Probe(ctx, 2) {
		t.Fatalf("connection refusal should read as unreachable")
	}
	if m.Probe(ctx, 99) {
		t.Fatalf("unknown server should read as unreachable")
	}
}

func TestGenerate(t *testing.T) {
	var (
		gotAuth   string
		response  string
		withCode  = http.StatusOK
		gotPrompt string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Errorf("expected stream=false")
		}
		gotPrompt = req.Prompt
		w.WriteHeader(withCode)
		json.NewEncoder(w).Encode(map[string]string{"response": response})
	}))
	defer srv.Close()

	host, port := hostPort(t, srv.URL)
	reg := newFakeRegistry()
	reg.put(models.ChatServer{ServerID: 1, EndpointURL: host, EndpointPort: port, Status: models.ServerStatusActive, Token: "tok"})

	m := NewManager(reg)
	ctx := context.Background()

	response = "generated text"
	out, err := m.Generate(ctx, 1, "test-model", "say hi")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "generated text" {
		t.Fatalf("unexpected response %q", out)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("missing bearer on generate: %q", gotAuth)
	}
	if gotPrompt != "say hi" {
		t.Fatalf("prompt not forwarded: %q", gotPrompt)
	}

	// empty generated text falls back
	response = ""
	out, err = m.Generate(ctx, 1, "test-model", "say hi")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != NoResponseFallback {
		t.Fatalf("expected fallback, got %q", out)
	}

	// backend error statuses surface as errors, not as a fallback answer
	withCode = http.StatusBadGateway
	if _, err = m.Generate(ctx, 1, "test-model", "say hi"); err == nil {
		t.Fatalf("expected error on backend status 502")
	}

	// GenerateDefault routes through FindDefault
	withCode = http.StatusOK
	response = "default route"
	out, err = m.GenerateDefault(ctx, "test-model", "ping")
	if err != nil {
		t.Fatalf("generate default: %v", err)
	}
	if out != "default route" {
		t.Fatalf("unexpected response %q", out)
	}
}

func TestGenerateTransportError(t *testing.T) {
	reg := newFakeRegistry()
	reg.put(models.ChatServer{ServerID: 1, EndpointURL: "127.0.0.1", EndpointPort: 1, Status: models.ServerStatusActive})

	m := NewManager(reg)
	if _, err := m.Generate(context.Background(), 1, "test-model", "hi"); err == nil {
		t.Fatalf("expected transport error")
	}
}
