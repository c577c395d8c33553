// Package ollama dispatches requests to registered Ollama backends and keeps
// per-server connection handles cached for the life of the process.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ollamahub/internal/models"
)

// NoResponseFallback is returned when the backend answered without usable
// generated text.
const NoResponseFallback = "No response generated"

const probeTimeout = 2 * time.Second

// Registry is the slice of the server registry the manager needs.
type Registry interface {
	Get(ctx context.Context, serverID int64) (*models.ChatServer, error)
	FindDefault(ctx context.Context) (*models.ChatServer, error)
}

// Handle is one cached connection to a backend server.
type Handle struct {
	BaseURL string
	Client  *http.Client
}

// Manager resolves server ids to connection handles. Handles are built on
// first use and kept until the process exits; a re-registered id reuses the
// existing handle even if the row's endpoint changed.
type Manager struct {
	registry Registry

	mu      sync.Mutex
	handles map[int64]*Handle
}

// NewManager creates a Manager over the given registry.
func NewManager(registry Registry) *Manager {
	return &Manager{
		registry: registry,
		handles:  make(map[int64]*Handle),
	}
}

// Resolve returns the cached handle for the server, building one from the
// registry row on first use.
func (m *Manager) Resolve(ctx context.Context, serverID int64) (*Handle, error) {
	m.mu.Lock()
	if h, ok := m.handles[serverID]; ok {
		m.mu.Unlock()
		return h, nil
	}
	m.mu.Unlock()

	srv, err := m.registry.Get(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("resolve server %d: %w", serverID, err)
	}
	h := &Handle{
		BaseURL: fmt.Sprintf("http://%s:%d", strings.TrimSpace(srv.EndpointURL), srv.EndpointPort),
		Client:  &http.Client{},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.handles[serverID]; ok {
		return existing, nil
	}
	m.handles[serverID] = h
	return h, nil
}

// ResolveDefault resolves a handle for the default server.
func (m *Manager) ResolveDefault(ctx context.Context) (*Handle, int64, error) {
	srv, err := m.registry.FindDefault(ctx)
	if err != nil {
		return nil, 0, err
	}
	h, err := m.Resolve(ctx, srv.ServerID)
	if err != nil {
		return nil, 0, err
	}
	return h, srv.ServerID, nil
}

// Headers builds the request headers for one server, including its bearer
// token when the registry has one.
func (m *Manager) Headers(ctx context.Context, serverID int64) (map[string]string, error) {
	srv, err := m.registry.Get(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("server headers %d: %w", serverID, err)
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if token := strings.TrimSpace(srv.Token); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers, nil
}

// APIURL joins the server's base URL with an API path.
func (m *Manager) APIURL(ctx context.Context, serverID int64, path string) (string, error) {
	h, err := m.Resolve(ctx, serverID)
	if err != nil {
		return "", err
	}
	return h.BaseURL + path, nil
}

// DefaultAPIURL joins the default server's base URL with an API path.
func (m *Manager) DefaultAPIURL(ctx context.Context, path string) (string, error) {
	h, _, err := m.ResolveDefault(ctx)
	if err != nil {
		return "", err
	}
	return h.BaseURL + path, nil
}

// Probe reports whether the server answers GET /api/tags with a 2xx status.
// Every kind of failure reads as unreachable.
func (m *Manager) Probe(ctx context.Context, serverID int64) bool {
	h, err := m.Resolve(ctx, serverID)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	if headers, herr := m.Headers(ctx, serverID); herr == nil {
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// generateRequest is the JSON body for POST /api/generate.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the JSON returned by POST /api/generate (non-streaming).
type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends a prompt to the given server and returns the generated text.
// A successful call whose response carries no text yields NoResponseFallback;
// transport failures, decoding failures and non-2xx statuses surface as
// errors.
func (m *Manager) Generate(ctx context.Context, serverID int64, model, prompt string) (string, error) {
	h, err := m.Resolve(ctx, serverID)
	if err != nil {
		return "", err
	}
	return m.generate(ctx, h, serverID, model, prompt)
}

// GenerateDefault sends a prompt to the default server.
func (m *Manager) GenerateDefault(ctx context.Context, model, prompt string) (string, error) {
	h, serverID, err := m.ResolveDefault(ctx)
	if err != nil {
		return "", err
	}
	return m.generate(ctx, h, serverID, model, prompt)
}

func (m *Manager) generate(ctx context.Context, h *Handle, serverID int64, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	headers, err := m.Headers(ctx, serverID)
	if err != nil {
		return "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generate request: backend status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}
	if strings.TrimSpace(result.Response) == "" {
		return NoResponseFallback, nil
	}
	return result.Response, nil
}
