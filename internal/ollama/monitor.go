package ollama

import (
	"context"
	"log"
	"time"

	"ollamahub/internal/models"
)

// DefaultMonitorInterval is how often the health monitor probes every
// registered server.
const DefaultMonitorInterval = 120 * time.Second

// StatusStore is the slice of the server registry the monitor needs.
type StatusStore interface {
	List(ctx context.Context) ([]models.ChatServer, error)
	UpdateStatus(ctx context.Context, serverID int64, status string) error
}

// Monitor periodically probes every registered server and keeps the stored
// status in sync with reachability.
type Monitor struct {
	registry StatusStore
	manager  *Manager
	interval time.Duration
}

// NewMonitor creates a Monitor. A non-positive interval falls back to
// DefaultMonitorInterval.
func NewMonitor(registry StatusStore, manager *Manager, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &Monitor{registry: registry, manager: manager, interval: interval}
}

// Start runs the probe loop until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.CheckAll(ctx); err != nil {
				log.Printf("server health check error: %v", err)
			}
		}
	}
}

// CheckAll probes every registered server once, writing the stored status
// only when it changed. Per-server write failures are logged and do not stop
// the pass.
func (m *Monitor) CheckAll(ctx context.Context) error {
	servers, err := m.registry.List(ctx)
	if err != nil {
		return err
	}
	for _, srv := range servers {
		status := models.ServerStatusOffline
		if m.manager.Probe(ctx, srv.ServerID) {
			status = models.ServerStatusActive
		}
		if status == srv.Status {
			continue
		}
		if err := m.registry.UpdateStatus(ctx, srv.ServerID, status); err != nil {
			log.Printf("update server %d status failed: %v", srv.ServerID, err)
			continue
		}
		log.Printf("server %d is now %s", srv.ServerID, status)
	}
	return nil
}
