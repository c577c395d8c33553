// Package servers maintains the registry of Ollama backend endpoints.
package servers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ollamahub/internal/models"
)

// ErrNoActiveServer is returned when no registered server has status active.
var ErrNoActiveServer = errors.New("no active server available")

const defaultPort = 11434

// Service provides CRUD access to the server registry.
type Service struct {
	db *sql.DB
}

// NewService creates a registry service over the given database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create registers a new endpoint. A missing token is replaced with a fresh
// uuid, a missing status defaults to active, and a missing port to the
// standard Ollama port.
func (s *Service) Create(ctx context.Context, srv models.ChatServer) (*models.ChatServer, error) {
	srv.EndpointURL = strings.TrimSpace(srv.EndpointURL)
	if srv.EndpointURL == "" {
		return nil, errors.New("endpoint_url is required")
	}
	if srv.EndpointPort <= 0 {
		srv.EndpointPort = defaultPort
	}
	if strings.TrimSpace(srv.Status) == "" {
		srv.Status = models.ServerStatusActive
	}
	if strings.TrimSpace(srv.Token) == "" {
		srv.Token = uuid.NewString()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_servers (endpoint_url, endpoint_port, status, token) VALUES (?, ?, ?, ?)`,
		srv.EndpointURL, srv.EndpointPort, srv.Status, srv.Token,
	)
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("server id: %w", err)
	}
	srv.ServerID = id
	return &srv, nil
}

// Get returns one server by id, sql.ErrNoRows when absent.
func (s *Service) Get(ctx context.Context, serverID int64) (*models.ChatServer, error) {
	var srv models.ChatServer
	err := s.db.QueryRowContext(ctx,
		`SELECT server_id, endpoint_url, endpoint_port, status, token FROM chat_servers WHERE server_id = ?`,
		serverID,
	).Scan(&srv.ServerID, &srv.EndpointURL, &srv.EndpointPort, &srv.Status, &srv.Token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get server: %w", err)
	}
	return &srv, nil
}

// List returns all registered servers in id order.
func (s *Service) List(ctx context.Context) ([]models.ChatServer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT server_id, endpoint_url, endpoint_port, status, token FROM chat_servers ORDER BY server_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	var out []models.ChatServer
	for rows.Next() {
		var srv models.ChatServer
		if err := rows.Scan(&srv.ServerID, &srv.EndpointURL, &srv.EndpointPort, &srv.Status, &srv.Token); err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		out = append(out, srv)
	}
	return out, rows.Err()
}

// FindDefault returns the first active server in id order.
func (s *Service) FindDefault(ctx context.Context) (*models.ChatServer, error) {
	var srv models.ChatServer
	err := s.db.QueryRowContext(ctx,
		`SELECT server_id, endpoint_url, endpoint_port, status, token FROM chat_servers WHERE status = ? ORDER BY server_id ASC LIMIT 1`,
		models.ServerStatusActive,
	).Scan(&srv.ServerID, &srv.EndpointURL, &srv.EndpointPort, &srv.Status, &srv.Token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoActiveServer
		}
		return nil, fmt.Errorf("find default server: %w", err)
	}
	return &srv, nil
}

// Delete removes a server registration.
func (s *Service) Delete(ctx context.Context, serverID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_servers WHERE server_id = ?`, serverID)
	if err != nil {
		return fmt.Errorf("delete server: %w", err)
	}
	return noRowsAsNotFound(res)
}

// UpdateStatus sets the status of one server.
func (s *Service) UpdateStatus(ctx context.Context, serverID int64, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return errors.New("status cannot be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_servers SET status = ? WHERE server_id = ?`, status, serverID,
	)
	if err != nil {
		return fmt.Errorf("update server status: %w", err)
	}
	return noRowsAsNotFound(res)
}

// UpdateToken replaces the auth token of one server.
func (s *Service) UpdateToken(ctx context.Context, serverID int64, token string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_servers SET token = ? WHERE server_id = ?`, token, serverID,
	)
	if err != nil {
		return fmt.Errorf("update server token: %w", err)
	}
	return noRowsAsNotFound(res)
}

// RegenerateToken replaces the server token with a fresh uuid and returns it.
func (s *Service) RegenerateToken(ctx context.Context, serverID int64) (string, error) {
	token := uuid.NewString()
	if err := s.UpdateToken(ctx, serverID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Bootstrap seeds the registry from the configured base URL when the table is
// empty, so a fresh install can generate without manual registration.
func (s *Service) Bootstrap(ctx context.Context, baseURL string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_servers`).Scan(&count); err != nil {
		return fmt.Errorf("count servers: %w", err)
	}
	if count > 0 {
		return nil
	}

	host, port := splitBaseURL(baseURL)
	created, err := s.Create(ctx, models.ChatServer{
		EndpointURL:  host,
		EndpointPort: port,
		Status:       models.ServerStatusActive,
	})
	if err != nil {
		return fmt.Errorf("bootstrap server: %w", err)
	}
	log.Printf("registered default server %d at %s:%d", created.ServerID, created.EndpointURL, created.EndpointPort)
	return nil
}

// splitBaseURL pulls host and port out of a configured base URL, falling back
// to the standard port when none can be parsed.
func splitBaseURL(baseURL string) (string, int) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + baseURL)
		if err != nil || u.Host == "" {
			return "localhost", defaultPort
		}
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := defaultPort
	if p := u.Port(); p != "" {
		if n, perr := strconv.Atoi(p); perr == nil && n > 0 {
			port = n
		}
	}
	return host, port
}

func noRowsAsNotFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
