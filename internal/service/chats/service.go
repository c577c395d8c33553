// Package chats owns chat records, their messages and votes, share links,
// and the plain generation flow.
package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ollamahub/internal/models"
	"ollamahub/internal/ollama"
	"ollamahub/internal/redis"
)

// Service provides chat persistence and generation dispatch.
type Service struct {
	db           *sql.DB
	cache        *redis.Client
	manager      *ollama.Manager
	defaultModel string
	cacheTTL     time.Duration
}

// NewService creates a chat service. cache may be nil; generation then always
// goes to the backend.
func NewService(db *sql.DB, cache *redis.Client, manager *ollama.Manager, defaultModel string, cacheTTL time.Duration) *Service {
	return &Service{
		db:           db,
		cache:        cache,
		manager:      manager,
		defaultModel: defaultModel,
		cacheTTL:     cacheTTL,
	}
}

// NewShareToken returns a fresh share token in the public link format.
func NewShareToken() string {
	return "sh_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create inserts a chat with defaulted status, model and share token.
func (s *Service) Create(ctx context.Context, userID int64, title, lmmType string) (*models.Chat, error) {
	if userID <= 0 {
		return nil, errors.New("user_id is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New Chat"
	}
	if strings.TrimSpace(lmmType) == "" {
		lmmType = s.defaultModel
	}
	chat := models.Chat{
		Title:       title,
		UserID:      userID,
		Status:      models.ChatStatusActive,
		LmmType:     lmmType,
		ShareToken:  NewShareToken(),
		CreatedTime: time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_chat (title, user_id, status, lmm_type, share_token, created_time) VALUES (?, ?, ?, ?, ?, ?)`,
		chat.Title, chat.UserID, chat.Status, chat.LmmType, chat.ShareToken, chat.CreatedTime,
	)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("chat id: %w", err)
	}
	chat.ChatID = id
	return &chat, nil
}

// Get returns one chat by id, sql.ErrNoRows when absent. Ownership is the
// caller's concern.
func (s *Service) Get(ctx context.Context, chatID int64) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, title, user_id, status, lmm_type, share_token, created_time FROM chat_chat WHERE chat_id = ?`,
		chatID,
	).Scan(&chat.ChatID, &chat.Title, &chat.UserID, &chat.Status, &chat.LmmType, &chat.ShareToken, &chat.CreatedTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &chat, nil
}

// ListByUser returns the user's chats, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, title, user_id, status, lmm_type, share_token, created_time FROM chat_chat WHERE user_id = ? ORDER BY created_time DESC, chat_id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var out []models.Chat
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ChatID, &chat.Title, &chat.UserID, &chat.Status, &chat.LmmType, &chat.ShareToken, &chat.CreatedTime); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		out = append(out, chat)
	}
	return out, rows.Err()
}

// UpdateTitle renames a chat.
func (s *Service) UpdateTitle(ctx context.Context, chatID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title cannot be empty")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_chat SET title = ? WHERE chat_id = ?`, title, chatID,
	)
	if err != nil {
		return fmt.Errorf("update chat title: %w", err)
	}
	return noRowsAsNotFound(res)
}

// Delete removes a chat; messages, files and votes cascade.
func (s *Service) Delete(ctx context.Context, chatID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_chat WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return noRowsAsNotFound(res)
}

// DeleteAllForUser removes every chat owned by the user.
func (s *Service) DeleteAllForUser(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_chat WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user chats: %w", err)
	}
	return nil
}

// GetByShareToken resolves a chat from its public share token.
func (s *Service) GetByShareToken(ctx context.Context, token string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT chat_id, title, user_id, status, lmm_type, share_token, created_time FROM chat_chat WHERE share_token = ?`,
		token,
	).Scan(&chat.ChatID, &chat.Title, &chat.UserID, &chat.Status, &chat.LmmType, &chat.ShareToken, &chat.CreatedTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get chat by share token: %w", err)
	}
	return &chat, nil
}

// RegenerateShareToken rotates the share token, invalidating the old link,
// and returns the new token.
func (s *Service) RegenerateShareToken(ctx context.Context, chatID int64) (string, error) {
	token := NewShareToken()
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_chat SET share_token = ? WHERE chat_id = ?`, token, chatID,
	)
	if err != nil {
		return "", fmt.Errorf("regenerate share token: %w", err)
	}
	if err := noRowsAsNotFound(res); err != nil {
		return "", err
	}
	return token, nil
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
