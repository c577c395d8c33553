package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ollamahub/internal/models"
)

var (
	thinkBlocks   = regexp.MustCompile(`(?is)<think>.*?</think>`)
	blankLineRuns = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// StripThinkBlocks removes <think>...</think> reasoning sections that
// reasoning models emit ahead of their answer, then collapses the blank
// lines left behind.
func StripThinkBlocks(content string) string {
	cleaned := thinkBlocks.ReplaceAllString(content, "")
	cleaned = blankLineRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func stripsThink(messageType string) bool {
	return strings.EqualFold(messageType, models.MessageTypeBot) ||
		strings.EqualFold(messageType, "assistant")
}

// CreateMessage stores one conversation turn. An empty message type defaults
// to a user message; bot messages have their think sections stripped before
// persisting.
func (s *Service) CreateMessage(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	if msg.ChatID <= 0 {
		return nil, errors.New("chat_id is required")
	}
	if strings.TrimSpace(msg.MessageContent) == "" {
		return nil, errors.New("message_content is required")
	}
	if strings.TrimSpace(msg.MessageType) == "" {
		msg.MessageType = models.MessageTypeUser
	}
	if stripsThink(msg.MessageType) {
		msg.MessageContent = StripThinkBlocks(msg.MessageContent)
	}
	msg.CreatedTime = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (chat_id, user_id, message_type, message_content, created_time) VALUES (?, ?, ?, ?, ?)`,
		msg.ChatID, msg.UserID, msg.MessageType, msg.MessageContent, msg.CreatedTime,
	)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	msg.MessageID = id
	return &msg, nil
}

// ListMessages returns a chat's messages in conversation order.
func (s *Service) ListMessages(ctx context.Context, chatID int64) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, chat_id, user_id, message_type, message_content, created_time FROM chat_messages WHERE chat_id = ? ORDER BY created_time ASC, message_id ASC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.MessageID, &m.ChatID, &m.UserID, &m.MessageType, &m.MessageContent, &m.CreatedTime); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMessage returns one message by id, sql.ErrNoRows when absent.
func (s *Service) GetMessage(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	var m models.ChatMessage
	err := s.db.QueryRowContext(ctx,
		`SELECT message_id, chat_id, user_id, message_type, message_content, created_time FROM chat_messages WHERE message_id = ?`,
		messageID,
	).Scan(&m.MessageID, &m.ChatID, &m.UserID, &m.MessageType, &m.MessageContent, &m.CreatedTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &m, nil
}

// DeleteMessage removes one message.
func (s *Service) DeleteMessage(ctx context.Context, messageID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE message_id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return noRowsAsNotFound(res)
}
