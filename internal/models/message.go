package models

import "time"

// Message types stored on a chat message.
const (
	MessageTypeUser = "user"
	MessageTypeBot  = "bot"
)

// ChatMessage captures one turn of a conversation.
type ChatMessage struct {
	MessageID      int64     `json:"message_id"`
	ChatID         int64     `json:"chat_id"`
	UserID         int64     `json:"user_id"`
	MessageType    string    `json:"message_type"`
	MessageContent string    `json:"message_content"`
	CreatedTime    time.Time `json:"created_time"`
}
