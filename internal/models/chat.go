package models

import "time"

// ChatStatus values stored on a chat record.
const (
	ChatStatusActive = "active"
)

// Chat groups a sequence of messages with one owning user.
type Chat struct {
	ChatID      int64     `json:"chat_id"`
	Title       string    `json:"title"`
	UserID      int64     `json:"user_id"`
	Status      string    `json:"status"`
	LmmType     string    `json:"lmm_type"`
	ShareToken  string    `json:"share_token"`
	CreatedTime time.Time `json:"created_time"`
}
