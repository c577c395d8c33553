package models

import "time"

// ChatVote records user feedback on a chat or one of its messages.
type ChatVote struct {
	VoteID      int64     `json:"vote_id"`
	ChatID      int64     `json:"chat_id"`
	MessageID   int64     `json:"message_id,omitempty"`
	VoteInt     int       `json:"vote_int"`
	Comment     string    `json:"comment,omitempty"`
	CreatedTime time.Time `json:"created_time"`
}
