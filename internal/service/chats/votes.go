package chats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ollamahub/internal/models"
)

// CreateVote records feedback on a chat or one of its messages.
func (s *Service) CreateVote(ctx context.Context, vote models.ChatVote) (*models.ChatVote, error) {
	if vote.ChatID <= 0 {
		return nil, errors.New("chat_id is required")
	}
	vote.CreatedTime = time.Now().UTC()

	messageID := sql.NullInt64{Int64: vote.MessageID, Valid: vote.MessageID > 0}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_vote (chat_id, message_id, vote_int, comment, created_time) VALUES (?, ?, ?, ?, ?)`,
		vote.ChatID, messageID, vote.VoteInt, vote.Comment, vote.CreatedTime,
	)
	if err != nil {
		return nil, fmt.Errorf("create vote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("vote id: %w", err)
	}
	vote.VoteID = id
	return &vote, nil
}

// ListVotes returns all votes recorded against a chat.
func (s *Service) ListVotes(ctx context.Context, chatID int64) ([]models.ChatVote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT vote_id, chat_id, message_id, vote_int, comment, created_time FROM chat_vote WHERE chat_id = ? ORDER BY vote_id ASC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var out []models.ChatVote
	for rows.Next() {
		v, err := scanVote(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// GetVote returns one vote by id, sql.ErrNoRows when absent.
func (s *Service) GetVote(ctx context.Context, voteID int64) (*models.ChatVote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT vote_id, chat_id, message_id, vote_int, comment, created_time FROM chat_vote WHERE vote_id = ?`,
		voteID,
	)
	v, err := scanVote(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get vote: %w", err)
	}
	return v, nil
}

// DeleteVote removes one vote.
func (s *Service) DeleteVote(ctx context.Context, voteID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_vote WHERE vote_id = ?`, voteID)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return noRowsAsNotFound(res)
}

func scanVote(scan func(...any) error) (*models.ChatVote, error) {
	var v models.ChatVote
	var messageID sql.NullInt64
	var comment sql.NullString
	if err := scan(&v.VoteID, &v.ChatID, &messageID, &v.VoteInt, &comment, &v.CreatedTime); err != nil {
		return nil, err
	}
	v.MessageID = messageID.Int64
	v.Comment = comment.String
	return &v, nil
}
