// Package files stores uploaded documents on disk, keeps their metadata rows,
// and runs text extraction on upload.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ollamahub/internal/extract"
	"ollamahub/internal/models"
)

// MaxUploadSize caps a single uploaded document.
const MaxUploadSize = 20 << 20

// Service persists file blobs under baseDir and their rows in the database.
type Service struct {
	db      *sql.DB
	baseDir string
}

// NewService creates a file service storing blobs under baseDir.
func NewService(db *sql.DB, baseDir string) (*Service, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("file base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{db: db, baseDir: baseDir}, nil
}

// Upload stores the blob under an opaque name, runs extraction, and persists
// the metadata row. Extraction never fails the upload; unsupported or broken
// documents get a sentinel in extracted_text with the success flag false.
func (s *Service) Upload(ctx context.Context, data []byte, fileName, contentType string, userID, chatID, messageID int64) (*models.ChatFile, error) {
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("file exceeds %d bytes", MaxUploadSize)
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." {
		return nil, errors.New("file name is required")
	}

	cloudID := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	if err := os.WriteFile(filepath.Join(s.baseDir, cloudID), data, 0o644); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	text, ok := extract.Extract(data, contentType)
	if ok && text != extract.EmptySentinel {
		text = extract.CleanForAI(text)
	}

	file := models.ChatFile{
		FileName:                 fileName,
		CloudID:                  cloudID,
		UserID:                   userID,
		ChatID:                   chatID,
		MessageID:                messageID,
		ContentType:              contentType,
		FileSize:                 int64(len(data)),
		UploadDate:               time.Now().UTC(),
		ExtractedText:            text,
		TextExtractionSuccessful: ok,
	}

	msgID := sql.NullInt64{Int64: messageID, Valid: messageID > 0}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_files (file_name, cloud_id, user_id, chat_id, message_id, content_type, file_size, upload_date, extracted_text, text_extraction_successful)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.FileName, file.CloudID, file.UserID, file.ChatID, msgID, file.ContentType, file.FileSize, file.UploadDate, file.ExtractedText, file.TextExtractionSuccessful,
	)
	if err != nil {
		os.Remove(filepath.Join(s.baseDir, cloudID))
		return nil, fmt.Errorf("create file record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("file id: %w", err)
	}
	file.FileID = id
	return &file, nil
}

// Get returns one file row by id, sql.ErrNoRows when absent.
func (s *Service) Get(ctx context.Context, fileID int64) (*models.ChatFile, error) {
	row := s.db.QueryRowContext(ctx, selectFile+` WHERE file_id = ?`, fileID)
	f, err := scanFile(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

// ListByChat returns a chat's files in upload order.
func (s *Service) ListByChat(ctx context.Context, chatID int64) ([]models.ChatFile, error) {
	return s.list(ctx, selectFile+` WHERE chat_id = ? ORDER BY file_id ASC`, chatID)
}

// ListByMessage returns the files attached to one message.
func (s *Service) ListByMessage(ctx context.Context, messageID int64) ([]models.ChatFile, error) {
	return s.list(ctx, selectFile+` WHERE message_id = ? ORDER BY file_id ASC`, messageID)
}

// ListByUser returns every file the user has uploaded, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]models.ChatFile, error) {
	return s.list(ctx, selectFile+` WHERE user_id = ? ORDER BY file_id DESC`, userID)
}

func (s *Service) list(ctx context.Context, query string, arg any) ([]models.ChatFile, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []models.ChatFile
	for rows.Next() {
		f, err := scanFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Content reads the stored blob back. A row whose blob disappeared from disk
// is an error.
func (s *Service) Content(ctx context.Context, fileID int64) (*models.ChatFile, []byte, error) {
	f, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, f.CloudID))
	if err != nil {
		return nil, nil, fmt.Errorf("read file %s: %w", f.CloudID, err)
	}
	return f, data, nil
}

// Delete removes the blob and the row. A missing blob does not block row
// removal.
func (s *Service) Delete(ctx context.Context, fileID int64) error {
	f, err := s.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.baseDir, f.CloudID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file blob: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_files WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}

// ExtractedText returns the stored extraction result for one file.
func (s *Service) ExtractedText(ctx context.Context, fileID int64) (string, bool, error) {
	f, err := s.Get(ctx, fileID)
	if err != nil {
		return "", false, err
	}
	return f.ExtractedText, f.TextExtractionSuccessful, nil
}

// ReExtract re-runs extraction from the stored blob and updates the row,
// for documents uploaded before an extractor improvement.
func (s *Service) ReExtract(ctx context.Context, fileID int64) (*models.ChatFile, error) {
	f, data, err := s.Content(ctx, fileID)
	if err != nil {
		return nil, err
	}

	text, ok := extract.Extract(data, f.ContentType)
	if ok && text != extract.EmptySentinel {
		text = extract.CleanForAI(text)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE chat_files SET extracted_text = ?, text_extraction_successful = ? WHERE file_id = ?`,
		text, ok, fileID,
	); err != nil {
		return nil, fmt.Errorf("update extraction: %w", err)
	}
	f.ExtractedText = text
	f.TextExtractionSuccessful = ok
	return f, nil
}

// LinkMessage attaches one file to a message.
func (s *Service) LinkMessage(ctx context.Context, fileID, messageID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_files SET message_id = ? WHERE file_id = ?`, messageID, fileID,
	)
	if err != nil {
		return fmt.Errorf("link file to message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LinkPendingToMessage attaches every not-yet-linked file of the chat to the
// given message, for uploads that arrived before the message was created.
func (s *Service) LinkPendingToMessage(ctx context.Context, chatID, messageID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE chat_files SET message_id = ? WHERE chat_id = ? AND message_id IS NULL`,
		messageID, chatID,
	); err != nil {
		return fmt.Errorf("link pending files: %w", err)
	}
	return nil
}

const selectFile = `SELECT file_id, file_name, cloud_id, user_id, chat_id, message_id, content_type, file_size, upload_date, extracted_text, text_extraction_successful FROM chat_files`

func scanFile(scan func(...any) error) (*models.ChatFile, error) {
	var f models.ChatFile
	var messageID sql.NullInt64
	var text sql.NullString
	if err := scan(&f.FileID, &f.FileName, &f.CloudID, &f.UserID, &f.ChatID, &messageID, &f.ContentType, &f.FileSize, &f.UploadDate, &text, &f.TextExtractionSuccessful); err != nil {
		return nil, err
	}
	f.MessageID = messageID.Int64
	f.ExtractedText = text.String
	return &f, nil
}
