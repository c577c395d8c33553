package files

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ollamahub/internal/extract"
	"ollamahub/internal/storage"
)

func newTestService(t *testing.T) (*Service, *sql.DB, int64, int64) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc, err := NewService(db, t.TempDir())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := db.Exec(
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		"tester", "tester@example.com", "hash", time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, _ := res.LastInsertId()

	res, err = db.Exec(
		`INSERT INTO chat_chat (title, user_id, status, lmm_type, share_token, created_time) VALUES (?, ?, ?, ?, ?, ?)`,
		"chat", userID, "active", "test-model", "sh_test", time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("insert chat: %v", err)
	}
	chatID, _ := res.LastInsertId()
	return svc, db, userID, chatID
}

func TestUploadTextFile(t *testing.T) {
	svc, _, userID, chatID := newTestService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, []byte("Hello   world\n\n\n\nfrom  upload"), "notes.txt", "text/plain", userID, chatID, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !file.TextExtractionSuccessful {
		t.Fatalf("expected successful extraction")
	}
	if !strings.Contains(file.ExtractedText, "Hello world") {
		t.Fatalf("text not cleaned: %q", file.ExtractedText)
	}
	if strings.Contains(file.ExtractedText, "\n\n\n") {
		t.Fatalf("newline runs survived cleaning: %q", file.ExtractedText)
	}
	if !strings.HasSuffix(file.CloudID, ".txt") {
		t.Fatalf("stored name should keep the extension: %q", file.CloudID)
	}
	if file.CloudID == "notes.txt" {
		t.Fatalf("stored name must be opaque")
	}

	got, data, err := svc.Content(ctx, file.FileID)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if string(data) != "Hello   world\n\n\n\nfrom  upload" {
		t.Fatalf("blob content mutated")
	}
	if got.FileName != "notes.txt" {
		t.Fatalf("unexpected file name %q", got.FileName)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	svc, _, userID, chatID := newTestService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, []byte{0x89, 0x50, 0x4e, 0x47}, "photo.png", "image/png", userID, chatID, 0)
	if err != nil {
		t.Fatalf("upload should succeed even when extraction cannot: %v", err)
	}
	if file.TextExtractionSuccessful {
		t.Fatalf("extraction flag must be false for unsupported type")
	}
	if file.ExtractedText != extract.UnsupportedSentinel {
		t.Fatalf("unexpected sentinel: %q", file.ExtractedText)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _, userID, chatID := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, nil, "x.txt", "text/plain", userID, chatID, 0); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if _, err := svc.Upload(ctx, []byte("x"), "", "text/plain", userID, chatID, 0); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestListAndLink(t *testing.T) {
	svc, db, userID, chatID := newTestService(t)
	ctx := context.Background()

	a, err := svc.Upload(ctx, []byte("first"), "a.txt", "text/plain", userID, chatID, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	b, err := svc.Upload(ctx, []byte("second"), "b.txt", "text/plain", userID, chatID, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	res, err := db.Exec(
		`INSERT INTO chat_messages (chat_id, user_id, message_type, message_content, created_time) VALUES (?, ?, ?, ?, ?)`,
		chatID, userID, "user", "see attachments", time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("insert message: %v", err)
	}
	messageID, _ := res.LastInsertId()

	if err := svc.LinkPendingToMessage(ctx, chatID, messageID); err != nil {
		t.Fatalf("link pending: %v", err)
	}
	linked, err := svc.ListByMessage(ctx, messageID)
	if err != nil {
		t.Fatalf("list by message: %v", err)
	}
	if len(linked) != 2 {
		t.Fatalf("expected both files linked, got %d", len(linked))
	}

	byChat, err := svc.ListByChat(ctx, chatID)
	if err != nil {
		t.Fatalf("list by chat: %v", err)
	}
	if len(byChat) != 2 || byChat[0].FileID != a.FileID || byChat[1].FileID != b.FileID {
		t.Fatalf("unexpected chat files: %+v", byChat)
	}

	byUser, err := svc.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("expected two user files, got %d", len(byUser))
	}
}

func TestDeleteRemovesBlob(t *testing.T) {
	svc, _, userID, chatID := newTestService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, []byte("bye"), "gone.txt", "text/plain", userID, chatID, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	blobPath := filepath.Join(svc.baseDir, file.CloudID)
	if _, err := os.Stat(blobPath); err != nil {
		t.Fatalf("blob missing after upload: %v", err)
	}

	if err := svc.Delete(ctx, file.FileID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(blobPath); !os.IsNotExist(err) {
		t.Fatalf("blob survived delete")
	}
	if _, err := svc.Get(ctx, file.FileID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows after delete, got %v", err)
	}
}

func TestContentMissingBlob(t *testing.T) {
	svc, _, userID, chatID := newTestService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, []byte("data"), "lost.txt", "text/plain", userID, chatID, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := os.Remove(filepath.Join(svc.baseDir, file.CloudID)); err != nil {
		t.Fatalf("remove blob: %v", err)
	}
	if _, _, err := svc.Content(ctx, file.FileID); err == nil {
		t.Fatalf("expected error when blob is missing")
	}
}

func TestReExtract(t *testing.T) {
	svc, db, userID, chatID := newTestService(t)
	ctx := context.Background()

	file, err := svc.Upload(ctx, []byte("fresh   text"), "again.txt", "text/plain", userID, chatID, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	// simulate a row stored before extraction worked
	if _, err := db.Exec(
		`UPDATE chat_files SET extracted_text = ?, text_extraction_successful = 0 WHERE file_id = ?`,
		"Text extraction failed: old parser", file.FileID,
	); err != nil {
		t.Fatalf("seed stale row: %v", err)
	}

	updated, err := svc.ReExtract(ctx, file.FileID)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	if !updated.TextExtractionSuccessful || updated.ExtractedText != "fresh text" {
		t.Fatalf("unexpected re-extraction result: %+v", updated)
	}
}
