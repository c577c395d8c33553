package fileai

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ollamahub/internal/models"
	"ollamahub/internal/ollama"
	"ollamahub/internal/service/files"
	"ollamahub/internal/service/servers"
	"ollamahub/internal/storage"
)

type testEnv struct {
	svc      *Service
	files    *files.Service
	registry *servers.Service
	db       *sql.DB
	userID   int64
	chatID   int64
	prompts  *[]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var prompts []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		prompts = append(prompts, req.Prompt)
		json.NewEncoder(w).Encode(map[string]string{"response": "backend answer"})
	}))
	t.Cleanup(backend.Close)

	registry := servers.NewService(db)
	u, _ := url.Parse(backend.URL)
	port, _ := strconv.Atoi(u.Port())
	if _, err := registry.Create(context.Background(), models.ChatServer{EndpointURL: u.Hostname(), EndpointPort: port}); err != nil {
		t.Fatalf("register backend: %v", err)
	}
	manager := ollama.NewManager(registry)

	fileSvc, err := files.NewService(db, t.TempDir())
	if err != nil {
		t.Fatalf("file service: %v", err)
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

	return &testEnv{
		svc:      NewService(fileSvc, manager, "test-model"),
		files:    fileSvc,
		registry: registry,
		db:       db,
		userID:   userID,
		chatID:   chatID,
		prompts:  &prompts,
	}
}

func (e *testEnv) upload(t *testing.T, name, content string) *models.ChatFile {
	t.Helper()
	file, err := e.files.Upload(context.Background(), []byte(content), name, "text/plain", e.userID, e.chatID, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return file
}

func TestAskAboutFile(t *testing.T) {
	env := newTestEnv(t)
	file := env.upload(t, "notes.txt", "Hello world")

	answer := env.svc.AskAboutFile(context.Background(), file.FileID, "what does it say?", "")
	if answer != "backend answer" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if len(*env.prompts) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(*env.prompts))
	}
	prompt := (*env.prompts)[0]
	if !strings.Contains(prompt, "Hello world") || !strings.Contains(prompt, "what does it say?") {
		t.Fatalf("prompt missing document or question:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"notes.txt"`) {
		t.Fatalf("prompt missing file name:\n%s", prompt)
	}
}

func TestAskAboutFileMissing(t *testing.T) {
	env := newTestEnv(t)
	answer := env.svc.AskAboutFile(context.Background(), 9999, "q?", "")
	if !strings.HasPrefix(answer, "I encountered an error while processing your request about this file.") {
		t.Fatalf("unexpected message: %q", answer)
	}
	if len(*env.prompts) != 0 {
		t.Fatalf("nothing should be dispatched for a missing file")
	}
}

func TestAskAboutFileExtractionFailed(t *testing.T) {
	env := newTestEnv(t)
	file := env.upload(t, "broken.docx", "x")
	// a docx that failed to parse at upload time
	if _, err := env.db.Exec(
		`UPDATE chat_files SET extracted_text = ?, text_extraction_successful = 0 WHERE file_id = ?`,
		"Text extraction failed: bad archive", file.FileID,
	); err != nil {
		t.Fatalf("seed failure: %v", err)
	}

	answer := env.svc.AskAboutFile(context.Background(), file.FileID, "q?", "")
	if answer != "There was an issue extracting text from this file: Text extraction failed: bad archive" {
		t.Fatalf("unexpected message: %q", answer)
	}
}

func TestSummarizeAndAnalyzeUnreadable(t *testing.T) {
	env := newTestEnv(t)
	file := env.upload(t, "empty.txt", "content")
	if _, err := env.db.Exec(
		`UPDATE chat_files SET extracted_text = '', text_extraction_successful = 1 WHERE file_id = ?`,
		file.FileID,
	); err != nil {
		t.Fatalf("seed empty text: %v", err)
	}

	if got := env.svc.Summarize(context.Background(), file.FileID, ""); got != "I couldn't extract readable text from this file to create a summary." {
		t.Fatalf("unexpected summary message: %q", got)
	}
	if got := env.svc.Analyze(context.Background(), file.FileID, ""); got != "I couldn't extract readable text from this file to perform an analysis." {
		t.Fatalf("unexpected analysis message: %q", got)
	}
}

func TestAskWithContext(t *testing.T) {
	env := newTestEnv(t)
	file := env.upload(t, "plan.txt", "quarterly targets")

	answer := env.svc.AskWithContext(context.Background(), file.FileID, "and next year?", "we covered this year already", "")
	if answer != "backend answer" {
		t.Fatalf("unexpected answer %q", answer)
	}
	prompt := (*env.prompts)[len(*env.prompts)-1]
	if !strings.Contains(prompt, "Previous conversation context:") ||
		!strings.Contains(prompt, "we covered this year already") {
		t.Fatalf("context missing from prompt:\n%s", prompt)
	}
}

func TestDispatchErrorAbsorbed(t *testing.T) {
	env := newTestEnv(t)
	file := env.upload(t, "doc.txt", "text")

	// kill the backend so dispatch fails at the transport level
	list, err := env.registry.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, srv := range list {
		if err := env.registry.Delete(context.Background(), srv.ServerID); err != nil {
			t.Fatalf("delete: %v", err)
		}
	}

	ctx := context.Background()
	answer := env.svc.AskAboutFile(ctx, file.FileID, "q?", "")
	if !strings.HasPrefix(answer, "I encountered an error while processing your request about this file. Please try again or contact support if the issue persists. Error: ") {
		t.Fatalf("unexpected question message: %q", answer)
	}

	answer = env.svc.AskWithContext(ctx, file.FileID, "q?", "earlier turns", "")
	if answer != "I encountered an error while processing your request. Please try again." {
		t.Fatalf("unexpected with-context message: %q", answer)
	}

	answer = env.svc.Summarize(ctx, file.FileID, "")
	if answer != "I encountered an error while trying to summarize this file." {
		t.Fatalf("unexpected summary message: %q", answer)
	}

	answer = env.svc.Analyze(ctx, file.FileID, "")
	if answer != "I encountered an error while trying to analyze this file." {
		t.Fatalf("unexpected analysis message: %q", answer)
	}
}
