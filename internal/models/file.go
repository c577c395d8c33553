package models

import "time"

// ChatFile is the metadata row for one uploaded document. CloudID is the
// opaque stored-blob name under the upload directory; ExtractedText holds
// either the cleaned document text or a human-readable extraction sentinel.
type ChatFile struct {
	FileID                   int64     `json:"file_id"`
	FileName                 string    `json:"file_name"`
	CloudID                  string    `json:"cloud_id"`
	UserID                   int64     `json:"user_id"`
	ChatID                   int64     `json:"chat_id"`
	MessageID                int64     `json:"message_id,omitempty"`
	ContentType              string    `json:"content_type"`
	FileSize                 int64     `json:"file_size"`
	UploadDate               time.Time `json:"upload_date"`
	ExtractedText            string    `json:"extracted_text,omitempty"`
	TextExtractionSuccessful bool      `json:"text_extraction_successful"`
}
