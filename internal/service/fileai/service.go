// Package fileai composes prompts around uploaded documents and dispatches
// them. Every flow here answers the user directly, so failures are absorbed
// into readable messages instead of surfacing as errors.
package fileai

import (
	"context"
	"log"
	"strings"

	"ollamahub/internal/models"
	"ollamahub/internal/ollama"
	"ollamahub/internal/service/files"
)

// Service answers questions about uploaded documents.
type Service struct {
	files        *files.Service
	manager      *ollama.Manager
	defaultModel string
}

// NewService creates a file-assist service.
func NewService(files *files.Service, manager *ollama.Manager, defaultModel string) *Service {
	return &Service{files: files, manager: manager, defaultModel: defaultModel}
}

// AskAboutFile answers a question against a document's extracted text.
func (s *Service) AskAboutFile(ctx context.Context, fileID int64, question, model string) string {
	file, ok, msg := s.usableText(ctx, fileID)
	if !ok {
		return msg
	}
	if file.ExtractedText == "" {
		return "I couldn't extract any text content from this file. Please make sure the file contains readable text and is in a supported format (PDF, DOCX, TXT, etc.)."
	}
	prompt := questionPrompt(file.ExtractedText, question, file.FileName)
	response, err := s.dispatch(ctx, fileID, prompt, model)
	if err != nil {
		return "I encountered an error while processing your request about this file. Please try again or contact support if the issue persists. Error: " + err.Error()
	}
	return response
}

// AskWithContext answers a question against the document plus prior
// conversation context.
func (s *Service) AskWithContext(ctx context.Context, fileID int64, question, conversationContext, model string) string {
	file, ok, msg := s.usableText(ctx, fileID)
	if !ok {
		return msg
	}
	if file.ExtractedText == "" {
		return "I couldn't extract any text content from this file to analyze."
	}
	prompt := questionWithContextPrompt(file.ExtractedText, question, conversationContext, file.FileName)
	response, err := s.dispatch(ctx, fileID, prompt, model)
	if err != nil {
		return "I encountered an error while processing your request. Please try again."
	}
	return response
}

// Summarize produces a structured summary of the document.
func (s *Service) Summarize(ctx context.Context, fileID int64, model string) string {
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		log.Printf("summarize file %d: %v", fileID, err)
		return "I encountered an error while trying to summarize this file."
	}
	if strings.TrimSpace(file.ExtractedText) == "" || !file.TextExtractionSuccessful {
		return "I couldn't extract readable text from this file to create a summary."
	}
	response, err := s.dispatch(ctx, fileID, summaryPrompt(file.ExtractedText, file.FileName), model)
	if err != nil {
		return "I encountered an error while trying to summarize this file."
	}
	return response
}

// Analyze produces a structural analysis of the document.
func (s *Service) Analyze(ctx context.Context, fileID int64, model string) string {
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		log.Printf("analyze file %d: %v", fileID, err)
		return "I couldn't extract readable text from this file to perform an analysis."
	}
	if strings.TrimSpace(file.ExtractedText) == "" || !file.TextExtractionSuccessful {
		return "I couldn't extract readable text from this file to perform an analysis."
	}
	response, err := s.dispatch(ctx, fileID, analysisPrompt(file.ExtractedText, file.FileName, file.ContentType), model)
	if err != nil {
		return "I encountered an error while trying to analyze this file."
	}
	return response
}

// usableText loads the file row and reports whether its extracted text can be
// prompted against; when not, the returned message goes straight to the user.
func (s *Service) usableText(ctx context.Context, fileID int64) (*models.ChatFile, bool, string) {
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		log.Printf("load file %d: %v", fileID, err)
		return nil, false, "I encountered an error while processing your request about this file. Please try again or contact support if the issue persists. Error: " + err.Error()
	}
	if !file.TextExtractionSuccessful {
		return nil, false, "There was an issue extracting text from this file: " + file.ExtractedText
	}
	file.ExtractedText = strings.TrimSpace(file.ExtractedText)
	return file, true, ""
}

// dispatch sends the composed prompt; callers turn its error into the
// flow-specific apology.
func (s *Service) dispatch(ctx context.Context, fileID int64, prompt, model string) (string, error) {
	if strings.TrimSpace(model) == "" {
		model = s.defaultModel
	}
	response, err := s.manager.GenerateDefault(ctx, model, prompt)
	if err != nil {
		log.Printf("dispatch for file %d: %v", fileID, err)
		return "", err
	}
	return response, nil
}
