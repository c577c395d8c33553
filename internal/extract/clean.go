package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	lineEndings   = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	spacedNewline = regexp.MustCompile(`[ \t\f\v]*\n[ \t\f\v]*`)
	newlineRuns   = regexp.MustCompile(`\n{3,}`)
	spaceRuns     = regexp.MustCompile(`[ \t\f\v]+`)
)

// CleanForAI normalizes extracted text before it is embedded in a prompt:
// whitespace runs collapse to a single space, three or more consecutive
// newlines collapse to two, and the result is trimmed. Applying it to
// already-clean text returns the text unchanged.
func CleanForAI(raw string) string {
	if raw == "" {
		return ""
	}
	s := lineEndings.Replace(raw)
	s = spacedNewline.ReplaceAllString(s, "\n")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Analysis summarizes one extraction attempt without persisting anything.
type Analysis struct {
	FileName             string `json:"fileName"`
	FileSize             int    `json:"fileSize"`
	ContentType          string `json:"contentType"`
	ExtractionSupported  bool   `json:"extractionSupported"`
	ExtractionSuccessful bool   `json:"extractionSuccessful"`
	TextPreview          string `json:"textPreview,omitempty"`
	WordCount            int    `json:"wordCount"`
	ErrorMessage         string `json:"errorMessage,omitempty"`
}

const previewLength = 500

// Analyze runs extraction on the document and reports what a stored upload
// would have looked like, with a short preview instead of the full text.
func Analyze(data []byte, fileName, contentType string) Analysis {
	a := Analysis{
		FileName:            fileName,
		FileSize:            len(data),
		ContentType:         contentType,
		ExtractionSupported: Supported(contentType),
	}
	if !a.ExtractionSupported {
		a.ErrorMessage = UnsupportedSentinel
		return a
	}

	text, ok := Extract(data, contentType)
	if !ok {
		a.ErrorMessage = text
		return a
	}
	a.ExtractionSuccessful = true
	if text == EmptySentinel {
		a.ErrorMessage = EmptySentinel
		return a
	}

	clean := CleanForAI(text)
	a.WordCount = len(strings.Fields(clean))
	a.TextPreview = Preview(clean, previewLength)
	return a
}

// Preview truncates text to at most max characters, breaking at a word
// boundary when one falls in the last fifth, and marks the cut with an
// ellipsis.
func Preview(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if idx := strings.LastIndexFunc(text[:cut], unicode.IsSpace); idx > max*4/5 {
		cut = idx
	}
	return strings.TrimRightFunc(text[:cut], unicode.IsSpace) + "..."
}
