// Package extract turns uploaded document bytes into plain text suitable
// for prompting. Unsupported or broken inputs never produce an error at the
// package boundary; callers receive a readable sentinel string and a flag.
package extract

import (
	"fmt"
	"strings"
)

// Sentinel strings stored in place of extracted text.
const (
	UnsupportedSentinel = "Text extraction not supported for this file type."
	EmptySentinel       = "No readable text content found in this file."

	failurePrefix = "Text extraction failed: "
)

const (
	typePDF  = "application/pdf"
	typeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	typePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	typeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	typeDOC  = "application/msword"
	typePPT  = "application/vnd.ms-powerpoint"
	typeXLS  = "application/vnd.ms-excel"
	typeRTF  = "application/rtf"
)

var supportedTypes = map[string]struct{}{
	typePDF:            {},
	typeDOCX:           {},
	typePPTX:           {},
	typeXLSX:           {},
	typeDOC:            {},
	typePPT:            {},
	typeXLS:            {},
	typeRTF:            {},
	"text/plain":       {},
	"text/html":        {},
	"text/xml":         {},
	"application/xml":  {},
	"application/json": {},
	"text/csv":         {},
	"text/markdown":    {},
}

// Supported reports whether text extraction is available for the MIME type.
func Supported(contentType string) bool {
	ct := normalizeType(contentType)
	if ct == "" {
		return false
	}
	if _, ok := supportedTypes[ct]; ok {
		return true
	}
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "javascript") ||
		strings.Contains(ct, "css") ||
		strings.Contains(ct, "html") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "json")
}

// Extract pulls plain text from the document bytes. The returned flag is
// false when the type is unsupported or parsing failed; in both cases the
// string is a sentinel the caller can store and show as-is. A supported
// document with no readable content yields EmptySentinel with flag true.
func Extract(data []byte, contentType string) (string, bool) {
	ct := normalizeType(contentType)
	if !Supported(ct) {
		return UnsupportedSentinel, false
	}

	text, err := extractByType(data, ct)
	if err != nil {
		return failurePrefix + err.Error(), false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return EmptySentinel, true
	}
	return text, true
}

func extractByType(data []byte, ct string) (string, error) {
	switch ct {
	case typePDF:
		return extractPDF(data)
	case typeDOCX:
		return extractOOXML(data, ooxmlWordDocument)
	case typePPTX:
		return extractOOXML(data, ooxmlSlides)
	case typeXLSX:
		return extractOOXML(data, ooxmlWorkbook)
	case typeDOC, typePPT, typeXLS:
		// Legacy binary Office containers have no structured reader in the
		// toolchain; salvage the printable runs.
		return printableRuns(data), nil
	case typeRTF:
		return stripRTF(data)
	}

	switch {
	case strings.Contains(ct, "html"):
		return extractHTML(data)
	case strings.Contains(ct, "xml"):
		return extractXML(data)
	default:
		// text/*, json, csv, markdown, javascript, css: already plain text.
		return string(data), nil
	}
}

// normalizeType lowercases the MIME type and drops parameters such as charset.
func normalizeType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}

// printableRuns scans binary data for runs of printable characters, the
// best-effort fallback for legacy binary formats.
func printableRuns(data []byte) string {
	const minRun = 5
	var sb strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= minRun {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.Write(run)
		}
		run = run[:0]
	}
	for _, b := range data {
		if b >= 0x20 && b < 0x7f {
			run = append(run, b)
			continue
		}
		flush()
	}
	flush()
	return sb.String()
}

func wrapParseErr(stage string, err error) error {
	return fmt.Errorf("%s: %v", stage, err)
}
