package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractUnsupportedType(t *testing.T) {
	text, ok := Extract([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png")
	if ok {
		t.Fatalf("expected unsupported extraction to report failure")
	}
	if text != UnsupportedSentinel {
		t.Fatalf("unexpected sentinel: %q", text)
	}
}

func TestExtractPlainText(t *testing.T) {
	text, ok := Extract([]byte("Hello world"), "text/plain; charset=utf-8")
	if !ok {
		t.Fatalf("expected plain text extraction to succeed, got %q", text)
	}
	if text != "Hello world" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractEmptyContent(t *testing.T) {
	text, ok := Extract([]byte("   \n\t  "), "text/plain")
	if !ok {
		t.Fatalf("whitespace-only content should not be an extraction failure")
	}
	if text != EmptySentinel {
		t.Fatalf("expected empty sentinel, got %q", text)
	}
}

func TestExtractHTML(t *testing.T) {
	doc := `<html><head><style>body { color: red }</style>
	<script>var x = "hidden";</script></head>
	<body><h1>Quarterly Report</h1><p>Revenue grew.</p></body></html>`
	text, ok := Extract([]byte(doc), "text/html")
	if !ok {
		t.Fatalf("html extraction failed: %q", text)
	}
	if !strings.Contains(text, "Quarterly Report") || !strings.Contains(text, "Revenue grew.") {
		t.Fatalf("missing visible text: %q", text)
	}
	if strings.Contains(text, "hidden") || strings.Contains(text, "color: red") {
		t.Fatalf("script/style content leaked: %q", text)
	}
}

func TestExtractXML(t *testing.T) {
	text, ok := Extract([]byte(`<note><to>Ada</to><body>Meet at noon</body></note>`), "application/xml")
	if !ok {
		t.Fatalf("xml extraction failed: %q", text)
	}
	if !strings.Contains(text, "Ada") || !strings.Contains(text, "Meet at noon") {
		t.Fatalf("missing character data: %q", text)
	}
}

func TestExtractBrokenOOXML(t *testing.T) {
	text, ok := Extract([]byte("not a zip archive"),
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	if ok {
		t.Fatalf("expected corrupt docx to fail")
	}
	if !strings.HasPrefix(text, "Text extraction failed: ") {
		t.Fatalf("expected failure sentinel, got %q", text)
	}
}

func TestStripRTF(t *testing.T) {
	text, ok := Extract([]byte(`{\rtf1\ansi Hello\par World}`), "application/rtf")
	if !ok {
		t.Fatalf("rtf extraction failed: %q", text)
	}
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "World") {
		t.Fatalf("missing rtf text: %q", text)
	}
	if strings.Contains(text, "rtf1") || strings.Contains(text, "ansi") {
		t.Fatalf("control words leaked: %q", text)
	}
}

func TestCleanForAI(t *testing.T) {
	raw := "  Hello\t\tworld  \r\nline two   \n\n\n\n\nline three  "
	clean := CleanForAI(raw)
	if strings.Contains(clean, "  ") || strings.Contains(clean, "\t") {
		t.Fatalf("whitespace runs survived: %q", clean)
	}
	if strings.Contains(clean, "\n\n\n") {
		t.Fatalf("newline runs survived: %q", clean)
	}
	if strings.HasPrefix(clean, " ") || strings.HasSuffix(clean, " ") {
		t.Fatalf("result not trimmed: %q", clean)
	}
	if !strings.Contains(clean, "Hello world") {
		t.Fatalf("unexpected content: %q", clean)
	}
}

func TestCleanForAIIdempotent(t *testing.T) {
	inputs := []string{
		"  a   b  c ",
		"one\n\n\n\ntwo\r\nthree",
		"already clean",
		"",
		"mixed \t spacing\n\n around\n \n \nnewlines",
	}
	for _, in := range inputs {
		once := CleanForAI(in)
		twice := CleanForAI(once)
		if once != twice {
			t.Fatalf("clean not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("word ", 200)
	p := Preview(long, 100)
	if len(p) > 104 {
		t.Fatalf("preview too long: %d", len(p))
	}
	if !strings.HasSuffix(p, "...") {
		t.Fatalf("expected ellipsis: %q", p)
	}
	if got := Preview("short", 100); got != "short" {
		t.Fatalf("short text should pass through, got %q", got)
	}

	// a cut landing inside a multibyte rune backs up to its start
	multibyte := strings.Repeat("ü", 60)
	p = Preview(multibyte, 99)
	if !utf8.ValidString(p) {
		t.Fatalf("preview is not valid utf-8: %q", p)
	}
	if !strings.HasSuffix(p, "...") {
		t.Fatalf("expected ellipsis: %q", p)
	}
}

func TestAnalyze(t *testing.T) {
	a := Analyze([]byte("Hello world from the analyzer"), "notes.txt", "text/plain")
	if !a.ExtractionSupported || !a.ExtractionSuccessful {
		t.Fatalf("expected successful analysis: %+v", a)
	}
	if a.WordCount != 5 {
		t.Fatalf("expected 5 words, got %d", a.WordCount)
	}
	if !strings.Contains(a.TextPreview, "Hello world") {
		t.Fatalf("unexpected preview: %q", a.TextPreview)
	}

	bad := Analyze([]byte{0x00, 0x01}, "image.png", "image/png")
	if bad.ExtractionSupported {
		t.Fatalf("png should be unsupported")
	}
	if bad.ErrorMessage != UnsupportedSentinel {
		t.Fatalf("unexpected error message: %q", bad.ErrorMessage)
	}
}
