package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// extractHTML walks the token stream and keeps visible text, skipping the
// contents of script and style elements.
func extractHTML(data []byte) (string, error) {
	tz := html.NewTokenizer(bytes.NewReader(data))
	var sb strings.Builder
	skipDepth := 0
	for {
		switch tz.Next() {
		case html.ErrorToken:
			if err := tz.Err(); err != io.EOF {
				return "", wrapParseErr("html parse", err)
			}
			return sb.String(), nil
		case html.StartTagToken:
			name, _ := tz.TagName()
			if isHiddenTag(name) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			if isHiddenTag(name) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tz.Text()))
			if text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(text)
		}
	}
}

func isHiddenTag(name []byte) bool {
	return bytes.Equal(name, []byte("script")) || bytes.Equal(name, []byte("style"))
}

// extractXML concatenates all character data in the document.
func extractXML(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", wrapParseErr("xml parse", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			text := strings.TrimSpace(string(cd))
			if text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(text)
		}
	}
}

// stripRTF removes control words, groups and hex escapes, leaving the
// document text.
func stripRTF(data []byte) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(data) {
		b := data[i]
		switch b {
		case '{', '}':
			i++
		case '\\':
			i++
			if i >= len(data) {
				break
			}
			c := data[i]
			switch {
			case c == '\'':
				// \'hh hex escape
				i += 3
			case c == '\\' || c == '{' || c == '}':
				sb.WriteByte(c)
				i++
			case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
				// control word: letters then optional numeric parameter,
				// terminated by one optional space
				start := i
				for i < len(data) && isRTFLetter(data[i]) {
					i++
				}
				switch string(data[start:i]) {
				case "par", "line":
					sb.WriteByte('\n')
				case "tab":
					sb.WriteByte(' ')
				}
				if i < len(data) && (data[i] == '-' || data[i] >= '0' && data[i] <= '9') {
					i++
					for i < len(data) && data[i] >= '0' && data[i] <= '9' {
						i++
					}
				}
				if i < len(data) && data[i] == ' ' {
					i++
				}
			default:
				i++
			}
		case '\r', '\n':
			i++
		default:
			sb.WriteByte(b)
			i++
		}
	}
	return sb.String(), nil
}

func isRTFLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
