package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads the plain text of every page. The pdf package panics on
// some malformed files, so the whole pass runs under a recover.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", wrapParseErr("pdf open", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", wrapParseErr("pdf text", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", wrapParseErr("pdf read", err)
	}
	return buf.String(), nil
}
