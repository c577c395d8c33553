package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"
)

// ooxmlSource selects which zip entries inside an OOXML container carry the
// document text.
type ooxmlSource int

const (
	ooxmlWordDocument ooxmlSource = iota
	ooxmlSlides
	ooxmlWorkbook
)

func (s ooxmlSource) matches(name string) bool {
	switch s {
	case ooxmlWordDocument:
		return name == "word/document.xml"
	case ooxmlSlides:
		return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
	case ooxmlWorkbook:
		return name == "xl/sharedStrings.xml" ||
			(strings.HasPrefix(name, "xl/worksheets/") && strings.HasSuffix(name, ".xml"))
	}
	return false
}

// extractOOXML opens the zip container and collects the character data of
// every <t> run in the selected document parts. Word and PowerPoint paragraph
// boundaries become newlines.
func extractOOXML(data []byte, source ooxmlSource) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", wrapParseErr("ooxml open", err)
	}

	var parts []*zip.File
	for _, f := range zr.File {
		if source.matches(f.Name) {
			parts = append(parts, f)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })

	var sb strings.Builder
	for _, part := range parts {
		rc, err := part.Open()
		if err != nil {
			return "", wrapParseErr("ooxml part", err)
		}
		err = collectRuns(rc, &sb)
		rc.Close()
		if err != nil {
			return "", err
		}
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// collectRuns streams one document part, appending the text of <t> elements
// and a newline per closed <p> paragraph.
func collectRuns(r io.Reader, sb *strings.Builder) error {
	dec := xml.NewDecoder(r)
	depth := 0
	textDepth := -1
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapParseErr("ooxml xml", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "t" {
				textDepth = depth
			}
		case xml.EndElement:
			if t.Name.Local == "t" && depth == textDepth {
				textDepth = -1
			}
			// Word/PowerPoint paragraphs and spreadsheet shared-string
			// items each end a line of output.
			if t.Name.Local == "p" || t.Name.Local == "si" {
				sb.WriteByte('\n')
			}
			depth--
		case xml.CharData:
			if textDepth >= 0 && depth >= textDepth {
				sb.Write(t)
			}
		}
	}
}
