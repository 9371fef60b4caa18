package preview

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"planvault/internal/apperr"
)

// MaxTextRunes bounds extracted word-processing text.
const MaxTextRunes = 100000

// TruncationMarker is appended when extracted text exceeds MaxTextRunes.
const TruncationMarker = "\n... [truncated]"

// readDOCX extracts plain text from word/document.xml inside the OOXML
// archive. Formatting is discarded; paragraphs become newlines.
func readDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Parse("malformed document archive", err)
	}

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", apperr.Parse("open document.xml", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", apperr.Parse("read document.xml", err)
		}
		text, err := parseDocumentXML(content)
		if err != nil {
			return "", err
		}
		return truncateText(text), nil
	}
	return "", apperr.Parse("document.xml missing from archive", nil)
}

// parseDocumentXML walks the token stream collecting text runs (w:t) and
// paragraph boundaries (w:p).
func parseDocumentXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", apperr.Parse("malformed document xml", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func truncateText(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTextRunes {
		return s
	}
	return string(runes[:MaxTextRunes]) + TruncationMarker
}
