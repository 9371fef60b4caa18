// Package preview turns stored document bytes into a bounded, human-viewable
// representation: a grid of rows for spreadsheet formats, plain text for
// word-processing documents. It also materializes edited sheets back into a
// document's native byte format for the resave path.
package preview

import "planvault/internal/model"

// Preview kinds.
const (
	KindSheets      = "sheets"
	KindText        = "text"
	KindUnavailable = "unavailable"
)

// Preview is the viewable form of a document's content. Exactly one of
// Sheets or Text is populated, depending on Kind; an unavailable preview
// carries neither.
type Preview struct {
	Kind   string        `json:"kind"`
	Sheets []model.Sheet `json:"sheets,omitempty"`
	Text   string        `json:"text,omitempty"`
}

// Defensive cap on rows parsed per sheet from binary workbooks. CSV input is
// already size-capped at ingest.
const maxRowsPerSheet = 10000

// Extract dispatches on the normalized file type. Unsupported types yield an
// unavailable preview, not an error; malformed content yields a parse error.
func Extract(fileType string, data []byte) (*Preview, error) {
	switch fileType {
	case model.TypeCSV:
		sheets, err := readCSV(data)
		if err != nil {
			return nil, err
		}
		return &Preview{Kind: KindSheets, Sheets: sheets}, nil
	case model.TypeXLSX:
		sheets, err := readXLSX(data)
		if err != nil {
			return nil, err
		}
		return &Preview{Kind: KindSheets, Sheets: sheets}, nil
	case model.TypeXLS:
		sheets, err := readXLS(data)
		if err != nil {
			return nil, err
		}
		return &Preview{Kind: KindSheets, Sheets: sheets}, nil
	case model.TypeDOCX:
		text, err := readDOCX(data)
		if err != nil {
			return nil, err
		}
		return &Preview{Kind: KindText, Text: text}, nil
	default:
		return &Preview{Kind: KindUnavailable}, nil
	}
}
