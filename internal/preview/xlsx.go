package preview

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"planvault/internal/apperr"
	"planvault/internal/model"
)

// readXLSX parses an OOXML workbook into sheets of string cells.
func readXLSX(data []byte) ([]model.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Parse("malformed workbook", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make([]model.Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apperr.Parse("read sheet "+name, err)
		}
		if len(rows) > maxRowsPerSheet {
			rows = rows[:maxRowsPerSheet]
		}
		if rows == nil {
			rows = [][]string{}
		}
		sheets = append(sheets, model.Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}
