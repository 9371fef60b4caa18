package preview

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"planvault/internal/apperr"
	"planvault/internal/model"
)

// Serialize materializes edited sheets into the native bytes of the target
// file type. A single sheet aimed at a CSV document becomes escaped text;
// everything else goes through the workbook serializer, one sheet per entry.
func Serialize(fileType string, sheets []model.Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, apperr.Validation("sheets are required")
	}
	switch fileType {
	case model.TypeCSV:
		if len(sheets) == 1 {
			return serializeCSV(sheets[0])
		}
		return serializeWorkbook(sheets)
	case model.TypeXLSX, model.TypeXLS:
		return serializeWorkbook(sheets)
	default:
		return nil, apperr.Validation("file type is not editable: " + fileType)
	}
}

// serializeCSV writes comma-escaped text: fields containing a comma, quote
// or newline are quoted with embedded quotes doubled (encoding/csv rules).
func serializeCSV(sheet model.Sheet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range sheet.Rows {
		if err := w.Write(row); err != nil {
			return nil, apperr.Parse("write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperr.Parse("flush csv", err)
	}
	return buf.Bytes(), nil
}

// serializeWorkbook writes an OOXML workbook with one sheet per input entry,
// rows appended verbatim.
func serializeWorkbook(sheets []model.Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		name := sh.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, apperr.Parse("rename sheet", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, apperr.Parse("create sheet "+name, err)
		}
		for r := range sh.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, apperr.Parse("compute cell name", err)
			}
			if err := f.SetSheetRow(name, cell, &sh.Rows[r]); err != nil {
				return nil, apperr.Parse("write sheet row", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperr.Parse("write workbook", err)
	}
	return buf.Bytes(), nil
}
