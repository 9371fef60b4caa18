package preview

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"planvault/internal/apperr"
	"planvault/internal/model"
)

// readCSV parses the whole buffer as one sheet. Rows may have ragged widths;
// each cell is kept verbatim.
func readCSV(data []byte) ([]model.Sheet, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows := make([][]string, 0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Parse("malformed csv content", err)
		}
		rows = append(rows, rec)
	}
	return []model.Sheet{{Name: "Sheet1", Rows: rows}}, nil
}
