package preview

import (
	"bytes"

	"github.com/extrame/xls"

	"planvault/internal/apperr"
	"planvault/internal/model"
)

// readXLS parses a legacy BIFF workbook. Resaved legacy documents carry
// OOXML content under the .xls stored name, so a failed BIFF open falls
// through to the xlsx reader before reporting a parse error.
func readXLS(data []byte) ([]model.Sheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		if sheets, xerr := readXLSX(data); xerr == nil {
			return sheets, nil
		}
		return nil, apperr.Parse("malformed legacy workbook", err)
	}

	sheets := make([]model.Sheet, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		last := int(ws.MaxRow)
		if last >= maxRowsPerSheet {
			last = maxRowsPerSheet - 1
		}
		rows := make([][]string, 0, last+1)
		for r := 0; r <= last; r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, []string{})
				continue
			}
			cells := make([]string, 0, row.LastCol()+1)
			for c := 0; c <= row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, model.Sheet{Name: ws.Name, Rows: rows})
	}
	return sheets, nil
}
