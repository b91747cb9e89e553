package inventory

import (
	"context"
	"fmt"
	"io"

	"github.com/extrame/xls"

	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/market"
)

// ole2Magic opens every compound document, which is how BIFF workbooks are stored.
var ole2Magic = []byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1")

// ReadXLS parses a BIFF workbook export. Only the first sheet is read and
// the header is located the same way as in a CSV export.
func (l *Loader) ReadXLS(ctx context.Context, r io.ReadSeeker) ([]market.InventoryItem, error) {
	rows, err := sheetRows(r)
	if err != nil {
		return nil, err
	}
	return collect(ctx, rows)
}

// sheetRows flattens the first worksheet into text cells. Missing rows
// come back as nil so row numbers in logs match the spreadsheet.
func sheetRows(r io.ReadSeeker) (rows [][]string, err error) {
	// the decoder panics on truncated records instead of returning an error
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, errors.WrapIO("parse", "inventory xls", fmt.Errorf("malformed workbook: %v", p))
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, errors.WrapIO("parse", "inventory xls", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.WrapIO("parse", "inventory xls", errors.New("workbook has no sheets"))
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.WrapIO("parse", "inventory xls", errors.New("first sheet is unreadable"))
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
