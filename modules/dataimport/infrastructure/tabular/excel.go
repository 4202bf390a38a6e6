package tabular

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
)

// ParseXLSX normalizes the first sheet of an .xlsx workbook to the same
// row shape the CSV parser produces.
func ParseXLSX(r io.Reader) (record.Rows, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return record.Rows{}, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return record.Rows{}, ErrNoHeader
	}
	cellRows, err := f.GetRows(sheets[0])
	if err != nil {
		return record.Rows{}, errors.Wrap(err, "read sheet")
	}
	if len(cellRows) == 0 {
		return record.Rows{}, ErrNoHeader
	}

	headers := make([]string, len(cellRows[0]))
	for i, h := range cellRows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := record.Rows{Headers: headers}
	for _, cells := range cellRows[1:] {
		if isBlank(cells) {
			continue
		}
		rows.Records = append(rows.Records, zip(headers, cells))
	}
	return rows, nil
}
