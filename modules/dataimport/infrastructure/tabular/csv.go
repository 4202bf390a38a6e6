package tabular

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/go-faster/errors"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
)

var ErrNoHeader = errors.New("file has no header row")

// ParseCSV reads delimited text into rows keyed by the header line. It
// never rejects malformed input outright: short rows leave trailing
// fields empty, long rows drop the extras, blank trailing lines are
// skipped. Size and row-count limits are enforced upstream.
func ParseCSV(r io.Reader) (record.Rows, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return record.Rows{}, errors.Wrap(err, "read input")
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return record.Rows{}, ErrNoHeader
	}
	if err != nil {
		return record.Rows{}, errors.Wrap(err, "read header")
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	rows := record.Rows{Headers: headers}
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return record.Rows{}, errors.Wrap(err, "read row")
		}
		if isBlank(cells) {
			continue
		}
		rows.Records = append(rows.Records, zip(headers, cells))
	}
	return rows, nil
}

// zip pairs cells against headers. Missing trailing cells become empty
// strings; extra cells beyond the header width are truncated.
func zip(headers []string, cells []string) record.RawRow {
	row := make(record.RawRow, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			row[h] = strings.TrimSpace(cells[i])
		} else {
			row[h] = ""
		}
	}
	return row
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return err
	}
	if len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		if _, err := br.Discard(3); err != nil {
			return err
		}
	}
	return nil
}
