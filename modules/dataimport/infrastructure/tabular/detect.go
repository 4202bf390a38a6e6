package tabular

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
)

type Kind string

const (
	KindCSV     Kind = "csv"
	KindXLSX    Kind = "xlsx"
	KindJSON    Kind = "json"
	KindUnknown Kind = "unknown"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Detect sniffs the container kind from content, falling back to the file
// extension when the sniffer is inconclusive (CSV is plain text to it).
func Detect(filename string, data []byte) Kind {
	mime := mimetype.Detect(data)
	switch {
	case mime.Is(xlsxMIME):
		return KindXLSX
	case mime.Is("application/json"):
		return KindJSON
	case mime.Is("text/csv"):
		return KindCSV
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return KindCSV
	case ".xlsx":
		return KindXLSX
	case ".json":
		return KindJSON
	}
	if strings.HasPrefix(mime.String(), "text/") {
		return KindCSV
	}
	return KindUnknown
}

// Parse dispatches to the parser for the detected container kind.
func Parse(filename string, data []byte) (record.Rows, error) {
	switch Detect(filename, data) {
	case KindCSV:
		return ParseCSV(bytes.NewReader(data))
	case KindXLSX:
		return ParseXLSX(bytes.NewReader(data))
	case KindJSON:
		return ParseJSONArray(bytes.NewReader(data))
	default:
		return record.Rows{}, errors.Wrapf(ErrUnsupportedFormat, "%s", filename)
	}
}
