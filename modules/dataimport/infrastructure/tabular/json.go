package tabular

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
)

var ErrNotJSONArray = errors.New("input is not a JSON array of objects")

// ParseJSONArray normalizes a JSON array of flat objects to rows. Headers
// are the object keys in first-seen order; nested values are ignored.
func ParseJSONArray(r io.Reader) (record.Rows, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return record.Rows{}, errors.Wrap(err, "read input")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return record.Rows{}, ErrNotJSONArray
	}

	var (
		headers []string
		seen    = make(map[string]bool)
		records []record.RawRow
	)
	for dec.More() {
		row, order, err := decodeFlatObject(dec)
		if err != nil {
			return record.Rows{}, err
		}
		for _, key := range order {
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
		}
		records = append(records, row)
	}

	// Rows decoded before a later object introduced a new key still get
	// that key, empty, so every row is keyed by the full header set.
	for _, row := range records {
		for _, h := range headers {
			if _, ok := row[h]; !ok {
				row[h] = ""
			}
		}
	}
	return record.Rows{Headers: headers, Records: records}, nil
}

func decodeFlatObject(dec *json.Decoder) (record.RawRow, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.Wrap(err, "read object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, ErrNotJSONArray
	}

	row := make(record.RawRow)
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.Wrap(err, "read key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, ErrNotJSONArray
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.Wrap(err, "read value")
		}
		if _, ok := valTok.(json.Delim); ok {
			// Nested object or array: consume it and drop the field.
			if err := skipNested(dec); err != nil {
				return nil, nil, err
			}
			continue
		}
		row[key] = stringifyScalar(valTok)
		order = append(order, key)
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, nil, errors.Wrap(err, "read object end")
	}
	return row, order, nil
}

// skipNested consumes the remainder of a nested value whose opening
// delimiter has already been read.
func skipNested(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "skip nested value")
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func stringifyScalar(tok json.Token) string {
	switch v := tok.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
