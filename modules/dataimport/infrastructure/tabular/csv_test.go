package tabular_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/tabular"
)

func TestParseCSV_KeysRowsByHeader(t *testing.T) {
	t.Parallel()

	rows, err := tabular.ParseCSV(strings.NewReader("name,email\nJohn Doe,john@x.com\nJane Roe,jane@x.com\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "email"}, rows.Headers)
	require.Len(t, rows.Records, 2)
	assert.Equal(t, "John Doe", rows.Records[0]["name"])
	assert.Equal(t, "john@x.com", rows.Records[0]["email"])
	assert.Equal(t, "Jane Roe", rows.Records[1]["name"])
}

func TestParseCSV_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	rows, err := tabular.ParseCSV(strings.NewReader("n\nfirst\nsecond\nthird\n"))
	require.NoError(t, err)

	require.Len(t, rows.Records, 3)
	assert.Equal(t, "first", rows.Records[0]["n"])
	assert.Equal(t, "second", rows.Records[1]["n"])
	assert.Equal(t, "third", rows.Records[2]["n"])
}

func TestParseCSV_ShortRowLeavesTrailingFieldsEmpty(t *testing.T) {
	t.Parallel()

	rows, err := tabular.ParseCSV(strings.NewReader("a,b,c\n1,2\n"))
	require.NoError(t, err)

	require.Len(t, rows.Records, 1)
	assert.Equal(t, "1", rows.Records[0]["a"])
	assert.Equal(t, "2", rows.Records[0]["b"])
	assert.Equal(t, "", rows.Records[0]["c"])
}

func TestParseCSV_LongRowTruncatesExtras(t *testing.T) {
	t.Parallel()

	rows, err := tabular.ParseCSV(strings.NewReader("a,b\n1,2,3,4\n"))
	require.NoError(t, err)

	require.Len(t, rows.Records, 1)
	assert.Len(t, rows.Records[0], 2)
	assert.Equal(t, "1", rows.Records[0]["a"])
	assert.Equal(t, "2", rows.Records[0]["b"])
}

func TestParseCSV_SkipsBlankTrailingLines(t *testing.T) {
	t.Parallel()

	rows, err := tabular.ParseCSV(strings.NewReader("a,b\n1,2\n,\n\n"))
	require.NoError(t, err)
	assert.Len(t, rows.Records, 1)
}

func TestParseCSV_StripsBOM(t *testing.T) {
	t.Parallel()

	rows, err := tabular.ParseCSV(strings.NewReader("\xEF\xBB\xBFname\nJohn\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, rows.Headers)
}

func TestParseCSV_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := tabular.ParseCSV(strings.NewReader(""))
	require.ErrorIs(t, err, tabular.ErrNoHeader)
}

func TestParseJSONArray(t *testing.T) {
	t.Parallel()

	input := `[{"name": "John", "age": 42, "active": true}, {"name": "Jane", "city": "Berlin"}]`
	rows, err := tabular.ParseJSONArray(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "active", "city"}, rows.Headers)
	require.Len(t, rows.Records, 2)
	assert.Equal(t, "42", rows.Records[0]["age"])
	assert.Equal(t, "true", rows.Records[0]["active"])
	assert.Equal(t, "", rows.Records[0]["city"])
	assert.Equal(t, "Berlin", rows.Records[1]["city"])
}

func TestDetect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tabular.KindCSV, tabular.Detect("contacts.csv", []byte("a,b\n1,2\n")))
	assert.Equal(t, tabular.KindJSON, tabular.Detect("contacts.json", []byte(`[{"a": 1}]`)))
	assert.Equal(t, tabular.KindCSV, tabular.Detect("notes.txt", []byte("plain text")))
}

func TestParse_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := tabular.Parse("img.png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0})
	require.ErrorIs(t, err, tabular.ErrUnsupportedFormat)
}
