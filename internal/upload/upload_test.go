package upload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"

	"github.com/sells-group/report-studio/internal/csvgrid"
	"github.com/sells-group/report-studio/internal/drilldown"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

const bundleJSON = `{
  "clientName": "Bright Smiles",
  "date": "October 2026",
  "questions": [{"title": "Q1", "options": ["a", "b"]}]
}`

const bundleYAML = `clientName: Bright Smiles
date: October 2026
generalSections:
  - id: g1
    title: Scheduling
    options: [one]
`

const drilldownCSV = "Practice Report\nCategory,KPI,Score\nHygiene,Recall Rate,65\n"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want Format
	}{
		{name: "json ext", file: "a.JSON", want: FormatJSON},
		{name: "yaml ext", file: "a.yml", want: FormatYAML},
		{name: "csv ext", file: "a.csv", want: FormatCSV},
		{name: "xlsx ext", file: "a.xlsx", want: FormatXLSX},
		{name: "sniff zip", file: "upload", data: "PK\x03\x04rest", want: FormatXLSX},
		{name: "sniff json", file: "upload", data: "\xef\xbb\xbf  {\"a\":1}", want: FormatJSON},
		{name: "sniff csv", file: "upload", data: "a,b\n1,2", want: FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.file, []byte(tt.data)))
		})
	}
}

func TestDecode_JSONBundle(t *testing.T) {
	res, err := Decode("bundle.json", []byte(bundleJSON), Options{})
	require.NoError(t, err)

	assert.Equal(t, FormatJSON, res.Format)
	require.NotNil(t, res.Bundle)
	assert.Nil(t, res.Drilldown)
	assert.Equal(t, "Bright Smiles", res.Bundle.ClientName)
	assert.NotEmpty(t, res.Bundle.Questions[0].ID, "missing ids are assigned")
}

func TestDecode_YAMLBundle(t *testing.T) {
	res, err := Decode("bundle.yaml", []byte(bundleYAML), Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Bundle)
	assert.Equal(t, "g1", res.Bundle.GeneralSections[0].ID)
}

func TestDecode_CSV(t *testing.T) {
	res, err := Decode("report.csv", []byte(drilldownCSV), Options{})
	require.NoError(t, err)

	require.NotNil(t, res.Drilldown)
	assert.Nil(t, res.Bundle)
	assert.Equal(t, "Practice Report", res.Drilldown.Title)
	assert.Equal(t, [][]string{{"Hygiene", "Recall Rate", "65"}}, res.Drilldown.Rows)
}

func TestDecode_CSVStrictQuotes(t *testing.T) {
	data := []byte("A,B\n1,\"open")

	_, err := Decode("x.csv", data, Options{})
	require.NoError(t, err)

	_, err = Decode("x.csv", data, Options{StrictQuotes: true})
	assert.True(t, errors.Is(err, csvgrid.ErrUnterminatedQuote))
}

func TestDecode_UTF16CSV(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(drilldownCSV))
	require.NoError(t, err)

	res, err := Decode("report.csv", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Practice Report", res.Drilldown.Title)
	assert.Equal(t, []string{"Category", "KPI", "Score"}, res.Drilldown.Columns)
}

func TestDecode_XLSX(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Scores": {
			{"Practice Report"},
			{"Category", "KPI", "Score"},
			{" Hygiene ", "Recall Rate", "65"},
			{"", "", ""},
			{"Hygiene", "Perio", ""},
		},
	})

	res, err := Decode("scores.xlsx", data, Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Drilldown)
	assert.Equal(t, "Practice Report", res.Drilldown.Title)
	assert.Equal(t, [][]string{{"Hygiene", "Recall Rate", "65"}}, res.Drilldown.Rows)
}

func TestDecode_XLSXNamedSheet(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Other": {{"X"}, {"1"}},
		"Drill": {{"KPI", "Score"}, {"Recall", "10"}},
	})

	res, err := Decode("scores.xlsx", data, Options{Sheet: "Drill"})
	require.NoError(t, err)
	assert.Equal(t, []string{"KPI", "Score"}, res.Drilldown.Columns)

	_, err = Decode("scores.xlsx", data, Options{Sheet: "Missing"})
	assert.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("x.csv", nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyUpload)

	_, err = Decode("x.csv", []byte("A,Score\nx,\n"), Options{})
	assert.ErrorIs(t, err, drilldown.ErrNoDataRows)

	_, err = Decode("x.json", []byte(`{"date": "no client"}`), Options{})
	assert.Error(t, err)

	_, err = Decode("b.json", []byte(`{"clientName":"Acme","drilldown":{"columns":["Category"],"rows":[["A","extra"]]}}`), Options{})
	assert.ErrorIs(t, err, drilldown.ErrRowWidth)

	_, err = Decode("x.xlsx", []byte("PK\x03\x04 not really a zip"), Options{})
	assert.Error(t, err)
}

func TestDecodeText(t *testing.T) {
	out, err := DecodeText([]byte("caf\xe9"), "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "café", out)

	out, err = DecodeText([]byte("plain"), "")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	_, err = DecodeText([]byte("x"), "klingon")
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(bundleJSON), 0o644))

	res, err := ReadFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bright Smiles", res.Bundle.ClientName)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"), Options{})
	assert.Error(t, err)
}

func TestDecode_JSONWithBOM(t *testing.T) {
	res, err := Decode("upload", append([]byte("\xef\xbb\xbf"), bundleJSON...), Options{})
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, res.Format)
	assert.Equal(t, "Bright Smiles", res.Bundle.ClientName)
}
