// Package upload decodes operator uploads into report bundles or drill-down
// tables.
package upload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-studio/internal/csvgrid"
	"github.com/sells-group/report-studio/internal/drilldown"
	"github.com/sells-group/report-studio/internal/model"
)

// Format is an upload file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrEmptyUpload is returned for zero-byte uploads.
var ErrEmptyUpload = eris.New("upload: file is empty")

var zipMagic = []byte("PK\x03\x04")

// Options controls decoding.
type Options struct {
	// Charset names a legacy text encoding (e.g. "windows-1252"). Empty
	// means UTF-8, or UTF-16 when the data starts with a UTF-16 BOM.
	Charset string
	// StrictQuotes rejects CSV input with an unterminated quoted field.
	StrictQuotes bool
	// Sheet selects the workbook sheet for XLSX input. Empty uses the first.
	Sheet string
}

// Result is a decoded upload. Exactly one of Bundle and Drilldown is set.
type Result struct {
	Format    Format
	Bundle    *model.DraftBundle
	Drilldown *drilldown.Table
}

// DetectFormat picks a format from the file extension, falling back to the
// content: a zip archive is a workbook, a leading "{" is JSON, anything else
// is CSV.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	}

	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return FormatJSON
	}
	return FormatCSV
}

// Decode decodes an uploaded file. name is only used for format detection.
func Decode(name string, data []byte, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	format := DetectFormat(name, data)
	log := zap.L().With(zap.String("file", name), zap.String("format", string(format)), zap.Int("bytes", len(data)))

	res := &Result{Format: format}
	switch format {
	case FormatXLSX:
		rows, err := ReadXLSX(data, opts.Sheet)
		if err != nil {
			return nil, err
		}
		t, err := drilldown.BuildGrid(csvgrid.FromRows(rows))
		if err != nil {
			return nil, err
		}
		res.Drilldown = t

	case FormatCSV:
		text, err := DecodeText(data, opts.Charset)
		if err != nil {
			return nil, err
		}
		t, err := drilldown.BuildWithOptions(text, drilldown.Options{StrictQuotes: opts.StrictQuotes})
		if err != nil {
			return nil, err
		}
		res.Drilldown = t

	case FormatJSON, FormatYAML:
		text, err := DecodeText(data, opts.Charset)
		if err != nil {
			return nil, err
		}
		mf := model.FormatJSON
		if format == FormatYAML {
			mf = model.FormatYAML
		}
		b, err := model.DecodeBundle([]byte(strings.TrimPrefix(text, "\ufeff")), mf)
		if err != nil {
			return nil, err
		}
		res.Bundle = b
	}

	if res.Drilldown != nil {
		log.Debug("upload: decoded drilldown", zap.Int("columns", len(res.Drilldown.Columns)), zap.Int("rows", len(res.Drilldown.Rows)))
	} else {
		log.Debug("upload: decoded bundle", zap.String("client", res.Bundle.ClientName))
	}
	return res, nil
}

// ReadFile reads and decodes a file from disk.
func ReadFile(path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "upload: read %s", path)
	}
	return Decode(filepath.Base(path), data, opts)
}
