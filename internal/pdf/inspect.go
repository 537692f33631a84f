package pdf

import (
	"bytes"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Info describes a generated PDF.
type Info struct {
	Pages int
}

// Inspect parses data as a PDF and reports its page count. Output that does
// not parse is an error.
func Inspect(data []byte) (info Info, err error) {
	if len(data) == 0 {
		return Info{}, eris.New("pdf: empty document")
	}
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, eris.Errorf("pdf: malformed document: %v", r)
		}
	}()
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, eris.Wrap(err, "pdf: open document")
	}
	n := r.NumPage()
	if n == 0 {
		return Info{}, eris.New("pdf: document has no pages")
	}
	return Info{Pages: n}, nil
}
