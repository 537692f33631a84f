// Package pdf produces PDF documents from rendered reports, either by
// printing HTML in headless Chrome or by drawing the report natively.
package pdf

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-studio/internal/render"
	"github.com/sells-group/report-studio/internal/selection"
)

// Engine names accepted by configuration.
const (
	EngineChrome = "chrome"
	EngineNative = "native"
)

// ErrEmptyHTML is returned when there is nothing to print.
var ErrEmptyHTML = eris.New("pdf: html is empty")

// Converter turns an HTML document into PDF bytes.
type Converter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

// Exporter produces a PDF for a resolved report using the configured engine.
type Exporter struct {
	Engine    string
	Renderer  *render.Renderer
	Converter Converter
	Native    *NativeRenderer
}

// Export renders rep and converts it to PDF. The result is checked with
// Inspect before it is returned.
func (e *Exporter) Export(ctx context.Context, rep selection.ResolvedReport) ([]byte, Info, error) {
	start := time.Now()

	var (
		out []byte
		err error
	)
	switch e.Engine {
	case EngineNative:
		out, err = e.Native.Render(rep)
	case EngineChrome, "":
		var html string
		html, err = e.Renderer.Resolved(rep)
		if err != nil {
			return nil, Info{}, err
		}
		out, err = e.Converter.Convert(ctx, html)
	default:
		return nil, Info{}, eris.Errorf("pdf: unknown engine %q", e.Engine)
	}
	if err != nil {
		return nil, Info{}, err
	}

	info, err := Inspect(out)
	if err != nil {
		return nil, Info{}, err
	}

	zap.L().Info("pdf: exported report",
		zap.String("client", rep.ClientName),
		zap.String("engine", e.Engine),
		zap.Int("pages", info.Pages),
		zap.Int("bytes", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, info, nil
}
