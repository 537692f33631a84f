package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-studio/internal/config"
	"github.com/sells-group/report-studio/internal/model"
	"github.com/sells-group/report-studio/internal/pdf"
	"github.com/sells-group/report-studio/internal/render"
	"github.com/sells-group/report-studio/internal/selection"
	"github.com/sells-group/report-studio/internal/upload"
)

func uploadOptions(c *config.Config) upload.Options {
	return upload.Options{
		Charset:      c.Drilldown.Charset,
		StrictQuotes: c.Drilldown.StrictQuotes,
		Sheet:        c.Drilldown.Sheet,
	}
}

// rendering holds the HTML and PDF collaborators shared by the commands.
type rendering struct {
	Renderer *render.Renderer
	Chrome   *pdf.ChromeConverter
	Native   *pdf.NativeRenderer
}

func newRendering(c *config.Config) (*rendering, error) {
	theme, err := render.LoadTheme(c.Render.ThemePath)
	if err != nil {
		return nil, err
	}
	r, err := render.New(theme)
	if err != nil {
		return nil, err
	}
	return &rendering{
		Renderer: r,
		Chrome:   pdf.NewChromeConverter(c.PDF.ChromePath, c.PDF.Timeout()),
		Native:   pdf.NewNativeRenderer(theme),
	}, nil
}

func (r *rendering) exporter(engine string) *pdf.Exporter {
	return &pdf.Exporter{
		Engine:    engine,
		Renderer:  r.Renderer,
		Converter: r.Chrome,
		Native:    r.Native,
	}
}

// loadBundle reads a JSON or YAML bundle file.
func loadBundle(path string, opts upload.Options) (*model.DraftBundle, error) {
	res, err := upload.ReadFile(path, opts)
	if err != nil {
		return nil, err
	}
	if res.Bundle == nil {
		return nil, eris.Errorf("%s is a drill-down table, not a report bundle", path)
	}
	return res.Bundle, nil
}

// loadChoices reads a JSON object mapping section ids to chosen text. An
// empty path yields no choices.
func loadChoices(path string) (selection.Chosen, error) {
	if path == "" {
		return selection.Chosen{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read choices %s", path)
	}
	var chosen selection.Chosen
	if err := json.Unmarshal(data, &chosen); err != nil {
		return nil, eris.Wrapf(err, "parse choices %s", path)
	}
	return chosen, nil
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return eris.Wrap(err, "write stdout")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}
