// Package render turns report bundles and drill-down tables into standalone,
// print-ready HTML documents.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-studio/internal/drilldown"
	"github.com/sells-group/report-studio/internal/model"
	"github.com/sells-group/report-studio/internal/selection"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer produces HTML documents. It is safe for concurrent use.
type Renderer struct {
	theme Theme
	tmpl  *template.Template
}

// New parses the embedded templates for the given theme.
func New(theme Theme) (*Renderer, error) {
	gradient := theme.Gradient()

	funcs := template.FuncMap{
		"markdown": Markdown,
		"clean":    CleanText,
		"percent":  func(v float64) string { return fmt.Sprintf("%.0f%%", model.ClampPercent(v)) },
		"width":    func(v float64) template.CSS { return template.CSS(fmt.Sprintf("width:%.1f%%", model.ClampPercent(v))) },
		"gradient": func() template.CSS { return template.CSS(gradient.CSS()) },
		"css":      func(s string) template.CSS { return template.CSS(s) },
	}

	tmpl, err := template.New("render").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, eris.Wrap(err, "render: parse templates")
	}
	return &Renderer{theme: theme, tmpl: tmpl}, nil
}

// Theme returns the renderer's theme.
func (r *Renderer) Theme() Theme {
	return r.theme
}

// Report renders a bundle with the operator's section choices applied.
func (r *Renderer) Report(b *model.DraftBundle, chosen selection.Chosen) (string, error) {
	return r.Resolved(selection.ResolveBundle(b, chosen))
}

// Resolved renders an already resolved report.
func (r *Renderer) Resolved(rep selection.ResolvedReport) (string, error) {
	data := reportData{
		pageData:   r.page(fmt.Sprintf("%s — %s", rep.ClientName, r.theme.TitleSuffix)),
		ClientName: rep.ClientName,
		Date:       rep.Date,
		Period:     rep.Period,
		Questions:  rep.Questions,
		Insights:   rep.GeneralSections,
		Closing:    r.theme.Closing,
	}

	for _, k := range rep.KPIs {
		data.KPIs = append(data.KPIs, newKPIView(k))
	}
	for _, c := range rep.GrowthCategories {
		data.Categories = append(data.Categories, categoryView{
			Name:       c.Name,
			Score:      c.Score,
			Confidence: fmt.Sprintf("%.0f%%", c.Confidence),
			Coverage:   fmt.Sprintf("%d of %d", c.Scored, c.Total),
		})
	}
	for _, d := range rep.SummaryDetails {
		data.Summary = append(data.Summary, detailView{Badge: BadgeText(d.Label), Text: d.Text})
	}
	if rep.Drilldown != nil && len(rep.Drilldown.Rows) > 0 {
		v := drilldown.NewView(rep.Drilldown)
		data.Drilldown = &v
	}

	return r.execute("report", data)
}

// Drilldown renders a standalone drill-down table document.
func (r *Renderer) Drilldown(t *drilldown.Table) (string, error) {
	if t == nil {
		return "", eris.New("render: nil drilldown table")
	}
	title := t.Title
	if title == "" {
		title = "KPI Drilldown"
	}
	v := drilldown.NewView(t)
	return r.execute("drilldown", drilldownData{pageData: r.page(title), View: &v})
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", eris.Wrapf(err, "render: execute %s template", name)
	}
	return buf.String(), nil
}

func (r *Renderer) page(title string) pageData {
	return pageData{
		Title:     title,
		Accent:    r.theme.Accent,
		Track:     r.theme.Track,
		BadgeFill: r.theme.BadgeFill,
		BadgeText: r.theme.BadgeText,
	}
}

type pageData struct {
	Title     string
	Accent    string
	Track     string
	BadgeFill string
	BadgeText string
}

type reportData struct {
	pageData
	ClientName string
	Date       string
	Period     string
	KPIs       []kpiView
	Questions  []selection.ResolvedSection
	Categories []categoryView
	Summary    []detailView
	Insights   []selection.ResolvedSection
	Closing    []string
	Drilldown  *drilldown.View
}

type drilldownData struct {
	pageData
	View *drilldown.View
}

type kpiView struct {
	Name       string
	Value      float64
	Unit       string
	Delta      string
	DeltaClass string
}

func newKPIView(k model.KPI) kpiView {
	v := kpiView{Name: k.Name, Value: k.Value, Unit: k.Unit}
	if k.Delta != nil {
		d := *k.Delta
		switch {
		case d > 0:
			v.DeltaClass = "up"
			v.Delta = fmt.Sprintf("+%s", trimFloat(d))
		case d < 0:
			v.DeltaClass = "down"
			v.Delta = trimFloat(d)
		default:
			v.DeltaClass = "flat"
			v.Delta = "0"
		}
	}
	return v
}

type categoryView struct {
	Name       string
	Score      float64
	Confidence string
	Coverage   string
}

type detailView struct {
	Badge string
	Text  string
}

// BadgeText is the text shown in a summary badge. Blank labels show a bullet.
func BadgeText(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "•"
	}
	return label
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.1f", f)
}
