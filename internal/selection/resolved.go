package selection

import (
	"github.com/sells-group/report-studio/internal/drilldown"
	"github.com/sells-group/report-studio/internal/model"
)

// ResolvedReport is a bundle with exactly one text per section. It is also
// the JSON payload accepted by the native PDF route.
type ResolvedReport struct {
	ClientName       string                 `json:"clientName"`
	Date             string                 `json:"date"`
	Period           string                 `json:"period,omitempty"`
	KPIs             []model.KPI            `json:"kpis"`
	Questions        []ResolvedSection      `json:"questions"`
	GeneralSections  []ResolvedSection      `json:"generalSections"`
	SummaryDetails   []ResolvedDetail       `json:"summaryDetails"`
	GrowthCategories []model.GrowthCategory `json:"growthCategories"`
	Drilldown        *drilldown.Table       `json:"drilldown,omitempty"`
}

// ResolvedSection is a section title with its chosen text.
type ResolvedSection struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ResolvedDetail is a summary row with its final text.
type ResolvedDetail struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ResolveBundle applies chosen to every section of b.
func ResolveBundle(b *model.DraftBundle, chosen Chosen) ResolvedReport {
	options := Options(b.OptionsByID())

	resolve := func(sections []model.ReportSection) []ResolvedSection {
		out := make([]ResolvedSection, 0, len(sections))
		for _, s := range sections {
			out = append(out, ResolvedSection{
				ID:    s.ID,
				Title: s.Title,
				Text:  Resolve(chosen, options, s.ID),
			})
		}
		return out
	}

	details := make([]ResolvedDetail, 0, len(b.SummaryDetails))
	for _, d := range b.SummaryDetails {
		text := d.Text
		if d.SectionID != "" {
			text = Resolve(chosen, options, d.SectionID)
		}
		details = append(details, ResolvedDetail{Label: d.Label, Text: text})
	}

	return ResolvedReport{
		ClientName:       b.ClientName,
		Date:             b.Date,
		Period:           b.Period,
		KPIs:             b.KPIs,
		Questions:        resolve(b.Questions),
		GeneralSections:  resolve(b.GeneralSections),
		SummaryDetails:   details,
		GrowthCategories: b.GrowthCategories,
		Drilldown:        b.Drilldown,
	}
}
