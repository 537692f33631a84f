// Package model holds the report bundle types shared by the renderers, the
// review UI and the CLI.
package model

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/report-studio/internal/drilldown"
)

// DraftBundle describes one client's report as uploaded by the operator.
type DraftBundle struct {
	ClientName       string           `json:"clientName" yaml:"clientName"`
	Date             string           `json:"date" yaml:"date"`
	Period           string           `json:"period,omitempty" yaml:"period,omitempty"`
	KPIs             []KPI            `json:"kpis" yaml:"kpis"`
	Questions        []ReportSection  `json:"questions" yaml:"questions"`
	GeneralSections  []ReportSection  `json:"generalSections" yaml:"generalSections"`
	SummaryDetails   []SummaryDetail  `json:"summaryDetails" yaml:"summaryDetails"`
	GrowthCategories []GrowthCategory `json:"growthCategories" yaml:"growthCategories"`
	Drilldown        *drilldown.Table `json:"drilldown,omitempty" yaml:"drilldown,omitempty"`
}

// KPI is a named headline metric. Value is a 0-100 progress figure.
type KPI struct {
	Name  string   `json:"name" yaml:"name"`
	Value float64  `json:"value" yaml:"value"`
	Delta *float64 `json:"delta,omitempty" yaml:"delta,omitempty"`
	Unit  string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// ReportSection is a narrative section offering candidate texts.
type ReportSection struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Options []string `json:"options" yaml:"options"`
}

// SummaryDetail is one badge row in the summary list. When SectionID is set
// the row shows that section's chosen text instead of Text.
type SummaryDetail struct {
	Label     string `json:"label" yaml:"label"`
	SectionID string `json:"sectionId,omitempty" yaml:"sectionId,omitempty"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
}

// GrowthCategory is one row of the category breakdown.
type GrowthCategory struct {
	Name       string  `json:"name" yaml:"name"`
	Score      float64 `json:"score" yaml:"score"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Scored     int     `json:"scored" yaml:"scored"`
	Total      int     `json:"total" yaml:"total"`
}

// Sections returns questions followed by general sections.
func (b *DraftBundle) Sections() []ReportSection {
	out := make([]ReportSection, 0, len(b.Questions)+len(b.GeneralSections))
	out = append(out, b.Questions...)
	return append(out, b.GeneralSections...)
}

// Section looks up a section by id.
func (b *DraftBundle) Section(id string) (ReportSection, bool) {
	for _, s := range b.Sections() {
		if s.ID == id {
			return s, true
		}
	}
	return ReportSection{}, false
}

// OptionsByID maps each section id to its candidate texts.
func (b *DraftBundle) OptionsByID() map[string][]string {
	out := make(map[string][]string, len(b.Questions)+len(b.GeneralSections))
	for _, s := range b.Sections() {
		out[s.ID] = s.Options
	}
	return out
}

// AssignIDs gives every section without an id a fresh one. Returns the number
// of ids assigned.
func (b *DraftBundle) AssignIDs() int {
	n := 0
	assign := func(sections []ReportSection) {
		for i := range sections {
			if strings.TrimSpace(sections[i].ID) == "" {
				sections[i].ID = uuid.NewString()
				n++
			}
		}
	}
	assign(b.Questions)
	assign(b.GeneralSections)
	return n
}

// ClampPercent limits v to [0, 100].
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// ReportFilename builds the PDF file name for a client's report.
func ReportFilename(client string) string {
	slug := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(client), "-"), "-")
	if slug == "" {
		slug = "client"
	}
	return slug + "-report.pdf"
}
