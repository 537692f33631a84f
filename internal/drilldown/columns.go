package drilldown

import "strings"

// Role is the rendering role of a column.
type Role string

// Column roles.
const (
	RoleGrowthBadge Role = "growth-badge"
	RoleHierarchy   Role = "hierarchy"
	RoleDetail      Role = "detail"
)

// Width is a coarse column width hint for layout.
type Width string

// Column widths.
const (
	WidthBadge   Width = "badge"
	WidthNarrow  Width = "narrow"
	WidthMedium  Width = "medium"
	WidthWide    Width = "wide"
	WidthDefault Width = "default"
)

// ColumnMeta is the rendering hint derived from a column header.
type ColumnMeta struct {
	Label         string `json:"label"`
	HeaderLabel   string `json:"header_label"`
	Role          Role   `json:"role"`
	Width         Width  `json:"width"`
	Indent        int    `json:"indent"`
	IsGrowthBadge bool   `json:"is_growth_badge"`
}

// Class returns the CSS class used for cells of this column.
func (m ColumnMeta) Class() string {
	return "col-" + string(m.Role) + " w-" + string(m.Width)
}

type columnRule struct {
	match  func(h string) bool
	role   Role
	width  Width
	indent int
}

func equals(s string) func(string) bool {
	return func(h string) bool { return h == s }
}

func contains(s string) func(string) bool {
	return func(h string) bool { return strings.Contains(h, s) }
}

// columnRules is evaluated in order against the trimmed, lower-cased header;
// the first match wins.
var columnRules = []columnRule{
	{match: contains("growth category"), role: RoleGrowthBadge, width: WidthBadge},
	{match: equals("kpis"), role: RoleHierarchy, width: WidthNarrow, indent: 1},
	{match: equals("category"), role: RoleHierarchy, width: WidthMedium, indent: 2},
	{match: equals("score"), role: RoleDetail, width: WidthNarrow},
	{match: equals("kpi"), role: RoleDetail, width: WidthWide},
	{match: equals("description"), role: RoleDetail, width: WidthWide},
	{match: contains("profit driver"), role: RoleDetail, width: WidthMedium},
}

// Classify derives the ColumnMeta for a header.
func Classify(header string) ColumnMeta {
	meta := ColumnMeta{
		Label:       header,
		HeaderLabel: header,
		Role:        RoleDetail,
		Width:       WidthDefault,
	}

	h := strings.ToLower(strings.TrimSpace(header))
	for _, r := range columnRules {
		if !r.match(h) {
			continue
		}
		meta.Role = r.role
		meta.Width = r.width
		meta.Indent = r.indent
		break
	}

	if meta.Role == RoleGrowthBadge {
		meta.IsGrowthBadge = true
		meta.HeaderLabel = ""
	}
	return meta
}

// ClassifyAll classifies every column of the table.
func ClassifyAll(columns []string) []ColumnMeta {
	out := make([]ColumnMeta, len(columns))
	for i, c := range columns {
		out[i] = Classify(c)
	}
	return out
}
