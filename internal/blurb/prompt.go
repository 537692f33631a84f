package blurb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-studio/internal/model"
)

const systemPrompt = `You write short narrative sections for a business growth report delivered to a practice owner.
Write in plain, confident, friendly prose addressed to the owner. Ground every statement in the figures provided; never invent numbers.
Each alternative is one paragraph of two to four sentences. Markdown emphasis is allowed; headings and lists are not.

Respond with ONLY a JSON array of strings, no other text:
["first alternative", "second alternative"]`

// contextPrompt describes the report figures shared by every section of a
// bundle.
func contextPrompt(b *model.DraftBundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Client: %s\n", b.ClientName)
	if b.Date != "" {
		fmt.Fprintf(&sb, "Report date: %s\n", b.Date)
	}
	if b.Period != "" {
		fmt.Fprintf(&sb, "Period: %s\n", b.Period)
	}

	if len(b.KPIs) > 0 {
		sb.WriteString("\nKey KPIs (0-100):\n")
		for _, k := range b.KPIs {
			fmt.Fprintf(&sb, "- %s: %g", k.Name, model.ClampPercent(k.Value))
			if k.Unit != "" {
				fmt.Fprintf(&sb, " %s", k.Unit)
			}
			if k.Delta != nil {
				fmt.Fprintf(&sb, " (change %+g)", *k.Delta)
			}
			sb.WriteString("\n")
		}
	}

	if len(b.GrowthCategories) > 0 {
		sb.WriteString("\nCategory scores:\n")
		for _, c := range b.GrowthCategories {
			fmt.Fprintf(&sb, "- %s: score %g, confidence %.0f%%, %d of %d scored\n",
				c.Name, c.Score, c.Confidence, c.Scored, c.Total)
		}
	}

	return sb.String()
}

// sectionPrompt asks for n alternatives for one section.
func sectionPrompt(s model.ReportSection, n int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Section: %s\n", s.Title)
	if len(s.Options) > 0 {
		sb.WriteString("Existing draft to improve on:\n")
		sb.WriteString(s.Options[0])
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nWrite %d distinct alternatives for this section.", n)
	return sb.String()
}

// parseOptions extracts the JSON string array from a model response. Blank
// and duplicate entries are dropped and at most n are kept.
func parseOptions(text string, n int) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.Errorf("blurb: no JSON array in response: %q", truncate(text, 120))
	}

	var raw []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "blurb: parse response JSON")
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, n)
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		return nil, eris.New("blurb: response contained no options")
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
