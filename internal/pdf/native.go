package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"

	"github.com/sells-group/report-studio/internal/model"
	"github.com/sells-group/report-studio/internal/render"
	"github.com/sells-group/report-studio/internal/selection"
)

// Layout constants, in millimetres unless noted.
const (
	ptToMM         = 25.4 / 72.0
	marginMM       = 18.0
	sectionSpacing = ptToMM * 5.0
	kpiColumns     = 2
	kpiGap         = ptToMM * 2.2
	barSegmentMM   = 1.5
	minSegments    = 80
)

var categoryColumns = []float64{0.36, 0.28, 0.16, 0.20}

var categoryHeaders = []string{"Category", "Score", "Confidence", "KPIs Scored"}

var (
	colorText    = render.ParseHex("#111111")
	colorMuted   = render.ParseHex("#4b5563")
	colorHeading = render.ParseHex("#141717")
	colorCard    = render.ParseHex("#f8fafc")
)

// NativeRenderer draws a resolved report straight to PDF without a browser.
type NativeRenderer struct {
	theme render.Theme
}

// NewNativeRenderer creates a NativeRenderer using theme's copy and colours.
func NewNativeRenderer(theme render.Theme) *NativeRenderer {
	return &NativeRenderer{theme: theme}
}

// Render draws rep on Letter pages and returns the PDF bytes.
func (n *NativeRenderer) Render(rep selection.ResolvedReport) ([]byte, error) {
	title := fmt.Sprintf("%s — %s", rep.ClientName, n.theme.TitleSuffix)
	d := newDocument(n.theme, title)

	d.textLine(title, "B", 18, colorText, 0)
	d.textLine(rep.Date, "", 11, colorMuted, 0)
	d.y += ptToMM * 3

	if len(rep.KPIs) > 0 {
		d.heading("Key KPIs")
		d.kpiGrid(rep.KPIs)
		d.y += sectionSpacing * 0.5
	}

	if len(rep.Questions) > 0 {
		d.heading("Key Questions")
		for _, s := range rep.Questions {
			d.questionCard(s)
		}
		d.y += sectionSpacing
	}

	if len(rep.GrowthCategories) > 0 {
		d.heading("Breakdown by Category")
		d.categoryTable(rep.GrowthCategories)
		d.y += sectionSpacing
	}

	if len(rep.SummaryDetails) > 0 {
		d.heading("Summary Details")
		d.summaryList(rep.SummaryDetails)
		d.y += sectionSpacing * 0.75
	}

	if len(rep.GeneralSections) > 0 {
		d.heading("Additional Insights")
		for _, s := range rep.GeneralSections {
			d.textLine(s.Title, "B", 11.5, render.RGB{R: 31, G: 31, B: 31}, 0)
			d.paragraph(s.Text, 10)
		}
		d.y += sectionSpacing
	}

	for _, p := range n.theme.Closing {
		d.paragraph(p, 10.5)
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, eris.Wrap(err, "pdf: write native document")
	}
	return buf.Bytes(), nil
}

// document tracks the cursor for one PDF. y grows down the page.
type document struct {
	pdf      *fpdf.Fpdf
	encode   func(string) string
	theme    render.Theme
	gradient render.Gradient
	pageW    float64
	pageH    float64
	y        float64
}

func newDocument(theme render.Theme, title string) *document {
	p := fpdf.New("P", "mm", "Letter", "")
	p.SetMargins(marginMM, marginMM, marginMM)
	p.SetAutoPageBreak(false, marginMM)
	p.SetTitle(title, true)
	p.AddPage()

	w, h := p.GetPageSize()
	tr := p.UnicodeTranslatorFromDescriptor("")
	return &document{
		pdf:      p,
		encode:   func(s string) string { return tr(render.CleanText(s)) },
		theme:    theme,
		gradient: theme.Gradient(),
		pageW:    w,
		pageH:    h,
		y:        marginMM,
	}
}

func (d *document) contentWidth() float64 {
	return d.pageW - 2*marginMM
}

func (d *document) ensureSpace(h float64) {
	if d.y+h > d.pageH-marginMM {
		d.pdf.AddPage()
		d.y = marginMM
	}
}

func (d *document) setFont(style string, size float64, c render.RGB) {
	d.pdf.SetFont("Helvetica", style, size)
	d.pdf.SetTextColor(c.R, c.G, c.B)
}

// text draws already encoded text with its baseline at y.
func (d *document) text(s string, x, baseline float64) {
	d.pdf.Text(x, baseline, s)
}

func (d *document) textLine(s, style string, size float64, c render.RGB, indent float64) {
	lineH := size * 1.2 * ptToMM
	d.ensureSpace(lineH)
	d.setFont(style, size, c)
	d.text(d.encode(s), marginMM+indent, d.y+size*ptToMM)
	d.y += lineH
}

func (d *document) heading(s string) {
	d.y += ptToMM * 1.5
	d.textLine(s, "B", 13, colorHeading, 0)
	d.y += ptToMM * 0.8
}

func (d *document) paragraph(s string, size float64) {
	d.setFont("", size, colorText)
	lineH := size * 1.2 * ptToMM
	for _, line := range d.wrap(d.encode(s), d.contentWidth()) {
		d.ensureSpace(lineH)
		d.setFont("", size, colorText)
		d.text(line, marginMM, d.y+size*ptToMM)
		d.y += lineH
	}
	d.y += ptToMM * 2
}

// wrap splits encoded text into lines no wider than width using the current
// font. A single word wider than width gets a line of its own.
func (d *document) wrap(s string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if d.pdf.GetStringWidth(line+" "+w) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}

func (d *document) rect(x, top, w, h float64, c render.RGB) {
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(x, top, w, h, "F")
}

func (d *document) centered(s string, x, w, baseline float64) {
	tw := d.pdf.GetStringWidth(s)
	if tw > w {
		tw = w
	}
	d.text(s, x+(w-tw)/2, baseline)
}

// gradientFill draws the ramp across the filled width in thin overlapping
// segments so no seams show between them.
func (d *document) gradientFill(x, fillW, top, h float64) {
	segments := int(fillW / barSegmentMM)
	if segments < minSegments {
		segments = minSegments
	}
	segW := fillW / float64(segments)
	end := x + fillW
	for i := 0; i < segments; i++ {
		start := x + float64(i)*segW - 0.08
		if start < x {
			start = x
		}
		remaining := end - start
		if remaining <= 0 {
			break
		}
		w := segW + 0.12
		if w > remaining {
			w = remaining
		}
		ratio := (start + w/2 - x) / fillW
		d.rect(start, top, w, h, d.gradient.At(ratio))
	}
}

func (d *document) progressBar(x, top, w, h, value float64) {
	d.rect(x, top, w, h, render.ParseHex(d.theme.Track))
	fillW := w * model.ClampPercent(value) / 100
	if fillW > 0.2 {
		d.gradientFill(x, fillW, top, h)
	}
}

func (d *document) kpiGrid(kpis []model.KPI) {
	cardW := (d.contentWidth() - kpiGap*(kpiColumns-1)) / kpiColumns
	padding := ptToMM * 1.6
	barH := 5.0
	titleSize := 11.0
	titleH := titleSize * 1.2 * ptToMM
	gap := ptToMM * 0.5
	cardH := padding*2 + titleH + gap + barH
	rowGap := ptToMM * 1.6

	for i := 0; i < len(kpis); i += kpiColumns {
		d.ensureSpace(cardH + rowGap)
		top := d.y
		for col := 0; col < kpiColumns && i+col < len(kpis); col++ {
			k := kpis[i+col]
			x := marginMM + float64(col)*(cardW+kpiGap)
			d.rect(x, top, cardW, cardH, colorCard)

			d.setFont("B", titleSize, colorText)
			label := k.Name
			if k.Delta != nil {
				label = fmt.Sprintf("%s (%+.1f%s)", k.Name, *k.Delta, k.Unit)
			}
			d.text(d.encode(label), x+padding, top+padding+titleSize*0.85*ptToMM)

			value := fmt.Sprintf("%.0f%%", model.ClampPercent(k.Value))
			d.setFont("", 10, colorMuted)
			d.text(value, x+cardW-padding-d.pdf.GetStringWidth(value), top+padding+titleSize*0.85*ptToMM)

			d.progressBar(x+padding, top+padding+titleH+gap/2, cardW-2*padding, barH, k.Value)
		}
		d.y += cardH + rowGap
	}
	d.y += ptToMM * 0.8
}

func (d *document) questionCard(s selection.ResolvedSection) {
	padding := ptToMM * 1.4
	gap := ptToMM * 0.4
	titleSize, bodySize := 11.0, 10.0
	titleH := titleSize * 1.2 * ptToMM
	bodyLineH := bodySize * 1.25 * ptToMM
	width := d.contentWidth()

	d.setFont("", bodySize, colorText)
	lines := d.wrap(d.encode(strings.TrimSpace(s.Text)), width-2*padding)
	cardH := padding*2 + titleH + gap + float64(len(lines))*bodyLineH

	d.ensureSpace(cardH)
	top := d.y
	d.rect(marginMM, top, width, cardH, colorCard)

	d.setFont("B", titleSize, colorText)
	d.text(d.encode(s.Title), marginMM+padding, top+padding+titleSize*ptToMM)

	d.setFont("", bodySize, colorText)
	baseline := top + padding + titleH + gap + bodySize*ptToMM
	for _, line := range lines {
		d.text(line, marginMM+padding, baseline)
		baseline += bodyLineH
	}
	d.y = top + cardH + ptToMM*0.8
}

func (d *document) categoryTable(cats []model.GrowthCategory) {
	tableW := d.contentWidth()
	widths := make([]float64, len(categoryColumns))
	starts := make([]float64, len(categoryColumns))
	acc := marginMM
	for i, frac := range categoryColumns {
		starts[i] = acc
		widths[i] = tableW * frac
		acc += widths[i]
	}
	headerH := 7.0
	rowH := 8.0
	padding := 1.6
	track := render.ParseHex(d.theme.Track)

	drawHeader := func() {
		top := d.y
		d.rect(marginMM, top, tableW, headerH, colorCard)
		d.setFont("B", 10, colorText)
		baseline := top + headerH/2 + 10*0.35*ptToMM
		for i, label := range categoryHeaders {
			if i == 0 {
				d.text(label, starts[i]+padding/2, baseline)
				continue
			}
			d.centered(label, starts[i], widths[i], baseline)
		}
		d.y += headerH
	}

	d.ensureSpace(headerH + rowH)
	drawHeader()

	for _, c := range cats {
		if d.y+rowH > d.pageH-marginMM {
			d.pdf.AddPage()
			d.y = marginMM
			drawHeader()
		}
		top := d.y
		baseline := top + rowH/2 + 10*0.35*ptToMM

		d.setFont("B", 10.5, colorText)
		d.text(d.encode(c.Name), starts[0]+padding/2, baseline)

		barW := widths[1] - padding
		if barW < 16 {
			barW = 16
		}
		d.progressBar(starts[1]+padding/2, top+(rowH-4)/2, barW, 4, c.Score)

		d.setFont("", 10, colorText)
		d.centered(fmt.Sprintf("%.0f%%", c.Confidence), starts[2], widths[2], baseline)
		d.centered(fmt.Sprintf("%d of %d", c.Scored, c.Total), starts[3], widths[3], baseline)

		d.rect(marginMM, top+rowH-0.2, tableW, 0.2, track)
		d.y += rowH
	}
	d.y += ptToMM
}

func (d *document) summaryList(details []selection.ResolvedDetail) {
	padding := ptToMM * 0.8
	badgeD := 8.0
	badgeR := badgeD / 2
	fontSize := 10.0
	lineH := fontSize * 1.25 * ptToMM
	rowGap := ptToMM * 0.6
	width := d.contentWidth()
	textX := marginMM + badgeD + padding*2
	textW := width - (textX - marginMM) - padding
	track := render.ParseHex(d.theme.Track)
	badgeFill := render.ParseHex(d.theme.BadgeFill)
	badgeText := render.ParseHex(d.theme.BadgeText)

	for _, det := range details {
		d.setFont("", fontSize, colorText)
		lines := d.wrap(d.encode(det.Text), textW)
		contentH := float64(len(lines)) * lineH
		blockH := contentH + padding*2
		if floor := badgeD + padding*1.6; blockH < floor {
			blockH = floor
		}
		totalH := blockH + rowGap

		d.ensureSpace(totalH)
		top := d.y

		d.rect(marginMM, top+totalH-0.25, width, 0.25, track)

		cx := marginMM + padding + badgeR
		cy := top + blockH/2
		d.pdf.SetFillColor(badgeFill.R, badgeFill.G, badgeFill.B)
		d.pdf.Circle(cx, cy, badgeR, "F")

		d.setFont("B", 11, badgeText)
		d.centered(d.encode(render.BadgeText(det.Label)), cx-badgeR, badgeD, cy+11*0.35*ptToMM)

		d.setFont("", fontSize, colorText)
		baseline := top + padding + fontSize*ptToMM
		for _, line := range lines {
			d.text(line, textX, baseline)
			baseline += lineH
		}
		d.y += totalH
	}
	d.y += ptToMM * 0.8
}
