package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/message"

	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/engine"
)

// ============================================================================
// TEXT RENDERER — Panels as plain terminal text
// ============================================================================
// Tables are padded by display width, histograms become horizontal stacked
// bars and scatter facets become small character plots. A panel with zero
// rows prints "(no rows)"; it is never an error.
// ============================================================================

const (
	DefaultMaxRows  = 20
	DefaultBarWidth = 40

	plotWidth    = 48
	plotHeight   = 12
	maxCellWidth = 24
	emptyPanel   = "(no rows)"
	ellipsis     = "…"
)

// Text writes panels to w.
type Text struct {
	w        io.Writer
	p        *message.Printer
	maxRows  int
	barWidth int
}

// TextOption configures a Text renderer.
type TextOption func(*Text)

// WithPrinter sets the number printer.
func WithPrinter(p *message.Printer) TextOption {
	return func(t *Text) {
		if p != nil {
			t.p = p
		}
	}
}

// WithMaxRows limits table output; 0 prints every row.
func WithMaxRows(n int) TextOption {
	return func(t *Text) {
		if n >= 0 {
			t.maxRows = n
		}
	}
}

// WithBarWidth sets the width of the longest histogram bar.
func WithBarWidth(n int) TextOption {
	return func(t *Text) {
		if n > 0 {
			t.barWidth = n
		}
	}
}

// NewText returns a renderer writing to w.
func NewText(w io.Writer, opts ...TextOption) *Text {
	t := &Text{
		w:        w,
		p:        NewPrinter(DefaultLanguage),
		maxRows:  DefaultMaxRows,
		barWidth: DefaultBarWidth,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Panels writes each panel followed by a blank line.
func (t *Text) Panels(panels []dashboard.Panel) error {
	for _, p := range panels {
		if err := t.Panel(p); err != nil {
			return err
		}
		if _, err := io.WriteString(t.w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Panel writes one panel.
func (t *Text) Panel(p dashboard.Panel) error {
	var b strings.Builder
	heading(&b, p.Title)
	switch {
	case p.Table != nil:
		t.table(&b, p.Table)
	case p.Chart != nil && p.Chart.ChartType == "scatter":
		t.scatter(&b, p.Chart)
	case p.Chart != nil:
		t.histogram(&b, p.Chart)
	case p.Summary != nil:
		t.summary(&b, p.Summary)
	default:
		return fmt.Errorf("panel %q has nothing to draw", p.Binding)
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

func heading(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", max(runewidth.StringWidth(title), 1)))
	b.WriteByte('\n')
}

// ============================================================================
// TABLE
// ============================================================================

func (t *Text) table(b *strings.Builder, table *engine.TableData) {
	if len(table.Rows) == 0 {
		b.WriteString(emptyPanel + "\n")
		return
	}
	rows := table.Rows
	hidden := 0
	if t.maxRows > 0 && len(rows) > t.maxRows {
		hidden = len(rows) - t.maxRows
		rows = rows[:t.maxRows]
	}

	widths := make([]int, len(table.Columns))
	for i, c := range table.Columns {
		widths[i] = runewidth.StringWidth(c.Label)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], min(runewidth.StringWidth(cell), maxCellWidth))
			}
		}
	}

	cells := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cells[i] = pad(c.Label, widths[i], c.Align)
	}
	writeRow(b, cells)
	for i := range cells {
		cells[i] = strings.Repeat("-", widths[i])
	}
	writeRow(b, cells)
	for _, row := range rows {
		for i, c := range table.Columns {
			cell := ""
			if i < len(row) {
				cell = runewidth.Truncate(row[i], maxCellWidth, ellipsis)
			}
			cells[i] = pad(cell, widths[i], c.Align)
		}
		writeRow(b, cells)
	}
	if hidden > 0 {
		fmt.Fprintf(b, "%s %s more rows\n", ellipsis, Count(t.p, hidden))
	}
	if table.Summary != nil {
		b.WriteString(table.Summary.Label + "\n")
	}
}

func pad(s string, width int, align string) string {
	if align == "right" {
		return runewidth.FillLeft(s, width)
	}
	return runewidth.FillRight(s, width)
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	b.WriteByte('\n')
}

// ============================================================================
// HISTOGRAM
// ============================================================================

func (t *Text) histogram(b *strings.Builder, chart *engine.ChartConfig) {
	if len(chart.Bins) == 0 || len(chart.Series) == 0 {
		b.WriteString(emptyPanel + "\n")
		t.skipped(b, chart.Skipped)
		return
	}
	glyphs := []rune("█▓▒░▚▞")

	fmt.Fprintf(b, "x: %s   y: %s\n", chart.XAxis, chart.YAxis)
	if len(chart.Series) > 1 || chart.ShowLegend {
		legend := make([]string, len(chart.Series))
		for i, s := range chart.Series {
			legend[i] = fmt.Sprintf("%c %s", glyphs[i%len(glyphs)], s.Name)
		}
		b.WriteString(strings.Join(legend, "  ") + "\n")
	}

	totals := make([]int, len(chart.Bins))
	peak := 0
	for i := range chart.Bins {
		for _, s := range chart.Series {
			if i < len(s.Data) {
				totals[i] += int(s.Data[i].Value)
			}
		}
		peak = max(peak, totals[i])
	}

	labels := make([]string, len(chart.Bins))
	labelWidth := 0
	for i, bin := range chart.Bins {
		labels[i] = t.binLabel(bin)
		labelWidth = max(labelWidth, runewidth.StringWidth(labels[i]))
	}

	for i := range chart.Bins {
		b.WriteString(runewidth.FillLeft(labels[i], labelWidth))
		b.WriteString(" │")
		for j, s := range chart.Series {
			if i >= len(s.Data) {
				continue
			}
			b.WriteString(strings.Repeat(string(glyphs[j%len(glyphs)]), t.barLength(int(s.Data[i].Value), peak)))
		}
		fmt.Fprintf(b, " %s\n", Count(t.p, totals[i]))
	}
	t.skipped(b, chart.Skipped)
}

func (t *Text) binLabel(bin engine.BinRange) string {
	return Number(t.p, bin.Lower) + "–" + Number(t.p, bin.Upper)
}

// barLength scales a count so the fullest bin spans barWidth. Any non-zero
// count gets at least one glyph.
func (t *Text) barLength(n, peak int) int {
	if n <= 0 || peak <= 0 {
		return 0
	}
	return max(1, int(math.Round(float64(n)*float64(t.barWidth)/float64(peak))))
}

func (t *Text) skipped(b *strings.Builder, n int) {
	if n > 0 {
		fmt.Fprintf(b, "%s rows skipped (missing values)\n", Count(t.p, n))
	}
}

// ============================================================================
// SCATTER
// ============================================================================

func (t *Text) scatter(b *strings.Builder, chart *engine.ChartConfig) {
	if chart.Total() == 0 {
		b.WriteString(emptyPanel + "\n")
		t.skipped(b, chart.Skipped)
		return
	}

	var xlo, xhi, ylo, yhi float64
	first := true
	for _, f := range chart.Facets {
		for _, s := range f.Series {
			for _, pt := range s.Points {
				if first {
					xlo, xhi, ylo, yhi = pt.X, pt.X, pt.Y, pt.Y
					first = false
					continue
				}
				xlo, xhi = math.Min(xlo, pt.X), math.Max(xhi, pt.X)
				ylo, yhi = math.Min(ylo, pt.Y), math.Max(yhi, pt.Y)
			}
		}
	}

	markers := seriesMarkers(chart)
	fmt.Fprintf(b, "x: %s   y: %s\n", chart.XAxis, chart.YAxis)
	var legend []string
	for _, name := range markerOrder(chart) {
		legend = append(legend, fmt.Sprintf("%c %s", markers[name], name))
	}
	if len(legend) > 0 {
		b.WriteString(strings.Join(legend, "  ") + "\n")
	}

	for _, f := range chart.Facets {
		if f.Name != "" {
			fmt.Fprintf(b, "── %s %s\n", f.Name, strings.Repeat("─", max(plotWidth-len(f.Name), 2)))
		}
		t.plot(b, f, markers, xlo, xhi, ylo, yhi)
	}
	t.skipped(b, chart.Skipped)
}

func (t *Text) plot(b *strings.Builder, f engine.Facet, markers map[string]rune, xlo, xhi, ylo, yhi float64) {
	grid := make([][]rune, plotHeight)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", plotWidth))
	}
	counts := make([]string, 0, len(f.Series))
	for _, s := range f.Series {
		for _, pt := range s.Points {
			col := scale(pt.X, xlo, xhi, plotWidth)
			row := plotHeight - 1 - scale(pt.Y, ylo, yhi, plotHeight)
			grid[row][col] = markers[s.Name]
		}
		counts = append(counts, fmt.Sprintf("%s %s", s.Name, Count(t.p, len(s.Points))))
	}

	top, bottom := Number(t.p, yhi), Number(t.p, ylo)
	gutter := max(runewidth.StringWidth(top), runewidth.StringWidth(bottom), 6)
	for r, line := range grid {
		label := ""
		switch r {
		case 0:
			label = top
		case plotHeight - 1:
			label = bottom
		}
		fmt.Fprintf(b, "%s ┤%s\n", runewidth.FillLeft(label, gutter), strings.TrimRight(string(line), " "))
	}
	left, right := Number(t.p, xlo), Number(t.p, xhi)
	gap := max(plotWidth-runewidth.StringWidth(left)-runewidth.StringWidth(right), 1)
	fmt.Fprintf(b, "%s └%s\n", strings.Repeat(" ", gutter), strings.Repeat("─", plotWidth))
	fmt.Fprintf(b, "%s  %s%s%s\n", strings.Repeat(" ", gutter), left, strings.Repeat(" ", gap), right)
	if len(counts) > 0 {
		b.WriteString("  " + strings.Join(counts, ", ") + "\n")
	}
}

// scale maps v in [lo, hi] onto 0..n-1.
func scale(v, lo, hi float64, n int) int {
	if hi <= lo {
		return n / 2
	}
	i := int((v - lo) / (hi - lo) * float64(n-1))
	return min(max(i, 0), n-1)
}

// markerOrder lists series names by first appearance across facets.
func markerOrder(chart *engine.ChartConfig) []string {
	var names []string
	seen := map[string]bool{}
	for _, f := range chart.Facets {
		for _, s := range f.Series {
			if !seen[s.Name] {
				seen[s.Name] = true
				names = append(names, s.Name)
			}
		}
	}
	return names
}

// seriesMarkers picks the first letter of each series name, falling back to
// punctuation when two names share a letter.
func seriesMarkers(chart *engine.ChartConfig) map[string]rune {
	out := map[string]rune{}
	used := map[rune]bool{}
	fallback := []rune("ox+*#@%&")
	next := 0
	for _, name := range markerOrder(chart) {
		var m rune
		for _, r := range name {
			m = unicode.ToUpper(r)
			break
		}
		if m == 0 || used[m] {
			m = fallback[next%len(fallback)]
			next++
		}
		used[m] = true
		out[name] = m
	}
	return out
}

// ============================================================================
// SUMMARY
// ============================================================================

func (t *Text) summary(b *strings.Builder, s *engine.MeasureSummary) {
	fmt.Fprintf(b, "rows %s   values %s   missing %s\n",
		Count(t.p, s.Rows), Count(t.p, s.Count), Count(t.p, s.Missing))
	if s.Count == 0 {
		b.WriteString(emptyPanel + "\n")
		return
	}
	fmt.Fprintf(b, "mean %s   min %s   max %s\n",
		Number(t.p, s.Mean), Number(t.p, s.Min), Number(t.p, s.Max))

	width := 0
	for _, g := range s.Groups {
		width = max(width, runewidth.StringWidth(g.Label))
	}
	for _, g := range s.Groups {
		fmt.Fprintf(b, "  %s  mean %s (n=%s)\n",
			runewidth.FillRight(g.Label, width), Number(t.p, g.Value), Count(t.p, g.Count))
	}
}
