package engine

import "fmt"

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a RecordView
// ============================================================================
// Histograms share one set of bins across all series so stacked bars line up.
// Scatter plots are faceted into small multiples, one per facet value.
// An empty view yields an empty chart, never an error.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Set3Palette is the pastel qualitative palette used for density-style charts.
var Set3Palette = []string{
	"#8DD3C7", "#FFFFB3", "#BEBADA", "#FB8072", "#80B1D3", "#FDB462",
	"#B3DE69", "#FCCDE5", "#D9D9D9", "#BC80BD", "#CCEBC5", "#FFED6F",
}

// BuildHistogram bins a measure into n equal-width bins spanning the
// measure's range in view, with one series per ColorBy value.
func BuildHistogram(view RecordView, measure string, n int, opts ...Option) (*ChartConfig, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBins, n)
	}
	if !HasMeasure(view, measure) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, measure)
	}
	cfg := applyOptions(opts)

	chart := &ChartConfig{
		ChartType:  "histogram",
		Title:      cfg.Title,
		XAxis:      cfg.Label(measure),
		YAxis:      "Count",
		ShowLegend: cfg.ColorBy != "",
		ShowGrid:   true,
	}

	_, missing := MeasureValues(view, measure)
	chart.Skipped = missing

	lo, hi, ok := MinMaxMeasure(view, measure)
	if !ok {
		return chart, nil
	}
	bins, err := EqualWidthBins(lo, hi, n)
	if err != nil {
		return nil, err
	}
	chart.Bins = bins

	var groups []Group
	if cfg.ColorBy == "" {
		groups = []Group{{Key: "all", Label: "Count", Count: view.Len(), View: view}}
	} else {
		groups = GroupBy(view, cfg.ColorBy, cfg.CategoryOrder[cfg.ColorBy])
	}

	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	colorOf := seriesColors(cfg, keys)

	chart.Series = make([]ChartSeries, 0, len(groups))
	for _, g := range groups {
		counts := CountBins(g.View, measure, bins)
		points := make([]ChartPoint, len(bins))
		for b, bin := range bins {
			points[b] = ChartPoint{
				Label: binLabel(bin),
				Value: float64(counts[b]),
			}
		}
		chart.Series = append(chart.Series, ChartSeries{
			Name:  g.Label,
			Data:  points,
			Color: colorOf[g.Key],
		})
	}
	chart.Colors = colorList(colorOf, keys)
	return chart, nil
}

// BuildScatter plots y against x for every row with both values, one series
// per ColorBy value and one facet per FacetBy value.
func BuildScatter(view RecordView, x, y string, opts ...Option) (*ChartConfig, error) {
	for _, m := range []string{x, y} {
		if !HasMeasure(view, m) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, m)
		}
	}
	cfg := applyOptions(opts)

	chart := &ChartConfig{
		ChartType:  "scatter",
		Title:      cfg.Title,
		XAxis:      cfg.Label(x),
		YAxis:      cfg.Label(y),
		ShowLegend: cfg.ColorBy != "",
		ShowGrid:   true,
	}

	// Series colors stay stable across facets.
	var seriesKeys []string
	if cfg.ColorBy != "" {
		seriesKeys = CategoryKeys(view, cfg.ColorBy, cfg.CategoryOrder[cfg.ColorBy])
	}
	colorOf := seriesColors(cfg, seriesKeys)

	var facets []Group
	if cfg.FacetBy == "" {
		facets = []Group{{Key: "", Label: "", Count: view.Len(), View: view}}
	} else {
		facets = GroupBy(view, cfg.FacetBy, cfg.CategoryOrder[cfg.FacetBy])
	}

	for _, f := range facets {
		facet := Facet{Name: f.Label}
		var series []Group
		if cfg.ColorBy == "" {
			series = []Group{{Key: "all", Label: "Value", Count: f.Count, View: f.View}}
		} else {
			series = GroupBy(f.View, cfg.ColorBy, seriesKeys)
		}
		for _, s := range series {
			points := make([]XYPoint, 0, s.View.Len())
			for i := 0; i < s.View.Len(); i++ {
				xv, xok := s.View.Measure(i, x)
				yv, yok := s.View.Measure(i, y)
				if !xok || !yok {
					chart.Skipped++
					continue
				}
				points = append(points, XYPoint{X: xv, Y: yv})
			}
			color := colorOf[s.Key]
			if color == "" {
				color = cfg.Palette[0]
			}
			facet.Series = append(facet.Series, ChartSeries{
				Name:   s.Label,
				Points: points,
				Color:  color,
			})
		}
		chart.Facets = append(chart.Facets, facet)
	}

	chart.Colors = colorList(colorOf, seriesKeys)
	return chart, nil
}

func binLabel(b BinRange) string {
	return fmt.Sprintf("%s–%s", FormatValue(RoundTo2(b.Lower)), FormatValue(RoundTo2(b.Upper)))
}

// seriesColors gives each key the palette color at its position in the
// ColorBy category order, so a category keeps its color whatever else the
// view holds. Keys outside that order take the slots after it, in the order
// given.
func seriesColors(cfg *config, keys []string) map[string]string {
	order := cfg.CategoryOrder[cfg.ColorBy]
	slot := make(map[string]int, len(order)+len(keys))
	for i, k := range order {
		if _, ok := slot[k]; !ok {
			slot[k] = i
		}
	}
	next := len(order)
	colors := make(map[string]string, len(keys))
	for _, k := range keys {
		i, ok := slot[k]
		if !ok {
			i = next
			slot[k] = i
			next++
		}
		colors[k] = cfg.Palette[i%len(cfg.Palette)]
	}
	return colors
}

func colorList(colorOf map[string]string, keys []string) []string {
	colors := make([]string, len(keys))
	for i, k := range keys {
		colors[i] = colorOf[k]
	}
	return colors
}
