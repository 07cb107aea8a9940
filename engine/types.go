package engine

// ============================================================================
// ENGINE TYPES — Render-ready output for presentation bindings
// ============================================================================
// Builders turn a RecordView into one of these. They carry no behaviour and
// marshal to JSON unchanged, so any front end can draw them.
// ============================================================================

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
// Histograms fill Bins and per-series Data (one point per bin).
// Scatter plots fill Facets, each holding series of XY points.
type ChartConfig struct {
	ChartType  string        `json:"chartType"` // "histogram", "scatter"
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series,omitempty"`
	Bins       []BinRange    `json:"bins,omitempty"`
	Facets     []Facet       `json:"facets,omitempty"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	Skipped    int           `json:"skipped"` // rows left out for missing values
}

// Total returns the number of rows drawn across all series and facets.
func (c *ChartConfig) Total() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, s := range c.Series {
		for _, p := range s.Data {
			total += int(p.Value)
		}
	}
	for _, f := range c.Facets {
		for _, s := range f.Series {
			total += len(s.Points)
		}
	}
	return total
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name   string       `json:"name"`
	Data   []ChartPoint `json:"data,omitempty"`
	Points []XYPoint    `json:"points,omitempty"`
	Color  string       `json:"color,omitempty"`
}

// ChartPoint represents a single labelled value (one histogram bar).
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// XYPoint is a single scatter mark.
type XYPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BinRange is one histogram bin: [Lower, Upper), the last bin closed.
type BinRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Facet is one panel of a small-multiples chart.
type Facet struct {
	Name   string        `json:"name"`
	Series []ChartSeries `json:"series"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table footer.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// SUMMARY TYPES
// ============================================================================

// MeasureSummary describes one measure across a view.
// Mean/Min/Max are zero when Count is zero.
type MeasureSummary struct {
	Measure string  `json:"measure"`
	Label   string  `json:"label"`
	Rows    int     `json:"rows"`
	Count   int     `json:"count"`   // rows with a value
	Missing int     `json:"missing"` // rows without a value
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Groups  []Group `json:"groups,omitempty"`
}

// Group is a per-category breakdown of a summary.
type Group struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"` // mean of the measure within the group
	Count int     `json:"count"` // rows; values in a summary breakdown

	View RecordView `json:"-"` // rows in this group (zero-copy)
}
