package dashboard

import (
	"errors"
	"fmt"

	"github.com/spektr-org/penguins/dataset"
	"github.com/spektr-org/penguins/engine"
	"github.com/spektr-org/penguins/schema"
)

// ============================================================================
// PRESENTATION BINDINGS — One panel per binding
// ============================================================================
// Each binding reads the filtered view plus its own display parameters and
// produces a render-ready Panel. DependsOn tells the Dashboard which changes
// make the panel stale.
// ============================================================================

// ErrUnknownBinding is returned when a panel name matches no binding.
var ErrUnknownBinding = errors.New("unknown binding")

// Panel kinds.
const (
	KindTable   = "table"
	KindChart   = "chart"
	KindSummary = "summary"
)

// Panel is one rendered dashboard output.
type Panel struct {
	Binding string                 `json:"binding"`
	Title   string                 `json:"title"`
	Kind    string                 `json:"kind"`
	Rows    int                    `json:"rows"` // filtered rows the panel was drawn from
	Table   *engine.TableData      `json:"table,omitempty"`
	Chart   *engine.ChartConfig    `json:"chart,omitempty"`
	Summary *engine.MeasureSummary `json:"summary,omitempty"`
}

// Binding renders one panel from a snapshot.
type Binding interface {
	Name() string
	DependsOn() Change
	Render(Snapshot) (Panel, error)
}

// DefaultBindings returns every built-in binding in page order.
func DefaultBindings() []Binding {
	return []Binding{
		TableBinding{},
		GridBinding{},
		HistogramBinding{},
		BodyMassBinding{},
		ScatterBinding{},
		SummaryBinding{},
	}
}

// builderOptions are shared by every binding: schema labels and stable
// category order so colors do not shift as the selection changes.
func builderOptions(extra ...engine.Option) []engine.Option {
	cfg := schema.Penguins()
	species := make([]string, 0, len(dataset.AllSpecies()))
	for _, s := range dataset.AllSpecies() {
		species = append(species, string(s))
	}
	islands := make([]string, 0, len(dataset.AllIslands()))
	for _, i := range dataset.AllIslands() {
		islands = append(islands, string(i))
	}
	opts := []engine.Option{
		engine.WithLabeler(cfg.Label),
		engine.WithCategoryOrder("species", species),
		engine.WithCategoryOrder("island", islands),
	}
	return append(opts, extra...)
}

// TableBinding lists the filtered records.
type TableBinding struct{}

func (TableBinding) Name() string      { return "table" }
func (TableBinding) DependsOn() Change { return ChangeSelection }

func (b TableBinding) Render(s Snapshot) (Panel, error) {
	table := engine.BuildTable(s.Filtered, builderOptions(engine.WithTitle("Penguins Table"))...)
	return Panel{Binding: b.Name(), Title: table.Title, Kind: KindTable, Rows: s.Filtered.Len(), Table: table}, nil
}

// GridBinding lists the filtered records with their source row numbers, so
// rows can be picked out for multi-row selection.
type GridBinding struct{}

func (GridBinding) Name() string      { return "grid" }
func (GridBinding) DependsOn() Change { return ChangeSelection }

func (b GridBinding) Render(s Snapshot) (Panel, error) {
	table := engine.BuildTable(s.Filtered, builderOptions(engine.WithTitle("Penguins DataGrid"), engine.WithRowNumbers())...)
	return Panel{Binding: b.Name(), Title: table.Title, Kind: KindTable, Rows: s.Filtered.Len(), Table: table}, nil
}

// HistogramBinding draws the selected attribute, colored by species.
type HistogramBinding struct{}

func (HistogramBinding) Name() string { return "histogram" }
func (HistogramBinding) DependsOn() Change {
	return ChangeSelection | ChangeAttribute | ChangeHistogramBins
}

func (b HistogramBinding) Render(s Snapshot) (Panel, error) {
	chart, err := engine.BuildHistogram(s.Filtered, string(s.Params.Attribute), s.Params.HistogramBins,
		builderOptions(engine.WithTitle("Attribute Histogram"), engine.WithColorBy("species"))...)
	if err != nil {
		return Panel{}, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return Panel{Binding: b.Name(), Title: chart.Title, Kind: KindChart, Rows: s.Filtered.Len(), Chart: chart}, nil
}

// BodyMassBinding draws body mass with its own bin count.
type BodyMassBinding struct{}

func (BodyMassBinding) Name() string      { return "body_mass" }
func (BodyMassBinding) DependsOn() Change { return ChangeSelection | ChangeBodyMassBins }

func (b BodyMassBinding) Render(s Snapshot) (Panel, error) {
	chart, err := engine.BuildHistogram(s.Filtered, string(dataset.BodyMass), s.Params.BodyMassBins,
		builderOptions(
			engine.WithTitle("Palmer Penguins"),
			engine.WithColorBy("species"),
			engine.WithPalette(engine.Set3Palette),
		)...)
	if err != nil {
		return Panel{}, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return Panel{Binding: b.Name(), Title: chart.Title, Kind: KindChart, Rows: s.Filtered.Len(), Chart: chart}, nil
}

// ScatterBinding plots bill length against body mass, one facet per island.
type ScatterBinding struct{}

func (ScatterBinding) Name() string      { return "scatter" }
func (ScatterBinding) DependsOn() Change { return ChangeSelection }

func (b ScatterBinding) Render(s Snapshot) (Panel, error) {
	chart, err := engine.BuildScatter(s.Filtered, string(dataset.BillLength), string(dataset.BodyMass),
		builderOptions(
			engine.WithTitle("Penguins Plot"),
			engine.WithColorBy("species"),
			engine.WithFacetBy("island"),
		)...)
	if err != nil {
		return Panel{}, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return Panel{Binding: b.Name(), Title: chart.Title, Kind: KindChart, Rows: s.Filtered.Len(), Chart: chart}, nil
}

// SummaryBinding reports count, mean and range of the selected attribute.
type SummaryBinding struct{}

func (SummaryBinding) Name() string      { return "summary" }
func (SummaryBinding) DependsOn() Change { return ChangeSelection | ChangeAttribute }

func (b SummaryBinding) Render(s Snapshot) (Panel, error) {
	sum, err := engine.BuildSummary(s.Filtered, string(s.Params.Attribute), builderOptions(engine.WithColorBy("species"))...)
	if err != nil {
		return Panel{}, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return Panel{Binding: b.Name(), Title: sum.Label + " Summary", Kind: KindSummary, Rows: s.Filtered.Len(), Summary: sum}, nil
}
