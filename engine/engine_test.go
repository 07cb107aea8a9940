package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST FIXTURES
// ============================================================================

type bird struct {
	species string
	island  string
	mass    float64
	hasMass bool
	bill    float64
}

var birdAdapter = NewDomainAdapter[bird]().
	Dimension("species", func(b bird) string { return b.species }).
	Dimension("island", func(b bird) string { return b.island }).
	Measure("body_mass_g", func(b bird) (float64, bool) { return b.mass, b.hasMass }).
	Measure("bill_length_mm", func(b bird) (float64, bool) { return b.bill, true })

func sampleBirds() []bird {
	return []bird{
		{"Adelie", "Torgersen", 3750, true, 39.1},
		{"Gentoo", "Biscoe", 5700, true, 50.0},
		{"Adelie", "Biscoe", 3400, true, 37.8},
		{"Chinstrap", "Dream", 3500, true, 46.5},
		{"Adelie", "Torgersen", 0, false, 40.3},
		{"Gentoo", "Biscoe", 4500, true, 46.1},
	}
}

func speciesOf(v RecordView) []string {
	out := make([]string, v.Len())
	for i := range out {
		out[i] = v.Dimension(i, "species") + "/" + v.Dimension(i, "island")
	}
	return out
}

// ============================================================================
// FILTER TESTS
// ============================================================================

func TestApplyFiltersScenario(t *testing.T) {
	view := birdAdapter.Bind([]bird{
		{species: "Adelie", island: "Torgersen"},
		{species: "Gentoo", island: "Biscoe"},
		{species: "Adelie", island: "Biscoe"},
	})

	got := ApplyFilters(view, Filters{Dimensions: map[string][]string{
		"species": {"Adelie"},
		"island":  {"Biscoe"},
	}})

	require.Equal(t, 1, got.Len())
	assert.Equal(t, 2, got.SourceIndex(0), "only the third row should survive")
}

func TestApplyFiltersFullSelectionIsIdentity(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	got := ApplyFilters(view, Filters{Dimensions: map[string][]string{
		"species": {"Adelie", "Gentoo", "Chinstrap"},
		"island":  {"Torgersen", "Biscoe", "Dream"},
	}})

	if diff := cmp.Diff(speciesOf(view), speciesOf(got)); diff != "" {
		t.Errorf("full selection should return the dataset (-want +got):\n%s", diff)
	}
}

func TestApplyFiltersEmptySetMatchesNothing(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	cases := map[string]Filters{
		"no species": {Dimensions: map[string][]string{"species": {}, "island": {"Biscoe"}}},
		"no islands": {Dimensions: map[string][]string{"species": {"Adelie"}, "island": nil}},
		"both empty": {Dimensions: map[string][]string{"species": {}, "island": {}}},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			got := ApplyFilters(view, f)
			assert.Equal(t, 0, got.Len())
			assert.Empty(t, BuildTable(got).Rows)
		})
	}
}

func TestApplyFiltersNoConstraintKeepsAll(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	got := ApplyFilters(view, Filters{})
	assert.Equal(t, view.Len(), got.Len())
}

func TestApplyFiltersPreservesOrderAndSubset(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())
	f := Filters{Dimensions: map[string][]string{
		"species": {"Gentoo", "Adelie"},
		"island":  {"Biscoe", "Torgersen"},
	}}

	got := ApplyFilters(view, f)

	want := []int{0, 1, 2, 4, 5}
	if diff := cmp.Diff(want, SourceIndices(got)); diff != "" {
		t.Errorf("source order mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < got.Len(); i++ {
		assert.Contains(t, f.Dimensions["species"], got.Dimension(i, "species"))
		assert.Contains(t, f.Dimensions["island"], got.Dimension(i, "island"))
	}
}

func TestApplyFiltersIsIdempotent(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())
	f := Filters{Dimensions: map[string][]string{"species": {"Adelie"}, "island": {"Torgersen"}}}

	first := SourceIndices(ApplyFilters(view, f))
	second := SourceIndices(ApplyFilters(view, f))
	assert.Equal(t, first, second)
}

func TestSourceIndicesNested(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())
	adelie := ApplyFilters(view, Filters{Dimensions: map[string][]string{"species": {"Adelie"}}})
	torgersen := ApplyFilters(adelie, Filters{Dimensions: map[string][]string{"island": {"Torgersen"}}})

	assert.Equal(t, []int{0, 4}, SourceIndices(torgersen))
	assert.Equal(t, -1, torgersen.SourceIndex(5))
}

// ============================================================================
// AGGREGATION TESTS
// ============================================================================

func TestMeasureStatsSkipMissing(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	values, missing := MeasureValues(view, "body_mass_g")
	assert.Len(t, values, 5)
	assert.Equal(t, 1, missing)

	lo, hi, ok := MinMaxMeasure(view, "body_mass_g")
	require.True(t, ok)
	assert.InDelta(t, 3400, lo, 1e-9)
	assert.InDelta(t, 5700, hi, 1e-9)
	assert.InDelta(t, 4170, AvgMeasure(view, "body_mass_g"), 1e-9)
}

func TestGroupByOrder(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	groups := GroupBy(view, "species", []string{"Chinstrap", "Gentoo", "Penguin"})
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"Chinstrap", "Gentoo", "Adelie"}, keys)
	assert.Equal(t, 3, groups[2].Count)
}

func TestEqualWidthBins(t *testing.T) {
	bins, err := EqualWidthBins(0, 10, 4)
	require.NoError(t, err)
	require.Len(t, bins, 4)
	assert.InDelta(t, 2.5, bins[0].Upper, 1e-9)
	assert.InDelta(t, 10, bins[3].Upper, 1e-9)

	assert.Equal(t, 0, BinIndex(bins, 0))
	assert.Equal(t, 1, BinIndex(bins, 2.5))
	assert.Equal(t, 3, BinIndex(bins, 10), "upper edge of the last bin is inclusive")
	assert.Equal(t, -1, BinIndex(bins, 10.5))

	_, err = EqualWidthBins(0, 1, 0)
	assert.True(t, errors.Is(err, ErrInvalidBins))
}

func TestEqualWidthBinsDegenerateRange(t *testing.T) {
	bins, err := EqualWidthBins(5, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, BinIndex(bins, 5))
}

func TestEqualWidthBinsOverflowingRange(t *testing.T) {
	_, err := EqualWidthBins(-1e308, 1e308, 30)
	assert.ErrorIs(t, err, ErrBinRange)

	bins, err := EqualWidthBins(1e20, 1e20, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, BinIndex(bins, 1e20))

	assert.Equal(t, -1, BinIndex(bins, math.NaN()))
}

// ============================================================================
// BUILDER TESTS
// ============================================================================

func TestBuildHistogramOverflowingRange(t *testing.T) {
	view := birdAdapter.Bind([]bird{
		{"Adelie", "Dream", -1e308, true, 1},
		{"Gentoo", "Biscoe", 1e308, true, 2},
	})

	_, err := BuildHistogram(view, "body_mass_g", 10, WithColorBy("species"))
	assert.ErrorIs(t, err, ErrBinRange)
}

func TestSeriesColorsFollowCategoryOrder(t *testing.T) {
	order := WithCategoryOrder("species", []string{"Adelie", "Gentoo", "Chinstrap"})
	all := birdAdapter.Bind(sampleBirds())
	gentoo := ApplyFilters(all, Filters{Dimensions: map[string][]string{"species": {"Gentoo"}}})

	full, err := BuildHistogram(all, "body_mass_g", 4, WithColorBy("species"), order)
	require.NoError(t, err)
	only, err := BuildHistogram(gentoo, "body_mass_g", 4, WithColorBy("species"), order)
	require.NoError(t, err)

	require.Len(t, full.Series, 3)
	require.Len(t, only.Series, 1)
	assert.Equal(t, full.Series[1].Color, only.Series[0].Color, "Gentoo keeps its color")
	assert.Equal(t, defaultColors[1], only.Series[0].Color)
	assert.Equal(t, []string{defaultColors[1]}, only.Colors)

	scatter, err := BuildScatter(gentoo, "bill_length_mm", "body_mass_g", WithColorBy("species"), order)
	require.NoError(t, err)
	assert.Equal(t, defaultColors[1], scatter.Facets[0].Series[0].Color)

	// Values outside the order come after it.
	penguin := birdAdapter.Bind([]bird{{"Emperor", "Ross", 30000, true, 80}})
	emperor, err := BuildHistogram(penguin, "body_mass_g", 1, WithColorBy("species"), order)
	require.NoError(t, err)
	assert.Equal(t, defaultColors[3], emperor.Series[0].Color)
}

func TestBuildHistogramCountsEveryValue(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	chart, err := BuildHistogram(view, "body_mass_g", 3,
		WithColorBy("species"),
		WithCategoryOrder("species", []string{"Adelie", "Gentoo", "Chinstrap"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "histogram", chart.ChartType)
	assert.Len(t, chart.Bins, 3)
	require.Len(t, chart.Series, 3)
	assert.Equal(t, "Adelie", chart.Series[0].Name)
	assert.Equal(t, 5, chart.Total(), "bin counts should cover every non-missing value")
	assert.Equal(t, 1, chart.Skipped)
	assert.Equal(t, "Body mass g", chart.XAxis)
}

func TestBuildHistogramEmptyView(t *testing.T) {
	view := ApplyFilters(birdAdapter.Bind(sampleBirds()), Filters{Dimensions: map[string][]string{"species": {}}})

	chart, err := BuildHistogram(view, "body_mass_g", 30, WithColorBy("species"))
	require.NoError(t, err)
	assert.Empty(t, chart.Bins)
	assert.Empty(t, chart.Series)
	assert.Equal(t, 0, chart.Total())
}

func TestBuildHistogramErrors(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	_, err := BuildHistogram(view, "body_mass_g", 0)
	assert.ErrorIs(t, err, ErrInvalidBins)

	_, err = BuildHistogram(view, "wingspan", 10)
	assert.ErrorIs(t, err, ErrUnknownMeasure)
}

func TestBuildScatterFacets(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	chart, err := BuildScatter(view, "bill_length_mm", "body_mass_g",
		WithColorBy("species"),
		WithFacetBy("island"),
		WithCategoryOrder("island", []string{"Biscoe", "Dream", "Torgersen"}),
	)
	require.NoError(t, err)

	require.Len(t, chart.Facets, 3)
	assert.Equal(t, "Biscoe", chart.Facets[0].Name)
	assert.Equal(t, 5, chart.Total())
	assert.Equal(t, 1, chart.Skipped)

	// Adelie keeps its color in every facet it appears in.
	colors := map[string]string{}
	for _, f := range chart.Facets {
		for _, s := range f.Series {
			if prev, ok := colors[s.Name]; ok {
				assert.Equal(t, prev, s.Color, "color for %s", s.Name)
			}
			colors[s.Name] = s.Color
		}
	}
}

func TestBuildTable(t *testing.T) {
	view := ApplyFilters(birdAdapter.Bind(sampleBirds()), Filters{Dimensions: map[string][]string{"island": {"Torgersen"}}})

	table := BuildTable(view, WithRowNumbers(), WithTitle("Penguins"))

	want := [][]string{
		{"1", "Adelie", "Torgersen", "3750", "39.1"},
		{"5", "Adelie", "Torgersen", MissingCell, "40.3"},
	}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "#", table.Columns[0].Label)
	assert.Equal(t, "Total (2 rows)", table.Summary.Label)
}

func TestBuildSummary(t *testing.T) {
	view := birdAdapter.Bind(sampleBirds())

	sum, err := BuildSummary(view, "body_mass_g", WithColorBy("species"))
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Rows)
	assert.Equal(t, 5, sum.Count)
	assert.Equal(t, 1, sum.Missing)
	assert.InDelta(t, 4170, sum.Mean, 1e-9)
	require.Len(t, sum.Groups, 3)
	assert.Equal(t, "Adelie", sum.Groups[0].Key)
	assert.InDelta(t, 3575, sum.Groups[0].Value, 1e-9)
	assert.Equal(t, 2, sum.Groups[0].Count, "counts values, not rows")
}

func TestBuildSummarySkipsGroupsWithoutValues(t *testing.T) {
	view := birdAdapter.Bind([]bird{
		{"Adelie", "Dream", 3750, true, 39.1},
		{"Gentoo", "Biscoe", 0, false, 46.1},
	})

	sum, err := BuildSummary(view, "body_mass_g", WithColorBy("species"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
	require.Len(t, sum.Groups, 1)
	assert.Equal(t, "Adelie", sum.Groups[0].Key)
	assert.Equal(t, 1, sum.Groups[0].Count)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "39.1", FormatValue(39.1))
	assert.Equal(t, "3750", FormatValue(3750))
}
