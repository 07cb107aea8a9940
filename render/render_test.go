package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/dataset"
)

const birds = `species,island,bill_length_mm,bill_depth_mm,flipper_length_mm,body_mass_g,sex,year
Adelie,Torgersen,39.1,18.7,181,3750,male,2007
Gentoo,Biscoe,NA,NA,NA,NA,NA,2009
Adelie,Biscoe,37.8,18.3,174,3400,female,2007
Gentoo,Biscoe,46.1,13.2,211,4500,female,2007
Chinstrap,Dream,46.5,17.9,192,3500,female,2007
`

func board(t *testing.T) (*dashboard.Session, *dashboard.Dashboard) {
	t.Helper()
	ds, err := dataset.ParseCSV(strings.NewReader(birds))
	require.NoError(t, err)
	s, err := dashboard.NewSession(ds, dashboard.WithSelection(dashboard.FullSelection(ds)))
	require.NoError(t, err)
	d := dashboard.New(s)
	t.Cleanup(d.Close)
	return s, d
}

func panel(t *testing.T, d *dashboard.Dashboard, name string) dashboard.Panel {
	t.Helper()
	p, err := d.Panel(name)
	require.NoError(t, err)
	return p
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "CSV": FormatCSV, " json ": FormatJSON, "text": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, FormatJSON, FormatForPath("out/rows.JSON"))
	assert.Equal(t, FormatCSV, FormatForPath("rows.csv"))
	assert.Equal(t, FormatCSV, FormatForPath("rows"))
}

func TestNumberFormatting(t *testing.T) {
	en := NewPrinter("en")
	assert.Equal(t, "4,207.06", Number(en, 4207.057))
	assert.Equal(t, "3,750", Number(en, 3750))
	assert.Equal(t, "1,234", Count(en, 1234))

	de := NewPrinter("de")
	assert.Equal(t, "1.234", Count(de, 1234))

	assert.Equal(t, "1,234", Count(NewPrinter("not a tag"), 1234))
}

// ============================================================================
// TEXT
// ============================================================================

func TestTextTable(t *testing.T) {
	_, d := board(t)
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf, WithMaxRows(2)).Panel(panel(t, d, "grid")))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Penguins DataGrid", lines[0])
	assert.Equal(t, strings.Repeat("=", len("Penguins DataGrid")), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "#  Species"), lines[2])
	assert.Contains(t, lines[4], "Torgersen")
	assert.Contains(t, lines[5], "NA")
	assert.Equal(t, "… 3 more rows", lines[6])
	assert.Equal(t, "Total (5 rows)", lines[7])
}

func TestTextHistogram(t *testing.T) {
	s, d := board(t)
	require.NoError(t, s.SetBodyMassBins(3))

	var buf bytes.Buffer
	require.NoError(t, NewText(&buf, WithBarWidth(4)).Panel(panel(t, d, "body_mass")))
	out := buf.String()

	assert.Contains(t, out, "x: Body Mass (g)   y: Count")
	assert.Contains(t, out, "█ Adelie  ▓ Gentoo  ▒ Chinstrap")
	assert.Contains(t, out, "3,400–3,766.67 │")
	assert.Contains(t, out, "1 rows skipped (missing values)")
	assert.Equal(t, 3, strings.Count(out, "│"))
}

func TestTextScatter(t *testing.T) {
	_, d := board(t)
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf).Panel(panel(t, d, "scatter")))
	out := buf.String()

	assert.Contains(t, out, "A Adelie  G Gentoo  C Chinstrap")
	for _, island := range []string{"── Biscoe", "── Dream", "── Torgersen"} {
		assert.Contains(t, out, island)
	}
	assert.Contains(t, out, "Adelie 1, Gentoo 1")
	assert.Contains(t, out, "1 rows skipped (missing values)")
}

func TestTextSummary(t *testing.T) {
	_, d := board(t)
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf).Panel(panel(t, d, "summary")))
	out := buf.String()

	assert.Contains(t, out, "Bill Length (mm) Summary")
	assert.Contains(t, out, "rows 5   values 4   missing 1")
	assert.Contains(t, out, "mean 42.38   min 37.8   max 46.5")
	assert.Contains(t, out, "  Adelie     mean 38.45 (n=2)")
	assert.Contains(t, out, "  Gentoo     mean 46.1 (n=1)", "n counts values, not rows")
}

func TestTextEmptySelection(t *testing.T) {
	s, d := board(t)
	s.SetSpecies()

	var buf bytes.Buffer
	require.NoError(t, NewText(&buf).Panels(d.Panels()))
	assert.Equal(t, 6, strings.Count(buf.String(), "(no rows)"))
}

func TestTextRejectsBlankPanel(t *testing.T) {
	err := NewText(&bytes.Buffer{}).Panel(dashboard.Panel{Binding: "blank"})
	assert.Error(t, err)
}

// ============================================================================
// EXPORT
// ============================================================================

func TestExportCSV(t *testing.T) {
	s, _ := board(t)
	s.SetSpecies(dataset.Gentoo)
	records := FilteredRecords(s.Dataset(), s.Filtered())
	require.Len(t, records, 2)

	path := filepath.Join(t.TempDir(), "gentoo.csv")
	require.NoError(t, Export(path, FormatCSV, records))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `species,island,bill_length_mm,bill_depth_mm,flipper_length_mm,body_mass_g,sex,year
Gentoo,Biscoe,NA,NA,NA,NA,NA,2009
Gentoo,Biscoe,46.1,13.2,211,4500,female,2007
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestExportJSON(t *testing.T) {
	s, _ := board(t)
	s.SetIslands(dataset.Biscoe)
	path := filepath.Join(t.TempDir(), "biscoe.json")
	require.NoError(t, Export(path, FormatJSON, FilteredRecords(s.Dataset(), s.Filtered())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "Gentoo", rows[0]["species"])
	assert.Nil(t, rows[0]["body_mass_g"])
	assert.Nil(t, rows[0]["sex"])
	assert.Equal(t, 3400.0, rows[1]["body_mass_g"])
}

func TestExportRejectsText(t *testing.T) {
	err := Export(filepath.Join(t.TempDir(), "x"), FormatText, nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWritePanelCSV(t *testing.T) {
	s, d := board(t)
	require.NoError(t, s.SetBodyMassBins(2))

	var buf bytes.Buffer
	require.NoError(t, WritePanelCSV(&buf, panel(t, d, "body_mass")))
	want := `Body Mass (g),Adelie,Gentoo,Chinstrap
3400-3950,2,0,1
3950-4500,0,1,0
`
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, WritePanelCSV(&buf, panel(t, d, "scatter")))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "facet,series,Bill Length (mm),Body Mass (g)", lines[0])
	assert.Len(t, lines, 5)

	buf.Reset()
	require.NoError(t, WritePanelsJSON(&buf, d.Panels()))
	var panels []dashboard.Panel
	require.NoError(t, json.Unmarshal(buf.Bytes(), &panels))
	assert.Len(t, panels, 6)
}
