package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/dataset"
	"github.com/spektr-org/penguins/engine"
)

// ============================================================================
// EXPORT — Filtered rows and panels as CSV or JSON
// ============================================================================

// ErrUnknownFormat is returned for an output format that is not supported.
var ErrUnknownFormat = errors.New("unknown format")

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (want text, csv or json)", ErrUnknownFormat, s)
}

// FormatForPath guesses a row export format from a file extension,
// defaulting to CSV.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// FilteredRecords resolves a filtered view back to dataset records.
func FilteredRecords(ds *dataset.Dataset, view engine.RecordView) []dataset.Record {
	idx := engine.SourceIndices(view)
	out := make([]dataset.Record, len(idx))
	for i, src := range idx {
		out[i] = ds.At(src)
	}
	return out
}

// jsonRecord encodes missing measurements as null.
type jsonRecord struct {
	Species         dataset.Species `json:"species"`
	Island          dataset.Island  `json:"island"`
	BillLengthMM    *float64        `json:"bill_length_mm"`
	BillDepthMM     *float64        `json:"bill_depth_mm"`
	FlipperLengthMM *float64        `json:"flipper_length_mm"`
	BodyMassG       *float64        `json:"body_mass_g"`
	Sex             *string         `json:"sex"`
	Year            *int            `json:"year"`
}

func toJSONRecord(r dataset.Record) jsonRecord {
	out := jsonRecord{
		Species:         r.Species,
		Island:          r.Island,
		BillLengthMM:    nullable(r.BillLengthMM),
		BillDepthMM:     nullable(r.BillDepthMM),
		FlipperLengthMM: nullable(r.FlipperLengthMM),
		BodyMassG:       nullable(r.BodyMassG),
	}
	if r.Sex != "" {
		out.Sex = &r.Sex
	}
	if r.Year != 0 {
		out.Year = &r.Year
	}
	return out
}

func nullable(m dataset.Measurement) *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

// WriteRecords encodes records as CSV or a JSON array.
func WriteRecords(w io.Writer, format Format, records []dataset.Record) error {
	switch format {
	case FormatCSV:
		return dataset.WriteCSV(w, records)
	case FormatJSON:
		rows := make([]jsonRecord, len(records))
		for i, r := range records {
			rows[i] = toJSONRecord(r)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return fmt.Errorf("%w: cannot export rows as %q", ErrUnknownFormat, format)
}

// Export writes records to path atomically; a reader never sees a partial file.
func Export(path string, format Format, records []dataset.Record) error {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, format, records); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	log.Printf("📄 Penguins: exported %d rows to %s", len(records), path)
	return nil
}

// ============================================================================
// PANEL OUTPUT
// ============================================================================

// WritePanelsJSON writes panels as an indented JSON array.
func WritePanelsJSON(w io.Writer, panels []dashboard.Panel) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(panels)
}

// WritePanelCSV writes one panel as spreadsheet-ready CSV.
func WritePanelCSV(w io.Writer, p dashboard.Panel) error {
	cw := csv.NewWriter(w)
	switch {
	case p.Table != nil:
		writeTableCSV(cw, p.Table)
	case p.Chart != nil && p.Chart.ChartType == "scatter":
		writeScatterCSV(cw, p.Chart)
	case p.Chart != nil:
		writeHistogramCSV(cw, p.Chart)
	case p.Summary != nil:
		writeSummaryCSV(cw, p.Summary)
	default:
		return fmt.Errorf("panel %q has nothing to write", p.Binding)
	}
	cw.Flush()
	return cw.Error()
}

// csv.Writer keeps the first error; callers check it after Flush.

func writeTableCSV(cw *csv.Writer, table *engine.TableData) {
	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Label
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
}

// Histograms: bin label plus one column per series.
func writeHistogramCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	headers := []string{chart.XAxis}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	cw.Write(headers)
	for i, bin := range chart.Bins {
		row := []string{fmt.Sprintf("%s-%s", engine.FormatValue(bin.Lower), engine.FormatValue(bin.Upper))}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, engine.FormatValue(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		cw.Write(row)
	}
}

func writeScatterCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	cw.Write([]string{"facet", "series", chart.XAxis, chart.YAxis})
	for _, f := range chart.Facets {
		for _, s := range f.Series {
			for _, pt := range s.Points {
				cw.Write([]string{f.Name, s.Name, engine.FormatValue(pt.X), engine.FormatValue(pt.Y)})
			}
		}
	}
}

func writeSummaryCSV(cw *csv.Writer, s *engine.MeasureSummary) {
	cw.Write([]string{"group", "rows", "values", "missing", "mean", "min", "max"})
	if s.Count == 0 {
		cw.Write([]string{"all", engine.FormatValue(float64(s.Rows)), "0", engine.FormatValue(float64(s.Missing)), "", "", ""})
	} else {
		cw.Write([]string{
			"all",
			engine.FormatValue(float64(s.Rows)),
			engine.FormatValue(float64(s.Count)),
			engine.FormatValue(float64(s.Missing)),
			engine.FormatValue(s.Mean),
			engine.FormatValue(s.Min),
			engine.FormatValue(s.Max),
		})
	}
	for _, g := range s.Groups {
		cw.Write([]string{g.Label, engine.FormatValue(float64(g.Count)), "", "", engine.FormatValue(g.Value), "", ""})
	}
}
