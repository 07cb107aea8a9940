package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spektr-org/penguins/schema"
)

// ============================================================================
// CSV LOADER — Parses penguin CSV data into a Dataset
// ============================================================================
// Headers are matched against the schema after normalising to snake_case.
// Unknown columns are ignored. "NA" or an empty cell is a missing value.
// ============================================================================

// ParseCSV reads a header row plus data rows into a Dataset.
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[schema.ColumnKey(h)] = i
	}
	if err := checkRequired(func(key string) bool { _, ok := index[key]; return ok }); err != nil {
		return nil, err
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := recordFromFields(func(key string) string {
			i, ok := index[key]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return New(records), nil
}

// WriteCSV writes records in the canonical column order.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	cfg := schema.Penguins()

	header := []string{"species", "island"}
	header = append(header, cfg.MeasureKeys()...)
	header = append(header, "sex", "year")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		year := "NA"
		if r.Year != 0 {
			year = strconv.Itoa(r.Year)
		}
		sex := r.Sex
		if sex == "" {
			sex = "NA"
		}
		row := []string{
			string(r.Species), string(r.Island),
			r.BillLengthMM.String(), r.BillDepthMM.String(),
			r.FlipperLengthMM.String(), r.BodyMassG.String(),
			sex, year,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// checkRequired reports the first required schema column a source lacks.
func checkRequired(has func(key string) bool) error {
	for _, key := range schema.Penguins().RequiredDimensions() {
		if !has(key) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, key)
		}
	}
	return nil
}

// recordFromFields builds a Record from raw text cells keyed by column.
func recordFromFields(field func(key string) string) (Record, error) {
	rec := Record{
		Species: Species(strings.TrimSpace(field("species"))),
		Island:  Island(strings.TrimSpace(field("island"))),
	}

	targets := map[Attribute]*Measurement{
		BillLength:    &rec.BillLengthMM,
		BillDepth:     &rec.BillDepthMM,
		FlipperLength: &rec.FlipperLengthMM,
		BodyMass:      &rec.BodyMassG,
	}
	for _, a := range Attributes() {
		m, err := parseMeasurement(field(string(a)))
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", a, err)
		}
		*targets[a] = m
	}

	if sex := strings.TrimSpace(field("sex")); !isMissing(sex) {
		rec.Sex = sex
	}
	if year := strings.TrimSpace(field("year")); !isMissing(year) {
		y, err := strconv.Atoi(year)
		if err != nil {
			return Record{}, fmt.Errorf("year: %w", err)
		}
		rec.Year = y
	}
	return rec, nil
}

func parseMeasurement(raw string) (Measurement, error) {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return Measurement{}, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Measurement{}, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Measurement{}, fmt.Errorf("%w: %q", ErrNotFinite, raw)
	}
	return Measured(v), nil
}

func isMissing(s string) bool {
	return s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "nan")
}
