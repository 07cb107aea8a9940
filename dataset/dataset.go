// Package dataset loads the penguin measurements and exposes them read-only.
//
// A Dataset is built once at startup from a Source and never changes. It can
// be shared by any number of sessions; no method hands out a mutable slice.
package dataset

import (
	"errors"
	"iter"
	"strconv"

	"github.com/spektr-org/penguins/engine"
)

var (
	// ErrUnknownAttribute is returned for a column key that is not numeric.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrMissingColumn is returned when a source lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNotFinite is returned for a measurement that parses to ±Inf or NaN.
	ErrNotFinite = errors.New("measurement is not a finite number")
)

// adapter maps Record fields onto engine dimension/measure keys.
var adapter = engine.NewDomainAdapter[Record]().
	Dimension("species", func(r Record) string { return string(r.Species) }).
	Dimension("island", func(r Record) string { return string(r.Island) }).
	Dimension("sex", func(r Record) string { return r.Sex }).
	Dimension("year", func(r Record) string {
		if r.Year == 0 {
			return ""
		}
		return strconv.Itoa(r.Year)
	}).
	Measure(string(BillLength), func(r Record) (float64, bool) { return r.BillLengthMM.Float() }).
	Measure(string(BillDepth), func(r Record) (float64, bool) { return r.BillDepthMM.Float() }).
	Measure(string(FlipperLength), func(r Record) (float64, bool) { return r.FlipperLengthMM.Float() }).
	Measure(string(BodyMass), func(r Record) (float64, bool) { return r.BodyMassG.Float() })

// Dataset is an immutable, ordered collection of records.
type Dataset struct {
	records []Record
	view    engine.RecordView
}

// New copies records into a Dataset.
func New(records []Record) *Dataset {
	owned := make([]Record, len(records))
	copy(owned, records)
	return &Dataset{records: owned, view: adapter.Bind(owned)}
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// At returns a copy of record i.
func (d *Dataset) At(i int) Record { return d.records[i] }

// All iterates over records in dataset order.
func (d *Dataset) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, r := range d.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// View exposes the dataset to the engine. The view reads the dataset's own
// storage; it has no write path.
func (d *Dataset) View() engine.RecordView { return d.view }

// Species returns the distinct species present, in order of first appearance.
func (d *Dataset) Species() []Species {
	var out []Species
	for _, v := range engine.UniqueValues(d.view, "species") {
		out = append(out, Species(v))
	}
	return out
}

// Islands returns the distinct islands present, in order of first appearance.
func (d *Dataset) Islands() []Island {
	var out []Island
	for _, v := range engine.UniqueValues(d.view, "island") {
		out = append(out, Island(v))
	}
	return out
}
