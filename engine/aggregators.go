package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// AGGREGATORS — Grouping, Measure Statistics, and Binning via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// Missing measure values are skipped, never treated as zero.
// ============================================================================

var (
	// ErrInvalidBins is returned when a bin count is below one.
	ErrInvalidBins = errors.New("bin count must be at least 1")
	// ErrUnknownMeasure is returned when a view has no such measure.
	ErrUnknownMeasure = errors.New("unknown measure")
	// ErrBinRange is returned when a value range cannot be split into
	// finite bins.
	ErrBinRange = errors.New("value range cannot be binned")
)

// ============================================================================
// GROUPING
// ============================================================================

// GroupBy splits a view by a dimension. Groups come back in the order given
// by order, then any remaining values in order of first appearance. Values in
// order that have no rows are omitted.
func GroupBy(view RecordView, dimension string, order []string) []Group {
	grouped := make(map[string][]int)
	seen := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			seen = append(seen, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	keys := orderedKeys(seen, order)
	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		idx, ok := grouped[key]
		if !ok {
			continue
		}
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			Count: len(idx),
			View:  newSubView(view, idx),
		})
	}
	return groups
}

// CategoryKeys returns the values a dimension takes in view, ordered by
// order first and first appearance after.
func CategoryKeys(view RecordView, dimension string, order []string) []string {
	return orderedKeys(UniqueValues(view, dimension), order)
}

func orderedKeys(seen []string, order []string) []string {
	if len(order) == 0 {
		return seen
	}
	present := toSet(seen)
	out := make([]string, 0, len(seen))
	placed := make(map[string]bool, len(order))
	for _, k := range order {
		if present[k] && !placed[k] {
			out = append(out, k)
			placed[k] = true
		}
	}
	for _, k := range seen {
		if !placed[k] {
			out = append(out, k)
		}
	}
	return out
}

// ============================================================================
// MEASURE STATISTICS
// ============================================================================

// HasMeasure reports whether the view exposes a measure key.
func HasMeasure(view RecordView, measure string) bool {
	for _, k := range view.MeasureKeys() {
		if k == measure {
			return true
		}
	}
	return false
}

// MeasureValues returns the non-missing values of a measure, in row order,
// and the number of rows that had no value.
func MeasureValues(view RecordView, measure string) ([]float64, int) {
	values := make([]float64, 0, view.Len())
	missing := 0
	for i := 0; i < view.Len(); i++ {
		v, ok := view.Measure(i, measure)
		if !ok || math.IsNaN(v) {
			missing++
			continue
		}
		values = append(values, v)
	}
	return values, missing
}

// AvgMeasure computes the mean of the non-missing values.
func AvgMeasure(view RecordView, measure string) float64 {
	values, _ := MeasureValues(view, measure)
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// MinMaxMeasure returns the smallest and largest value of a measure.
// ok is false when no row has a value.
func MinMaxMeasure(view RecordView, measure string) (lo, hi float64, ok bool) {
	values, _ := MeasureValues(view, measure)
	if len(values) == 0 {
		return 0, 0, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

// ============================================================================
// BINNING
// ============================================================================

// EqualWidthBins splits [lo, hi] into n bins of equal width.
// A degenerate range (lo == hi) is widened to [lo-0.5, hi+0.5], or by a
// relative margin for large magnitudes. A range whose width overflows
// returns ErrBinRange.
func EqualWidthBins(lo, hi float64, n int) ([]BinRange, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBins, n)
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo == hi {
		pad := math.Max(0.5, math.Abs(lo)*1e-9)
		lo, hi = lo-pad, hi+pad
	}
	width := (hi - lo) / float64(n)
	if !isFinite(hi-lo) || !isFinite(width) || width == 0 {
		return nil, fmt.Errorf("%w: [%g, %g] in %d bins", ErrBinRange, lo, hi, n)
	}
	bins := make([]BinRange, n)
	for i := range bins {
		bins[i] = BinRange{Lower: lo + float64(i)*width, Upper: lo + float64(i+1)*width}
	}
	bins[n-1].Upper = hi
	return bins, nil
}

// BinIndex returns the bin a value falls into. Values outside the range
// return -1. The upper edge of the last bin is inclusive.
func BinIndex(bins []BinRange, v float64) int {
	if len(bins) == 0 {
		return -1
	}
	lo := bins[0].Lower
	hi := bins[len(bins)-1].Upper
	if math.IsNaN(v) || v < lo || v > hi {
		return -1
	}
	width := (hi - lo) / float64(len(bins))
	if !isFinite(width) || width == 0 {
		return -1
	}
	idx := int((v - lo) / width)
	if idx >= len(bins) {
		idx = len(bins) - 1
	}
	// Correct for floating point drift at bin edges.
	for idx > 0 && v < bins[idx].Lower {
		idx--
	}
	for idx < len(bins)-1 && v >= bins[idx].Upper {
		idx++
	}
	return idx
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// CountBins counts the non-missing values of a measure per bin.
func CountBins(view RecordView, measure string, bins []BinRange) []int {
	counts := make([]int, len(bins))
	values, _ := MeasureValues(view, measure)
	for _, v := range values {
		if idx := BinIndex(bins, v); idx >= 0 {
			counts[idx]++
		}
	}
	return counts
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatValue renders a measure without trailing zeros ("39.1", "3750").
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension across a view.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForDimension returns a capitalized label for a column key.
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	spaced := strings.ReplaceAll(dimension, "_", " ")
	return strings.ToUpper(spaced[:1]) + spaced[1:]
}
