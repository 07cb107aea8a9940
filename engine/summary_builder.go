package engine

import "fmt"

// BuildSummary computes count, mean, min and max of a measure across view,
// with a per-group mean breakdown when WithColorBy is set. Groups without
// any value are left out of the breakdown.
func BuildSummary(view RecordView, measure string, opts ...Option) (*MeasureSummary, error) {
	if !HasMeasure(view, measure) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMeasure, measure)
	}
	cfg := applyOptions(opts)

	values, missing := MeasureValues(view, measure)
	out := &MeasureSummary{
		Measure: measure,
		Label:   cfg.Label(measure),
		Rows:    view.Len(),
		Count:   len(values),
		Missing: missing,
	}
	if len(values) > 0 {
		out.Mean = RoundTo2(AvgMeasure(view, measure))
		out.Min, out.Max, _ = MinMaxMeasure(view, measure)
	}

	if cfg.ColorBy != "" {
		// Groups count values, not rows; a group with no values has no mean.
		for _, g := range GroupBy(view, cfg.ColorBy, cfg.CategoryOrder[cfg.ColorBy]) {
			values, _ := MeasureValues(g.View, measure)
			if len(values) == 0 {
				continue
			}
			g.Count = len(values)
			g.Value = RoundTo2(AvgMeasure(g.View, measure))
			out.Groups = append(out.Groups, g)
		}
	}
	return out, nil
}
