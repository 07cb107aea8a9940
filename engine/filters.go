package engine

// ============================================================================
// FILTERS — Dimension-Based Membership Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent), so row order is preserved.
// ============================================================================

// Filters define which records to include.
// Keys are dimension names, values are the allowed values.
// OR within a dimension, AND across dimensions.
//
// A listed dimension with no allowed values matches nothing. A dimension
// that is not listed does not constrain the result.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// MatchesNothing reports whether any listed dimension has no allowed values.
func (f Filters) MatchesNothing() bool {
	for _, vals := range f.Dimensions {
		if len(vals) == 0 {
			return true
		}
	}
	return false
}

// ApplyFilters returns a view of records matching all dimension filters.
// No filters returns a SubView covering every row.
func ApplyFilters(view RecordView, filters Filters) *SubView {
	n := view.Len()
	if filters.MatchesNothing() {
		return newSubView(view, []int{})
	}

	// Pre-build lookup sets for each dimension filter
	sets := make(map[string]map[string]bool, len(filters.Dimensions))
	for dim, allowed := range filters.Dimensions {
		sets[dim] = toSet(allowed)
	}

	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[view.Dimension(i, dim)] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
