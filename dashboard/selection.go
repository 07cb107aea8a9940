package dashboard

import (
	"slices"

	"github.com/spektr-org/penguins/dataset"
	"github.com/spektr-org/penguins/engine"
)

// Selection is the user's current filter choices.
// A record passes when its species AND its island are both selected.
type Selection struct {
	Species []dataset.Species
	Islands []dataset.Island
}

// DefaultSelection checks Adelie and every island present in ds.
func DefaultSelection(ds *dataset.Dataset) Selection {
	return Selection{
		Species: []dataset.Species{dataset.Adelie},
		Islands: ds.Islands(),
	}
}

// FullSelection checks every species and island present in ds.
func FullSelection(ds *dataset.Dataset) Selection {
	return Selection{
		Species: ds.Species(),
		Islands: ds.Islands(),
	}
}

// Empty reports whether the selection can match no record.
func (s Selection) Empty() bool {
	return len(s.Species) == 0 || len(s.Islands) == 0
}

// Filters converts the selection to engine filters. Both dimensions are
// always listed, so an empty set filters everything out.
func (s Selection) Filters() engine.Filters {
	species := make([]string, len(s.Species))
	for i, sp := range s.Species {
		species[i] = string(sp)
	}
	islands := make([]string, len(s.Islands))
	for i, is := range s.Islands {
		islands[i] = string(is)
	}
	return engine.Filters{Dimensions: map[string][]string{
		"species": species,
		"island":  islands,
	}}
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	return Selection{
		Species: slices.Clone(s.Species),
		Islands: slices.Clone(s.Islands),
	}
}

// Equal reports whether both selections check the same values, ignoring order
// and duplicates.
func (s Selection) Equal(o Selection) bool {
	return sameSet(s.Species, o.Species) && sameSet(s.Islands, o.Islands)
}

func sameSet[T comparable](a, b []T) bool {
	as := make(map[T]bool, len(a))
	for _, v := range a {
		as[v] = true
	}
	bs := make(map[T]bool, len(b))
	for _, v := range b {
		bs[v] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if !bs[v] {
			return false
		}
	}
	return true
}

// dedupe drops repeated values, keeping first occurrences.
func dedupe[T comparable](in []T) []T {
	seen := make(map[T]bool, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
