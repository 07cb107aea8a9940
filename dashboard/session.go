// Package dashboard holds the reactive core of the penguin explorer.
//
// A Session owns the selection state and display parameters for one user.
// Filtered returns the records matching the current selection, recomputing
// only after the selection changed. Observers subscribed with Subscribe are
// called synchronously after every settled mutation, so a read made from an
// observer always sees the latest state.
//
// A Session is not safe for concurrent use; events are processed one at a time.
package dashboard

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spektr-org/penguins/dataset"
	"github.com/spektr-org/penguins/engine"
)

const (
	DefaultHistogramBins = 30
	DefaultBodyMassBins  = 20
	MaxBodyMassBins      = 100
)

// ErrInvalidBins is returned for a bin count outside the allowed range.
var ErrInvalidBins = errors.New("invalid bin count")

// Change is a bit set naming what a mutation touched.
type Change uint8

const (
	ChangeSpecies Change = 1 << iota
	ChangeIslands
	ChangeAttribute
	ChangeHistogramBins
	ChangeBodyMassBins

	// ChangeSelection covers everything that invalidates the filtered view.
	ChangeSelection = ChangeSpecies | ChangeIslands
	// ChangeAll is used for a full redraw.
	ChangeAll = ChangeSelection | ChangeAttribute | ChangeHistogramBins | ChangeBodyMassBins
)

// Has reports whether c shares any bit with other.
func (c Change) Has(other Change) bool { return c&other != 0 }

func (c Change) String() string {
	names := []struct {
		bit  Change
		name string
	}{
		{ChangeSpecies, "species"},
		{ChangeIslands, "islands"},
		{ChangeAttribute, "attribute"},
		{ChangeHistogramBins, "histogram_bins"},
		{ChangeBodyMassBins, "body_mass_bins"},
	}
	var parts []string
	for _, n := range names {
		if c.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Params are the display parameters. They never affect filtering.
type Params struct {
	Attribute     dataset.Attribute `json:"attribute"`
	HistogramBins int               `json:"histogramBins"`
	BodyMassBins  int               `json:"bodyMassBins"`
}

// DefaultParams returns the initial display parameters.
func DefaultParams() Params {
	return Params{
		Attribute:     dataset.BillLength,
		HistogramBins: DefaultHistogramBins,
		BodyMassBins:  DefaultBodyMassBins,
	}
}

// Validate checks every parameter.
func (p Params) Validate() error {
	if _, err := dataset.ParseAttribute(string(p.Attribute)); err != nil {
		return err
	}
	if err := validateHistogramBins(p.HistogramBins); err != nil {
		return err
	}
	return validateBodyMassBins(p.BodyMassBins)
}

func validateHistogramBins(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: histogram bins must be at least 1, got %d", ErrInvalidBins, n)
	}
	return nil
}

func validateBodyMassBins(n int) error {
	if n < 1 || n > MaxBodyMassBins {
		return fmt.Errorf("%w: body mass bins must be between 1 and %d, got %d", ErrInvalidBins, MaxBodyMassBins, n)
	}
	return nil
}

// Observer is notified after a mutation settles.
type Observer func(Change)

type subscription struct {
	id int
	fn Observer
}

// Snapshot is everything a binding needs for one redraw.
type Snapshot struct {
	Filtered  engine.RecordView
	Selection Selection
	Params    Params
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSelection overrides the default selection.
func WithSelection(sel Selection) SessionOption {
	return func(s *Session) {
		s.selection = Selection{Species: dedupe(sel.Species), Islands: dedupe(sel.Islands)}
	}
}

// WithParams overrides the default display parameters.
func WithParams(p Params) SessionOption {
	return func(s *Session) {
		s.params = p
	}
}

// WithMetrics records recomputations and cache hits.
func WithMetrics(m *Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// Session is the per-user state of the dashboard.
type Session struct {
	ds        *dataset.Dataset
	selection Selection
	params    Params
	metrics   *Metrics

	filtered *engine.SubView // nil when the selection changed since last read

	subs   []subscription
	nextID int
}

// NewSession starts a session over ds with the default selection and
// parameters, adjusted by opts.
func NewSession(ds *dataset.Dataset, opts ...SessionOption) (*Session, error) {
	s := &Session{
		ds:        ds,
		selection: DefaultSelection(ds),
		params:    DefaultParams(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dataset returns the shared read-only dataset.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Selection returns a copy of the current selection.
func (s *Session) Selection() Selection { return s.selection.Clone() }

// Params returns the current display parameters.
func (s *Session) Params() Params { return s.params }

// Attribute returns the attribute shown by the attribute histogram.
func (s *Session) Attribute() dataset.Attribute { return s.params.Attribute }

// HistogramBins returns the bin count of the attribute histogram.
func (s *Session) HistogramBins() int { return s.params.HistogramBins }

// BodyMassBins returns the bin count of the body mass histogram.
func (s *Session) BodyMassBins() int { return s.params.BodyMassBins }

// SetSpecies replaces the checked species. Names outside the enumeration are
// kept and simply match nothing.
func (s *Session) SetSpecies(species ...dataset.Species) {
	next := Selection{Species: dedupe(species), Islands: s.selection.Islands}
	s.applySelection(next, ChangeSpecies)
}

// SetIslands replaces the checked islands.
func (s *Session) SetIslands(islands ...dataset.Island) {
	next := Selection{Species: s.selection.Species, Islands: dedupe(islands)}
	s.applySelection(next, ChangeIslands)
}

// SetSelection replaces both sets in one event.
func (s *Session) SetSelection(sel Selection) {
	next := Selection{Species: dedupe(sel.Species), Islands: dedupe(sel.Islands)}
	var change Change
	if !sameSet(next.Species, s.selection.Species) {
		change |= ChangeSpecies
	}
	if !sameSet(next.Islands, s.selection.Islands) {
		change |= ChangeIslands
	}
	s.applySelection(next, change)
}

func (s *Session) applySelection(next Selection, change Change) {
	if next.Equal(s.selection) {
		// Order may still differ; keep the caller's order for display.
		s.selection = next
		return
	}
	s.selection = next
	s.filtered = nil
	s.notify(change)
}

// SetAttribute selects the attribute histogram's column.
func (s *Session) SetAttribute(a dataset.Attribute) error {
	if _, err := dataset.ParseAttribute(string(a)); err != nil {
		return err
	}
	if a == s.params.Attribute {
		return nil
	}
	s.params.Attribute = a
	s.notify(ChangeAttribute)
	return nil
}

// SetHistogramBins sets the attribute histogram's bin count (≥ 1).
func (s *Session) SetHistogramBins(n int) error {
	if err := validateHistogramBins(n); err != nil {
		return err
	}
	if n == s.params.HistogramBins {
		return nil
	}
	s.params.HistogramBins = n
	s.notify(ChangeHistogramBins)
	return nil
}

// SetBodyMassBins sets the body mass histogram's bin count (1..100).
func (s *Session) SetBodyMassBins(n int) error {
	if err := validateBodyMassBins(n); err != nil {
		return err
	}
	if n == s.params.BodyMassBins {
		return nil
	}
	s.params.BodyMassBins = n
	s.notify(ChangeBodyMassBins)
	return nil
}

// Filtered returns the records matching the current selection, in dataset
// order. The result is cached until the selection changes.
func (s *Session) Filtered() engine.RecordView {
	if s.filtered != nil {
		s.metrics.cacheHit()
		return s.filtered
	}
	s.filtered = engine.ApplyFilters(s.ds.View(), s.selection.Filters())
	s.metrics.recomputed(s.filtered.Len())
	log.Printf("🔧 Penguins: %d records after filtering (from %d)", s.filtered.Len(), s.ds.Len())
	return s.filtered
}

// Snapshot captures the filtered view and parameters for one redraw.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Filtered:  s.Filtered(),
		Selection: s.Selection(),
		Params:    s.params,
	}
}

// Subscribe registers an observer. The returned function unsubscribes it;
// calling it more than once is harmless.
func (s *Session) Subscribe(fn Observer) (cancel func()) {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) notify(change Change) {
	// Observers may unsubscribe while being notified.
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		if s.subscribed(sub.id) {
			sub.fn(change)
		}
	}
}

func (s *Session) subscribed(id int) bool {
	for _, sub := range s.subs {
		if sub.id == id {
			return true
		}
	}
	return false
}
