package dashboard

import (
	"errors"
	"fmt"
	"log"
)

// Dashboard keeps one rendered panel per binding in sync with a Session.
// After each session change only bindings that depend on it are redrawn.
type Dashboard struct {
	session  *Session
	bindings []Binding
	metrics  *Metrics

	panels map[string]Panel
	errs   map[string]error
	cancel func()

	// OnRender is called after each redraw with the panels that changed.
	OnRender func([]Panel)
}

// DashboardOption configures a Dashboard.
type DashboardOption func(*Dashboard)

// WithBindings replaces the default bindings.
func WithBindings(bindings ...Binding) DashboardOption {
	return func(d *Dashboard) {
		d.bindings = bindings
	}
}

// WithRenderMetrics counts renders per binding.
func WithRenderMetrics(m *Metrics) DashboardOption {
	return func(d *Dashboard) {
		d.metrics = m
	}
}

// New renders every binding once and subscribes to the session.
func New(session *Session, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		session:  session,
		bindings: DefaultBindings(),
		panels:   make(map[string]Panel),
		errs:     make(map[string]error),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.redraw(ChangeAll)
	d.cancel = session.Subscribe(d.redraw)
	return d
}

// Session returns the session driving this dashboard.
func (d *Dashboard) Session() *Session { return d.session }

// Close stops following the session.
func (d *Dashboard) Close() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Bindings returns the binding names in page order.
func (d *Dashboard) Bindings() []string {
	names := make([]string, len(d.bindings))
	for i, b := range d.bindings {
		names[i] = b.Name()
	}
	return names
}

// Panels returns the current panels in page order. Bindings whose last
// render failed are left out; see Err.
func (d *Dashboard) Panels() []Panel {
	out := make([]Panel, 0, len(d.bindings))
	for _, b := range d.bindings {
		if p, ok := d.panels[b.Name()]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Panel returns one current panel by binding name.
func (d *Dashboard) Panel(name string) (Panel, error) {
	for _, b := range d.bindings {
		if b.Name() != name {
			continue
		}
		if err := d.errs[name]; err != nil {
			return Panel{}, err
		}
		return d.panels[name], nil
	}
	return Panel{}, fmt.Errorf("%w: %q", ErrUnknownBinding, name)
}

// Err returns the joined errors of the last failed renders, if any.
func (d *Dashboard) Err() error {
	var errs []error
	for _, b := range d.bindings {
		if err := d.errs[b.Name()]; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Refresh redraws every panel.
func (d *Dashboard) Refresh() error {
	d.redraw(ChangeAll)
	return d.Err()
}

func (d *Dashboard) redraw(change Change) {
	snap := d.session.Snapshot()
	var changed []Panel
	for _, b := range d.bindings {
		if !change.Has(b.DependsOn()) {
			continue
		}
		p, err := b.Render(snap)
		d.metrics.rendered(b.Name(), err)
		if err != nil {
			log.Printf("⚠️ Penguins: render %s failed: %v", b.Name(), err)
			d.errs[b.Name()] = err
			delete(d.panels, b.Name())
			continue
		}
		delete(d.errs, b.Name())
		d.panels[b.Name()] = p
		changed = append(changed, p)
	}
	if d.OnRender != nil && len(changed) > 0 {
		d.OnRender(changed)
	}
}
