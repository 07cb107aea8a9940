package engine

// ============================================================================
// BUILDER OPTIONS — Functional options for the chart/table builders
// ============================================================================

// Option configures builder behavior via functional options pattern.
type Option func(*config)

type config struct {
	Title         string
	ColorBy       string              // dimension splitting series ("species")
	FacetBy       string              // dimension splitting panels ("island")
	Palette       []string            // series colors, cycled
	Label         func(string) string // column key → display label
	CategoryOrder map[string][]string // fixed value order per dimension
	RowNumbers    bool                // tables: prepend the source row number
}

// WithTitle sets the chart or table title.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
	}
}

// WithColorBy splits chart series by a dimension.
func WithColorBy(dimension string) Option {
	return func(c *config) {
		c.ColorBy = dimension
	}
}

// WithFacetBy splits a scatter chart into one panel per dimension value.
func WithFacetBy(dimension string) Option {
	return func(c *config) {
		c.FacetBy = dimension
	}
}

// WithPalette overrides the series colors.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// WithLabeler sets how column keys become axis labels and headers.
func WithLabeler(fn func(string) string) Option {
	return func(c *config) {
		if fn != nil {
			c.Label = fn
		}
	}
}

// WithCategoryOrder pins the order of a dimension's values in series and
// facets. Values not listed follow in order of first appearance.
func WithCategoryOrder(dimension string, values []string) Option {
	return func(c *config) {
		if c.CategoryOrder == nil {
			c.CategoryOrder = make(map[string][]string)
		}
		c.CategoryOrder[dimension] = values
	}
}

// WithRowNumbers prepends the source row number to table rows.
func WithRowNumbers() Option {
	return func(c *config) {
		c.RowNumbers = true
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Palette: defaultColors,
		Label:   LabelForDimension,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
