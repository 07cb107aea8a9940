package schema

import "strings"

// ============================================================================
// SCHEMA — Describes the shape of the penguin dataset
// ============================================================================
// Sources use the schema to map CSV headers and SQL columns onto records.
// Builders use it for axis labels, table headers and units.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key          string   `json:"key"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description,omitempty"`
	SampleValues []string `json:"sampleValues"`
	Groupable    bool     `json:"groupable"`
	Filterable   bool     `json:"filterable"`
	Required     bool     `json:"required,omitempty"` // Source must provide the column
}

// MeasureMeta describes a numeric field used for charts and summaries.
type MeasureMeta struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"` // "mm", "g"
	Nullable    bool   `json:"nullable,omitempty"`
}

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string, samples []string) DimensionMeta {
	return DimensionMeta{
		Key:          key,
		DisplayName:  displayName,
		SampleValues: samples,
		Groupable:    true,
		Filterable:   true,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName, unit string) MeasureMeta {
	return MeasureMeta{
		Key:         key,
		DisplayName: displayName,
		Unit:        unit,
		Nullable:    true,
	}
}

// Penguins returns the schema of the Palmer penguins dataset.
func Penguins() Config {
	species := DefaultDimension("species", "Species", []string{"Adelie", "Chinstrap", "Gentoo"})
	species.Required = true
	island := DefaultDimension("island", "Island", []string{"Biscoe", "Dream", "Torgersen"})
	island.Required = true
	sex := DefaultDimension("sex", "Sex", []string{"female", "male"})
	sex.Filterable = false
	year := DefaultDimension("year", "Year", []string{"2007", "2008", "2009"})
	year.Filterable = false

	return Config{
		Name:        "Palmer Penguins",
		Version:     "1.0",
		Description: "Morphological measurements of penguins near Palmer Station, Antarctica",
		Dimensions:  []DimensionMeta{species, island, sex, year},
		Measures: []MeasureMeta{
			DefaultMeasure("bill_length_mm", "Bill Length (mm)", "mm"),
			DefaultMeasure("bill_depth_mm", "Bill Depth (mm)", "mm"),
			DefaultMeasure("flipper_length_mm", "Flipper Length (mm)", "mm"),
			DefaultMeasure("body_mass_g", "Body Mass (g)", "g"),
		},
	}
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Measure looks up a measure by key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// RequiredDimensions returns the keys a source must provide.
func (c Config) RequiredDimensions() []string {
	var keys []string
	for _, d := range c.Dimensions {
		if d.Required {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Label returns the display name for any column key.
// Unknown keys fall back to a capitalised key with underscores as spaces.
func (c Config) Label(key string) string {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d.DisplayName
		}
	}
	if m, ok := c.Measure(key); ok {
		return m.DisplayName
	}
	if key == "" {
		return ""
	}
	spaced := strings.ReplaceAll(key, "_", " ")
	return strings.ToUpper(spaced[:1]) + spaced[1:]
}

// ColumnKey normalises a raw header ("Body Mass (g)", "body-mass") to a key.
func ColumnKey(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
