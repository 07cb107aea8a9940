// Package config loads penguins settings from HuJSON files and the
// environment.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/tailscale/hujson"

	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/dataset"
	"github.com/spektr-org/penguins/render"
)

var (
	ErrInvalid  = errors.New("invalid config")
	ErrNotFound = errors.New("config file not found")
)

// Source kinds.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceS3       = "s3"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".penguins.json"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "PENGUINS_"

// Config holds every setting. Zero values and nil pointers mean "not set"
// when merging, so a later layer can switch a flag back off.
type Config struct {
	Source string `json:"source,omitempty" env:"SOURCE"`
	File   string `json:"file,omitempty" env:"FILE"`
	DSN    string `json:"dsn,omitempty" env:"DSN"`
	Table  string `json:"table,omitempty" env:"TABLE"`

	Bucket    string `json:"bucket,omitempty" env:"BUCKET"`
	Key       string `json:"key,omitempty" env:"KEY"`
	Region    string `json:"region,omitempty" env:"REGION"`
	Endpoint  string `json:"endpoint,omitempty" env:"ENDPOINT"`
	PathStyle *bool  `json:"path_style,omitempty" env:"PATH_STYLE"`

	// A nil list keeps the default; an empty list selects nothing.
	Species []string `json:"species" env:"SPECIES"`
	Islands []string `json:"islands" env:"ISLANDS"`

	Attribute     string `json:"attribute,omitempty" env:"ATTRIBUTE"`
	HistogramBins int    `json:"histogram_bins,omitempty" env:"HISTOGRAM_BINS"`
	BodyMassBins  int    `json:"body_mass_bins,omitempty" env:"BODY_MASS_BINS"`

	Language    string `json:"language,omitempty" env:"LANGUAGE"`
	MaxRows     int    `json:"max_rows,omitempty" env:"MAX_ROWS"` // negative prints every row
	HistoryFile string `json:"history_file,omitempty" env:"HISTORY_FILE"`
	Quiet       *bool  `json:"quiet,omitempty" env:"QUIET"`
}

// Bool returns a pointer to v, for the optional switches of Config.
func Bool(v bool) *bool { return &v }

// IsQuiet reports whether log output is discarded.
func (c Config) IsQuiet() bool { return c.Quiet != nil && *c.Quiet }

// UsePathStyle reports whether S3 requests use path-style addressing.
func (c Config) UsePathStyle() bool { return c.PathStyle != nil && *c.PathStyle }

// Sources records which files contributed to a Config.
type Sources struct {
	Global  string
	Project string
}

// Default returns the built-in settings.
func Default() Config {
	p := dashboard.DefaultParams()
	return Config{
		Source:        SourceEmbedded,
		Table:         "penguins",
		Attribute:     string(p.Attribute),
		HistogramBins: p.HistogramBins,
		BodyMassBins:  p.BodyMassBins,
		Language:      render.DefaultLanguage,
		MaxRows:       render.DefaultMaxRows,
	}
}

// Load resolves settings with this precedence, highest last:
//  1. Default()
//  2. $XDG_CONFIG_HOME/penguins/config.json (or ~/.config/penguins/config.json)
//  3. .penguins.json in workDir, or configPath when given (which must exist)
//  4. PENGUINS_* variables in environ
//
// Command-line flags are applied by the caller on top.
func Load(workDir, configPath string, environ []string) (Config, Sources, error) {
	cfg := Default()
	var sources Sources

	if path := globalPath(environ); path != "" {
		file, ok, err := loadFile(path, false)
		if err != nil {
			return Config{}, Sources{}, err
		}
		if ok {
			sources.Global = path
			cfg = Merge(cfg, file)
		}
	}

	path, mustExist := filepath.Join(workDir, FileName), false
	if configPath != "" {
		path, mustExist = configPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
	}
	file, ok, err := loadFile(path, mustExist)
	if err != nil {
		return Config{}, Sources{}, err
	}
	if ok {
		sources.Project = path
		cfg = Merge(cfg, file)
	}

	fromEnv, err := parseEnv(environ)
	if err != nil {
		return Config{}, Sources{}, err
	}
	cfg = Merge(cfg, fromEnv)

	return cfg, sources, nil
}

func globalPath(environ []string) string {
	for _, e := range environ {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok && after != "" {
			return filepath.Join(after, "penguins", "config.json")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "penguins", "config.json")
	}
	return ""
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}
	return cfg, true, nil
}

// Parse decodes HuJSON (JSON with comments and trailing commas).
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func parseEnv(environ []string) (Config, error) {
	vars := make(map[string]string, len(environ))
	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			vars[k] = v
		}
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("%w: environment: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// Merge overlays every set field of overlay onto base.
func Merge(base, overlay Config) Config {
	setString(&base.Source, overlay.Source)
	setString(&base.File, overlay.File)
	setString(&base.DSN, overlay.DSN)
	setString(&base.Table, overlay.Table)
	setString(&base.Bucket, overlay.Bucket)
	setString(&base.Key, overlay.Key)
	setString(&base.Region, overlay.Region)
	setString(&base.Endpoint, overlay.Endpoint)
	setString(&base.Attribute, overlay.Attribute)
	setString(&base.Language, overlay.Language)
	setString(&base.HistoryFile, overlay.HistoryFile)
	setInt(&base.HistogramBins, overlay.HistogramBins)
	setInt(&base.BodyMassBins, overlay.BodyMassBins)
	setInt(&base.MaxRows, overlay.MaxRows)
	if overlay.Species != nil {
		base.Species = overlay.Species
	}
	if overlay.Islands != nil {
		base.Islands = overlay.Islands
	}
	if overlay.PathStyle != nil {
		base.PathStyle = overlay.PathStyle
	}
	if overlay.Quiet != nil {
		base.Quiet = overlay.Quiet
	}
	return base
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate checks the source settings and display parameters.
func (c Config) Validate() error {
	if _, err := c.DataSource(); err != nil {
		return err
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// TableRows is the row limit for printed tables; 0 means no limit.
func (c Config) TableRows() int {
	if c.MaxRows < 0 {
		return 0
	}
	return c.MaxRows
}

// Params returns the display parameters.
func (c Config) Params() dashboard.Params {
	return dashboard.Params{
		Attribute:     dataset.Attribute(c.Attribute),
		HistogramBins: c.HistogramBins,
		BodyMassBins:  c.BodyMassBins,
	}
}

// Selection returns the initial selection for ds. Unset lists fall back to
// the default selection.
func (c Config) Selection(ds *dataset.Dataset) dashboard.Selection {
	sel := dashboard.DefaultSelection(ds)
	if c.Species != nil {
		sel.Species = make([]dataset.Species, 0, len(c.Species))
		for _, s := range c.Species {
			sel.Species = append(sel.Species, dataset.Species(strings.TrimSpace(s)))
		}
	}
	if c.Islands != nil {
		sel.Islands = make([]dataset.Island, 0, len(c.Islands))
		for _, i := range c.Islands {
			sel.Islands = append(sel.Islands, dataset.Island(strings.TrimSpace(i)))
		}
	}
	return sel
}

// DataSource builds the dataset source named by Source. A file path with no
// explicit source selects the file source.
func (c Config) DataSource() (dataset.Source, error) {
	kind := c.Source
	if kind == "" {
		kind = SourceEmbedded
	}
	if kind == SourceEmbedded && c.File != "" {
		kind = SourceFile
	}
	switch kind {
	case SourceEmbedded:
		return dataset.EmbeddedSource{}, nil
	case SourceFile:
		if c.File == "" {
			return nil, fmt.Errorf("%w: source %q needs a file", ErrInvalid, kind)
		}
		return dataset.FileSource{Path: c.File}, nil
	case SourceSQLite, SourcePostgres:
		if c.DSN == "" {
			return nil, fmt.Errorf("%w: source %q needs a dsn", ErrInvalid, kind)
		}
		driver := dataset.DriverSQLite
		if kind == SourcePostgres {
			driver = dataset.DriverPostgres
		}
		return dataset.SQLSource{Driver: driver, DSN: c.DSN, Table: c.Table}, nil
	case SourceS3:
		if c.Bucket == "" || c.Key == "" {
			return nil, fmt.Errorf("%w: source %q needs a bucket and key", ErrInvalid, kind)
		}
		return dataset.S3Source{
			Bucket:    c.Bucket,
			Key:       c.Key,
			Region:    c.Region,
			Endpoint:  c.Endpoint,
			PathStyle: c.UsePathStyle(),
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown source %q (want %s)", ErrInvalid, kind,
		strings.Join([]string{SourceEmbedded, SourceFile, SourceSQLite, SourcePostgres, SourceS3}, ", "))
}

// Format returns the config as indented JSON.
func Format(c Config) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}
	return string(data), nil
}
