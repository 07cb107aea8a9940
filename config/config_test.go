package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/dataset"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// isolated returns a work dir and an environment whose global config lives
// in a temp dir.
func isolated(t *testing.T) (string, string, []string) {
	t.Helper()
	work := t.TempDir()
	xdg := t.TempDir()
	return work, xdg, []string{"XDG_CONFIG_HOME=" + xdg}
}

func TestLoadDefaults(t *testing.T) {
	work, _, environ := isolated(t)

	cfg, sources, err := Load(work, "", environ)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, Sources{}, sources)
	require.NoError(t, cfg.Validate())

	src, err := cfg.DataSource()
	require.NoError(t, err)
	assert.Equal(t, dataset.EmbeddedSource{}, src)
}

func TestLoadPrecedence(t *testing.T) {
	work, xdg, environ := isolated(t)

	writeFile(t, filepath.Join(xdg, "penguins", "config.json"), `{
		// global
		"attribute": "flipper_length_mm",
		"histogram_bins": 12,
		"language": "de",
	}`)
	writeFile(t, filepath.Join(work, FileName), `{
		"histogram_bins": 15,
		"species": ["Gentoo"], // trailing comma below is fine
	}`)
	environ = append(environ, "PENGUINS_BODY_MASS_BINS=40", "PENGUINS_ISLANDS=Biscoe,Dream", "UNRELATED=1")

	cfg, sources, err := Load(work, "", environ)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(xdg, "penguins", "config.json"), sources.Global)
	assert.Equal(t, filepath.Join(work, FileName), sources.Project)

	want := Default()
	want.Attribute = "flipper_length_mm"
	want.HistogramBins = 15
	want.BodyMassBins = 40
	want.Language = "de"
	want.Species = []string{"Gentoo"}
	want.Islands = []string{"Biscoe", "Dream"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadExplicitConfig(t *testing.T) {
	work, _, environ := isolated(t)
	writeFile(t, filepath.Join(work, FileName), `{"histogram_bins": 15}`)
	writeFile(t, filepath.Join(work, "alt.json"), `{"histogram_bins": 5}`)

	cfg, sources, err := Load(work, "alt.json", environ)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.HistogramBins)
	assert.Equal(t, filepath.Join(work, "alt.json"), sources.Project)

	_, _, err = Load(work, "missing.json", environ)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadInvalid(t *testing.T) {
	t.Run("bad syntax", func(t *testing.T) {
		work, _, environ := isolated(t)
		writeFile(t, filepath.Join(work, FileName), `{"histogram_bins": }`)
		_, _, err := Load(work, "", environ)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("unknown field", func(t *testing.T) {
		work, _, environ := isolated(t)
		writeFile(t, filepath.Join(work, FileName), `{"colour": "blue"}`)
		_, _, err := Load(work, "", environ)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("bad env number", func(t *testing.T) {
		work, _, environ := isolated(t)
		_, _, err := Load(work, "", append(environ, "PENGUINS_HISTOGRAM_BINS=many"))
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.BodyMassBins = 500
	assert.ErrorIs(t, cfg.Validate(), dashboard.ErrInvalidBins)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Default()
	cfg.Attribute = "wingspan"
	assert.ErrorIs(t, cfg.Validate(), dataset.ErrUnknownAttribute)

	cfg = Default()
	cfg.Source = "ftp"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestDataSource(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want dataset.Source
		err  bool
	}{
		{name: "file implied by path", cfg: Config{File: "p.csv"}, want: dataset.FileSource{Path: "p.csv"}},
		{name: "file without path", cfg: Config{Source: SourceFile}, err: true},
		{name: "sqlite", cfg: Config{Source: SourceSQLite, DSN: "p.db", Table: "birds"},
			want: dataset.SQLSource{Driver: dataset.DriverSQLite, DSN: "p.db", Table: "birds"}},
		{name: "postgres", cfg: Config{Source: SourcePostgres, DSN: "postgres://x"},
			want: dataset.SQLSource{Driver: dataset.DriverPostgres, DSN: "postgres://x"}},
		{name: "postgres without dsn", cfg: Config{Source: SourcePostgres}, err: true},
		{name: "s3", cfg: Config{Source: SourceS3, Bucket: "b", Key: "k.csv", Endpoint: "http://minio:9000", PathStyle: Bool(true)},
			want: dataset.S3Source{Bucket: "b", Key: "k.csv", Endpoint: "http://minio:9000", PathStyle: true}},
		{name: "s3 without key", cfg: Config{Source: SourceS3, Bucket: "b"}, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DataSource()
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelection(t *testing.T) {
	ds := dataset.Sample()

	assert.Equal(t, dashboard.DefaultSelection(ds), Default().Selection(ds))

	cfg := Default()
	cfg.Species = []string{"Gentoo", " Chinstrap"}
	cfg.Islands = []string{}
	sel := cfg.Selection(ds)
	assert.Equal(t, []dataset.Species{dataset.Gentoo, dataset.Chinstrap}, sel.Species)
	assert.Empty(t, sel.Islands)
	assert.True(t, sel.Empty())
}

func TestTableRows(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 20, cfg.TableRows())
	cfg.MaxRows = -1
	assert.Zero(t, cfg.TableRows())
}

func TestFormat(t *testing.T) {
	out, err := Format(Default())
	require.NoError(t, err)
	back, err := Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, Default(), back)
}

func TestLoadSwitchesCanBeTurnedOff(t *testing.T) {
	work, xdg, environ := isolated(t)
	writeFile(t, filepath.Join(xdg, "penguins", "config.json"), `{"quiet": true, "path_style": true}`)
	writeFile(t, filepath.Join(work, FileName), `{"quiet": false}`)

	cfg, _, err := Load(work, "", environ)
	require.NoError(t, err)
	assert.False(t, cfg.IsQuiet(), "project file overrides global")
	assert.True(t, cfg.UsePathStyle())

	cfg, _, err = Load(work, "", append(environ, "PENGUINS_PATH_STYLE=false", "PENGUINS_QUIET=true"))
	require.NoError(t, err)
	assert.True(t, cfg.IsQuiet())
	assert.False(t, cfg.UsePathStyle(), "environment overrides files")
	require.NotNil(t, cfg.PathStyle)
}

func TestFormatKeepsEmptySelection(t *testing.T) {
	cfg := Default()
	cfg.Species = []string{}

	out, err := Format(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"species": []`)

	back, err := Parse([]byte(out))
	require.NoError(t, err)
	require.NotNil(t, back.Species)
	assert.Empty(t, back.Species)
	assert.Nil(t, back.Islands)
	assert.True(t, back.Selection(dataset.Sample()).Empty())
}
