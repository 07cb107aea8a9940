package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/spektr-org/penguins/config"
	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/dataset"
	"github.com/spektr-org/penguins/render"
)

// ============================================================================
// PENGUINS CLI — Palmer penguins explorer
// ============================================================================

const version = "0.3.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args, os.Environ())
	stop()
	os.Exit(code)
}

// globalFlags are accepted before the command name.
type globalFlags struct {
	fs *flag.FlagSet

	workDir    string
	configPath string
	source     string
	file       string
	dsn        string
	table      string
	bucket     string
	key        string
	quiet      bool
	version    bool
}

func newGlobalFlags() *globalFlags {
	g := &globalFlags{fs: flag.NewFlagSet("penguins", flag.ContinueOnError)}
	g.fs.SetInterspersed(false)
	g.fs.SetOutput(io.Discard)
	g.fs.StringVarP(&g.workDir, "cwd", "C", "", "Run as if started in `dir`")
	g.fs.StringVarP(&g.configPath, "config", "c", "", "Use the given config `file`")
	g.fs.StringVar(&g.source, "source", "", "Dataset source: embedded, file, sqlite, postgres, s3")
	g.fs.StringVar(&g.file, "file", "", "CSV `path` for the file source")
	g.fs.StringVar(&g.dsn, "dsn", "", "Database DSN for the sqlite and postgres sources")
	g.fs.StringVar(&g.table, "table", "", "Database table holding the dataset")
	g.fs.StringVar(&g.bucket, "bucket", "", "S3 bucket for the s3 source")
	g.fs.StringVar(&g.key, "key", "", "S3 object key for the s3 source")
	g.fs.BoolVarP(&g.quiet, "quiet", "q", false, "Discard log output")
	g.fs.BoolVar(&g.version, "version", false, "Print version and exit")
	return g
}

// apply overlays flags that were set explicitly.
func (g *globalFlags) apply(cfg config.Config) config.Config {
	set := func(name string, dst *string, v string) {
		if g.fs.Changed(name) {
			*dst = v
		}
	}
	set("source", &cfg.Source, g.source)
	set("file", &cfg.File, g.file)
	set("dsn", &cfg.DSN, g.dsn)
	set("table", &cfg.Table, g.table)
	set("bucket", &cfg.Bucket, g.bucket)
	set("key", &cfg.Key, g.key)
	if g.fs.Changed("file") && !g.fs.Changed("source") {
		cfg.Source = config.SourceFile
	}
	if g.fs.Changed("quiet") {
		cfg.Quiet = config.Bool(g.quiet)
	}
	return cfg
}

func commands(cfg config.Config, sources config.Sources) []*Command {
	return []*Command{
		ShowCmd(cfg),
		ExportCmd(cfg),
		ReplCmd(cfg),
		PrintConfigCmd(cfg, sources),
	}
}

// Run executes the CLI and returns the exit code.
func Run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string, environ []string) int {
	o := &IO{In: in, Out: out, ErrOut: errOut}
	g := newGlobalFlags()

	if err := g.fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(o, g, nil)
			return 0
		}
		o.ErrPrintln("error:", err)
		return 1
	}
	if g.version {
		o.Printf("penguins %s\n", version)
		return 0
	}

	workDir := g.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			o.ErrPrintln("error: cannot get working directory:", err)
			return 1
		}
		workDir = wd
	}

	cfg, sources, err := config.Load(workDir, g.configPath, environ)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	cfg = g.apply(cfg)

	log.SetOutput(errOut)
	if cfg.IsQuiet() {
		log.SetOutput(io.Discard)
	}

	cmds := commands(cfg, sources)
	rest := g.fs.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(o, g, cmds)
		return 0
	}
	for _, c := range cmds {
		if c.Name() == rest[0] {
			return c.Run(ctx, o, rest[1:])
		}
	}
	o.ErrPrintln("error: unknown command:", rest[0])
	printUsage(o, g, cmds)
	return 1
}

func printUsage(o *IO, g *globalFlags, cmds []*Command) {
	o.Println(`penguins - explore the Palmer penguins dataset

Usage:
  penguins [global flags] <command> [flags]`)
	if len(cmds) > 0 {
		o.Println()
		o.Println("Commands:")
		for _, c := range cmds {
			o.Println(c.HelpLine())
		}
	}
	o.Println()
	o.Println("Global flags:")
	var buf strings.Builder
	g.fs.SetOutput(&buf)
	g.fs.PrintDefaults()
	g.fs.SetOutput(io.Discard)
	o.Printf("%s", buf.String())
	o.Println(`
Environment:
  PENGUINS_*    Any config key, e.g. PENGUINS_SOURCE=s3 PENGUINS_SPECIES=Adelie,Gentoo

Examples:
  penguins show histogram --species Adelie,Gentoo --bins 15
  penguins --file penguins.csv export --island Biscoe --out biscoe.csv
  penguins --source sqlite --dsn penguins.db repl`)
}

// ============================================================================
// SESSION SETUP — Shared by every command that draws panels
// ============================================================================

// selectionFlags are the per-command selection and display overrides.
type selectionFlags struct {
	fs           *flag.FlagSet
	species      []string
	islands      []string
	attribute    string
	bins         int
	bodyMassBins int
	maxRows      int
	language     string
}

func addSelectionFlags(fs *flag.FlagSet) *selectionFlags {
	s := &selectionFlags{fs: fs}
	fs.StringSliceVar(&s.species, "species", nil, "Species to include (comma separated; empty for none)")
	fs.StringSliceVar(&s.islands, "island", nil, "Islands to include (comma separated; empty for none)")
	fs.StringVar(&s.attribute, "attribute", "", "Attribute for the histogram: "+attributeList())
	fs.IntVar(&s.bins, "bins", 0, "Bin count of the attribute histogram")
	fs.IntVar(&s.bodyMassBins, "body-mass-bins", 0, fmt.Sprintf("Bin count of the body mass histogram (1-%d)", dashboard.MaxBodyMassBins))
	fs.IntVar(&s.maxRows, "max-rows", 0, "Rows printed per table; negative prints all")
	fs.StringVar(&s.language, "lang", "", "Language tag for number formatting")
	return s
}

func (s *selectionFlags) apply(cfg config.Config) config.Config {
	if s.fs.Changed("species") {
		cfg.Species = nonNil(s.species)
	}
	if s.fs.Changed("island") {
		cfg.Islands = nonNil(s.islands)
	}
	if s.fs.Changed("attribute") {
		cfg.Attribute = s.attribute
	}
	if s.fs.Changed("bins") {
		cfg.HistogramBins = s.bins
	}
	if s.fs.Changed("body-mass-bins") {
		cfg.BodyMassBins = s.bodyMassBins
	}
	if s.fs.Changed("max-rows") {
		cfg.MaxRows = s.maxRows
	}
	if s.fs.Changed("lang") {
		cfg.Language = s.language
	}
	return cfg
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func attributeList() string {
	return strings.Join(attributeNames(), ", ")
}

// app is a loaded dataset with a session and dashboard over it.
type app struct {
	cfg      config.Config
	session  *dashboard.Session
	board    *dashboard.Dashboard
	registry *prometheus.Registry
	text     *render.Text
}

func openApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := cfg.DataSource()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := dashboard.NewMetrics(registry)
	session, err := dashboard.NewSession(ds,
		dashboard.WithSelection(normalizeSelection(cfg.Selection(ds))),
		dashboard.WithParams(cfg.Params()),
		dashboard.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		session:  session,
		board:    dashboard.New(session, dashboard.WithRenderMetrics(metrics)),
		registry: registry,
		text:     newText(cfg, out),
	}, nil
}

func newText(cfg config.Config, out io.Writer) *render.Text {
	return render.NewText(out,
		render.WithPrinter(render.NewPrinter(cfg.Language)),
		render.WithMaxRows(cfg.TableRows()),
	)
}

func (a *app) Close() { a.board.Close() }

// panels returns the named panels, or all of them when names is empty.
func (a *app) panels(names []string) ([]dashboard.Panel, error) {
	if err := a.board.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return a.board.Panels(), nil
	}
	out := make([]dashboard.Panel, 0, len(names))
	for _, name := range names {
		p, err := a.board.Panel(name)
		if err != nil {
			return nil, fmt.Errorf("%w (have %s)", err, strings.Join(a.board.Bindings(), ", "))
		}
		out = append(out, p)
	}
	return out, nil
}

// normalizeSelection maps names to the canonical spelling of known species
// and islands, case-insensitively. Unknown names are kept as typed.
func normalizeSelection(sel dashboard.Selection) dashboard.Selection {
	for i, s := range sel.Species {
		sel.Species[i] = canonical(s, dataset.AllSpecies())
	}
	for i, is := range sel.Islands {
		sel.Islands[i] = canonical(is, dataset.AllIslands())
	}
	return sel
}

func canonical[T ~string](v T, known []T) T {
	for _, k := range known {
		if strings.EqualFold(string(k), strings.TrimSpace(string(v))) {
			return k
		}
	}
	return v
}
