package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/prometheus/common/expfmt"
	flag "github.com/spf13/pflag"

	"github.com/spektr-org/penguins/config"
	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/dataset"
	"github.com/spektr-org/penguins/render"
)

// ReplCmd returns the repl command.
func ReplCmd(cfg config.Config) *Command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	sel := addSelectionFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "repl [flags]",
		Short: "Explore the dataset interactively",
		Long:  "Start an interactive session. Selection changes redraw the panels that depend on them.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			cfg := sel.apply(cfg)
			a, err := openApp(ctx, cfg, o.Out)
			if err != nil {
				return err
			}
			defer a.Close()
			return newREPL(a, o.Out, historyPath(cfg)).Run(ctx)
		},
	}
}

func historyPath(cfg config.Config) string {
	if cfg.HistoryFile != "" {
		return cfg.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".penguins_history")
}

var errUsage = errors.New("usage")

// REPL is the interactive command loop.
type REPL struct {
	app     *app
	out     io.Writer
	history string
	line    *liner.State
}

func newREPL(a *app, out io.Writer, history string) *REPL {
	r := &REPL{app: a, out: out, history: history}
	a.board.OnRender = r.redrawn
	return r
}

// Run reads commands until quit, EOF or Ctrl-C.
func (r *REPL) Run(ctx context.Context) error {
	r.line = liner.NewLiner()
	defer r.line.Close()

	r.line.SetCtrlCAborts(true)
	r.line.SetCompleter(r.complete)

	if f, err := os.Open(r.history); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(r.out, "penguins %s - %s records loaded\n", version, render.Count(render.NewPrinter(r.app.cfg.Language), r.app.session.Dataset().Len()))
	fmt.Fprintln(r.out, "Type 'help' for available commands.")
	r.printState()

	for ctx.Err() == nil {
		line, err := r.line.Prompt("penguins> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.line.AppendHistory(line)

		quit, err := r.Exec(line)
		if err != nil {
			fmt.Fprintln(r.out, "error:", err)
		}
		if quit {
			fmt.Fprintln(r.out, "Bye!")
			break
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if r.history == "" {
		return
	}
	if f, err := os.Create(r.history); err == nil {
		_, _ = r.line.WriteHistory(f)
		f.Close()
	}
}

// Exec runs one command line.
func (r *REPL) Exec(line string) (quit bool, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]
	s := r.app.session

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		r.printHelp()
	case "species":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "species:", joinNames(s.Selection().Species))
			return false, nil
		}
		s.SetSpecies(parseNames(args, dataset.AllSpecies())...)
	case "islands", "island":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "islands:", joinNames(s.Selection().Islands))
			return false, nil
		}
		s.SetIslands(parseNames(args, dataset.AllIslands())...)
	case "attr", "attribute":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: attr <%s>", errUsage, strings.Join(attributeNames(), "|"))
		}
		a, err := dataset.ParseAttribute(args[0])
		if err != nil {
			return false, err
		}
		return false, s.SetAttribute(a)
	case "bins":
		n, err := intArg(args, "bins <n>")
		if err != nil {
			return false, err
		}
		return false, s.SetHistogramBins(n)
	case "body-mass-bins", "mass-bins":
		n, err := intArg(args, "body-mass-bins <n>")
		if err != nil {
			return false, err
		}
		return false, s.SetBodyMassBins(n)
	case "show":
		panels, err := r.app.panels(args)
		if err != nil {
			return false, err
		}
		return false, r.app.text.Panels(panels)
	case "export":
		return false, r.export(args)
	case "stats":
		return false, r.printStats()
	case "state":
		r.printState()
	default:
		return false, fmt.Errorf("unknown command %q (type 'help' for commands)", cmd)
	}
	return false, nil
}

func (r *REPL) export(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("%w: export <path> [csv|json]", errUsage)
	}
	format := render.FormatForPath(args[0])
	if len(args) == 2 {
		var err error
		if format, err = render.ParseFormat(args[1]); err != nil {
			return err
		}
	}
	records := render.FilteredRecords(r.app.session.Dataset(), r.app.session.Filtered())
	if err := render.Export(args[0], format, records); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "exported %d rows to %s\n", len(records), args[0])
	return nil
}

// redrawn reports which panels a change refreshed.
func (r *REPL) redrawn(panels []dashboard.Panel) {
	names := make([]string, len(panels))
	for i, p := range panels {
		names[i] = p.Binding
	}
	fmt.Fprintf(r.out, "%d rows; redrawn %s\n", r.app.session.Filtered().Len(), strings.Join(names, ", "))
}

func (r *REPL) printState() {
	s := r.app.session
	sel := s.Selection()
	fmt.Fprintln(r.out, "species:  ", joinNames(sel.Species))
	fmt.Fprintln(r.out, "islands:  ", joinNames(sel.Islands))
	fmt.Fprintln(r.out, "attribute:", s.Attribute())
	fmt.Fprintln(r.out, "bins:     ", s.HistogramBins())
	fmt.Fprintln(r.out, "mass bins:", s.BodyMassBins())
	fmt.Fprintf(r.out, "rows:      %d of %d\n", s.Filtered().Len(), s.Dataset().Len())
}

func (r *REPL) printStats() error {
	families, err := r.app.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(r.out, mf); err != nil {
			return err
		}
	}
	return nil
}

func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, `Commands:
  species [name...|all|none]    Show or set the selected species
  islands [name...|all|none]    Show or set the selected islands
  attr <attribute>              Histogram attribute (%s)
  bins <n>                      Attribute histogram bin count
  body-mass-bins <n>            Body mass histogram bin count (1-%d)
  show [panel...]               Render panels (%s)
  export <path> [csv|json]      Write the filtered rows
  stats                         Print session metrics
  state                         Print the current selection
  help                          Show this help
  quit                          Leave
`, strings.Join(attributeNames(), ", "), dashboard.MaxBodyMassBins, strings.Join(r.app.board.Bindings(), ", "))
}

var replCommands = []string{
	"species", "islands", "attr", "bins", "body-mass-bins",
	"show", "export", "stats", "state", "help", "quit",
}

// complete offers commands first, then arguments for the typed command.
func (r *REPL) complete(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(line, " ")) {
		return withPrefix("", replCommands, line)
	}

	var options []string
	switch strings.ToLower(fields[0]) {
	case "species":
		options = append(stringsOf(dataset.AllSpecies()), "all", "none")
	case "islands", "island":
		options = append(stringsOf(dataset.AllIslands()), "all", "none")
	case "attr", "attribute":
		options = attributeNames()
	case "show":
		options = r.app.board.Bindings()
	default:
		return nil
	}

	head, word := line, ""
	if !strings.HasSuffix(line, " ") {
		word = fields[len(fields)-1]
		head = strings.TrimSuffix(line, word)
	}
	return withPrefix(head, options, word)
}

func withPrefix(head string, options []string, word string) []string {
	var out []string
	for _, o := range options {
		if strings.HasPrefix(strings.ToLower(o), strings.ToLower(word)) {
			out = append(out, head+o)
		}
	}
	return out
}

// parseNames reads a list of names, accepting "all", "none" and commas.
func parseNames[T ~string](args []string, known []T) []T {
	var out []T
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			switch name = strings.TrimSpace(name); strings.ToLower(name) {
			case "":
			case "none":
				out = []T{}
			case "all":
				out = append(out, known...)
			default:
				out = append(out, canonical(T(name), known))
			}
		}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

func joinNames[T ~string](names []T) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(stringsOf(names), ", ")
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func attributeNames() []string {
	return stringsOf(dataset.Attributes())
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", errUsage, usage, args[0])
	}
	return n, nil
}
