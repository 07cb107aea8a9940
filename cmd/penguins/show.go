package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/spektr-org/penguins/config"
	"github.com/spektr-org/penguins/dashboard"
	"github.com/spektr-org/penguins/render"
)

// ShowCmd returns the show command.
func ShowCmd(cfg config.Config) *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	sel := addSelectionFlags(fs)
	format := fs.String("format", "text", "Output format: text, csv, json")
	outPath := fs.String("out", "", "Write output to `file` instead of stdout")

	return &Command{
		Flags: fs,
		Usage: "show [panel...] [flags]",
		Short: "Render dashboard panels",
		Long: `Render dashboard panels for the current selection.

Panels: table, grid, histogram, body_mass, scatter, summary (default: all).
CSV output takes exactly one panel.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			f, err := render.ParseFormat(*format)
			if err != nil {
				return err
			}
			return execShow(ctx, o, sel.apply(cfg), args, f, *outPath)
		},
	}
}

func execShow(ctx context.Context, o *IO, cfg config.Config, names []string, format render.Format, outPath string) error {
	var buf bytes.Buffer
	w := o.Out
	if outPath != "" {
		w = &buf
	}

	a, err := openApp(ctx, cfg, w)
	if err != nil {
		return err
	}
	defer a.Close()

	panels, err := a.panels(names)
	if err != nil {
		return err
	}
	if err := writePanels(w, a.text, format, panels); err != nil {
		return err
	}

	if outPath != "" {
		if err := atomic.WriteFile(outPath, &buf); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		log.Printf("📄 Penguins: %d panels written to %s", len(panels), outPath)
	}
	return nil
}

func writePanels(w io.Writer, text *render.Text, format render.Format, panels []dashboard.Panel) error {
	switch format {
	case render.FormatJSON:
		return render.WritePanelsJSON(w, panels)
	case render.FormatCSV:
		if len(panels) != 1 {
			return fmt.Errorf("csv output takes one panel, got %d", len(panels))
		}
		return render.WritePanelCSV(w, panels[0])
	}
	return text.Panels(panels)
}
