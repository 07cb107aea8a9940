package main

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/spektr-org/penguins/config"
	"github.com/spektr-org/penguins/render"
)

var errOutRequired = errors.New("--out is required")

// ExportCmd returns the export command.
func ExportCmd(cfg config.Config) *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	sel := addSelectionFlags(fs)
	format := fs.String("format", "", "Row format: csv, json (default: from the --out extension)")
	outPath := fs.String("out", "", "Destination `file`, or - for stdout")

	return &Command{
		Flags: fs,
		Usage: "export --out <file> [flags]",
		Short: "Write the filtered rows as CSV or JSON",
		Long:  "Write the records matching the selection to a file. The file is replaced atomically.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			if *outPath == "" {
				return errOutRequired
			}
			f := render.FormatForPath(*outPath)
			if *format != "" {
				var err error
				if f, err = render.ParseFormat(*format); err != nil {
					return err
				}
			}
			return execExport(ctx, o, sel.apply(cfg), *outPath, f)
		},
	}
}

func execExport(ctx context.Context, o *IO, cfg config.Config, outPath string, format render.Format) error {
	a, err := openApp(ctx, cfg, o.Out)
	if err != nil {
		return err
	}
	defer a.Close()

	records := render.FilteredRecords(a.session.Dataset(), a.session.Filtered())
	if outPath == "-" {
		return render.WriteRecords(o.Out, format, records)
	}
	return render.Export(outPath, format, records)
}
