package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/spektr-org/penguins/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg config.Config, sources config.Sources) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show the resolved configuration",
		Long:  "Print the configuration after files, environment and flags are applied.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(o, cfg, sources)
		},
	}
}

func execPrintConfig(o *IO, cfg config.Config, sources config.Sources) error {
	out, err := config.Format(cfg)
	if err != nil {
		return err
	}
	if sources.Global != "" {
		o.Printf("// global: %s\n", sources.Global)
	}
	if sources.Project != "" {
		o.Printf("// project: %s\n", sources.Project)
	}
	o.Println(out)
	return nil
}
