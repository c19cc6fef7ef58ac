package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/jmgilman/go/rio"
	"github.com/jmgilman/go/rio/config"
	"github.com/jmgilman/go/rio/errors"
)

// env carries what every command needs.
type env struct {
	table  *rio.Table
	config *config.Config
	stdin  io.Reader
	stdout io.Writer
	json   bool
}

type command struct {
	args  int
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"cat":      {args: 1, usage: "cat URI", run: cat},
	"put":      {args: 1, usage: "put URI", run: put},
	"append":   {args: 1, usage: "append URI", run: appendTo},
	"stat":     {args: 1, usage: "stat URI", run: stat},
	"truncate": {args: 2, usage: "truncate URI SIZE", run: truncate},
	"cp":       {args: 2, usage: "cp SRC DST", run: cp},
	"config":   {args: 0, usage: "config", run: showConfig},
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintln(w, "usage: rio [flags] <command> [args]")
		fmt.Fprintln(w, "\ncommands:")
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s\n", commands[name].usage)
		}
		fmt.Fprintln(w, "\nflags:")
		fs.PrintDefaults()
	}
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)

	configPath := fs.String("config", "", "path to a YAML configuration file")
	logLevel := fs.String("log-level", "", "log level override (debug, info, warn, error)")
	asJSON := fs.Bool("json", false, "print results and errors as JSON")
	metrics := fs.Bool("metrics", false, "print metrics to stderr on exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok || len(rest)-1 != cmd.args {
		fmt.Fprintf(stderr, "rio: unknown command or wrong arguments: %q\n", rest)
		fs.Usage()
		return 2
	}

	report := func(err error) int {
		if *asJSON {
			_ = json.NewEncoder(stderr).Encode(errors.ToJSON(err))
		} else {
			fmt.Fprintf(stderr, "rio: %v\n", err)
		}
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(ctx, *configPath); err != nil {
			return report(err)
		}
	}
	if *logLevel != "" {
		if _, err := config.ParseLevel(*logLevel); err != nil {
			return report(err)
		}
		cfg.Log.Level = *logLevel
	}

	schemes, err := cfg.Registry()
	if err != nil {
		return report(err)
	}

	registry := prometheus.NewRegistry()
	table := rio.NewTable(
		rio.WithSchemes(schemes),
		rio.WithLogger(cfg.Logger(stderr)),
		rio.WithRegisterer(registry),
	)

	e := &env{table: table, config: cfg, stdin: stdin, stdout: stdout, json: *asJSON}
	cmdErr := cmd.run(ctx, e, rest[1:])

	if err := table.Shutdown(ctx); err != nil && cmdErr == nil {
		cmdErr = err
	}
	if *metrics {
		if err := dumpMetrics(registry, stderr); err != nil && cmdErr == nil {
			cmdErr = err
		}
	}
	if cmdErr != nil {
		return report(cmdErr)
	}
	return 0
}

func dumpMetrics(g prometheus.Gatherer, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to write metrics")
		}
	}
	return nil
}
