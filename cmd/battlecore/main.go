// Battlecore simulates auto-battler fights defined in Lua.
// Usage: battlecore [--version] [--config <file>] [--seed <n>] [--batch [runs]]
//
//	[--plain] [--script <file>] [--trace] [--report <dir>] [content_directory]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/nathoo/battlecore/cli"
	"github.com/nathoo/battlecore/config"
	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/batch"
	"github.com/nathoo/battlecore/engine/report"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/loader"
	"github.com/nathoo/battlecore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: battlecore [--version] [--config <file>] [--seed <n>] [--batch [runs]] [--plain] [--script <file>] [--trace] [--report <dir>] [content_directory]\n"

type flags struct {
	plain      bool
	trace      bool
	batch      bool
	runs       int
	seed       *int64
	configPath string
	scriptFile string
	reportDir  string
	contentDir string
}

func main() {
	f, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n%s", err, usage)
		os.Exit(1)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if f.seed != nil {
		cfg.Seed = *f.seed
	}
	if f.contentDir != "" {
		cfg.Content = f.contentDir
	}
	if f.runs > 0 {
		cfg.Batch.Runs = f.runs
	}

	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	defs, err := loader.Load(cfg.Content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading battle: %v\n", err)
		os.Exit(1)
	}
	opts := cfg.EngineOptions(log)

	if f.batch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := runBatch(ctx, defs, opts, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	eng, err := engine.New(defs, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting battle: %v\n", err)
		os.Exit(1)
	}
	eng.Trace = f.trace

	// Script mode: commands from a file, plain output, echoed input.
	if f.scriptFile != "" {
		in, err := os.Open(f.scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer in.Close()
		c := cli.New(eng)
		c.In = in
		c.EchoInput = true
		c.ReportDir = f.reportDir
		c.Run()
		return
	}

	if f.plain || !isTerminal() {
		c := cli.New(eng)
		c.ReportDir = f.reportDir
		c.Run()
		return
	}

	if err := tui.Run(eng, f.reportDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (flags, error) {
	f := flags{reportDir: ".", configPath: "battlecore.yaml"}
	next := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("battlecore %s (commit %s, built %s)\n", version, commit, date)
			os.Exit(0)
		case "--plain":
			f.plain = true
		case "--trace":
			f.trace = true
		case "--batch":
			f.batch = true
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					if n < 1 {
						return f, fmt.Errorf("--batch needs a positive run count, got %d", n)
					}
					f.runs = n
					i++
				}
			}
		case "--seed":
			v, err := next(&i, "--seed")
			if err != nil {
				return f, err
			}
			s, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, fmt.Errorf("--seed: %w", err)
			}
			f.seed = &s
		case "--config":
			v, err := next(&i, "--config")
			if err != nil {
				return f, err
			}
			f.configPath = v
		case "--script":
			v, err := next(&i, "--script")
			if err != nil {
				return f, err
			}
			f.scriptFile = v
		case "--report":
			v, err := next(&i, "--report")
			if err != nil {
				return f, err
			}
			f.reportDir = v
		default:
			if f.contentDir == "" {
				f.contentDir = args[i]
			}
		}
	}
	return f, nil
}

// runBatch simulates cfg.Batch.Runs battles and prints the summary as JSON.
func runBatch(ctx context.Context, defs *state.Defs, opts engine.Options, cfg config.Config) error {
	results, err := batch.Run(ctx, defs, opts, batch.Config{Runs: cfg.Batch.Runs, Workers: cfg.Batch.Workers})
	if err != nil {
		return err
	}
	data, err := report.Marshal(report.Summarize(results))
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
