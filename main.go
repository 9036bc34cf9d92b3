/*
Dedup finds files with identical content below a directory and optionally deletes the redundant copies.

Usage:

	dedup [flags] [folder]

The flags are:

	-d, --delete old|new   Delete the old copies (keep the newest) or the new copies (keep the oldest). Default old.
	-r, --dry-run          Report what would be deleted without deleting anything.
	-y, --yes              Delete without asking for each file.
	-k, --keep-going       Skip unreadable files instead of aborting.
	    --strict           Exit with a non-zero status if any deletion fails.
	-v, --verbose          Print debug logs.
	    --no-color         Disable colored output.
	-h, --help             Print this help.

Every regular file below folder (default ".") is hashed with SHA-256 and files are grouped by digest. For each group of
two or more files a single survivor is chosen by modification time and the remaining files are listed for deletion. Each
deletion is confirmed interactively unless --yes or --dry-run is given.
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/samiksome92/dedup/internal/cleanup"
	"github.com/samiksome92/dedup/internal/dup"
	"github.com/samiksome92/dedup/internal/scan"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// config holds the parsed command line.
type config struct {
	folder    string
	policy    dup.Policy
	dryRun    bool
	yes       bool
	keepGoing bool
	strict    bool
	verbose   bool
	noColor   bool
}

// parseArgs parses args (without the program name). It returns a nil config when help was requested.
func parseArgs(args []string) (*config, error) {
	var cfg config
	flags := pflag.NewFlagSet("dedup", pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	help := flags.BoolP("help", "h", false, "Print this help.")
	flags.VarP(&cfg.policy, "delete", "d", "Delete the old copies (keep the newest) or the new copies (keep the oldest).")
	flags.BoolVarP(&cfg.dryRun, "dry-run", "r", false, "Do not delete files.")
	flags.BoolVarP(&cfg.yes, "yes", "y", false, "Skip delete confirmation.")
	flags.BoolVarP(&cfg.keepGoing, "keep-going", "k", false, "Skip unreadable files instead of aborting.")
	flags.BoolVar(&cfg.strict, "strict", false, "Exit with a non-zero status if any deletion fails.")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "Print debug logs.")
	flags.BoolVar(&cfg.noColor, "no-color", false, "Disable colored output.")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if *help {
		fmt.Println("Usage: dedup [flags] [folder]")
		flags.PrintDefaults()
		return nil, nil
	}

	switch flags.NArg() {
	case 0:
		cfg.folder = "."
	case 1:
		cfg.folder = flags.Arg(0)
	default:
		return nil, errors.New("at most one folder may be given")
	}

	return &cfg, nil
}

// newLogger builds the stderr logger used by every component.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// hooks replaces the filesystem operations of a run. Nil fields use the defaults.
type hooks struct {
	hash   dup.Hasher
	remove func(path string) error
}

// run executes a whole scan and returns the process exit status.
func run(cfg *config, log *logrus.Logger, h hooks) int {
	if err := scan.CheckRoot(cfg.folder); err != nil {
		log.WithError(err).Error("invalid folder")
		return exitFatal
	}

	failure := dup.FailFast
	var onError scan.ErrorHandler
	if cfg.keepGoing {
		failure = dup.SkipUnreadable
		onError = func(path string, err error) error {
			log.WithError(err).WithField("path", path).Warn("skipping unreadable entry")
			return nil
		}
	}

	log.WithField("folder", cfg.folder).Debug("scanning folder")
	records, err := scan.Walk(cfg.folder, onError)
	if err != nil {
		log.WithError(err).Error("scan aborted")
		return exitFatal
	}

	planner := dup.Planner{Hash: h.hash, Policy: cfg.policy, Failure: failure, Log: log}
	plan, err := planner.Build(records)
	if err != nil {
		log.WithError(err).Error("scan aborted")
		return exitFatal
	}

	executor := cleanup.Executor{Out: os.Stdout, DryRun: cfg.dryRun, Remove: h.remove, Log: log}
	if !cfg.dryRun && !cfg.yes && plan.Candidates() > 0 {
		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			log.Warn("stdin is not a terminal, reading confirmations from it")
		}
		executor.Confirm = cleanup.NewPrompt(os.Stdin, os.Stdout)
	}

	result, err := executor.Execute(&plan)
	if err != nil {
		log.WithError(err).Error("cleanup aborted")
		return exitFatal
	}

	if len(plan.Skipped) > 0 {
		log.WithField("count", len(plan.Skipped)).Warn("some files were skipped")
	}
	if cfg.strict && len(result.Failed) > 0 {
		return exitFatal
	}
	return exitOK
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(exitOK)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	if cfg == nil {
		os.Exit(exitOK)
	}

	if cfg.noColor {
		color.NoColor = true
	}

	os.Exit(run(cfg, newLogger(cfg.verbose), hooks{}))
}
