// Command repo_checksums walks a repository folder and writes the md5,
// sha1, sha256 and sha512 sidecars that are missing next to each file.
// Files that already have a sidecar are skipped, so re-runs only pick up
// new or previously failed files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/byte4ever/repo_checksums/checksums"
	"github.com/byte4ever/repo_checksums/sums/config"
	"github.com/byte4ever/repo_checksums/sums/digest"
	"github.com/byte4ever/repo_checksums/sums/notice"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// options holds the raw flag values before they are
// layered over the config file.
type options struct {
	repo         string
	threads      int
	verbose      bool
	dryRun       bool
	configPath   string
	algorithms   []string
	noticeFormat string
}

func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
) error {
	const errCtx = "running repo_checksums"

	var opts options

	flagSet := pflag.NewFlagSet("repo_checksums", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)

	flagSet.StringVarP(
		&opts.repo, "repo", "r", "",
		"the folder on disk representing the repository (required)",
	)
	flagSet.IntVarP(
		&opts.threads, "threads", "t", runtime.GOMAXPROCS(0),
		"the number of threads to use when processing files",
	)
	flagSet.BoolVarP(
		&opts.verbose, "verbose", "v", false,
		"print each digest before computing it",
	)
	flagSet.BoolVar(
		&opts.dryRun, "dry-run", false,
		"do not hash anything, only print what would be done; implies --verbose",
	)
	flagSet.StringVar(
		&opts.configPath, "config", "",
		"YAML or JSON file with default settings",
	)
	flagSet.StringSliceVar(
		&opts.algorithms, "algorithms", nil,
		"comma separated subset of md5,sha1,sha256,sha512 (default all)",
	)
	flagSet.StringVar(
		&opts.noticeFormat, "notice-format", notice.DefaultFormat,
		"verbose line template with {alg}, {path} and {sidecar}",
	)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if opts.configPath != "" {
		fi, err := config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		applyFile(flagSet, &opts, fi)
	}

	algs, err := digest.ParseAlgorithms(opts.algorithms)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	cfg := checksums.Config{
		Root:         opts.repo,
		Threads:      opts.threads,
		Verbose:      opts.verbose,
		DryRun:       opts.dryRun,
		Algorithms:   algs,
		NoticeFormat: opts.noticeFormat,
		Out:          stdout,
	}

	if _, err := checksums.Run(ctx, cfg); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// applyFile copies config file values into opts for
// every flag not given explicitly on the command line.
func applyFile(
	flagSet *pflag.FlagSet,
	opts *options,
	fi config.File,
) {
	if !flagSet.Changed("repo") && fi.Repo != "" {
		opts.repo = fi.Repo
	}

	if !flagSet.Changed("threads") && fi.Threads != nil {
		opts.threads = *fi.Threads
	}

	if !flagSet.Changed("verbose") && fi.Verbose != nil {
		opts.verbose = *fi.Verbose
	}

	if !flagSet.Changed("dry-run") && fi.DryRun != nil {
		opts.dryRun = *fi.DryRun
	}

	if !flagSet.Changed("algorithms") && len(fi.Algorithms) > 0 {
		opts.algorithms = fi.Algorithms
	}

	if !flagSet.Changed("notice-format") && fi.NoticeFormat != "" {
		opts.noticeFormat = fi.NoticeFormat
	}
}
