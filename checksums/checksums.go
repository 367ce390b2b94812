package checksums

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/byte4ever/repo_checksums/sums/digest"
	"github.com/byte4ever/repo_checksums/sums/notice"
	"github.com/byte4ever/repo_checksums/sums/pool"
	"github.com/byte4ever/repo_checksums/sums/sidecar"
	"github.com/byte4ever/repo_checksums/sums/walk"
)

// ErrInvalidConfig wraps every configuration rejected by
// Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings for a sidecar generation
// run. It is read-only once Run starts.
type Config struct {
	// Root is the repository folder to walk. It is
	// always validated and traversed on the OS
	// filesystem, whatever Fs is set to.
	Root string

	// Threads is the number of hashing workers.
	Threads int

	// Verbose prints a notice before each digest.
	Verbose bool

	// DryRun performs every decision but skips hashing
	// and writes. It implies Verbose.
	DryRun bool

	// Algorithms restricts the sidecars produced. Empty
	// means all four.
	Algorithms []digest.Algorithm

	// NoticeFormat is the fasttemplate used for verbose
	// lines. Empty means notice.DefaultFormat.
	NoticeFormat string

	// Out receives verbose notices. Nil means stdout.
	Out io.Writer

	// Fs is used for reading sources, checking sidecar
	// existence and writing sidecars. It must expose the
	// walked paths under the same names as the OS. Nil
	// means the OS filesystem.
	Fs afero.Fs
}

// Stats counts what a run did.
type Stats struct {
	// Entries is the number of walked entries.
	Entries int64

	// Targets is the number of files missing at least
	// one sidecar.
	Targets int64

	// Sidecars is the number of sidecars written, or
	// that would be written in dry-run mode.
	Sidecars int64

	// Failed is the number of files abandoned after an
	// I/O error.
	Failed int64

	// Cancelled is the number of queued entries skipped
	// after cancellation.
	Cancelled int64

	// Bytes is the number of source bytes hashed.
	Bytes int64
}

// Validate checks the root folder and thread count.
func (cfg Config) Validate() error {
	if cfg.Root == "" {
		return fmt.Errorf("%w: repo folder is required", ErrInvalidConfig)
	}

	fi, err := os.Stat(cfg.Root)
	if err != nil {
		return fmt.Errorf("%w: repo folder: %w", ErrInvalidConfig, err)
	}

	if !fi.IsDir() {
		return fmt.Errorf(
			"%w: repo folder %s is not a directory",
			ErrInvalidConfig, cfg.Root,
		)
	}

	if cfg.Threads < 1 {
		return fmt.Errorf(
			"%w: thread count must be at least 1, got %d",
			ErrInvalidConfig, cfg.Threads,
		)
	}

	return nil
}

// counters is the concurrent form of Stats.
type counters struct {
	entries   atomic.Int64
	targets   atomic.Int64
	sidecars  atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64
	bytes     atomic.Int64
}

func (co *counters) snapshot() Stats {
	return Stats{
		Entries:   co.entries.Load(),
		Targets:   co.targets.Load(),
		Sidecars:  co.sidecars.Load(),
		Failed:    co.failed.Load(),
		Cancelled: co.cancelled.Load(),
		Bytes:     co.bytes.Load(),
	}
}

// runner carries the immutable per-run collaborators
// shared by every task.
type runner struct {
	fs      afero.Fs
	policy  sidecar.Policy
	notices *notice.Formatter
	verbose bool
	dryRun  bool
	stats   counters
}

// Run walks cfg.Root and generates missing sidecars. It
// returns once every enqueued task has finished. Only
// configuration errors, walk failures and cancellation
// are returned; per-file failures are logged and
// counted in Stats.Failed.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	const errCtx = "generating sidecars"

	if err := cfg.Validate(); err != nil {
		return Stats{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	rn, err := newRunner(cfg)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	po, err := pool.New(cfg.Threads)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	walkErr := walk.Walk(ctx, cfg.Root, func(e walk.Entry) error {
		rn.stats.entries.Add(1)

		return po.Enqueue(func() {
			rn.process(ctx, e)
		})
	})

	po.StopWait()

	stats := rn.stats.snapshot()

	if rn.verbose {
		slog.Info(
			"run complete",
			"entries", stats.Entries,
			"targets", stats.Targets,
			"sidecars", stats.Sidecars,
			"failed", stats.Failed,
			"hashed", humanize.Bytes(uint64(stats.Bytes)), //nolint:gosec // non-negative
			"dry_run", rn.dryRun,
		)
	}

	if walkErr != nil {
		return stats, fmt.Errorf("%s: %w", errCtx, walkErr)
	}

	return stats, nil
}

func newRunner(cfg Config) (*runner, error) {
	const errCtx = "preparing run"

	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	notices, err := notice.New(out, cfg.NoticeFormat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &runner{
		fs: fs,
		policy: sidecar.Policy{
			Fs:         fs,
			Algorithms: cfg.Algorithms,
		},
		notices: notices,
		verbose: cfg.Verbose || cfg.DryRun,
		dryRun:  cfg.DryRun,
	}, nil
}

// process is the task body for one entry. Any failure
// abandons the remaining sidecars of this file only.
func (rn *runner) process(ctx context.Context, e walk.Entry) {
	if ctx.Err() != nil {
		rn.stats.cancelled.Add(1)

		return
	}

	missing, err := rn.policy.Missing(e)
	if err != nil {
		rn.fail(e.Path, "check", err)

		return
	}

	if len(missing) == 0 {
		return
	}

	rn.stats.targets.Add(1)

	if rn.verbose {
		for _, alg := range missing {
			err := rn.notices.Notify(
				alg.String(), e.Path, sidecar.Path(e.Path, alg),
			)
			if err != nil {
				slog.Warn("notice not written", "error", err)
			}
		}
	}

	if rn.dryRun {
		rn.stats.sidecars.Add(int64(len(missing)))

		return
	}

	sums, n, err := rn.hash(e.Path, missing)
	rn.stats.bytes.Add(n)

	if err != nil {
		rn.fail(e.Path, "hash", err)

		return
	}

	for _, alg := range missing {
		pa := sidecar.Path(e.Path, alg)

		if err := sidecar.Write(rn.fs, pa, sums[alg]); err != nil {
			rn.fail(e.Path, "write "+alg.String(), err)

			return
		}

		rn.stats.sidecars.Add(1)
	}
}

// hash opens path and computes every requested digest in
// one pass.
func (rn *runner) hash(
	path string,
	algs []digest.Algorithm,
) (sums digest.Digests, n int64, retErr error) {
	const errCtx = "hashing file"

	fi, err := rn.fs.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	sums, n, err = digest.SumAll(fi, algs...)
	if err != nil {
		return nil, n, fmt.Errorf("%s: %w", errCtx, err)
	}

	return sums, n, nil
}

func (rn *runner) fail(path string, op string, err error) {
	rn.stats.failed.Add(1)

	slog.Error(
		"sidecar generation failed",
		"path", path,
		"op", op,
		"error", err,
	)
}
