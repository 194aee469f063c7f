package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vidtriage/internal/logging"
	"vidtriage/internal/services"
)

// LockFileName is created in every directory a run works on.
const LockFileName = ".vidtriage.lock"

// Outcome classifies a successfully handled file.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
)

// ItemResult is what a Processor reports for one file.
type ItemResult struct {
	Outcome    Outcome
	SavedBytes int64
}

// Processor handles one file.
type Processor func(ctx context.Context, entry Entry) (ItemResult, error)

// Failure records one file that could not be processed.
type Failure struct {
	Path  string
	Stage string
	Err   error
}

// Tally summarizes a batch.
type Tally struct {
	Selected   int
	Processed  int
	Skipped    int
	Failed     int
	SavedBytes int64
	Failures   []Failure
	Elapsed    time.Duration
}

// Options select and bound the files of a batch.
type Options struct {
	Extensions []string
	Limit      int
	// Label names the run in logs ("compress", "analyze").
	Label string
	// Prepare, when set, runs once the directory lock is held and before the
	// first file. An error aborts the run.
	Prepare func(ctx context.Context) error
}

// Driver runs processors over directories.
type Driver struct {
	logger *slog.Logger
}

// NewDriver constructs a Driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{logger: logging.NewComponentLogger(logger, "batch")}
}

// Run scans dir, applies the limit and calls fn for each file in ascending
// size order. Per-file errors are tallied, never returned. Run itself fails
// only when the directory cannot be scanned, is locked by another run, holds
// no matching files (services.ErrNoFiles) or Prepare fails.
func (d *Driver) Run(ctx context.Context, dir string, opts Options, fn Processor) (Tally, error) {
	start := time.Now()
	entries, err := Scan(dir, opts.Extensions)
	if err != nil {
		return Tally{}, err
	}
	entries = Limit(entries, opts.Limit)
	if len(entries) == 0 {
		return Tally{}, services.Wrap(services.ErrNoFiles, "batch", "scan",
			fmt.Sprintf("no %v files in %s", opts.Extensions, dir), nil)
	}

	unlock, err := Lock(dir)
	if err != nil {
		return Tally{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			d.logger.Warn("release run lock failed", logging.Error(err))
		}
	}()

	if opts.Prepare != nil {
		if err := opts.Prepare(ctx); err != nil {
			return Tally{}, err
		}
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.String("mode", opts.Label),
		logging.String("directory", dir),
		logging.Int("files", len(entries)),
		logging.Int("limit", opts.Limit),
	)

	tally := Tally{Selected: len(entries)}
	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		itemLogger := logging.WithContext(services.WithAsset(ctx, entry.Path), d.logger)
		itemLogger.Debug("processing file",
			logging.Int("index", i+1),
			logging.Int("total", len(entries)),
			logging.Int64("size_bytes", entry.Size),
		)
		res, err := fn(ctx, entry)
		if err != nil {
			tally.Failed++
			tally.Failures = append(tally.Failures, Failure{Path: entry.Path, Stage: services.StageOf(err), Err: err})
			logging.ErrorWithContext(itemLogger, "file failed", "asset_failed",
				logging.String(logging.FieldStage, services.StageOf(err)),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.Error(err),
			)
			continue
		}
		switch res.Outcome {
		case OutcomeSkipped:
			tally.Skipped++
		default:
			tally.Processed++
			tally.SavedBytes += res.SavedBytes
		}
	}
	tally.Elapsed = time.Since(start)

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("processed", tally.Processed),
		logging.Int("skipped", tally.Skipped),
		logging.Int("failed", tally.Failed),
		logging.Int64("saved_bytes", tally.SavedBytes),
		logging.Duration("elapsed", tally.Elapsed),
	)
	return tally, ctx.Err()
}

// Lock takes the per-directory run lock without blocking.
func Lock(dir string) (func() error, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "lock", dir, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "lock",
			fmt.Sprintf("another vidtriage run is working in %s", dir), nil)
	}
	return lock.Unlock, nil
}

// IsNoFiles reports whether err is the empty-selection outcome.
func IsNoFiles(err error) bool {
	return errors.Is(err, services.ErrNoFiles)
}
