package compress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"vidtriage/internal/fileutil"
	"vidtriage/internal/logging"
	"vidtriage/internal/media/ffprobe"
	"vidtriage/internal/preflight"
	"vidtriage/internal/services"
	"vidtriage/internal/transcode"
)

const (
	stageName = "compress"
	// SiblingDir receives outputs in sibling mode.
	SiblingDir = "compressed"

	tempDirPrefix = ".vidtriage-compress-"
	partialPrefix = ".vidtriage-partial-"
)

// Transcoder encodes one file with a fixed profile.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string, durationSeconds float64, progress func(transcode.Progress)) error
	Profile() transcode.Profile
}

// Prober reports container metadata.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Options control one Compress call.
type Options struct {
	Force   bool
	Clobber bool
}

// Outcome classifies how a file left the stage.
type Outcome string

const (
	OutcomeCompressed Outcome = "compressed"
	OutcomeSkipped    Outcome = "skipped"
)

// Job describes one compression. Sizes are in bytes.
type Job struct {
	Input           string
	Output          string
	OriginalBytes   int64
	CompressedBytes int64
	Attempts        int
}

// SavedBytes is negative when the output is larger than the input.
func (j Job) SavedBytes() int64 {
	return j.OriginalBytes - j.CompressedBytes
}

// ReductionPercent is the size reduction relative to the original. It is
// negative when compression inflated the file.
func (j Job) ReductionPercent() float64 {
	if j.OriginalBytes <= 0 {
		return 0
	}
	return float64(j.SavedBytes()) / float64(j.OriginalBytes) * 100
}

// Result is the per-file outcome.
type Result struct {
	Outcome Outcome
	Job     Job
}

// Config holds the retry and placement policy.
type Config struct {
	Attempts       int
	Delay          time.Duration
	RemovableRoots []string
}

// Stage compresses files one at a time.
type Stage struct {
	transcoder Transcoder
	prober     Prober
	cfg        Config
	progress   ProgressFactory
	logger     *slog.Logger

	volumeCheck func(root string) error
}

// New constructs a Stage. A nil progress factory discards progress.
func New(transcoder Transcoder, prober Prober, cfg Config, progress ProgressFactory, logger *slog.Logger) *Stage {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if progress == nil {
		progress = DiscardProgress
	}
	return &Stage{
		transcoder:  transcoder,
		prober:      prober,
		cfg:         cfg,
		progress:    progress,
		logger:      logging.NewComponentLogger(logger, stageName),
		volumeCheck: preflight.VolumeAccessible,
	}
}

// OutputPath returns where input's compressed copy lands for the given mode.
func (s *Stage) OutputPath(input string, clobber bool) string {
	dir := filepath.Dir(input)
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + s.transcoder.Profile().Extension
	if clobber {
		return filepath.Join(dir, name)
	}
	return filepath.Join(dir, SiblingDir, name)
}

// Compress re-encodes input according to opts.
func (s *Stage) Compress(ctx context.Context, input string, opts Options) (Result, error) {
	ctx = services.WithStage(services.WithAsset(ctx, input), stageName)
	logger := logging.WithContext(ctx, s.logger)

	info, err := os.Stat(input)
	if err != nil {
		return Result{}, services.NewAssetError(input, stageName,
			services.Wrap(services.ErrNotFound, stageName, "stat input", "", err))
	}
	job := Job{Input: input, Output: s.OutputPath(input, opts.Clobber), OriginalBytes: info.Size()}

	if err := s.checkTarget(job, opts); err != nil {
		if errors.Is(err, errOutputExists) {
			logger.Info("compressed output exists; skipping",
				logging.String(logging.FieldEventType, "asset_skipped"),
				logging.String("output", job.Output),
			)
			return Result{Outcome: OutcomeSkipped, Job: job}, nil
		}
		return Result{}, services.NewAssetError(input, stageName, err)
	}

	duration := 0.0
	if probe, err := s.prober.Inspect(ctx, input); err != nil {
		logger.Warn("probe failed; progress percentages unavailable",
			logging.String(logging.FieldEventType, "probe_failed"),
			logging.Error(err),
		)
	} else {
		duration = probe.DurationSeconds()
	}

	if opts.Clobber {
		job, err = s.compressClobber(ctx, logger, job, duration)
	} else {
		job, err = s.compressSibling(ctx, logger, job, duration)
	}
	if err != nil {
		return Result{}, services.NewAssetError(input, stageName, err)
	}

	logger.Info("compression complete",
		logging.String(logging.FieldEventType, "asset_compressed"),
		logging.String("output", job.Output),
		logging.Int64("original_bytes", job.OriginalBytes),
		logging.Int64("compressed_bytes", job.CompressedBytes),
		logging.Float64("reduction_percent", job.ReductionPercent()),
		logging.Int("attempts", job.Attempts),
	)
	return Result{Outcome: OutcomeCompressed, Job: job}, nil
}

var errOutputExists = errors.New("output exists")

func (s *Stage) checkTarget(job Job, opts Options) error {
	if job.Output == job.Input {
		return nil
	}
	_, err := os.Lstat(job.Output)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return services.Wrap(services.ErrExternalTool, stageName, "stat output", job.Output, err)
	case opts.Force:
		return nil
	case opts.Clobber:
		return services.Wrap(services.ErrValidation, stageName, "place output",
			fmt.Sprintf("%s already exists; use --force to overwrite", filepath.Base(job.Output)), nil)
	default:
		return errOutputExists
	}
}

// compressSibling encodes to a hidden partial file next to the final output
// and renames it into place only after a successful encode, so an interrupted
// run never leaves a file that a later run would skip as done.
func (s *Stage) compressSibling(ctx context.Context, logger *slog.Logger, job Job, duration float64) (result Job, err error) {
	outDir := filepath.Dir(job.Output)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return job, services.Wrap(services.ErrExternalTool, stageName, "create output dir", outDir, err)
	}
	partial := filepath.Join(outDir, partialPrefix+filepath.Base(job.Output))
	defer func() {
		if err != nil {
			err = multierr.Append(err, removeIfExists(partial))
		}
	}()

	job.Attempts, err = s.transcodeWithRetry(ctx, logger, job.Input, partial, duration)
	if err != nil {
		return job, err
	}
	if job, err = s.measure(job, partial); err != nil {
		return job, err
	}
	if err = os.Rename(partial, job.Output); err != nil {
		return job, services.Wrap(services.ErrExternalTool, stageName, "publish output", job.Output, err)
	}
	return job, nil
}

func (s *Stage) compressClobber(ctx context.Context, logger *slog.Logger, job Job, duration float64) (result Job, err error) {
	tmpDir, err := os.MkdirTemp(filepath.Dir(job.Input), tempDirPrefix)
	if err != nil {
		return job, services.Wrap(services.ErrExternalTool, stageName, "create temp dir", filepath.Dir(job.Input), err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.RemoveAll(tmpDir))
			return
		}
		err = os.Remove(tmpDir)
	}()

	staged := filepath.Join(tmpDir, filepath.Base(job.Output))
	job.Attempts, err = s.transcodeWithRetry(ctx, logger, job.Input, staged, duration)
	if err != nil {
		return job, err
	}
	if job, err = s.measure(job, staged); err != nil {
		return job, err
	}
	if err = fileutil.MoveFile(staged, job.Output); err != nil {
		return job, services.Wrap(services.ErrExternalTool, stageName, "move output", job.Output, err)
	}
	if job.Output != job.Input {
		if err = os.Remove(job.Input); err != nil {
			return job, services.Wrap(services.ErrExternalTool, stageName, "remove original", job.Input, err)
		}
	}
	return job, nil
}

func (s *Stage) measure(job Job, path string) (Job, error) {
	info, err := os.Stat(path)
	if err != nil {
		return job, services.Wrap(services.ErrExternalTool, stageName, "stat output", path, err)
	}
	job.CompressedBytes = info.Size()
	return job, nil
}

// transcodeWithRetry runs the transcoder until it succeeds, fails with a
// non-transient error, or runs out of attempts. It returns the number of
// attempts made.
func (s *Stage) transcodeWithRetry(ctx context.Context, logger *slog.Logger, input, output string, duration float64) (int, error) {
	attempts := 0
	var lastErr error
	backoff := s.backoff(func(wait time.Duration) {
		logging.WarnWithContext(logger, "transient failure; retrying", "retry_wait",
			logging.Int("attempt", attempts),
			logging.Int("max_attempts", s.cfg.Attempts),
			logging.Duration("wait", wait),
			logging.String(logging.FieldErrorHint, services.Hint(lastErr)),
			logging.Error(lastErr),
		)
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := s.checkVolume(input); err != nil {
			return err
		}
		if err := removeIfExists(output); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "remove partial output", output, err)
		}
		sink := s.progress(filepath.Base(input))
		err := s.transcoder.Transcode(ctx, input, output, duration, sink.Update)
		sink.Finish()
		if err == nil {
			return nil
		}
		lastErr = err
		if transcode.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	return attempts, err
}

func (s *Stage) backoff(onWait func(time.Duration)) retry.Backoff {
	var base retry.Backoff
	if s.cfg.Delay > 0 {
		base = retry.NewConstant(s.cfg.Delay)
	} else {
		base = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	base = retry.WithMaxRetries(uint64(s.cfg.Attempts-1), base)
	return retry.BackoffFunc(func() (time.Duration, bool) {
		wait, stop := base.Next()
		if !stop {
			onWait(wait)
		}
		return wait, stop
	})
}

func (s *Stage) checkVolume(input string) error {
	root, ok := preflight.RemovableRoot(input, s.cfg.RemovableRoots)
	if !ok {
		return nil
	}
	if err := s.volumeCheck(root); err != nil {
		return services.Wrap(services.ErrDriveUnavailable, stageName, "check volume", root, err)
	}
	return nil
}

// SweepStale removes staging directories and partial outputs that an
// interrupted run left behind in dir. Call it while holding the directory's
// run lock.
func (s *Stage) SweepStale(dir string) error {
	var errs error
	sweep := func(parent string, match func(fs.DirEntry) bool) {
		entries, err := os.ReadDir(parent)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = multierr.Append(errs, err)
			}
			return
		}
		for _, entry := range entries {
			if !match(entry) {
				continue
			}
			path := filepath.Join(parent, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			s.logger.Info("removed leftover from interrupted run",
				logging.String(logging.FieldEventType, "stale_removed"),
				logging.String("path", path),
			)
		}
	}
	sweep(dir, func(e fs.DirEntry) bool {
		return e.IsDir() && strings.HasPrefix(e.Name(), tempDirPrefix)
	})
	sweep(filepath.Join(dir, SiblingDir), func(e fs.DirEntry) bool {
		return !e.IsDir() && strings.HasPrefix(e.Name(), partialPrefix)
	})
	if errs != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "sweep stale output", dir, errs)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
