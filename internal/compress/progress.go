package compress

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"vidtriage/internal/logging"
	"vidtriage/internal/transcode"
)

// ProgressSink receives the progress samples of one transcoder attempt.
// Percentages are estimates and may step backwards; sinks display them as
// reported.
type ProgressSink interface {
	Update(p transcode.Progress)
	Finish()
}

// ProgressFactory returns a sink for the file being compressed.
type ProgressFactory func(label string) ProgressSink

type discardSink struct{}

func (discardSink) Update(transcode.Progress) {}
func (discardSink) Finish()                   {}

// DiscardProgress drops every sample.
func DiscardProgress(string) ProgressSink { return discardSink{} }

// AutoProgress draws a progress bar when out is a terminal and falls back to
// sampled log lines otherwise.
func AutoProgress(out *os.File, logger *slog.Logger) ProgressFactory {
	if out != nil && (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) {
		return BarProgress(out)
	}
	return LogProgress(logger)
}

// BarProgress renders a 0-100 bar per file.
func BarProgress(w io.Writer) ProgressFactory {
	return func(label string) ProgressSink {
		bar := progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
			progressbar.OptionSetRenderBlankState(true),
		)
		return &barSink{bar: bar, label: label}
	}
}

type barSink struct {
	bar   *progressbar.ProgressBar
	label string
}

func (b *barSink) Update(p transcode.Progress) {
	if p.Percent < 0 {
		b.bar.Describe(b.label + " " + p.OutTime.Truncate(time.Second).String())
		return
	}
	_ = b.bar.Set(int(p.Percent))
}

func (b *barSink) Finish() {
	_ = b.bar.Finish()
}

// LogProgress emits an info line each time progress crosses a 10% bucket.
func LogProgress(logger *slog.Logger) ProgressFactory {
	logger = logging.NewComponentLogger(logger, stageName)
	return func(label string) ProgressSink {
		return &logSink{logger: logger, label: label, sampler: logging.NewProgressSampler(10)}
	}
}

type logSink struct {
	logger  *slog.Logger
	label   string
	sampler *logging.ProgressSampler
}

func (l *logSink) Update(p transcode.Progress) {
	if !l.sampler.ShouldLog(p.Percent) {
		return
	}
	l.logger.Info("compression progress",
		logging.String(logging.FieldEventType, "compress_progress"),
		logging.String(logging.FieldAsset, l.label),
		logging.Float64("progress_percent", p.Percent),
		logging.String("speed", p.Speed),
	)
}

func (l *logSink) Finish() {}
