package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"vidtriage/internal/logging"
	"vidtriage/internal/services"
)

const (
	stageName = "extract"

	// ProbeFraction positions the probe frame relative to the clip duration.
	ProbeFraction = 0.2
	// MaxAdditionalKeyframes bounds how many follow-up frames a clip may request.
	MaxAdditionalKeyframes = 4
)

var commandContext = exec.CommandContext

// Extractor pulls still frames and audio tracks out of source videos with ffmpeg.
type Extractor struct {
	ffmpeg string
	logger *slog.Logger
}

// New constructs an extractor. An empty binary defaults to "ffmpeg".
func New(ffmpegBinary string, logger *slog.Logger) *Extractor {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Extractor{ffmpeg: ffmpegBinary, logger: logging.NewComponentLogger(logger, "extract")}
}

// ProbeTimestamp returns the position of the probe frame for a clip.
func ProbeTimestamp(durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return durationSeconds * ProbeFraction
}

// KeyframeTimestamps returns the positions of the follow-up frames for a clip.
// additional+1 evenly spaced positions are computed starting at zero and the
// first one is dropped because the probe frame already covers the opening.
func KeyframeTimestamps(durationSeconds float64, additional int) []float64 {
	if additional <= 0 || durationSeconds <= 0 {
		return nil
	}
	if additional > MaxAdditionalKeyframes {
		additional = MaxAdditionalKeyframes
	}
	total := additional + 1
	stamps := make([]float64, 0, additional)
	for i := 1; i < total; i++ {
		stamps = append(stamps, durationSeconds*float64(i)/float64(total))
	}
	return stamps
}

// Frame writes a single JPEG frame taken at the given position to dest.
func (e *Extractor) Frame(ctx context.Context, source string, atSeconds float64, dest string) error {
	if atSeconds < 0 {
		atSeconds = 0
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(atSeconds, 'f', 3, 64),
		"-i", source,
		"-frames:v", "1",
		"-q:v", "2",
		dest,
	}
	if err := e.run(ctx, "frame", args); err != nil {
		return err
	}
	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, stageName, "frame",
			fmt.Sprintf("ffmpeg produced no frame at %.3fs", atSeconds), err)
	}
	e.logger.Debug("frame extracted",
		logging.String("source", source),
		logging.Float64("at_seconds", atSeconds),
		logging.String("frame", dest),
	)
	return nil
}

// Keyframes extracts the follow-up frames for a clip into dir and returns
// their paths in timestamp order. Extractions run concurrently; the first
// failure cancels the rest.
func (e *Extractor) Keyframes(ctx context.Context, source string, durationSeconds float64, additional int, dir string) ([]string, error) {
	stamps := KeyframeTimestamps(durationSeconds, additional)
	if len(stamps) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "keyframes", "create frame directory", err)
	}
	paths := make([]string, len(stamps))
	g, gctx := errgroup.WithContext(ctx)
	for i, at := range stamps {
		dest := filepath.Join(dir, fmt.Sprintf("keyframe_%02d.jpg", i+1))
		paths[i] = dest
		g.Go(func() error {
			return e.Frame(gctx, source, at, dest)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Audio extracts the full audio track as a mono 16 kHz MP3 small enough for
// the transcription service upload limit.
func (e *Extractor) Audio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "libmp3lame",
		"-b:a", "64k",
		dest,
	}
	if err := e.run(ctx, "audio", args); err != nil {
		return err
	}
	e.logger.Debug("audio extracted", logging.String("source", source), logging.String("audio", dest))
	return nil
}

func (e *Extractor) run(ctx context.Context, operation string, args []string) error {
	cmd := commandContext(ctx, e.ffmpeg, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, operation,
			"ffmpeg failed: "+strings.TrimSpace(string(output)), err)
	}
	return nil
}
