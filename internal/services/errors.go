package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool     = errors.New("external tool error")
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
	ErrTimeout          = errors.New("timeout")
	ErrTransient        = errors.New("transient failure")
	ErrDriveUnavailable = errors.New("drive not accessible")
	ErrNoFiles          = errors.New("no files found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// AssetError attaches the asset path and failing stage to an error raised while
// processing a single file.
type AssetError struct {
	Path  string
	Stage string
	Err   error
}

func (e *AssetError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Path, e.Stage, e.Err)
}

func (e *AssetError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAssetError returns nil when err is nil so callers can wrap unconditionally.
func NewAssetError(path, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &AssetError{Path: path, Stage: stage, Err: err}
}

// StageOf reports the stage recorded on the first AssetError in the chain.
func StageOf(err error) string {
	var assetErr *AssetError
	if errors.As(err, &assetErr) {
		return assetErr.Stage
	}
	return ""
}

// Hint maps a failure to a short operator-facing next step for log output.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDriveUnavailable):
		return "reconnect the drive and re-run; completed files are skipped"
	case errors.Is(err, ErrConfiguration):
		return "check the vidtriage config file and environment"
	case errors.Is(err, ErrValidation):
		return "the AI response was out of contract; the file was left unmarked, so a plain re-run retries it"
	case errors.Is(err, ErrTimeout):
		return "ffmpeg exceeded the watchdog; raise compression.watchdog_minutes if the file is very long"
	case errors.Is(err, ErrTransient):
		return "transient I/O failure; check the source drive"
	case errors.Is(err, ErrExternalTool):
		return "run 'vidtriage check' to verify ffmpeg, ffprobe and AI access"
	case errors.Is(err, ErrNotFound):
		return "verify the path exists"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
