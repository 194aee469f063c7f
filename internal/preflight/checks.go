package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"vidtriage/internal/config"
	"vidtriage/internal/services/llm"
)

// CheckLLM verifies that the AI API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	const name = "AI service"
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:    cfg.AI.APIKey,
		BaseURL:   cfg.AI.BaseURL,
		TextModel: cfg.AI.TextModel,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckAPIKey reports whether an AI credential is configured. Compression
// does not need one, so a missing key is reported but only fatal for analysis.
func CheckAPIKey(cfg *config.Config) Result {
	const name = "AI API key"
	if err := cfg.RequireAPIKey(); err != nil {
		return Result{Name: name, Detail: "missing (set OPENAI_API_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckVolume reports whether a removable volume root is mounted and readable.
func CheckVolume(root string) Result {
	name := "Volume " + filepath.Base(root)
	if err := VolumeAccessible(root); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: root + " (mounted)"}
}

// VolumeAccessible returns an error when root is missing or unreadable.
func VolumeAccessible(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%s not accessible: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	if err := unix.Access(root, unix.R_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%s not readable: %w", root, err)
	}
	return nil
}

// RemovableRoot returns the volume root for path when it lives under one of
// the configured mount parents. A "*" segment in a pattern matches any single
// directory; the volume root is the pattern plus one more segment.
func RemovableRoot(path string, patterns []string) (string, bool) {
	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		return "", false
	}
	segments := splitPath(cleaned)
	for _, pattern := range patterns {
		parts := splitPath(filepath.Clean(pattern))
		if len(parts) == 0 || len(segments) <= len(parts) {
			continue
		}
		matched := true
		for i, part := range parts {
			if part != "*" && part != segments[i] {
				matched = false
				break
			}
		}
		if matched {
			return string(filepath.Separator) + filepath.Join(segments[:len(parts)+1]...), true
		}
	}
	return "", false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, string(filepath.Separator))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, string(filepath.Separator))
}

// summarizeLLMError produces a human-readable summary for AI health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (AI API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (AI API unreachable)"
	}
	return err.Error()
}
