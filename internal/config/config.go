package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains scratch and summary file locations.
type Paths struct {
	ScratchDir  string `toml:"scratch_dir"`
	SummaryJSON string `toml:"summary_json"`
	SummaryText string `toml:"summary_text"`
}

// AI contains connection settings for the completion and transcription service.
type AI struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	VisionModel        string `toml:"vision_model"`
	TextModel          string `toml:"text_model"`
	TranscriptionModel string `toml:"transcription_model"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	DescribeMaxTokens  int    `toml:"describe_max_tokens"`
}

// Compression contains the retry and watchdog policy for the transcoder.
// The encoding profile itself is fixed and not configurable.
type Compression struct {
	RetryAttempts     int      `toml:"retry_attempts"`
	RetryDelaySeconds int      `toml:"retry_delay_seconds"`
	TransientPatterns []string `toml:"transient_patterns"`
	WatchdogMinutes   int      `toml:"watchdog_minutes"`
	KillGraceSeconds  int      `toml:"kill_grace_seconds"`
	RemovableRoots    []string `toml:"removable_roots"`
}

// Binaries names the external executables.
type Binaries struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vidtriage.
//
// Configuration sections by subsystem:
//   - Paths: scratch directory and summary store locations
//   - AI: credentials and models for description, rating and transcription
//   - Compression: retry policy, watchdog and removable volume roots
//   - Binaries: ffmpeg/ffprobe executables
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	AI          AI          `toml:"ai"`
	Compression Compression `toml:"compression"`
	Binaries    Binaries    `toml:"binaries"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidtriage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.ScratchDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.ScratchDir, err)
	}
	return nil
}

// RequireAPIKey reports a configuration error when no AI credential is available.
// Only commands that call the AI service should invoke it.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.AI.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("ai.api_key is required. Set OPENAI_API_KEY (environment or .env) or edit %s (create with 'vidtriage config init')", defaultPath)
}

// SummaryPaths resolves the JSON and text summary stores for a target directory.
// Absolute configured paths are used as-is.
func (c *Config) SummaryPaths(targetDir string) (string, string) {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(targetDir, p)
	}
	return resolve(c.Paths.SummaryJSON), resolve(c.Paths.SummaryText)
}

// RetryDelay returns the fixed delay between compression attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Compression.RetryDelaySeconds) * time.Second
}

// Watchdog returns the per-invocation transcoder timeout and kill grace window.
func (c *Config) Watchdog() (time.Duration, time.Duration) {
	return time.Duration(c.Compression.WatchdogMinutes) * time.Minute,
		time.Duration(c.Compression.KillGraceSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultScratchDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vidtriage", "scratch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/vidtriage/scratch"
	}
	return filepath.Join(home, ".cache", "vidtriage", "scratch")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
