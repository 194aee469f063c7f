package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAI()
	c.normalizeCompression()
	c.normalizeBinaries()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir()
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	c.Paths.SummaryJSON = strings.TrimSpace(c.Paths.SummaryJSON)
	if c.Paths.SummaryJSON == "" {
		c.Paths.SummaryJSON = defaultSummaryJSON
	}
	c.Paths.SummaryText = strings.TrimSpace(c.Paths.SummaryText)
	if c.Paths.SummaryText == "" {
		c.Paths.SummaryText = defaultSummaryText
	}
	// Only home-relative summary paths are expanded; bare names stay relative to
	// the target directory.
	if strings.HasPrefix(c.Paths.SummaryJSON, "~") {
		if c.Paths.SummaryJSON, err = expandPath(c.Paths.SummaryJSON); err != nil {
			return fmt.Errorf("paths.summary_json: %w", err)
		}
	}
	if strings.HasPrefix(c.Paths.SummaryText, "~") {
		if c.Paths.SummaryText, err = expandPath(c.Paths.SummaryText); err != nil {
			return fmt.Errorf("paths.summary_text: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeAI() {
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	if c.AI.APIKey == "" {
		if value, ok := os.LookupEnv(defaultAPIKeyEnv); ok {
			c.AI.APIKey = strings.TrimSpace(value)
		}
	}
	c.AI.BaseURL = strings.TrimSpace(c.AI.BaseURL)
	if c.AI.BaseURL == "" {
		if value, ok := os.LookupEnv(defaultBaseURLEnv); ok && strings.TrimSpace(value) != "" {
			c.AI.BaseURL = strings.TrimSpace(value)
		} else {
			c.AI.BaseURL = defaultAIBaseURL
		}
	}
	c.AI.VisionModel = strings.TrimSpace(c.AI.VisionModel)
	if c.AI.VisionModel == "" {
		c.AI.VisionModel = defaultVisionModel
	}
	c.AI.TextModel = strings.TrimSpace(c.AI.TextModel)
	if c.AI.TextModel == "" {
		c.AI.TextModel = defaultTextModel
	}
	c.AI.TranscriptionModel = strings.TrimSpace(c.AI.TranscriptionModel)
	if c.AI.TranscriptionModel == "" {
		c.AI.TranscriptionModel = defaultTranscriptionModel
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultAITimeoutSeconds
	}
	if c.AI.DescribeMaxTokens <= 0 {
		c.AI.DescribeMaxTokens = defaultDescribeMaxTokens
	}
}

func (c *Config) normalizeCompression() {
	patterns := make([]string, 0, len(c.Compression.TransientPatterns))
	seen := make(map[string]struct{}, len(c.Compression.TransientPatterns))
	for _, pattern := range c.Compression.TransientPatterns {
		normalized := strings.ToLower(strings.TrimSpace(pattern))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		patterns = append(patterns, normalized)
	}
	c.Compression.TransientPatterns = patterns

	roots := make([]string, 0, len(c.Compression.RemovableRoots))
	for _, root := range c.Compression.RemovableRoots {
		if trimmed := strings.TrimSpace(root); trimmed != "" {
			roots = append(roots, trimmed)
		}
	}
	c.Compression.RemovableRoots = roots
}

func (c *Config) normalizeBinaries() {
	c.Binaries.FFmpeg = strings.TrimSpace(c.Binaries.FFmpeg)
	if c.Binaries.FFmpeg == "" {
		c.Binaries.FFmpeg = defaultFFmpegBinary
	}
	c.Binaries.FFprobe = strings.TrimSpace(c.Binaries.FFprobe)
	if c.Binaries.FFprobe == "" {
		c.Binaries.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
