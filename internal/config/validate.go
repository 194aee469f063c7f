package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateCompression(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateTarget rejects a target directory that the scratch root would
// overlap. Scratch cleanup must never reach into the media being processed.
func (c *Config) ValidateTarget(dir string) error {
	scratch, err := filepath.Abs(c.Paths.ScratchDir)
	if err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	target, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("target directory: %w", err)
	}
	rel, err := filepath.Rel(scratch, target)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("paths.scratch_dir %q contains the target directory %q; point it elsewhere", scratch, target)
	}
	return nil
}

func (c *Config) validateAI() error {
	if c.AI.DescribeMaxTokens > 4096 {
		return errors.New("ai.describe_max_tokens must be at most 4096")
	}
	return ensurePositiveMap(map[string]int{
		"ai.timeout_seconds":     c.AI.TimeoutSeconds,
		"ai.describe_max_tokens": c.AI.DescribeMaxTokens,
	})
}

func (c *Config) validateCompression() error {
	if err := ensurePositiveMap(map[string]int{
		"compression.retry_attempts":   c.Compression.RetryAttempts,
		"compression.watchdog_minutes": c.Compression.WatchdogMinutes,
	}); err != nil {
		return err
	}
	if c.Compression.RetryDelaySeconds < 0 {
		return errors.New("compression.retry_delay_seconds must be >= 0")
	}
	if c.Compression.KillGraceSeconds < 0 {
		return errors.New("compression.kill_grace_seconds must be >= 0")
	}
	for _, root := range c.Compression.RemovableRoots {
		if !strings.HasPrefix(root, "/") {
			return fmt.Errorf("compression.removable_roots: %q must be absolute", root)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
