package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vidtriage/internal/config"
	"vidtriage/internal/deps"
	"vidtriage/internal/logging"
	"vidtriage/internal/services"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
	logErr     error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) verboseEnabled() bool {
	return c.verbose != nil && *c.verbose
}

func (c *commandContext) logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.log, c.logErr = logging.NewFromConfig(cfg, c.verboseEnabled())
	})
	return c.log, c.logErr
}

// forwardFlags returns the persistent flags a child vidtriage process needs
// to resolve the same configuration.
func (c *commandContext) forwardFlags() []string {
	var flags []string
	if path := c.configPath(); path != "" {
		flags = append(flags, "--config", path)
	}
	if c.verboseEnabled() {
		flags = append(flags, "--verbose")
	}
	return flags
}

// targetDirectory expands arg and confirms it names an existing directory.
func targetDirectory(arg string) (string, error) {
	dir, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "cli", "resolve directory", dir, err)
	}
	if !info.IsDir() {
		return "", services.Wrap(services.ErrNotFound, "cli", "resolve directory",
			fmt.Sprintf("%s is not a directory", dir), nil)
	}
	return dir, nil
}

// requireMediaTools fails fast when ffmpeg or ffprobe cannot be found.
func requireMediaTools(cfg *config.Config) error {
	statuses := deps.CheckBinaries(deps.MediaRequirements(cfg.Binaries.FFmpeg, cfg.Binaries.FFprobe))
	if err := deps.MissingRequired(statuses); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "check tools", "", err)
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
