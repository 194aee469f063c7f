package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vidtriage/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the vidtriage config file",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var pathFlag string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the annotated sample config",
		Long: `Write the annotated sample config to the default location, or to --path.

An existing file is left untouched unless --overwrite is given.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(pathFlag)
			if err != nil {
				return err
			}
			if !overwrite {
				if err := refuseExisting(target); err != nil {
					return err
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(cmd.OutOrStdout(), "analyze needs an API key: fill in ai.api_key or provide OPENAI_API_KEY via the environment or .env")
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "Write the config here instead of the default location")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace a config file that already exists")
	return cmd
}

// initTarget resolves --path, falling back to the default config location.
func initTarget(pathFlag string) (string, error) {
	if p := strings.TrimSpace(pathFlag); p != "" {
		expanded, err := config.ExpandPath(p)
		if err != nil {
			return "", fmt.Errorf("resolve --path: %w", err)
		}
		return expanded, nil
	}
	p, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("locate default config: %w", err)
	}
	return p, nil
}

func refuseExisting(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%s already exists; pass --overwrite to replace it", path)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("inspect %s: %w", path, err)
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the config, create its directories and show the effective settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}
			writeSettings(cmd.OutOrStdout(), cfg, path, exists)
			return nil
		},
	}
}

func writeSettings(out io.Writer, cfg *config.Config, path string, exists bool) {
	source := path
	if !exists {
		source += " (missing, defaults in use)"
	}
	apiKey := "set"
	if cfg.RequireAPIKey() != nil {
		apiKey = "missing"
	}
	rows := [][]string{
		{"Config", source},
		{"Scratch", cfg.Paths.ScratchDir},
		{"Vision model", cfg.AI.VisionModel},
		{"Text model", cfg.AI.TextModel},
		{"API key", apiKey},
		{"Retries", fmt.Sprintf("%d x %s", cfg.Compression.RetryAttempts, cfg.RetryDelay())},
		{"Log level", cfg.Logging.Level},
	}
	fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	if apiKey == "missing" {
		fmt.Fprintln(out, "AI API key not set; only compress and analyze --comment-only will run")
	}
	fmt.Fprintln(out, "Configuration valid")
}
