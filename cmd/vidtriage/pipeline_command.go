package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var phaseCommand = exec.CommandContext

const phaseWaitDelay = 30 * time.Second

func newPipelineCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var limit int

	cmd := &cobra.Command{
		Use:   "pipeline <dir>",
		Short: "Compress with --clobber, then analyze the resulting .mp4 files",
		Long: `Run "compress --clobber" and then "analyze --mp4" on <dir> as two child
processes. A failed compression phase aborts the run before analysis starts.
--limit applies to the compression phase only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0")
			}
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			dir, err := targetDirectory(args[0])
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate vidtriage executable: %w", err)
			}

			compressArgs := append(ctx.forwardFlags(), "compress", dir, "--clobber", "--allow-empty")
			analyzeArgs := append(ctx.forwardFlags(), "analyze", dir, "--mp4", "--allow-empty")
			if force {
				compressArgs = append(compressArgs, "--force")
				analyzeArgs = append(analyzeArgs, "--force")
			}
			if limit > 0 {
				compressArgs = append(compressArgs, "--limit", strconv.Itoa(limit))
			}

			if err := runPhase(cmd, exe, compressArgs); err != nil {
				return fmt.Errorf("compression phase failed; analysis not started: %w", err)
			}
			if err := runPhase(cmd, exe, analyzeArgs); err != nil {
				return fmt.Errorf("analysis phase failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Pass --force to both phases")
	cmd.Flags().IntVar(&limit, "limit", 0, "Compress only the N smallest .mov files (0 = all)")
	return cmd
}

func runPhase(cmd *cobra.Command, exe string, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	child := phaseCommand(ctx, exe, args...)
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()
	// Let the phase clean up its staging files before it is killed.
	child.Cancel = func() error { return child.Process.Signal(os.Interrupt) }
	child.WaitDelay = phaseWaitDelay
	return child.Run()
}
