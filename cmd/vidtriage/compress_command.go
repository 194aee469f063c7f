package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vidtriage/internal/batch"
	"vidtriage/internal/compress"
	"vidtriage/internal/media/ffprobe"
	"vidtriage/internal/transcode"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var force, clobber, allowEmpty bool
	var limit int

	cmd := &cobra.Command{
		Use:   "compress <dir>",
		Short: "Re-encode .mov files to H.264 MP4, smallest first",
		Long: `Re-encode every .mov file in <dir> with the fixed H.264/AAC profile.

Outputs go to <dir>/compressed/ unless --clobber is given, in which case the
original is replaced by the .mp4. Transient read errors are retried; files that
still fail are logged and the batch moves on. Half-written outputs from an
interrupted run are removed before the batch starts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			dir, err := targetDirectory(args[0])
			if err != nil {
				return err
			}
			if err := requireMediaTools(cfg); err != nil {
				return err
			}

			timeout, grace := cfg.Watchdog()
			runner := transcode.NewRunner(
				transcode.WithBinary(cfg.Binaries.FFmpeg),
				transcode.WithWatchdog(timeout, grace),
				transcode.WithPolicy(transcode.Policy{TransientPatterns: cfg.Compression.TransientPatterns}),
				transcode.WithLogger(logger),
			)
			stage := compress.New(
				runner,
				ffprobe.Prober{Binary: cfg.Binaries.FFprobe},
				compress.Config{
					Attempts:       cfg.Compression.RetryAttempts,
					Delay:          cfg.RetryDelay(),
					RemovableRoots: cfg.Compression.RemovableRoots,
				},
				compress.AutoProgress(os.Stderr, logger),
				logger,
			)

			opts := compress.Options{Force: force, Clobber: clobber}
			tally, err := batch.NewDriver(logger).Run(cmd.Context(), dir,
				batch.Options{
					Extensions: batch.MOVExtensions,
					Limit:      limit,
					Label:      "compress",
					Prepare: func(context.Context) error {
						return stage.SweepStale(dir)
					},
				},
				func(ctx context.Context, entry batch.Entry) (batch.ItemResult, error) {
					res, err := stage.Compress(ctx, entry.Path, opts)
					if err != nil {
						return batch.ItemResult{}, err
					}
					if res.Outcome == compress.OutcomeSkipped {
						return batch.ItemResult{Outcome: batch.OutcomeSkipped}, nil
					}
					return batch.ItemResult{Outcome: batch.OutcomeProcessed, SavedBytes: res.Job.SavedBytes()}, nil
				})
			if err != nil {
				if allowEmpty && batch.IsNoFiles(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "No .mov files in %s\n", dir)
					return nil
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTally("Compress", tally, true))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-encode even when the output already exists")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process only the N smallest files (0 = all)")
	cmd.Flags().BoolVar(&clobber, "clobber", false, "Replace each original with its compressed .mp4")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "Exit 0 when no files match")
	_ = cmd.Flags().MarkHidden("allow-empty")
	return cmd
}
