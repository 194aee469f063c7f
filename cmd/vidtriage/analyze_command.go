package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vidtriage/internal/analyzer"
	"vidtriage/internal/batch"
	"vidtriage/internal/media/extract"
	"vidtriage/internal/media/ffprobe"
	"vidtriage/internal/metadata"
	"vidtriage/internal/pipeline"
	"vidtriage/internal/services/llm"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var force, commentOnly, mp4, allowEmpty bool
	var limit int

	cmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Describe, rate, rename and annotate clips",
		Long: `Run the analysis pipeline over every .mov (or .mp4 with --mp4) file in <dir>.

Each clip is probed, optionally transcribed, described frame by frame, rated
for importance and renamed "<importance>_<slug>-<suffix>.<ext>". A summary
record is appended to the JSON and text logs and the file comment is set so
later runs skip it. --comment-only skips analysis and only stamps the comment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !commentOnly {
				if err := cfg.RequireAPIKey(); err != nil {
					return err
				}
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			dir, err := targetDirectory(args[0])
			if err != nil {
				return err
			}
			if !commentOnly {
				if err := requireMediaTools(cfg); err != nil {
					return err
				}
			}
			if err := cfg.ValidateTarget(dir); err != nil {
				return err
			}
			scratch := pipeline.ScratchRoot(cfg.Paths.ScratchDir, dir)

			client := llm.NewClient(llm.Config{
				APIKey:             cfg.AI.APIKey,
				BaseURL:            cfg.AI.BaseURL,
				VisionModel:        cfg.AI.VisionModel,
				TextModel:          cfg.AI.TextModel,
				TranscriptionModel: cfg.AI.TranscriptionModel,
				TimeoutSeconds:     cfg.AI.TimeoutSeconds,
			})
			jsonPath, textPath := cfg.SummaryPaths(dir)
			orchestrator := pipeline.New(pipeline.Dependencies{
				Prober:    ffprobe.Prober{Binary: cfg.Binaries.FFprobe},
				Extractor: extract.New(cfg.Binaries.FFmpeg, logger),
				Analyzer: analyzer.New(client,
					analyzer.WithDescribeMaxTokens(cfg.AI.DescribeMaxTokens),
					analyzer.WithLogger(logger),
				),
				Marker:     metadata.NewXattrMarker(),
				Recorder:   metadata.NewStore(jsonPath, textPath),
				ScratchDir: scratch,
				Logger:     logger,
			})

			extensions := batch.MOVExtensions
			if mp4 {
				extensions = batch.MP4Extensions
			}
			opts := pipeline.Options{Force: force, CommentOnly: commentOnly}
			tally, err := batch.NewDriver(logger).Run(cmd.Context(), dir,
				batch.Options{
					Extensions: extensions,
					Limit:      limit,
					Label:      "analyze",
					Prepare: func(context.Context) error {
						return pipeline.ResetScratch(scratch)
					},
				},
				func(ctx context.Context, entry batch.Entry) (batch.ItemResult, error) {
					res, err := orchestrator.Process(ctx, entry.Path, opts)
					if err != nil {
						return batch.ItemResult{}, err
					}
					if res.Outcome == pipeline.OutcomeSkipped {
						return batch.ItemResult{Outcome: batch.OutcomeSkipped}, nil
					}
					return batch.ItemResult{Outcome: batch.OutcomeProcessed}, nil
				})
			if err != nil {
				if allowEmpty && batch.IsNoFiles(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "No %s files in %s\n", extensions[0], dir)
					return nil
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTally("Analyze", tally, false))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-analyze files that already carry a comment")
	cmd.Flags().BoolVar(&commentOnly, "comment-only", false, "Only write a timestamp comment; no AI calls")
	cmd.Flags().BoolVar(&mp4, "mp4", false, "Select .mp4 files instead of .mov")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process only the N smallest files (0 = all)")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "Exit 0 when no files match")
	_ = cmd.Flags().MarkHidden("allow-empty")
	return cmd
}
