package preflight

import (
	"context"

	"vidtriage/internal/config"
	"vidtriage/internal/deps"
	"vidtriage/internal/transcode"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which optional checks RunAll performs.
type Options struct {
	// TargetDir is the directory a run would process; skipped when empty.
	TargetDir string
	// PingAI sends a tiny completion to verify the key and model.
	PingAI bool
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if opts.TargetDir != "" {
		results = append(results, CheckDirectoryAccess("Target directory", opts.TargetDir))
		if root, ok := RemovableRoot(opts.TargetDir, cfg.Compression.RemovableRoots); ok {
			results = append(results, CheckVolume(root))
		}
	}
	results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))

	for _, status := range deps.CheckBinaries(deps.MediaRequirements(cfg.Binaries.FFmpeg, cfg.Binaries.FFprobe)) {
		results = append(results, fromStatus(status))
	}
	results = append(results, fromStatus(deps.CheckEncoder(ctx, cfg.Binaries.FFmpeg, transcode.DefaultProfile.VideoCodec)))

	results = append(results, CheckAPIKey(cfg))
	if opts.PingAI && cfg.AI.APIKey != "" {
		results = append(results, CheckLLM(ctx, cfg))
	}
	return results
}

// Failed reports whether any check in results did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Detail}
	if status.Available && status.Path != "" {
		result.Detail = status.Path
	}
	return result
}
