package pipeline

import (
	"context"
	"log/slog"
	"time"

	"vidtriage/internal/logging"
	"vidtriage/internal/services"
)

const (
	stageMarker     = "marker"
	stageProbe      = "probe"
	stageTranscript = "transcript"
	stageKeyframes  = "keyframes"
	stageImportance = "importance"
	stageNaming     = "naming"
	stageCommit     = "commit"
	stageComment    = "comment"
)

// runStage executes fn with the stage stamped on the context and returns any
// failure tagged with the asset path and stage name.
func runStage(ctx context.Context, logger *slog.Logger, asset, stage string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := services.WithStage(ctx, stage)
	stageLogger := logger.With(logging.String(logging.FieldStage, stage))
	start := time.Now()
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx, stageLogger); err != nil {
		return services.NewAssetError(asset, stage, err)
	}

	stageLogger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}
