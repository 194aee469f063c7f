package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"vidtriage/internal/analyzer"
	"vidtriage/internal/logging"
	"vidtriage/internal/media/extract"
	"vidtriage/internal/media/ffprobe"
	"vidtriage/internal/metadata"
	"vidtriage/internal/services"
	"vidtriage/internal/textutil"
)

// Prober reports container metadata for an asset.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// FrameExtractor pulls frames and audio out of an asset.
type FrameExtractor interface {
	Frame(ctx context.Context, source string, atSeconds float64, dest string) error
	Keyframes(ctx context.Context, source string, durationSeconds float64, additional int, dir string) ([]string, error)
	Audio(ctx context.Context, source, dest string) error
}

// ContentAnalyzer turns frames and audio into typed decisions.
type ContentAnalyzer interface {
	AnalyzeInitialFrame(ctx context.Context, jpeg []byte, durationSeconds float64) (analyzer.AnalysisResult, error)
	DescribeFrameFile(ctx context.Context, path string) (string, error)
	Transcribe(ctx context.Context, audioPath string) (string, error)
	DetermineImportance(ctx context.Context, initialDescription string, additional []string, transcript *string, durationSeconds float64) (analyzer.ImportanceAssessment, error)
	GenerateShortName(ctx context.Context, description string, importance int) (string, error)
}

// Recorder appends summary records.
type Recorder interface {
	Append(record metadata.SummaryRecord) error
}

// Outcome classifies how an asset left the orchestrator.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeAnnotated Outcome = "annotated"
	OutcomeSkipped   Outcome = "skipped"
)

// Result describes a successfully handled asset.
type Result struct {
	Outcome Outcome
	// Path is the asset location after any rename.
	Path   string
	Record *metadata.SummaryRecord
}

// Options control a single Process call.
type Options struct {
	Force       bool
	CommentOnly bool
}

// Dependencies are the collaborators the orchestrator drives.
type Dependencies struct {
	Prober     Prober
	Extractor  FrameExtractor
	Analyzer   ContentAnalyzer
	Marker     metadata.Marker
	Recorder   Recorder
	ScratchDir string
	Logger     *slog.Logger
}

// Orchestrator sequences analysis stages for one asset at a time.
type Orchestrator struct {
	prober     Prober
	extractor  FrameExtractor
	analyzer   ContentAnalyzer
	marker     metadata.Marker
	recorder   Recorder
	scratchDir string
	logger     *slog.Logger

	now    func() time.Time
	suffix func() string
	rename func(oldPath, newPath string) error
}

// New constructs an Orchestrator.
func New(deps Dependencies) *Orchestrator {
	return &Orchestrator{
		prober:     deps.Prober,
		extractor:  deps.Extractor,
		analyzer:   deps.Analyzer,
		marker:     deps.Marker,
		recorder:   deps.Recorder,
		scratchDir: deps.ScratchDir,
		logger:     logging.NewComponentLogger(deps.Logger, "pipeline"),
		now:        time.Now,
		suffix:     textutil.RandomSuffix,
		rename:     os.Rename,
	}
}

// Process drives the asset at path to a terminal state. Failures come back as
// *services.AssetError naming the stage that failed.
func (o *Orchestrator) Process(ctx context.Context, path string, opts Options) (Result, error) {
	ctx = services.WithAsset(ctx, path)
	logger := logging.WithContext(ctx, o.logger)

	if !opts.Force {
		var annotated bool
		err := runStage(ctx, logger, path, stageMarker, func(context.Context, *slog.Logger) error {
			var err error
			annotated, err = metadata.HasMarker(o.marker, path)
			return err
		})
		if err != nil {
			return Result{}, err
		}
		if annotated {
			logger.Info("already annotated; skipping",
				logging.String(logging.FieldEventType, "asset_skipped"),
			)
			return Result{Outcome: OutcomeSkipped, Path: path}, nil
		}
	}

	if opts.CommentOnly {
		return o.annotateOnly(ctx, logger, path)
	}
	return o.analyse(ctx, logger, path)
}

func (o *Orchestrator) annotateOnly(ctx context.Context, logger *slog.Logger, path string) (Result, error) {
	err := runStage(ctx, logger, path, stageComment, func(context.Context, *slog.Logger) error {
		return o.marker.SetMarker(path, metadata.TimestampComment(o.now()))
	})
	if err != nil {
		return Result{}, err
	}
	logger.Info("comment written", logging.String(logging.FieldEventType, "asset_annotated"))
	return Result{Outcome: OutcomeAnnotated, Path: path}, nil
}

// evidence accumulates stage outputs for one asset.
type evidence struct {
	durationSeconds float64
	hasAudio        bool
	analysis        analyzer.AnalysisResult
	transcript      *string
	additional      []string
	assessment      analyzer.ImportanceAssessment
	slug            string
}

func (o *Orchestrator) analyse(ctx context.Context, logger *slog.Logger, path string) (result Result, err error) {
	scratch, err := newAssetScratch(o.scratchDir)
	if err != nil {
		return Result{}, services.NewAssetError(path, stageProbe,
			services.Wrap(services.ErrConfiguration, stageProbe, "scratch", o.scratchDir, err))
	}
	defer func() {
		cleanupErr := os.RemoveAll(scratch)
		if cleanupErr == nil {
			return
		}
		if err != nil {
			err = multierr.Append(err, fmt.Errorf("remove scratch %s: %w", scratch, cleanupErr))
			return
		}
		logger.Warn("scratch cleanup failed",
			logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
			logging.String("scratch_dir", scratch),
			logging.Error(cleanupErr),
		)
	}()

	var ev evidence
	stages := []struct {
		name string
		fn   func(context.Context, *slog.Logger) error
	}{
		{stageProbe, func(ctx context.Context, l *slog.Logger) error { return o.probe(ctx, l, path, scratch, &ev) }},
		{stageTranscript, func(ctx context.Context, l *slog.Logger) error { return o.transcribe(ctx, l, path, scratch, &ev) }},
		{stageKeyframes, func(ctx context.Context, l *slog.Logger) error { return o.keyframes(ctx, l, path, scratch, &ev) }},
		{stageImportance, func(ctx context.Context, _ *slog.Logger) error { return o.rate(ctx, &ev) }},
		{stageNaming, func(ctx context.Context, _ *slog.Logger) error { return o.name(ctx, &ev) }},
	}
	for _, s := range stages {
		if err := runStage(ctx, logger, path, s.name, s.fn); err != nil {
			return Result{}, err
		}
	}

	var record metadata.SummaryRecord
	err = runStage(ctx, logger, path, stageCommit, func(_ context.Context, l *slog.Logger) error {
		var commitErr error
		record, commitErr = o.commit(l, path, ev)
		return commitErr
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info("asset analysed",
		logging.String(logging.FieldEventType, "asset_processed"),
		logging.Int("importance", record.Importance),
		logging.String("new_name", record.NewFilename),
		logging.Float64("duration_seconds", record.DurationSeconds),
	)
	return Result{Outcome: OutcomeProcessed, Path: record.Path, Record: &record}, nil
}

func (o *Orchestrator) probe(ctx context.Context, logger *slog.Logger, path, scratch string, ev *evidence) error {
	info, err := o.prober.Inspect(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageProbe, "ffprobe", "inspect asset", err)
	}
	ev.durationSeconds = info.DurationSeconds()
	if ev.durationSeconds <= 0 {
		return services.Wrap(services.ErrValidation, stageProbe, "ffprobe", "could not determine clip duration", nil)
	}
	if !info.HasVideo() {
		return services.Wrap(services.ErrValidation, stageProbe, "ffprobe", "no video stream", nil)
	}
	ev.hasAudio = info.HasAudio()
	width, height := info.Resolution()
	logger.Debug("probed asset",
		logging.String("container", info.Container()),
		logging.Int("width", width),
		logging.Int("height", height),
		logging.Int64("size_bytes", info.SizeBytes()),
		logging.Float64("duration_seconds", ev.durationSeconds),
		logging.Bool("has_audio", ev.hasAudio),
	)

	framePath := filepath.Join(scratch, "probe.jpg")
	if err := o.extractor.Frame(ctx, path, extract.ProbeTimestamp(ev.durationSeconds), framePath); err != nil {
		return err
	}
	frame, err := os.ReadFile(framePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageProbe, "read frame", framePath, err)
	}
	ev.analysis, err = o.analyzer.AnalyzeInitialFrame(ctx, frame, ev.durationSeconds)
	if err != nil {
		return err
	}
	logger.Debug("probe decision",
		logging.Bool("needs_transcript", ev.analysis.NeedsTranscript),
		logging.Int("additional_keyframes", ev.analysis.AdditionalKeyframes),
	)
	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, logger *slog.Logger, path, scratch string, ev *evidence) error {
	if !ev.analysis.NeedsTranscript {
		return nil
	}
	if !ev.hasAudio {
		empty := ""
		ev.transcript = &empty
		logger.Info("no audio stream; transcript left empty",
			logging.String(logging.FieldEventType, "transcript_no_audio"),
		)
		return nil
	}
	audioPath := filepath.Join(scratch, "audio.mp3")
	if err := o.extractor.Audio(ctx, path, audioPath); err != nil {
		return err
	}
	text, err := o.analyzer.Transcribe(ctx, audioPath)
	if err != nil {
		return err
	}
	ev.transcript = &text
	logger.Debug("transcript received", logging.Int("transcript_chars", len(text)))
	return nil
}

func (o *Orchestrator) keyframes(ctx context.Context, logger *slog.Logger, path, scratch string, ev *evidence) error {
	if ev.analysis.AdditionalKeyframes <= 0 {
		return nil
	}
	frames, err := o.extractor.Keyframes(ctx, path, ev.durationSeconds, ev.analysis.AdditionalKeyframes, filepath.Join(scratch, "keyframes"))
	if err != nil {
		return err
	}
	for _, frame := range frames {
		desc, err := o.analyzer.DescribeFrameFile(ctx, frame)
		if err != nil {
			return err
		}
		ev.additional = append(ev.additional, desc)
	}
	logger.Debug("keyframes described", logging.Int("keyframes", len(frames)))
	return nil
}

func (o *Orchestrator) rate(ctx context.Context, ev *evidence) error {
	var err error
	ev.assessment, err = o.analyzer.DetermineImportance(ctx, ev.analysis.Description, ev.additional, ev.transcript, ev.durationSeconds)
	return err
}

func (o *Orchestrator) name(ctx context.Context, ev *evidence) error {
	desc := ev.assessment.FullDescription
	if desc == "" {
		desc = ev.analysis.Description
	}
	var err error
	ev.slug, err = o.analyzer.GenerateShortName(ctx, desc, ev.assessment.Importance)
	return err
}

func (o *Orchestrator) commit(logger *slog.Logger, path string, ev evidence) (metadata.SummaryRecord, error) {
	dir := filepath.Dir(path)
	newName, err := uniqueName(dir, ev.assessment.Importance, ev.slug, filepath.Ext(path), o.suffix)
	if err != nil {
		return metadata.SummaryRecord{}, services.Wrap(services.ErrExternalTool, stageCommit, "choose name", dir, err)
	}
	newPath := filepath.Join(dir, newName)
	if err := o.rename(path, newPath); err != nil {
		return metadata.SummaryRecord{}, services.Wrap(services.ErrExternalTool, stageCommit, "rename", newName, err)
	}
	logger.Debug("asset renamed", logging.String("new_path", newPath))

	record := metadata.SummaryRecord{
		OriginalFilename:       filepath.Base(path),
		NewFilename:            newName,
		Importance:             ev.assessment.Importance,
		Reason:                 ev.assessment.Reason,
		FullDescription:        ev.assessment.FullDescription,
		DurationSeconds:        ev.durationSeconds,
		Description:            ev.analysis.Description,
		AdditionalDescriptions: append([]string{}, ev.additional...),
		Transcript:             ev.transcript,
		ProcessedAt:            o.now().UTC(),
		Path:                   newPath,
	}
	if err := o.recorder.Append(record); err != nil {
		return metadata.SummaryRecord{}, err
	}
	if err := o.marker.SetMarker(newPath, metadata.Comment(record.Importance, record.FullDescription)); err != nil {
		return metadata.SummaryRecord{}, err
	}
	return record, nil
}
