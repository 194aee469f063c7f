package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"vidtriage/internal/logging"
	"vidtriage/internal/services"
	"vidtriage/internal/services/llm"
	"vidtriage/internal/textutil"
)

const (
	// TranscriptThresholdSeconds forces transcription for longer clips.
	TranscriptThresholdSeconds = 5.0
	// MaxAdditionalKeyframes bounds the follow-up frame count.
	MaxAdditionalKeyframes = 4
	// MinImportance and MaxImportance bound the retention rating.
	MinImportance = 1
	MaxImportance = 9

	defaultDescribeMaxTokens = 300
	shortNameMaxTokens       = 30
	shortNameMaxWords        = 5
	fallbackSlug             = "untitled-clip"
)

// Service is the AI capability the analyzer consumes. *llm.Client satisfies it.
type Service interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	DescribeImage(ctx context.Context, prompt string, jpeg []byte, jsonOutput bool, maxTokens int) (string, error)
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// AnalysisResult is the decision record produced from the probe frame. It is
// built once per asset and not modified afterwards.
type AnalysisResult struct {
	Description         string
	NeedsTranscript     bool
	AdditionalKeyframes int
	DurationSeconds     float64
}

// ImportanceAssessment is the retention rating for an asset.
type ImportanceAssessment struct {
	Importance      int
	Reason          string
	FullDescription string
}

type initialFramePayload struct {
	Description         *string `json:"description" validate:"required"`
	NeedsTranscript     *bool   `json:"needs_transcript" validate:"required"`
	AdditionalKeyframes *int    `json:"additional_keyframes" validate:"required,min=0,max=4"`
}

type importancePayload struct {
	Importance      *int    `json:"importance" validate:"required,min=1,max=9"`
	Reason          *string `json:"reason" validate:"required"`
	FullDescription *string `json:"full_description" validate:"required"`
}

// Analyzer wraps the AI service behind typed request/response functions.
type Analyzer struct {
	svc               Service
	validate          *validator.Validate
	describeMaxTokens int
	logger            *slog.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithDescribeMaxTokens bounds the length of free-text frame descriptions.
func WithDescribeMaxTokens(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.describeMaxTokens = n
		}
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New constructs an Analyzer.
func New(svc Service, opts ...Option) *Analyzer {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	a := &Analyzer{
		svc:               svc,
		validate:          v,
		describeMaxTokens: defaultDescribeMaxTokens,
		logger:            logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeInitialFrame asks the vision model for the scene description and the
// adaptive decisions. Clips longer than TranscriptThresholdSeconds always need
// a transcript regardless of the answer.
func (a *Analyzer) AnalyzeInitialFrame(ctx context.Context, jpeg []byte, durationSeconds float64) (AnalysisResult, error) {
	const op = "analyze initial frame"
	content, err := a.svc.DescribeImage(ctx, initialFramePrompt, jpeg, true, a.describeMaxTokens)
	if err != nil {
		return AnalysisResult{}, services.Wrap(services.ErrExternalTool, "probe", op, "vision request failed", err)
	}
	var payload initialFramePayload
	if err := a.decode(content, &payload); err != nil {
		return AnalysisResult{}, services.Wrap(services.ErrValidation, "probe", op, "malformed analysis response", err)
	}
	result := AnalysisResult{
		Description:         strings.TrimSpace(*payload.Description),
		NeedsTranscript:     *payload.NeedsTranscript,
		AdditionalKeyframes: *payload.AdditionalKeyframes,
		DurationSeconds:     durationSeconds,
	}
	if durationSeconds > TranscriptThresholdSeconds {
		result.NeedsTranscript = true
	}
	a.logger.Debug("initial frame analysed",
		logging.Bool("needs_transcript", result.NeedsTranscript),
		logging.Int("additional_keyframes", result.AdditionalKeyframes),
		logging.Float64("duration_seconds", durationSeconds),
	)
	return result, nil
}

// DescribeFrame returns a free-text description of one keyframe.
func (a *Analyzer) DescribeFrame(ctx context.Context, jpeg []byte) (string, error) {
	content, err := a.svc.DescribeImage(ctx, describeFramePrompt, jpeg, false, a.describeMaxTokens)
	if err != nil {
		marker := services.ErrExternalTool
		if errors.Is(err, llm.ErrNoChoices) {
			marker = services.ErrValidation
		}
		return "", services.Wrap(marker, "keyframes", "describe frame", "vision request failed", err)
	}
	return strings.TrimSpace(content), nil
}

// DescribeFrameFile reads a JPEG from disk and describes it.
func (a *Analyzer) DescribeFrameFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "keyframes", "read frame", path, err)
	}
	return a.DescribeFrame(ctx, data)
}

// Transcribe returns the recognised speech in an audio file. An empty string
// means the service heard nothing.
func (a *Analyzer) Transcribe(ctx context.Context, audioPath string) (string, error) {
	text, err := a.svc.Transcribe(ctx, audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcript", "transcribe", "transcription request failed", err)
	}
	return text, nil
}

// DetermineImportance rates the asset from all gathered evidence. A nil
// transcript means transcription was not requested.
func (a *Analyzer) DetermineImportance(ctx context.Context, initialDescription string, additional []string, transcript *string, durationSeconds float64) (ImportanceAssessment, error) {
	const op = "determine importance"
	content, err := a.svc.CompleteJSON(ctx, importancePrompt, importanceEvidence(initialDescription, additional, transcript, durationSeconds))
	if err != nil {
		return ImportanceAssessment{}, services.Wrap(services.ErrExternalTool, "importance", op, "completion request failed", err)
	}
	var payload importancePayload
	if err := a.decode(content, &payload); err != nil {
		return ImportanceAssessment{}, services.Wrap(services.ErrValidation, "importance", op, "malformed importance response", err)
	}
	return ImportanceAssessment{
		Importance:      *payload.Importance,
		Reason:          strings.TrimSpace(*payload.Reason),
		FullDescription: strings.TrimSpace(*payload.FullDescription),
	}, nil
}

// GenerateShortName asks for a 3-5 word slug and sanitizes the answer. An
// answer that sanitizes to nothing falls back to a fixed slug.
func (a *Analyzer) GenerateShortName(ctx context.Context, description string, importance int) (string, error) {
	user := fmt.Sprintf("Importance rating: %d\nDescription: %s", importance, strings.TrimSpace(description))
	content, err := a.svc.CompleteText(ctx, shortNamePrompt, user, shortNameMaxTokens)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "naming", "generate short name", "completion request failed", err)
	}
	slug := textutil.LimitWords(textutil.SanitizeSlug(firstLine(content)), shortNameMaxWords)
	if slug == "" {
		a.logger.Warn("short name empty after sanitizing; using fallback",
			logging.String(logging.FieldEventType, "short_name_fallback"),
			logging.String("raw", llm.Snippet(content)),
		)
		return fallbackSlug, nil
	}
	return slug, nil
}

func (a *Analyzer) decode(content string, target any) error {
	if err := llm.DecodeLLMJSON(content, target); err != nil {
		return err
	}
	if err := a.validate.Struct(target); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is missing", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v violates %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

func importanceEvidence(initial string, additional []string, transcript *string, durationSeconds float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Duration: %.1f seconds\n", durationSeconds)
	fmt.Fprintf(&b, "Initial frame: %s\n", strings.TrimSpace(initial))
	for i, desc := range additional {
		fmt.Fprintf(&b, "Frame %d: %s\n", i+2, strings.TrimSpace(desc))
	}
	switch {
	case transcript == nil:
		fmt.Fprintf(&b, "Transcript: %s\n", noSpeechMarker)
	case strings.TrimSpace(*transcript) == "":
		fmt.Fprintf(&b, "Transcript: %s\n", noSpeechMarker)
	default:
		fmt.Fprintf(&b, "Transcript: %s\n", strings.TrimSpace(*transcript))
	}
	return b.String()
}

func firstLine(content string) string {
	trimmed := strings.TrimSpace(content)
	if idx := strings.IndexAny(trimmed, "\r\n"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.Trim(trimmed, "\"'`")
}
