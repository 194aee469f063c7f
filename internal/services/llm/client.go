package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 120 * time.Second
	defaultBaseURL     = "https://api.openai.com/v1"
)

// ErrNoChoices is returned when the service answers without any completion choice.
var ErrNoChoices = errors.New("llm: response contained no choices")

// Config captures the runtime settings required to talk to the AI service.
type Config struct {
	APIKey             string
	BaseURL            string
	VisionModel        string
	TextModel          string
	TranscriptionModel string
	TimeoutSeconds     int
}

// Client wraps the chat completion, vision and transcription endpoints. It
// never retries; transient failures propagate to the caller.
type Client struct {
	cfg Config
	api openai.Client
}

// NewClient constructs a client using the supplied configuration. Extra
// request options are appended after the defaults (tests use this to inject
// an HTTP client).
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	clientOpts = append(clientOpts, opts...)
	return &Client{cfg: cfg, api: openai.NewClient(clientOpts...)}
}

// CompleteJSON issues a JSON-only chat completion request with the supplied prompts.
// It returns the raw JSON payload produced by the model.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" {
		return "", errors.New("llm complete: system prompt required")
	}
	if userPrompt == "" {
		return "", errors.New("llm complete: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm complete: api key required")
	}
	return c.complete(ctx, "llm complete", openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:          c.cfg.TextModel,
		Temperature:    openai.Float(0),
		ResponseFormat: jsonResponseFormat(),
	})
}

// CompleteText issues a free-text chat completion request. maxTokens <= 0
// leaves the output length to the model.
func (c *Client) CompleteText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("llm text: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm text: api key required")
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openai.SystemMessage(strings.TrimSpace(systemPrompt)))
	}
	messages = append(messages, openai.UserMessage(userPrompt))
	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       c.cfg.TextModel,
		Temperature: openai.Float(0.3),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	return c.complete(ctx, "llm text", params)
}

// DescribeImage sends a JPEG frame with an instruction to the vision model.
// When jsonOutput is set the model is constrained to a JSON object.
func (c *Client) DescribeImage(ctx context.Context, prompt string, jpeg []byte, jsonOutput bool, maxTokens int) (string, error) {
	if len(jpeg) == 0 {
		return "", errors.New("llm vision: image required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm vision: api key required")
	}
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(strings.TrimSpace(prompt)),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: ImageDataURL(jpeg),
		}),
	}
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
		Model: c.cfg.VisionModel,
	}
	if jsonOutput {
		params.ResponseFormat = jsonResponseFormat()
		params.Temperature = openai.Float(0)
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	return c.complete(ctx, "llm vision", params)
}

// Transcribe uploads an audio file to the transcription endpoint and returns
// the recognised text. An empty string means the service heard no speech.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("llm transcribe: api key required")
	}
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("llm transcribe: open audio: %w", err)
	}
	defer file.Close()

	resp, err := c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(c.cfg.TranscriptionModel),
	})
	if err != nil {
		return "", fmt.Errorf("llm transcribe: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Text), nil
}

// HealthCheck issues a fast ping to verify the API key and text model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func (c *Client) complete(ctx context.Context, op string, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrNoChoices)
	}
	choice := resp.Choices[0]
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" && strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%s: model refused: %s", op, summarizePayloadSnippet(refusal))
	}
	return strings.TrimSpace(choice.Message.Content), nil
}

func jsonResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: jsonResponseType},
	}
}

// ImageDataURL encodes JPEG bytes as an inline data URL accepted by vision models.
func ImageDataURL(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}
