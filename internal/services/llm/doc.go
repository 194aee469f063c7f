// Package llm provides the AI service client used by the content analyzer.
//
// It is a thin layer over the OpenAI Go SDK exposing four request/response
// capabilities: JSON chat completion, free-text completion, single-image
// description (the frame travels inline as a base64 data URL) and audio
// transcription.
//
// # Retry Behaviour
//
// None. The SDK's built-in retries are disabled so that network or service
// failures surface to the caller unchanged; the pipeline treats them as fatal
// for the current file.
//
// # JSON Responses
//
// DecodeLLMJSON tolerates markdown code fences and leading prose around the
// object. Field-level validation is the caller's job.
package llm
