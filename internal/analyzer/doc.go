// Package analyzer turns extracted frames and audio into typed decisions.
//
// Every call is a single request/response against the AI service with no
// retry of its own. JSON answers pass through one schema step (decode, then
// go-playground/validator) that yields either a typed result or an
// ErrValidation-marked error; out-of-range values are rejected, never clamped.
package analyzer
