// Package config loads, normalizes, and validates vidtriage configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. The Config type centralizes every knob the analysis and
// compression commands need: scratch and summary locations, AI models, the
// compression retry policy, and external binaries.
//
// The AI credential is deliberately not part of Validate; commands that talk
// to the AI service call RequireAPIKey so compression runs without one.
package config
