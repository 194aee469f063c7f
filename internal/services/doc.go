// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp asset paths, stage names, and batch run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper and AssetError so every
//     failure carries its stage and file, and the batch driver can classify it.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across commands.
package services
