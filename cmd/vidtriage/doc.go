// Package main hosts the vidtriage CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the batch driver:
// compress re-encodes .mov files, analyze runs the AI pipeline that rates,
// renames and annotates clips, and pipeline chains the two as separate
// processes. Configuration resolution, .env loading and logger construction
// live here so the internal packages stay free of CLI concerns.
//
// Per-file failures never change the exit status. A run exits non-zero only
// when it cannot start: a missing or unreadable directory, an empty selection,
// a held run lock or a configuration problem.
package main
