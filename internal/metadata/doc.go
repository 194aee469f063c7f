// Package metadata persists per-asset results.
//
// Two concerns live here. The marker capability reads and writes the
// file-manager comment attribute that doubles as the idempotency flag
// (XattrMarker in production, MemoryMarker in tests). The Store appends
// SummaryRecords to a JSON array file, rewritten atomically on every append,
// and to a human-readable text log opened and closed per record.
package metadata
