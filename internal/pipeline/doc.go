// Package pipeline drives one asset through analysis: idempotency check,
// probe frame, optional transcript, optional keyframes, importance rating,
// naming and commit.
//
// Commit order is rename, then append the summary record (carrying the final
// path), then write the comment marker. A crash after the append but before
// the marker leaves a renamed file without a comment; re-running analyses it
// again and appends a second record.
//
// Each asset gets its own uuid-named scratch directory under the scratch root
// of its target directory (see ScratchRoot). The directory is removed when
// the asset finishes. Leftovers from an interrupted run are cleared by
// ResetScratch once the next run holds the target's lock.
package pipeline
