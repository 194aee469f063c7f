// Package compress re-encodes assets with the fixed transcode profile.
//
// Each file gets up to Config.Attempts tries with a constant delay between
// them (sethvargo/go-retry); only failures the transcoder classifies as
// transient are retried. Before every attempt a file on a removable volume
// has its volume root checked, and a missing volume fails fast with
// services.ErrDriveUnavailable.
//
// Sibling mode writes into a compressed/ subdirectory and leaves originals
// alone. Clobber mode stages the output in a temporary directory beside the
// input, moves it into place under the original stem with the profile
// extension, then removes the original.
package compress
