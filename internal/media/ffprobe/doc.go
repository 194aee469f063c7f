// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; helper methods expose the few
// facts the pipeline needs: duration, size, container name and whether video
// and audio streams exist. Unparseable numbers read as zero ("unknown").
package ffprobe
