// Package preflight runs the environment checks behind `vidtriage check` and
// the removable-volume probe the compression stage performs before each
// attempt.
//
// Checks cover the target and scratch directories, ffmpeg/ffprobe presence,
// the libx264 encoder, the AI credential and, optionally, a live AI ping.
package preflight
