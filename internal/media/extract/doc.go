// Package extract pulls probe frames, evenly spaced keyframes and audio tracks
// out of source videos by invoking ffmpeg.
package extract
