// Package transcode runs ffmpeg with the fixed compression profile.
//
// The runner streams ffmpeg's -progress output as percentage samples, enforces
// a watchdog (SIGTERM, then a forced kill after a grace window) and reports
// failures as *Error with an enumerated Kind. Which stderr messages count as
// transient is a Policy supplied by configuration rather than a fixed list.
package transcode
