package transcode

import "strconv"

// Profile is the fixed encoding profile used for every compression job. It
// favours playback compatibility over maximum savings.
type Profile struct {
	VideoCodec   string
	Preset       string
	CRF          int
	PixelFormat  string
	AudioCodec   string
	AudioBitrate string
	FastStart    bool
	Extension    string
}

// DefaultProfile is H.264/AAC in an MP4 container with the index up front.
var DefaultProfile = Profile{
	VideoCodec:   "libx264",
	Preset:       "medium",
	CRF:          23,
	PixelFormat:  "yuv420p",
	AudioCodec:   "aac",
	AudioBitrate: "128k",
	FastStart:    true,
	Extension:    ".mp4",
}

// Args returns the ffmpeg arguments that encode input to output with this
// profile and stream machine-readable progress on stdout.
func (p Profile) Args(input, output string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-nostats",
		"-loglevel", "error",
		"-progress", "pipe:1",
		"-i", input,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-pix_fmt", p.PixelFormat,
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
	}
	if p.FastStart {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, output)
}
