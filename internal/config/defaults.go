package config

const (
	defaultConfigPath         = "~/.config/vidtriage/config.toml"
	defaultSummaryJSON        = "video_summaries.json"
	defaultSummaryText        = "video_summaries.txt"
	defaultAIBaseURL          = "https://api.openai.com/v1"
	defaultVisionModel        = "gpt-4o-mini"
	defaultTextModel          = "gpt-4o-mini"
	defaultTranscriptionModel = "whisper-1"
	defaultAITimeoutSeconds   = 120
	defaultDescribeMaxTokens  = 300
	defaultRetryAttempts      = 3
	defaultRetryDelaySeconds  = 5
	defaultWatchdogMinutes    = 120
	defaultKillGraceSeconds   = 10
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultAPIKeyEnv          = "OPENAI_API_KEY"
	defaultBaseURLEnv         = "OPENAI_BASE_URL"
)

// DefaultTransientPatterns lists the error fragments treated as drive or I/O
// hiccups worth another attempt.
var DefaultTransientPatterns = []string{
	"connection reset",
	"input/output error",
	"read error",
	"error reading",
	"operation canceled",
	"operation cancelled",
	"resource temporarily unavailable",
	"no such device",
	"input unreadable",
	"end of file",
}

// DefaultRemovableRoots lists mount parents whose children are treated as
// removable volumes. A trailing "*" segment matches any single directory.
var DefaultRemovableRoots = []string{
	"/Volumes",
	"/media/*",
	"/run/media/*",
	"/mnt",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir:  defaultScratchDir(),
			SummaryJSON: defaultSummaryJSON,
			SummaryText: defaultSummaryText,
		},
		AI: AI{
			BaseURL:            defaultAIBaseURL,
			VisionModel:        defaultVisionModel,
			TextModel:          defaultTextModel,
			TranscriptionModel: defaultTranscriptionModel,
			TimeoutSeconds:     defaultAITimeoutSeconds,
			DescribeMaxTokens:  defaultDescribeMaxTokens,
		},
		Compression: Compression{
			RetryAttempts:     defaultRetryAttempts,
			RetryDelaySeconds: defaultRetryDelaySeconds,
			TransientPatterns: append([]string(nil), DefaultTransientPatterns...),
			WatchdogMinutes:   defaultWatchdogMinutes,
			KillGraceSeconds:  defaultKillGraceSeconds,
			RemovableRoots:    append([]string(nil), DefaultRemovableRoots...),
		},
		Binaries: Binaries{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
