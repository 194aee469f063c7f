package transcode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vidtriage/internal/services"
)

// Kind enumerates how a transcoder invocation failed.
type Kind int

const (
	// KindEncoder covers codec, format and launch failures. Never retried.
	KindEncoder Kind = iota
	// KindTransient covers drive and I/O hiccups matched by the Policy.
	KindTransient
	// KindTimeout means the watchdog terminated the process.
	KindTimeout
	// KindCanceled means the caller's context ended the run.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return "encoder"
	}
}

// Error reports a failed transcoder invocation.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		return fmt.Sprintf("ffmpeg %s failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("ffmpeg %s failure: %v: %s", e.Kind, e.Err, detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers test against the shared service markers.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindTransient:
		return target == services.ErrTransient
	case KindTimeout:
		return target == services.ErrTimeout
	case KindCanceled:
		return target == context.Canceled
	default:
		return target == services.ErrExternalTool
	}
}

// IsTransient reports whether err is a transcoder failure worth retrying.
func IsTransient(err error) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Kind == KindTransient
}

// Policy decides which failure messages count as transient. Patterns are
// matched case-insensitively as substrings.
type Policy struct {
	TransientPatterns []string
}

// Classify maps a failure message to KindTransient or KindEncoder.
func (p Policy) Classify(message string) Kind {
	lowered := strings.ToLower(message)
	for _, pattern := range p.TransientPatterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern != "" && strings.Contains(lowered, pattern) {
			return KindTransient
		}
	}
	return KindEncoder
}
