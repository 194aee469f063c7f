package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"vidtriage/internal/logging"
)

var commandContext = exec.CommandContext

const stderrTailLimit = 4096

// Progress is one progress sample parsed from ffmpeg's -progress stream.
// Percent is an estimate and may step backwards slightly between samples.
type Progress struct {
	Percent float64
	OutTime time.Duration
	Speed   string
	Done    bool
}

// Runner invokes ffmpeg with the fixed profile under a watchdog.
type Runner struct {
	binary  string
	profile Profile
	policy  Policy
	timeout time.Duration
	grace   time.Duration
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(binary) != "" {
			r.binary = strings.TrimSpace(binary)
		}
	}
}

// WithWatchdog sets the per-invocation timeout and the grace window between
// SIGTERM and a forced kill. A zero timeout disables the watchdog.
func WithWatchdog(timeout, grace time.Duration) Option {
	return func(r *Runner) {
		r.timeout = timeout
		r.grace = grace
	}
}

// WithPolicy sets the transient classification policy.
func WithPolicy(policy Policy) Option {
	return func(r *Runner) {
		r.policy = policy
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "transcode")
	}
}

// NewRunner constructs a runner using DefaultProfile.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary:  "ffmpeg",
		profile: DefaultProfile,
		grace:   10 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Profile returns the encoding profile the runner applies.
func (r *Runner) Profile() Profile {
	return r.profile
}

// Transcode encodes input into output. durationSeconds scales the progress
// percentage; when it is unknown no percentages are reported. Failures are
// returned as *Error.
func (r *Runner) Transcode(ctx context.Context, input, output string, durationSeconds float64, progress func(Progress)) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return &Error{Kind: KindEncoder, Err: errors.New("input and output paths required")}
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := r.profile.Args(input, output)
	cmd := commandContext(runCtx, r.binary, args...) //nolint:gosec
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.grace
	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &Error{Kind: KindEncoder, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	r.logger.Debug("starting ffmpeg", logging.String("command", r.binary+" "+strings.Join(args, " ")))
	if err := cmd.Start(); err != nil {
		return &Error{Kind: KindEncoder, Err: fmt.Errorf("start ffmpeg: %w", err)}
	}

	parser := progressParser{duration: durationSeconds}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if sample, ok := parser.feed(scanner.Text()); ok && progress != nil {
			progress(sample)
		}
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	switch {
	case ctx.Err() != nil:
		return &Error{Kind: KindCanceled, Detail: stderr.String(), Err: ctx.Err()}
	case runCtx.Err() != nil:
		return &Error{Kind: KindTimeout, Detail: stderr.String(), Err: fmt.Errorf("watchdog fired after %s", r.timeout)}
	case waitErr != nil:
		detail := stderr.String()
		return &Error{Kind: r.policy.Classify(detail + " " + waitErr.Error()), Detail: detail, Err: waitErr}
	case scanErr != nil:
		return &Error{Kind: r.policy.Classify(scanErr.Error()), Err: fmt.Errorf("read ffmpeg progress: %w", scanErr)}
	}
	return nil
}

type progressParser struct {
	duration float64
	current  Progress
}

// feed consumes one key=value line and returns a sample at the end of each
// progress block.
func (p *progressParser) feed(line string) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// ffmpeg reports microseconds under both keys.
		if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
			p.current.OutTime = time.Duration(us) * time.Microsecond
		}
	case "speed":
		p.current.Speed = strings.TrimSpace(value)
	case "progress":
		sample := p.current
		sample.Done = value == "end"
		sample.Percent = -1
		if p.duration > 0 {
			sample.Percent = min(max(sample.OutTime.Seconds()/p.duration*100, 0), 100)
		}
		if sample.Done {
			sample.Percent = 100
		}
		return sample, true
	}
	return Progress{}, false
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}
