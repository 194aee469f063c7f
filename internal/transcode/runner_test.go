package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"time"

	"vidtriage/internal/services"
)

var testPolicy = Policy{TransientPatterns: []string{"input/output error", "connection reset"}}

func stubFFmpeg(t *testing.T, mode string) *[]string {
	t.Helper()
	captured := &[]string{}
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return captured
}

func TestTranscodeStreamsProgress(t *testing.T) {
	captured := stubFFmpeg(t, "success")
	runner := NewRunner(WithPolicy(testPolicy))

	var samples []Progress
	err := runner.Transcode(context.Background(), "/videos/a.mov", "/tmp/a.mp4", 10, func(p Progress) {
		samples = append(samples, p)
	})
	if err != nil {
		t.Fatalf("Transcode returned error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d: %+v", len(samples), samples)
	}
	if samples[0].Percent != 25 || samples[1].Percent != 50 {
		t.Fatalf("unexpected percents %+v", samples)
	}
	if !samples[2].Done || samples[2].Percent != 100 {
		t.Fatalf("expected final sample to be done at 100, got %+v", samples[2])
	}
	if samples[1].Speed != "2.5x" {
		t.Fatalf("unexpected speed %q", samples[1].Speed)
	}

	args := strings.Join(*captured, " ")
	for _, fragment := range []string{"-progress pipe:1", "-c:v libx264", "-crf 23", "-c:a aac", "-b:a 128k", "-movflags +faststart"} {
		if !strings.Contains(args, fragment) {
			t.Fatalf("expected %q in args %q", fragment, args)
		}
	}
	if (*captured)[len(*captured)-1] != "/tmp/a.mp4" {
		t.Fatalf("expected output as last argument, got %v", *captured)
	}
}

func TestTranscodeUnknownDurationReportsNegativePercent(t *testing.T) {
	stubFFmpeg(t, "success")
	var first Progress
	seen := false
	err := NewRunner().Transcode(context.Background(), "/videos/a.mov", "/tmp/a.mp4", 0, func(p Progress) {
		if !seen {
			first, seen = p, true
		}
	})
	if err != nil {
		t.Fatalf("Transcode returned error: %v", err)
	}
	if first.Percent != -1 {
		t.Fatalf("expected unknown percent, got %v", first.Percent)
	}
}

func TestTranscodeClassifiesFailures(t *testing.T) {
	cases := []struct {
		mode   string
		kind   Kind
		marker error
	}{
		{"transient", KindTransient, services.ErrTransient},
		{"encoder", KindEncoder, services.ErrExternalTool},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			stubFFmpeg(t, tc.mode)
			err := NewRunner(WithPolicy(testPolicy)).Transcode(context.Background(), "/videos/a.mov", "/tmp/a.mp4", 10, nil)
			var terr *Error
			if !errors.As(err, &terr) {
				t.Fatalf("expected *Error, got %T %v", err, err)
			}
			if terr.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, terr.Kind)
			}
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v marker, got %v", tc.marker, err)
			}
			if IsTransient(err) != (tc.kind == KindTransient) {
				t.Fatalf("IsTransient mismatch for %s", tc.mode)
			}
		})
	}
}

func TestTranscodeWatchdogTerminatesProcess(t *testing.T) {
	stubFFmpeg(t, "hang")
	runner := NewRunner(WithWatchdog(200*time.Millisecond, 200*time.Millisecond))

	start := time.Now()
	err := runner.Transcode(context.Background(), "/videos/a.mov", "/tmp/a.mp4", 10, nil)
	var terr *Error
	if !errors.As(err, &terr) || terr.Kind != KindTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("watchdog took too long: %s", elapsed)
	}
}

func TestPolicyClassify(t *testing.T) {
	policy := Policy{TransientPatterns: []string{"Read Error", "", "operation canceled"}}
	if policy.Classify("av_interleaved_write_frame(): read error on input") != KindTransient {
		t.Fatal("expected case-insensitive transient match")
	}
	if policy.Classify("Unknown encoder 'libx265'") != KindEncoder {
		t.Fatal("expected encoder classification")
	}
	if (Policy{}).Classify("read error") != KindEncoder {
		t.Fatal("expected empty policy to classify everything as encoder")
	}
}

func TestProfileArgsOrder(t *testing.T) {
	args := DefaultProfile.Args("in.mov", "out.mp4")
	inputIdx := slices.Index(args, "-i")
	if inputIdx < 0 || args[inputIdx+1] != "in.mov" {
		t.Fatalf("expected input after -i, got %v", args)
	}
	if slices.Index(args, "-progress") > inputIdx {
		t.Fatal("expected progress flag before input")
	}
	if DefaultProfile.Extension != ".mp4" {
		t.Fatalf("unexpected extension %q", DefaultProfile.Extension)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		fmt.Println("frame=10")
		fmt.Println("out_time_us=2500000")
		fmt.Println("speed=2.1x")
		fmt.Println("progress=continue")
		fmt.Println("out_time_us=5000000")
		fmt.Println("speed=2.5x")
		fmt.Println("progress=continue")
		fmt.Println("out_time_us=9900000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "transient":
		fmt.Fprintln(os.Stderr, "/Volumes/Card/a.mov: Input/output error")
		os.Exit(1)
	case "encoder":
		fmt.Fprintln(os.Stderr, "Unknown encoder 'libx264'")
		os.Exit(1)
	case "hang":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	}
	os.Exit(2)
}
