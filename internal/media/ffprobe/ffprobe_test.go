package ffprobe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration:   "123.45",
			Size:       "1000",
			FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		},
	}
	if !result.HasVideo() || !result.HasAudio() {
		t.Fatal("expected video and audio streams")
	}
	if w, h := result.Resolution(); w != 1920 || h != 1080 {
		t.Fatalf("unexpected resolution %dx%d", w, h)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.Container() != "mov" {
		t.Fatalf("unexpected container %q", result.Container())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "8.5"}},
		Format: Format{
			Duration: "N/A",
			Size:     "-1",
		},
	}
	if result.DurationSeconds() != 8.5 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.HasAudio() {
		t.Fatal("expected no audio stream")
	}
}

func TestInspectParsesOutput(t *testing.T) {
	restore := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
	t.Cleanup(func() { commandContext = restore })

	result, err := Inspect(context.Background(), "ffprobe", "/videos/clip.mov")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if result.Format.Filename != "/videos/clip.mov" {
		t.Fatalf("expected path to reach ffprobe, got %q", result.Format.Filename)
	}

	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	path := os.Args[len(os.Args)-1]
	fmt.Fprintf(os.Stdout, `{"streams":[{"index":0,"codec_type":"video","width":640,"height":480}],"format":{"filename":%q,"duration":"12.5","size":"4096","format_name":"mov,mp4"}}`, path)
	os.Exit(0)
}
