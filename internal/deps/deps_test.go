package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Optional", Command: "", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unconfigured command: %q", results[2].Detail)
	}

	err := MissingRequired(results)
	if err == nil {
		t.Fatal("expected missing dependency error")
	}
	if !strings.Contains(err.Error(), "Missing") || strings.Contains(err.Error(), "Optional") {
		t.Fatalf("unexpected missing error %q", err)
	}
	if MissingRequired(results[:1]) != nil {
		t.Fatal("expected nil when all required present")
	}
}

func TestMediaRequirements(t *testing.T) {
	reqs := MediaRequirements("ffmpeg", "/opt/bin/ffprobe")
	if len(reqs) != 2 || reqs[1].Command != "/opt/bin/ffprobe" {
		t.Fatalf("unexpected requirements %#v", reqs)
	}
}

func TestCheckEncoder(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	if status := CheckEncoder(context.Background(), "ffmpeg", "libx264"); !status.Available {
		t.Fatalf("expected libx264 available, got %#v", status)
	}
	if status := CheckEncoder(context.Background(), "ffmpeg", "libx265"); status.Available {
		t.Fatalf("expected libx265 missing, got %#v", status)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Println("Encoders:")
	fmt.Println(" V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)")
	fmt.Println(" A....D aac                  AAC (Advanced Audio Coding)")
	os.Exit(0)
}
