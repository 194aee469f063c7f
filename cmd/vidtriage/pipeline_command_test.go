package main

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func stubPhases(t *testing.T, failPhase string) *[][]string {
	t.Helper()
	var calls [][]string
	orig := phaseCommand
	phaseCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, args)
		cs := append([]string{"-test.run=TestPhaseHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "PHASE_HELPER_FAIL="+failPhase)
		return cmd
	}
	t.Cleanup(func() { phaseCommand = orig })
	return &calls
}

func TestPipelineRunsCompressThenAnalyze(t *testing.T) {
	env := setupCLITestEnv(t)
	calls := stubPhases(t, "")

	if _, _, err := runCLI(t, []string{"pipeline", env.videoDir, "--limit", "3", "--force"}, env.configPath); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if len(*calls) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(*calls))
	}
	compress := strings.Join((*calls)[0], " ")
	analyze := strings.Join((*calls)[1], " ")
	for _, want := range []string{"--config " + env.configPath, "compress " + env.videoDir, "--clobber", "--limit 3", "--force"} {
		requireContains(t, compress, want)
	}
	for _, want := range []string{"analyze " + env.videoDir, "--mp4", "--force"} {
		requireContains(t, analyze, want)
	}
	if strings.Contains(analyze, "--limit") {
		t.Fatalf("analysis phase must not receive --limit: %s", analyze)
	}
}

func TestPipelineStopsWhenCompressionFails(t *testing.T) {
	env := setupCLITestEnv(t)
	calls := stubPhases(t, "compress")

	_, _, err := runCLI(t, []string{"pipeline", env.videoDir}, env.configPath)
	if err == nil {
		t.Fatal("expected pipeline to fail")
	}
	requireContains(t, err.Error(), "compression phase failed")
	if len(*calls) != 1 {
		t.Fatalf("analysis must not run after a failed compression phase, got %d phases", len(*calls))
	}
}

func TestPipelinePhasesForwardInterrupt(t *testing.T) {
	env := setupCLITestEnv(t)
	var children []*exec.Cmd
	orig := phaseCommand
	phaseCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestPhaseHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		children = append(children, cmd)
		return cmd
	}
	t.Cleanup(func() { phaseCommand = orig })

	if _, _, err := runCLI(t, []string{"pipeline", env.videoDir}, env.configPath); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(children))
	}
	for _, child := range children {
		if child.Cancel == nil || child.WaitDelay != phaseWaitDelay {
			t.Fatalf("phase %v must be interrupted, not killed, on cancel", child.Args)
		}
	}
}

func TestPhaseHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	fail := os.Getenv("PHASE_HELPER_FAIL")
	for _, arg := range args {
		if fail != "" && arg == fail {
			os.Exit(1)
		}
	}
	os.Exit(0)
}
