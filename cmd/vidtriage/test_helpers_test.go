package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	videoDir   string
	binDir     string
}

// setupCLITestEnv isolates HOME, the working directory and the AI key, and
// writes a config whose scratch dir and binaries live under a temp root.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	videos := filepath.Join(base, "videos")
	bin := filepath.Join(base, "bin")
	for _, dir := range []string{home, videos, bin} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Chdir(base)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "vidtriage-test.toml"),
		videoDir:   videos,
		binDir:     bin,
	}
	env.writeStub(t, "ffmpeg", "exit 0")
	env.writeStub(t, "ffprobe", `echo '{"format":{"duration":"4.0"}}'`)
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeStub(t *testing.T, name, body string) {
	t.Helper()
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(e.binDir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
scratch_dir = %q

[compression]
retry_attempts = 2
retry_delay_seconds = 0
removable_roots = []

[binaries]
ffmpeg = %q
ffprobe = %q
`,
		filepath.Join(e.baseDir, "scratch"),
		filepath.Join(e.binDir, "ffmpeg"),
		filepath.Join(e.binDir, "ffprobe"),
	)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
