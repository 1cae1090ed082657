package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lessonforge/internal/config"
	"lessonforge/internal/testsupport"
)

const introScript = `{
  "meta": {"title": "Compound Interest", "subtitle": "Why time matters"},
  "scenes": [
    {"scene_index": 1, "voiceover_script": "Money grows.", "icon": "coin"},
    {"scene_index": 2, "voiceover_script": "Time helps.", "icons": ["clock"]},
    {"scene_index": 3, "kind": "silent"}
  ]
}`

// stubFFmpeg writes a placeholder file at its last argument, which is where
// the composer asks for output.
const stubFFmpeg = `#!/bin/sh
for arg; do out="$arg"; done
printf 'composed' > "$out"
`

// stubFFprobe reports one second per clip and two seconds for the composed
// track so duration verification passes for a two-clip lesson.
const stubFFprobe = `#!/bin/sh
for arg; do path="$arg"; done
case "$path" in
  *full_audio*) d=2.000000 ;;
  *) d=1.000000 ;;
esac
printf '{"streams":[{"index":0,"codec_type":"audio","sample_rate":"44100","channels":2,"duration":"%s"}],"format":{"duration":"%s"}}' "$d" "$d"
`

type cliTestEnv struct {
	baseDir    string
	lessonsDir string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv(config.EnvForceCover, "false")
	t.Setenv(config.EnvForceNarration, "false")

	binDir := filepath.Join(base, "bin")
	ffmpeg := filepath.Join(binDir, "ffmpeg")
	ffprobe := filepath.Join(binDir, "ffprobe")
	writeExecutable(t, ffmpeg, stubFFmpeg)
	writeExecutable(t, ffprobe, stubFFprobe)

	lessonsDir := filepath.Join(base, "lessons")
	testsupport.WriteText(t, filepath.Join(lessonsDir, "intro", "script.json"), introScript)

	configPath := filepath.Join(base, "lessonforge.toml")
	writeTestConfig(t, configPath, base, ffmpeg, ffprobe)

	return &cliTestEnv{baseDir: base, lessonsDir: lessonsDir, configPath: configPath}
}

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeTestConfig(t *testing.T, path, base, ffmpeg, ffprobe string) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nlessons_dir = %q\nlog_dir = %q\nstate_dir = %q\n\n",
		filepath.Join(base, "lessons"), filepath.Join(base, "logs"), filepath.Join(base, "state"))
	fmt.Fprintf(&b, "[narration]\ncommand = [\"sh\", \"-c\", %q, \"{output}\", \"{text}\"]\n\n",
		`printf '%s' "$1" > "$0"`)
	fmt.Fprintf(&b, "[cover]\nwidth = 320\nheight = 180\n\n")
	fmt.Fprintf(&b, "[audio]\nffmpeg_binary = %q\nffprobe_binary = %q\n\n", ffmpeg, ffprobe)
	fmt.Fprintf(&b, "[build]\nmin_free_mib = 0\n\n[logging]\nlevel = \"error\"\n")
	testsupport.WriteText(t, path, b.String())
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--env-file", ""}
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
