package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultFFprobe = "ffprobe"

// ResolveFFprobe picks the ffprobe that pairs with ffmpegCommand. A configured
// value other than the bare default is used verbatim. Otherwise an executable
// ffprobe in the same directory as the resolved ffmpeg wins over PATH, which
// keeps both tools on the same build.
func ResolveFFprobe(ffmpegCommand, ffprobeCommand string) string {
	configured := strings.TrimSpace(ffprobeCommand)
	if configured != "" && configured != defaultFFprobe {
		return configured
	}
	ffmpegPath, err := exec.LookPath(strings.TrimSpace(ffmpegCommand))
	if err != nil {
		return defaultFFprobe
	}
	name := defaultFFprobe
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	sibling := filepath.Join(filepath.Dir(ffmpegPath), name)
	if executable(sibling) {
		return sibling
	}
	return defaultFFprobe
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
