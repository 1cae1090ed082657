package pipeline

import (
	"path/filepath"
	"strconv"
	"strings"
)

const (
	voiceDir         = "voice"
	imagesDir        = "images"
	fullAudioName    = "full_audio"
	coverName        = "cover"
	manifestFileName = "manifest.json"
	lockFileName     = ".lessonforge.lock"
)

// Layout predicts every derived path for one lesson.
type Layout struct {
	Root     string
	AudioExt string
	ImageExt string
}

// Clip returns voice/<index>.<audio_ext>.
func (l Layout) Clip(index int) string {
	return filepath.Join(l.Root, voiceDir, strconv.Itoa(index)+"."+l.AudioExt)
}

// Cover returns images/cover.<image_ext>.
func (l Layout) Cover() string {
	return filepath.Join(l.Root, imagesDir, coverName+"."+l.ImageExt)
}

// FullAudio returns voice/full_audio.<audio_ext>.
func (l Layout) FullAudio() string {
	return filepath.Join(l.Root, voiceDir, fullAudioName+"."+l.AudioExt)
}

// Manifest returns the manifest location at the lesson root.
func (l Layout) Manifest() string {
	return filepath.Join(l.Root, manifestFileName)
}

// Lock returns the advisory lock file for the lesson.
func (l Layout) Lock() string {
	return filepath.Join(l.Root, lockFileName)
}

// Rel renders path relative to the lesson root with forward slashes. Paths
// outside the lesson are returned unchanged.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
