package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"lessonforge/internal/fileutil"
	"lessonforge/internal/icons"
)

// Manifest lists the assembled assets for the renderer. Paths are relative to
// the lesson root.
type Manifest struct {
	Lesson          string          `json:"lesson"`
	RunID           string          `json:"run_id"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Title           string          `json:"title"`
	Subtitle        string          `json:"subtitle,omitempty"`
	SeriesID        string          `json:"series_id,omitempty"`
	Script          string          `json:"script"`
	Cover           string          `json:"cover"`
	FullAudio       string          `json:"full_audio"`
	DurationSeconds float64         `json:"duration_seconds,omitempty"`
	Scenes          []ManifestScene `json:"scenes"`
}

// ManifestScene describes one scene's assets.
type ManifestScene struct {
	Index           int            `json:"scene_index"`
	Kind            string         `json:"kind"`
	Clip            string         `json:"clip,omitempty"`
	DurationSeconds float64        `json:"duration_seconds,omitempty"`
	Icons           []ManifestIcon `json:"icons,omitempty"`
}

// ManifestIcon is one resolved icon reference.
type ManifestIcon struct {
	Name     string  `json:"name"`
	Strategy string  `json:"strategy"`
	Path     string  `json:"path,omitempty"`
	Glyph    string  `json:"glyph,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

func manifestIcon(res icons.Resolution) ManifestIcon {
	return ManifestIcon{
		Name:     res.Query,
		Strategy: res.Strategy.String(),
		Path:     res.Path,
		Glyph:    res.Glyph,
		Score:    roundSeconds(res.Score),
	}
}

func writeManifest(path string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func roundSeconds(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
