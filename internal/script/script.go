package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"lessonforge/internal/services"
)

// Meta holds lesson-level metadata.
type Meta struct {
	Title    string
	Subtitle string
	SeriesID string
}

// Scene is one narrated segment of a lesson.
type Scene struct {
	Index         int
	Kind          Kind
	Narrated      bool
	NarrationText string
	Icons         []string
	// Metadata holds every scene field the build pipeline does not consume.
	Metadata map[string]any
}

// Lesson is a loaded, validated script.
type Lesson struct {
	id     string
	path   string
	meta   Meta
	scenes []Scene
}

// ID returns the lesson identifier: the name of the directory holding the script.
func (l *Lesson) ID() string { return l.id }

// Path returns the script file path.
func (l *Lesson) Path() string { return l.path }

// Dir returns the lesson directory.
func (l *Lesson) Dir() string { return filepath.Dir(l.path) }

// Meta returns lesson metadata.
func (l *Lesson) Meta() Meta { return l.meta }

// Scenes returns a copy of every scene ordered by index.
func (l *Lesson) Scenes() []Scene {
	out := make([]Scene, len(l.scenes))
	copy(out, l.scenes)
	return out
}

// NarratedScenes returns scenes that produce a narration clip, ordered by index.
func (l *Lesson) NarratedScenes() []Scene {
	out := make([]Scene, 0, len(l.scenes))
	for _, scene := range l.scenes {
		if scene.Narrated {
			out = append(out, scene)
		}
	}
	return out
}

// IconNames lists every icon referenced by any scene, in order of first
// appearance, without duplicates.
func (l *Lesson) IconNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, scene := range l.scenes {
		for _, name := range scene.Icons {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// Find returns the first of names present in lessonDir.
func Find(lessonDir string, names []string) (string, error) {
	for _, name := range names {
		candidate := filepath.Join(lessonDir, name)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat script %s: %w", candidate, err)
		}
	}
	problems := services.NewProblems("locate script")
	problems.Addf("%s: none of %s found", lessonDir, strings.Join(names, ", "))
	return "", problems.Err()
}

// Load reads and validates the script at path using the built-in kinds.
func Load(path string) (*Lesson, error) {
	return LoadWithKinds(path, DefaultKinds())
}

// LoadWithKinds reads and validates the script at path. The format is chosen
// by extension: .yaml and .yml are YAML, anything else is JSON.
func LoadWithKinds(path string, kinds Kinds) (*Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			problems := services.NewProblems("load script")
			problems.Addf("%s: script not found", path)
			return nil, problems.Err()
		}
		return nil, fmt.Errorf("read script: %w", err)
	}
	doc, err := decode(path, data)
	if err != nil {
		problems := services.NewProblems("load script")
		problems.Addf("%s: %v", path, err)
		return nil, problems.Err()
	}
	lesson, err := build(doc, kinds)
	if err != nil {
		var cfgErr *services.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Operation = "load script " + path
		}
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	lesson.path = abs
	lesson.id = filepath.Base(filepath.Dir(abs))
	return lesson, nil
}

func decode(path string, data []byte) (map[string]any, error) {
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}
	if doc == nil {
		return nil, errors.New("document is empty")
	}
	return doc, nil
}

// Fields consumed by the pipeline; everything else lands in Scene.Metadata.
const (
	fieldIndex     = "scene_index"
	fieldNarration = "voiceover_script"
	fieldKind      = "kind"
	fieldIcons     = "icons"
	fieldIcon      = "icon"
)

func build(doc map[string]any, kinds Kinds) (*Lesson, error) {
	problems := services.NewProblems("load script")
	lesson := &Lesson{}

	switch rawMeta := doc["meta"].(type) {
	case nil:
		problems.Addf("meta: missing")
	case map[string]any:
		lesson.meta = Meta{
			Title:    stringField(rawMeta, "title"),
			Subtitle: stringField(rawMeta, "subtitle"),
			SeriesID: firstNonEmpty(stringField(rawMeta, "series_id"), stringField(rawMeta, "project_id")),
		}
		if strings.TrimSpace(lesson.meta.Title) == "" {
			problems.Addf("meta.title: required")
		}
	default:
		problems.Addf("meta: expected an object")
	}

	rawScenes, ok := doc["scenes"].([]any)
	if !ok || len(rawScenes) == 0 {
		problems.Addf("scenes: at least one scene is required")
		return nil, problems.Err()
	}

	seen := make(map[int]int, len(rawScenes))
	for pos, raw := range rawScenes {
		label := fmt.Sprintf("scenes[%d]", pos)
		fields, ok := raw.(map[string]any)
		if !ok {
			problems.Addf("%s: expected an object", label)
			continue
		}
		scene, ok := buildScene(label, fields, kinds, problems)
		if scene.Index >= 1 {
			if first, dup := seen[scene.Index]; dup {
				problems.Addf("%s: scene_index %d already used by scenes[%d]", label, scene.Index, first)
				continue
			}
			seen[scene.Index] = pos
		}
		if ok {
			lesson.scenes = append(lesson.scenes, scene)
		}
	}

	sort.SliceStable(lesson.scenes, func(i, j int) bool { return lesson.scenes[i].Index < lesson.scenes[j].Index })
	if problems.Len() == 0 {
		for i, scene := range lesson.scenes {
			if scene.Index != i+1 {
				problems.Addf("scenes: scene_index must be contiguous from 1; expected %d, found %d", i+1, scene.Index)
				break
			}
		}
	}

	if err := problems.Err(); err != nil {
		return nil, err
	}
	return lesson, nil
}

func buildScene(label string, fields map[string]any, kinds Kinds, problems *services.Problems) (Scene, bool) {
	valid := true
	scene := Scene{Metadata: make(map[string]any)}

	index, ok := intField(fields[fieldIndex])
	switch {
	case !ok:
		problems.Addf("%s.scene_index: expected an integer", label)
		valid = false
	case index < 1:
		problems.Addf("%s.scene_index: must be >= 1, got %d", label, index)
		valid = false
	}
	scene.Index = index

	rawKind, _ := fields[fieldKind].(string)
	scene.Kind = normalizeKind(rawKind)
	spec, known := kinds.Lookup(scene.Kind)
	if !known {
		problems.Addf("%s.kind: unknown kind %q (known: %s)", label, rawKind, strings.Join(kinds.Names(), ", "))
		valid = false
	}
	scene.Narrated = spec.Narrated

	switch text := fields[fieldNarration].(type) {
	case nil:
	case string:
		scene.NarrationText = text
	default:
		problems.Addf("%s.voiceover_script: expected a string", label)
		valid = false
	}
	if known && spec.Narrated && strings.TrimSpace(scene.NarrationText) == "" {
		problems.Addf("%s.voiceover_script: required for %s scenes", label, scene.Kind)
		valid = false
	}

	icons, err := iconsField(fields)
	if err != nil {
		problems.Addf("%s.icons: %v", label, err)
		valid = false
	}
	scene.Icons = icons

	for key, value := range fields {
		switch key {
		case fieldIndex, fieldNarration, fieldKind, fieldIcon, fieldIcons:
			continue
		}
		scene.Metadata[key] = value
	}
	return scene, valid
}

func iconsField(fields map[string]any) ([]string, error) {
	var names []string
	if single, ok := fields[fieldIcon]; ok {
		name, ok := single.(string)
		if !ok {
			return nil, errors.New("icon must be a string")
		}
		names = append(names, name)
	}
	switch list := fields[fieldIcons].(type) {
	case nil:
	case []any:
		for i, item := range list {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d must be a string", i)
			}
			names = append(names, name)
		}
	default:
		return nil, errors.New("expected a list of names")
	}
	out := names[:0]
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

func intField(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
