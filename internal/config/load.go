package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	userConfigPath    = "~/.config/lessonforge/config.toml"
	projectConfigName = "lessonforge.toml"
)

// ErrConfigExists is returned by WriteSample when the target is already present.
var ErrConfigExists = errors.New("config file already exists")

// Source records where a loaded configuration came from. Exists is false when
// no file was found and only defaults and environment overrides apply.
type Source struct {
	Path   string
	Exists bool
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(userConfigPath)
}

// Load reads the configuration at path, or searches the per-user location
// and then ./lessonforge.toml when path is empty. The result is normalized
// and validated.
func Load(path string) (*Config, Source, error) {
	src, err := locate(strings.TrimSpace(path))
	if err != nil {
		return nil, Source{}, err
	}

	cfg := Default()
	if src.Exists {
		if err := decodeFile(src.Path, &cfg); err != nil {
			return nil, src, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, src, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, src, err
	}
	return &cfg, src, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate resolves the config file. An explicit path is reported even when it
// does not exist; otherwise the first existing candidate wins and the user
// path is the fallback.
func locate(explicit string) (Source, error) {
	var candidates []string
	if explicit != "" {
		expanded, err := expandPath(explicit)
		if err != nil {
			return Source{}, err
		}
		candidates = []string{expanded}
	} else {
		user, err := DefaultConfigPath()
		if err != nil {
			return Source{}, err
		}
		project, err := filepath.Abs(projectConfigName)
		if err != nil {
			return Source{}, err
		}
		candidates = []string{user, project}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return Source{Path: candidate, Exists: true}, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist) && explicit != "":
			return Source{}, fmt.Errorf("stat config: %w", err)
		}
	}
	return Source{Path: candidates[0]}, nil
}

// ExpandPath resolves a leading ~ and makes the result absolute.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = home + value[1:]
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// WriteSample writes the annotated sample configuration to path, or to the
// per-user location when path is empty, and returns the file written. An
// existing file is only replaced when overwrite is set.
func WriteSample(path string, overwrite bool) (string, error) {
	target, err := DefaultConfigPath()
	if path = strings.TrimSpace(path); path != "" {
		target, err = expandPath(path)
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}

	if !overwrite {
		if _, statErr := os.Stat(target); statErr == nil {
			return target, fmt.Errorf("%w at %s", ErrConfigExists, target)
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return target, fmt.Errorf("check config path: %w", statErr)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return target, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(sampleConfig), 0o644); err != nil {
		return target, fmt.Errorf("write sample config: %w", err)
	}
	return target, nil
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}
