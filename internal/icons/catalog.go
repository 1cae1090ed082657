package icons

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lessonforge/internal/logging"
	"lessonforge/internal/textutil"
)

// Entry is one catalog icon. Name and Aliases are normalized; Path is absolute.
type Entry struct {
	Name    string
	Aliases []string
	Path    string
	Source  string
}

// Catalog holds every entry from the configured index files in load order.
type Catalog struct {
	entries  []Entry
	byName   map[string]int
	byAlias  map[string]int
	problems []string
}

// Entries returns the catalog entries in load order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Problems lists index files or entries that were skipped while loading.
func (c *Catalog) Problems() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.problems...)
}

func (c *Catalog) lookupName(name string) (Entry, bool) {
	if idx, ok := c.byName[name]; ok {
		return c.entries[idx], true
	}
	return Entry{}, false
}

func (c *Catalog) lookupAlias(name string) (Entry, bool) {
	if idx, ok := c.byAlias[name]; ok {
		return c.entries[idx], true
	}
	return Entry{}, false
}

// LoadCatalog reads every index file in order. Unreadable files and entries
// whose asset is missing are skipped and recorded as problems so a broken
// index degrades resolution instead of aborting a build. The first entry to
// claim a canonical name or alias keeps it.
func LoadCatalog(indexFiles []string, logger *slog.Logger) *Catalog {
	logger = logging.NewComponentLogger(logger, "icons")
	catalog := &Catalog{
		byName:  make(map[string]int),
		byAlias: make(map[string]int),
	}
	for _, file := range indexFiles {
		raws, err := readIndex(file)
		if err != nil {
			catalog.problems = append(catalog.problems, fmt.Sprintf("%s: %v", file, err))
			logging.WarnWithContext(logger, "icon index skipped", "icon_index_skipped",
				logging.String("index", file),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix or remove the file from icons.index_files"),
				logging.String(logging.FieldImpact, "icons from this index resolve through weaker tiers"),
			)
			continue
		}
		baseDir := filepath.Dir(file)
		for _, raw := range raws {
			catalog.add(raw, file, baseDir)
		}
	}
	logger.Debug("icon catalog loaded",
		logging.Int("entries", len(catalog.entries)),
		logging.Int("index_files", len(indexFiles)),
		logging.Int("problems", len(catalog.problems)),
	)
	return catalog
}

func (c *Catalog) add(raw rawEntry, source, baseDir string) {
	name := textutil.NormalizeName(firstNonEmpty(raw.Name, raw.CanonicalName))
	path := strings.TrimSpace(firstNonEmpty(raw.Path, raw.RelativePath))
	switch {
	case name == "":
		c.problems = append(c.problems, fmt.Sprintf("%s: entry without a name", source))
		return
	case path == "":
		c.problems = append(c.problems, fmt.Sprintf("%s: %s has no path", source, name))
		return
	}
	if _, taken := c.byName[name]; taken {
		c.problems = append(c.problems, fmt.Sprintf("%s: duplicate icon %s ignored", source, name))
		return
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, filepath.FromSlash(path))
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		c.problems = append(c.problems, fmt.Sprintf("%s: %s asset not found at %s", source, name, path))
		return
	}

	entry := Entry{Name: name, Path: path, Source: source}
	seen := map[string]struct{}{name: {}}
	for _, alias := range raw.Aliases {
		alias = textutil.NormalizeName(alias)
		if alias == "" {
			continue
		}
		if _, dup := seen[alias]; dup {
			continue
		}
		seen[alias] = struct{}{}
		entry.Aliases = append(entry.Aliases, alias)
	}

	idx := len(c.entries)
	c.entries = append(c.entries, entry)
	c.byName[name] = idx
	for _, alias := range entry.Aliases {
		if _, taken := c.byAlias[alias]; !taken {
			c.byAlias[alias] = idx
		}
	}
}

type rawEntry struct {
	Name          string   `json:"name" yaml:"name"`
	CanonicalName string   `json:"canonical_name" yaml:"canonical_name"`
	Aliases       []string `json:"aliases" yaml:"aliases"`
	Path          string   `json:"path" yaml:"path"`
	RelativePath  string   `json:"relative_path" yaml:"relative_path"`
}

// readIndex parses one index file. Three layouts are accepted: a list of
// entries, an object with an "icons" list, or an object keyed by canonical
// name whose values are entries or bare paths. Key order is preserved.
func readIndex(path string) ([]rawEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLIndex(data)
	default:
		return parseJSONIndex(data)
	}
}

func parseJSONIndex(data []byte) ([]rawEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, errors.New("parse json: index must be an array or object")
	}
	if delim == '[' {
		return decodeJSONList(dec)
	}

	var entries []rawEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		key, _ := keyTok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parse json %s: %w", key, err)
		}
		value = bytes.TrimSpace(value)
		switch {
		case key == "icons" && len(value) > 0 && value[0] == '[':
			var list []rawEntry
			if err := json.Unmarshal(value, &list); err != nil {
				return nil, fmt.Errorf("parse json icons: %w", err)
			}
			entries = append(entries, list...)
		case len(value) > 0 && value[0] == '"':
			var path string
			if err := json.Unmarshal(value, &path); err != nil {
				return nil, fmt.Errorf("parse json %s: %w", key, err)
			}
			entries = append(entries, rawEntry{Name: key, Path: path})
		default:
			var entry rawEntry
			if err := json.Unmarshal(value, &entry); err != nil {
				return nil, fmt.Errorf("parse json %s: %w", key, err)
			}
			if entry.Name == "" && entry.CanonicalName == "" {
				entry.Name = key
			}
			entries = append(entries, entry)
		}
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return entries, nil
}

func decodeJSONList(dec *json.Decoder) ([]rawEntry, error) {
	var entries []rawEntry
	for dec.More() {
		var entry rawEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("parse json entry %d: %w", len(entries), err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseYAMLIndex(data []byte) ([]rawEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var entries []rawEntry
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return entries, nil
	case yaml.MappingNode:
	default:
		return nil, errors.New("parse yaml: index must be a list or mapping")
	}

	var entries []rawEntry
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch {
		case key == "icons" && value.Kind == yaml.SequenceNode:
			var list []rawEntry
			if err := value.Decode(&list); err != nil {
				return nil, fmt.Errorf("parse yaml icons: %w", err)
			}
			entries = append(entries, list...)
		case value.Kind == yaml.ScalarNode:
			entries = append(entries, rawEntry{Name: key, Path: value.Value})
		default:
			var entry rawEntry
			if err := value.Decode(&entry); err != nil {
				return nil, fmt.Errorf("parse yaml %s: %w", key, err)
			}
			if entry.Name == "" && entry.CanonicalName == "" {
				entry.Name = key
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
