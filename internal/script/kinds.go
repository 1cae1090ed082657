package script

import (
	"sort"
	"strings"
)

// Kind identifies how a scene participates in the build.
type Kind string

const (
	// KindNarrated scenes produce a narration clip and take part in composition.
	KindNarrated Kind = "narrated"
	// KindSilent scenes carry no narration and are skipped by the audio stages.
	KindSilent Kind = "silent"
)

// KindSpec describes what the pipeline does with scenes of a kind.
type KindSpec struct {
	Narrated bool
}

// Kinds maps scene kinds to their handling. Lookups are case-insensitive.
type Kinds map[Kind]KindSpec

// DefaultKinds returns a fresh table holding the built-in kinds.
func DefaultKinds() Kinds {
	return Kinds{
		KindNarrated: {Narrated: true},
		KindSilent:   {Narrated: false},
	}
}

// Register adds or replaces a kind.
func (k Kinds) Register(kind Kind, spec KindSpec) {
	k[normalizeKind(string(kind))] = spec
}

// Lookup returns the spec for kind.
func (k Kinds) Lookup(kind Kind) (KindSpec, bool) {
	spec, ok := k[normalizeKind(string(kind))]
	return spec, ok
}

// Names lists registered kinds alphabetically.
func (k Kinds) Names() []string {
	names := make([]string, 0, len(k))
	for kind := range k {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}

func normalizeKind(raw string) Kind {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return KindNarrated
	}
	return Kind(raw)
}
