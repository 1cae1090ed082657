package icons

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"lessonforge/internal/config"
	"lessonforge/internal/logging"
	"lessonforge/internal/textutil"
)

// Strategy names the tier that produced a resolution.
type Strategy int

const (
	StrategyExact Strategy = iota
	StrategyAlias
	StrategyFuzzy
	StrategyFilenameSearch
	StrategyKeywordSubstring
	StrategyPlaceholder
)

func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyAlias:
		return "alias"
	case StrategyFuzzy:
		return "fuzzy"
	case StrategyFilenameSearch:
		return "filename"
	case StrategyKeywordSubstring:
		return "keyword"
	case StrategyPlaceholder:
		return "placeholder"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Resolution is the outcome of one lookup. Exactly one of Path and Glyph is set.
type Resolution struct {
	Query    string
	Strategy Strategy
	// Score is the similarity for fuzzy and keyword matches.
	Score float64
	// Match is the catalog name or file stem that matched.
	Match string
	Path  string
	Glyph string
}

// IsPlaceholder reports whether the glyph fallback was used.
func (r Resolution) IsPlaceholder() bool { return r.Strategy == StrategyPlaceholder }

// Options configures a Resolver.
type Options struct {
	IndexFiles       []string
	AssetDirs        []string
	Extensions       []string
	FuzzyThreshold   float64
	KeywordThreshold float64
	PlaceholderGlyph string
}

// OptionsFromConfig maps the [icons] section onto resolver options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		IndexFiles:       append([]string(nil), cfg.Icons.IndexFiles...),
		AssetDirs:        append([]string(nil), cfg.Icons.AssetDirs...),
		Extensions:       append([]string(nil), cfg.Icons.Extensions...),
		FuzzyThreshold:   cfg.Icons.FuzzyThreshold,
		KeywordThreshold: cfg.Icons.KeywordThreshold,
		PlaceholderGlyph: cfg.Icons.PlaceholderGlyph,
	}
}

// Resolver maps icon names to assets.
type Resolver struct {
	opts   Options
	logger *slog.Logger

	catalogOnce sync.Once
	catalog     *Catalog

	filesOnce sync.Once
	files     []assetFile
}

// NewResolver constructs a resolver. Nothing is read from disk until the
// first Resolve call.
func NewResolver(opts Options, logger *slog.Logger) *Resolver {
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = 0.6
	}
	if opts.KeywordThreshold <= 0 {
		opts.KeywordThreshold = 0.5
	}
	if strings.TrimSpace(opts.PlaceholderGlyph) == "" {
		opts.PlaceholderGlyph = "?"
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{"svg", "png"}
	}
	return &Resolver{opts: opts, logger: logging.NewComponentLogger(logger, "icons")}
}

// Catalog returns the loaded catalog, loading it if needed.
func (r *Resolver) Catalog() *Catalog {
	r.catalogOnce.Do(func() {
		r.catalog = LoadCatalog(r.opts.IndexFiles, r.logger)
	})
	return r.catalog
}

func (r *Resolver) assetFiles() []assetFile {
	r.filesOnce.Do(func() {
		r.files = scanAssets(r.opts.AssetDirs, r.opts.Extensions)
		r.logger.Debug("icon assets indexed", logging.Int("files", len(r.files)))
	})
	return r.files
}

// Resolve maps name to an asset. It never fails: when every tier misses, the
// placeholder glyph is returned and a warning is logged.
func (r *Resolver) Resolve(ctx context.Context, name string) Resolution {
	query := textutil.NormalizeName(name)
	res := r.resolve(query)
	res.Query = name

	logger := logging.WithContext(ctx, r.logger)
	if res.IsPlaceholder() {
		logging.WarnWithContext(logger, "icon resolved to placeholder", "icon_placeholder",
			logging.String("icon", name),
			logging.String("glyph", res.Glyph),
			logging.String(logging.FieldErrorHint, "add the name or an alias to an icon index"),
			logging.String(logging.FieldImpact, "scene renders a placeholder glyph"),
		)
		return res
	}
	attrs := logging.DecisionAttrs("icon_resolution", res.Strategy.String(), res.Match)
	attrs = append(attrs, logging.String("icon", name), logging.String("path", res.Path))
	if res.Strategy == StrategyFuzzy || res.Strategy == StrategyKeywordSubstring {
		attrs = append(attrs, logging.Float64("score", res.Score))
	}
	logger.Debug("icon resolved", logging.Args(attrs...)...)
	return res
}

// ResolveAll resolves names in order.
func (r *Resolver) ResolveAll(ctx context.Context, names []string) []Resolution {
	out := make([]Resolution, 0, len(names))
	for _, name := range names {
		out = append(out, r.Resolve(ctx, name))
	}
	return out
}

func (r *Resolver) resolve(query string) Resolution {
	placeholder := Resolution{Strategy: StrategyPlaceholder, Glyph: r.opts.PlaceholderGlyph}
	if query == "" {
		return placeholder
	}

	catalog := r.Catalog()
	if entry, ok := catalog.lookupName(query); ok {
		return Resolution{Strategy: StrategyExact, Match: entry.Name, Path: entry.Path, Score: 1}
	}
	if entry, ok := catalog.lookupAlias(query); ok {
		return Resolution{Strategy: StrategyAlias, Match: entry.Name, Path: entry.Path, Score: 1}
	}
	if res, ok := r.fuzzy(catalog, query); ok {
		return res
	}

	files := r.assetFiles()
	for _, file := range files {
		if file.Stem == query {
			return Resolution{Strategy: StrategyFilenameSearch, Match: file.Stem, Path: file.Path, Score: 1}
		}
	}
	if res, ok := r.keyword(files, query); ok {
		return res
	}
	return placeholder
}

// fuzzy scores the query against every canonical name and alias. Only a
// strictly higher score replaces the current best, so ties keep the entry
// seen first.
func (r *Resolver) fuzzy(catalog *Catalog, query string) (Resolution, bool) {
	var (
		best      Resolution
		bestScore float64
	)
	for _, entry := range catalog.entries {
		candidates := append([]string{entry.Name}, entry.Aliases...)
		for _, candidate := range candidates {
			score := textutil.SimilarityRatio(query, candidate)
			if score > bestScore {
				bestScore = score
				best = Resolution{Strategy: StrategyFuzzy, Match: entry.Name, Path: entry.Path, Score: score}
			}
		}
	}
	if bestScore > r.opts.FuzzyThreshold {
		return best, true
	}
	return Resolution{}, false
}

// keyword accepts files whose stem contains the query or is contained by it,
// provided the similarity also clears the keyword threshold.
func (r *Resolver) keyword(files []assetFile, query string) (Resolution, bool) {
	var (
		best      Resolution
		bestScore float64
	)
	for _, file := range files {
		if file.Stem == "" {
			continue
		}
		if !strings.Contains(file.Stem, query) && !strings.Contains(query, file.Stem) {
			continue
		}
		score := textutil.SimilarityRatio(query, file.Stem)
		if score > bestScore {
			bestScore = score
			best = Resolution{Strategy: StrategyKeywordSubstring, Match: file.Stem, Path: file.Path, Score: score}
		}
	}
	if bestScore > r.opts.KeywordThreshold {
		return best, true
	}
	return Resolution{}, false
}
