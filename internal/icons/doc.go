// Package icons resolves symbolic icon names to image assets.
//
// A Catalog is loaded from one or more index files (JSON or YAML) listing
// canonical names, aliases, and asset paths. Resolver walks a fixed sequence
// of tiers: exact name, alias, fuzzy similarity against every catalog name,
// a literal filename search across the asset directories, a keyword
// substring search, and finally a placeholder glyph. Resolve never fails.
//
// The catalog and the filename index are built lazily on first use and are
// read-only afterwards, so one Resolver can serve concurrent lesson builds.
package icons
