package icons

import (
	"path/filepath"
	"strings"
	"testing"

	"lessonforge/internal/testsupport"
)

func TestLoadCatalogLayoutsAndOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.svg", "b.svg", "c.svg", "d.svg", "e.svg"} {
		testsupport.WriteText(t, filepath.Join(root, "svg", name), name)
	}
	jsonIndex := filepath.Join(root, "one.json")
	testsupport.WriteText(t, jsonIndex, `{
  "zeta": "svg/a.svg",
  "alpha": {"aliases": ["first"], "path": "svg/b.svg"}
}`)
	wrapped := filepath.Join(root, "two.json")
	testsupport.WriteText(t, wrapped, `{"icons": [{"name": "wrapped", "path": "svg/c.svg"}]}`)
	yamlIndex := filepath.Join(root, "three.yaml")
	testsupport.WriteText(t, yamlIndex, `
mango:
  aliases: [fruit, Fruit]
  path: svg/d.svg
banana: svg/e.svg
zeta: svg/e.svg
`)

	catalog := LoadCatalog([]string{jsonIndex, wrapped, yamlIndex}, nil)
	var names []string
	for _, entry := range catalog.Entries() {
		names = append(names, entry.Name)
	}
	if got := strings.Join(names, ","); got != "zeta,alpha,wrapped,mango,banana" {
		t.Fatalf("unexpected catalog order %q", got)
	}
	mango, ok := catalog.lookupName("mango")
	if !ok || len(mango.Aliases) != 1 || mango.Aliases[0] != "fruit" {
		t.Fatalf("expected deduplicated normalized aliases, got %+v", mango)
	}
	if mango.Path != filepath.Join(root, "svg", "d.svg") {
		t.Fatalf("expected path relative to index file, got %q", mango.Path)
	}
	if entry, ok := catalog.lookupAlias("first"); !ok || entry.Name != "alpha" {
		t.Fatalf("alias lookup failed: %+v", entry)
	}
	problems := catalog.Problems()
	if len(problems) != 1 || !strings.Contains(problems[0], "duplicate icon zeta") {
		t.Fatalf("expected duplicate reported, got %v", problems)
	}
}

func TestLoadCatalogSkipsBrokenInputs(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteText(t, filepath.Join(root, "ok.svg"), "ok")
	good := filepath.Join(root, "good.json")
	testsupport.WriteText(t, good, `[{"name": "ok", "path": "ok.svg"}, {"name": "ghost", "path": "ghost.svg"}, {"path": "ok.svg"}]`)
	broken := filepath.Join(root, "broken.json")
	testsupport.WriteText(t, broken, `{"name": `)
	missing := filepath.Join(root, "missing.yaml")

	catalog := LoadCatalog([]string{broken, missing, good}, nil)
	if catalog.Len() != 1 {
		t.Fatalf("expected only the valid entry, got %d", catalog.Len())
	}
	if got := len(catalog.Problems()); got != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", got, catalog.Problems())
	}
}

func TestScanAssetsFiltersExtensionsAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"b/Two.PNG", "a/one.svg", ".cache/three.svg", "a/readme.md"} {
		testsupport.WriteText(t, filepath.Join(root, filepath.FromSlash(rel)), "x")
	}
	files := scanAssets([]string{root}, []string{"svg", "png"})
	var stems []string
	for _, f := range files {
		stems = append(stems, f.Stem)
	}
	if got := strings.Join(stems, ","); got != "one,two" {
		t.Fatalf("unexpected assets %q", got)
	}
}
