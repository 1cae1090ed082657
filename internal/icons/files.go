package icons

import (
	"io/fs"
	"path/filepath"
	"strings"

	"lessonforge/internal/textutil"
)

// assetFile is one image found under an asset directory.
type assetFile struct {
	Path string
	Stem string
}

// scanAssets walks every asset directory in order and lists image files with
// an accepted extension. filepath.WalkDir visits entries in lexical order, so
// the result is stable for a given tree. Unreadable subtrees are skipped.
func scanAssets(dirs, extensions []string) []assetFile {
	accepted := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		accepted["."+strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	var files []assetFile
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != dir && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			if _, ok := accepted[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
				return nil
			}
			files = append(files, assetFile{Path: path, Stem: textutil.StemName(d.Name())})
			return nil
		})
	}
	return files
}
