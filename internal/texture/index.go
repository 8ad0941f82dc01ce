package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths.
// Alpha-capable formats (TGA, PNG) take priority over JPEG for the
// same stem.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

var textureExts = map[string]bool{
	".tga":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// hasAlpha reports whether the extension's format can carry alpha.
func hasAlpha(ext string) bool {
	return ext == ".tga" || ext == ".png"
}

// BuildIndex scans assetDir recursively for texture files.
func BuildIndex(assetDir string) *Index {
	idx := &Index{entries: make(map[string]string)}

	filepath.WalkDir(assetDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !textureExts[ext] {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists {
			idx.entries[stem] = path
		} else if hasAlpha(ext) && !hasAlpha(strings.ToLower(filepath.Ext(existing))) {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	// Strip path prefix (e.g., "chars\\texture\\foo.png" → "foo")
	texName = strings.ReplaceAll(texName, "\\", "/")
	base := filepath.Base(texName)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
