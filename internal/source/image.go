package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions accepted when scanning a directory
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".pdf"}

func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// List expands path into the inputs it names: the file itself, or every
// supported file directly inside a directory, sorted by name.
func List(path string) ([]Input, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return []Input{FromPath(path)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && Supported(entry.Name()) {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(paths)

	inputs := make([]Input, len(paths))
	for i, p := range paths {
		inputs[i] = FromPath(p)
	}
	return inputs, nil
}
