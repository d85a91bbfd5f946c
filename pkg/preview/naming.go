package preview

import "strings"

const maxNameRunes = 50

// ArtifactName derives the preview file name for an uploaded filename:
// "preview_" + the base name without its extension, with spaces replaced by
// underscores and cut to 50 characters, + ext.
func ArtifactName(filename, ext string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}

	root := strings.ReplaceAll(stripExt(base), " ", "_")
	if r := []rune(root); len(r) > maxNameRunes {
		root = string(r[:maxNameRunes])
	}
	return "preview_" + root + ext
}

// stripExt drops the last extension. Leading dots belong to the name, so
// ".stl" and "..stl" are kept whole.
func stripExt(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return name
	}
	if strings.TrimLeft(name[:dot], ".") == "" {
		return name
	}
	return name[:dot]
}
