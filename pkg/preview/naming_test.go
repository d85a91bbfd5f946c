package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"cube.stl", "preview_cube.png"},
		{"my part v2.stl", "preview_my_part_v2.png"},
		{"archive.tar.stl", "preview_archive.tar.png"},
		{"noext", "preview_noext.png"},
		{".stl", "preview_.stl.png"},
		{"..stl", "preview_..stl.png"},
		{"dir/sub/part.stl", "preview_part.png"},
		{`C:\Users\me\part.STL`, "preview_part.png"},
		{"../../etc/passwd", "preview_passwd.png"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactName(tt.filename, ".png"))
		})
	}
}

func TestArtifactName_TruncatesRunes(t *testing.T) {
	long := strings.Repeat("ж", 80) + ".stl"
	name := ArtifactName(long, ".webp")

	assert.Equal(t, "preview_"+strings.Repeat("ж", 50)+".webp", name)
}
