package analysis

import (
	"math"

	"github.com/unitech3d/stlquote/pkg/geometry"
	"github.com/unitech3d/stlquote/pkg/stl"
)

// VolumeResult is the enclosed volume of a mesh in cubic millimeters.
// OK is false when the mesh held no triangles, in which case Volume is 0.
type VolumeResult struct {
	Volume float64
	OK     bool
}

// EstimateVolume sums the signed volumes of the tetrahedra spanned by the
// origin and every triangle, and returns the absolute total.
//
// By the divergence theorem this is exact for closed, consistently oriented
// surfaces. For open or inconsistently wound meshes it is only an
// approximation and depends on where the origin sits relative to the model;
// the mesh is not checked or repaired and the call never fails.
func EstimateVolume(mesh *stl.Mesh) VolumeResult {
	if mesh.IsEmpty() {
		return VolumeResult{}
	}
	return VolumeResult{Volume: TrianglesVolume(mesh.Triangles), OK: true}
}

// TrianglesVolume is EstimateVolume over a bare triangle slice.
func TrianglesVolume(triangles []geometry.Triangle) float64 {
	total := 0.0
	for _, triangle := range triangles {
		total += triangle.SignedVolume()
	}
	return math.Abs(total)
}
