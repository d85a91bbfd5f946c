package analysis

import (
	"fmt"

	"github.com/unitech3d/stlquote/pkg/geometry"
	"github.com/unitech3d/stlquote/pkg/stl"
)

// Report summarizes the geometry of a parsed mesh
type Report struct {
	Name          string
	TriangleCount int
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	SurfaceArea   float64
	Volume        VolumeResult
}

// Analyze measures a mesh. An empty mesh yields a zero report with
// Volume.OK false.
func Analyze(mesh *stl.Mesh) *Report {
	report := &Report{Volume: EstimateVolume(mesh)}
	if mesh == nil {
		return report
	}

	report.Name = mesh.Name
	report.TriangleCount = mesh.TriangleCount()
	report.BoundingBox = mesh.BoundingBox()
	report.Dimensions = report.BoundingBox.Size()
	report.SurfaceArea = mesh.SurfaceArea()
	return report
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
