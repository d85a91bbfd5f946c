package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/unitech3d/stlquote/internal/testutil"
	"github.com/unitech3d/stlquote/pkg/geometry"
	"github.com/unitech3d/stlquote/pkg/stl"
)

func meshOf(triangles []geometry.Triangle) *stl.Mesh {
	mesh := stl.NewMesh("test")
	for _, tri := range triangles {
		mesh.AddTriangle(tri)
	}
	return mesh
}

func TestEstimateVolume_UnitCube(t *testing.T) {
	result := EstimateVolume(meshOf(testutil.Cube(10)))

	assert.True(t, result.OK)
	assert.InEpsilon(t, 1000.0, result.Volume, 1e-6)
}

func TestEstimateVolume_ParsedCube(t *testing.T) {
	result := EstimateVolume(stl.Parse([]byte(testutil.CubeSTL(10))))

	assert.True(t, result.OK)
	assert.InEpsilon(t, 1000.0, result.Volume, 1e-6)
}

func TestEstimateVolume_Empty(t *testing.T) {
	assert.Equal(t, VolumeResult{Volume: 0, OK: false}, EstimateVolume(stl.NewMesh("")))
	assert.Equal(t, VolumeResult{Volume: 0, OK: false}, EstimateVolume(nil))
}

func TestEstimateVolume_InwardOrientationIsAbsolute(t *testing.T) {
	cube := testutil.Cube(10)
	inward := make([]geometry.Triangle, len(cube))
	for i, tri := range cube {
		inward[i] = geometry.NewTriangle(tri.V1, tri.V3, tri.V2)
	}

	assert.InEpsilon(t, 1000.0, EstimateVolume(meshOf(inward)).Volume, 1e-9)
}

func TestEstimateVolume_OpenMeshDependsOnOrigin(t *testing.T) {
	// Dropping the +x face leaves an open box. The origin-relative sum then
	// changes with translation; this is the documented approximation.
	open := testutil.Cube(10)[:10]
	shifted := make([]geometry.Triangle, len(open))
	for i, tri := range open {
		shifted[i] = tri.Translate(geometry.NewVector3(5, 0, 0))
	}

	a := EstimateVolume(meshOf(open)).Volume
	b := EstimateVolume(meshOf(shifted)).Volume
	assert.NotEqual(t, a, b)
}

func TestEstimateVolume_Tetrahedron(t *testing.T) {
	tris := testutil.Tetrahedron(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(6, 0, 0),
		geometry.NewVector3(0, 6, 0),
		geometry.NewVector3(0, 0, 6),
	)

	assert.InDelta(t, 36.0, EstimateVolume(meshOf(tris)).Volume, 1e-9)
}

func closedMesh(t *rapid.T) []geometry.Triangle {
	coord := rapid.Float64Range(-100, 100)
	extent := rapid.Float64Range(0.5, 50)

	min := geometry.NewVector3(coord.Draw(t, "x"), coord.Draw(t, "y"), coord.Draw(t, "z"))
	size := geometry.NewVector3(extent.Draw(t, "w"), extent.Draw(t, "d"), extent.Draw(t, "h"))
	box := testutil.Box(min, min.Add(size))

	if !rapid.Bool().Draw(t, "with_tetrahedron") {
		return box
	}
	// A second, disjoint closed shell placed beside the box.
	base := min.Add(geometry.NewVector3(size.X+10, 0, 0))
	edge := extent.Draw(t, "edge")
	return append(box, testutil.Tetrahedron(
		base,
		base.Add(geometry.NewVector3(edge, 0, 0)),
		base.Add(geometry.NewVector3(0, edge, 0)),
		base.Add(geometry.NewVector3(0, 0, edge)),
	)...)
}

func TestEstimateVolume_ScalesCubically(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tris := closedMesh(t)
		k := rapid.Float64Range(0.1, 10).Draw(t, "k")

		scaled := make([]geometry.Triangle, len(tris))
		for i, tri := range tris {
			scaled[i] = tri.Scale(k)
		}

		base := TrianglesVolume(tris)
		got := TrianglesVolume(scaled)
		want := base * k * k * k
		if math.Abs(got-want) > 1e-9*math.Max(1, want) {
			t.Fatalf("scaled volume %v, want %v (k=%v, base=%v)", got, want, k, base)
		}
	})
}

func TestEstimateVolume_ClosedMeshTranslationInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tris := closedMesh(t)
		offset := geometry.NewVector3(
			rapid.Float64Range(-500, 500).Draw(t, "dx"),
			rapid.Float64Range(-500, 500).Draw(t, "dy"),
			rapid.Float64Range(-500, 500).Draw(t, "dz"),
		)

		moved := make([]geometry.Triangle, len(tris))
		for i, tri := range tris {
			moved[i] = tri.Translate(offset)
		}

		a, b := TrianglesVolume(tris), TrianglesVolume(moved)
		if math.Abs(a-b) > 1e-6*math.Max(1, a) {
			t.Fatalf("translation changed closed volume: %v vs %v", a, b)
		}
	})
}
