// Package testutil holds mesh fixtures shared by tests across packages.
package testutil

import (
	"fmt"
	"strings"

	"github.com/unitech3d/stlquote/pkg/geometry"
)

// Box returns the 12 outward-facing triangles of an axis-aligned box.
func Box(min, max geometry.Vector3) []geometry.Triangle {
	corner := func(x, y, z bool) geometry.Vector3 {
		v := min
		if x {
			v.X = max.X
		}
		if y {
			v.Y = max.Y
		}
		if z {
			v.Z = max.Z
		}
		return v
	}
	tri := geometry.NewTriangle

	return []geometry.Triangle{
		// bottom (-z)
		tri(corner(false, false, false), corner(false, true, false), corner(true, true, false)),
		tri(corner(false, false, false), corner(true, true, false), corner(true, false, false)),
		// top (+z)
		tri(corner(false, false, true), corner(true, false, true), corner(true, true, true)),
		tri(corner(false, false, true), corner(true, true, true), corner(false, true, true)),
		// front (-y)
		tri(corner(false, false, false), corner(true, false, false), corner(true, false, true)),
		tri(corner(false, false, false), corner(true, false, true), corner(false, false, true)),
		// back (+y)
		tri(corner(false, true, false), corner(false, true, true), corner(true, true, true)),
		tri(corner(false, true, false), corner(true, true, true), corner(true, true, false)),
		// left (-x)
		tri(corner(false, false, false), corner(false, false, true), corner(false, true, true)),
		tri(corner(false, false, false), corner(false, true, true), corner(false, true, false)),
		// right (+x)
		tri(corner(true, false, false), corner(true, true, false), corner(true, true, true)),
		tri(corner(true, false, false), corner(true, true, true), corner(true, false, true)),
	}
}

// Cube returns a box from the origin to (edge, edge, edge).
func Cube(edge float64) []geometry.Triangle {
	return Box(geometry.Vector3{}, geometry.NewVector3(edge, edge, edge))
}

// Tetrahedron returns the four consistently oriented faces spanned by a, b, c, d.
// Orientation is outward or inward depending on the handedness of the points.
func Tetrahedron(a, b, c, d geometry.Vector3) []geometry.Triangle {
	return []geometry.Triangle{
		geometry.NewTriangle(a, b, c),
		geometry.NewTriangle(a, c, d),
		geometry.NewTriangle(a, d, b),
		geometry.NewTriangle(b, d, c),
	}
}

// ASCII renders triangles as an ASCII STL document.
func ASCII(name string, triangles []geometry.Triangle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "solid %s\n", name)
	for _, t := range triangles {
		n := t.Normal()
		fmt.Fprintf(&sb, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		sb.WriteString("    outer loop\n")
		for _, v := range t.Vertices() {
			fmt.Fprintf(&sb, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		sb.WriteString("    endloop\n")
		sb.WriteString("  endfacet\n")
	}
	fmt.Fprintf(&sb, "endsolid %s\n", name)
	return sb.String()
}

// CubeSTL is the ASCII STL text of Cube(edge).
func CubeSTL(edge float64) string {
	return ASCII("cube", Cube(edge))
}
