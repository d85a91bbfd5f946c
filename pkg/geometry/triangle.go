package geometry

// Triangle is one facet of a mesh. The vertex order defines the facet
// orientation and therefore the sign of SignedVolume.
type Triangle struct {
	V1, V2, V3 Vector3
}

// NewTriangle creates a new triangle
func NewTriangle(v1, v2, v3 Vector3) Triangle {
	return Triangle{V1: v1, V2: v2, V3: v3}
}

// Vertices returns the three corners in order.
func (t Triangle) Vertices() [3]Vector3 {
	return [3]Vector3{t.V1, t.V2, t.V3}
}

// Normal computes the unit normal following the right-hand rule
func (t Triangle) Normal() Vector3 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Normalize()
}

// Area returns the surface area of the triangle
func (t Triangle) Area() float64 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Length() / 2.0
}

// Perimeter returns the summed edge lengths
func (t Triangle) Perimeter() float64 {
	return t.V1.Distance(t.V2) + t.V2.Distance(t.V3) + t.V3.Distance(t.V1)
}

// SignedVolume returns the signed volume of the tetrahedron spanned by the
// origin and the triangle: dot(V1, cross(V2, V3)) / 6. Counter-clockwise
// facets seen from outside a closed surface contribute positively.
func (t Triangle) SignedVolume() float64 {
	return t.V1.Dot(t.V2.Cross(t.V3)) / 6.0
}

// Translate returns the triangle moved by offset.
func (t Triangle) Translate(offset Vector3) Triangle {
	return Triangle{V1: t.V1.Add(offset), V2: t.V2.Add(offset), V3: t.V3.Add(offset)}
}

// Scale returns the triangle with every coordinate multiplied by factor.
func (t Triangle) Scale(factor float64) Triangle {
	return Triangle{V1: t.V1.Mul(factor), V2: t.V2.Mul(factor), V3: t.V3.Mul(factor)}
}

// Center returns the centroid of the triangle
func (t Triangle) Center() Vector3 {
	return t.V1.Add(t.V2).Add(t.V3).Mul(1.0 / 3.0)
}
