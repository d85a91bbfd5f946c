// Package preview draws flat wireframe previews of uploaded meshes and keeps
// them as image files next to the static assets.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/unitech3d/stlquote/pkg/geometry"
)

// DefaultMaxTriangles caps how many triangles a preview draws. Large meshes
// are cut off after this many facets in file order to keep rendering fast.
const DefaultMaxTriangles = 2000

// ErrUnavailable is returned by renderers that cannot draw at all.
var ErrUnavailable = errors.New("preview rendering unavailable")

// Renderer draws triangles, projected orthographically onto the XY plane,
// into an image. Implementations must honor Options.MaxTriangles.
type Renderer interface {
	Render(ctx context.Context, triangles []geometry.Triangle, opts Options) (image.Image, error)
}

// Options control the preview image.
type Options struct {
	Width        int         // output width in pixels
	Height       int         // output height in pixels
	LineWidth    float64     // stroke width in output pixels
	MaxTriangles int         // triangles drawn at most
	Supersample  int         // render scale factor before downsampling (raster backend)
	Background   color.Color // fill behind the wireframe
}

// DefaultOptions matches a 4.2 x 4.0 inch figure at 150 dpi.
func DefaultOptions() Options {
	return Options{
		Width:        630,
		Height:       600,
		LineWidth:    0.85,
		MaxTriangles: DefaultMaxTriangles,
		Supersample:  2,
		Background:   color.White,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.LineWidth <= 0 {
		o.LineWidth = d.LineWidth
	}
	if o.MaxTriangles <= 0 {
		o.MaxTriangles = d.MaxTriangles
	}
	if o.Supersample <= 0 {
		o.Supersample = 1
	}
	if o.Background == nil {
		o.Background = d.Background
	}
	return o
}

// limit returns the drawable prefix of triangles: at most MaxTriangles, and
// only those whose vertices are all finite.
func (o Options) limit(triangles []geometry.Triangle) []geometry.Triangle {
	if len(triangles) > o.MaxTriangles {
		triangles = triangles[:o.MaxTriangles]
	}

	drawable := triangles[:0:0]
	for _, t := range triangles {
		if t.V1.IsFinite() && t.V2.IsFinite() && t.V3.IsFinite() {
			drawable = append(drawable, t)
		}
	}
	return drawable
}

// palette cycles per triangle, like the default line color cycle of common
// plotting tools.
var palette = []color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff},
	{0xff, 0x7f, 0x0e, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff},
	{0xd6, 0x27, 0x28, 0xff},
	{0x94, 0x67, 0xbd, 0xff},
	{0x8c, 0x56, 0x4b, 0xff},
	{0xe3, 0x77, 0xc2, 0xff},
	{0x7f, 0x7f, 0x7f, 0xff},
	{0xbc, 0xbd, 0x22, 0xff},
	{0x17, 0xbe, 0xcf, 0xff},
}

// projection maps model XY coordinates onto image pixels with equal scale on
// both axes. Image Y grows downwards, model Y upwards.
type projection struct {
	scale   float64
	centerX float64
	centerY float64
	halfW   float64
	halfH   float64
}

// fitXY computes the projection that centers the triangles' XY extent inside
// a width x height image, leaving margin pixels on every side.
func fitXY(triangles []geometry.Triangle, width, height int, margin float64) (projection, error) {
	if len(triangles) == 0 {
		return projection{}, fmt.Errorf("no drawable triangles")
	}

	bbox := geometry.NewBoundingBox()
	for _, t := range triangles {
		bbox.Extend(t.V1)
		bbox.Extend(t.V2)
		bbox.Extend(t.V3)
	}
	size := bbox.Size()
	center := bbox.Center()

	availW := float64(width) - 2*margin
	availH := float64(height) - 2*margin
	if availW <= 0 || availH <= 0 {
		return projection{}, fmt.Errorf("image %dx%d too small for margin %.1f", width, height, margin)
	}

	scale := math.Inf(1)
	if size.X > 0 {
		scale = availW / size.X
	}
	if size.Y > 0 {
		scale = math.Min(scale, availH/size.Y)
	}
	if math.IsInf(scale, 1) {
		// Every vertex shares one XY point; draw it at unit scale.
		scale = 1
	}

	return projection{
		scale:   scale,
		centerX: center.X,
		centerY: center.Y,
		halfW:   float64(width) / 2,
		halfH:   float64(height) / 2,
	}, nil
}

func (p projection) apply(v geometry.Vector3) (x, y float64) {
	x = p.halfW + (v.X-p.centerX)*p.scale
	y = p.halfH - (v.Y-p.centerY)*p.scale
	return x, y
}

// NewRenderer returns the backend registered under name: "raster", "fyne"
// or "none".
func NewRenderer(name string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "", "raster":
		return NewRasterRenderer(), nil
	case "fyne":
		return NewFyneRenderer(), nil
	case "none", "off", "disabled":
		return NoopRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown preview backend: %s (expected raster, fyne or none)", name)
	}
}

// NoopRenderer never draws; every request degrades to "no preview".
type NoopRenderer struct{}

// Render always returns ErrUnavailable.
func (NoopRenderer) Render(context.Context, []geometry.Triangle, Options) (image.Image, error) {
	return nil, ErrUnavailable
}
