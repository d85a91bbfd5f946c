package preview

import (
	"context"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/unitech3d/stlquote/pkg/geometry"
)

// RasterRenderer draws the wireframe with an anti-aliased path rasterizer.
// It keeps no state and is safe for concurrent use.
type RasterRenderer struct{}

// NewRasterRenderer creates a raster backend
func NewRasterRenderer() *RasterRenderer {
	return &RasterRenderer{}
}

// Render strokes each triangle outline. With Supersample > 1 the wireframe is
// drawn at that multiple of the output size and scaled down with Catmull-Rom.
func (r *RasterRenderer) Render(ctx context.Context, triangles []geometry.Triangle, opts Options) (image.Image, error) {
	opts = opts.withDefaults()
	triangles = opts.limit(triangles)

	ss := opts.Supersample
	width, height := opts.Width*ss, opts.Height*ss
	halfWidth := opts.LineWidth * float64(ss) / 2
	margin := math.Max(4*float64(ss), 2*halfWidth)

	proj, err := fitXY(triangles, width, height, margin)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	// One rasterizer pass per palette color keeps the number of full-image
	// composites bounded regardless of the triangle count.
	for c, col := range palette {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c >= len(triangles) {
			break
		}

		z := vector.NewRasterizer(width, height)
		z.DrawOp = draw.Over
		for i := c; i < len(triangles); i += len(palette) {
			verts := triangles[i].Vertices()
			for j := range verts {
				x1, y1 := proj.apply(verts[j])
				x2, y2 := proj.apply(verts[(j+1)%3])
				strokeSegment(z, x1, y1, x2, y2, halfWidth)
			}
		}
		z.Draw(canvas, canvas.Bounds(), image.NewUniform(col), image.Point{})
	}

	if ss == 1 {
		return canvas, nil
	}

	out := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return out, nil
}

// strokeSegment adds a closed quad of the given half width around the
// segment. All quads share the same winding, so overlaps saturate instead of
// cancelling.
func strokeSegment(z *vector.Rasterizer, x1, y1, x2, y2, halfWidth float64) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		// Degenerate edge: a square dot.
		dx, dy, length = 1, 0, 1
		x1 -= halfWidth
		x2 += halfWidth
	}

	nx := -dy / length * halfWidth
	ny := dx / length * halfWidth

	z.MoveTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x2+nx), float32(y2+ny))
	z.LineTo(float32(x2-nx), float32(y2-ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.ClosePath()
}
