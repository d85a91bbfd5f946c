package preview

import (
	"context"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/software"
	"fyne.io/fyne/v2/test"

	"github.com/unitech3d/stlquote/pkg/geometry"
)

// FyneRenderer lays the wireframe out as canvas lines and captures it with
// fyne's software painter. No display is needed. Fyne keeps global state, so
// renders are serialized.
type FyneRenderer struct {
	mu   sync.Mutex
	once sync.Once
}

// NewFyneRenderer creates a fyne backend
func NewFyneRenderer() *FyneRenderer {
	return &FyneRenderer{}
}

// Render builds one canvas.Line per triangle edge and paints them offscreen.
func (r *FyneRenderer) Render(ctx context.Context, triangles []geometry.Triangle, opts Options) (image.Image, error) {
	opts = opts.withDefaults()
	triangles = opts.limit(triangles)

	margin := 4 + opts.LineWidth
	proj, err := fitXY(triangles, opts.Width, opts.Height, margin)
	if err != nil {
		return nil, err
	}

	size := fyne.NewSize(float32(opts.Width), float32(opts.Height))

	background := canvas.NewRectangle(opts.Background)
	background.Move(fyne.NewPos(0, 0))
	background.Resize(size)

	objects := make([]fyne.CanvasObject, 0, 1+3*len(triangles))
	objects = append(objects, background)
	for i, triangle := range triangles {
		col := palette[i%len(palette)]
		vertices := triangle.Vertices()

		for j := range vertices {
			x1, y1 := proj.apply(vertices[j])
			x2, y2 := proj.apply(vertices[(j+1)%3])

			line := canvas.NewLine(col)
			line.StrokeWidth = float32(opts.LineWidth)
			line.Position1 = fyne.NewPos(float32(x1), float32(y1))
			line.Position2 = fyne.NewPos(float32(x2), float32(y2))
			objects = append(objects, line)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.once.Do(func() {
		if fyne.CurrentApp() == nil {
			test.NewApp()
		}
	})

	c := software.NewTransparentCanvas()
	c.SetPadded(false)
	c.SetContent(container.NewWithoutLayout(objects...))
	c.Resize(size)

	return c.Capture(), nil
}
