package mandel

import (
	"context"
	"fmt"
	"image"
)

//go:generate go run github.com/marben/irpc/cmd/irpc

// ImgProvider hands out a fully rendered image, waiting for it if needed.
type ImgProvider interface {
	GetImage(ctx context.Context) (*image.Gray, error)
}

// Renderer renders one tile of a larger viewport.
// The returned image's bounds equal job.Tile (global pixel coordinates).
type Renderer interface {
	RenderTile(ctx context.Context, job TileJob) (*image.Gray, error)
}

// TileJob asks a Renderer for the pixels of Tile within a viewport.
// The viewport is kept in its components so the job can cross the wire.
type TileJob struct {
	Re, Im  float64 // viewport centre
	Scale   float64
	Width   int
	Height  int
	Tile    image.Rectangle
	MaxIter int
}

func NewTileJob(v Viewport, tile image.Rectangle, maxIter int) TileJob {
	return TileJob{
		Re:      real(v.Center),
		Im:      imag(v.Center),
		Scale:   v.Scale,
		Width:   v.Width,
		Height:  v.Height,
		Tile:    tile,
		MaxIter: maxIter,
	}
}

// Viewport returns the viewport the tile belongs to.
func (j TileJob) Viewport() Viewport {
	return Viewport{Center: complex(j.Re, j.Im), Scale: j.Scale, Width: j.Width, Height: j.Height}
}

// Validate checks the viewport, the iteration budget and that Tile is a
// non-empty rectangle inside the viewport's pixel grid.
func (j TileJob) Validate() error {
	if err := j.Viewport().Validate(); err != nil {
		return err
	}
	if j.MaxIter <= 0 {
		return &ParamError{Param: "max_iterations", Value: j.MaxIter, Constraint: ">= 1", Err: ErrInvalidIterationBudget}
	}
	grid := image.Rect(0, 0, j.Width, j.Height)
	if j.Tile.Empty() || !j.Tile.In(grid) {
		return fmt.Errorf("tile %v outside image %v", j.Tile, grid)
	}
	return nil
}
