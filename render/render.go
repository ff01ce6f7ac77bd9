// Package render fills intensity buffers and tiles on the local CPU.
package render

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	mandel "github.com/marben/gray_mandel"
)

// Local renders tiles with the calling goroutine.
type Local struct {
	// OnTileRender, if set, is called before each tile is rendered.
	OnTileRender func(tile image.Rectangle)
}

var _ mandel.Renderer = Local{}

// RenderTile implements mandel.Renderer. The returned image's bounds are
// job.Tile, so pixel (x, y) of the full viewport is at (x, y) in the tile.
func (l Local) RenderTile(ctx context.Context, job mandel.TileJob) (*image.Gray, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("render tile: %w", err)
	}
	e, err := mandel.NewEvaluator(job.MaxIter)
	if err != nil {
		return nil, err
	}
	if l.OnTileRender != nil {
		l.OnTileRender(job.Tile)
	}
	mandel.Logger().Debug("rendering tile", "tile", job.Tile, "max_iter", job.MaxIter)

	v := job.Viewport()
	img := image.NewGray(job.Tile)
	for py := job.Tile.Min.Y; py < job.Tile.Max.Y; py++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := img.Pix[img.PixOffset(job.Tile.Min.X, py):]
		for px := job.Tile.Min.X; px < job.Tile.Max.X; px++ {
			r := e.Eval(v.Point(px, py))
			row[px-job.Tile.Min.X] = mandel.Intensity(r, job.MaxIter)
		}
	}
	return img, nil
}

// SplitRect splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func SplitRect(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle
	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)
		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)
			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}
	return tiles
}

// Parallel is mandel.Generate spread over workers goroutines, each filling a
// contiguous band of rows. workers <= 0 means GOMAXPROCS. The result is
// identical to mandel.Generate for the same inputs.
//
// Cancelling ctx stops the workers at the next row; the partial buffer is
// discarded and ctx's error returned.
func Parallel(ctx context.Context, v mandel.Viewport, maxIter, workers int) (*mandel.Buffer, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	e, err := mandel.NewEvaluator(maxIter)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, v.Height)

	buf := mandel.NewBuffer(v, maxIter)
	band := (v.Height + workers - 1) / workers

	var wg sync.WaitGroup
	for y0 := 0; y0 < v.Height; y0 += band {
		y1 := min(y0+band, v.Height)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				if ctx.Err() != nil {
					return
				}
				mandel.FillRows(v, e, buf.Results, y, y+1)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mandel.Logger().Debug("parallel generate finished", "width", v.Width, "height", v.Height, "workers", workers)
	return buf, nil
}
