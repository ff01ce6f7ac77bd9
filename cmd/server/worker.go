package main

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sync"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/render"
)

type imgWorkScheduler struct {
	workers  int
	viewport mandel.Viewport
	maxIter  int
	img      *image.Gray

	ctx       context.Context
	ctxCancel context.CancelFunc

	totalTiles     int
	totalPixels    int
	finishedPixels int

	unstarted map[image.Rectangle]struct{}
	inProcess map[image.Rectangle]struct{}
	finished  map[image.Rectangle]struct{}
	m         sync.Mutex
}

func newImgWorkScheduler(v mandel.Viewport, maxIter, tileSize int) (*imgWorkScheduler, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if maxIter <= 0 {
		return nil, &mandel.ParamError{Param: "max_iterations", Value: maxIter, Constraint: ">= 1", Err: mandel.ErrInvalidIterationBudget}
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("tile size %d must be positive", tileSize)
	}

	img := image.NewGray(image.Rect(0, 0, v.Width, v.Height))
	allTilesSlice := render.SplitRect(img.Bounds(), tileSize, tileSize)
	allTiles := make(map[image.Rectangle]struct{}, len(allTilesSlice))
	for _, t := range allTilesSlice {
		allTiles[t] = struct{}{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &imgWorkScheduler{
		viewport:    v,
		maxIter:     maxIter,
		img:         img,
		unstarted:   allTiles,
		inProcess:   make(map[image.Rectangle]struct{}),
		finished:    make(map[image.Rectangle]struct{}, len(allTiles)),
		totalTiles:  len(allTiles),
		totalPixels: v.Pixels(),
		ctx:         ctx,
		ctxCancel:   cancel,
	}, nil
}

func (iws *imgWorkScheduler) popTile() (tile image.Rectangle, found bool) {
	iws.m.Lock()
	defer iws.m.Unlock()

	// Get unstarted tile
	if len(iws.unstarted) > 0 {
		for tile = range iws.unstarted {
			break
		}
		delete(iws.unstarted, tile)

		// Move popped tile to currently processed tiles
		iws.inProcess[tile] = struct{}{}
		return tile, true
	}

	// If there is no unstarted tile, we work again on a started one.
	// A slow or vanished worker then cannot stall the image.
	if len(iws.inProcess) > 0 {
		for tile = range iws.inProcess {
			break
		}
		return tile, true
	}

	return image.Rectangle{}, false
}

// returnTile puts a tile whose render failed back into the unstarted set.
func (iws *imgWorkScheduler) returnTile(tile image.Rectangle) {
	iws.m.Lock()
	defer iws.m.Unlock()

	if _, found := iws.inProcess[tile]; found {
		delete(iws.inProcess, tile)
		iws.unstarted[tile] = struct{}{}
	}
}

// GetImage implements mandel.ImgProvider.
func (iws *imgWorkScheduler) GetImage(ctx context.Context) (*image.Gray, error) {
	select {
	case <-iws.ctx.Done():
		return iws.img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ mandel.ImgProvider = (*imgWorkScheduler)(nil)

// done is closed once every tile has been drawn.
func (iws *imgWorkScheduler) done() <-chan struct{} {
	return iws.ctx.Done()
}

// tileFinished draws a rendered tile into the image. Tiles that are already
// finished or that the image does not contain are dropped, so the image is
// never written after it is complete.
func (iws *imgWorkScheduler) tileFinished(tileImg *image.Gray) {
	rect := tileImg.Bounds()
	iws.m.Lock()
	defer iws.m.Unlock()

	if _, found := iws.finished[rect]; found {
		return
	}
	_, inProcess := iws.inProcess[rect]
	_, unstarted := iws.unstarted[rect]
	if !inProcess && !unstarted {
		return
	}

	draw.Draw(
		iws.img,
		rect,     // destination rectangle (global coords)
		tileImg,  // source image
		rect.Min, // source start
		draw.Src,
	)

	iws.finishedPixels += rect.Dx() * rect.Dy()
	delete(iws.inProcess, rect)
	delete(iws.unstarted, rect)
	iws.finished[rect] = struct{}{}

	slog.Debug("tile finished", "tile", rect, "finished", float32(iws.finishedPixels)/float32(iws.totalPixels))

	if len(iws.unstarted) == 0 && len(iws.inProcess) == 0 {
		slog.Info("image complete", "tiles", iws.totalTiles)
		iws.ctxCancel()
	}
}

func (iws *imgWorkScheduler) incActiveWorkers() {
	iws.m.Lock()
	iws.workers++
	w := iws.workers
	iws.m.Unlock()

	slog.Info("worker joined", "workers", w)
}

func (iws *imgWorkScheduler) decActiveWorkers() {
	iws.m.Lock()
	iws.workers--
	w := iws.workers
	iws.m.Unlock()

	slog.Info("worker left", "workers", w)
}

// status is the progress report served on /status.
type status struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	MaxIter       int     `json:"max_iter"`
	TilesTotal    int     `json:"tiles_total"`
	TilesFinished int     `json:"tiles_finished"`
	Workers       int     `json:"workers"`
	Progress      float32 `json:"progress"`
	Complete      bool    `json:"complete"`
}

func (iws *imgWorkScheduler) status() status {
	iws.m.Lock()
	defer iws.m.Unlock()
	return status{
		Width:         iws.viewport.Width,
		Height:        iws.viewport.Height,
		MaxIter:       iws.maxIter,
		TilesTotal:    iws.totalTiles,
		TilesFinished: len(iws.finished),
		Workers:       iws.workers,
		Progress:      float32(iws.finishedPixels) / float32(iws.totalPixels),
		Complete:      len(iws.finished) == iws.totalTiles,
	}
}

// render renders unfinished tiles on the provided Renderer until none are
// left. It can be called from multiple goroutines in parallel.
func (iws *imgWorkScheduler) render(ctx context.Context, renderer mandel.Renderer) error {
	iws.incActiveWorkers()
	defer iws.decActiveWorkers()

	for {
		tile, found := iws.popTile()
		if !found {
			return nil
		}
		job := mandel.NewTileJob(iws.viewport, tile, iws.maxIter)
		tileImg, err := renderer.RenderTile(ctx, job)
		if err != nil {
			iws.returnTile(tile)
			return fmt.Errorf("render of tile %s: %w", tile, err)
		}
		if err := checkTile(tileImg, tile); err != nil {
			iws.returnTile(tile)
			return err
		}
		iws.tileFinished(tileImg)
	}
}

// checkTile rejects a tile image that does not cover tile exactly or whose
// pixel slice is too short for its stride. Remote tiles are decoded as sent.
func checkTile(img *image.Gray, tile image.Rectangle) error {
	if img == nil {
		return fmt.Errorf("renderer returned no image for tile %v", tile)
	}
	if img.Rect != tile {
		return fmt.Errorf("renderer returned %v for tile %v", img.Rect, tile)
	}
	if img.Stride < tile.Dx() || len(img.Pix) < (tile.Dy()-1)*img.Stride+tile.Dx() {
		return fmt.Errorf("tile %v: %d levels with stride %d", tile, len(img.Pix), img.Stride)
	}
	return nil
}
