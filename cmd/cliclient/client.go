package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/imgconv"
	"github.com/marben/gray_mandel/render"
)

// wsReadLimit covers the finished image, which arrives as one websocket message.
const wsReadLimit = mandel.MaxPixels + 1<<16

// run connects to the Mandelbrot server, renders tiles for it, and saves
// the finished image.
func run(ctx context.Context, cfg config) error {
	// Step 1: Connect to Mandelbrot server
	conn, err := dialServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	// Step 2: Create renderer service that will be called by the server to render tiles
	rendererService := mandel.NewRendererIrpcService(render.Local{
		OnTileRender: func(tile image.Rectangle) { slog.Debug("rendering tile", "tile", tile) },
	})

	// Step 3: Create an irpc endpoint on the connection with our renderer service
	ep := irpc.NewEndpoint(conn, irpc.WithEndpointServices(rendererService))
	defer ep.Close()

	if cfg.noFetch {
		select {
		case <-ep.Context().Done():
			if cause := context.Cause(ep.Context()); !errors.Is(cause, irpc.ErrEndpointClosedByCounterpart) {
				return fmt.Errorf("connection: %w", cause)
			}
		case <-ctx.Done():
		}
		return nil
	}

	// Step 4: Create image provider irpc client, so that we can request the final image
	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		return fmt.Errorf("failed to create image provider client: %w", err)
	}

	// Step 5: Request the fully rendered image from the server
	slog.Info("requesting fully rendered image")
	img, err := client.GetImage(ctx)
	if err != nil {
		return fmt.Errorf("failed to get image: %w", err)
	}

	// Step 6: Save the image to file
	if err := imgconv.Save(cfg.output, img); err != nil {
		return fmt.Errorf("failed to save %q: %w", cfg.output, err)
	}
	slog.Info("fully rendered image saved", "file", cfg.output)
	return nil
}

// dialServer opens the worker connection over websocket when cfg.wsURL is
// set, over tcp otherwise.
func dialServer(ctx context.Context, cfg config) (net.Conn, error) {
	if cfg.wsURL != "" {
		slog.Info("connecting", "ws", cfg.wsURL)
		c, _, err := websocket.Dial(ctx, cfg.wsURL, nil)
		if err != nil {
			return nil, err
		}
		c.SetReadLimit(wsReadLimit)
		return websocket.NetConn(ctx, c, websocket.MessageBinary), nil
	}

	slog.Info("connecting", "tcp", cfg.tcpAddr)
	var d net.Dialer
	return d.DialContext(ctx, "tcp", cfg.tcpAddr)
}
