// Command server coordinates a distributed render of one Mandelbrot view.
// Rendering is performed by connected workers (cmd/cliclient); the server
// only hands out tiles, collects them, and serves the finished image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/marben/irpc"

	mandel "github.com/marben/gray_mandel"
)

// maxTileSize keeps a finished tile within one websocket message.
const maxTileSize = 2048

type config struct {
	width, height int
	region        string
	maxIter       int
	tileSize      int
	tcpAddr       string
	httpAddr      string
	verbose       bool
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.width, "width", 1920, "image width")
	fs.IntVar(&cfg.height, "height", 1080, "image height")
	fs.StringVar(&cfg.region, "region", "seahorse", "region to render: "+regionNames())
	fs.IntVar(&cfg.maxIter, "iter", 1000, "maximum iterations per pixel")
	fs.IntVar(&cfg.tileSize, "tile", 64, "tile edge in pixels")
	fs.StringVar(&cfg.tcpAddr, "tcp", ":8081", "tcp listen address for workers")
	fs.StringVar(&cfg.httpAddr, "http", ":8080", "http listen address (image, status, websocket workers)")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if _, ok := mandel.Regions[cfg.region]; !ok {
		return config{}, fmt.Errorf("unknown region %q, have %s", cfg.region, regionNames())
	}
	if cfg.tileSize <= 0 || cfg.tileSize > maxTileSize {
		return config{}, fmt.Errorf("tile size %d must be in [1, %d]", cfg.tileSize, maxTileSize)
	}
	return cfg, nil
}

func regionNames() string {
	names := make([]string, 0, len(mandel.Regions))
	for n := range mandel.Regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("flags: %v", err)
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	mandel.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	v := mandel.Regions[cfg.region].Viewport(cfg.width, cfg.height)
	iws, err := newImgWorkScheduler(v, cfg.maxIter, cfg.tileSize)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	slog.Info("rendering", "region", cfg.region, "width", v.Width, "height", v.Height,
		"center", v.Center, "scale", v.Scale, "max_iter", cfg.maxIter, "tiles", iws.status().TilesTotal)

	irpcServer := newIrpcServer(iws)

	// TCP
	tcpListener, err := net.Listen("tcp", cfg.tcpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}
	slog.Info("tcp listening", "addr", tcpListener.Addr())

	// WEBSOCKET
	websocketListener, httpServer := webServer(ctx, cfg.httpAddr, iws)
	httpErr := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.httpAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("httpServer: %w", err)
		}
	}()

	// irpcServer can serve multiple listeners. In this case both tcp and websocket
	serveErr := make(chan error, 2)
	for _, l := range []net.Listener{tcpListener, websocketListener} {
		go func() {
			if err := irpcServer.Serve(l); !errors.Is(err, irpc.ErrServerClosed) {
				serveErr <- fmt.Errorf("irpc serve %s: %w", l.Addr().Network(), err)
			}
		}()
	}

	go func() {
		select {
		case <-iws.done():
			slog.Info("image ready", "url", "http://localhost"+cfg.httpAddr+"/image.png")
		case <-ctx.Done():
		}
	}()

	slog.Info("mb server waiting for tcp and websocket connections")
	select {
	case <-ctx.Done():
	case err = <-httpErr:
	case err = <-serveErr:
	}

	// Close shuts both listeners and every worker connection
	if cerr := irpcServer.Close(); cerr != nil {
		slog.Debug("irpc server close", "err", cerr)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = fmt.Errorf("http shutdown: %w", serr)
	}
	return err
}

// newIrpcServer serves the finished image to clients and plugs every
// connection into the scheduler as a worker.
func newIrpcServer(iws *imgWorkScheduler) *irpc.Server {
	// imgProviderIrpcService provides mandel.ImgProvider over network.
	// GetImage blocks until the last tile is in.
	imgProviderIrpcService := mandel.NewImgProviderIrpcService(iws)

	return irpc.NewServer(
		irpc.WithServices(imgProviderIrpcService),
		irpc.WithOnConnect(func(ep *irpc.Endpoint) {
			serveWorker(ep, iws)
		}),
	)
}

// serveWorker renders tiles on the client behind ep until the image is
// complete or the connection fails.
func serveWorker(ep *irpc.Endpoint, iws *imgWorkScheduler) {
	slog.Info("got connection", "remote", ep.RemoteAddr())

	// Each client provides us with mandel.Renderer so we can use it to render tiles of full image
	rendererIrpcClient, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		slog.Warn("new renderer client", "remote", ep.RemoteAddr(), "err", err)
		return
	}

	// A connection that drops while rendering has its tile put back.
	if err := iws.render(ep.Context(), rendererIrpcClient); err != nil {
		slog.Warn("worker dropped", "remote", ep.RemoteAddr(), "err", err)
		ep.Close()
		return
	}
	slog.Debug("no tiles left for worker", "remote", ep.RemoteAddr())
}
