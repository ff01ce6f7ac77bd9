package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/imgconv"
	"github.com/marben/gray_mandel/render"
)

// fakeProvider renders v through each connecting worker and serves the
// result once all tiles are in.
type fakeProvider struct {
	t       *testing.T
	v       mandel.Viewport
	maxIter int
	img     *image.Gray
	done    chan struct{}
}

func newFakeProvider(t *testing.T, v mandel.Viewport, maxIter int) *fakeProvider {
	return &fakeProvider{
		t:       t,
		v:       v,
		maxIter: maxIter,
		img:     image.NewGray(image.Rect(0, 0, v.Width, v.Height)),
		done:    make(chan struct{}),
	}
}

func (p *fakeProvider) GetImage(ctx context.Context) (*image.Gray, error) {
	select {
	case <-p.done:
		return p.img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// onConnect renders every tile on the connected worker. Only one worker
// connects per test.
func (p *fakeProvider) onConnect(ep *irpc.Endpoint) {
	renderer, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		p.t.Errorf("NewRendererIrpcClient: %v", err)
		return
	}
	for _, tile := range render.SplitRect(p.img.Bounds(), 16, 16) {
		ti, err := renderer.RenderTile(ep.Context(), mandel.NewTileJob(p.v, tile, p.maxIter))
		if err != nil {
			p.t.Errorf("RenderTile: %v", err)
			return
		}
		draw.Draw(p.img, tile, ti, tile.Min, draw.Src)
	}
	close(p.done)
}

func (p *fakeProvider) server() *irpc.Server {
	return irpc.NewServer(
		irpc.WithServices(mandel.NewImgProviderIrpcService(p)),
		irpc.WithOnConnect(p.onConnect),
	)
}

func TestRun_TCP(t *testing.T) {
	v := mandel.Full.Viewport(40, 24)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	irpcServer := newFakeProvider(t, v, 40).server()
	go irpcServer.Serve(l)
	defer irpcServer.Close()

	out := filepath.Join(t.TempDir(), "mandel.png")
	cfg := config{tcpAddr: l.Addr().String(), output: out}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := run(ctx, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	buf, _ := mandel.Generate(v, 40)
	var want bytes.Buffer
	if err := imgconv.Encode(&want, imgconv.Gray(buf), imgconv.PNG); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, want.Bytes()) {
		t.Error("image rendered through the worker differs from a local render")
	}
}

func TestRun_Websocket(t *testing.T) {
	v := mandel.Full.Viewport(24, 16)
	p := newFakeProvider(t, v, 20)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		nc := websocket.NetConn(context.Background(), c, websocket.MessageBinary)
		ep := irpc.NewEndpoint(nc, irpc.WithEndpointServices(mandel.NewImgProviderIrpcService(p)))
		p.onConnect(ep)
		<-ep.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out := filepath.Join(t.TempDir(), "mandel.bmp")
	cfg := config{wsURL: "ws" + strings.TrimPrefix(ts.URL, "http"), output: out}
	if err := run(ctx, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output: %v", err)
	}
}

func TestRun_NoFetch(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	// the server renders one tile, then hangs up
	rendered := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			rendered <- err
			return
		}
		ep := irpc.NewEndpoint(conn)
		renderer, err := mandel.NewRendererIrpcClient(ep)
		if err == nil {
			v := mandel.Full.Viewport(8, 8)
			_, err = renderer.RenderTile(context.Background(), mandel.NewTileJob(v, image.Rect(0, 0, 8, 8), 10))
		}
		rendered <- err
		ep.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := run(ctx, config{tcpAddr: l.Addr().String(), noFetch: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := <-rendered; err != nil {
		t.Errorf("RenderTile: %v", err)
	}
}

func TestRun_RemoteError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		ep := irpc.NewEndpoint(conn, irpc.WithEndpointServices(mandel.NewImgProviderIrpcService(failingProvider{})))
		<-ep.Context().Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out := filepath.Join(t.TempDir(), "x.png")
	err = run(ctx, config{tcpAddr: l.Addr().String(), output: out})
	if err == nil || !strings.Contains(err.Error(), "render aborted") {
		t.Fatalf("run = %v, want the server's error", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Error("output written after a failed fetch")
	}
}

type failingProvider struct{}

func (failingProvider) GetImage(context.Context) (*image.Gray, error) {
	return nil, errors.New("render aborted")
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-server", "render:9000", "-o", "x.tiff"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.tcpAddr != "render:9000" || cfg.output != "x.tiff" || cfg.wsURL != "" {
		t.Errorf("cfg = %+v", cfg)
	}
	if _, err := parseFlags([]string{"-o", "x.jpg"}); err == nil {
		t.Error("parseFlags accepted a .jpg output")
	}
	if _, err := parseFlags([]string{"-o", "x.jpg", "-no-fetch"}); err != nil {
		t.Errorf("parseFlags with -no-fetch: %v", err)
	}
}
