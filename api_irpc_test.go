package mandel_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/marben/irpc"

	mandel "github.com/marben/gray_mandel"
	"github.com/marben/gray_mandel/render"
)

// connect returns two endpoints joined by a pipe, a serving svcs and b
// calling them.
func connect(t *testing.T, svcs ...irpc.EndpointOption) (a, b *irpc.Endpoint) {
	t.Helper()
	pa, pb := net.Pipe()
	a = irpc.NewEndpoint(pa, svcs...)
	b = irpc.NewEndpoint(pb)
	t.Cleanup(func() {
		b.Close()
		a.Close()
	})
	return a, b
}

func TestRendererIrpc(t *testing.T) {
	_, ep := connect(t, irpc.WithEndpointServices(mandel.NewRendererIrpcService(render.Local{})))
	client, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	v := mandel.Viewport{Center: complex(-0.743643887, 0.131825904), Scale: 1e-7, Width: 80, Height: 60}
	job := mandel.NewTileJob(v, image.Rect(16, 8, 56, 41), 300)
	got, err := client.RenderTile(ctx, job)
	if err != nil {
		t.Fatalf("RenderTile: %v", err)
	}
	want, err := render.Local{}.RenderTile(ctx, job)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rect != want.Rect || got.Stride != want.Stride || !bytes.Equal(got.Pix, want.Pix) {
		t.Errorf("remote tile %v differs from local %v", got.Rect, want.Rect)
	}
}

func TestRendererIrpc_Error(t *testing.T) {
	_, ep := connect(t, irpc.WithEndpointServices(mandel.NewRendererIrpcService(render.Local{})))
	client, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}

	// a remote renderer must refuse an oversized grid rather than allocate it
	job := mandel.TileJob{Scale: 1e-9, Width: 1 << 20, Height: 1 << 20, Tile: image.Rect(0, 0, 1, 1), MaxIter: 5}
	img, err := client.RenderTile(context.Background(), job)
	if err == nil || img != nil {
		t.Fatalf("RenderTile = %v, %v; want an error", img, err)
	}
	// sentinels do not cross the wire, their text does
	if errors.Is(err, mandel.ErrInvalidViewport) || !strings.Contains(err.Error(), "resolution") {
		t.Errorf("err = %v", err)
	}
}

type staticProvider struct{ img *image.Gray }

func (p staticProvider) GetImage(ctx context.Context) (*image.Gray, error) {
	if p.img == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.img, nil
}

func TestImgProviderIrpc(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 3))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 17)
	}
	_, ep := connect(t, irpc.WithEndpointServices(mandel.NewImgProviderIrpcService(staticProvider{src})))
	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}
	got, err := client.GetImage(context.Background())
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if got.Rect != src.Rect || !bytes.Equal(got.Pix, src.Pix) {
		t.Errorf("GetImage = %v %v, want %v %v", got.Rect, got.Pix, src.Rect, src.Pix)
	}
}

func TestImgProviderIrpc_ContextExpires(t *testing.T) {
	_, ep := connect(t, irpc.WithEndpointServices(mandel.NewImgProviderIrpcService(staticProvider{})))
	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.GetImage(ctx); err == nil {
		t.Error("GetImage returned without an image")
	}
}
