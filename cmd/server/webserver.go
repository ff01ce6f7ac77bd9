package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/marben/gray_mandel/imgconv"
)

// wsReadLimit bounds one websocket message. A tile's levels arrive in a single
// message, so this covers the largest tile parseFlags allows.
const wsReadLimit = 16 << 20

// webServer builds the http server with the websocket, image and status
// endpoints, and returns the listener that accepts websocket connections.
func webServer(ctx context.Context, addr string, iws *imgWorkScheduler) (*WebsocketListener, *http.Server) {
	l := NewWSListener(ctx, addr+"/ws")
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(l))
	mux.HandleFunc("/image.png", imageHandler(iws))
	mux.HandleFunc("/image", imageHandler(iws))
	mux.HandleFunc("/status", statusHandler(iws))
	mux.HandleFunc("/{$}", indexHandler(iws))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return l, srv
}

// websocketHandler handles the http ws endpoint
// if websocket is succesfully initialized it is passed to WebsocketListener so it can be accepted
func websocketHandler(l *WebsocketListener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			slog.Warn("websocket accept", "remote", r.RemoteAddr, "err", err)
			return
		}
		c.SetReadLimit(wsReadLimit)

		select {
		case l.ch <- c:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// imageHandler serves the finished image, blocking until the last tile is in.
// Query parameters: format (png, bmp, tiff), and w and/or h for a resampled copy.
func imageHandler(iws *imgWorkScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		format := imgconv.PNG
		if f := q.Get("format"); f != "" {
			var err error
			if format, err = imgconv.ParseFormat(f); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		tw, err := optionalInt(q.Get("w"))
		if err != nil {
			http.Error(w, "w: "+err.Error(), http.StatusBadRequest)
			return
		}
		th, err := optionalInt(q.Get("h"))
		if err != nil {
			http.Error(w, "h: "+err.Error(), http.StatusBadRequest)
			return
		}

		gray, err := iws.GetImage(r.Context())
		if err != nil {
			// client gave up waiting
			return
		}

		var img image.Image = gray
		if tw > 0 || th > 0 {
			if img, err = imgconv.Scale(gray, tw, th); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		w.Header().Set("Content-Type", format.ContentType())
		if err := imgconv.Encode(w, img, format); err != nil {
			slog.Warn("encode image", "format", format, "err", err)
		}
	}
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}

func statusHandler(iws *imgWorkScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(iws.status()); err != nil {
			slog.Warn("encode status", "err", err)
		}
	}
}

func indexHandler(iws *imgWorkScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := iws.status()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "mandelbrot %dx%d, %d iterations\n", st.Width, st.Height, st.MaxIter)
		fmt.Fprintf(w, "tiles: %d/%d, workers: %d\n", st.TilesFinished, st.TilesTotal, st.Workers)
		fmt.Fprintf(w, "\nGET /image.png   finished image (blocks until complete; ?format=bmp|tiff, ?w=, ?h=)\n")
		fmt.Fprintf(w, "GET /status      progress as JSON\n")
		fmt.Fprintf(w, "GET /ws          websocket endpoint for workers\n")
	}
}

// WebsocketListener implements net.Listener
// it's a wrapper around websocket.Conn
type WebsocketListener struct {
	ch     chan *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

func NewWSListener(ctx context.Context, addr string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:     make(chan *websocket.Conn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

// Accept returns the next upgraded websocket as a binary-message net.Conn.
// After Close it returns net.ErrClosed.
func (l *WebsocketListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

func (l *WebsocketListener) Close() error {
	l.cancel()
	return nil
}

var _ net.Listener = (*WebsocketListener)(nil)

// wsAddr implements net.Addr
type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}
