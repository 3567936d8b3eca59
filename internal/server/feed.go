package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ironsheep/gene-scanner-mcp/internal/events"
)

// FeedBuffer is how many events a slow websocket client may lag behind
// before events are dropped for it.
const FeedBuffer = 64

const feedWriteTimeout = 5 * time.Second

// Feed streams scanner events to websocket clients.
type Feed struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

type feedClient struct {
	msgs    chan *EventMessage
	dropped atomic.Int64
}

// NewFeed creates a feed with no clients.
func NewFeed() *Feed {
	return &Feed{clients: make(map[*feedClient]struct{})}
}

// Handler returns the HTTP handler serving the feed on /ws.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.handleWebSocket)
	return mux
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Listen is an events.Listener that queues the event for every client.
// It never blocks on a client.
func (f *Feed) Listen(kind events.Kind, payload any) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.clients) == 0 {
		return
	}

	msg, err := NewEventMessage(kind, payload)
	if err != nil {
		slog.Warn("failed to encode event", "kind", kind, "error", err)
		return
	}
	for c := range f.clients {
		select {
		case c.msgs <- msg:
		default:
			c.dropped.Add(1)
		}
	}
}

func (f *Feed) add() *feedClient {
	c := &feedClient{msgs: make(chan *EventMessage, FeedBuffer)}
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()
	return c
}

func (f *Feed) remove(c *feedClient) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
}

func (f *Feed) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	c := f.add()
	defer f.remove(c)

	// The feed is write-only; CloseRead handles pings and the client's close.
	ctx := conn.CloseRead(r.Context())
	slog.Info("event feed client connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			slog.Info("event feed client disconnected", "remote", r.RemoteAddr, "dropped", c.dropped.Load())
			return
		case msg := <-c.msgs:
			wctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := wsjson.Write(wctx, conn, msg)
			cancel()
			if err != nil {
				slog.Debug("websocket write error", "error", err)
				return
			}
		}
	}
}

// ListenAndServe serves the feed on addr until ctx is done.
func (f *Feed) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           f.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	slog.Info("event feed listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
