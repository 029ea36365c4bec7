// Package progresssrv runs the optional HTTP server behind `lexseg
// serve`: a Prometheus /metrics endpoint and a /progress endpoint that streams
// batch progress to any connected client.
package progresssrv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexseg/lexseg/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is one progress event broadcast to every connected client.
type Message struct {
	Type      string  `json:"type"` // start, progress, complete, error
	Current   int     `json:"current,omitempty"`
	Total     int     `json:"total,omitempty"`
	Fraction  float64 `json:"fraction,omitempty"`
	Error     string  `json:"error,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Hub broadcasts progress.ProgressCallback events to every subscribed
// WebSocket connection and satisfies progress.ProgressCallback itself, so
// the orchestrator can drive it directly.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub returns an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
	metrics.WebsocketConnections.Set(float64(len(h.conns)))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	metrics.WebsocketConnections.Set(float64(len(h.conns)))
}

func (h *Hub) broadcast(msg Message) {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("progresssrv: marshaling message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("progresssrv: dropping unresponsive client", "error", err)
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
	metrics.WebsocketConnections.Set(float64(len(h.conns)))
}

// OnStart implements progress.ProgressCallback.
func (h *Hub) OnStart(total int) {
	metrics.BatchInProgress.Set(1)
	h.broadcast(Message{Type: "start", Total: total})
}

// OnProgress implements progress.ProgressCallback.
func (h *Hub) OnProgress(current, total int) {
	fraction := 0.0
	if total > 0 {
		fraction = float64(current) / float64(total)
	}
	h.broadcast(Message{Type: "progress", Current: current, Total: total, Fraction: fraction})
}

// OnComplete implements progress.ProgressCallback.
func (h *Hub) OnComplete() {
	metrics.BatchInProgress.Set(0)
	h.broadcast(Message{Type: "complete"})
}

// OnError implements progress.ProgressCallback.
func (h *Hub) OnError(current int, err error) {
	h.broadcast(Message{Type: "error", Current: current, Error: err.Error()})
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("progresssrv: upgrade failed", "error", err)
		return
	}
	h.add(conn)
	slog.Info("progresssrv: client connected", "remote_addr", r.RemoteAddr)

	defer func() {
		h.remove(conn)
		_ = conn.Close()
	}()

	// Drain and discard client frames; the protocol is server-to-client
	// only, but we still have to read to notice a closed connection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Server wraps the http.Server exposing /metrics and /progress.
type Server struct {
	Hub *Hub

	httpServer *http.Server
}

// newMux builds the route table shared by New and tests that exercise the
// WebSocket handler without a full Server.
func newMux(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/progress", hub.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// New builds a Server bound to addr, ready for Start.
func New(addr string) *Server {
	hub := NewHub()
	return &Server{
		Hub: hub,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           newMux(hub),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start runs the HTTP server until ctx is canceled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("progresssrv: listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("progresssrv: listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("progresssrv: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
