package stream

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	streamsvc "github.com/audiolens/backend/internal/service/stream"
)

const (
	readWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler owns the two streaming endpoints. Each connection is served by a
// single goroutine that alternates between waiting for a trigger and driving
// one orchestrator run; sentences are never processed concurrently on the
// same connection.
type Handler struct {
	orchestrator *streamsvc.Orchestrator
	upgrader     websocket.Upgrader
	readWait     time.Duration
	pingInterval time.Duration
}

// New creates the websocket handler.
func New(orchestrator *streamsvc.Orchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		readWait:     readWait,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts both streaming channels.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleAnalysisSocket)
	r.Get("/ws-graph", h.handleGraphSocket)
}

// handleAnalysisSocket serves the full analysis stream. The connection stays
// open across runs: every further trigger message starts a fresh one.
func (h *Handler) handleAnalysisSocket(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, clientKey string, sink *connSink) bool {
		h.orchestrator.Run(ctx, clientKey, sink)
		return false // keep serving triggers
	})
}

// handleGraphSocket serves the rolling-graph stream. Recoverable errors keep
// the connection waiting for another trigger; one completed run ends it.
func (h *Handler) handleGraphSocket(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, clientKey string, sink *connSink) bool {
		return h.orchestrator.RunGraph(ctx, clientKey, sink)
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, run func(context.Context, string, *connSink) bool) {
	clientKey := r.URL.Query().Get("client")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log.Printf("[websocket] new connection conn=%s client=%s path=%s", connID, clientKey, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sink := newConnSink(conn)

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readWait))
		return nil
	})

	go h.pingLoop(ctx, conn, sink, cancel)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// A run can outlast the read window (the pipeline alone may take
		// minutes), and no read is in flight while it executes. Each wait
		// for a trigger therefore starts with a fresh deadline.
		conn.SetReadDeadline(time.Now().Add(h.readWait))

		// The trigger payload is arbitrary text; receiving anything at
		// all starts a run.
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error conn=%s: %v", connID, err)
			}
			sink.markClosed()
			return
		}

		done := run(ctx, clientKey, sink)
		if !sink.Open() {
			log.Printf("[websocket] connection lost mid-run conn=%s", connID)
			return
		}
		if done {
			log.Printf("[websocket] run finished, closing conn=%s", connID)
			return
		}
	}
}

// pingLoop keeps the connection alive and doubles as the transport liveness
// probe: a failed ping closes the sink so an in-flight run stops emitting.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn, sink *connSink, cancel context.CancelFunc) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				sink.markClosed()
				cancel()
				return
			}
		}
	}
}

// connSink adapts a gorilla connection to the orchestrator's Sink. Once the
// transport dies the sink flips closed and every further Send is a no-op;
// transport errors never propagate into the run loop.
type connSink struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func newConnSink(conn *websocket.Conn) *connSink {
	return &connSink{conn: conn}
}

// Send writes one JSON message. A write failure closes the sink.
func (s *connSink) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.conn.WriteJSON(v); err != nil {
		s.closed = true
		return err
	}
	return nil
}

// Open reports whether the transport is still believed alive.
func (s *connSink) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *connSink) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
