package gsi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castmate/castmate/internal/logger"
	"github.com/castmate/castmate/internal/stats"
)

// lastSnapshotKey is the single staleness-store entry. The store's TTL is
// what actually matters: when the entry expires, the game has gone quiet.
const lastSnapshotKey = "last"

// Pipeline is what the server needs from the engine.
type Pipeline interface {
	HandleSnapshot(snap *Snapshot, now time.Time) int
	Status() (player, mapName string, round int, degraded bool)
	Stats(now time.Time) stats.Summary
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithAuthToken requires webhook posts to carry this token. Empty disables
// the check.
func WithAuthToken(token string) ServerOption {
	return func(s *Server) { s.token = token }
}

// WithStaleAfter sets how long after the last snapshot the health endpoint
// reports the session as idle.
func WithStaleAfter(d time.Duration) ServerOption {
	return func(s *Server) { s.staleAfter = d }
}

// Server is the webhook endpoint the game posts snapshots to, plus the
// read side: health, session stats, metrics, and the live event feed.
type Server struct {
	addr       string
	port       int
	token      string
	staleAfter time.Duration

	pipeline Pipeline
	feed     *Feed
	log      *logger.Logger

	recent     *gocache.Cache
	httpServer *http.Server
	upgrader   *websocket.Upgrader
}

// NewServer creates a server that feeds snapshots into the pipeline.
func NewServer(addr string, port int, pipeline Pipeline, feed *Feed, log *logger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		addr:       addr,
		port:       port,
		staleAfter: 30 * time.Second,
		pipeline:   pipeline,
		feed:       feed,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recent = gocache.New(s.staleAfter, time.Minute)
	s.upgrader = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(*http.Request) bool {
			// Overlays run on file:// or a separate local origin.
			return true
		},
	}
	return s
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.Path("/").Methods(http.MethodPost).HandlerFunc(s.handleSnapshot)
	router.Path("/health").Methods(http.MethodGet).HandlerFunc(s.handleHealth)
	router.Path("/stats").Methods(http.MethodGet).HandlerFunc(s.handleStats)
	router.Path("/events").Methods(http.MethodGet).HandlerFunc(s.handleEvents)
	router.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.Handler())
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("unmatched request: %s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusNotFound)
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.addr, s.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.log.Info("listening on %s:%d", s.addr, s.port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down, disconnecting feed clients first.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down")
	s.feed.Close()
	return s.httpServer.Shutdown(ctx)
}

// handleSnapshot ingests one game state post. The game treats any
// non-200 as a delivery failure and backs off, so this handler always
// acknowledges; bad payloads are logged and dropped.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotsTotal.Inc()
	defer s.writeOK(w)

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		parseErrors.Inc()
		s.log.Warn("empty snapshot from %s: %v", r.RemoteAddr, err)
		return
	}

	snap, err := ParseSnapshot(body)
	if err != nil {
		parseErrors.Inc()
		s.log.Warn("unparseable snapshot from %s: %v", r.RemoteAddr, err)
		return
	}

	if s.token != "" && snap.Token() != s.token {
		authRejects.Inc()
		s.log.Warn("snapshot with bad auth token from %s", r.RemoteAddr)
		return
	}

	now := time.Now()
	s.recent.SetDefault(lastSnapshotKey, now)

	if n := s.pipeline.HandleSnapshot(snap, now); n > 0 {
		s.log.Debug("snapshot produced %d event(s)", n)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	player, mapName, round, degraded := s.pipeline.Status()

	status := "ok"
	if _, fresh := s.recent.Get(lastSnapshotKey); !fresh {
		status = "idle"
	}
	if degraded {
		status = "degraded"
	}

	s.writeJSON(w, map[string]any{
		"status":              status,
		"current_player_name": player,
		"current_map":         mapName,
		"current_round":       round,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.pipeline.Stats(time.Now()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	s.feed.Add(conn)
}

func (s *Server) writeOK(w http.ResponseWriter) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response: %v", err)
	}
}
