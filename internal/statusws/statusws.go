// Package statusws exposes a minimal read-only websocket endpoint that
// streams state.VehicleState snapshots as JSON, for operator tooling
// that cannot reach the broker directly. The frames are the default
// encoding/json form of VehicleState, not the MQTT state payload shape. Grounded on
// niceyeti-tabular's server-push telemetry endpoint, which upgrades
// incoming HTTP connections with gorilla/websocket and writes JSON
// frames on a ticker.
package statusws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/leodavilats/truckctl/internal/state"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server streams VehicleState snapshots to connected websocket clients
// at a fixed push interval.
type Server struct {
	store    *state.Store
	logger   zerolog.Logger
	interval time.Duration
}

// New constructs a status server pushing snapshots every interval
// (default 200ms if <= 0).
func New(store *state.Store, logger zerolog.Logger, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Server{store: store, logger: logger, interval: interval}
}

// Handler returns the single /status upgrade handler.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn().Err(err).Msg("status websocket upgrade failed")
			return
		}
		defer conn.Close()
		s.stream(r.Context(), conn)
	}
}

func (s *Server) stream(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.store.Snapshot()
			b, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

// ListenAndServe runs the HTTP server on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, s *Server) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
