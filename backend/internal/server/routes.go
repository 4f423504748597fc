package server

import (
	"cmp"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/BioHazard786/Huddle/backend/internal/config"
	"github.com/BioHazard786/Huddle/backend/internal/signaling"
)

// NewRouter registers the health, stats and websocket routes.
func NewRouter(hub *signaling.Hub, cfg *config.Config, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthCheck)
	mux.HandleFunc("/ws", ServeWs(hub, cfg, log))
	if cfg.EnableStats {
		mux.HandleFunc("/stats", ServeStats(hub))
	}
	return mux
}

// HealthCheck reports that the process is up.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

func newUpgrader(cfg *config.Config) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			if len(cfg.AllowedOrigins) == 0 {
				return true
			}
			return lo.Contains(cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
}

// ServeWs returns an http.HandlerFunc that upgrades the request, registers
// the connection with the hub and starts its pumps.
func ServeWs(hub *signaling.Hub, cfg *config.Config, log *slog.Logger) http.HandlerFunc {
	upgrader := newUpgrader(cfg)
	opts := signaling.ClientOptions{
		SendBuffer:     cfg.SendBufferSize,
		MaxMessageSize: cfg.MaxMessageSize,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("Failed to upgrade connection", "remote", r.RemoteAddr, "err", err)
			return
		}

		client := signaling.NewClient(hub, conn, opts, log)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}

// Stats is the body served by /stats.
type Stats struct {
	Connections int                   `json:"connections"`
	Rooms       []signaling.RoomStats `json:"rooms"`
}

// ServeStats returns a JSON snapshot of live rooms.
func ServeStats(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		presence := hub.Presence()
		rooms := lo.Map(hub.Rooms().Rooms(), func(rm *signaling.Room, _ int) signaling.RoomStats {
			return rm.Stats(presence)
		})
		// A room torn down between listing and locking reports no members.
		rooms = lo.Filter(rooms, func(s signaling.RoomStats, _ int) bool {
			return s.Members > 0
		})
		slices.SortFunc(rooms, func(a, b signaling.RoomStats) int {
			return cmp.Compare(a.Key, b.Key)
		})

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		json.NewEncoder(w).Encode(Stats{
			Connections: hub.Connections(),
			Rooms:       rooms,
		})
	}
}
