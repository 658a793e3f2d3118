package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tally/internal/handler"
	"github.com/dukerupert/tally/internal/middleware"
	"github.com/dukerupert/tally/internal/store"
	ws "github.com/dukerupert/tally/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	familyH      *handler.FamilyHandler
	trackerH     *handler.TrackerHandler
	entryH       *handler.EntryHandler
	familyStore  *store.FamilyStore
	trackerStore *store.TrackerStore
	entryStore   *store.EntryStore
	logger       *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	familyStore := store.NewFamilyStore(db)
	trackerStore := store.NewTrackerStore(db)
	entryStore := store.NewEntryStore(db)

	return &Server{
		db:           db,
		hub:          hub,
		familyH:      handler.NewFamilyHandler(familyStore, hub, logger.With("component", "family")),
		trackerH:     handler.NewTrackerHandler(trackerStore, familyStore, hub, logger.With("component", "tracker")),
		entryH:       handler.NewEntryHandler(entryStore, trackerStore, hub, logger.With("component", "entry")),
		familyStore:  familyStore,
		trackerStore: trackerStore,
		entryStore:   entryStore,
		logger:       logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("PATCH /api/families/{id}", s.familyH.Update)
	mux.HandleFunc("DELETE /api/families/{id}", s.familyH.Delete)

	mux.HandleFunc("GET /api/trackers", s.trackerH.List)
	mux.HandleFunc("POST /api/trackers", s.trackerH.Create)
	mux.HandleFunc("PATCH /api/trackers/{id}", s.trackerH.Update)
	mux.HandleFunc("DELETE /api/trackers/{id}", s.trackerH.Delete)

	mux.HandleFunc("GET /api/tracker-entries", s.entryH.List)
	mux.HandleFunc("POST /api/tracker-entries", s.entryH.Create)
	mux.HandleFunc("PATCH /api/tracker-entries/{id}", s.entryH.Update)
	mux.HandleFunc("DELETE /api/tracker-entries/{id}", s.entryH.Delete)

	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleReset wipes all rows and reinstalls the demo data. Destructive and
// unauthenticated, like the rest of the API.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	// Entries first: they carry the only enforced foreign key.
	if err := s.entryStore.DeleteAll(); err != nil {
		s.resetError(w, err)
		return
	}
	if err := s.trackerStore.DeleteAll(); err != nil {
		s.resetError(w, err)
		return
	}
	if err := s.familyStore.DeleteAll(); err != nil {
		s.resetError(w, err)
		return
	}

	if err := s.Seed(); err != nil {
		s.resetError(w, err)
		return
	}

	s.hub.Broadcast(ws.Message{Type: "data_reset", Entity: "all", Action: "reset"})

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetError(w http.ResponseWriter, err error) {
	s.logger.Error("reset data", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"message": "failed to reset data"})
}
