package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/store"
	"github.com/dukerupert/tally/internal/websocket"
)

type TrackerHandler struct {
	trackerStore *store.TrackerStore
	familyStore  *store.FamilyStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewTrackerHandler(ts *store.TrackerStore, fs *store.FamilyStore, hub *websocket.Hub, logger *slog.Logger) *TrackerHandler {
	return &TrackerHandler{trackerStore: ts, familyStore: fs, hub: hub, logger: logger}
}

func (h *TrackerHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type trackerRequest struct {
	Name        string  `json:"name"`
	FamilyID    *int64  `json:"familyId"`
	Color       string  `json:"color"`
	Description *string `json:"description"`
	Order       int     `json:"order"`
}

// checkFamily validates that a supplied familyId references an existing row.
// Dangling references created later by family deletion are tolerated; only
// new input is checked.
func (h *TrackerHandler) checkFamily(w http.ResponseWriter, familyID int64) bool {
	family, err := h.familyStore.GetByID(familyID)
	if err != nil {
		h.logger.Error("check family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check family")
		return false
	}
	if family == nil {
		writeFieldError(w, "family not found", "familyId")
		return false
	}
	return true
}

func (h *TrackerHandler) List(w http.ResponseWriter, r *http.Request) {
	trackers, err := h.trackerStore.List()
	if err != nil {
		h.logger.Error("list trackers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list trackers")
		return
	}
	if trackers == nil {
		trackers = []model.Tracker{}
	}
	writeJSON(w, http.StatusOK, trackers)
}

func (h *TrackerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req trackerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeFieldError(w, "name is required", "name")
		return
	}
	req.Color = strings.TrimSpace(req.Color)
	if req.Color == "" {
		writeFieldError(w, "color is required", "color")
		return
	}
	if req.FamilyID != nil && !h.checkFamily(w, *req.FamilyID) {
		return
	}

	tracker, err := h.trackerStore.Create(req.Name, req.FamilyID, req.Color, req.Description, req.Order)
	if err != nil {
		h.logger.Error("create tracker", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create tracker")
		return
	}

	h.broadcast(websocket.NewMessage("tracker", "created", tracker.ID))

	writeJSON(w, http.StatusCreated, tracker)
}

func (h *TrackerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.trackerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tracker", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get tracker")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "tracker not found")
		return
	}

	var patch model.TrackerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if patch.Name.Set {
		if patch.Name.Value == nil || strings.TrimSpace(*patch.Name.Value) == "" {
			writeFieldError(w, "name must not be empty", "name")
			return
		}
		trimmed := strings.TrimSpace(*patch.Name.Value)
		patch.Name.Value = &trimmed
	}
	if patch.Color.Set {
		if patch.Color.Value == nil || strings.TrimSpace(*patch.Color.Value) == "" {
			writeFieldError(w, "color must not be empty", "color")
			return
		}
		trimmed := strings.TrimSpace(*patch.Color.Value)
		patch.Color.Value = &trimmed
	}
	if patch.Order.Set && patch.Order.Value == nil {
		writeFieldError(w, "order must be a number", "order")
		return
	}
	if patch.IsArchived.Set && patch.IsArchived.Value == nil {
		writeFieldError(w, "isArchived must be a boolean", "isArchived")
		return
	}
	// A null familyId is a valid clear: it un-assigns the tracker from its
	// family. Only non-null ids are checked for existence.
	if patch.FamilyID.Set && patch.FamilyID.Value != nil && !h.checkFamily(w, *patch.FamilyID.Value) {
		return
	}

	tracker, err := h.trackerStore.Update(id, patch)
	if err != nil {
		h.logger.Error("update tracker", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update tracker")
		return
	}

	h.broadcast(websocket.NewMessage("tracker", "updated", id))

	writeJSON(w, http.StatusOK, tracker)
}

// Delete archives the tracker rather than removing it, so its id and entry
// history remain queryable.
func (h *TrackerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.trackerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tracker", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get tracker")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "tracker not found")
		return
	}

	if err := h.trackerStore.Archive(id); err != nil {
		h.logger.Error("archive tracker", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete tracker")
		return
	}

	h.broadcast(websocket.NewMessage("tracker", "archived", id))

	w.WriteHeader(http.StatusNoContent)
}
