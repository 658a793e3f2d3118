package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/store"
	"github.com/dukerupert/tally/internal/websocket"
)

type EntryHandler struct {
	entryStore   *store.EntryStore
	trackerStore *store.TrackerStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewEntryHandler(es *store.EntryStore, ts *store.TrackerStore, hub *websocket.Hub, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{entryStore: es, trackerStore: ts, hub: hub, logger: logger}
}

func (h *EntryHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type entryRequest struct {
	TrackerID int64   `json:"trackerId"`
	Date      string  `json:"date"`
	Note      *string `json:"note"`
	PhotoURL  *string `json:"photoUrl"`
}

func (h *EntryHandler) checkTracker(w http.ResponseWriter, trackerID int64) bool {
	tracker, err := h.trackerStore.GetByID(trackerID)
	if err != nil {
		h.logger.Error("check tracker", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check tracker")
		return false
	}
	if tracker == nil {
		writeFieldError(w, "tracker not found", "trackerId")
		return false
	}
	return true
}

// List supports two mutually exclusive filters: ?date=YYYY-MM-DD for an
// exact day and ?month=YYYY-MM for a literal date-prefix match. No filter
// returns everything.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	month := r.URL.Query().Get("month")

	if date != "" && month != "" {
		writeError(w, http.StatusBadRequest, "date and month filters are mutually exclusive")
		return
	}

	var entries []model.TrackerEntry
	var err error
	switch {
	case date != "":
		if !isValidDate(date) {
			writeFieldError(w, "date must be in YYYY-MM-DD format", "date")
			return
		}
		entries, err = h.entryStore.ListByDate(date)
	case month != "":
		if !isValidMonth(month) {
			writeFieldError(w, "month must be in YYYY-MM format", "month")
			return
		}
		entries, err = h.entryStore.ListByMonth(month)
	default:
		entries, err = h.entryStore.List()
	}
	if err != nil {
		h.logger.Error("list entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []model.TrackerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.TrackerID == 0 {
		writeFieldError(w, "trackerId is required", "trackerId")
		return
	}
	if req.Date == "" {
		writeFieldError(w, "date is required", "date")
		return
	}
	if !isValidDate(req.Date) {
		writeFieldError(w, "date must be in YYYY-MM-DD format", "date")
		return
	}
	if !h.checkTracker(w, req.TrackerID) {
		return
	}

	entry, err := h.entryStore.Create(req.TrackerID, req.Date, req.Note, req.PhotoURL)
	if errors.Is(err, store.ErrDuplicateEntry) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create entry")
		return
	}

	h.broadcast(websocket.NewMessage("entry", "created", entry.ID))

	writeJSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.entryStore.GetByID(id)
	if err != nil {
		h.logger.Error("get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get entry")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	var patch model.TrackerEntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if patch.Date.Set && (patch.Date.Value == nil || !isValidDate(*patch.Date.Value)) {
		writeFieldError(w, "date must be in YYYY-MM-DD format", "date")
		return
	}
	if patch.TrackerID.Set {
		if patch.TrackerID.Value == nil {
			writeFieldError(w, "trackerId must be a number", "trackerId")
			return
		}
		if !h.checkTracker(w, *patch.TrackerID.Value) {
			return
		}
	}

	entry, err := h.entryStore.Update(id, patch)
	if errors.Is(err, store.ErrDuplicateEntry) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("update entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}

	h.broadcast(websocket.NewMessage("entry", "updated", id))

	writeJSON(w, http.StatusOK, entry)
}

// Delete removes the completion record for good; un-marking a day is a hard
// delete, unlike tracker deletion.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.entryStore.GetByID(id)
	if err != nil {
		h.logger.Error("get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get entry")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	if err := h.entryStore.Delete(id); err != nil {
		h.logger.Error("delete entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}

	h.broadcast(websocket.NewMessage("entry", "deleted", id))

	w.WriteHeader(http.StatusNoContent)
}
