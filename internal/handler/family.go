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

type FamilyHandler struct {
	familyStore *store.FamilyStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewFamilyHandler(fs *store.FamilyStore, hub *websocket.Hub, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{familyStore: fs, hub: hub, logger: logger}
}

func (h *FamilyHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type familyRequest struct {
	Name  string  `json:"name"`
	Icon  *string `json:"icon"`
	Order int     `json:"order"`
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.familyStore.List()
	if err != nil {
		h.logger.Error("list families", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list families")
		return
	}
	if families == nil {
		families = []model.Family{}
	}
	writeJSON(w, http.StatusOK, families)
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeFieldError(w, "name is required", "name")
		return
	}

	family, err := h.familyStore.Create(req.Name, req.Icon, req.Order)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}

	h.broadcast(websocket.NewMessage("family", "created", family.ID))

	writeJSON(w, http.StatusCreated, family)
}

func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.familyStore.GetByID(id)
	if err != nil {
		h.logger.Error("get family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	var patch model.FamilyPatch
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
	if patch.Order.Set && patch.Order.Value == nil {
		writeFieldError(w, "order must be a number", "order")
		return
	}

	family, err := h.familyStore.Update(id, patch)
	if err != nil {
		h.logger.Error("update family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update family")
		return
	}

	h.broadcast(websocket.NewMessage("family", "updated", id))

	writeJSON(w, http.StatusOK, family)
}

// Delete removes the family row. Trackers referencing it are left alone:
// orphaned references are the documented policy.
func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.familyStore.GetByID(id)
	if err != nil {
		h.logger.Error("get family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	if err := h.familyStore.Delete(id); err != nil {
		h.logger.Error("delete family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete family")
		return
	}

	h.broadcast(websocket.NewMessage("family", "deleted", id))

	w.WriteHeader(http.StatusNoContent)
}
