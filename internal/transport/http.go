// internal/transport/http.go
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/memematch/internal/database"
	"github.com/jason-s-yu/memematch/internal/game"
	"github.com/jason-s-yu/memematch/internal/models"
)

// Handler returns the HTTP routes: the websocket endpoint plus read-only JSON views.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /rooms", h.handleListRooms)
	mux.HandleFunc("GET /rooms/{id}", h.handleGetRoom)
	mux.HandleFunc("GET /rooms/{id}/history", h.handleRoomHistory)
	mux.HandleFunc("GET /players/{wallet}/stats", h.handlePlayerStats)
	return mux
}

func (h *Hub) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Debug("Failed to write JSON response.")
	}
}

func (h *Hub) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Hub) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.SessionCount(),
	})
}

func (h *Hub) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": h.coord.ListJoinable()})
}

type roomResultView struct {
	Result       models.RoomResult    `json:"result"`
	Participants []models.Participant `json:"participants"`
}

// handleGetRoom serves the live snapshot, or the stored result once the room is gone.
func (h *Hub) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if room, ok := h.coord.Room(id); ok {
		h.writeJSON(w, http.StatusOK, map[string]game.RoomState{"state": room.State()})
		return
	}
	if h.Results == nil {
		h.writeError(w, http.StatusNotFound, "room not found")
		return
	}

	res, err := h.Results.RoomResult(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("room", id).Error("Room result lookup failed.")
		h.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	parts, err := h.Results.Participants(r.Context(), id)
	if err != nil {
		h.log.WithError(err).WithField("room", id).Error("Participant lookup failed.")
		h.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, roomResultView{Result: res, Participants: parts})
}

func (h *Hub) handleRoomHistory(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		h.writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}
	id := r.PathValue("id")
	recs, err := h.History.RoomActions(r.Context(), id)
	if err != nil {
		h.log.WithError(err).WithField("room", id).Error("History lookup failed.")
		h.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"actions": recs})
}

func (h *Hub) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	if h.Results == nil {
		h.writeError(w, http.StatusNotFound, "stats are not enabled")
		return
	}
	wallet := r.PathValue("wallet")
	st, err := h.Results.UserStats(r.Context(), wallet)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "player not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("wallet", wallet).Error("Stats lookup failed.")
		h.writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}
