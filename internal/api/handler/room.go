package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/connectaword/internal/api/middleware"
	"github.com/mcoot/connectaword/internal/api/request"
	"github.com/mcoot/connectaword/internal/api/response"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/registry"
	"github.com/mcoot/connectaword/internal/services/rooms"
	"github.com/mcoot/connectaword/internal/transport/wire"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	rooms    *rooms.Service
	registry *registry.Registry
	logger   *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *rooms.Service, registry *registry.Registry, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:    rooms,
		registry: registry,
		logger:   logger,
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.rooms.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.Room, len(summaries))
	for i, s := range summaries {
		out[i] = response.RoomFromSummary(s, h.registry.Session(s.ID) != nil)
	}
	response.JSON(w, http.StatusOK, out)
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.CreateRoomRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	summary, err := h.rooms.Create(r.Context(), user.ID, rooms.CreateParams{
		Name:       req.Name,
		Language:   req.Language,
		WordSource: req.WordSource,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromSummary(summary, false))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	summary, err := h.rooms.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromSummary(summary, h.registry.Session(id) != nil))
}

// Delete handles DELETE /api/v1/rooms/{id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := model.RoomID(mux.Vars(r)["id"])

	if err := h.rooms.Delete(r.Context(), id, user.ID); err != nil {
		WriteError(w, err)
		return
	}
	if h.registry.CloseRoom(id) {
		h.logger.Info("closed live session of deleted room", slog.String("room_id", string(id)))
	}

	response.NoContent(w)
}

// Session handles GET /api/v1/rooms/{id}/session
func (h *RoomHandler) Session(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	sess := h.registry.Session(id)
	if sess == nil {
		WriteError(w, model.ErrSessionNotFound)
		return
	}

	response.JSON(w, http.StatusOK, wire.GameStateFromModel(sess.PublicSnapshot()))
}
