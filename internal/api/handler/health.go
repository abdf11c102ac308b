package handler

import (
	"net/http"

	"github.com/mcoot/connectaword/internal/api/response"
	"github.com/mcoot/connectaword/internal/services/registry"
)

// HealthHandler reports liveness and the number of running sessions
type HealthHandler struct {
	registry *registry.Registry
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *registry.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:      "ok",
		ActiveRooms: h.registry.RoomCount(),
	})
}
