package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/connectaword/internal/api/handler"
	"github.com/mcoot/connectaword/internal/api/middleware"
	"github.com/mcoot/connectaword/internal/services/auth"
	"github.com/mcoot/connectaword/internal/services/registry"
	"github.com/mcoot/connectaword/internal/services/rooms"
	"github.com/mcoot/connectaword/internal/transport/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	AuthService  *auth.Service
	RoomService  *rooms.Service
	Registry     *registry.Registry
	SocketConfig ws.Config
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.AuthService)
	roomHandler := handler.NewRoomHandler(cfg.RoomService, cfg.Registry, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Registry)
	gameSocket := ws.NewHandler(cfg.Registry, cfg.AuthService, cfg.SocketConfig, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Account routes
	api.HandleFunc("/auth/register", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", userHandler.Login).Methods(http.MethodPost)

	users := api.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware)
	users.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)

	// Public room routes
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}/session", roomHandler.Session).Methods(http.MethodGet)

	// Protected room routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/rooms/{id}", roomHandler.Delete).Methods(http.MethodDelete)

	// Game websocket; the token travels as a query parameter
	r.HandleFunc("/ws/game/{roomId}", gameSocket.ServeGame).Methods(http.MethodGet)

	return r
}
