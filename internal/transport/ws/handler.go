package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/registry"
	"github.com/mcoot/connectaword/internal/services/session"
	"github.com/mcoot/connectaword/internal/transport/wire"
)

// Config holds websocket connection settings
type Config struct {
	ReadLimit  int64
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

// DefaultConfig returns the standard websocket settings
func DefaultConfig() Config {
	pongWait := 60 * time.Second
	return Config{
		ReadLimit:  4096,
		PongWait:   pongWait,
		PingPeriod: (pongWait * 9) / 10,
		WriteWait:  10 * time.Second,
		SendBuffer: 256,
	}
}

// Identifier resolves a token to the user it was issued for
type Identifier interface {
	Identify(ctx context.Context, token string) (*model.User, error)
}

// Handler upgrades game connections and feeds their events to the registry
type Handler struct {
	registry *registry.Registry
	auth     Identifier
	cfg      Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new websocket Handler
func NewHandler(registry *registry.Registry, auth Identifier, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		auth:     auth,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from other origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeGame handles GET /ws/game/{roomId}?token=...
func (h *Handler) ServeGame(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomId"])
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, err := h.auth.Identify(r.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		h.logger.Error("failed to identify user", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := newConn(wsConn, h.cfg, h.logger)
	go conn.writePump()

	logger := h.logger.With(
		slog.String("room_id", string(roomID)),
		slog.String("user_id", string(user.ID)),
		slog.String("conn_id", conn.ID()))
	ctx := r.Context()

	err = h.registry.Join(ctx, roomID, session.Connection{
		Channel:  conn,
		UserID:   user.ID,
		Username: user.Username,
		Rating:   user.Rating,
	})
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		conn.CloseWithCode(websocket.ClosePolicyViolation, "Room not found")
		return
	case errors.Is(err, model.ErrShuttingDown):
		conn.CloseWithCode(websocket.CloseGoingAway, registry.ReasonShutdown)
		return
	case err != nil:
		logger.Error("failed to join room", slog.String("error", err.Error()))
		conn.CloseWithCode(websocket.CloseInternalServerErr, "Unable to join room")
		return
	}

	logger.Info("websocket connected")
	h.readPump(ctx, roomID, user.ID, conn, wsConn, logger)
}

// readPump runs until the socket fails or closes, then leaves the room exactly once
func (h *Handler) readPump(ctx context.Context, roomID model.RoomID, userID model.UserID, conn *Conn, wsConn *websocket.Conn, logger *slog.Logger) {
	defer func() {
		h.registry.Leave(roomID, conn)
		conn.Close("")
		logger.Info("websocket disconnected")
	}()

	wsConn.SetReadLimit(h.cfg.ReadLimit)
	_ = wsConn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		action, err := wire.DecodeAction(data)
		if err != nil {
			logger.Warn("unknown websocket action",
				slog.String("payload", truncate(data, 128)),
				slog.String("error", err.Error()))
			_ = conn.Send(model.Announcement{Message: "Unknown action"})
			continue
		}

		err = h.registry.HandleAction(ctx, roomID, userID, action)
		switch {
		case err == nil:
		case errors.Is(err, model.ErrInvalidGuess), errors.Is(err, model.ErrNotHost):
			logger.Debug("action rejected",
				slog.String("action", string(action.Type())),
				slog.String("error", err.Error()))
		default:
			logger.Warn("action failed",
				slog.String("action", string(action.Type())),
				slog.String("error", err.Error()))
		}
	}
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}
