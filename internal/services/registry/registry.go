package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mcoot/connectaword/internal/dependencies/clock"
	"github.com/mcoot/connectaword/internal/dependencies/random"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/rating"
	"github.com/mcoot/connectaword/internal/services/session"
	"github.com/mcoot/connectaword/internal/storage"
)

const (
	// ReasonShutdown is the close reason sent to every connection on shutdown
	ReasonShutdown = "Server shutting down"
	// ReasonRoomClosed is sent when a room is deleted while players are connected
	ReasonRoomClosed = "Room closed"

	maxJoinAttempts = 3
)

// Registry maps room ids to their live sessions. A session is created on the
// first join to a room and removed as soon as its last connection leaves.
type Registry struct {
	rooms      storage.RoomStore
	users      storage.UserStore
	catalog    session.Catalog
	ratings    *rating.Service
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger
	baseLogger *slog.Logger
	sessionCfg session.Config

	// Lock order is registry then session
	mu       sync.Mutex
	sessions map[model.RoomID]*session.Session
	closed   bool
	group    singleflight.Group
}

// New creates a new Registry
func New(
	rooms storage.RoomStore,
	users storage.UserStore,
	catalog session.Catalog,
	ratings *rating.Service,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	sessionCfg session.Config,
) *Registry {
	return &Registry{
		rooms:      rooms,
		users:      users,
		catalog:    catalog,
		ratings:    ratings,
		clock:      clock,
		random:     random,
		logger:     logger.With(slog.String("component", "registry")),
		baseLogger: logger,
		sessionCfg: sessionCfg,
		sessions:   make(map[model.RoomID]*session.Session),
	}
}

// Join adds a connection to the room's session, creating the session if needed.
// Returns model.ErrRoomNotFound when the room does not exist.
func (r *Registry) Join(ctx context.Context, roomID model.RoomID, conn session.Connection) error {
	for attempt := 0; attempt < maxJoinAttempts; attempt++ {
		sess, err := r.getOrCreate(ctx, roomID)
		if err != nil {
			return err
		}

		isNew, err := sess.AddPlayer(conn)
		if errors.Is(err, model.ErrSessionClosed) {
			// Emptied and removed between lookup and add; the next lookup makes a new one
			continue
		}
		if err != nil {
			return err
		}

		r.logger.Info("player joined",
			slog.String("room_id", string(roomID)),
			slog.String("user_id", string(conn.UserID)),
			slog.String("username", conn.Username),
			slog.Bool("new_player", isNew))

		notice := fmt.Sprintf("%s joined the room.", conn.Username)
		if !isNew {
			notice = fmt.Sprintf("%s reconnected.", conn.Username)
		}
		sess.AnnounceOthers(conn.UserID, notice)
		sess.BroadcastState()
		return nil
	}
	return model.ErrSessionClosed
}

func (r *Registry) getOrCreate(ctx context.Context, roomID model.RoomID) (*session.Session, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, model.ErrShuttingDown
	}
	if sess, ok := r.sessions[roomID]; ok {
		r.mu.Unlock()
		return sess, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(string(roomID), func() (any, error) {
		room, err := r.rooms.GetRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			return nil, model.ErrShuttingDown
		}
		if sess, ok := r.sessions[roomID]; ok {
			return sess, nil
		}
		sess := session.New(room, r.catalog, r.ratings, r.users, r.random, r.clock, r.baseLogger, r.sessionCfg)
		r.sessions[roomID] = sess
		r.logger.Info("session created",
			slog.String("room_id", string(roomID)),
			slog.String("host_id", string(room.HostID)),
			slog.String("language", string(room.Language)))
		return sess, nil
	})
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			r.logger.Warn("join for unknown room", slog.String("room_id", string(roomID)))
		}
		return nil, err
	}
	return v.(*session.Session), nil
}

// HandleAction routes an inbound action to the room's session.
// Start and play-again from anyone but the host are rejected with an announcement.
func (r *Registry) HandleAction(ctx context.Context, roomID model.RoomID, userID model.UserID, action model.Action) error {
	sess := r.Session(roomID)
	if sess == nil {
		r.logger.Warn("action for room without a session",
			slog.String("room_id", string(roomID)),
			slog.String("user_id", string(userID)))
		return model.ErrSessionNotFound
	}

	switch a := action.(type) {
	case model.StartAction:
		if userID != sess.HostID() {
			sess.Announce(userID, "Only the host can start the game.")
			return model.ErrNotHost
		}
		return announceShortage(sess, userID, sess.Start())

	case model.PlayAgainAction:
		if userID != sess.HostID() {
			sess.Announce(userID, "Only the host can start a new game.")
			return model.ErrNotHost
		}
		return announceShortage(sess, userID, sess.PlayAgain())

	case model.GuessAction:
		return sess.ProcessGuess(ctx, userID, a.Guess)

	case model.SurrenderAction:
		return sess.ProcessSurrender(ctx, userID)

	default:
		sess.Announce(userID, "Unknown action")
		return model.ErrUnknownAction
	}
}

func announceShortage(sess *session.Session, host model.UserID, err error) error {
	if errors.Is(err, model.ErrNotEnoughWords) {
		sess.Announce(host, "Not enough words available to start a game.")
	}
	return err
}

// Leave removes a connection from its room. The session is removed when its last
// connection leaves, including a connection the session already dropped after a
// failed send. Calling Leave again for the same connection does nothing.
func (r *Registry) Leave(roomID model.RoomID, ch session.Channel) {
	sess := r.Session(roomID)
	if sess == nil {
		return
	}

	username, removed := sess.RemoveConnection(ch)

	r.mu.Lock()
	if r.sessions[roomID] == sess && sess.CloseIfEmpty() {
		delete(r.sessions, roomID)
		r.mu.Unlock()
		r.logger.Info("session removed", slog.String("room_id", string(roomID)))
		return
	}
	r.mu.Unlock()

	if !removed {
		return
	}

	r.logger.Info("player left",
		slog.String("room_id", string(roomID)),
		slog.String("username", username))
	sess.AnnounceOthers("", fmt.Sprintf("%s left the room.", username))
	sess.BroadcastState()
}

// Session returns the live session for a room, or nil
func (r *Registry) Session(roomID model.RoomID) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[roomID]
}

// CloseRoom drops a room's live session, disconnecting its players.
// It reports whether a session existed.
func (r *Registry) CloseRoom(roomID model.RoomID) bool {
	r.mu.Lock()
	sess, ok := r.sessions[roomID]
	delete(r.sessions, roomID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	sess.CloseAll(ReasonRoomClosed)
	r.logger.Info("session closed", slog.String("room_id", string(roomID)))
	return true
}

// RoomCount returns the number of live sessions
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown closes every connection and stops new sessions from being created
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[model.RoomID]*session.Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess.CloseAll(ReasonShutdown)
	}
	r.logger.Info("registry shut down", slog.Int("sessions", len(sessions)))
	return nil
}
