// Package rooms manages persisted room metadata: creation, listing and removal.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/connectaword/internal/dependencies/clock"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage"
)

// MaxNameLength bounds room names
const MaxNameLength = 64

var (
	ErrNameRequired      = errors.New("room name is required")
	ErrNameTooLong       = fmt.Errorf("room name exceeds %d characters", MaxNameLength)
	ErrInvalidWordSource = errors.New("invalid word source")
)

// Summary is a room joined with its host's public details
type Summary struct {
	model.Room
	HostUsername string `json:"host_username"`
	HostRating   int    `json:"host_rating"`
}

// CreateParams describes a room to create
type CreateParams struct {
	Name       string
	Language   string
	WordSource string
}

// Service creates and looks up rooms
type Service struct {
	rooms  storage.RoomStore
	users  storage.UserStore
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a room Service
func New(
	rooms storage.RoomStore,
	users storage.UserStore,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		rooms:  rooms,
		users:  users,
		clock:  clock,
		logger: logger.With(slog.String("component", "rooms")),
	}
}

// Create stores a new room hosted by host. A host may hold only one room at a time.
func (s *Service) Create(ctx context.Context, host model.UserID, params CreateParams) (*Summary, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len([]rune(name)) > MaxNameLength {
		return nil, ErrNameTooLong
	}

	lang, ok := model.ParseLanguage(params.Language)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedLanguage, params.Language)
	}

	source := model.WordSource(strings.ToUpper(strings.TrimSpace(params.WordSource)))
	switch source {
	case "":
		source = model.WordSourceServer
	case model.WordSourceServer, model.WordSourcePlayers:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidWordSource, params.WordSource)
	}

	existing, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range existing {
		if r.HostID == host {
			return nil, model.ErrHostHasRoom
		}
	}

	room := &model.Room{
		ID:         model.RoomID(uuid.NewString()),
		Name:       name,
		HostID:     host,
		Language:   lang,
		WordSource: source,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.rooms.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("host_id", string(host)),
		slog.String("language", string(lang)),
	)
	return s.summarize(ctx, room)
}

// Get returns a single room
func (s *Service) Get(ctx context.Context, id model.RoomID) (*Summary, error) {
	room, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, room)
}

// List returns every room, oldest first
func (s *Service) List(ctx context.Context) ([]*Summary, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Summary, 0, len(rooms))
	for _, r := range rooms {
		sum, err := s.summarize(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// Delete removes a room. Only its host may delete it.
func (s *Service) Delete(ctx context.Context, id model.RoomID, requester model.UserID) error {
	room, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room.HostID != requester {
		return model.ErrNotHost
	}
	if err := s.rooms.DeleteRoom(ctx, id); err != nil {
		return err
	}
	s.logger.Info("room deleted", slog.String("room_id", string(id)))
	return nil
}

func (s *Service) summarize(ctx context.Context, room *model.Room) (*Summary, error) {
	host, err := s.users.GetUser(ctx, room.HostID)
	if errors.Is(err, model.ErrUserNotFound) {
		host = model.GuestUser(room.HostID)
	} else if err != nil {
		return nil, err
	}
	return &Summary{Room: *room, HostUsername: host.Username, HostRating: host.Rating}, nil
}
