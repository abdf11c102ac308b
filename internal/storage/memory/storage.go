package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms    map[model.RoomID]*model.Room
	users    map[model.UserID]*model.User
	creds    map[string]*model.Credentials
	catalogs map[model.Language][]model.WordEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:    make(map[model.RoomID]*model.Room),
		users:    make(map[model.UserID]*model.User),
		creds:    make(map[string]*model.Credentials),
		catalogs: make(map[model.Language][]model.WordEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *room
	s.rooms[room.ID] = &r
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	r := *room
	return &r, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		r := *room
		rooms = append(rooms, &r)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetRatingStats(ctx context.Context, ids []model.UserID) (map[model.UserID]model.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(map[model.UserID]model.RatingStats, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			stats[id] = model.RatingStats{Rating: user.Rating, GamesPlayed: user.GamesPlayed}
		}
	}
	return stats, nil
}

func (s *Storage) ApplyNewRatings(ctx context.Context, ratings map[model.UserID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rating := range ratings {
		user, ok := s.users[id]
		if !ok {
			continue
		}
		user.Rating = rating
		user.GamesPlayed++
	}
	return nil
}

// Credential operations

func (s *Storage) CreateCredentials(ctx context.Context, creds *model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[creds.Email]; ok {
		return model.ErrEmailTaken
	}
	c := *creds
	s.creds[creds.Email] = &c
	return nil
}

func (s *Storage) GetCredentials(ctx context.Context, email string) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.creds[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	c := *creds
	return &c, nil
}

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, lang model.Language, entries []model.WordEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs[lang] = append([]model.WordEntry(nil), entries...)
	return nil
}

func (s *Storage) GetCatalog(ctx context.Context, lang model.Language) ([]model.WordEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.catalogs[lang]
	if !ok {
		return nil, model.ErrCatalogNotLoaded
	}
	return append([]model.WordEntry(nil), entries...), nil
}
