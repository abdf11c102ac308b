package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomsIndexKey(), string(room.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	ids, err := s.client.SMembers(ctx, roomsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*model.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(model.RoomID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(values))
	var expired []any
	for i, val := range values {
		if val == nil {
			expired = append(expired, ids[i])
			continue
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		var room model.Room
		if err := json.Unmarshal([]byte(str), &room); err != nil {
			continue // Skip invalid data
		}
		rooms = append(rooms, &room)
	}

	// Drop index entries whose room has expired
	if len(expired) > 0 {
		if err := s.client.SRem(ctx, roomsIndexKey(), expired...).Err(); err != nil {
			return nil, err
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.SRem(ctx, roomsIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	return s.client.HSet(ctx, userKey(user.ID),
		fieldUsername, user.Username,
		fieldRating, user.Rating,
		fieldGamesPlayed, user.GamesPlayed,
	).Err()
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	fields, err := s.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrUserNotFound
	}

	user := &model.User{ID: id, Username: fields[fieldUsername]}
	if user.Rating, err = strconv.Atoi(fields[fieldRating]); err != nil {
		return nil, err
	}
	if user.GamesPlayed, err = strconv.Atoi(fields[fieldGamesPlayed]); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetRatingStats(ctx context.Context, ids []model.UserID) (map[model.UserID]model.RatingStats, error) {
	stats := make(map[model.UserID]model.RatingStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HMGet(ctx, userKey(id), fieldRating, fieldGamesPlayed)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
			continue // Unknown user
		}
		rating, err := strconv.Atoi(vals[0].(string))
		if err != nil {
			return nil, err
		}
		games, err := strconv.Atoi(vals[1].(string))
		if err != nil {
			return nil, err
		}
		stats[ids[i]] = model.RatingStats{Rating: rating, GamesPlayed: games}
	}
	return stats, nil
}

func (s *Storage) ApplyNewRatings(ctx context.Context, ratings map[model.UserID]int) error {
	if len(ratings) == 0 {
		return nil
	}

	// Only touch users that exist so unknown ids don't create partial hashes
	ids := make([]model.UserID, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	known, err := s.GetRatingStats(ctx, ids)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for id, rating := range ratings {
		if _, ok := known[id]; !ok {
			continue
		}
		pipe.HSet(ctx, userKey(id), fieldRating, rating)
		pipe.HIncrBy(ctx, userKey(id), fieldGamesPlayed, 1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Credential operations

func (s *Storage) CreateCredentials(ctx context.Context, creds *model.Credentials) error {
	data, err := json.Marshal(credentialsRecord{
		UserID:       creds.UserID,
		PasswordHash: creds.PasswordHash,
		CreatedAt:    creds.CreatedAt,
	})
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, credentialsKey(creds.Email), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrEmailTaken
	}
	return nil
}

func (s *Storage) GetCredentials(ctx context.Context, email string) (*model.Credentials, error) {
	data, err := s.client.Get(ctx, credentialsKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var rec credentialsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &model.Credentials{
		Email:        email,
		UserID:       rec.UserID,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// credentialsRecord is the stored form of model.Credentials; the hash is
// excluded from the model's JSON encoding
type credentialsRecord struct {
	UserID       model.UserID `json:"user_id"`
	PasswordHash string       `json:"password_hash"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, lang model.Language, entries []model.WordEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, catalogKey(lang), data, 0).Err()
}

func (s *Storage) GetCatalog(ctx context.Context, lang model.Language) ([]model.WordEntry, error) {
	data, err := s.client.Get(ctx, catalogKey(lang)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCatalogNotLoaded
		}
		return nil, err
	}

	var entries []model.WordEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
