package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage"
)

// Config holds MongoDB connection settings
type Config struct {
	URI      string
	Database string
}

// DefaultConfig returns sensible defaults for MongoDB configuration
func DefaultConfig() Config {
	return Config{
		URI:      "mongodb://localhost:27017",
		Database: "connectaword",
	}
}

// catalogDocument stores one language's word list
type catalogDocument struct {
	Language model.Language    `bson:"_id"`
	Entries  []model.WordEntry `bson:"entries"`
}

// Storage is a MongoDB-backed implementation of the storage interface
type Storage struct {
	client   *mongo.Client
	rooms    *mongo.Collection
	users    *mongo.Collection
	creds    *mongo.Collection
	catalogs *mongo.Collection
}

// New connects to MongoDB and verifies the connection
func New(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return NewWithClient(client, cfg.Database), nil
}

// NewWithClient creates a MongoDB storage over an existing client
func NewWithClient(client *mongo.Client, database string) *Storage {
	db := client.Database(database)
	return &Storage{
		client:   client,
		rooms:    db.Collection("rooms"),
		users:    db.Collection("users"),
		creds:    db.Collection("credentials"),
		catalogs: db.Collection("catalogs"),
	}
}

// Close disconnects the client
func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	r := *room
	r.CreatedAt = r.CreatedAt.UTC()
	_, err := s.rooms.ReplaceOne(ctx, bson.M{"_id": room.ID}, r, options.Replace().SetUpsert(true))
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	var room model.Room
	err := s.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	room.CreatedAt = room.CreatedAt.UTC()
	return &room, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.rooms.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rooms := []*model.Room{}
	for cursor.Next(ctx) {
		var room model.Room
		if err := cursor.Decode(&room); err != nil {
			return nil, err
		}
		room.CreatedAt = room.CreatedAt.UTC()
		rooms = append(rooms, &room)
	}
	return rooms, cursor.Err()
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	_, err := s.rooms.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user, options.Replace().SetUpsert(true))
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetRatingStats(ctx context.Context, ids []model.UserID) (map[model.UserID]model.RatingStats, error) {
	stats := make(map[model.UserID]model.RatingStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		stats[user.ID] = model.RatingStats{Rating: user.Rating, GamesPlayed: user.GamesPlayed}
	}
	return stats, cursor.Err()
}

func (s *Storage) ApplyNewRatings(ctx context.Context, ratings map[model.UserID]int) error {
	if len(ratings) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(ratings))
	for id, rating := range ratings {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{
				"$set": bson.M{"rating": rating},
				"$inc": bson.M{"games_played": 1},
			}))
	}

	_, err := s.users.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// Credential operations

func (s *Storage) CreateCredentials(ctx context.Context, creds *model.Credentials) error {
	c := *creds
	c.CreatedAt = c.CreatedAt.UTC()
	_, err := s.creds.InsertOne(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrEmailTaken
	}
	return err
}

func (s *Storage) GetCredentials(ctx context.Context, email string) (*model.Credentials, error) {
	var creds model.Credentials
	err := s.creds.FindOne(ctx, bson.M{"_id": email}).Decode(&creds)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	creds.CreatedAt = creds.CreatedAt.UTC()
	return &creds, nil
}

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, lang model.Language, entries []model.WordEntry) error {
	if entries == nil {
		entries = []model.WordEntry{}
	}
	doc := catalogDocument{Language: lang, Entries: entries}
	_, err := s.catalogs.ReplaceOne(ctx, bson.M{"_id": lang}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Storage) GetCatalog(ctx context.Context, lang model.Language) ([]model.WordEntry, error) {
	var doc catalogDocument
	err := s.catalogs.FindOne(ctx, bson.M{"_id": lang}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrCatalogNotLoaded
		}
		return nil, err
	}
	return doc.Entries, nil
}
