package storage

import (
	"context"

	"github.com/mcoot/connectaword/internal/model"
)

// RoomStore persists room metadata
type RoomStore interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	// GetRoom returns model.ErrRoomNotFound when no room has the given id
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
}

// UserStore persists users and their ratings
type UserStore interface {
	SaveUser(ctx context.Context, user *model.User) error
	// GetUser returns model.ErrUserNotFound when no user has the given id
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	// GetRatingStats returns stats for the users that exist; unknown ids are omitted
	GetRatingStats(ctx context.Context, ids []model.UserID) (map[model.UserID]model.RatingStats, error)
	// ApplyNewRatings sets each user's rating and increments their games played
	ApplyNewRatings(ctx context.Context, ratings map[model.UserID]int) error
}

// CredentialStore persists login details for registered users
type CredentialStore interface {
	// CreateCredentials returns model.ErrEmailTaken if the email is already registered
	CreateCredentials(ctx context.Context, creds *model.Credentials) error
	// GetCredentials returns model.ErrUserNotFound when the email is not registered
	GetCredentials(ctx context.Context, email string) (*model.Credentials, error)
}

// CatalogStore persists per-language word lists
type CatalogStore interface {
	SaveCatalog(ctx context.Context, lang model.Language, entries []model.WordEntry) error
	// GetCatalog returns model.ErrCatalogNotLoaded when the language has no saved list
	GetCatalog(ctx context.Context, lang model.Language) ([]model.WordEntry, error)
}

// Storage defines the interface for data persistence
type Storage interface {
	RoomStore
	UserStore
	CredentialStore
	CatalogStore
}
