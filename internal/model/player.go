package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

const (
	// DefaultRating is assigned to new and unknown users
	DefaultRating = 1500
	// GuestUsername is shown for connections without a stored user
	GuestUsername = "Guest"
)

// User is a persisted account with its rating
type User struct {
	ID          UserID `json:"id" bson:"_id"`
	Username    string `json:"username" bson:"username"`
	Rating      int    `json:"rating" bson:"rating"`
	GamesPlayed int    `json:"games_played" bson:"games_played"`
}

// GuestUser returns the identity used when no user record exists
func GuestUser(id UserID) *User {
	return &User{
		ID:       id,
		Username: GuestUsername,
		Rating:   DefaultRating,
	}
}

// RatingStats is the subset of a user needed to compute rating changes
type RatingStats struct {
	Rating      int
	GamesPlayed int
}

// Credentials are the login details of a registered user, keyed by email
type Credentials struct {
	Email        string    `json:"email" bson:"_id"`
	UserID       UserID    `json:"user_id" bson:"user_id"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
