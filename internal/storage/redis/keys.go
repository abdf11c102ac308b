package redis

import (
	"fmt"

	"github.com/mcoot/connectaword/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "connectaword"

// Hash fields for user records
const (
	fieldUsername    = "username"
	fieldRating      = "rating"
	fieldGamesPlayed = "games_played"
)

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// roomsIndexKey returns the Redis key for the SET of all room ids
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// userKey returns the Redis key for a User hash
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// credentialsKey returns the Redis key for a registered email's login details
func credentialsKey(email string) string {
	return fmt.Sprintf("%s:cred:%s", keyPrefix, email)
}

// catalogKey returns the Redis key for a language's word list
func catalogKey(lang model.Language) string {
	return fmt.Sprintf("%s:catalog:%s", keyPrefix, lang)
}
