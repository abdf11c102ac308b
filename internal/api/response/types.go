package response

import (
	"time"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/auth"
	"github.com/mcoot/connectaword/internal/services/rooms"
)

// User represents a user in API responses
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		Username:    u.Username,
		Rating:      u.Rating,
		GamesPlayed: u.GamesPlayed,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthResponseFromResult creates an AuthResponse from a register or login result
func AuthResponseFromResult(r *auth.Result) AuthResponse {
	return AuthResponse{
		Token: r.Token,
		User:  UserFromModel(r.User),
	}
}

// Room represents a room in API responses
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	HostID       string    `json:"host_id"`
	HostUsername string    `json:"host_username"`
	HostRating   int       `json:"host_rating"`
	Language     string    `json:"language"`
	WordSource   string    `json:"word_source"`
	CreatedAt    time.Time `json:"created_at"`
	// Live is true while a session is running for the room
	Live bool `json:"live"`
}

// RoomFromSummary converts a rooms.Summary
func RoomFromSummary(s *rooms.Summary, live bool) Room {
	return Room{
		ID:           string(s.ID),
		Name:         s.Name,
		HostID:       string(s.HostID),
		HostUsername: s.HostUsername,
		HostRating:   s.HostRating,
		Language:     string(s.Language),
		WordSource:   string(s.WordSource),
		CreatedAt:    s.CreatedAt,
		Live:         live,
	}
}

// Health is the response for the health check
type Health struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"active_rooms"`
}
