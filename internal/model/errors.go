package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound        = errors.New("room not found")
	ErrHostHasRoom         = errors.New("host already has a room")
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Session errors
	ErrNotHost         = errors.New("player is not the host")
	ErrGameInProgress  = errors.New("game is in progress")
	ErrGameNotFinished = errors.New("game has not finished")
	ErrNotEnoughWords  = errors.New("not enough words to start a round")
	ErrInvalidGuess    = errors.New("invalid guess")
	ErrSessionClosed   = errors.New("session is closed")
	ErrSessionNotFound = errors.New("no live session for room")
	ErrShuttingDown    = errors.New("server is shutting down")

	// Protocol errors
	ErrUnknownAction = errors.New("unknown action")

	// Catalog errors
	ErrCatalogNotLoaded = errors.New("word catalog not loaded")
)
