package request

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name       string `json:"name"`
	Language   string `json:"language"`
	WordSource string `json:"word_source,omitempty"`
}
