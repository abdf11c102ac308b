package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/connectaword/internal/api/middleware"
	"github.com/mcoot/connectaword/internal/api/request"
	"github.com/mcoot/connectaword/internal/api/response"
	"github.com/mcoot/connectaword/internal/services/auth"
)

// UserHandler handles account endpoints
type UserHandler struct {
	authService *auth.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if !strings.Contains(req.Email, "@") {
		WriteError(w, NewInvalidRequestError("a valid email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	result, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromResult(result))
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("email and password are required"))
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromResult(result))
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}
