package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/connectaword/internal/dependencies/clock"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage"
)

// Store is the persistence the auth service needs
type Store interface {
	storage.UserStore
	storage.CredentialStore
}

// Config holds configuration for the auth service
type Config struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// DefaultConfig returns default auth configuration. Secret must still be set.
func DefaultConfig() Config {
	return Config{
		Issuer:     "connectaword",
		TokenTTL:   24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Result is returned on successful registration or login
type Result struct {
	Token string
	User  *model.User
}

// claims is the JWT payload
type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens and manages registered accounts
type Service struct {
	store Store
	clock clock.Clock
	cfg   Config
}

// New creates a new auth Service
func New(store Store, clock clock.Clock, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	return &Service{
		store: store,
		clock: clock,
		cfg:   cfg,
	}
}

// Issue signs a token for the given user
func (s *Service) Issue(userID model.UserID) (string, error) {
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: string(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	})
	return token.SignedString([]byte(s.cfg.Secret))
}

// Verify checks a token's signature, issuer and expiry and returns its user id
func (s *Service) Verify(tokenString string) (model.UserID, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}
	if c.UserID == "" {
		return "", fmt.Errorf("%w: missing userId claim", model.ErrInvalidToken)
	}
	return model.UserID(c.UserID), nil
}

// Identify verifies a token and loads its user. A valid token for a user that
// has no stored record yields a guest identity.
func (s *Service) Identify(ctx context.Context, tokenString string) (*model.User, error) {
	userID, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.GuestUser(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates an account with the default rating and signs a token for it
func (s *Service) Register(ctx context.Context, username, email, password string) (*Result, error) {
	email = normalizeEmail(email)

	if _, err := s.store.GetCredentials(ctx, email); err == nil {
		return nil, model.ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:       model.UserID(uuid.NewString()),
		Username: username,
		Rating:   model.DefaultRating,
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	creds := &model.Credentials{
		Email:        email,
		UserID:       user.ID,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.CreateCredentials(ctx, creds); err != nil {
		return nil, err
	}

	return s.result(user)
}

// Login checks an email and password and signs a token for the account
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	creds, err := s.store.GetCredentials(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	user, err := s.store.GetUser(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}
	return s.result(user)
}

func (s *Service) result(user *model.User) (*Result, error) {
	token, err := s.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
