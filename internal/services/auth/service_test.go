package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/connectaword/internal/dependencies/mocks"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost
	s.service = New(s.storage, s.clock, cfg)
	s.ctx = context.Background()
}

// Token tests

func (s *ServiceSuite) TestIssueAndVerify() {
	token, err := s.service.Issue("u1")
	s.Require().NoError(err)

	id, err := s.service.Verify(token)
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), id)
}

func (s *ServiceSuite) TestVerifyRejectsExpiredToken() {
	token, err := s.service.Issue("u1")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsWrongSecret() {
	other := New(s.storage, s.clock, Config{Secret: "other-secret"})
	token, err := other.Issue("u1")
	s.Require().NoError(err)

	_, err = s.service.Verify(token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsGarbage() {
	_, err := s.service.Verify("not-a-token")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyRejectsMissingUserID() {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "connectaword",
		ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	s.Require().NoError(err)

	_, err = s.service.Verify(signed)
	s.ErrorIs(err, model.ErrInvalidToken)
}

// Identify tests

func (s *ServiceSuite) TestIdentifyStoredUser() {
	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.User{ID: "u1", Username: "alice", Rating: 1620, GamesPlayed: 4}))
	token, _ := s.service.Issue("u1")

	user, err := s.service.Identify(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
	s.Equal(1620, user.Rating)
}

func (s *ServiceSuite) TestIdentifyUnknownUserIsGuest() {
	token, _ := s.service.Issue("ghost")

	user, err := s.service.Identify(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(model.UserID("ghost"), user.ID)
	s.Equal(model.GuestUsername, user.Username)
	s.Equal(model.DefaultRating, user.Rating)
}

func (s *ServiceSuite) TestIdentifyInvalidToken() {
	_, err := s.service.Identify(s.ctx, "bad")
	s.ErrorIs(err, model.ErrInvalidToken)
}

// Register and login tests

func (s *ServiceSuite) TestRegister() {
	res, err := s.service.Register(s.ctx, "alice", "Alice@Example.com", "password123")
	s.Require().NoError(err)

	s.NotEmpty(res.Token)
	s.Equal("alice", res.User.Username)
	s.Equal(model.DefaultRating, res.User.Rating)
	s.Equal(0, res.User.GamesPlayed)

	id, err := s.service.Verify(res.Token)
	s.Require().NoError(err)
	s.Equal(res.User.ID, id)

	creds, err := s.storage.GetCredentials(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.NotEqual("password123", creds.PasswordHash)
	s.Equal(s.clock.Now(), creds.CreatedAt)
}

func (s *ServiceSuite) TestRegisterDuplicateEmail() {
	_, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice2", "ALICE@example.com", "password456")
	s.ErrorIs(err, model.ErrEmailTaken)
}

func (s *ServiceSuite) TestLogin() {
	reg, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)

	res, err := s.service.Login(s.ctx, " alice@example.com ", "password123")
	s.Require().NoError(err)
	s.Equal(reg.User.ID, res.User.ID)
	s.NotEmpty(res.Token)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	_, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "alice@example.com", "wrong")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownEmail() {
	_, err := s.service.Login(s.ctx, "nobody@example.com", "password123")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginReturnsCurrentRating() {
	reg, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)
	s.Require().NoError(s.storage.ApplyNewRatings(s.ctx, map[model.UserID]int{reg.User.ID: 1540}))

	res, err := s.service.Login(s.ctx, "alice@example.com", "password123")
	s.Require().NoError(err)
	s.Equal(1540, res.User.Rating)
	s.Equal(1, res.User.GamesPlayed)
}
