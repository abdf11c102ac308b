package factory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/rooms"
	"github.com/mcoot/connectaword/internal/services/session"
	"github.com/mcoot/connectaword/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.Require().NoError(s.app.LoadTestCatalog())
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close(s.ctx))
}

func (s *IntegrationSuite) register(name string) *model.User {
	result, err := s.app.AuthService.Register(s.ctx, name, name+"@example.com", "password-"+name)
	s.Require().NoError(err)
	return result.User
}

func (s *IntegrationSuite) join(roomID model.RoomID, user *model.User) *testutil.FakeChannel {
	ch := testutil.NewFakeChannel("conn-" + user.Username)
	s.Require().NoError(s.app.Registry.Join(s.ctx, roomID, session.Connection{
		Channel:  ch,
		UserID:   user.ID,
		Username: user.Username,
		Rating:   user.Rating,
	}))
	return ch
}

// Test: Complete game flow from registration to rating update
func (s *IntegrationSuite) TestCompleteGameFlow() {
	// Step 1: Two players register
	alice := s.register("alice")
	bob := s.register("bob")

	// Step 2: Alice opens a room
	room, err := s.app.RoomService.Create(s.ctx, alice.ID, rooms.CreateParams{Name: "Duel", Language: "english"})
	s.Require().NoError(err)

	// Step 3: Both connect
	aliceCh := s.join(room.ID, alice)
	bobCh := s.join(room.ID, bob)
	s.Contains(aliceCh.Announcements(), "bob joined the room.")
	s.Equal(1, s.app.Registry.RoomCount())

	// Step 4: Alice starts the game
	s.Require().NoError(s.app.Registry.HandleAction(s.ctx, room.ID, alice.ID, model.StartAction{}))
	state, ok := bobCh.LastState()
	s.Require().True(ok)
	s.Equal(model.GameStatusInProgress, state.Status)

	// Step 5: Alice solves every word first time; Bob gives up on each
	for _, word := range TestWords {
		s.Require().NoError(s.app.Registry.HandleAction(s.ctx, room.ID, alice.ID, model.GuessAction{Guess: strings.ToUpper(word)}))
		s.Require().NoError(s.app.Registry.HandleAction(s.ctx, room.ID, bob.ID, model.SurrenderAction{}))
	}

	// Step 6: The game is finished and the words revealed
	state, ok = aliceCh.LastState()
	s.Require().True(ok)
	s.Equal(model.GameStatusFinished, state.Status)
	s.Equal([]string{"CRANE", "LEMON", "MELON", "APPLE", "PLATE"}, state.FinalWords)
	s.Equal(5*(model.SolveBonus+model.MaxAttempts-1), state.Player(alice.ID).TotalScore)
	s.Equal(0, state.Player(bob.ID).TotalScore)

	// Step 7: Ratings are persisted and reflected on login
	s.Equal(1520, state.Player(alice.ID).Rating)
	s.Equal(1480, state.Player(bob.ID).Rating)

	login, err := s.app.AuthService.Login(s.ctx, "bob@example.com", "password-bob")
	s.Require().NoError(err)
	s.Equal(1480, login.User.Rating)
	s.Equal(1, login.User.GamesPlayed)

	// Step 8: Alice starts a rematch
	s.Require().NoError(s.app.Registry.HandleAction(s.ctx, room.ID, alice.ID, model.PlayAgainAction{}))
	state, ok = bobCh.LastState()
	s.Require().True(ok)
	s.Equal(model.GameStatusInProgress, state.Status)
	s.Equal(0, state.Player(bob.ID).TotalScore)
	s.Empty(state.FinalWords)

	// Step 9: Everyone leaves and the session goes away
	s.app.Registry.Leave(room.ID, bobCh)
	s.Contains(aliceCh.Announcements(), "bob left the room.")
	s.app.Registry.Leave(room.ID, aliceCh)
	s.Equal(0, s.app.Registry.RoomCount())
}

// Test: A guest can play but is not rated; the lone rated player keeps their rating
func (s *IntegrationSuite) TestGuestIsNotRated() {
	alice := s.register("alice")
	room, err := s.app.RoomService.Create(s.ctx, alice.ID, rooms.CreateParams{Name: "Open", Language: "english"})
	s.Require().NoError(err)

	guest := model.GuestUser("visitor")
	s.join(room.ID, alice)
	guestCh := s.join(room.ID, guest)

	s.Require().NoError(s.app.Registry.HandleAction(s.ctx, room.ID, alice.ID, model.StartAction{}))
	for range TestWords {
		s.Require().NoError(s.app.Registry.HandleAction(s.ctx, room.ID, alice.ID, model.SurrenderAction{}))
		s.Require().NoError(s.app.Registry.HandleAction(s.ctx, room.ID, guest.ID, model.SurrenderAction{}))
	}

	state, ok := guestCh.LastState()
	s.Require().True(ok)
	s.Equal(model.GameStatusFinished, state.Status)

	stored, err := s.app.Storage.GetUser(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, stored.Rating)
	s.Equal(1, stored.GamesPlayed)
}

// Test: Deleting a room disconnects its players
func (s *IntegrationSuite) TestDeleteRoomClosesSession() {
	alice := s.register("alice")
	room, err := s.app.RoomService.Create(s.ctx, alice.ID, rooms.CreateParams{Name: "Short lived", Language: "english"})
	s.Require().NoError(err)
	ch := s.join(room.ID, alice)

	s.Require().NoError(s.app.RoomService.Delete(s.ctx, room.ID, alice.ID))
	s.True(s.app.Registry.CloseRoom(room.ID))
	s.True(ch.Closed())

	err = s.app.Registry.Join(s.ctx, room.ID, session.Connection{
		Channel: testutil.NewFakeChannel("late"), UserID: alice.ID, Username: alice.Username, Rating: alice.Rating,
	})
	s.ErrorIs(err, model.ErrRoomNotFound)
}
