// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage"
)

// Suite runs the common storage contract against Store.
// Backends embed it and assign Store in their own SetupTest.
type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) room(id, host string, created time.Time) *model.Room {
	return &model.Room{
		ID:         model.RoomID(id),
		Name:       "Room " + id,
		HostID:     model.UserID(host),
		Language:   model.LanguageEnglish,
		WordSource: model.WordSourceServer,
		CreatedAt:  created.UTC().Truncate(time.Millisecond),
	}
}

// Room tests

func (s *Suite) TestSaveAndGetRoom() {
	room := s.room("ROOM01", "host-1", time.Now())
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, room))

	got, err := s.Store.GetRoom(s.Ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal(room.ID, got.ID)
	s.Equal(room.Name, got.Name)
	s.Equal(room.HostID, got.HostID)
	s.Equal(room.Language, got.Language)
	s.Equal(room.WordSource, got.WordSource)
	s.True(room.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.Store.GetRoom(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestSaveRoomOverwrites() {
	room := s.room("ROOM01", "host-1", time.Now())
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, room))

	room.Name = "Renamed"
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, room))

	got, err := s.Store.GetRoom(s.Ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
}

func (s *Suite) TestListRoomsOrderedByCreation() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, s.room("B", "host-2", base.Add(time.Minute))))
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, s.room("A", "host-1", base)))

	rooms, err := s.Store.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomID("A"), rooms[0].ID)
	s.Equal(model.RoomID("B"), rooms[1].ID)
}

func (s *Suite) TestListRoomsEmpty() {
	rooms, err := s.Store.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

func (s *Suite) TestDeleteRoom() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, s.room("ROOM01", "host-1", time.Now())))
	s.Require().NoError(s.Store.DeleteRoom(s.Ctx, "ROOM01"))

	_, err := s.Store.GetRoom(s.Ctx, "ROOM01")
	s.ErrorIs(err, model.ErrRoomNotFound)

	rooms, err := s.Store.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

// User tests

func (s *Suite) TestSaveAndGetUser() {
	user := &model.User{ID: "user-1", Username: "alice", Rating: 1620, GamesPlayed: 4}
	s.Require().NoError(s.Store.SaveUser(s.Ctx, user))

	got, err := s.Store.GetUser(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(*user, *got)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Store.GetUser(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestGetRatingStatsSkipsUnknownUsers() {
	s.Require().NoError(s.Store.SaveUser(s.Ctx, &model.User{ID: "a", Username: "a", Rating: 1500, GamesPlayed: 2}))
	s.Require().NoError(s.Store.SaveUser(s.Ctx, &model.User{ID: "b", Username: "b", Rating: 1700, GamesPlayed: 40}))

	stats, err := s.Store.GetRatingStats(s.Ctx, []model.UserID{"a", "b", "ghost"})
	s.Require().NoError(err)
	s.Len(stats, 2)
	s.Equal(model.RatingStats{Rating: 1500, GamesPlayed: 2}, stats["a"])
	s.Equal(model.RatingStats{Rating: 1700, GamesPlayed: 40}, stats["b"])
}

func (s *Suite) TestGetRatingStatsEmpty() {
	stats, err := s.Store.GetRatingStats(s.Ctx, nil)
	s.Require().NoError(err)
	s.Empty(stats)
}

func (s *Suite) TestApplyNewRatingsIncrementsGamesPlayed() {
	s.Require().NoError(s.Store.SaveUser(s.Ctx, &model.User{ID: "a", Username: "a", Rating: 1500, GamesPlayed: 2}))
	s.Require().NoError(s.Store.SaveUser(s.Ctx, &model.User{ID: "b", Username: "b", Rating: 1500, GamesPlayed: 0}))

	err := s.Store.ApplyNewRatings(s.Ctx, map[model.UserID]int{"a": 1520, "b": 1480})
	s.Require().NoError(err)

	a, err := s.Store.GetUser(s.Ctx, "a")
	s.Require().NoError(err)
	s.Equal(1520, a.Rating)
	s.Equal(3, a.GamesPlayed)
	s.Equal("a", a.Username)

	b, err := s.Store.GetUser(s.Ctx, "b")
	s.Require().NoError(err)
	s.Equal(1480, b.Rating)
	s.Equal(1, b.GamesPlayed)
}

func (s *Suite) TestApplyNewRatingsIgnoresUnknownUsers() {
	err := s.Store.ApplyNewRatings(s.Ctx, map[model.UserID]int{"ghost": 1600})
	s.Require().NoError(err)

	_, err = s.Store.GetUser(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Credential tests

func (s *Suite) credentials(email, user string) *model.Credentials {
	s.Require().NoError(s.Store.SaveUser(s.Ctx, &model.User{
		ID:       model.UserID(user),
		Username: user,
		Rating:   model.DefaultRating,
	}))
	return &model.Credentials{
		Email:        email,
		UserID:       model.UserID(user),
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *Suite) TestCreateAndGetCredentials() {
	creds := s.credentials("alice@example.com", "u1")
	s.Require().NoError(s.Store.CreateCredentials(s.Ctx, creds))

	got, err := s.Store.GetCredentials(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(creds.UserID, got.UserID)
	s.Equal(creds.PasswordHash, got.PasswordHash)
	s.True(creds.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestCreateCredentialsRejectsTakenEmail() {
	s.Require().NoError(s.Store.CreateCredentials(s.Ctx, s.credentials("alice@example.com", "u1")))

	err := s.Store.CreateCredentials(s.Ctx, s.credentials("alice@example.com", "u2"))
	s.ErrorIs(err, model.ErrEmailTaken)

	got, err := s.Store.GetCredentials(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), got.UserID)
}

func (s *Suite) TestGetCredentialsNotFound() {
	_, err := s.Store.GetCredentials(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Catalog tests

func (s *Suite) TestSaveAndGetCatalog() {
	entries := []model.WordEntry{
		{ID: 1, Word: "apple", Length: 5, Form: "singular", Frequency: 9000},
		{ID: 2, Word: "pears", Length: 5, Form: "plural", Frequency: 120, Dialect: "us"},
	}
	s.Require().NoError(s.Store.SaveCatalog(s.Ctx, model.LanguageEnglish, entries))

	got, err := s.Store.GetCatalog(s.Ctx, model.LanguageEnglish)
	s.Require().NoError(err)
	s.Equal(entries, got)
}

func (s *Suite) TestGetCatalogNotLoaded() {
	_, err := s.Store.GetCatalog(s.Ctx, model.LanguageSerbian)
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}

func (s *Suite) TestSaveCatalogReplaces() {
	first := []model.WordEntry{{ID: 1, Word: "apple", Length: 5, Form: "singular"}}
	second := []model.WordEntry{{ID: 7, Word: "grape", Length: 5, Form: "singular"}}
	s.Require().NoError(s.Store.SaveCatalog(s.Ctx, model.LanguageEnglish, first))
	s.Require().NoError(s.Store.SaveCatalog(s.Ctx, model.LanguageEnglish, second))

	got, err := s.Store.GetCatalog(s.Ctx, model.LanguageEnglish)
	s.Require().NoError(err)
	s.Equal(second, got)
}

func (s *Suite) TestCatalogsAreSeparatedByLanguage() {
	en := []model.WordEntry{{ID: 1, Word: "apple", Length: 5, Form: "singular"}}
	sr := []model.WordEntry{{ID: 1, Word: "jabuka", Length: 6, Form: "singular"}}
	s.Require().NoError(s.Store.SaveCatalog(s.Ctx, model.LanguageEnglish, en))
	s.Require().NoError(s.Store.SaveCatalog(s.Ctx, model.LanguageSerbian, sr))

	got, err := s.Store.GetCatalog(s.Ctx, model.LanguageSerbian)
	s.Require().NoError(err)
	s.Equal(sr, got)
}
