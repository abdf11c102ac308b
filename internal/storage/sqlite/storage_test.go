package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.Ctx = context.Background()

	cfg := DefaultConfig()
	cfg.Path = filepath.Join(s.T().TempDir(), "test.db")

	store, err := New(s.Ctx, cfg)
	s.Require().NoError(err)
	s.storage = store
	s.Store = store
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) TestEmptyCatalogIsLoaded() {
	s.Require().NoError(s.storage.SaveCatalog(s.Ctx, model.LanguageEnglish, nil))

	entries, err := s.storage.GetCatalog(s.Ctx, model.LanguageEnglish)
	s.Require().NoError(err)
	s.Empty(entries)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "nested", "reopen.db")

	store, err := New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.SaveUser(ctx, &model.User{ID: "u1", Username: "alice", Rating: 1510}))
	require.NoError(t, store.Close())

	store, err = New(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	user, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1510, user.Rating)
}

func TestInMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, Config{Path: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveRoom(ctx, &model.Room{ID: "R1", Name: "one"}))
	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
}
