package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/connectaword/internal/dependencies/mocks"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage/memory"
	"github.com/mcoot/connectaword/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.random, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func entry(id int, word, form string) model.WordEntry {
	return model.WordEntry{ID: id, Word: word, Length: len([]rune(word)), Form: form}
}

func (s *ServiceSuite) englishEntries() []model.WordEntry {
	return []model.WordEntry{
		entry(1, "apple", "singular"),
		entry(2, "crane", "singular"),
		entry(3, "boats", "plural"),
		entry(4, "plate", "singular"),
		entry(5, "cat", "singular"),
		entry(6, "orange", "singular"),
		entry(7, "bananas", "singular"),
		entry(8, "lemon", "singular"),
		entry(2500, "zebra", "singular"),
		entry(9, "melon", "singular"),
	}
}

func (s *ServiceSuite) TestIsNotLoadedByDefault() {
	s.False(s.service.IsLoaded(model.LanguageEnglish))
	s.Equal(0, s.service.WordCount(model.LanguageEnglish))
	s.Empty(s.service.Languages())
}

func (s *ServiceSuite) TestLoadEntries() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageEnglish, s.englishEntries()))

	s.True(s.service.IsLoaded(model.LanguageEnglish))
	s.False(s.service.IsLoaded(model.LanguageSerbian))
	s.Equal(10, s.service.WordCount(model.LanguageEnglish))
	s.Equal([]model.Language{model.LanguageEnglish}, s.service.Languages())
}

func (s *ServiceSuite) TestEligibilityFilter() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageEnglish, s.englishEntries()))

	// apple crane plate orange lemon melon; not boats (plural), cat/bananas (length), zebra (id)
	s.Equal(6, s.service.EligibleCount(model.LanguageEnglish))
}

func (s *ServiceSuite) TestDrawRoundWordsFirstFiveWithoutShuffle() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageEnglish, s.englishEntries()))

	words := s.service.DrawRoundWords(model.LanguageEnglish)
	s.Equal([]string{"APPLE", "CRANE", "PLATE", "ORANGE", "LEMON"}, words)
}

func (s *ServiceSuite) TestDrawRoundWordsUsesShuffle() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageEnglish, s.englishEntries()))
	s.random.QueuePermutation(5, 4, 3, 2, 1, 0)

	words := s.service.DrawRoundWords(model.LanguageEnglish)
	s.Equal([]string{"MELON", "LEMON", "ORANGE", "PLATE", "CRANE"}, words)
}

func (s *ServiceSuite) TestDrawRoundWordsAreDistinct() {
	entries := append(s.englishEntries(), entry(10, "APPLE", "singular"))
	s.Require().NoError(s.service.LoadEntries(model.LanguageEnglish, entries))

	words := s.service.DrawRoundWords(model.LanguageEnglish)
	seen := map[string]bool{}
	for _, w := range words {
		s.False(seen[w], "duplicate %s", w)
		seen[w] = true
	}
}

func (s *ServiceSuite) TestDrawRoundWordsTooFewEligible() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageEnglish, []model.WordEntry{
		entry(1, "apple", "singular"),
		entry(2, "crane", "singular"),
		entry(3, "cat", "singular"),
	}))

	words := s.service.DrawRoundWords(model.LanguageEnglish)
	s.Len(words, 2)
}

func (s *ServiceSuite) TestDrawRoundWordsUnknownLanguage() {
	s.Empty(s.service.DrawRoundWords("klingon"))
}

func (s *ServiceSuite) TestSerbianLengthUsesLetterUnits() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageSerbian, []model.WordEntry{
		// LJ U B A V = 5 units, 6 runes
		entry(1, "ljubav", "singular"),
		// NJ I V A = 4 units
		entry(2, "njiva", "singular"),
		// DŽ U N G L A = 6 units, 7 runes
		entry(3, "džungla", "singular"),
	}))

	s.Equal(2, s.service.EligibleCount(model.LanguageSerbian))
	s.Equal([]string{"LJUBAV", "DŽUNGLA"}, s.service.DrawRoundWords(model.LanguageSerbian))
}

func (s *ServiceSuite) TestIsValidGuessUsesFullList() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageEnglish, s.englishEntries()))

	s.True(s.service.IsValidGuess("apple", model.LanguageEnglish))
	s.True(s.service.IsValidGuess("BOATS", model.LanguageEnglish))
	s.True(s.service.IsValidGuess("Zebra", model.LanguageEnglish))
	s.False(s.service.IsValidGuess("grape", model.LanguageEnglish))
	s.False(s.service.IsValidGuess("apple", model.LanguageSerbian))
}

func (s *ServiceSuite) TestIsValidGuessSerbianCaseInsensitive() {
	s.Require().NoError(s.service.LoadEntries(model.LanguageSerbian, []model.WordEntry{
		entry(1, "džungla", "singular"),
	}))

	s.True(s.service.IsValidGuess("DŽUNGLA", model.LanguageSerbian))
	s.True(s.service.IsValidGuess("Džungla", model.LanguageSerbian))
}

func (s *ServiceSuite) TestLoadFromFilesSavesToStorage() {
	dir := s.T().TempDir()
	first := filepath.Join(dir, "words_sr_1.json")
	second := filepath.Join(dir, "words_sr_2.json")
	s.Require().NoError(os.WriteFile(first, []byte(`[
		{"id": 1, "word": "jabuka", "length": 6, "form": "singular", "frequency": 1200, "dialect": null}
	]`), 0o644))
	s.Require().NoError(os.WriteFile(second, []byte(`[
		{"id": 2, "word": "kruška", "length": 6, "form": "singular", "frequency": 800, "dialect": "ekavski"}
	]`), 0o644))

	err := s.service.LoadFromFiles(s.ctx, model.LanguageSerbian, first, second)
	s.Require().NoError(err)
	s.Equal(2, s.service.WordCount(model.LanguageSerbian))

	stored, err := s.storage.GetCatalog(s.ctx, model.LanguageSerbian)
	s.Require().NoError(err)
	s.Len(stored, 2)
	s.Equal("ekavski", stored[1].Dialect)
}

func (s *ServiceSuite) TestLoadFromFilesMissingFile() {
	err := s.service.LoadFromFiles(s.ctx, model.LanguageEnglish, filepath.Join(s.T().TempDir(), "nope.json"))
	s.Error(err)
	s.False(s.service.IsLoaded(model.LanguageEnglish))
}

func (s *ServiceSuite) TestLoadFromFilesInvalidJSON() {
	path := filepath.Join(s.T().TempDir(), "bad.json")
	s.Require().NoError(os.WriteFile(path, []byte(`{not json`), 0o644))

	err := s.service.LoadFromFiles(s.ctx, model.LanguageEnglish, path)
	s.Error(err)
}

func (s *ServiceSuite) TestLoadFromStorage() {
	s.Require().NoError(s.storage.SaveCatalog(s.ctx, model.LanguageEnglish, s.englishEntries()))

	s.Require().NoError(s.service.LoadFromStorage(s.ctx, model.LanguageEnglish))
	s.True(s.service.IsValidGuess("lemon", model.LanguageEnglish))
}

func (s *ServiceSuite) TestLoadFromStorageNotLoaded() {
	err := s.service.LoadFromStorage(s.ctx, model.LanguageEnglish)
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}
