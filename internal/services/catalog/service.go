package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mcoot/connectaword/internal/dependencies/random"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/grapheme"
	"github.com/mcoot/connectaword/internal/storage"
)

// Config controls which catalog entries are eligible as round words
type Config struct {
	// MaxEntryID excludes rarer words; entry IDs are frequency ranks
	MaxEntryID   int
	RequiredForm string
	MinLength    int
	MaxLength    int
	RoundSize    int
}

// DefaultConfig returns the standard round word filter
func DefaultConfig() Config {
	return Config{
		MaxEntryID:   2000,
		RequiredForm: "singular",
		MinLength:    5,
		MaxLength:    6,
		RoundSize:    model.WordsPerRound,
	}
}

// lexicon is the loaded word list for one language
type lexicon struct {
	entries  []model.WordEntry
	valid    map[string]struct{}
	eligible []string
}

// Service provides per-language word lists for drawing round words and validating guesses
type Service struct {
	storage storage.CatalogStore
	random  random.Random
	cfg     Config
	logger  *slog.Logger

	mu        sync.RWMutex
	languages map[model.Language]*lexicon
}

// New creates a new catalog Service
func New(storage storage.CatalogStore, random random.Random, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		storage:   storage,
		random:    random,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "catalog")),
		languages: make(map[model.Language]*lexicon),
	}
}

// LoadFromStorage loads a language's word list from storage
func (s *Service) LoadFromStorage(ctx context.Context, lang model.Language) error {
	entries, err := s.storage.GetCatalog(ctx, lang)
	if err != nil {
		return err
	}
	return s.LoadEntries(lang, entries)
}

// LoadFromFiles loads a language's word list from one or more JSON files,
// each holding an array of word entries. The combined list is saved to storage.
func (s *Service) LoadFromFiles(ctx context.Context, lang model.Language, paths ...string) error {
	var entries []model.WordEntry
	for _, path := range paths {
		fileEntries, err := readEntries(path)
		if err != nil {
			return err
		}
		entries = append(entries, fileEntries...)
	}

	// Save to storage for future use
	if err := s.storage.SaveCatalog(ctx, lang, entries); err != nil {
		return fmt.Errorf("save catalog %s: %w", lang, err)
	}

	return s.LoadEntries(lang, entries)
}

func readEntries(path string) ([]model.WordEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []model.WordEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

// LoadEntries directly loads a language's entries (useful for testing)
func (s *Service) LoadEntries(lang model.Language, entries []model.WordEntry) error {
	lex := &lexicon{
		entries: entries,
		valid:   make(map[string]struct{}, len(entries)),
	}
	drawable := make(map[string]struct{})
	for _, e := range entries {
		word := grapheme.Normalize(e.Word)
		if word == "" {
			continue
		}
		lex.valid[word] = struct{}{}
		if _, dup := drawable[word]; dup || !s.isEligible(e, word, lang) {
			continue
		}
		drawable[word] = struct{}{}
		lex.eligible = append(lex.eligible, word)
	}

	s.mu.Lock()
	s.languages[lang] = lex
	s.mu.Unlock()

	s.logger.Info("catalog loaded",
		slog.String("language", string(lang)),
		slog.Int("words", len(lex.valid)),
		slog.Int("eligible", len(lex.eligible)))
	return nil
}

func (s *Service) isEligible(e model.WordEntry, word string, lang model.Language) bool {
	if e.Form != s.cfg.RequiredForm || e.ID > s.cfg.MaxEntryID {
		return false
	}
	n := grapheme.VisualLength(word, lang)
	return n >= s.cfg.MinLength && n <= s.cfg.MaxLength
}

// DrawRoundWords returns up to RoundSize distinct eligible words in random order.
// Fewer are returned when the language does not have enough eligible words.
func (s *Service) DrawRoundWords(lang model.Language) []string {
	s.mu.RLock()
	lex, ok := s.languages[lang]
	var pool []string
	if ok {
		pool = append(pool, lex.eligible...)
	}
	s.mu.RUnlock()

	if len(pool) == 0 {
		return nil
	}

	s.random.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(pool) > s.cfg.RoundSize {
		pool = pool[:s.cfg.RoundSize]
	}
	return pool
}

// IsValidGuess checks a word against the language's full list, ignoring case
func (s *Service) IsValidGuess(word string, lang model.Language) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lex, ok := s.languages[lang]
	if !ok {
		return false
	}
	_, ok = lex.valid[grapheme.Normalize(word)]
	return ok
}

// IsLoaded returns whether a language's word list has been loaded
func (s *Service) IsLoaded(lang model.Language) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.languages[lang]
	return ok
}

// WordCount returns the number of distinct words for a language
func (s *Service) WordCount(lang model.Language) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lex, ok := s.languages[lang]; ok {
		return len(lex.valid)
	}
	return 0
}

// EligibleCount returns the number of words a round can be drawn from
func (s *Service) EligibleCount(lang model.Language) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lex, ok := s.languages[lang]; ok {
		return len(lex.eligible)
	}
	return 0
}

// Languages returns the languages that have been loaded
func (s *Service) Languages() []model.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	langs := make([]model.Language, 0, len(s.languages))
	for _, l := range model.SupportedLanguages {
		if _, ok := s.languages[l]; ok {
			langs = append(langs, l)
		}
	}
	return langs
}

// ServiceInterface is the catalog surface used by game sessions
type ServiceInterface interface {
	DrawRoundWords(lang model.Language) []string
	IsValidGuess(word string, lang model.Language) bool
	IsLoaded(lang model.Language) bool
	WordCount(lang model.Language) int
	EligibleCount(lang model.Language) int
	Languages() []model.Language
	LoadFromStorage(ctx context.Context, lang model.Language) error
	LoadFromFiles(ctx context.Context, lang model.Language, paths ...string) error
	LoadEntries(lang model.Language, entries []model.WordEntry) error
}

var _ ServiceInterface = (*Service)(nil)
