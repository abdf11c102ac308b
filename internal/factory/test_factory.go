package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/connectaword/internal/dependencies/mocks"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/auth"
	"github.com/mcoot/connectaword/internal/storage/memory"
	"github.com/mcoot/connectaword/internal/testutil"
)

// TestAuthSecret signs tokens in test apps
const TestAuthSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := Config{AuthConfig: auth.Config{Secret: TestAuthSecret, BcryptCost: bcrypt.MinCost}}
	app := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// TestWords are drawn, unshuffled, in this order
var TestWords = []string{"crane", "lemon", "melon", "apple", "plate"}

// LoadTestCatalog loads a small English word list for testing.
// With no queued shuffle the round words are TestWords in order.
func (t *TestApp) LoadTestCatalog() error {
	words := append(append([]string{}, TestWords...),
		// valid guesses that are never drawn
		"crate", "trace", "react", "cater", "lemur", "peach", "cat", "grapefruit",
	)

	entries := make([]model.WordEntry, len(words))
	for i, w := range words {
		form := "singular"
		if i >= len(TestWords) {
			form = "plural"
		}
		entries[i] = model.WordEntry{ID: i + 1, Word: w, Length: len(w), Form: form}
	}
	return t.CatalogService.LoadEntries(model.LanguageEnglish, entries)
}
