package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/connectaword/internal/dependencies/clock"
	"github.com/mcoot/connectaword/internal/dependencies/random"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/services/evaluator"
	"github.com/mcoot/connectaword/internal/services/grapheme"
	"github.com/mcoot/connectaword/internal/services/rating"
	"github.com/mcoot/connectaword/internal/storage"
)

// ReasonReplaced is the close reason given to a connection superseded by a newer one
const ReasonReplaced = "Connected from another session"

// Channel is one live client connection. Send must not block and Close must be
// idempotent; both are called with the session lock held.
type Channel interface {
	ID() string
	Send(msg model.Outbound) error
	Close(reason string)
}

// Connection is a channel bound to an identified user
type Connection struct {
	Channel  Channel
	UserID   model.UserID
	Username string
	Rating   int
}

// Catalog is the word source used by a session
type Catalog interface {
	DrawRoundWords(lang model.Language) []string
	IsValidGuess(word string, lang model.Language) bool
}

// Config holds session settings
type Config struct {
	// RatingTimeout bounds the storage calls made when a game finishes
	RatingTimeout time.Duration
}

// DefaultConfig returns the default session settings
func DefaultConfig() Config {
	return Config{RatingTimeout: 5 * time.Second}
}

// Session owns the live game of a single room
type Session struct {
	room    model.Room
	catalog Catalog
	ratings *rating.Service
	users   storage.UserStore
	random  random.Random
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config

	mu          sync.Mutex
	closed      bool
	status      model.GameStatus
	players     []*model.PlayerState
	connections map[model.UserID]Channel
	targets     [][]string // Tokenized round words
	words       []string
	initial     [][]string // Initial reveal pattern per word
	finalWords  []string
	startedAt   time.Time
}

// New creates a session for the given room in the WAITING state
func New(
	room *model.Room,
	catalog Catalog,
	ratings *rating.Service,
	users storage.UserStore,
	random random.Random,
	clock clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Session {
	if cfg.RatingTimeout <= 0 {
		cfg.RatingTimeout = DefaultConfig().RatingTimeout
	}
	return &Session{
		room:    *room,
		catalog: catalog,
		ratings: ratings,
		users:   users,
		random:  random,
		clock:   clock,
		logger: logger.With(
			slog.String("component", "session"),
			slog.String("room_id", string(room.ID)),
		),
		cfg:         cfg,
		status:      model.GameStatusWaiting,
		connections: make(map[model.UserID]Channel),
	}
}

func (s *Session) RoomID() model.RoomID {
	return s.room.ID
}

func (s *Session) HostID() model.UserID {
	return s.room.HostID
}

func (s *Session) Language() model.Language {
	return s.room.Language
}

// Status returns the current game status
func (s *Session) Status() model.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ConnectionCount returns the number of live connections
func (s *Session) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// AddPlayer registers a connection, replacing any existing connection for the same
// user. A roster entry is created the first time a user joins; isNew reports that.
func (s *Session) AddPlayer(conn Connection) (isNew bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, model.ErrSessionClosed
	}

	if old, ok := s.connections[conn.UserID]; ok && old.ID() != conn.Channel.ID() {
		s.logger.Info("replacing connection",
			slog.String("user_id", string(conn.UserID)),
			slog.String("old_conn", old.ID()),
			slog.String("new_conn", conn.Channel.ID()))
		old.Close(ReasonReplaced)
	}
	s.connections[conn.UserID] = conn.Channel

	if s.playerLocked(conn.UserID) != nil {
		return false, nil
	}
	s.players = append(s.players, &model.PlayerState{
		ID:       conn.UserID,
		Username: conn.Username,
		Rating:   conn.Rating,
	})
	return true, nil
}

// RemoveConnection drops the channel if it is still the registered one for its user.
// The roster entry is kept so the player can reconnect.
func (s *Session) RemoveConnection(ch Channel) (username string, removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.connections {
		if c.ID() != ch.ID() {
			continue
		}
		delete(s.connections, id)
		if p := s.playerLocked(id); p != nil {
			username = p.Username
		}
		return username, true
	}
	return "", false
}

// IsEmpty reports whether the session has no connections
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections) == 0
}

// CloseIfEmpty marks the session closed if it has no connections. A closed session
// rejects further joins.
func (s *Session) CloseIfEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.connections) > 0 {
		return false
	}
	s.closed = true
	return true
}

// CloseAll closes every connection and the session itself
func (s *Session) CloseAll(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.connections {
		ch.Close(reason)
		delete(s.connections, id)
	}
	s.closed = true
}

// Start begins the first game. Only valid while waiting.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != model.GameStatusWaiting {
		return model.ErrGameInProgress
	}
	return s.startRoundLocked()
}

// PlayAgain starts a new game with fresh words once the previous one finished
func (s *Session) PlayAgain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != model.GameStatusFinished {
		return model.ErrGameNotFinished
	}
	return s.startRoundLocked()
}

func (s *Session) startRoundLocked() error {
	words := s.catalog.DrawRoundWords(s.room.Language)
	if len(words) < model.WordsPerRound {
		s.logger.Error("not enough words to start round",
			slog.String("language", string(s.room.Language)),
			slog.Int("words", len(words)))
		return fmt.Errorf("%w: got %d for %s", model.ErrNotEnoughWords, len(words), s.room.Language)
	}

	s.words = words
	s.targets = make([][]string, len(words))
	s.initial = make([][]string, len(words))
	for i, w := range words {
		s.targets[i] = grapheme.Tokenize(w, s.room.Language)
		s.initial[i] = s.initialPattern(s.targets[i])
	}

	for _, p := range s.players {
		p.TotalScore = 0
		p.CurrentWordIndex = 0
		p.IsGameFinished = false
		p.Progress = model.NewProgress(s.initial[0])
	}

	s.status = model.GameStatusInProgress
	s.finalWords = nil
	s.startedAt = s.clock.Now()

	s.logger.Info("round started", slog.Int("players", len(s.players)))
	s.broadcastLocked()
	return nil
}

// initialPattern reveals one randomly chosen consonant unit, or nothing if the word has none
func (s *Session) initialPattern(target []string) []string {
	pattern := make([]string, len(target))
	var consonants []int
	for i, tok := range target {
		pattern[i] = model.HiddenToken
		if grapheme.IsConsonant(tok, s.room.Language) {
			consonants = append(consonants, i)
		}
	}
	if len(consonants) == 0 {
		return pattern
	}
	idx := consonants[s.random.Intn(len(consonants))]
	pattern[idx] = target[idx]
	return pattern
}

// ProcessGuess applies a guess to the player's current word. Guesses from players
// without an active word are ignored. Rejected guesses are announced to the player
// and leave the state unchanged.
func (s *Session) ProcessGuess(ctx context.Context, userID model.UserID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerLocked(userID)
	if s.status != model.GameStatusInProgress || p == nil || p.Progress == nil {
		return nil
	}

	guess := grapheme.Normalize(text)
	guessTokens := grapheme.Tokenize(guess, s.room.Language)
	target := s.targets[p.CurrentWordIndex]

	var reason string
	switch {
	case len(guessTokens) != len(target):
		reason = fmt.Sprintf("Guess '%s' is invalid: must have %d letters.", guess, len(target))
	case !s.catalog.IsValidGuess(guess, s.room.Language):
		reason = fmt.Sprintf("Guess '%s' is invalid: is not a valid word.", guess)
	case !evaluator.ConsistentWithPattern(guessTokens, p.Progress.Pattern):
		reason = "Guess must match the revealed letters in the pattern."
	}
	if reason != "" {
		s.sendLocked(userID, model.Announcement{Message: reason})
		return fmt.Errorf("%w: %s", model.ErrInvalidGuess, reason)
	}

	result := evaluator.Evaluate(guessTokens, target, p.Progress.Pattern)
	progress := p.Progress
	progress.PreviousGuesses = append(progress.PreviousGuesses, guess)
	progress.Pattern = result.Pattern
	progress.CommonLetters = unionSorted(progress.CommonLetters, result.Misplaced)
	progress.RemainingAttempts--

	solved := evaluator.Solved(result.Pattern, target)
	if solved || progress.RemainingAttempts <= 0 {
		score := 0
		if solved {
			score = model.SolveBonus + progress.RemainingAttempts
		}
		s.logger.Info("word finished",
			slog.String("user_id", string(userID)),
			slog.Int("word_index", p.CurrentWordIndex),
			slog.Bool("solved", solved),
			slog.Int("score", score))
		s.advanceLocked(p, score)
	}

	s.afterMoveLocked(ctx)
	return nil
}

// ProcessSurrender gives up the player's current word for zero points
func (s *Session) ProcessSurrender(ctx context.Context, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.playerLocked(userID)
	if s.status != model.GameStatusInProgress || p == nil || p.Progress == nil {
		return nil
	}

	s.logger.Info("word surrendered",
		slog.String("user_id", string(userID)),
		slog.Int("word_index", p.CurrentWordIndex))
	s.advanceLocked(p, 0)
	s.afterMoveLocked(ctx)
	return nil
}

func (s *Session) advanceLocked(p *model.PlayerState, score int) {
	p.TotalScore += score
	next := p.CurrentWordIndex + 1
	if next < len(s.words) {
		p.CurrentWordIndex = next
		p.Progress = model.NewProgress(s.initial[next])
		return
	}
	p.IsGameFinished = true
	p.Progress = nil
}

func (s *Session) afterMoveLocked(ctx context.Context) {
	if s.allFinishedLocked() {
		s.finishLocked(ctx)
	}
	s.broadcastLocked()
}

// allFinishedLocked reports whether nobody still has a word to play. Players who
// joined mid-round never received progress and do not hold the game open.
func (s *Session) allFinishedLocked() bool {
	anyFinished := false
	for _, p := range s.players {
		if p.Progress != nil {
			return false
		}
		anyFinished = anyFinished || p.IsGameFinished
	}
	return anyFinished
}

func (s *Session) finishLocked(ctx context.Context) {
	s.status = model.GameStatusFinished
	s.finalWords = append([]string(nil), s.words...)
	s.logger.Info("game finished", slog.Duration("duration", s.clock.Now().Sub(s.startedAt)))

	var finished []model.UserID
	for _, p := range s.players {
		if p.IsGameFinished {
			finished = append(finished, p.ID)
		}
	}
	if len(finished) < 2 {
		s.logger.Info("not enough players to rate, skipping", slog.Int("players", len(finished)))
		return
	}

	if err := s.applyRatingsLocked(ctx, finished); err != nil {
		s.logger.Error("failed to update ratings", slog.String("error", err.Error()))
	}
}

func (s *Session) applyRatingsLocked(ctx context.Context, ids []model.UserID) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RatingTimeout)
	defer cancel()

	stats, err := s.users.GetRatingStats(ctx, ids)
	if err != nil {
		return fmt.Errorf("load rating stats: %w", err)
	}

	// Guests have no stored stats and are left out
	participants := make([]rating.Participant, 0, len(ids))
	for _, id := range ids {
		st, ok := stats[id]
		if !ok {
			continue
		}
		participants = append(participants, rating.Participant{
			UserID:      id,
			Score:       s.playerLocked(id).TotalScore,
			Rating:      st.Rating,
			GamesPlayed: st.GamesPlayed,
		})
	}
	if len(participants) == 0 {
		return nil
	}

	newRatings := s.ratings.ComputeNewRatings(participants)
	if err := s.users.ApplyNewRatings(ctx, newRatings); err != nil {
		return fmt.Errorf("apply ratings: %w", err)
	}

	for id, r := range newRatings {
		s.playerLocked(id).Rating = r
	}
	s.logger.Info("ratings updated", slog.Int("players", len(newRatings)))
	return nil
}

// BroadcastState sends every connection its own view of the game
func (s *Session) BroadcastState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked()
}

func (s *Session) broadcastLocked() {
	for _, p := range s.players {
		if _, ok := s.connections[p.ID]; !ok {
			continue
		}
		s.sendLocked(p.ID, model.StateUpdate{State: s.snapshotLocked(p.ID)})
	}
}

// Announce sends a message to one user, if connected
func (s *Session) Announce(userID model.UserID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(userID, model.Announcement{Message: message})
}

// AnnounceOthers sends a message to every connected user except one
func (s *Session) AnnounceOthers(except model.UserID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.ID == except {
			continue
		}
		s.sendLocked(p.ID, model.Announcement{Message: message})
	}
}

// sendLocked delivers to one user's connection. A failed send drops the
// connection as though it had left.
func (s *Session) sendLocked(userID model.UserID, msg model.Outbound) {
	ch, ok := s.connections[userID]
	if !ok {
		return
	}
	if err := ch.Send(msg); err != nil {
		s.logger.Warn("send failed, dropping connection",
			slog.String("user_id", string(userID)),
			slog.String("conn_id", ch.ID()),
			slog.String("error", err.Error()))
		delete(s.connections, userID)
		ch.Close("send failed")
	}
}

// Snapshot returns the game state as seen by the given user: only their own
// progress is included.
func (s *Session) Snapshot(viewer model.UserID) model.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(viewer)
}

// PublicSnapshot returns the game state with every player's progress hidden
func (s *Session) PublicSnapshot() model.GameState {
	return s.Snapshot("")
}

func (s *Session) snapshotLocked(viewer model.UserID) model.GameState {
	state := model.GameState{
		Status:  s.status,
		HostID:  s.room.HostID,
		Players: make([]model.PlayerState, 0, len(s.players)),
	}
	for _, p := range s.players {
		ps := *p
		ps.Progress = nil
		if viewer != "" && p.ID == viewer {
			ps.Progress = p.Progress.Clone()
		}
		state.Players = append(state.Players, ps)
	}
	if s.status == model.GameStatusFinished {
		state.FinalWords = append([]string(nil), s.finalWords...)
	}
	return state
}

func (s *Session) playerLocked(id model.UserID) *model.PlayerState {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
