package model

const (
	// WordsPerRound is the number of words each player works through in a game
	WordsPerRound = 5
	// MaxAttempts is the number of guesses a player gets per word
	MaxAttempts = 10
	// SolveBonus is the base score for solving a word, plus remaining attempts
	SolveBonus = 50
	// HiddenToken marks an unrevealed position in a pattern
	HiddenToken = "_"
)

// GameStatus represents the current phase of a room's game
type GameStatus string

const (
	GameStatusWaiting    GameStatus = "WAITING"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusFinished   GameStatus = "FINISHED"
)

// Progress tracks one player's work on their current word
type Progress struct {
	Pattern           []string // One token per letter unit, HiddenToken where unrevealed
	PreviousGuesses   []string
	CommonLetters     []string // Sorted set of letters present but misplaced
	RemainingAttempts int
	// IsWordFinished is false on live progress: a finished word's progress is
	// replaced by the next word's, or dropped after the last. It stays on the
	// wire for clients that read it.
	IsWordFinished    bool
}

// NewProgress returns fresh progress for a word starting from the given pattern
func NewProgress(pattern []string) *Progress {
	return &Progress{
		Pattern:           append([]string(nil), pattern...),
		PreviousGuesses:   []string{},
		CommonLetters:     []string{},
		RemainingAttempts: MaxAttempts,
	}
}

// Clone returns a deep copy of the progress
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	return &Progress{
		Pattern:           append([]string(nil), p.Pattern...),
		PreviousGuesses:   append([]string(nil), p.PreviousGuesses...),
		CommonLetters:     append([]string(nil), p.CommonLetters...),
		RemainingAttempts: p.RemainingAttempts,
		IsWordFinished:    p.IsWordFinished,
	}
}

// PlayerState is a player's standing within a room's game
type PlayerState struct {
	ID               UserID
	Username         string
	Rating           int
	TotalScore       int
	CurrentWordIndex int
	Progress         *Progress // nil when not playing a word
	IsGameFinished   bool
}

// InRound reports whether the player still has words to play this game
func (p *PlayerState) InRound() bool {
	return p.Progress != nil
}

// GameState is a point-in-time snapshot of a room's game
type GameState struct {
	Status     GameStatus
	HostID     UserID
	Players    []PlayerState
	FinalWords []string // Only populated once the game is finished
}

// Player returns the snapshot entry for the given user, or nil
func (s GameState) Player(id UserID) *PlayerState {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}
