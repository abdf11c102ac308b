// Package wire defines the JSON messages exchanged over a game websocket.
package wire

import "github.com/mcoot/connectaword/internal/model"

// ClientMessage is sent by a player
type ClientMessage struct {
	Action string `json:"action"`
	Guess  string `json:"guess,omitempty"`
}

// ServerMessage is sent to a player. State is set for state updates and
// Message for announcements.
type ServerMessage struct {
	Type    string     `json:"type"`
	State   *GameState `json:"state,omitempty"`
	Message string     `json:"message,omitempty"`
}

type GameState struct {
	GameStatus string   `json:"gameStatus"`
	HostID     string   `json:"hostId"`
	Players    []Player `json:"players"`
	FinalWords []string `json:"finalWords,omitempty"`
}

type Player struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Rating           int       `json:"rating"`
	TotalScore       int       `json:"totalScore"`
	CurrentWordIndex int       `json:"currentWordIndex"`
	Progress         *Progress `json:"progress"`
	IsGameFinished   bool      `json:"isGameFinished"`
}

type Progress struct {
	Pattern           []string `json:"pattern"`
	PreviousGuesses   []string `json:"previousGuesses"`
	CommonLetters     []string `json:"commonLetters"`
	RemainingAttempts int      `json:"remainingAttempts"`
	IsWordFinished    bool     `json:"isWordFinished"`
}

// GameStateFromModel converts a session snapshot to its wire form
func GameStateFromModel(s model.GameState) *GameState {
	gs := &GameState{
		GameStatus: string(s.Status),
		HostID:     string(s.HostID),
		Players:    make([]Player, 0, len(s.Players)),
		FinalWords: s.FinalWords,
	}
	for _, p := range s.Players {
		gs.Players = append(gs.Players, Player{
			ID:               string(p.ID),
			Username:         p.Username,
			Rating:           p.Rating,
			TotalScore:       p.TotalScore,
			CurrentWordIndex: p.CurrentWordIndex,
			Progress:         progressFromModel(p.Progress),
			IsGameFinished:   p.IsGameFinished,
		})
	}
	return gs
}

func progressFromModel(p *model.Progress) *Progress {
	if p == nil {
		return nil
	}
	return &Progress{
		Pattern:           nonNil(p.Pattern),
		PreviousGuesses:   nonNil(p.PreviousGuesses),
		CommonLetters:     nonNil(p.CommonLetters),
		RemainingAttempts: p.RemainingAttempts,
		IsWordFinished:    p.IsWordFinished,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Player returns the entry for the given user id, or nil
func (s *GameState) Player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}
