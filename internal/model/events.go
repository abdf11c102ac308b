package model

// ActionType identifies an inbound client action
type ActionType string

const (
	ActionStart     ActionType = "start"
	ActionGuess     ActionType = "guess"
	ActionSurrender ActionType = "surrender"
	ActionPlayAgain ActionType = "play_again"
)

// Action is an inbound message from a connected player
type Action interface {
	Type() ActionType
}

// StartAction asks to start the first round (host only)
type StartAction struct{}

// GuessAction submits a guess for the player's current word
type GuessAction struct {
	Guess string
}

// SurrenderAction gives up the player's current word
type SurrenderAction struct{}

// PlayAgainAction asks to start a new game after one finished (host only)
type PlayAgainAction struct{}

func (StartAction) Type() ActionType     { return ActionStart }
func (GuessAction) Type() ActionType     { return ActionGuess }
func (SurrenderAction) Type() ActionType { return ActionSurrender }
func (PlayAgainAction) Type() ActionType { return ActionPlayAgain }

// OutboundType identifies an outbound server message
type OutboundType string

const (
	OutboundStateUpdate  OutboundType = "state_update"
	OutboundAnnouncement OutboundType = "announcement"
)

// Outbound is a message sent from a session to one connection
type Outbound interface {
	Type() OutboundType
}

// StateUpdate carries a game snapshot redacted for its recipient
type StateUpdate struct {
	State GameState
}

// Announcement carries a human-readable notice
type Announcement struct {
	Message string
}

func (StateUpdate) Type() OutboundType  { return OutboundStateUpdate }
func (Announcement) Type() OutboundType { return OutboundAnnouncement }
