package wire

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/connectaword/internal/model"
)

// DecodeAction parses a client message. Malformed JSON and unrecognised
// actions return an error wrapping model.ErrUnknownAction.
func DecodeAction(data []byte) (model.Action, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnknownAction, err)
	}

	switch model.ActionType(msg.Action) {
	case model.ActionStart:
		return model.StartAction{}, nil
	case model.ActionGuess:
		return model.GuessAction{Guess: msg.Guess}, nil
	case model.ActionSurrender:
		return model.SurrenderAction{}, nil
	case model.ActionPlayAgain:
		return model.PlayAgainAction{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownAction, msg.Action)
	}
}

// EncodeAction renders an action as a client message
func EncodeAction(action model.Action) ([]byte, error) {
	msg := ClientMessage{Action: string(action.Type())}
	if g, ok := action.(model.GuessAction); ok {
		msg.Guess = g.Guess
	}
	return json.Marshal(msg)
}

// EncodeOutbound renders a session message as a server message
func EncodeOutbound(out model.Outbound) ([]byte, error) {
	msg := ServerMessage{Type: string(out.Type())}
	switch m := out.(type) {
	case model.StateUpdate:
		msg.State = GameStateFromModel(m.State)
	case model.Announcement:
		msg.Message = m.Message
	default:
		return nil, fmt.Errorf("unsupported outbound message %T", out)
	}
	return json.Marshal(msg)
}

// DecodeServerMessage parses a server message
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
