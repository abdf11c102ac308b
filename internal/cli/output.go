package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/connectaword/internal/transport/wire"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w, errW: os.Stderr}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case TokenResult:
		fmt.Fprintf(o.w, "Token: %s\n", v.Token)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case wire.GameState:
		o.printGameState(&v)
	case *wire.ServerMessage:
		o.printServerMessage(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
}

// AuthResult combines user and token
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// TokenResult is a locally issued token
type TokenResult struct {
	Token string `json:"token"`
}

// Room response type
type Room struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HostID       string `json:"host_id"`
	HostUsername string `json:"host_username"`
	HostRating   int    `json:"host_rating"`
	Language     string `json:"language"`
	WordSource   string `json:"word_source"`
	CreatedAt    string `json:"created_at"`
	Live         bool   `json:"live"`
}

// RoomList response type
type RoomList []Room

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"active_rooms"`
}

func (o *Output) printUser(u User) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.Username, u.ID)
	fmt.Fprintf(o.w, "Rating: %d\n", u.Rating)
	fmt.Fprintf(o.w, "Games Played: %d\n", u.GamesPlayed)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Token: %s\n", a.Token)
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %s (%s)\n", r.Name, r.ID)
	fmt.Fprintf(o.w, "Host: %s [%d]\n", r.HostUsername, r.HostRating)
	fmt.Fprintf(o.w, "Language: %s\n", r.Language)
	fmt.Fprintf(o.w, "Word Source: %s\n", r.WordSource)
	if r.Live {
		fmt.Fprintln(o.w, "Live: yes")
	}
}

func (o *Output) printRoomList(rooms RoomList) {
	if len(rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range rooms {
		live := ""
		if r.Live {
			live = " [live]"
		}
		fmt.Fprintf(o.w, "%s  %s  %s  host %s [%d]%s\n", r.ID, r.Name, r.Language, r.HostUsername, r.HostRating, live)
	}
}

func (o *Output) printServerMessage(m *wire.ServerMessage) {
	switch {
	case m.State != nil:
		o.printGameState(m.State)
	case m.Message != "":
		fmt.Fprintf(o.w, "* %s\n", m.Message)
	}
}

func (o *Output) printGameState(g *wire.GameState) {
	fmt.Fprintf(o.w, "Game: %s (host %s)\n", g.GameStatus, g.HostID)

	for _, p := range g.Players {
		done := ""
		if p.IsGameFinished {
			done = " done"
		}
		fmt.Fprintf(o.w, "  %s [%d] score %d, word %d%s\n", p.Username, p.Rating, p.TotalScore, p.CurrentWordIndex+1, done)
		if p.Progress == nil {
			continue
		}

		fmt.Fprintf(o.w, "    %s\n", strings.Join(p.Progress.Pattern, " "))
		if len(p.Progress.PreviousGuesses) > 0 {
			fmt.Fprintf(o.w, "    guesses: %s\n", strings.Join(p.Progress.PreviousGuesses, ", "))
		}
		if len(p.Progress.CommonLetters) > 0 {
			fmt.Fprintf(o.w, "    letters: %s\n", strings.Join(p.Progress.CommonLetters, " "))
		}
		fmt.Fprintf(o.w, "    attempts left: %d\n", p.Progress.RemainingAttempts)
	}

	if len(g.FinalWords) > 0 {
		fmt.Fprintf(o.w, "Words: %s\n", strings.Join(g.FinalWords, ", "))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Active Rooms: %d\n", h.ActiveRooms)
}
