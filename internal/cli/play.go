package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/transport/wire"
)

const playHelp = `Commands:
  /start      start the game (host only)
  /surrender  give up the current game
  /again      play again once the game has finished
  /quit       leave the room
Anything else is sent as a guess.`

// errQuit is returned by parseLine for /quit
var errQuit = errors.New("quit")

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <room-id>",
		Short: "Join a room's game and play from the terminal",
		Long:  "Join a room's game over a websocket.\n\n" + playHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("not logged in: run login or pass --token")
			}

			gameURL, err := cfg.GameURL(args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(playHelp)

			p := &Player{
				URL:     gameURL,
				In:      cmd.InOrStdin(),
				Out:     out,
				Verbose: cfg.Verbose,
			}
			return p.Run(cmd.Context())
		},
	}
}

// Player relays terminal input to a game websocket and prints what the server sends
type Player struct {
	URL     string
	In      io.Reader
	Out     *Output
	Verbose bool

	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Run connects and plays until the input ends, /quit is entered, the server
// closes the connection or ctx is canceled
func (p *Player) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, p.URL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect failed: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connect failed: %w", err)
	}
	defer func() { _ = conn.Close() }()
	p.conn = conn

	readDone := make(chan error, 1)
	go func() { readDone <- p.readLoop() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(p.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			p.closeConn()
			return ctx.Err()

		case err := <-readDone:
			return err

		case line, ok := <-lines:
			if !ok {
				return p.leave(readDone)
			}

			action, err := parseLine(line)
			if errors.Is(err, errQuit) {
				return p.leave(readDone)
			}
			if err != nil {
				p.Out.PrintError(err)
				continue
			}
			if action == nil {
				continue
			}

			if err := p.send(action); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

func (p *Player) readLoop() error {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				switch ce.Code {
				case websocket.CloseNormalClosure:
					return nil
				case websocket.CloseGoingAway:
					p.Out.PrintMessage("Server is shutting down.")
					return nil
				}
				return fmt.Errorf("disconnected: %s", ce.Text)
			}
			return err
		}

		if p.Verbose {
			p.Out.PrintMessage(string(data))
		}

		msg, err := wire.DecodeServerMessage(data)
		if err != nil {
			p.Out.PrintError(fmt.Errorf("unreadable message: %w", err))
			continue
		}
		p.Out.Print(msg)
	}
}

func (p *Player) send(action model.Action) error {
	data, err := wire.EncodeAction(action)
	if err != nil {
		return err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// leave sends a close frame and waits briefly for the server to acknowledge it
func (p *Player) leave(readDone <-chan error) error {
	p.closeConn()

	select {
	case err := <-readDone:
		return err
	case <-time.After(2 * time.Second):
		return nil
	}
}

func (p *Player) closeConn() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// parseLine turns a line of input into an action. Blank lines give a nil action.
func parseLine(line string) (model.Action, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if !strings.HasPrefix(line, "/") {
		return model.GuessAction{Guess: line}, nil
	}

	switch strings.ToLower(line) {
	case "/start":
		return model.StartAction{}, nil
	case "/surrender":
		return model.SurrenderAction{}, nil
	case "/again":
		return model.PlayAgainAction{}, nil
	case "/quit":
		return nil, errQuit
	default:
		return nil, fmt.Errorf("unknown command %s", line)
	}
}
