package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/connectaword/internal/api"
	"github.com/mcoot/connectaword/internal/factory"
	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/testutil"
	"github.com/mcoot/connectaword/internal/transport/wire"
	"github.com/mcoot/connectaword/internal/transport/ws"
)

// syncBuffer is a bytes.Buffer safe for the play reader goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type cliEnv struct {
	t         *testing.T
	server    *httptest.Server
	tokenFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("CWPLAY_TOKEN", "")

	app := factory.NewTestApp()
	require.NoError(t, app.LoadTestCatalog())

	router := api.NewRouter(api.RouterConfig{
		Logger:       testutil.NopLogger(),
		AuthService:  app.AuthService,
		RoomService:  app.RoomService,
		Registry:     app.Registry,
		SocketConfig: ws.DefaultConfig(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		_ = app.Close(context.Background())
		server.Close()
	})

	return &cliEnv{
		t:         t,
		server:    server,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

func (e *cliEnv) run(in io.Reader, out io.Writer, args ...string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(append([]string{"--server", e.server.URL, "--token-file", e.tokenFile}, args...))
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	if in != nil {
		cmd.SetIn(in)
	}
	return cmd.Execute()
}

func (e *cliEnv) output(args ...string) string {
	e.t.Helper()
	var out bytes.Buffer
	require.NoError(e.t, e.run(nil, &out, args...))
	return out.String()
}

func (e *cliEnv) register(name string) {
	e.t.Helper()
	e.output("register", "--username", name, "--email", name+"@example.com", "--password", "hunter22")
}

func (e *cliEnv) createRoom(name string) Room {
	e.t.Helper()
	var room Room
	require.NoError(e.t, json.Unmarshal([]byte(e.output("-o", "json", "rooms", "create", "--name", name)), &room))
	return room
}

func TestHealthCommand(t *testing.T) {
	env := newCLIEnv(t)

	out := env.output("health")
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "Active Rooms: 0")
}

func TestRegisterSavesTokenAndMe(t *testing.T) {
	env := newCLIEnv(t)

	out := env.output("register", "--username", "alice", "--email", "alice@example.com", "--password", "hunter22")
	assert.Contains(t, out, "User: alice")
	assert.Contains(t, out, "Rating: 1500")
	assert.FileExists(t, env.tokenFile)

	out = env.output("me")
	assert.Contains(t, out, "User: alice")
	assert.Contains(t, out, "Games Played: 0")
}

func TestLoginWithWrongPassword(t *testing.T) {
	env := newCLIEnv(t)
	env.register("alice")

	err := env.run(nil, io.Discard, "login", "--email", "alice@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CREDENTIALS")
}

func TestMeRequiresLogin(t *testing.T) {
	env := newCLIEnv(t)

	err := env.run(nil, io.Discard, "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

func TestRoomCommands(t *testing.T) {
	env := newCLIEnv(t)
	env.register("alice")

	room := env.createRoom("Lunch")
	assert.Equal(t, "Lunch", room.Name)
	assert.Equal(t, "english", room.Language)
	assert.Equal(t, "SERVER", room.WordSource)

	out := env.output("rooms", "list")
	assert.Contains(t, out, room.ID)
	assert.Contains(t, out, "host alice [1500]")

	out = env.output("rooms", "get", room.ID)
	assert.Contains(t, out, "Room: Lunch")

	err := env.run(nil, io.Discard, "rooms", "session", room.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_NOT_FOUND")

	out = env.output("rooms", "delete", room.ID)
	assert.Contains(t, out, "Deleted room "+room.ID)
	assert.Contains(t, env.output("rooms", "list"), "No rooms")
}

func TestTokenCommand(t *testing.T) {
	env := newCLIEnv(t)

	err := env.run(nil, io.Discard, "token", "guest-7", "--secret", "")
	require.Error(t, err)

	out := env.output("token", "guest-7", "--secret", factory.TestAuthSecret, "--save")
	assert.Contains(t, out, "Token: ")
	assert.FileExists(t, env.tokenFile)

	// unknown ids are guests
	out = env.output("me")
	assert.Contains(t, out, "User: Guest (guest-7)")
}

func TestPlayRequiresToken(t *testing.T) {
	env := newCLIEnv(t)

	err := env.run(strings.NewReader(""), io.Discard, "play", "ROOM01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestPlayUnknownRoom(t *testing.T) {
	env := newCLIEnv(t)
	env.register("alice")

	err := env.run(strings.NewReader(""), io.Discard, "play", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Room not found")
}

func TestPlaySolvesWord(t *testing.T) {
	env := newCLIEnv(t)
	env.register("alice")
	room := env.createRoom("Lunch")

	inR, inW := io.Pipe()
	t.Cleanup(func() { _ = inW.Close() })
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- env.run(inR, out, "play", room.ID) }()

	waitFor := func(text string) {
		t.Helper()
		assert.Eventually(t, func() bool {
			return strings.Contains(out.String(), text)
		}, 2*time.Second, 10*time.Millisecond, "waiting for %q in:\n%s", text, out.String())
	}

	waitFor("Game: WAITING")

	_, err := io.WriteString(inW, "/start\n")
	require.NoError(t, err)
	waitFor("Game: IN_PROGRESS")

	_, err = io.WriteString(inW, "/dance\ncrane\n")
	require.NoError(t, err)
	waitFor("score 59, word 2")

	_, err = io.WriteString(inW, "/quit\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("play did not exit")
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want model.Action
	}{
		{"/start", model.StartAction{}},
		{" /SURRENDER ", model.SurrenderAction{}},
		{"/again", model.PlayAgainAction{}},
		{"crane", model.GuessAction{Guess: "crane"}},
		{"  ljubav", model.GuessAction{Guess: "ljubav"}},
		{"", nil},
	}
	for _, tt := range tests {
		got, err := parseLine(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}

	_, err := parseLine("/quit")
	assert.ErrorIs(t, err, errQuit)

	_, err = parseLine("/dance")
	assert.ErrorContains(t, err, "unknown command /dance")
}

func TestGameURL(t *testing.T) {
	c := &Config{ServerURL: "https://example.com/", Token: "a b"}
	u, err := c.GameURL("ROOM 1")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/ws/game/ROOM%201?token=a+b", u)

	c.ServerURL = "http://localhost:8080"
	u, err = c.GameURL("R1")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws/game/R1?token=a+b", u)
}

func TestPrintGameState(t *testing.T) {
	var out bytes.Buffer
	NewOutput("text", &out).Print(wire.GameState{
		GameStatus: "IN_PROGRESS",
		HostID:     "alice",
		Players: []wire.Player{
			{
				ID: "alice", Username: "alice", Rating: 1500, TotalScore: 59, CurrentWordIndex: 1,
				Progress: &wire.Progress{
					Pattern:           []string{"L", "_", "_", "_", "_"},
					PreviousGuesses:   []string{"LEMUR"},
					CommonLetters:     []string{"E"},
					RemainingAttempts: 9,
				},
			},
			{ID: "bob", Username: "bob", Rating: 1480, IsGameFinished: true},
		},
	})

	assert.Equal(t, `Game: IN_PROGRESS (host alice)
  alice [1500] score 59, word 2
    L _ _ _ _
    guesses: LEMUR
    letters: E
    attempts left: 9
  bob [1480] score 0, word 1 done
`, out.String())
}

func TestPrintAnnouncementAsJSON(t *testing.T) {
	var out bytes.Buffer
	NewOutput("json", &out).Print(&wire.ServerMessage{Type: "announcement", Message: "bob joined the room."})
	assert.JSONEq(t, `{"type":"announcement","message":"bob joined the room."}`, out.String())
}
