package ws

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/intwana-hub/internal/engine"
	"github.com/DoyleJ11/intwana-hub/internal/hub"
	"github.com/DoyleJ11/intwana-hub/internal/ledger"
	"github.com/DoyleJ11/intwana-hub/internal/scoring"
	"github.com/DoyleJ11/intwana-hub/internal/session"
	"github.com/DoyleJ11/intwana-hub/internal/types"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	deps := session.Deps{
		Repo:   hub.NewHub(ctx, zap.NewNop()),
		Bridge: scoring.NewBridge(ledger.NewMemory(), zap.NewNop(), time.Second),
		Log:    zap.NewNop(),
		RNG:    func() *rand.Rand { return rand.New(rand.NewPCG(5, 5)) },
	}
	srv := httptest.NewServer(Handler(deps))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// readUntil reads server messages until one satisfies cond.
func readUntil(t *testing.T, conn *websocket.Conn, cond func(types.ServerMessage) bool) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		var msg types.ServerMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if cond(msg) {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
}

func playing(m types.ServerMessage) bool {
	return m.Type == types.MsgRoomSnapshot && m.Room.Status == engine.StatusPlaying
}

func TestHandler_TwoClientsSeeEachOthersMoves(t *testing.T) {
	srv := newServer(t)
	c1 := dial(t, srv, "room=W1&identity=u1&name=Ayanda&variant=tic-tac-toe")
	first := readUntil(t, c1, func(m types.ServerMessage) bool { return m.Type == types.MsgRoomSnapshot })
	assert.Equal(t, "seat1", first.Role)
	assert.Equal(t, engine.StatusWaiting, first.Room.Status)

	c2 := dial(t, srv, "room=W1&identity=u2&name=Lerato")
	m2 := readUntil(t, c2, playing)
	assert.Equal(t, "seat2", m2.Role)
	assert.False(t, m2.CanAct)

	m1 := readUntil(t, c1, playing)
	assert.True(t, m1.CanAct)

	send(t, c1, types.ClientMessage{Type: "PlaceMark", Cell: 4})
	got := readUntil(t, c2, func(m types.ServerMessage) bool {
		return m.Type == types.MsgRoomSnapshot && m.Room.Turn == engine.Seat2
	})
	assert.Equal(t, engine.MarkX, got.Room.State.(*engine.TicTacToeState).Board[4])
	assert.True(t, got.CanAct)
}

func TestHandler_BadInputGetsErrorMessage(t *testing.T) {
	srv := newServer(t)
	c := dial(t, srv, "room=W2&identity=u1&variant=hangman")
	snap := readUntil(t, c, func(m types.ServerMessage) bool { return m.Type == types.MsgRoomSnapshot })
	word := snap.Room.State.(*engine.HangmanState).Word
	assert.Regexp(t, `^_( _)*$`, word, "hangman word must be masked on the wire")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("{not json")))
	bad := readUntil(t, c, func(m types.ServerMessage) bool { return m.Type == types.MsgError })
	assert.Equal(t, "bad json", bad.Error)

	send(t, c, types.ClientMessage{Type: "ResolveRound"})
	unknown := readUntil(t, c, func(m types.ServerMessage) bool { return m.Type == types.MsgError })
	assert.Equal(t, "unknown type", unknown.Error)
}

func TestHandler_RejectsBeforeUpgrade(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/?room=W3")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/?room=W3&identity=u1&variant=chess")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	c := dial(t, srv, "room=W4&identity=u1&variant=quiz")
	readUntil(t, c, func(m types.ServerMessage) bool { return m.Type == types.MsgRoomSnapshot })
	resp, err = http.Get(srv.URL + "/?room=W4&identity=u2&variant=hangman")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestToEngineCommand(t *testing.T) {
	cmd, ok := toEngineCommand(types.ClientMessage{Type: "Choose", Choice: "paper"})
	require.True(t, ok)
	assert.Equal(t, engine.ChoicePaper, cmd.Choice)

	_, ok = toEngineCommand(types.ClientMessage{Type: "Choose", Choice: "lizard"})
	assert.False(t, ok)

	_, ok = toEngineCommand(types.ClientMessage{Type: "AdvanceQuestion"})
	assert.False(t, ok)
}
