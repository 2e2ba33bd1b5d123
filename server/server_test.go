package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkahng/bombrps"
)

type envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, maxGames int, botMoves ...bombrps.Move) (*GameServer, *httptest.Server) {
	t.Helper()
	broker := bombrps.NewBroker(maxGames,
		bombrps.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		bombrps.WithSourceFactory(func() bombrps.MoveSource { return bombrps.NewScript(botMoves...) }),
	)
	gs := NewGameServer(broker, []string{"http://localhost:3000"})
	gs.Start()
	ts := httptest.NewServer(gs.Handler())
	t.Cleanup(func() {
		ts.Close()
		gs.Stop()
	})
	return gs, ts
}

func dial(t *testing.T, ts *httptest.Server) *gwebsocket.Conn {
	t.Helper()
	conn, _, err := gwebsocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *gwebsocket.Conn, want MessageType, into any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, want, msg.Type, "payload: %s", msg.Data)
	if into != nil {
		require.NoError(t, json.Unmarshal(msg.Data, into))
	}
}

func sendMove(t *testing.T, conn *gwebsocket.Conn, move string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": MessageTypeMove,
		"data": MoveMessageData{Move: move},
	}))
}

func TestGameServer_FullGame(t *testing.T) {
	_, ts := newTestServer(t, 10, bombrps.MoveScissors, bombrps.MoveRock)
	conn := dial(t, ts)

	var started GameStartedData
	read(t, conn, MessageTypeGameStarted, &started)
	assert.NotEmpty(t, started.GameID)
	assert.Equal(t, bombrps.GameState{}, started.State)
	assert.Equal(t, bombrps.Rules, started.Rules)

	sendMove(t, conn, "rock")
	var outcome bombrps.RoundOutcome
	read(t, conn, MessageTypeRoundResult, &outcome)
	assert.Equal(t, bombrps.RoundOutcome{
		Winner: bombrps.WinnerUser, UserMove: bombrps.MoveRock, BotMove: bombrps.MoveScissors,
		Round: 1, UserScore: 1,
	}, outcome)

	sendMove(t, conn, "BOMB")
	read(t, conn, MessageTypeRoundResult, &outcome)
	assert.Equal(t, bombrps.WinnerUser, outcome.Winner)
	assert.Equal(t, bombrps.MoveBomb, outcome.UserMove)
	assert.Equal(t, 2, outcome.UserScore)

	sendMove(t, conn, "bomb")
	var forfeited RoundForfeitedData
	read(t, conn, MessageTypeRoundForfeited, &forfeited)
	assert.Equal(t, "bomb_already_used", forfeited.Reason)
	assert.Equal(t, "You already used your bomb!", forfeited.Message)
	assert.Equal(t, 3, forfeited.State.RoundNumber)
	assert.True(t, forfeited.State.GameOver)

	var end GameEndData
	read(t, conn, MessageTypeGameEnd, &end)
	assert.Equal(t, bombrps.WinnerUser, end.Champion)

	sendMove(t, conn, "rock")
	var errMsg string
	read(t, conn, MessageTypeError, &errMsg)
	assert.Equal(t, bombrps.ErrGameOver.Error(), errMsg)
}

func TestGameServer_InvalidMessages(t *testing.T) {
	_, ts := newTestServer(t, 10, bombrps.MoveRock)
	conn := dial(t, ts)
	read(t, conn, MessageTypeGameStarted, nil)

	require.NoError(t, conn.WriteMessage(gwebsocket.TextMessage, []byte("not json")))
	read(t, conn, MessageTypeError, nil)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	var errMsg string
	read(t, conn, MessageTypeError, &errMsg)
	assert.Contains(t, errMsg, "unknown message type")

	sendMove(t, conn, "xyz")
	var forfeited RoundForfeitedData
	read(t, conn, MessageTypeRoundForfeited, &forfeited)
	assert.Equal(t, "unknown_move", forfeited.Reason)
	assert.Equal(t, bombrps.GameState{RoundNumber: 1}, forfeited.State)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": MessageTypeState}))
	var state GameStateData
	read(t, conn, MessageTypeGameState, &state)
	assert.Equal(t, 1, state.State.RoundNumber)
}

func TestGameServer_Capacity(t *testing.T) {
	gs, ts := newTestServer(t, 1, bombrps.MoveRock)
	first := dial(t, ts)
	read(t, first, MessageTypeGameStarted, nil)

	second := dial(t, ts)
	var errMsg string
	read(t, second, MessageTypeError, &errMsg)
	assert.Equal(t, bombrps.ErrAtCapacity.Error(), errMsg)

	// disconnecting frees the slot
	require.NoError(t, first.Close())
	assert.Eventually(t, func() bool { return gs.broker.AvailableSlots() == 1 }, 5*time.Second, 10*time.Millisecond)

	third := dial(t, ts)
	read(t, third, MessageTypeGameStarted, nil)
}

func TestGameServer_PatchState(t *testing.T) {
	_, ts := newTestServer(t, 10, bombrps.MoveScissors)
	conn := dial(t, ts)
	var started GameStartedData
	read(t, conn, MessageTypeGameStarted, &started)

	patch := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/games/"+started.GameID+"/state", strings.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := patch(`{"round_number": 2, "user_bomb_used": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body GameStateData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, bombrps.GameState{RoundNumber: 2, UserBombUsed: true}, body.State)

	// the connected player is told about the new state
	var pushed GameStateData
	read(t, conn, MessageTypeGameState, &pushed)
	assert.Equal(t, body.State, pushed.State)

	assert.Equal(t, http.StatusBadRequest, patch(`{"user_score": -1}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, patch(`{"lives": 3}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, patch(`{`).StatusCode)

	sendMove(t, conn, "bomb")
	var forfeited RoundForfeitedData
	read(t, conn, MessageTypeRoundForfeited, &forfeited)
	assert.Equal(t, "bomb_already_used", forfeited.Reason)
	assert.True(t, forfeited.State.GameOver)

	resp, err := http.Get(ts.URL + "/api/games/" + started.GameID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.State.RoundNumber)
}

func TestGameServer_UnknownGame(t *testing.T) {
	_, ts := newTestServer(t, 1)

	resp, err := http.Get(ts.URL + "/api/games/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/games/nope/state", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestGameServer_Endpoints(t *testing.T) {
	_, ts := newTestServer(t, 3)

	tests := []struct {
		name        string
		path        string
		contentType string
		contains    string
	}{
		{name: "health", path: "/api/health", contentType: "application/json", contains: `"status":"ok"`},
		{name: "stats", path: "/api/stats", contentType: "application/json", contains: `"availableSlots":3`},
		{name: "metrics", path: "/metrics", contentType: "text/plain", contains: "bombrps_active_sessions"},
		{name: "page", path: "/", contentType: "text/html", contains: "Rock Paper Scissors Plus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			b, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(b), tt.contains)
		})
	}
}

func TestCors(t *testing.T) {
	h := Cors([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://localhost:3000", wantStatus: http.StatusTeapot, wantAllow: "http://localhost:3000"},
		{name: "foreign origin", method: http.MethodGet, origin: "http://evil.example", wantStatus: http.StatusTeapot, wantAllow: ""},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:3000", wantStatus: http.StatusNoContent, wantAllow: "http://localhost:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/stats", nil)
			r.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestPlayerID(t *testing.T) {
	var seen string
	h := PlayerID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getPlayerIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, seen, cookies[0].Value)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: playerIDCookie, Value: "returning"})
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "returning", seen)
}
