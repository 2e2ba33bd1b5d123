package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tkahng/bombrps"
	"github.com/tkahng/bombrps/logger"
	"github.com/tkahng/bombrps/websocket"
)

type MessageType string

const (
	// client to server
	MessageTypeMove  MessageType = "move"
	MessageTypeState MessageType = "state"

	// server to client
	MessageTypeGameStarted    MessageType = "game_started"
	MessageTypeRoundResult    MessageType = "round_result"
	MessageTypeRoundForfeited MessageType = "round_forfeited"
	MessageTypeGameState      MessageType = "game_state"
	MessageTypeGameEnd        MessageType = "game_end"
	MessageTypeError          MessageType = "error"
)

type (
	Message struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data,omitempty"`
	}
	outgoingMessage struct {
		Type MessageType `json:"type"`
		Data any         `json:"data"`
	}
	MoveMessageData struct {
		Move string `json:"move"`
	}
	GameStartedData struct {
		GameID string            `json:"gameId"`
		State  bombrps.GameState `json:"state"`
		Rules  string            `json:"rules"`
	}
	RoundForfeitedData struct {
		Reason  string            `json:"reason"`
		Message string            `json:"message"`
		State   bombrps.GameState `json:"state"`
	}
	GameStateData struct {
		GameID string            `json:"gameId"`
		State  bombrps.GameState `json:"state"`
	}
	GameEndData struct {
		Champion bombrps.Winner    `json:"champion"`
		State    bombrps.GameState `json:"state"`
	}
)

// GameServer serves one bot game per websocket connection plus the HTTP
// endpoints around them.
type GameServer struct {
	broker   *bombrps.Broker
	upgrader gwebsocket.Upgrader
	origins  []string
	clients  *websocket.Manager
	mux      *http.ServeMux
	logger   *slog.Logger
	ping     time.Duration

	mu        sync.RWMutex
	sessions  map[websocket.Client]*bombrps.Session
	byGameID  map[string]websocket.Client
	startTime time.Time
}

func NewGameServer(broker *bombrps.Broker, allowedOrigins []string) *GameServer {
	return &GameServer{
		broker:    broker,
		upgrader:  websocket.DefaultUpgrader(allowedOrigins),
		origins:   allowedOrigins,
		clients:   websocket.NewManager(),
		mux:       http.NewServeMux(),
		logger:    logger.With(slog.String("component", "game_server")),
		ping:      30 * time.Second,
		sessions:  make(map[websocket.Client]*bombrps.Session),
		byGameID:  make(map[string]websocket.Client),
		startTime: time.Now(),
	}
}

func (gs *GameServer) Handler() http.Handler {
	return Cors(gs.origins)(gs.mux)
}

// Start starts the broker and registers the routes.
func (gs *GameServer) Start() {
	gs.broker.Start()
	gs.setupRoutes()
}

// Stop disconnects every client and stops the broker.
func (gs *GameServer) Stop() {
	gs.clients.CloseAll()
	gs.broker.Stop()
}

func (gs *GameServer) setupRoutes() {
	gs.mux.HandleFunc("GET /{$}", ServeHTML)
	gs.mux.Handle("GET /api/ws", PlayerID(websocket.ServeWS(
		gs.upgrader,
		websocket.DefaultSetupConn,
		websocket.NewClientWithLogger(gs.logger),
		gs.onConnect,
		gs.onDisconnect,
		gs.ping,
		[]websocket.MessageHandler{gs.handleMessage},
	)))
	gs.mux.HandleFunc("GET /api/games/{id}", gs.handleGetGame)
	gs.mux.HandleFunc("PATCH /api/games/{id}/state", gs.handlePatchState)
	gs.mux.HandleFunc("GET /api/stats", gs.handleStats)
	gs.mux.HandleFunc("GET /api/health", gs.handleHealth)
	gs.mux.Handle("GET /metrics", promhttp.Handler())
}

// onConnect opens a session for the new client. It runs before the
// client's reader and writer start, so writing to the conn directly is safe.
func (gs *GameServer) onConnect(ctx context.Context, cancel context.CancelFunc, c websocket.Client) {
	playerID := getPlayerIDFromContext(c.Request().Context())
	gs.clients.RegisterClient(cancel, c)

	session, err := gs.broker.OpenSession(playerID)
	if err != nil {
		gs.logger.Warn("could not open session", slog.String("player_id", playerID), slog.Any("error", err))
		_ = c.Conn().WriteJSON(outgoingMessage{Type: MessageTypeError, Data: err.Error()})
		gs.clients.UnregisterClient(c)
		return
	}

	gs.mu.Lock()
	gs.sessions[c] = session
	gs.byGameID[session.ID] = c
	gs.mu.Unlock()

	// drop the connection when the broker ends the session
	go func() {
		select {
		case <-session.Context.Done():
			gs.clients.UnregisterClient(c)
		case <-ctx.Done():
		}
	}()

	gs.send(c, MessageTypeGameStarted, GameStartedData{
		GameID: session.ID,
		State:  session.State(),
		Rules:  bombrps.Rules,
	})
}

func (gs *GameServer) onDisconnect(c websocket.Client) {
	gs.mu.Lock()
	session, ok := gs.sessions[c]
	delete(gs.sessions, c)
	if ok {
		delete(gs.byGameID, session.ID)
	}
	gs.mu.Unlock()

	if ok {
		_ = gs.broker.CloseSession(session.ID)
	}
	gs.clients.UnregisterClient(c)
}

func (gs *GameServer) sessionFor(c websocket.Client) (*bombrps.Session, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	session, ok := gs.sessions[c]
	return session, ok
}

func (gs *GameServer) clientFor(gameID string) (websocket.Client, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	c, ok := gs.byGameID[gameID]
	return c, ok
}

func (gs *GameServer) handleMessage(c websocket.Client, payload []byte) {
	session, ok := gs.sessionFor(c)
	if !ok {
		gs.sendError(c, "no game in progress")
		return
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		gs.sendError(c, "malformed message")
		return
	}

	switch msg.Type {
	case MessageTypeMove:
		var data MoveMessageData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			gs.sendError(c, "invalid move data")
			return
		}
		gs.playMove(c, session, data.Move)
	case MessageTypeState:
		gs.send(c, MessageTypeGameState, GameStateData{GameID: session.ID, State: session.State()})
	default:
		gs.sendError(c, "unknown message type: "+string(msg.Type))
	}
}

func (gs *GameServer) playMove(c websocket.Client, session *bombrps.Session, raw string) {
	turn, err := session.Play(raw)
	if err != nil {
		if !errors.Is(err, bombrps.ErrGameOver) {
			gs.logger.Error("round failed", slog.String("session_id", session.ID), slog.Any("error", err))
		}
		gs.sendError(c, err.Error())
		return
	}

	if turn.Forfeited {
		gs.send(c, MessageTypeRoundForfeited, RoundForfeitedData{
			Reason:  bombrps.ReasonCode(turn.Reason),
			Message: bombrps.ForfeitMessage(turn.Reason),
			State:   turn.State,
		})
	} else {
		gs.send(c, MessageTypeRoundResult, turn.Outcome)
	}

	if turn.State.GameOver {
		gs.send(c, MessageTypeGameEnd, GameEndData{
			Champion: turn.State.Champion(),
			State:    turn.State,
		})
	}
}

func (gs *GameServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	session, ok := gs.broker.Session(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, bombrps.ErrSessionNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, GameStateData{GameID: session.ID, State: session.State()})
}

// handlePatchState lets an orchestrator seed or correct a game's state.
func (gs *GameServer) handlePatchState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := gs.broker.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, bombrps.ErrSessionNotFound.Error())
		return
	}

	var patch bombrps.StatePatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid patch: "+err.Error())
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := session.Apply(patch)
	if err != nil {
		writeError(w, http.StatusGone, err.Error())
		return
	}
	gs.logger.Info("state patched", slog.String("session_id", id), slog.Any("state", state))

	if c, ok := gs.clientFor(id); ok {
		gs.send(c, MessageTypeGameState, GameStateData{GameID: id, State: state})
	}
	writeJSON(w, http.StatusOK, GameStateData{GameID: id, State: state})
}

func (gs *GameServer) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"activeGames":      gs.broker.ActiveSessionCount(),
		"availableSlots":   gs.broker.AvailableSlots(),
		"connectedClients": gs.clients.Len(),
		"timestamp":        time.Now().Unix(),
	})
}

func (gs *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(gs.startTime).String(),
	})
}

// Helper methods

func (gs *GameServer) send(c websocket.Client, msgType MessageType, data any) {
	if err := c.SendJSON(outgoingMessage{Type: msgType, Data: data}); err != nil {
		gs.logger.Debug("error sending message", slog.String("type", string(msgType)), slog.Any("error", err))
	}
}

func (gs *GameServer) sendError(c websocket.Client, errorMsg string) {
	gs.send(c, MessageTypeError, errorMsg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nolint:errcheck
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
