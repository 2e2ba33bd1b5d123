// Package websocket
// Author: Jon Brown
// Date: Mar 30, 2024
// URL: https://github.com/brojonat/websocket
//
// Package websocket holds the connection plumbing shared by the game server:
// upgrading, a single writer and a single reader per connection, and a
// registry of live clients.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClientClosed = errors.New("client is closed")

const (
	pongWait     = 60 * time.Second
	maxFrameSize = 4096
)

// DefaultSetupConn limits frame size and keeps the read deadline moving on
// every pong.
func DefaultSetupConn(c *websocket.Conn) {
	c.SetReadLimit(maxFrameSize)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		_ = c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// DefaultUpgrader accepts connections whose Origin header is listed in
// origins. Requests without an Origin header (non-browser clients) are
// accepted too.
func DefaultUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		},
	}
}

// Client sits between a service and one websocket connection.
type Client interface {
	io.Writer
	io.Closer

	// SendJSON encodes v and queues it for the writer goroutine.
	SendJSON(v any) error

	// WriteForever owns every write on the connection, including pings.
	WriteForever(context.Context, func(Client), time.Duration)

	// ReadForever owns every read and hands each payload to the handlers in
	// order.
	ReadForever(context.Context, func(Client), ...MessageHandler)

	Request() *http.Request
	Logger() *slog.Logger
	Conn() *websocket.Conn

	// Wait blocks until both loops have returned.
	Wait()
}

type MessageHandler func(Client, []byte)

// ServeWS upgrades the request, builds the Client, reports it through
// onCreate and starts its reader and writer. onDestroy runs once when the
// connection is torn down.
func ServeWS(
	upgrader websocket.Upgrader,
	connSetup func(*websocket.Conn),
	clientFactory func(*websocket.Conn, *http.Request) Client,
	onCreate func(context.Context, context.CancelFunc, Client),
	onDestroy func(Client),
	ping time.Duration,
	msgHandlers []MessageHandler,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied with an error
			return
		}
		connSetup(conn)
		client := clientFactory(conn, r)
		ctx, cancel := context.WithCancel(context.Background())
		onCreate(ctx, cancel, client)

		var destroyed atomic.Bool
		destroy := func(c Client) {
			if destroyed.CompareAndSwap(false, true) {
				cancel()
				onDestroy(c)
			}
		}

		go client.WriteForever(ctx, destroy, ping)
		go client.ReadForever(ctx, destroy, msgHandlers...)
	}
}

type client struct {
	wg      *sync.WaitGroup
	conn    *websocket.Conn
	req     *http.Request
	egress  chan []byte
	done    chan struct{}
	closing sync.Once
	logger  *slog.Logger
}

// NewClient is the default client factory for ServeWS.
func NewClient(c *websocket.Conn, r *http.Request) Client {
	return NewClientWithLogger(slog.Default())(c, r)
}

// NewClientWithLogger returns a client factory logging through l.
func NewClientWithLogger(l *slog.Logger) func(*websocket.Conn, *http.Request) Client {
	return func(c *websocket.Conn, r *http.Request) Client {
		wg := &sync.WaitGroup{}
		wg.Add(2)
		return &client{
			wg:     wg,
			conn:   c,
			req:    r,
			egress: make(chan []byte, 32),
			done:   make(chan struct{}),
			logger: l.With(slog.String("remote_addr", c.RemoteAddr().String())),
		}
	}
}

func (c *client) Conn() *websocket.Conn  { return c.conn }
func (c *client) Request() *http.Request { return c.req }
func (c *client) Logger() *slog.Logger   { return c.logger }

// Write queues p for the writer goroutine.
func (c *client) Write(p []byte) (int, error) {
	select {
	case <-c.done:
		return 0, ErrClientClosed
	default:
	}
	select {
	case <-c.done:
		return 0, ErrClientClosed
	case c.egress <- p:
		return len(p), nil
	}
}

func (c *client) SendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	_, err = c.Write(b)
	return err
}

// Close sends a close frame and closes the connection. Repeated calls are
// no-ops.
func (c *client) Close() error {
	c.closing.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
	return nil
}

func (c *client) WriteForever(ctx context.Context, onDestroy func(Client), ping time.Duration) {
	pingTicker := time.NewTicker(ping)
	defer func() {
		pingTicker.Stop()
		c.wg.Done()
		onDestroy(c)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.egress:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Error("error writing message", slog.Any("error", err))
				return
			}
		case <-pingTicker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("error writing ping", slog.Any("error", err))
				return
			}
		}
	}
}

func (c *client) ReadForever(ctx context.Context, onDestroy func(Client), handlers ...MessageHandler) {
	defer func() {
		c.wg.Done()
		onDestroy(c)
	}()

	ingress := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		for {
			_, payload, err := c.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case ingress <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("read loop cancelled")
			return
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("read loop stopped", slog.Any("error", err))
			}
			return
		case payload := <-ingress:
			for _, h := range handlers {
				h(c, payload)
			}
		}
	}
}

func (c *client) Wait() {
	c.wg.Wait()
}

// Manager keeps the set of live clients.
type Manager struct {
	mu      sync.RWMutex
	clients map[Client]context.CancelFunc
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[Client]context.CancelFunc),
	}
}

func (m *Manager) Clients() []Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]Client, 0, len(m.clients))
	for c := range m.clients {
		res = append(res, c)
	}
	return res
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) RegisterClient(cancel context.CancelFunc, c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c] = cancel
}

// UnregisterClient cancels and closes c if it is registered.
func (m *Manager) UnregisterClient(c Client) {
	m.mu.Lock()
	cancel, ok := m.clients[c]
	delete(m.clients, c)
	m.mu.Unlock()

	if ok {
		cancel()
		_ = c.Close()
	}
}

// CloseAll unregisters every client.
func (m *Manager) CloseAll() {
	for _, c := range m.Clients() {
		m.UnregisterClient(c)
	}
}
