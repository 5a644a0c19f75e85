// Package push is the client side of the CV event channel: one explicitly
// owned websocket connection, created at application bootstrap and handed to
// whichever components need to subscribe. Subscriptions are scoped to the
// subscriber's lifetime; the connection itself outlives them.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"cvhub/internal/events"
)

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Conn wraps the websocket connection and dispatches named events to
// subscribers. Events are handled one at a time, in arrival order; every
// event invokes every handler registered for its name exactly once.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[string]map[int]func()
	nextID int

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the push endpoint and authenticates with the access
// token, then starts the read loop.
func Dial(ctx context.Context, url, accessToken string, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial push channel: %w", err)
	}

	if err := ws.WriteJSON(authMessage{Type: "auth", Token: accessToken}); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("authenticate push channel: %w", err)
	}

	c := &Conn{
		ws:     ws,
		logger: logger,
		subs:   make(map[string]map[int]func()),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Subscribe registers fn for the named event and returns a cancel func that
// removes exactly this registration. Cancelling twice is harmless.
func (c *Conn) Subscribe(event string, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	handlers, ok := c.subs[event]
	if !ok {
		handlers = make(map[int]func())
		c.subs[event] = handlers
	}
	id := c.nextID
	c.nextID++
	handlers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(handlers, id)
	}
}

// Close tears down the connection. Registered handlers are no longer
// invoked afterwards.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// Done is closed when the read loop exits, whether by Close or by a broken
// connection.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) readLoop() {
	defer c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Info("push channel closed", slog.Any("error", err))
			}
			return
		}

		var msg events.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Warn("discarding malformed push message", slog.Any("error", err))
			continue
		}
		if msg.Event == "" {
			continue
		}
		c.dispatch(msg.Event)
	}
}

func (c *Conn) dispatch(event string) {
	c.mu.Lock()
	handlers := make([]func(), 0, len(c.subs[event]))
	for _, fn := range c.subs[event] {
		handlers = append(handlers, fn)
	}
	c.mu.Unlock()

	// No coalescing of bursts: each event triggers each handler once.
	for _, fn := range handlers {
		fn()
	}
}
