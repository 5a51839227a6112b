package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"
)

// WSTransport subscribes to a relay channel over a websocket. The relay
// rebroadcasts every envelope to all other subscribers of the same channel
// name, which is what gives the hosts their many-to-many fanout.
type WSTransport struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWS builds a transport for a relay endpoint, e.g.
// ws://relay:8080/ws?channel=show%3A42.
func NewWS(url string) *WSTransport {
	return &WSTransport{url: url}
}

func (t *WSTransport) Subscribe(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *WSTransport) Send(ctx context.Context, env Envelope) error {
	conn := t.current()
	if conn == nil {
		return fmt.Errorf("send before subscribe")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

func (t *WSTransport) Receive(ctx context.Context) (Envelope, error) {
	conn := t.current()
	if conn == nil {
		return Envelope{}, fmt.Errorf("receive before subscribe")
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return Envelope{}, err
		}
		// Undecodable frames are dropped, not fatal: one peer's bad payload
		// must not take the connection down.
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		return env, nil
	}
}

func (t *WSTransport) Close() error {
	conn := t.current()
	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "bye")
}

func (t *WSTransport) current() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}
