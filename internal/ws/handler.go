package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/channel"
	"github.com/jodyrakow/triviavanguard/internal/relay"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
)

// Handler upgrades a subscriber onto the named channel from the query
// string and bridges the socket to the room: outbound fanout on one
// goroutine, inbound publishes on the request goroutine.
func Handler(h *relay.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("channel")
		if name == "" {
			http.Error(w, "missing channel", http.StatusBadRequest)
			return
		}
		room := h.Ensure(name)

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan channel.Envelope, 16)
		clientID := randID(8)
		room.Inbox() <- relay.Join{ClientID: clientID, Outbox: out}
		defer func() { room.Inbox() <- relay.Leave{ClientID: clientID} }()

		log.Debug("subscriber connected", zap.String("channel", name), zap.String("client", clientID))

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for env := range out {
				payload, err := json.Marshal(env)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var env channel.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				log.Debug("malformed envelope dropped", zap.String("client", clientID), zap.Error(err))
				continue
			}
			room.Inbox() <- relay.Publish{From: clientID, Env: env}
		}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
