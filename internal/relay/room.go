// Package relay implements the named-channel broadcast service the host
// clients subscribe to. A room carries one channel name (one show) and
// rebroadcasts every published envelope to every other subscriber; the
// relay never interprets event payloads beyond answering pings.
package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/channel"
	"github.com/jodyrakow/triviavanguard/internal/show"
)

type Msg interface{ isRoomMsg() }

type Join struct {
	ClientID string
	Outbox   chan channel.Envelope
}

type Leave struct{ ClientID string }

type Publish struct {
	From string
	Env  channel.Envelope
}

// Occupancy reflects subscriber count without data races; used by tests
// and the stats endpoint.
type Occupancy struct {
	Reply chan int
}

type Shutdown struct{}

func (Join) isRoomMsg()      {}
func (Leave) isRoomMsg()     {}
func (Publish) isRoomMsg()   {}
func (Occupancy) isRoomMsg() {}
func (Shutdown) isRoomMsg()  {}

type Room struct {
	name   string
	inbox  chan Msg
	subs   map[string]chan channel.Envelope
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRoom(parent context.Context, name string, log *zap.Logger) *Room {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		name:   name,
		inbox:  make(chan Msg, 64),
		subs:   map[string]chan channel.Envelope{},
		log:    log.With(zap.String("room", name)),
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Name() string { return r.name }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.subs[msg.ClientID] = msg.Outbox
				r.log.Debug("subscriber joined", zap.String("client", msg.ClientID), zap.Int("subs", len(r.subs)))

			case Leave:
				if out, ok := r.subs[msg.ClientID]; ok {
					close(out)
					delete(r.subs, msg.ClientID)
				}

			case Publish:
				if msg.Env.Event == show.EvtPing {
					// Pings come back to the sender only; a liveness probe
					// is no business of the other hosts.
					if out, ok := r.subs[msg.From]; ok {
						r.offer(msg.From, out, msg.Env)
					}
					break
				}
				r.broadcast(msg.From, msg.Env)

			case Occupancy:
				msg.Reply <- len(r.subs)

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// broadcast fans an envelope out to every subscriber except the sender.
func (r *Room) broadcast(from string, env channel.Envelope) {
	for id, out := range r.subs {
		if id == from {
			continue
		}
		r.offer(id, out, env)
	}
}

// offer delivers without blocking; a subscriber that can't keep up is
// dropped so one stuck host never stalls the room.
func (r *Room) offer(id string, out chan channel.Envelope, env channel.Envelope) {
	select {
	case out <- env:
	default:
		r.log.Warn("dropping slow subscriber", zap.String("client", id))
		close(out)
		delete(r.subs, id)
	}
}

func (r *Room) shutdown() {
	for id, out := range r.subs {
		close(out)
		delete(r.subs, id)
	}
	r.cancel()
}
