package relay

import (
	"context"

	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

// EnsureRoom returns the room for a channel name, creating it on first use.
type EnsureRoom struct {
	Name  string
	Reply chan *Room
}

type GetRoom struct {
	Name  string
	Reply chan *Room
}

type RemoveRoom struct{ Name string }

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub owns the live rooms, keyed by channel name. Like everything else in
// the relay it is a single goroutine fed through a typed inbox.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*Room
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  map[string]*Room{},
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Ensure is the synchronous convenience wrapper around EnsureRoom.
func (h *Hub) Ensure(name string) *Room {
	reply := make(chan *Room, 1)
	h.inbox <- EnsureRoom{Name: name, Reply: reply}
	return <-reply
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				room := h.rooms[msg.Name]
				if room == nil {
					room = NewRoom(h.ctx, msg.Name, h.log)
					h.rooms[msg.Name] = room
					h.log.Info("room created", zap.String("room", msg.Name))
				}
				msg.Reply <- room

			case GetRoom:
				msg.Reply <- h.rooms[msg.Name] // may be nil

			case RemoveRoom:
				if room := h.rooms[msg.Name]; room != nil {
					room.Inbox() <- Shutdown{}
					delete(h.rooms, msg.Name)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for name, room := range h.rooms {
		room.Inbox() <- Shutdown{}
		delete(h.rooms, name)
	}
	h.cancel()
}
