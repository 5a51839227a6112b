// Package cache holds the in-memory canonical state of the currently
// selected show. All mutations, local host actions and inbound sync events
// alike, are serialized through one goroutine, so the merge logic itself
// never sees concurrency. Reads go through a mirror copy and never touch
// the loop.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

const hydrateTimeout = 15 * time.Second

// Loader hydrates a show's state from the durable store on selection.
type Loader interface {
	Load(ctx context.Context, showID string, defaults show.State) (show.State, error)
}

// SaveTrigger schedules debounced durable writes and can force them out.
type SaveTrigger interface {
	Save(showID string)
	Flush()
}

// Backup is the process-local write-through recovery store.
type Backup interface {
	WriteState(show.State)
	ReadState(showID string) (show.State, bool)
}

type Msg interface{ isCacheMsg() }

// SelectShow evicts the current show and hydrates the named one.
type SelectShow struct {
	ShowID   string
	Defaults show.State
	Reply    chan show.State
}

// LocalPatch is a host action: a shallow field merge into the active show.
type LocalPatch struct {
	ShowID string
	Fields show.Patch
}

// Remote is an inbound sync event from another host.
type Remote struct {
	Event   string
	Payload show.Payload
}

type Shutdown struct{}

func (SelectShow) isCacheMsg() {}
func (LocalPatch) isCacheMsg() {}
func (Remote) isCacheMsg()     {}
func (Shutdown) isCacheMsg()   {}

type Cache struct {
	inbox   chan Msg
	loader  Loader
	trigger SaveTrigger
	backup  Backup
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	// mirror is a read-only copy of the loop's state, refreshed after every
	// mutation. Snapshot and State read it without blocking the loop, which
	// also keeps the saver's flush path deadlock-free.
	mu       sync.RWMutex
	activeID string
	mirror   show.State
	active   bool
}

func New(parent context.Context, loader Loader, trigger SaveTrigger, backup Backup, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	c := &Cache{
		inbox:   make(chan Msg, 64),
		loader:  loader,
		trigger: trigger,
		backup:  backup,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.loop()
	return c
}

// Inbox exposes the message queue so tests and the sync channel can feed
// the loop directly.
func (c *Cache) Inbox() chan<- Msg { return c.inbox }

func (c *Cache) loop() {
	var state show.State
	var showID string
	var loaded bool

	for {
		select {
		case <-c.ctx.Done():
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case SelectShow:
				// Push the old show's trailing edits out before eviction;
				// after this its in-memory copy is gone for good.
				if loaded && c.trigger != nil {
					c.trigger.Flush()
				}
				state = c.hydrate(msg.ShowID, msg.Defaults)
				showID = msg.ShowID
				loaded = true
				c.publish(showID, state)
				if msg.Reply != nil {
					msg.Reply <- state.Clone()
				}

			case LocalPatch:
				if !loaded || msg.ShowID != showID {
					c.log.Debug("patch for inactive show dropped",
						zap.String("patch", msg.ShowID), zap.String("active", showID))
					break
				}
				state = state.Merge(msg.Fields)
				c.publish(showID, state)
				c.persist(state)

			case Remote:
				if !loaded || msg.Payload.ShowID != showID {
					// Cross-show leakage guard: stale events are dropped
					// silently.
					c.log.Debug("event for inactive show dropped",
						zap.String("event", msg.Event), zap.String("show", msg.Payload.ShowID))
					break
				}
				if msg.Event == show.EvtPing {
					break
				}
				next, err := show.Apply(state, msg.Event, msg.Payload)
				if err != nil {
					c.log.Warn("sync event dropped", zap.String("event", msg.Event), zap.Error(err))
					break
				}
				state = next
				c.publish(showID, state)
				c.persist(state)

			case Shutdown:
				c.cancel()
				return
			}
		}
	}
}

// hydrate builds the working state for a newly selected show: durable store
// first, local backup if the store is unreachable, seeded defaults last.
func (c *Cache) hydrate(showID string, defaults show.State) show.State {
	ctx, cancel := context.WithTimeout(c.ctx, hydrateTimeout)
	defer cancel()

	st, err := c.loader.Load(ctx, showID, defaults)
	if err == nil {
		return st
	}
	c.log.Warn("snapshot load failed, trying local backup",
		zap.String("show", showID), zap.Error(err))
	if c.backup != nil {
		if recovered, ok := c.backup.ReadState(showID); ok {
			return recovered
		}
	}
	return defaults
}

// persist mirrors the mutation to the local backup synchronously and
// schedules the debounced durable write. Both are best-effort.
func (c *Cache) persist(state show.State) {
	if c.backup != nil {
		c.backup.WriteState(state)
	}
	if c.trigger != nil {
		c.trigger.Save(state.ShowID)
	}
}

func (c *Cache) publish(showID string, state show.State) {
	c.mu.Lock()
	c.activeID = showID
	c.mirror = state.Clone()
	c.active = true
	c.mu.Unlock()
}

// Snapshot implements persist.Source: the saver calls it at flush time, so
// whatever the mirror holds then is what gets written.
func (c *Cache) Snapshot(showID string) (show.State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.active || c.activeID != showID {
		return show.State{}, false
	}
	return c.mirror.Clone(), true
}

// State returns the active show's current state for display consumers.
func (c *Cache) State() (show.State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.active {
		return show.State{}, false
	}
	return c.mirror.Clone(), true
}

// ActiveShowID reports which show the cache currently owns.
func (c *Cache) ActiveShowID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeID
}

// Select switches the active show and returns its hydrated state.
func (c *Cache) Select(showID string, defaults show.State) show.State {
	reply := make(chan show.State, 1)
	c.inbox <- SelectShow{ShowID: showID, Defaults: defaults, Reply: reply}
	return <-reply
}

// ApplyLocal merges a host action into the active show.
func (c *Cache) ApplyLocal(showID string, fields show.Patch) {
	c.inbox <- LocalPatch{ShowID: showID, Fields: fields}
}

// ApplyRemote feeds an inbound sync event to the loop. It implements the
// channel's event sink.
func (c *Cache) ApplyRemote(event string, payload show.Payload) {
	c.inbox <- Remote{Event: event, Payload: payload}
}

func (c *Cache) Close() {
	c.inbox <- Shutdown{}
}
