// Package channel manages one host's connection to the named broadcast
// channel all hosts of a show share. It owns the connection lifecycle, an
// outbound FIFO that buffers sends until the subscription is live, and the
// dispatch of inbound events into the show state cache.
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

// Status is the connection lifecycle state. TimedOut, Closed, and
// ChannelError are terminal: there is no automatic reconnection, the owner
// observes the change and dials a fresh Conn if it wants one.
type Status string

const (
	StatusInit         Status = "init"
	StatusSubscribing  Status = "subscribing"
	StatusSubscribed   Status = "subscribed"
	StatusTimedOut     Status = "timed_out"
	StatusClosed       Status = "closed"
	StatusChannelError Status = "channel_error"
)

// Envelope is the wire unit: one named event and its payload.
type Envelope struct {
	Event   string       `json:"event"`
	Payload show.Payload `json:"payload"`
}

// Transport is the raw broadcast pipe underneath a Conn.
type Transport interface {
	// Subscribe blocks until the channel subscription is live or fails.
	Subscribe(ctx context.Context) error
	Send(ctx context.Context, env Envelope) error
	// Receive blocks for the next envelope published by another host.
	Receive(ctx context.Context) (Envelope, error)
	Close() error
}

// Sink receives validated inbound events. The cache implements it.
type Sink interface {
	ApplyRemote(event string, payload show.Payload)
}

// Options tunes a Conn.
type Options struct {
	// SubscribeTimeout bounds the subscription attempt; expiry lands the
	// Conn in StatusTimedOut. Defaults to 10s.
	SubscribeTimeout time.Duration
	// MaxQueue caps the outbound queue while unsubscribed, dropping the
	// oldest entry when full. Zero means unbounded, which matches the
	// at-most-once, no-backpressure delivery contract but can grow without
	// limit if the transport never comes up.
	MaxQueue int
}

const defaultSubscribeTimeout = 10 * time.Second
const sendTimeout = 3 * time.Second

// Conn is the explicit connection-manager object: status enum, FIFO
// outbound queue, Send on one side and dispatch into the Sink on the other.
type Conn struct {
	transport Transport
	sink      Sink
	onStatus  func(Status)
	log       *zap.Logger
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	status  Status
	queue   []Envelope
	dropped int
}

// Dial starts the subscription attempt and returns immediately; sends made
// before the channel is live are queued and flushed in order once it is.
// onStatus, if non-nil, observes every lifecycle transition.
func Dial(parent context.Context, transport Transport, sink Sink, opts Options, onStatus func(Status), log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SubscribeTimeout <= 0 {
		opts.SubscribeTimeout = defaultSubscribeTimeout
	}
	ctx, cancel := context.WithCancel(parent)
	c := &Conn{
		transport: transport,
		sink:      sink,
		onStatus:  onStatus,
		log:       log,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		status:    StatusInit,
	}
	go c.run()
	return c
}

func (c *Conn) run() {
	c.setStatus(StatusSubscribing)

	subCtx, cancel := context.WithTimeout(c.ctx, c.opts.SubscribeTimeout)
	err := c.transport.Subscribe(subCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.setStatus(StatusTimedOut)
		} else if c.ctx.Err() != nil {
			c.setStatus(StatusClosed)
		} else {
			c.log.Warn("channel subscribe failed", zap.Error(err))
			c.setStatus(StatusChannelError)
		}
		return
	}

	c.flushQueue()
	c.readLoop()
}

// flushQueue drains everything queued while unsubscribed, in original
// order, then marks the connection live. Sends racing the flush keep
// queueing until the status flips, so FIFO order holds throughout.
func (c *Conn) flushQueue() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.status = StatusSubscribed
			c.mu.Unlock()
			break
		}
		env := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		c.send(env)
	}
	if c.onStatus != nil {
		c.onStatus(StatusSubscribed)
	}
}

func (c *Conn) readLoop() {
	for {
		env, err := c.transport.Receive(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				c.setStatus(StatusClosed)
			} else {
				c.log.Warn("channel receive failed", zap.Error(err))
				c.setStatus(StatusChannelError)
			}
			return
		}
		if !show.Known(env.Event) {
			c.log.Debug("unknown event dropped", zap.String("event", env.Event))
			continue
		}
		c.sink.ApplyRemote(env.Event, env.Payload)
	}
}

// Send publishes an event to the other hosts. Before the subscription is
// live it queues; afterwards it sends directly. Delivery is at-most-once:
// a failed send is logged, never retried.
func (c *Conn) Send(event string, payload show.Payload) {
	c.mu.Lock()
	if c.status != StatusSubscribed {
		if c.opts.MaxQueue > 0 && len(c.queue) >= c.opts.MaxQueue {
			c.queue = c.queue[1:]
			c.dropped++
		}
		c.queue = append(c.queue, Envelope{Event: event, Payload: payload})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.send(Envelope{Event: event, Payload: payload})
}

func (c *Conn) send(env Envelope) {
	ctx, cancel := context.WithTimeout(c.ctx, sendTimeout)
	defer cancel()
	if err := c.transport.Send(ctx, env); err != nil {
		c.log.Warn("send failed", zap.String("event", env.Event), zap.Error(err))
	}
}

// Pending returns a copy of the unsent queue, oldest first. After a
// terminal status the owner can hand these to a fresh Conn for replay.
func (c *Conn) Pending() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Envelope(nil), c.queue...)
}

// Dropped reports how many queued envelopes the MaxQueue cap discarded.
func (c *Conn) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Status returns the current lifecycle state.
func (c *Conn) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Conn) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

// Close tears the connection down; the status settles at StatusClosed.
func (c *Conn) Close() {
	c.cancel()
	_ = c.transport.Close()
}
