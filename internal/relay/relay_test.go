package relay

import (
	"context"
	"testing"
	"time"

	"github.com/jodyrakow/triviavanguard/internal/channel"
	"github.com/jodyrakow/triviavanguard/internal/show"
)

func recvEnvelope(t *testing.T, ch <-chan channel.Envelope, within time.Duration) channel.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		return env
	case <-time.After(within):
		t.Fatalf("timed out waiting for envelope")
		return channel.Envelope{} // unreachable
	}
}

func recvNoEnvelope(t *testing.T, ch <-chan channel.Envelope, within time.Duration) {
	t.Helper()
	select {
	case env, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no envelope within %v, got %+v", within, env)
	case <-time.After(within):
	}
}

func occupancy(t *testing.T, r *Room) int {
	t.Helper()
	reply := make(chan int, 1)
	r.Inbox() <- Occupancy{Reply: reply}
	select {
	case n := <-reply:
		return n
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for occupancy")
		return 0 // unreachable
	}
}

func TestRoom_BroadcastSkipsSender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRoom(ctx, "show:1", nil)

	aOut := make(chan channel.Envelope, 4)
	bOut := make(chan channel.Envelope, 4)
	r.Inbox() <- Join{ClientID: "a", Outbox: aOut}
	r.Inbox() <- Join{ClientID: "b", Outbox: bOut}

	env := channel.Envelope{Event: show.EvtMark, Payload: show.Payload{ShowID: "1", TeamID: "t1", QuestionID: "q1"}}
	r.Inbox() <- Publish{From: "a", Env: env}

	got := recvEnvelope(t, bOut, time.Second)
	if got.Event != show.EvtMark || got.Payload.TeamID != "t1" {
		t.Fatalf("subscriber b: got %+v", got)
	}
	recvNoEnvelope(t, aOut, 50*time.Millisecond)
}

func TestRoom_PingEchoesToSenderOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRoom(ctx, "show:1", nil)

	aOut := make(chan channel.Envelope, 4)
	bOut := make(chan channel.Envelope, 4)
	r.Inbox() <- Join{ClientID: "a", Outbox: aOut}
	r.Inbox() <- Join{ClientID: "b", Outbox: bOut}

	r.Inbox() <- Publish{From: "a", Env: channel.Envelope{Event: show.EvtPing, Payload: show.Payload{ShowID: "1"}}}

	got := recvEnvelope(t, aOut, time.Second)
	if got.Event != show.EvtPing {
		t.Fatalf("sender should get its ping back, got %+v", got)
	}
	recvNoEnvelope(t, bOut, 50*time.Millisecond)
}

func TestRoom_DropsSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRoom(ctx, "show:1", nil)

	full := make(chan channel.Envelope) // unbuffered and never read
	r.Inbox() <- Join{ClientID: "slow", Outbox: full}
	r.Inbox() <- Join{ClientID: "sender", Outbox: make(chan channel.Envelope, 4)}

	r.Inbox() <- Publish{From: "sender", Env: channel.Envelope{Event: show.EvtMark, Payload: show.Payload{ShowID: "1"}}}

	if n := occupancy(t, r); n != 1 {
		t.Fatalf("slow subscriber should be dropped; occupancy=%d", n)
	}
}

func TestRoom_LeaveClosesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRoom(ctx, "show:1", nil)

	out := make(chan channel.Envelope, 1)
	r.Inbox() <- Join{ClientID: "a", Outbox: out}
	r.Inbox() <- Leave{ClientID: "a"}

	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected closed outbox, got envelope")
		}
	case <-time.After(time.Second):
		t.Fatalf("outbox not closed after leave")
	}
}

func TestHub_EnsureReturnsSameRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, nil)

	r1 := h.Ensure("show:42")
	r2 := h.Ensure("show:42")
	if r1 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}

	other := h.Ensure("show:43")
	if other == r1 {
		t.Fatalf("distinct channel names must get distinct rooms")
	}
}

func TestHub_RemoveShutsRoomDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, nil)

	r := h.Ensure("show:42")
	out := make(chan channel.Envelope, 1)
	r.Inbox() <- Join{ClientID: "a", Outbox: out}

	h.Inbox() <- RemoveRoom{Name: "show:42"}

	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected closed outbox on room shutdown")
		}
	case <-time.After(time.Second):
		t.Fatalf("room did not shut down")
	}

	reply := make(chan *Room, 1)
	h.Inbox() <- GetRoom{Name: "show:42", Reply: reply}
	if got := <-reply; got != nil {
		t.Fatalf("room still registered after remove")
	}
}
