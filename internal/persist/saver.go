// Package persist writes whole-show snapshots to a durable keyed store,
// coalescing bursts of edits with a trailing debounce, and hydrates show
// state back out on selection.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

// DefaultWindow is the trailing debounce window for snapshot writes.
const DefaultWindow = 350 * time.Millisecond

const writeTimeout = 10 * time.Second

// Source supplies the state to serialize at flush time. Because the saver
// asks for it only when the window expires, a burst of patches collapses
// into one write carrying the final merged state.
type Source interface {
	Snapshot(showID string) (show.State, bool)
}

// SourceFunc adapts a function to the Source interface, which helps when
// the saver and its source have to reference each other at wiring time.
type SourceFunc func(showID string) (show.State, bool)

func (f SourceFunc) Snapshot(showID string) (show.State, bool) { return f(showID) }

// Saver debounces Save calls per show id and overwrites the stored document
// on each flush. Concurrent writes from other hosts that land inside the
// same window are not reconciled: the last flush wins.
type Saver struct {
	store  Store
	source Source
	window time.Duration
	log    *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewSaver(store Store, source Source, window time.Duration, log *zap.Logger) *Saver {
	if window <= 0 {
		window = DefaultWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Saver{
		store:  store,
		source: source,
		window: window,
		log:    log,
		timers: map[string]*time.Timer{},
	}
}

// Save schedules a snapshot write for showID, restarting the debounce
// window if one is already pending.
func (s *Saver) Save(showID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[showID]; ok {
		t.Reset(s.window)
		return
	}
	s.timers[showID] = time.AfterFunc(s.window, func() {
		s.mu.Lock()
		delete(s.timers, showID)
		s.mu.Unlock()
		s.flush(showID)
	})
}

// Flush forces every pending write immediately. Used on shutdown so the
// trailing window never loses an orderly exit's last edits.
func (s *Saver) Flush() {
	s.mu.Lock()
	pending := make([]string, 0, len(s.timers))
	for showID, t := range s.timers {
		t.Stop()
		delete(s.timers, showID)
		pending = append(pending, showID)
	}
	s.mu.Unlock()

	for _, showID := range pending {
		s.flush(showID)
	}
}

// flush serializes the current state and overwrites the stored document.
// Failures are logged and discarded; the cache and local backup stay the
// source of truth until the next successful write.
func (s *Saver) flush(showID string) {
	st, ok := s.source.Snapshot(showID)
	if !ok {
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		s.log.Warn("snapshot encode failed", zap.String("show", showID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.store.Put(ctx, showID, AggregateAll, payload); err != nil {
		s.log.Warn("snapshot write failed", zap.String("show", showID), zap.Error(err))
	}
}

// Load fetches the latest snapshot for a show and merges it with the
// defaults seeded from the content source. A snapshot with graded cells is
// trusted wholesale, scoring configuration included. A snapshot whose grid
// is still empty keeps the externally supplied scoring defaults so a fresh
// show is not clobbered by a stale empty document.
func (s *Saver) Load(ctx context.Context, showID string, defaults show.State) (show.State, error) {
	snap, err := s.store.Get(ctx, showID, AggregateAll)
	if errors.Is(err, ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return defaults, err
	}

	var st show.State
	if err := json.Unmarshal(snap.Payload, &st); err != nil {
		s.log.Warn("snapshot decode failed", zap.String("show", showID), zap.Error(err))
		return defaults, nil
	}
	normalize(&st, showID)

	if len(st.Grid) == 0 {
		st.ScoringMode = defaults.ScoringMode
		st.PubPoints = defaults.PubPoints
		st.PoolPerQuestion = defaults.PoolPerQuestion
		st.PoolContribution = defaults.PoolContribution
	}
	return st, nil
}

// normalize repairs nil containers a hand-edited or older snapshot might
// carry, so reducers never hit a nil map.
func normalize(st *show.State, showID string) {
	st.ShowID = showID
	if st.Teams == nil {
		st.Teams = map[string]show.Team{}
	}
	if st.EntryOrder == nil {
		st.EntryOrder = []string{}
	}
	if st.Grid == nil {
		st.Grid = show.Grid{}
	}
	if st.Tiebreakers == nil {
		st.Tiebreakers = map[string]show.Tiebreaker{}
	}
	if st.QuestionEdits == nil {
		st.QuestionEdits = map[string]show.QuestionEdit{}
	}
}
