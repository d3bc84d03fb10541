// Package livestate holds the per-connection view state of a live timer
// session: which quit activities are being watched and the cached anchor
// data needed to re-render them every second without touching the store.
package livestate

import (
	"sync"
	"time"

	"habitTrackerAPI/internal/abstinence"
)

// Entry is the cached input for one running timer.
type Entry struct {
	ActivityID string
	OwnerID    string
	Name       string
	Label      string
	Anchor     time.Time
	Selected   *abstinence.Goal
}

// Advance is a goal change observed while ticking.
type Advance struct {
	Entry     Entry
	Previous  *abstinence.Goal
	Selection abstinence.Selection
}

type State struct {
	mu       sync.Mutex
	order    []string
	watching map[string]*Entry
}

func New() *State {
	return &State{watching: make(map[string]*Entry)}
}

// Watch replaces the watch set and returns the ids that have no cached
// entry yet and need to be fetched.
func (s *State) Watch(ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*Entry, len(ids))
	order := make([]string, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if _, dup := next[id]; dup {
			continue
		}
		e := s.watching[id]
		next[id] = e
		order = append(order, id)
		if e == nil {
			missing = append(missing, id)
		}
	}

	s.watching = next
	s.order = order
	return missing
}

// IsWatching reports whether id is in the current watch set.
func (s *State) IsWatching(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.watching[id]
	return ok
}

// Apply stores a fetched entry. Results for activities that are no longer
// watched are dropped and Apply returns false.
func (s *State) Apply(e Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watching[e.ActivityID]; !ok {
		return false
	}
	s.watching[e.ActivityID] = &e
	return true
}

// Forget removes id from the watch set.
func (s *State) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watching[id]; !ok {
		return
	}
	delete(s.watching, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Tick renders every loaded timer at now in watch order. Goal changes are
// applied to the cached entries so each advance is reported once.
func (s *State) Tick(now time.Time) ([]abstinence.TimeDisplay, []Advance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	displays := make([]abstinence.TimeDisplay, 0, len(s.order))
	var advances []Advance
	for _, id := range s.order {
		e := s.watching[id]
		if e == nil {
			continue
		}

		display, sel := abstinence.Compute(e.Anchor, now, e.Selected)
		display.ActivityID = e.ActivityID
		display.Label = e.Label
		displays = append(displays, display)

		if sel.Changed {
			advances = append(advances, Advance{Entry: *e, Previous: e.Selected, Selection: sel})
			goal := sel.Goal
			e.Selected = &goal
		}
	}
	return displays, advances
}
