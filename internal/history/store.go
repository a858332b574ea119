package history

import (
	"sync"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/rules"
)

// CompactSize is the number of events shown in compact views
const CompactSize = 5

// Counts is the number of events per risk level
type Counts struct {
	Low      int `json:"low"`
	Elevated int `json:"elevated"`
	High     int `json:"high"`
	Total    int `json:"total"`
}

// Of returns the count for r
func (c Counts) Of(r rules.Risk) int {
	switch r {
	case rules.RiskHigh:
		return c.High
	case rules.RiskElevated:
		return c.Elevated
	default:
		return c.Low
	}
}

// CountEvents tallies events by advisory risk. Events without an advisory
// count as low.
func CountEvents(events []Event) Counts {
	var c Counts
	for _, e := range events {
		risk := rules.RiskLow
		if e.Advisory != nil {
			risk = e.Advisory.Risk
		}
		switch risk {
		case rules.RiskHigh:
			c.High++
		case rules.RiskElevated:
			c.Elevated++
		default:
			c.Low++
		}
		c.Total++
	}
	return c
}

// Snapshot is a read-only view of the store
type Snapshot struct {
	Events []Event            `json:"events"`
	Counts Counts             `json:"counts"`
	Latest *classify.Advisory `json:"latest"`
}

// Store holds events newest first. There is no size cap.
type Store struct {
	mu     sync.RWMutex
	events []Event
	latest *classify.Advisory
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Record inserts e at the head
func (s *Store) Record(e Event) {
	e = e.clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, Event{})
	copy(s.events[1:], s.events)
	s.events[0] = e
	s.latest = e.Advisory
}

// Clear removes every event and resets the latest advisory. Clearing an
// empty store does nothing.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.latest = nil
}

// Replace swaps in events, given newest first, from an authoritative
// source
func (s *Store) Replace(events []Event) {
	copied := make([]Event, len(events))
	for i, e := range events {
		copied[i] = e.clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = copied
	s.latest = nil
	if len(copied) > 0 {
		s.latest = copied[0].Advisory
	}
}

// Len returns the number of events
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Latest returns the most recent advisory, if any
func (s *Store) Latest() (classify.Advisory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return classify.Advisory{}, false
	}
	return *s.latest, true
}

// Recent returns up to n events, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	return cloneAll(s.events[:n])
}

// Snapshot returns every event with per-risk counts
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Events: cloneAll(s.events),
		Counts: CountEvents(s.events),
	}
	if s.latest != nil {
		adv := *s.latest
		snap.Latest = &adv
	}
	return snap
}

// NewSnapshot builds a snapshot from events ordered newest first, such as
// an archive listing
func NewSnapshot(events []Event) Snapshot {
	snap := Snapshot{
		Events: cloneAll(events),
		Counts: CountEvents(events),
	}
	if len(events) > 0 && events[0].Advisory != nil {
		adv := *events[0].Advisory
		snap.Latest = &adv
	}
	return snap
}

func cloneAll(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e.clone()
	}
	return out
}
