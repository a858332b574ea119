// Package history keeps the per-session record of submitted transcripts
// and the advisories they produced, newest first.
package history

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/RevCBH/medalert/internal/classify"
)

// DisplayLayout formats the human-readable event time
const DisplayLayout = "3:04:05 PM"

// Event is one submitted transcript and its advisory
type Event struct {
	ID        string             `json:"id"`
	Text      string             `json:"text"`
	Timestamp string             `json:"timestamp"`
	CreatedAt time.Time          `json:"created_at"`
	Advisory  *classify.Advisory `json:"advisory"`
}

// UnmarshalJSON also accepts the legacy "advice" key for the advisory
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var raw struct {
		plain
		Advice *classify.Advisory `json:"advice"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event(raw.plain)
	if e.Advisory == nil {
		e.Advisory = raw.Advice
	}
	return nil
}

var (
	entropyMu sync.Mutex
	entropy   io.Reader = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a ULID for now. IDs from one process sort in creation
// order even within the same millisecond.
func NewID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// NewEvent creates an event for text classified as adv
func NewEvent(text string, adv classify.Advisory, now time.Time) Event {
	return Event{
		ID:        NewID(now),
		Text:      text,
		Timestamp: now.Format(DisplayLayout),
		CreatedAt: now,
		Advisory:  &adv,
	}
}

// clone copies e so callers cannot reach the stored advisory
func (e Event) clone() Event {
	if e.Advisory != nil {
		adv := *e.Advisory
		e.Advisory = &adv
	}
	return e
}
