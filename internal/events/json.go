package events

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// IsJSONMode reports whether events written to out should be JSON lines:
// always when forced, otherwise whenever out is not a terminal.
func IsJSONMode(forceJSON bool, out io.Writer) bool {
	if forceJSON {
		return true
	}
	f, ok := out.(*os.File)
	if !ok || f == nil {
		return true
	}
	return !term.IsTerminal(int(f.Fd()))
}

// JSONEmitter writes one JSON object per event. Safe for concurrent use.
type JSONEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
	n   int64
}

// NewJSONEmitter creates an emitter writing to w
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

// Emit writes event as one line
func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(event); err != nil {
		return err
	}
	e.n++
	return nil
}

// Written returns how many events were written successfully
func (e *JSONEmitter) Written() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}

// JSONEmitterHandler adapts emitter to a bus Handler. Write failures are
// logged and dropped.
func JSONEmitterHandler(emitter *JSONEmitter) Handler {
	return func(e Event) {
		if err := emitter.Emit(e); err != nil {
			log.Warn().Err(err).Str("event", string(e.Type)).Msg("Failed to emit JSON event")
		}
	}
}
