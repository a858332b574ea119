package tui

import (
	"bytes"
	"strings"
	"sync"
)

// LogMsg is emitted when a log line should be appended to the TUI.
type LogMsg struct {
	Line string
}

// LogWriter streams zerolog output into the console's log pane so it
// does not tear the alt screen.
type LogWriter struct {
	program Sender
	mu      sync.Mutex
	buffer  bytes.Buffer
	maxLine int
	lines   chan string
	closed  bool
	done    chan struct{}
}

// NewLogWriter creates a LogWriter that sends log lines into the program.
func NewLogWriter(program Sender) *LogWriter {
	w := &LogWriter{
		program: program,
		maxLine: 2000,
		lines:   make(chan string, 200),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		for line := range w.lines {
			if w.program != nil {
				w.program.Send(LogMsg{Line: line})
			}
		}
	}()
	return w
}

// Write implements io.Writer, splitting log output into lines.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, _ = w.buffer.Write(p)

	for {
		data := w.buffer.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}

		line := string(data[:idx])
		w.buffer.Next(idx + 1)
		w.sendLine(line)
	}

	return len(p), nil
}

// Close flushes any partial line and stops forwarding
func (w *LogWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	if w.buffer.Len() > 0 {
		w.sendLine(w.buffer.String())
		w.buffer.Reset()
	}
	w.closed = true
	close(w.lines)
	w.mu.Unlock()

	<-w.done
	return nil
}

func (w *LogWriter) sendLine(line string) {
	if w.closed {
		return
	}
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}
	if w.maxLine > 0 && len(line) > w.maxLine {
		line = line[:w.maxLine] + "..."
	}
	select {
	case w.lines <- line:
	default:
	}
}
