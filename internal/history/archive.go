package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/rules"
)

// Archive persists events per session in SQLite
type Archive struct {
	conn *sql.DB
}

// OpenArchive creates or opens an archive database at the given path.
// It enables WAL mode and runs migrations.
func OpenArchive(path string) (*Archive, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	a := &Archive{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return a, nil
}

// Close closes the database connection
func (a *Archive) Close() error {
	return a.conn.Close()
}

func (a *Archive) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS transcripts (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    id              TEXT NOT NULL,
    session_id      TEXT NOT NULL,
    text            TEXT NOT NULL,
    risk            TEXT,
    title           TEXT,
    message         TEXT,
    display_time    TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    UNIQUE(session_id, id)
);

CREATE INDEX IF NOT EXISTS idx_transcripts_session ON transcripts(session_id, seq);
`
	if _, err := a.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Append stores e for session
func (a *Archive) Append(session string, e Event) error {
	var risk, title, message *string
	if e.Advisory != nil {
		r, t, m := string(e.Advisory.Risk), e.Advisory.Title, e.Advisory.Message
		risk, title, message = &r, &t, &m
	}

	query := `
		INSERT INTO transcripts (id, session_id, text, risk, title, message, display_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := a.conn.Exec(query, e.ID, session, e.Text, risk, title, message,
		e.Timestamp, e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}
	return nil
}

// List returns up to limit events for session, newest first. limit <= 0
// returns all.
func (a *Archive) List(session string, limit int) ([]Event, error) {
	query := `
		SELECT id, text, risk, title, message, display_time, created_at
		FROM transcripts
		WHERE session_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := a.conn.Query(query, session, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transcripts: %w", err)
	}
	return events, nil
}

// Clear deletes every event for session and returns how many were removed
func (a *Archive) Clear(session string) (int64, error) {
	res, err := a.conn.Exec(`DELETE FROM transcripts WHERE session_id = ?`, session)
	if err != nil {
		return 0, fmt.Errorf("failed to clear transcripts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared transcripts: %w", err)
	}
	return n, nil
}

// Sessions lists every session with archived events
func (a *Archive) Sessions() ([]string, error) {
	rows, err := a.conn.Query(`SELECT DISTINCT session_id FROM transcripts ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		e                    Event
		risk, title, message sql.NullString
		createdAt            string
	)
	if err := rows.Scan(&e.ID, &e.Text, &risk, &title, &message, &e.Timestamp, &createdAt); err != nil {
		return Event{}, fmt.Errorf("failed to scan transcript: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	e.CreatedAt = t

	if risk.Valid {
		e.Advisory = &classify.Advisory{
			Risk:    rules.Risk(risk.String),
			Title:   title.String,
			Message: message.String,
		}
	}
	return e, nil
}
