// Package backup keeps a process-local copy of the last known show state in
// SQLite. It is the recovery path of last resort: written through on every
// successful cache mutation, read back at startup, and never required for
// the happy path.
package backup

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

const schema = `
CREATE TABLE IF NOT EXISTS show_backups (
	show_id    TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

type Backup struct {
	db  *sql.DB
	log *zap.Logger
}

// Open creates or opens the backup database at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string, log *zap.Logger) (*Backup, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open backup db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init backup db: %w", err)
	}
	return &Backup{db: db, log: log}, nil
}

func (b *Backup) Close() error { return b.db.Close() }

// WriteState overwrites the backup row for the state's show. Failures are
// logged and swallowed: a broken backup must never block live scoring.
func (b *Backup) WriteState(st show.State) {
	payload, err := json.Marshal(st)
	if err != nil {
		b.log.Warn("backup encode failed", zap.String("show", st.ShowID), zap.Error(err))
		return
	}
	_, err = b.db.Exec(
		`INSERT INTO show_backups (show_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(show_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		st.ShowID, payload, time.Now().UTC(),
	)
	if err != nil {
		b.log.Warn("backup write failed", zap.String("show", st.ShowID), zap.Error(err))
	}
}

// ReadState returns the backed-up state for showID, if any.
func (b *Backup) ReadState(showID string) (show.State, bool) {
	var payload []byte
	err := b.db.QueryRow(
		`SELECT payload FROM show_backups WHERE show_id = ?`, showID,
	).Scan(&payload)
	if err != nil {
		if err != sql.ErrNoRows {
			b.log.Warn("backup read failed", zap.String("show", showID), zap.Error(err))
		}
		return show.State{}, false
	}
	var st show.State
	if err := json.Unmarshal(payload, &st); err != nil {
		b.log.Warn("backup decode failed", zap.String("show", showID), zap.Error(err))
		return show.State{}, false
	}
	return st, true
}
