// Package records persists finished-battle outcomes in SQLite so a bot
// restart keeps its ladder history.
package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS battles (
	id          TEXT PRIMARY KEY,
	room        TEXT NOT NULL,
	format      TEXT NOT NULL,
	opponent    TEXT NOT NULL,
	winner      TEXT NOT NULL,
	won         INTEGER NOT NULL,
	tie         INTEGER NOT NULL,
	turns       INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS battles_finished_at ON battles (finished_at DESC);
`

// Record is one finished battle.
type Record struct {
	ID         string
	Room       string
	Format     string
	Opponent   string
	Winner     string
	Won        bool
	Tie        bool
	Turns      int
	FinishedAt time.Time
}

// Stats aggregates the stored history.
type Stats struct {
	Battles int
	Wins    int
	Losses  int
	Ties    int
}

// Store persists battle records in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a record store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("records: storage path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("records: open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("records: ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("records: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts one finished battle. A missing ID is generated; a zero
// FinishedAt is stamped with the current time. The stored record is
// returned.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if rec.Room == "" {
		return Record{}, fmt.Errorf("records: room is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO battles (id, room, format, opponent, winner, won, tie, turns, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Room,
		rec.Format,
		rec.Opponent,
		rec.Winner,
		boolInt(rec.Won),
		boolInt(rec.Tie),
		rec.Turns,
		rec.FinishedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("records: save battle: %w", err)
	}
	return rec, nil
}

// Recent returns the most recently finished battles, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, room, format, opponent, winner, won, tie, turns, finished_at
		 FROM battles
		 ORDER BY finished_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("records: list battles: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var (
			rec      Record
			won, tie int
			finished int64
		)
		if err := rows.Scan(&rec.ID, &rec.Room, &rec.Format, &rec.Opponent, &rec.Winner, &won, &tie, &rec.Turns, &finished); err != nil {
			return nil, fmt.Errorf("records: scan battle: %w", err)
		}
		rec.Won = won != 0
		rec.Tie = tie != 0
		rec.FinishedAt = time.UnixMilli(finished).UTC()
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: list battles: %w", err)
	}
	return recs, nil
}

// Stats aggregates the full stored history.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(won), 0),
		        COALESCE(SUM(tie), 0)
		 FROM battles`,
	)
	var st Stats
	if err := row.Scan(&st.Battles, &st.Wins, &st.Ties); err != nil {
		return Stats{}, fmt.Errorf("records: aggregate stats: %w", err)
	}
	st.Losses = st.Battles - st.Wins - st.Ties
	return st, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
