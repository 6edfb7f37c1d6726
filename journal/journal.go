// Package journal persists per-document conversion outcomes to SQLite.
// It is an observability sink only: a failing journal never blocks or
// fails a conversion, and nothing in the pipeline reads it back.
package journal

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// Schema for the conversions table. Pass to dbopen.WithSchema or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS conversions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file TEXT NOT NULL,
	variant TEXT NOT NULL,
	ok INTEGER NOT NULL,
	fail_kind TEXT,
	items INTEGER NOT NULL,
	rows_dropped INTEGER NOT NULL,
	duration_us INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversions_ts ON conversions(timestamp);
CREATE INDEX IF NOT EXISTS idx_conversions_failed ON conversions(fail_kind) WHERE fail_kind != '';
`

// Entry is one document's outcome.
type Entry struct {
	File        string
	Variant     string
	OK          bool
	FailKind    string // empty on success
	Items       int
	RowsDropped int
	DurationUs  int64
	Timestamp   int64
}

// Store buffers entries and batch-writes them to SQLite asynchronously.
type Store struct {
	db   *sql.DB
	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

// NewStore creates a journal store backed by the given database connection
// and starts its flush goroutine.
func NewStore(db *sql.DB) *Store {
	s := &Store{
		db:   db,
		ch:   make(chan *Entry, 256),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// Init creates the conversions table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// RecordAsync queues an entry for persistence. Non-blocking; drops the
// entry if the buffer is full rather than applying backpressure.
func (s *Store) RecordAsync(e *Entry) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	select {
	case s.ch <- e:
	default:
	}
}

// Close drains the buffer and stops the flush goroutine.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
	return nil
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, 32)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 32 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("journal: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO conversions (file, variant, ok, fail_kind, items, rows_dropped, duration_us, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("journal: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.File, e.Variant, e.OK, e.FailKind, e.Items, e.RowsDropped, e.DurationUs, e.Timestamp); err != nil {
			slog.Error("journal: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("journal: commit", "error", err)
	}
}
