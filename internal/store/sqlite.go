// Package store is the embedded persistence layer for the contact diary:
// an SQLite file with a versioned schema, CRUD over persons, locations,
// encounters and visits, time-windowed retention cleanup, and a derived
// per-day view republished to subscribers after every mutation.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.

	"github.com/exposurekit/contactdiary/internal/clock"
)

// Options configures an opened store. The zero value selects the system
// clock and the default retention window.
type Options struct {
	// Clock supplies "today" for window computation and cleanup boundaries.
	Clock clock.Clock
	// RetentionDays is the size of the trailing day window, today inclusive.
	RetentionDays int
}

// Store owns one contact-diary database file. All methods serialize on an
// internal mutex; they are safe for concurrent use but block the caller for
// the duration of the underlying SQL. No two Store instances may share a
// file.
type Store struct {
	mu            sync.Mutex
	db            *sql.DB
	path          string
	clock         clock.Clock
	retentionDays int
	days          *DayPublisher
}

// Open opens (or creates) the diary database at dbPath with WAL mode and a
// 5-second busy timeout, runs any pending migrations, and computes the
// initial day view.
//
// Open self-heals: if the file exists but is corrupt or not a database, it
// is deleted together with its WAL sidecars and recreated from scratch.
// This is the single designed data-loss path; a corrupt diary is otherwise
// unrecoverable. Migration failures on a healthy file are returned as-is.
func Open(dbPath string, opts Options) (*Store, error) {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}

	db, err := openAndMigrate(dbPath)
	if err != nil {
		if !isCorrupt(err) {
			return nil, err
		}
		if rmErr := removeDatabaseFiles(dbPath); rmErr != nil {
			return nil, fmt.Errorf("remove corrupt database: %w", rmErr)
		}
		db, err = openAndMigrate(dbPath)
		if err != nil {
			return nil, err
		}
	}

	s := &Store{
		db:            db,
		path:          dbPath,
		clock:         opts.Clock,
		retentionDays: opts.RetentionDays,
		days:          newDayPublisher(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recomputeLocked(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openAndMigrate(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: the store is the sole owner of the file and every
	// statement runs in a single serial critical section.
	db.SetMaxOpenConns(1)

	// Verify connection and WAL mode. A corrupt file typically surfaces here.
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		_ = db.Close()
		return nil, wrapDBErr("check journal mode", err)
	}
	if journalMode != "wal" {
		_ = db.Close()
		return nil, fmt.Errorf("expected WAL journal mode, got %q", journalMode)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, wrapDBErr("run migrations", err)
	}

	return db, nil
}

// removeDatabaseFiles deletes the database file and its -wal/-shm sidecars.
func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection and completes the day
// view stream. The store must not be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	s.days.close()
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// RetentionDays returns the configured trailing window size.
func (s *Store) RetentionDays() int {
	return s.retentionDays
}

// Stats summarizes the store for status displays.
type Stats struct {
	ContactPersons int64 `json:"contact_persons"`
	Locations      int64 `json:"locations"`
	Encounters     int64 `json:"encounters"`
	Visits         int64 `json:"visits"`
	SizeBytes      int64 `json:"size_bytes"`
}

// Stats returns row counts per entity table and the approximate database
// file size (page_count * page_size).
func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return Stats{}, ErrClosed
	}

	var st Stats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"contact_persons", &st.ContactPersons},
		{"locations", &st.Locations},
		{"contact_person_encounters", &st.Encounters},
		{"location_visits", &st.Visits},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return Stats{}, wrapDBErr("count "+c.table, err)
		}
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return Stats{}, wrapDBErr("page_count", err)
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return Stats{}, wrapDBErr("page_size", err)
	}
	st.SizeBytes = pageCount * pageSize
	return st, nil
}

// truncateName enforces the 250-character name invariant. Truncation is by
// character, not byte, so a multi-byte rune is never split.
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= MaxNameLength {
		return name
	}
	return string(runes[:MaxNameLength])
}

// mutate runs fn inside the store's critical section and, on success,
// recomputes and republishes the day view. Every mutating operation goes
// through here so subscribers always observe a snapshot consistent with the
// raw tables.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	if err := fn(); err != nil {
		return err
	}
	return s.recomputeLocked()
}
