package store

import "time"

// Cleanup deletes encounter and visit rows whose date falls outside the
// retention window, computed against the injected clock at call time.
// Orphaned persons and locations are kept; only explicit removal cascades.
func (s *Store) Cleanup() error {
	return s.mutate(func() error {
		boundary := s.windowStart()
		tx, err := s.db.Begin()
		if err != nil {
			return wrapDBErr("cleanup", err)
		}
		if _, err := tx.Exec(`DELETE FROM contact_person_encounters WHERE date < ?`, boundary); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("cleanup encounters", err)
		}
		if _, err := tx.Exec(`DELETE FROM location_visits WHERE date < ?`, boundary); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("cleanup visits", err)
		}
		if _, err := tx.Exec(`DELETE FROM risk_per_date WHERE date < ?`, boundary); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("cleanup risk levels", err)
		}
		return wrapDBErr("cleanup", tx.Commit())
	})
}

// CleanupWithTimeout runs Cleanup but gives up waiting after timeout. Meant
// for background-execution contexts with a hard deadline: on timeout the
// caller gets nil immediately (best-effort hygiene, not a failure) while
// the cleanup keeps running against the store and takes effect whenever it
// finishes. In-flight SQL is never cancelled.
func (s *Store) CleanupWithTimeout(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- s.Cleanup()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return nil
	}
}

// Reset deletes all rows from every entity table, leaving the schema and
// version marker intact. The day view collapses to the empty-but-windowed
// state: all days present, zero entries.
func (s *Store) Reset() error {
	return s.mutate(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return wrapDBErr("reset", err)
		}
		for _, table := range []string{
			"contact_person_encounters",
			"location_visits",
			"contact_persons",
			"locations",
			"risk_per_date",
		} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				_ = tx.Rollback()
				return wrapDBErr("reset "+table, err)
			}
		}
		return wrapDBErr("reset", tx.Commit())
	})
}

// windowStart returns the ISO date of the oldest retained day: today minus
// (retentionDays - 1), today inclusive.
func (s *Store) windowStart() string {
	today := s.clock.Today()
	return today.AddDate(0, 0, -(s.retentionDays - 1)).Format(isoDate)
}
