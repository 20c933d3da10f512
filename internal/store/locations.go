package store

// AddLocation inserts a new location and returns the assigned id. Names
// longer than 250 characters are truncated transparently.
func (s *Store) AddLocation(name string) (int64, error) {
	var id int64
	err := s.mutate(func() error {
		res, err := s.db.Exec(
			`INSERT INTO locations (name) VALUES (?)`,
			truncateName(name),
		)
		if err != nil {
			return wrapDBErr("add location", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return wrapDBErr("add location", err)
		}
		return nil
	})
	return id, err
}

// UpdateLocation renames a location, re-applying the truncation rule.
// Renaming an id that does not exist is a silent no-op.
func (s *Store) UpdateLocation(id int64, name string) error {
	return s.mutate(func() error {
		_, err := s.db.Exec(
			`UPDATE locations SET name = ? WHERE id = ?`,
			truncateName(name), id,
		)
		return wrapDBErr("update location", err)
	})
}

// RemoveLocation deletes a location and all of its visits in one
// transaction (manual cascade, children first).
func (s *Store) RemoveLocation(id int64) error {
	return s.mutate(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return wrapDBErr("remove location", err)
		}
		if _, err := tx.Exec(`DELETE FROM location_visits WHERE location_id = ?`, id); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove location visits", err)
		}
		if _, err := tx.Exec(`DELETE FROM locations WHERE id = ?`, id); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove location", err)
		}
		return wrapDBErr("remove location", tx.Commit())
	})
}

// RemoveAllLocations deletes every location and, transitively, every visit.
func (s *Store) RemoveAllLocations() error {
	return s.mutate(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return wrapDBErr("remove all locations", err)
		}
		if _, err := tx.Exec(`DELETE FROM location_visits`); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove all visits", err)
		}
		if _, err := tx.Exec(`DELETE FROM locations`); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove all locations", err)
		}
		return wrapDBErr("remove all locations", tx.Commit())
	})
}

// Locations returns all locations sorted by name (byte order), ties broken
// by id.
func (s *Store) Locations() ([]Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.locationsLocked()
}

func (s *Store) locationsLocked() ([]Location, error) {
	rows, err := s.db.Query(`SELECT id, name FROM locations ORDER BY name, id`)
	if err != nil {
		return nil, wrapDBErr("query locations", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, wrapDBErr("scan location", err)
		}
		locations = append(locations, l)
	}
	return locations, wrapDBErr("query locations", rows.Err())
}

func (s *Store) locationExistsLocked(id int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM locations WHERE id = ?`, id).Scan(&one)
	if err == nil {
		return true, nil
	}
	if isNoRows(err) {
		return false, nil
	}
	return false, wrapDBErr("check location", err)
}
