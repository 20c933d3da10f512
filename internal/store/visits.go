package store

import "fmt"

// AddVisit inserts a visit row for an existing location on v.Date
// (ISO 8601 full date, stored as given) and returns the assigned id.
// A missing location yields ErrNotFound, mirroring AddEncounter.
func (s *Store) AddVisit(v Visit) (int64, error) {
	var id int64
	err := s.mutate(func() error {
		ok, err := s.locationExistsLocked(v.LocationID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("add visit: location %d: %w", v.LocationID, ErrNotFound)
		}
		res, err := s.db.Exec(
			`INSERT INTO location_visits (date, location_id, duration_in_minutes, circumstances)
			 VALUES (?, ?, ?, ?)`,
			v.Date, v.LocationID, v.DurationInMinutes, v.Circumstances,
		)
		if err != nil {
			return wrapDBErr("add visit", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return wrapDBErr("add visit", err)
		}
		return nil
	})
	return id, err
}

// RemoveVisit deletes a single visit row.
func (s *Store) RemoveVisit(id int64) error {
	return s.mutate(func() error {
		_, err := s.db.Exec(`DELETE FROM location_visits WHERE id = ?`, id)
		return wrapDBErr("remove visit", err)
	})
}

// Visits returns all visit rows ordered by date, then id.
func (s *Store) Visits() ([]Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.visitsLocked("", "")
}

func (s *Store) visitsLocked(from, to string) ([]Visit, error) {
	query := `SELECT id, date, location_id, duration_in_minutes, circumstances
	          FROM location_visits`
	var args []any
	switch {
	case from != "" && to != "":
		query += ` WHERE date >= ? AND date <= ?`
		args = append(args, from, to)
	case from != "":
		query += ` WHERE date >= ?`
		args = append(args, from)
	case to != "":
		query += ` WHERE date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapDBErr("query visits", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.Date, &v.LocationID, &v.DurationInMinutes, &v.Circumstances); err != nil {
			return nil, wrapDBErr("scan visit", err)
		}
		visits = append(visits, v)
	}
	return visits, wrapDBErr("query visits", rows.Err())
}
