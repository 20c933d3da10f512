package store

import "fmt"

// AddEncounter inserts an encounter row for an existing contact person on
// enc.Date (ISO 8601 full date, stored as given) and returns the assigned
// id. The parent id is validated first; a missing person yields
// ErrNotFound rather than a silent orphan row, since orphans would break
// the manual cascade on person removal.
func (s *Store) AddEncounter(enc Encounter) (int64, error) {
	var id int64
	err := s.mutate(func() error {
		ok, err := s.contactPersonExistsLocked(enc.ContactPersonID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("add encounter: contact person %d: %w", enc.ContactPersonID, ErrNotFound)
		}
		res, err := s.db.Exec(
			`INSERT INTO contact_person_encounters
			 (date, contact_person_id, duration, mask_situation, setting, circumstances)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			enc.Date, enc.ContactPersonID,
			int(enc.Duration), int(enc.MaskSituation), int(enc.Setting),
			enc.Circumstances,
		)
		if err != nil {
			return wrapDBErr("add encounter", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return wrapDBErr("add encounter", err)
		}
		return nil
	})
	return id, err
}

// RemoveEncounter deletes a single encounter row.
func (s *Store) RemoveEncounter(id int64) error {
	return s.mutate(func() error {
		_, err := s.db.Exec(`DELETE FROM contact_person_encounters WHERE id = ?`, id)
		return wrapDBErr("remove encounter", err)
	})
}

// Encounters returns all encounter rows ordered by date, then id.
func (s *Store) Encounters() ([]Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.encountersLocked("", "")
}

// encountersLocked fetches encounters, optionally bounded to
// from <= date <= to (ISO dates compare correctly as strings; empty bounds
// are ignored).
func (s *Store) encountersLocked(from, to string) ([]Encounter, error) {
	query := `SELECT id, date, contact_person_id, duration, mask_situation, setting, circumstances
	          FROM contact_person_encounters`
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
		return nil, wrapDBErr("query encounters", err)
	}
	defer rows.Close()

	var encounters []Encounter
	for rows.Next() {
		var e Encounter
		var duration, mask, setting int
		if err := rows.Scan(&e.ID, &e.Date, &e.ContactPersonID, &duration, &mask, &setting, &e.Circumstances); err != nil {
			return nil, wrapDBErr("scan encounter", err)
		}
		e.Duration = Duration(duration)
		e.MaskSituation = MaskSituation(mask)
		e.Setting = Setting(setting)
		encounters = append(encounters, e)
	}
	return encounters, wrapDBErr("query encounters", rows.Err())
}
