package store

// AddContactPerson inserts a new contact person and returns the assigned id.
// Names longer than 250 characters are truncated transparently.
func (s *Store) AddContactPerson(name string) (int64, error) {
	var id int64
	err := s.mutate(func() error {
		res, err := s.db.Exec(
			`INSERT INTO contact_persons (name) VALUES (?)`,
			truncateName(name),
		)
		if err != nil {
			return wrapDBErr("add contact person", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return wrapDBErr("add contact person", err)
		}
		return nil
	})
	return id, err
}

// UpdateContactPerson renames a contact person, re-applying the truncation
// rule. Renaming an id that does not exist is a silent no-op.
func (s *Store) UpdateContactPerson(id int64, name string) error {
	return s.mutate(func() error {
		_, err := s.db.Exec(
			`UPDATE contact_persons SET name = ? WHERE id = ?`,
			truncateName(name), id,
		)
		return wrapDBErr("update contact person", err)
	})
}

// RemoveContactPerson deletes a contact person and all of their encounters.
// The cascade is manual (children first, then the parent) and runs in a
// single transaction, so the store never exposes orphaned encounter rows.
func (s *Store) RemoveContactPerson(id int64) error {
	return s.mutate(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return wrapDBErr("remove contact person", err)
		}
		if _, err := tx.Exec(`DELETE FROM contact_person_encounters WHERE contact_person_id = ?`, id); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove contact person encounters", err)
		}
		if _, err := tx.Exec(`DELETE FROM contact_persons WHERE id = ?`, id); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove contact person", err)
		}
		return wrapDBErr("remove contact person", tx.Commit())
	})
}

// RemoveAllContactPersons deletes every contact person and, transitively,
// every encounter.
func (s *Store) RemoveAllContactPersons() error {
	return s.mutate(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return wrapDBErr("remove all contact persons", err)
		}
		if _, err := tx.Exec(`DELETE FROM contact_person_encounters`); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove all encounters", err)
		}
		if _, err := tx.Exec(`DELETE FROM contact_persons`); err != nil {
			_ = tx.Rollback()
			return wrapDBErr("remove all contact persons", err)
		}
		return wrapDBErr("remove all contact persons", tx.Commit())
	})
}

// ContactPersons returns all contact persons sorted by name (byte order),
// ties broken by id.
func (s *Store) ContactPersons() ([]ContactPerson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.contactPersonsLocked()
}

func (s *Store) contactPersonsLocked() ([]ContactPerson, error) {
	rows, err := s.db.Query(`SELECT id, name FROM contact_persons ORDER BY name, id`)
	if err != nil {
		return nil, wrapDBErr("query contact persons", err)
	}
	defer rows.Close()

	var persons []ContactPerson
	for rows.Next() {
		var p ContactPerson
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, wrapDBErr("scan contact person", err)
		}
		persons = append(persons, p)
	}
	return persons, wrapDBErr("query contact persons", rows.Err())
}

// contactPersonExistsLocked reports whether a contact person row exists.
func (s *Store) contactPersonExistsLocked(id int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM contact_persons WHERE id = ?`, id).Scan(&one)
	if err == nil {
		return true, nil
	}
	if isNoRows(err) {
		return false, nil
	}
	return false, wrapDBErr("check contact person", err)
}
