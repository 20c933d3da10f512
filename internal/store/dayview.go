package store

// isoDate is the layout for all stored calendar dates.
const isoDate = "2006-01-02"

// Days returns the latest complete day view snapshot: exactly
// retentionDays entries, newest (today) first.
func (s *Store) Days() []DiaryDay {
	return s.days.Current()
}

// SubscribeDays registers a subscriber for day view snapshots. The channel
// immediately carries the current snapshot and afterwards the latest
// snapshot after every mutation; intermediate snapshots may be skipped but
// a received value is always complete and internally consistent. The
// channel is closed when the store closes.
func (s *Store) SubscribeDays() <-chan []DiaryDay {
	return s.days.Subscribe()
}

// UnsubscribeDays removes a subscriber registered with SubscribeDays and
// closes its channel.
func (s *Store) UnsubscribeDays(ch <-chan []DiaryDay) {
	s.days.Unsubscribe(ch)
}

// recomputeLocked rebuilds the day view from the raw tables and publishes
// it as one atomic snapshot. Called with s.mu held, after every successful
// mutation and once at open.
//
// Window: retentionDays contiguous calendar days ending today, newest
// first. Per day: every person first, then every location, each group in
// name order (byte comparison, case-sensitive) with id as tie-breaker --
// the fetch queries already order that way. An entry is selected when an
// encounter/visit row exists for its parent on that date.
func (s *Store) recomputeLocked() error {
	today := s.clock.Today()
	start := s.windowStart()
	end := today.Format(isoDate)

	persons, err := s.contactPersonsLocked()
	if err != nil {
		return err
	}
	locations, err := s.locationsLocked()
	if err != nil {
		return err
	}
	encounters, err := s.encountersLocked(start, end)
	if err != nil {
		return err
	}
	visits, err := s.visitsLocked(start, end)
	if err != nil {
		return err
	}
	risks, err := s.riskLevelsLocked(start, end)
	if err != nil {
		return err
	}

	// date -> person id -> encounter. At most one encounter per person per
	// day is meaningful; the first row by id wins if duplicates exist.
	encByDate := make(map[string]map[int64]*Encounter)
	for i := range encounters {
		e := &encounters[i]
		byPerson, ok := encByDate[e.Date]
		if !ok {
			byPerson = make(map[int64]*Encounter)
			encByDate[e.Date] = byPerson
		}
		if _, dup := byPerson[e.ContactPersonID]; !dup {
			byPerson[e.ContactPersonID] = e
		}
	}
	visitByDate := make(map[string]map[int64]*Visit)
	for i := range visits {
		v := &visits[i]
		byLocation, ok := visitByDate[v.Date]
		if !ok {
			byLocation = make(map[int64]*Visit)
			visitByDate[v.Date] = byLocation
		}
		if _, dup := byLocation[v.LocationID]; !dup {
			byLocation[v.LocationID] = v
		}
	}

	days := make([]DiaryDay, 0, s.retentionDays)
	for i := 0; i < s.retentionDays; i++ {
		date := today.AddDate(0, 0, -i).Format(isoDate)
		day := DiaryDay{
			Date:    date,
			Risk:    risks[date],
			Entries: make([]DiaryEntry, 0, len(persons)+len(locations)),
		}
		for _, p := range persons {
			entry := DiaryEntry{Kind: KindPerson, ParentID: p.ID, Name: p.Name}
			if enc := encByDate[date][p.ID]; enc != nil {
				entry.Selected = true
				entry.RecordID = enc.ID
				entry.Encounter = enc
			}
			day.Entries = append(day.Entries, entry)
		}
		for _, l := range locations {
			entry := DiaryEntry{Kind: KindLocation, ParentID: l.ID, Name: l.Name}
			if v := visitByDate[date][l.ID]; v != nil {
				entry.Selected = true
				entry.RecordID = v.ID
				entry.Visit = v
			}
			day.Entries = append(day.Entries, entry)
		}
		days = append(days, day)
	}

	s.days.Publish(days)
	return nil
}
