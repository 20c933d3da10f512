package store

// AddRiskLevels persists per-day risk classifications, one result per
// entry. A failing entry does not roll back or block the others; callers
// inspect the returned slice for partial failure. An existing row for the
// same date keeps the higher of the two levels, so the day view's "max risk
// wins" rule holds by construction.
//
// The day view is recomputed once at the end, and only if at least one
// entry landed.
func (s *Store) AddRiskLevels(entries []RiskEntry) []RiskResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]RiskResult, 0, len(entries))
	if s.db == nil {
		for _, e := range entries {
			results = append(results, RiskResult{Entry: e, Err: ErrClosed})
		}
		return results
	}
	succeeded := false
	for _, e := range entries {
		_, err := s.db.Exec(
			`INSERT INTO risk_per_date (date, risk_level) VALUES (?, ?)
			 ON CONFLICT(date) DO UPDATE SET risk_level = MAX(risk_level, excluded.risk_level)`,
			e.Date, int(e.Level),
		)
		if err != nil {
			results = append(results, RiskResult{Entry: e, Err: wrapDBErr("add risk level", err)})
			continue
		}
		succeeded = true
		results = append(results, RiskResult{Entry: e})
	}

	if succeeded {
		// Recompute failure does not invalidate the inserts; the next
		// mutation republishes anyway.
		_ = s.recomputeLocked()
	}
	return results
}

// riskLevelsLocked returns the risk classification per date within the
// bounds, keyed by ISO date.
func (s *Store) riskLevelsLocked(from, to string) (map[string]RiskLevel, error) {
	rows, err := s.db.Query(
		`SELECT date, risk_level FROM risk_per_date WHERE date >= ? AND date <= ?`,
		from, to,
	)
	if err != nil {
		return nil, wrapDBErr("query risk levels", err)
	}
	defer rows.Close()

	levels := make(map[string]RiskLevel)
	for rows.Next() {
		var date string
		var level int
		if err := rows.Scan(&date, &level); err != nil {
			return nil, wrapDBErr("scan risk level", err)
		}
		levels[date] = RiskLevel(level)
	}
	return levels, wrapDBErr("query risk levels", rows.Err())
}
