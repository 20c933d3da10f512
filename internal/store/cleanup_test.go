package store

import (
	"testing"
	"time"
)

// TestCleanup_RetentionInvariant verifies that cleanup removes exactly the
// rows older than the window boundary and keeps everything inside it,
// including the parents of pruned rows.
func TestCleanup_RetentionInvariant(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	personID, err := s.AddContactPerson("Helge Schneider")
	if err != nil {
		t.Fatal(err)
	}
	locID, err := s.AddLocation("Supermarkt")
	if err != nil {
		t.Fatal(err)
	}

	// Window with today = 2020-12-15 and 15 days retention: 2020-12-01 is
	// the boundary, 2020-11-30 is one day too old.
	oldEnc, err := s.AddEncounter(Encounter{Date: "2020-11-30", ContactPersonID: personID})
	if err != nil {
		t.Fatal(err)
	}
	boundaryEnc, err := s.AddEncounter(Encounter{Date: "2020-12-01", ContactPersonID: personID})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddVisit(Visit{Date: "2020-11-15", LocationID: locID}); err != nil {
		t.Fatal(err)
	}
	keptVisit, err := s.AddVisit(Visit{Date: "2020-12-15", LocationID: locID})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	encounters, err := s.Encounters()
	if err != nil {
		t.Fatal(err)
	}
	if len(encounters) != 1 || encounters[0].ID != boundaryEnc {
		t.Errorf("encounters after cleanup = %+v, want only boundary row %d", encounters, boundaryEnc)
	}
	for _, e := range encounters {
		if e.ID == oldEnc {
			t.Errorf("row dated 2020-11-30 survived cleanup")
		}
	}

	visits, err := s.Visits()
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 1 || visits[0].ID != keptVisit {
		t.Errorf("visits after cleanup = %+v, want only row %d", visits, keptVisit)
	}

	// Parents are never pruned by cleanup, only by explicit removal.
	persons, err := s.ContactPersons()
	if err != nil {
		t.Fatal(err)
	}
	if len(persons) != 1 {
		t.Errorf("cleanup removed a contact person")
	}
}

// TestCleanup_PrunesStaleRiskLevels verifies that risk annotations outside
// the window are pruned alongside encounters and visits.
func TestCleanup_PrunesStaleRiskLevels(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	s.AddRiskLevels([]RiskEntry{
		{Date: "2020-11-01", Level: RiskHigh},
		{Date: "2020-12-10", Level: RiskLow},
	})

	if err := s.Cleanup(); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM risk_per_date").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("risk rows after cleanup = %d, want 1", count)
	}
}

// TestCleanupWithTimeout_Completes verifies the timeout variant behaves
// like Cleanup when the deadline is generous.
func TestCleanupWithTimeout_Completes(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	personID, err := s.AddContactPerson("Helge Schneider")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEncounter(Encounter{Date: "2020-01-01", ContactPersonID: personID}); err != nil {
		t.Fatal(err)
	}

	if err := s.CleanupWithTimeout(5 * time.Second); err != nil {
		t.Fatalf("CleanupWithTimeout: %v", err)
	}

	encounters, err := s.Encounters()
	if err != nil {
		t.Fatal(err)
	}
	if len(encounters) != 0 {
		t.Errorf("stale encounter survived: %+v", encounters)
	}
}

// TestCleanupWithTimeout_ReturnsPromptly verifies that an elapsed deadline
// is not an error and does not block the caller; the cleanup itself may
// still land in the background.
func TestCleanupWithTimeout_ReturnsPromptly(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	start := time.Now()
	if err := s.CleanupWithTimeout(time.Nanosecond); err != nil {
		t.Fatalf("CleanupWithTimeout: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("caller blocked for %v on a nanosecond deadline", elapsed)
	}
}
