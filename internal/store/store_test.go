package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/exposurekit/contactdiary/internal/clock"
)

// testToday is the fixed "today" most tests run against.
var testToday = clock.Date(2020, time.December, 15)

func setupTestStore(t *testing.T, c clock.Clock) (*Store, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "diary-store-test-*")
	if err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "diary.db")
	s, err := Open(dbPath, Options{Clock: c})
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	cleanup := func() {
		s.Close()
		os.RemoveAll(dir)
	}
	return s, cleanup
}

// TestAddContactPerson_AssignsSequentialIDs verifies that ids are
// store-assigned and monotonic.
func TestAddContactPerson_AssignsSequentialIDs(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	id1, err := s.AddContactPerson("Helge Schneider")
	if err != nil {
		t.Fatalf("AddContactPerson: %v", err)
	}
	if id1 != 1 {
		t.Errorf("first id = %d, want 1", id1)
	}

	id2, err := s.AddContactPerson("Andrea Steinhauser")
	if err != nil {
		t.Fatalf("AddContactPerson: %v", err)
	}
	if id2 != id1+1 {
		t.Errorf("second id = %d, want %d", id2, id1+1)
	}
}

// TestAddContactPerson_TruncatesLongNames verifies the 250-character name
// invariant on insert.
func TestAddContactPerson_TruncatesLongNames(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	long := strings.Repeat("Y", 251)
	id, err := s.AddContactPerson(long)
	if err != nil {
		t.Fatalf("AddContactPerson: %v", err)
	}

	var name string
	if err := s.db.QueryRow("SELECT name FROM contact_persons WHERE id = ?", id).Scan(&name); err != nil {
		t.Fatalf("query name: %v", err)
	}
	if name != strings.Repeat("Y", 250) {
		t.Errorf("stored name has %d characters, want exactly 250 'Y's", len([]rune(name)))
	}
}

// TestUpdateLocation_TruncatesLongNames verifies the truncation rule is
// re-applied on rename.
func TestUpdateLocation_TruncatesLongNames(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	id, err := s.AddLocation(strings.Repeat("Y", 251))
	if err != nil {
		t.Fatalf("AddLocation: %v", err)
	}

	var name string
	if err := s.db.QueryRow("SELECT name FROM locations WHERE id = ?", id).Scan(&name); err != nil {
		t.Fatalf("query name: %v", err)
	}
	if name != strings.Repeat("Y", 250) {
		t.Errorf("stored name has %d characters after add, want 250", len([]rune(name)))
	}

	if err := s.UpdateLocation(id, strings.Repeat("Z", 251)); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if err := s.db.QueryRow("SELECT name FROM locations WHERE id = ?", id).Scan(&name); err != nil {
		t.Fatalf("query name: %v", err)
	}
	if name != strings.Repeat("Z", 250) {
		t.Errorf("stored name has %d characters after rename, want 250", len([]rune(name)))
	}
}

// TestUpdateContactPerson_MissingIDIsNoOp verifies that renaming a
// nonexistent person silently succeeds.
func TestUpdateContactPerson_MissingIDIsNoOp(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	if err := s.UpdateContactPerson(42, "nobody"); err != nil {
		t.Fatalf("UpdateContactPerson on missing id: %v", err)
	}

	persons, err := s.ContactPersons()
	if err != nil {
		t.Fatalf("ContactPersons: %v", err)
	}
	if len(persons) != 0 {
		t.Errorf("got %d persons, want 0", len(persons))
	}
}

// TestAddEncounter_StoresRow covers the concrete scenario: add a person,
// add an encounter on 2020-12-10, fetch it back.
func TestAddEncounter_StoresRow(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	personID, err := s.AddContactPerson("Helge Schneider")
	if err != nil {
		t.Fatalf("AddContactPerson: %v", err)
	}
	if personID != 1 {
		t.Errorf("person id = %d, want 1", personID)
	}

	encID, err := s.AddEncounter(Encounter{
		Date:            "2020-12-10",
		ContactPersonID: personID,
		Duration:        DurationMoreThan10Minutes,
		MaskSituation:   MaskWithMask,
		Setting:         SettingOutside,
		Circumstances:   "Spaziergang",
	})
	if err != nil {
		t.Fatalf("AddEncounter: %v", err)
	}

	encounters, err := s.Encounters()
	if err != nil {
		t.Fatalf("Encounters: %v", err)
	}
	if len(encounters) != 1 {
		t.Fatalf("got %d encounters, want 1", len(encounters))
	}
	e := encounters[0]
	if e.ID != encID || e.ContactPersonID != 1 || e.Date != "2020-12-10" {
		t.Errorf("encounter = %+v, want id %d, person 1, date 2020-12-10", e, encID)
	}
	if e.Duration != DurationMoreThan10Minutes || e.MaskSituation != MaskWithMask || e.Setting != SettingOutside {
		t.Errorf("encounter attributes not round-tripped: %+v", e)
	}
}

// TestAddEncounter_MissingPersonFails verifies that an encounter for a
// nonexistent person is rejected with ErrNotFound instead of creating an
// orphan row.
func TestAddEncounter_MissingPersonFails(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	_, err := s.AddEncounter(Encounter{Date: "2020-12-10", ContactPersonID: 7})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM contact_person_encounters").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("orphan encounter rows: %d, want 0", count)
	}
}

// TestAddVisit_MissingLocationFails mirrors the encounter validation for
// visits.
func TestAddVisit_MissingLocationFails(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	_, err := s.AddVisit(Visit{Date: "2020-12-10", LocationID: 7})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// TestRemoveContactPerson_CascadesToEncounters verifies the manual cascade:
// removing a person removes every encounter referencing them.
func TestRemoveContactPerson_CascadesToEncounters(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	personID, err := s.AddContactPerson("Helge Schneider")
	if err != nil {
		t.Fatal(err)
	}
	otherID, err := s.AddContactPerson("Andrea Steinhauser")
	if err != nil {
		t.Fatal(err)
	}
	for _, date := range []string{"2020-12-10", "2020-12-12", "2020-12-14"} {
		if _, err := s.AddEncounter(Encounter{Date: date, ContactPersonID: personID}); err != nil {
			t.Fatal(err)
		}
	}
	keepID, err := s.AddEncounter(Encounter{Date: "2020-12-11", ContactPersonID: otherID})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveContactPerson(personID); err != nil {
		t.Fatalf("RemoveContactPerson: %v", err)
	}

	persons, err := s.ContactPersons()
	if err != nil {
		t.Fatal(err)
	}
	if len(persons) != 1 || persons[0].ID != otherID {
		t.Errorf("persons = %+v, want only id %d", persons, otherID)
	}

	encounters, err := s.Encounters()
	if err != nil {
		t.Fatal(err)
	}
	if len(encounters) != 1 || encounters[0].ID != keepID {
		t.Errorf("encounters = %+v, want only id %d", encounters, keepID)
	}
}

// TestRemoveLocation_CascadesToVisits verifies the manual cascade for
// locations.
func TestRemoveLocation_CascadesToVisits(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	locID, err := s.AddLocation("Supermarkt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddVisit(Visit{Date: "2020-12-10", LocationID: locID}); err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveLocation(locID); err != nil {
		t.Fatalf("RemoveLocation: %v", err)
	}

	visits, err := s.Visits()
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 0 {
		t.Errorf("visits = %+v, want none", visits)
	}
}

// TestRemoveAllContactPersons_BulkCascade verifies the bulk variant.
func TestRemoveAllContactPersons_BulkCascade(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	for _, name := range []string{"A", "B", "C"} {
		id, err := s.AddContactPerson(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.AddEncounter(Encounter{Date: "2020-12-14", ContactPersonID: id}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.RemoveAllContactPersons(); err != nil {
		t.Fatalf("RemoveAllContactPersons: %v", err)
	}

	var persons, encounters int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM contact_persons").Scan(&persons); err != nil {
		t.Fatal(err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM contact_person_encounters").Scan(&encounters); err != nil {
		t.Fatal(err)
	}
	if persons != 0 || encounters != 0 {
		t.Errorf("persons = %d, encounters = %d, want 0/0", persons, encounters)
	}
}

// TestAddRiskLevels_PartialFailure verifies that bulk risk insertion
// reports one result per entry and keeps the maximum level per date.
func TestAddRiskLevels_PartialFailure(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	results := s.AddRiskLevels([]RiskEntry{
		{Date: "2020-12-14", Level: RiskLow},
		{Date: "2020-12-14", Level: RiskHigh},
		{Date: "2020-12-15", Level: RiskHigh},
		{Date: "2020-12-15", Level: RiskLow},
	})
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("entry %d failed: %v", i, r.Err)
		}
	}

	var level int
	if err := s.db.QueryRow("SELECT risk_level FROM risk_per_date WHERE date = '2020-12-14'").Scan(&level); err != nil {
		t.Fatal(err)
	}
	if RiskLevel(level) != RiskHigh {
		t.Errorf("2020-12-14 level = %d, want high (max wins)", level)
	}
	if err := s.db.QueryRow("SELECT risk_level FROM risk_per_date WHERE date = '2020-12-15'").Scan(&level); err != nil {
		t.Fatal(err)
	}
	if RiskLevel(level) != RiskHigh {
		t.Errorf("2020-12-15 level = %d, want high (lower later entry must not downgrade)", level)
	}
}

// TestReset_EmptiesAllTables verifies the reset invariant: schema intact,
// zero rows, day view empty-but-windowed.
func TestReset_EmptiesAllTables(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	personID, err := s.AddContactPerson("Helge Schneider")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEncounter(Encounter{Date: "2020-12-14", ContactPersonID: personID}); err != nil {
		t.Fatal(err)
	}
	locID, err := s.AddLocation("Supermarkt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddVisit(Visit{Date: "2020-12-14", LocationID: locID}); err != nil {
		t.Fatal(err)
	}
	s.AddRiskLevels([]RiskEntry{{Date: "2020-12-14", Level: RiskHigh}})

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	for _, table := range []string{"contact_persons", "locations", "contact_person_encounters", "location_visits", "risk_per_date"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("table %s has %d rows after reset, want 0", table, count)
		}
	}

	days := s.Days()
	if len(days) != DefaultRetentionDays {
		t.Fatalf("day view has %d days after reset, want %d", len(days), DefaultRetentionDays)
	}
	for _, day := range days {
		if len(day.Entries) != 0 {
			t.Errorf("day %s has %d entries after reset, want 0", day.Date, len(day.Entries))
		}
	}
}

// TestStats_CountsRows sanity-checks the status counters.
func TestStats_CountsRows(t *testing.T) {
	s, cleanup := setupTestStore(t, testToday)
	defer cleanup()

	id, err := s.AddContactPerson("A")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEncounter(Encounter{Date: "2020-12-14", ContactPersonID: id}); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.ContactPersons != 1 || st.Encounters != 1 || st.Locations != 0 || st.Visits != 0 {
		t.Errorf("stats = %+v", st)
	}
	if st.SizeBytes <= 0 {
		t.Errorf("size = %d, want > 0", st.SizeBytes)
	}
}
