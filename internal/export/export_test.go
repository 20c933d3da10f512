package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/exposurekit/contactdiary/internal/clock"
	"github.com/exposurekit/contactdiary/internal/store"
)

func setupStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "diary-export-test-*")
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Open(filepath.Join(dir, "diary.db"), store.Options{
		Clock: clock.Date(2020, time.December, 15),
	})
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

// TestFromStore_GoldenOutput pins the export byte-for-byte for a fixed
// clock (2020-12-15) and a fixed sequence of adds. The format is shared
// with health authorities and must not drift.
func TestFromStore_GoldenOutput(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()

	personID, err := s.AddContactPerson("Helge Schneider")
	if err != nil {
		t.Fatal(err)
	}
	locID, err := s.AddLocation("Supermarkt")
	if err != nil {
		t.Fatal(err)
	}
	for _, date := range []string{"2020-12-15", "2020-12-05"} {
		if _, err := s.AddEncounter(store.Encounter{Date: date, ContactPersonID: personID}); err != nil {
			t.Fatal(err)
		}
	}
	for _, date := range []string{"2020-12-15", "2020-12-02"} {
		if _, err := s.AddVisit(store.Visit{Date: date, LocationID: locID}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FromStore(s)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}

	want := "Kontakte der letzten 15 Tage (01.12.2020 - 15.12.2020)\n" +
		"Die nachfolgende Liste dient dem zuständigen Gesundheitsamt zur Kontaktnachverfolgung gem. § 25 IfSG.\n" +
		"\n" +
		"15.12.2020 Helge Schneider\n" +
		"15.12.2020 Supermarkt\n" +
		"05.12.2020 Helge Schneider\n" +
		"02.12.2020 Supermarkt\n" +
		"\n"
	if got != want {
		t.Errorf("export mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

// TestFromStore_EmptyDiary verifies that a diary with no entries still
// produces the header, the disclaimer and the trailing blank line.
func TestFromStore_EmptyDiary(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()

	got, err := FromStore(s)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}

	want := "Kontakte der letzten 15 Tage (01.12.2020 - 15.12.2020)\n" +
		"Die nachfolgende Liste dient dem zuständigen Gesundheitsamt zur Kontaktnachverfolgung gem. § 25 IfSG.\n" +
		"\n" +
		"\n"
	if got != want {
		t.Errorf("export mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

// TestRender_PersonsBeforeLocationsPerDay verifies the per-day ordering in
// the flat report: persons first, then locations, newest day first.
func TestRender_PersonsBeforeLocationsPerDay(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()

	locID, err := s.AddLocation("Apotheke")
	if err != nil {
		t.Fatal(err)
	}
	personID, err := s.AddContactPerson("Zoe")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddVisit(store.Visit{Date: "2020-12-14", LocationID: locID}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddEncounter(store.Encounter{Date: "2020-12-14", ContactPersonID: personID}); err != nil {
		t.Fatal(err)
	}

	got := Render(s.Days())
	lines := strings.Split(got, "\n")
	// lines[0] header, lines[1] disclaimer, lines[2] blank.
	if lines[3] != "14.12.2020 Zoe" || lines[4] != "14.12.2020 Apotheke" {
		t.Errorf("day lines = %q, want person before location", lines[3:5])
	}
}
