package store

// MaxNameLength is the longest contact-person or location name the store
// will persist. Longer names are silently truncated on insert and rename.
const MaxNameLength = 250

// DefaultRetentionDays is the trailing window of diary data the store keeps
// and displays: today plus the 14 preceding calendar days. Earlier versions
// of this subsystem shipped with 14, 16 and 17; this codebase fixes the
// window at 15 and makes it configurable through Options rather than
// matching any one historical value.
const DefaultRetentionDays = 15

// ContactPerson is a diary contact. Deleting a person cascades to all of
// their encounters.
type ContactPerson struct {
	ID   int64
	Name string
}

// Location is a diary place. Deleting a location cascades to all of its
// visits.
type Location struct {
	ID   int64
	Name string
}

// Duration classifies how long an encounter lasted.
type Duration int

const (
	DurationUnspecified Duration = iota
	DurationLessThan10Minutes
	DurationMoreThan10Minutes
)

func (d Duration) String() string {
	switch d {
	case DurationLessThan10Minutes:
		return "unter 10 Minuten"
	case DurationMoreThan10Minutes:
		return "über 10 Minuten"
	default:
		return ""
	}
}

// MaskSituation classifies whether masks were worn during an encounter.
type MaskSituation int

const (
	MaskUnspecified MaskSituation = iota
	MaskWithMask
	MaskWithoutMask
)

func (m MaskSituation) String() string {
	switch m {
	case MaskWithMask:
		return "mit Maske"
	case MaskWithoutMask:
		return "ohne Maske"
	default:
		return ""
	}
}

// Setting classifies where an encounter took place.
type Setting int

const (
	SettingUnspecified Setting = iota
	SettingOutside
	SettingInside
)

func (s Setting) String() string {
	switch s {
	case SettingOutside:
		return "im Freien"
	case SettingInside:
		return "im Gebäude"
	default:
		return ""
	}
}

// Encounter records that a contact person was met on a calendar date.
// Date is an ISO 8601 full date ("2006-01-02") with no time component.
// Date and ContactPersonID are immutable once created.
type Encounter struct {
	ID              int64
	Date            string
	ContactPersonID int64
	Duration        Duration
	MaskSituation   MaskSituation
	Setting         Setting
	Circumstances   string
}

// Visit records that a location was visited on a calendar date.
type Visit struct {
	ID                int64
	Date              string
	LocationID        int64
	DurationInMinutes int
	Circumstances     string
}

// RiskLevel is the ordered per-day risk classification supplied by the risk
// calculation subsystem: none < low < high.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskHigh:
		return "high"
	default:
		return "none"
	}
}

// RiskEntry is one date/level pair for AddRiskLevels.
type RiskEntry struct {
	Date  string
	Level RiskLevel
}

// RiskResult reports the outcome of persisting a single RiskEntry.
type RiskResult struct {
	Entry RiskEntry
	Err   error
}

// EntryKind discriminates the two diary entry variants.
type EntryKind int

const (
	KindPerson EntryKind = iota
	KindLocation
)

// DiaryEntry is one person or location as it appears on one diary day.
// Selected reports whether an encounter/visit row exists for that day;
// RecordID is the id of that row (needed to remove or toggle it later) and
// is zero when not selected.
type DiaryEntry struct {
	Kind      EntryKind
	ParentID  int64
	Name      string
	Selected  bool
	RecordID  int64
	Encounter *Encounter
	Visit     *Visit
}

// DiaryDay is the derived aggregate for one calendar date in the retention
// window. Entries hold all person entries first, then all location entries,
// each group sorted by name (byte order) with id as tie-breaker.
type DiaryDay struct {
	Date    string
	Risk    RiskLevel
	Entries []DiaryEntry
}
