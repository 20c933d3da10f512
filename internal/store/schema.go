package store

// schemaVersion is the current schema version. Increment when adding migrations.
const schemaVersion = 3

// migrations maps version numbers to SQL statements that bring the schema
// from (version-1) to (version). Version 1 is the initial schema.
var migrations = map[int]string{
	1: `
-- People the user has had contact with.
CREATE TABLE IF NOT EXISTS contact_persons (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT    NOT NULL
);

-- Places the user has been to.
CREATE TABLE IF NOT EXISTS locations (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT    NOT NULL
);

-- One row per person per day the person was encountered.
-- date is an ISO 8601 full date ("2006-01-02"), no time component.
-- contact_person_id references contact_persons(id); the cascade on parent
-- deletion is enforced in application code, not by the engine.
CREATE TABLE IF NOT EXISTS contact_person_encounters (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	date              TEXT    NOT NULL,
	contact_person_id INTEGER NOT NULL,
	duration          INTEGER NOT NULL DEFAULT 0,
	mask_situation    INTEGER NOT NULL DEFAULT 0,
	setting           INTEGER NOT NULL DEFAULT 0,
	circumstances     TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_encounters_date ON contact_person_encounters(date);
CREATE INDEX IF NOT EXISTS idx_encounters_person ON contact_person_encounters(contact_person_id);

-- One row per location per day the location was visited.
CREATE TABLE IF NOT EXISTS location_visits (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	date                TEXT    NOT NULL,
	location_id         INTEGER NOT NULL,
	duration_in_minutes INTEGER NOT NULL DEFAULT 0,
	circumstances       TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_visits_date ON location_visits(date);
CREATE INDEX IF NOT EXISTS idx_visits_location ON location_visits(location_id);

-- Key-value store for diary metadata (schema version etc).
CREATE TABLE IF NOT EXISTS diary_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
`,

	2: `
-- v1 enforced no length limit on names. From v2 on the insert/rename path
-- truncates to 250 characters; this backfill brings pre-existing rows in
-- line so the invariant holds for the whole table.
UPDATE contact_persons SET name = substr(name, 1, 250) WHERE length(name) > 250;
UPDATE locations SET name = substr(name, 1, 250) WHERE length(name) > 250;
`,

	3: `
-- Per-day risk classification used to annotate the diary day view.
-- Written by the risk calculation subsystem, never user-edited.
CREATE TABLE IF NOT EXISTS risk_per_date (
	date       TEXT    PRIMARY KEY,
	risk_level INTEGER NOT NULL DEFAULT 0
);
`,
}
