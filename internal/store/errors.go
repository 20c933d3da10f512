package store

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ErrNotFound is returned when an operation references a contact person or
// location id that does not exist in the store.
var ErrNotFound = errors.New("store: no such row")

// ErrClosed is returned by operations invoked after Close. A best-effort
// background cleanup racing a shutdown lands here harmlessly.
var ErrClosed = errors.New("store: closed")

// Relevant SQLite primary result codes. Kept local rather than importing
// the driver's lib package for three constants.
const (
	sqliteErrCorrupt = 11
	sqliteErrFull    = 13
	sqliteErrNotADB  = 26
)

// ErrKind classifies an underlying engine failure for callers that need to
// distinguish "disk full" from everything else.
type ErrKind int

const (
	KindGeneral ErrKind = iota
	KindDiskFull
	KindCorrupt
	KindUnknown
)

func (k ErrKind) String() string {
	switch k {
	case KindGeneral:
		return "general error"
	case KindDiskFull:
		return "disk full"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// DatabaseError wraps an SQLite engine failure with the operation that
// triggered it and the engine result code. It never crosses the store
// boundary as a panic; every store method returns it as a plain error.
type DatabaseError struct {
	Op   string
	Kind ErrKind
	Code int
	Err  error
}

func (e *DatabaseError) Error() string {
	if e.Kind == KindUnknown {
		return fmt.Sprintf("%s: unknown(%d): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// classifyCode maps an SQLite result code to an ErrKind. The extended code
// carries the primary code in its low byte.
func classifyCode(code int) ErrKind {
	switch code & 0xff {
	case sqliteErrFull:
		return KindDiskFull
	case sqliteErrCorrupt, sqliteErrNotADB:
		return KindCorrupt
	case 1:
		return KindGeneral
	default:
		return KindUnknown
	}
}

// wrapDBErr converts a driver error into a *DatabaseError. Nil and
// ErrNotFound pass through untouched.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return &DatabaseError{Op: op, Kind: classifyCode(code), Code: code, Err: err}
	}
	return &DatabaseError{Op: op, Kind: KindGeneral, Code: -1, Err: err}
}

// isCorrupt reports whether err indicates an unreadable database file, the
// one condition the self-healing open is allowed to recover from by
// deleting and recreating the store.
func isCorrupt(err error) bool {
	var derr *DatabaseError
	if errors.As(err, &derr) {
		return derr.Kind == KindCorrupt
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		return classifyCode(serr.Code()) == KindCorrupt
	}
	return false
}
