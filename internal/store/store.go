package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateEntry is returned when an insert would violate the
// one-entry-per-tracker-per-day constraint.
var ErrDuplicateEntry = errors.New("entry already exists for this tracker and date")

func joinSets(sets []string) string {
	return strings.Join(sets, ", ")
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
