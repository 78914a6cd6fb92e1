package sqlite

import (
	"errors"
	"strings"

	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraintKind reports the constraint class of a driver error. The
// extended result code is preferred; the message is consulted when the
// connection only reports the primary SQLITE_CONSTRAINT code.
func constraintKind(err error) int {
	var de *driver.Error
	if !errors.As(err, &de) {
		return 0
	}
	code := de.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0
	}
	if code != sqlite3.SQLITE_CONSTRAINT {
		return code
	}
	msg := de.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_UNIQUE
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return code
}

func isForeignKeyViolation(err error) bool {
	return constraintKind(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func isUniqueViolation(err error) bool {
	switch constraintKind(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
