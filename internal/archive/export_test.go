package archive

import (
	"database/sql"
	"time"
)

// DB exposes the internal *sql.DB for test helpers in archive_test.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetClock replaces the clock used for created_at until the returned func runs.
func SetClock(fn func() time.Time) (restore func()) {
	orig := timeNow
	timeNow = fn
	return func() { timeNow = orig }
}
