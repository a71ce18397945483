package report

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"

	"github.com/bmyjacks/memsim/internal/memsim"
)

// SQLiteStore mirrors every CSV row written for a run into a
// level_stats table, the batch analogue of the teacher's DBTracer: a
// run can be replayed many times against the same database file and
// stay distinguishable by RunID.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the SQLite database at
// path and ensures the level_stats table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("report: cannot open sqlite database %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS level_stats (
	run_id TEXT NOT NULL,
	level TEXT NOT NULL,
	num_reads INTEGER NOT NULL,
	num_writes INTEGER NOT NULL,
	num_hits INTEGER NOT NULL,
	num_misses INTEGER NOT NULL,
	miss_rate REAL NOT NULL,
	total_cycles INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("report: cannot create level_stats table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InsertLevel appends one level's statistics for runID.
func (s *SQLiteStore) InsertLevel(runID xid.ID, level string, stats memsim.Statistics) error {
	const insert = `
INSERT INTO level_stats
	(run_id, level, num_reads, num_writes, num_hits, num_misses, miss_rate, total_cycles)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := s.db.Exec(insert,
		runID.String(), level,
		stats.NumRead, stats.NumWrite, stats.NumHit, stats.NumMiss,
		stats.MissRate()*100, stats.TotalCycles)
	return err
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
