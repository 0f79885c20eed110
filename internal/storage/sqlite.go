// Package storage provides SQLite-based persistence for saved sessions and
// session results. Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// SnapshotRecord is a saved session.
type SnapshotRecord struct {
	ID        string // UUID
	MapID     string
	Player    string
	Data      []byte // Serialized gamemap.Snapshot
	CreatedAt time.Time
}

// Result is the outcome of a finished session.
type Result struct {
	ID        int64
	MapID     string
	Player    string
	Score     int
	MaxScore  int
	Outcome   string // "finished", "lives-exhausted", "timed-out"
	Cleared   int    // Exercise stages cleared
	Stages    int    // Exercise stages in play
	LivesLeft int    // -1 when lives were unlimited
	TimeLeft  time.Duration
	Timed     bool // Whether the map had a global time limit
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			map_id TEXT NOT NULL,
			player TEXT NOT NULL DEFAULT '',
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_owner ON snapshots(map_id, player);

		CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			map_id TEXT NOT NULL,
			player TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL,
			max_score INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			cleared INTEGER NOT NULL DEFAULT 0,
			stages INTEGER NOT NULL DEFAULT 0,
			lives_left INTEGER NOT NULL DEFAULT -1,
			time_left INTEGER NOT NULL DEFAULT 0,
			timed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_results_map_id ON results(map_id);
		CREATE INDEX IF NOT EXISTS idx_results_top ON results(map_id, score DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Columns added after the first release of the results table
	added := []struct{ name, decl string }{
		{"cleared", "INTEGER NOT NULL DEFAULT 0"},
		{"stages", "INTEGER NOT NULL DEFAULT 0"},
		{"lives_left", "INTEGER NOT NULL DEFAULT -1"},
		{"time_left", "INTEGER NOT NULL DEFAULT 0"},
		{"timed", "INTEGER NOT NULL DEFAULT 0"},
	}
	for _, col := range added {
		if err := s.ensureColumn("results", col.name, col.decl); err != nil {
			return err
		}
	}
	return nil
}

// ensureColumn adds a column to an existing table when it is missing.
func (s *Store) ensureColumn(table, column, decl string) error {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?",
		table, column,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("cannot inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("cannot add %s.%s: %w", table, column, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime handles both time.Time and string values from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveSnapshot stores a serialized session and returns its ID.
func (s *Store) SaveSnapshot(mapID, player string, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO snapshots (id, map_id, player, data) VALUES (?, ?, ?, ?)",
		id, mapID, player, data,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent snapshot for a map and player,
// or nil if there is none.
func (s *Store) LatestSnapshot(mapID, player string) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var createdAt any

	err := s.db.QueryRow(
		`SELECT id, map_id, player, data, created_at
		 FROM snapshots
		 WHERE map_id = ? AND player = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`,
		mapID, player,
	).Scan(&rec.ID, &rec.MapID, &rec.Player, &rec.Data, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query snapshot: %w", err)
	}

	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

// Snapshots lists saved sessions, newest first, without their data.
// An empty player lists every player.
func (s *Store) Snapshots(player string, limit int) ([]SnapshotRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, map_id, player, created_at
		 FROM snapshots
		 WHERE ? = '' OR player = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		player, player, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		var createdAt any
		if err := rows.Scan(&rec.ID, &rec.MapID, &rec.Player, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// DeleteSnapshots removes every snapshot for a map and player.
// Returns the number of rows removed.
func (s *Store) DeleteSnapshots(mapID, player string) (int64, error) {
	res, err := s.db.Exec(
		"DELETE FROM snapshots WHERE map_id = ? AND player = ?",
		mapID, player,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot delete snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count deleted rows: %w", err)
	}
	return n, nil
}

// SaveResult records a finished session.
// Returns the ID of the inserted record.
func (s *Store) SaveResult(r Result) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO results (map_id, player, score, max_score, outcome, cleared, stages, lives_left, time_left, timed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.MapID, r.Player, r.Score, r.MaxScore, r.Outcome,
		r.Cleared, r.Stages, r.LivesLeft, int64(r.TimeLeft), r.Timed,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopResults retrieves the best N results for a map, highest score first.
// Ties go to the session that kept more lives, then to the earlier one.
func (s *Store) TopResults(mapID string, limit int) ([]Result, error) {
	return s.queryResults(mapID, limit, "score DESC, lives_left DESC, id ASC")
}

// RecentResults retrieves the latest N results for a map, newest first.
func (s *Store) RecentResults(mapID string, limit int) ([]Result, error) {
	return s.queryResults(mapID, limit, "created_at DESC, id DESC")
}

func (s *Store) queryResults(mapID string, limit int, order string) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, map_id, player, score, max_score, outcome, cleared, stages, lives_left, time_left, timed, created_at
		 FROM results
		 WHERE map_id = ?
		 ORDER BY `+order+`
		 LIMIT ?`,
		mapID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var timeLeft int64
		var createdAt any
		if err := rows.Scan(&r.ID, &r.MapID, &r.Player, &r.Score, &r.MaxScore, &r.Outcome,
			&r.Cleared, &r.Stages, &r.LivesLeft, &timeLeft, &r.Timed, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.TimeLeft = time.Duration(timeLeft)
		r.CreatedAt = parseTime(createdAt)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// HighScore returns the highest score for the given map.
// Returns 0 if no results exist.
func (s *Store) HighScore(mapID string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM results WHERE map_id = ?",
		mapID,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// MapStats contains aggregated statistics for a map.
type MapStats struct {
	MapID      string
	Sessions   int
	Finished   int
	HighScore  int
	AvgScore   float64
	LastPlayed time.Time
}

// AllMapStats retrieves statistics for every map that has results.
func (s *Store) AllMapStats() (map[string]*MapStats, error) {
	rows, err := s.db.Query(
		`SELECT map_id, COUNT(*), SUM(CASE WHEN outcome = 'finished' THEN 1 ELSE 0 END),
		        MAX(score), AVG(score), MAX(created_at)
		 FROM results
		 GROUP BY map_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get map stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*MapStats)
	for rows.Next() {
		var st MapStats
		var lastPlayed any
		if err := rows.Scan(&st.MapID, &st.Sessions, &st.Finished, &st.HighScore, &st.AvgScore, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastPlayed = parseTime(lastPlayed)
		stats[st.MapID] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}
