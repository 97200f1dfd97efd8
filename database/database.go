package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"photobatch/logging"
	"photobatch/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the database and creates the tables
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS cleanup_markers (
		session_id TEXT PRIMARY KEY,
		delete_at INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_delete_at ON cleanup_markers(delete_at);
	CREATE TABLE IF NOT EXISTS batches (
		session_id TEXT PRIMARY KEY,
		total INTEGER,
		processed INTEGER,
		errors INTEGER,
		total_size INTEGER,
		created_at TEXT
	);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	// session_type came with merge history; older tables get it here
	var hasTypeColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('batches') WHERE name='session_type'").Scan(&hasTypeColumn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking for session_type column: %v", err)
	}
	if !hasTypeColumn {
		if _, err = db.Exec("ALTER TABLE batches ADD COLUMN session_type TEXT NOT NULL DEFAULT 'normal';"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error adding session_type column: %v", err)
		}
		logging.DebugLog("Added 'session_type' column to batches table")
	}

	return db, nil
}

// ScheduleCleanup records a cleanup marker. A session that already has a marker keeps it.
func ScheduleCleanup(ctx context.Context, db *sql.DB, sessionID string, deleteAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO cleanup_markers (session_id, delete_at, created_at) VALUES (?, ?, ?)`,
		sessionID, deleteAt.Unix(), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cannot schedule cleanup for %s: %v", sessionID, err)
	}
	return nil
}

// GetDueCleanups returns the markers whose delete time is at or before now
func GetDueCleanups(ctx context.Context, db *sql.DB, now time.Time) ([]types.CleanupMarker, error) {
	return queryMarkers(ctx, db,
		`SELECT session_id, delete_at, created_at FROM cleanup_markers WHERE delete_at <= ? ORDER BY delete_at`,
		now.Unix())
}

// ListScheduledCleanups returns every marker, earliest first
func ListScheduledCleanups(ctx context.Context, db *sql.DB) ([]types.CleanupMarker, error) {
	return queryMarkers(ctx, db,
		`SELECT session_id, delete_at, created_at FROM cleanup_markers ORDER BY delete_at`)
}

func queryMarkers(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]types.CleanupMarker, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot query cleanup markers: %v", err)
	}
	defer rows.Close()

	var markers []types.CleanupMarker
	for rows.Next() {
		var (
			id        string
			deleteAt  int64
			createdAt string
		)
		if err := rows.Scan(&id, &deleteAt, &createdAt); err != nil {
			return nil, fmt.Errorf("cannot read cleanup marker: %v", err)
		}
		created, _ := time.Parse(time.RFC3339, createdAt)
		markers = append(markers, types.CleanupMarker{
			SessionID: id,
			DeleteAt:  time.Unix(deleteAt, 0),
			CreatedAt: created,
		})
	}
	return markers, rows.Err()
}

// RecordBatch stores the outcome of a batch or merge
func RecordBatch(ctx context.Context, db *sql.DB, sessionType types.SessionType, result *types.BatchResult) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO batches (
			session_id, session_type, total, processed, errors, total_size, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.SessionID,
		string(sessionType),
		result.Total,
		result.Processed,
		result.Errors,
		result.Stats.TotalSize,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot record batch %s: %v", result.SessionID, err)
	}
	return nil
}

// ProcessingStats summarizes recorded batches
type ProcessingStats struct {
	Batches        int   `json:"batches"`
	FilesProcessed int   `json:"files_processed"`
	FilesFailed    int   `json:"files_failed"`
	BytesWritten   int64 `json:"bytes_written"`
}

// GetProcessingStats aggregates every recorded batch
func GetProcessingStats(ctx context.Context, db *sql.DB) (*ProcessingStats, error) {
	var stats ProcessingStats
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(processed), 0), COALESCE(SUM(errors), 0), COALESCE(SUM(total_size), 0)
		FROM batches`).Scan(&stats.Batches, &stats.FilesProcessed, &stats.FilesFailed, &stats.BytesWritten)
	if err != nil {
		return nil, fmt.Errorf("failed to get processing stats: %v", err)
	}
	return &stats, nil
}

// CleanupQueue schedules session cleanups in the database
type CleanupQueue struct {
	db *sql.DB
}

// NewCleanupQueue wraps an open database
func NewCleanupQueue(db *sql.DB) *CleanupQueue {
	return &CleanupQueue{db: db}
}

func (q *CleanupQueue) ScheduleCleanup(ctx context.Context, sessionID string, deleteAt time.Time) error {
	return ScheduleCleanup(ctx, q.db, sessionID, deleteAt)
}

func (q *CleanupQueue) List(ctx context.Context) ([]types.CleanupMarker, error) {
	return ListScheduledCleanups(ctx, q.db)
}

func (q *CleanupQueue) Due(ctx context.Context, now time.Time) ([]types.CleanupMarker, error) {
	return GetDueCleanups(ctx, q.db, now)
}

func (q *CleanupQueue) Record(ctx context.Context, sessionType types.SessionType, result *types.BatchResult) error {
	return RecordBatch(ctx, q.db, sessionType, result)
}

func (q *CleanupQueue) Stats(ctx context.Context) (*ProcessingStats, error) {
	return GetProcessingStats(ctx, q.db)
}
