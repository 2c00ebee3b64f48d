package report

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// HistoryEntry is one locally logged submission
type HistoryEntry struct {
	ID             int64
	WorkOrderID    int64
	TaskID         int64
	Quantity       float64
	MessageTraceID string
	ReportedAt     int64
}

// HistoryRepository keeps a local log of submitted reports, so the operator
// can see what went out even when the backend listing is unreachable.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates the repository and its backing table
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) (*HistoryRepository, error) {
	schema := `CREATE TABLE IF NOT EXISTS report_history (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		work_order_id    INTEGER NOT NULL,
		task_id          INTEGER NOT NULL,
		quantity         REAL NOT NULL,
		message_trace_id TEXT,
		reported_at      INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create report_history table: %w", err)
	}
	return &HistoryRepository{db: db, logger: logger}, nil
}

// Create inserts a new history entry
func (r *HistoryRepository) Create(entry *HistoryEntry) error {
	result, err := r.db.Exec(
		`INSERT INTO report_history (work_order_id, task_id, quantity, message_trace_id, reported_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.WorkOrderID, entry.TaskID, entry.Quantity, entry.MessageTraceID, entry.ReportedAt)
	if err != nil {
		r.logger.Error("Failed to create history entry", zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// Recent returns the latest entries, newest first
func (r *HistoryRepository) Recent(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(
		`SELECT id, work_order_id, task_id, quantity, message_trace_id, reported_at
		 FROM report_history ORDER BY reported_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		var traceID sql.NullString
		if err := rows.Scan(&e.ID, &e.WorkOrderID, &e.TaskID, &e.Quantity, &traceID, &e.ReportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.MessageTraceID = traceID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
