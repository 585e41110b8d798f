package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventRecord 一条上下文事件（窗口切换、空闲状态变化、文件活动等）
type EventRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"` // window_change / idle_change / file_activity
	AppName     string    `json:"app_name"`
	WindowTitle string    `json:"window_title"`
	Details     string    `json:"details"` // 附加数据 (JSON)
}

// SnapshotRecord 一条上下文快照
type SnapshotRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Data      string    `json:"data"` // 快照内容 (JSON)
}

// EventStore 定义上下文事件存储接口
type EventStore interface {
	InitSchema(ctx context.Context) error

	InsertEvent(ctx context.Context, record *EventRecord) error
	RecentEvents(ctx context.Context, limit int) ([]*EventRecord, error)
	CountEventsSince(ctx context.Context, since time.Time) (int, error)

	SaveSnapshot(ctx context.Context, data string) error
	RecentSnapshots(ctx context.Context, limit int) ([]*SnapshotRecord, error)

	// Cleanup 删除早于 cutoff 的事件与快照，返回删除行数
	Cleanup(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteEventStore 实现 EventStore 接口
type SQLiteEventStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteEventStore 创建新的 SQLite 事件存储
func NewSQLiteEventStore(db *sql.DB) *SQLiteEventStore {
	return &SQLiteEventStore{db: db}
}

// InitSchema 初始化表结构
func (s *SQLiteEventStore) InitSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema := `
		CREATE TABLE IF NOT EXISTS context_events (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			event_type TEXT NOT NULL,
			app_name TEXT,
			window_title TEXT,
			details TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_context_events_timestamp ON context_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_context_events_type ON context_events(event_type);

		CREATE TABLE IF NOT EXISTS context_snapshots (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			data TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_context_snapshots_timestamp ON context_snapshots(timestamp);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to init event store schema: %w", err)
	}
	return nil
}

// InsertEvent 写入一条上下文事件；ID/Timestamp 为空时自动填充
func (s *SQLiteEventStore) InsertEvent(ctx context.Context, record *EventRecord) error {
	if record == nil {
		return fmt.Errorf("event record is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	query := `
		INSERT INTO context_events (id, timestamp, event_type, app_name, window_title, details)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := execWithSQLiteBusyRetry(ctx, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, query,
			record.ID,
			record.Timestamp.Format(time.RFC3339Nano),
			record.EventType,
			record.AppName,
			record.WindowTitle,
			record.Details,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to insert context event: %w", err)
	}
	return nil
}

// RecentEvents 返回最近的 limit 条事件（时间降序）
func (s *SQLiteEventStore) RecentEvents(ctx context.Context, limit int) ([]*EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, timestamp, event_type,
			COALESCE(app_name, '') as app_name,
			COALESCE(window_title, '') as window_title,
			COALESCE(details, '') as details
		FROM context_events
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := queryRowsWithSQLiteBusyRetry(ctx, func() (*sql.Rows, error) {
		return s.db.QueryContext(ctx, query, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var records []*EventRecord
	for rows.Next() {
		var record EventRecord
		var timestamp string
		if err := rows.Scan(&record.ID, &timestamp, &record.EventType,
			&record.AppName, &record.WindowTitle, &record.Details); err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		record.Timestamp = parseSQLiteDateTime(timestamp)
		records = append(records, &record)
	}
	return records, rows.Err()
}

// CountEventsSince 统计 since 之后的事件数量
func (s *SQLiteEventStore) CountEventsSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM context_events WHERE timestamp >= ?`,
		since.Format(time.RFC3339Nano),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// SaveSnapshot 保存一条上下文快照
func (s *SQLiteEventStore) SaveSnapshot(ctx context.Context, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO context_snapshots (id, timestamp, data) VALUES (?, ?, ?)`

	_, err := execWithSQLiteBusyRetry(ctx, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, query,
			uuid.NewString(),
			time.Now().Format(time.RFC3339Nano),
			data,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// RecentSnapshots 返回最近的 limit 条快照（时间降序）
func (s *SQLiteEventStore) RecentSnapshots(ctx context.Context, limit int) ([]*SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := queryRowsWithSQLiteBusyRetry(ctx, func() (*sql.Rows, error) {
		return s.db.QueryContext(ctx,
			`SELECT id, timestamp, data FROM context_snapshots ORDER BY timestamp DESC LIMIT ?`,
			limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []*SnapshotRecord
	for rows.Next() {
		var record SnapshotRecord
		var timestamp string
		if err := rows.Scan(&record.ID, &timestamp, &record.Data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot record: %w", err)
		}
		record.Timestamp = parseSQLiteDateTime(timestamp)
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Cleanup 删除早于 cutoff 的事件与快照
func (s *SQLiteEventStore) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoffStr := cutoff.Format(time.RFC3339Nano)
	var total int64

	res, err := execWithSQLiteBusyRetry(ctx, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, `DELETE FROM context_events WHERE timestamp < ?`, cutoffStr)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup events: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = execWithSQLiteBusyRetry(ctx, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, `DELETE FROM context_snapshots WHERE timestamp < ?`, cutoffStr)
	})
	if err != nil {
		return total, fmt.Errorf("failed to cleanup snapshots: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}
