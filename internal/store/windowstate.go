package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// WindowState 主窗口的持久化状态（单行表）
type WindowState struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Visible bool `json:"visible"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNoWindowState 表示尚未保存过窗口状态
var ErrNoWindowState = errors.New("no window state saved")

// WindowStateStore 定义窗口状态存储接口
type WindowStateStore interface {
	InitSchema(ctx context.Context) error
	Load(ctx context.Context) (*WindowState, error)
	Save(ctx context.Context, state *WindowState) error
}

// SQLiteWindowStateStore 实现 WindowStateStore 接口
type SQLiteWindowStateStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteWindowStateStore 创建新的 SQLite 窗口状态存储
func NewSQLiteWindowStateStore(db *sql.DB) *SQLiteWindowStateStore {
	return &SQLiteWindowStateStore{db: db}
}

// InitSchema 初始化表结构
func (s *SQLiteWindowStateStore) InitSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema := `
		CREATE TABLE IF NOT EXISTS window_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			visible INTEGER NOT NULL DEFAULT 1,
			updated_at TEXT NOT NULL
		);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to init window state schema: %w", err)
	}
	return nil
}

// Load 读取窗口状态；从未保存过时返回 ErrNoWindowState
func (s *SQLiteWindowStateStore) Load(ctx context.Context) (*WindowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state WindowState
	var visible int
	var updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT x, y, width, height, visible, updated_at FROM window_state WHERE id = 1`,
	).Scan(&state.X, &state.Y, &state.Width, &state.Height, &visible, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoWindowState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load window state: %w", err)
	}

	state.Visible = visible != 0
	state.UpdatedAt = parseSQLiteDateTime(updatedAt)
	return &state, nil
}

// Save 保存窗口状态（upsert 单行）
func (s *SQLiteWindowStateStore) Save(ctx context.Context, state *WindowState) error {
	if state == nil {
		return fmt.Errorf("window state is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	visible := 0
	if state.Visible {
		visible = 1
	}

	query := `
		INSERT INTO window_state (id, x, y, width, height, visible, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			x = excluded.x,
			y = excluded.y,
			width = excluded.width,
			height = excluded.height,
			visible = excluded.visible,
			updated_at = excluded.updated_at
	`

	_, err := execWithSQLiteBusyRetry(ctx, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, query,
			state.X, state.Y, state.Width, state.Height, visible,
			time.Now().Format(time.RFC3339Nano),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to save window state: %w", err)
	}
	return nil
}
