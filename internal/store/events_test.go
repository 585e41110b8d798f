package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// newTestDB 创建临时数据库
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEventStore(t *testing.T) *SQLiteEventStore {
	t.Helper()

	store := NewSQLiteEventStore(newTestDB(t))
	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("初始化表结构失败: %v", err)
	}
	return store
}

func TestInsertAndQueryEvents(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	records := []*EventRecord{
		{EventType: "window_change", AppName: "Code", WindowTitle: "main.go"},
		{EventType: "window_change", AppName: "Browser", WindowTitle: "docs"},
		{EventType: "file_activity", Details: "modified /tmp/a.txt"},
	}
	for _, r := range records {
		if err := store.InsertEvent(ctx, r); err != nil {
			t.Fatalf("写入事件失败: %v", err)
		}
	}

	events, err := store.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("查询事件失败: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("事件数量不符: 期望 3 实际 %d", len(events))
	}

	// 自动填充的字段
	for _, e := range events {
		if e.ID == "" {
			t.Error("事件 ID 应被自动填充")
		}
		if e.Timestamp.IsZero() {
			t.Error("事件时间戳应被自动填充")
		}
	}
}

func TestRecentEventsOrderAndLimit(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := store.InsertEvent(ctx, &EventRecord{
			EventType: "window_change",
			AppName:   "App",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("写入事件失败: %v", err)
		}
	}

	events, err := store.RecentEvents(ctx, 3)
	if err != nil {
		t.Fatalf("查询事件失败: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("limit 未生效: 期望 3 实际 %d", len(events))
	}

	// 时间降序
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.After(events[i-1].Timestamp) {
			t.Fatal("事件应按时间降序返回")
		}
	}
}

func TestInsertNilEvent(t *testing.T) {
	store := newTestEventStore(t)

	if err := store.InsertEvent(context.Background(), nil); err == nil {
		t.Fatal("空事件应返回错误")
	}
}

func TestCountEventsSince(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	now := time.Now()
	timestamps := []time.Time{
		now.Add(-2 * time.Hour),
		now.Add(-30 * time.Minute),
		now.Add(-5 * time.Minute),
	}
	for _, ts := range timestamps {
		if err := store.InsertEvent(ctx, &EventRecord{EventType: "idle_change", Timestamp: ts}); err != nil {
			t.Fatalf("写入事件失败: %v", err)
		}
	}

	count, err := store.CountEventsSince(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("统计事件失败: %v", err)
	}
	if count != 2 {
		t.Fatalf("事件统计不符: 期望 2 实际 %d", count)
	}
}

func TestSnapshots(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	for _, data := range []string{`{"active_app":"Code"}`, `{"active_app":"Browser"}`} {
		if err := store.SaveSnapshot(ctx, data); err != nil {
			t.Fatalf("保存快照失败: %v", err)
		}
	}

	snapshots, err := store.RecentSnapshots(ctx, 10)
	if err != nil {
		t.Fatalf("查询快照失败: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("快照数量不符: 期望 2 实际 %d", len(snapshots))
	}
	for _, s := range snapshots {
		if s.ID == "" || s.Data == "" {
			t.Errorf("快照字段缺失: %+v", s)
		}
	}
}

func TestCleanup(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	now := time.Now()
	old := now.Add(-10 * 24 * time.Hour)

	if err := store.InsertEvent(ctx, &EventRecord{EventType: "window_change", Timestamp: old}); err != nil {
		t.Fatalf("写入过期事件失败: %v", err)
	}
	if err := store.InsertEvent(ctx, &EventRecord{EventType: "window_change", Timestamp: now}); err != nil {
		t.Fatalf("写入新事件失败: %v", err)
	}

	deleted, err := store.Cleanup(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("清理行数不符: 期望 1 实际 %d", deleted)
	}

	events, err := store.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("查询事件失败: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("清理后剩余事件不符: 期望 1 实际 %d", len(events))
	}
}
