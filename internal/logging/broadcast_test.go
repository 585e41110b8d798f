package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// discardHandler 丢弃所有日志的内部处理器
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func newRecord(level slog.Level, msg string) slog.Record {
	return slog.NewRecord(time.Now(), level, msg, 0)
}

func TestBroadcastRingBuffer(t *testing.T) {
	h := NewBroadcastHandler(discardHandler{}, 3)
	ctx := context.Background()

	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		if err := h.Handle(ctx, newRecord(slog.LevelInfo, msg)); err != nil {
			t.Fatalf("处理日志失败: %v", err)
		}
	}

	recent := h.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("环形缓冲应保留 3 条，实际: %d", len(recent))
	}

	// 保留最新的三条，时间升序
	want := []string{"c", "d", "e"}
	for i, entry := range recent {
		if entry.Message != want[i] {
			t.Fatalf("第 %d 条不符: 期望 %s 实际 %s", i, want[i], entry.Message)
		}
	}
}

func TestBroadcastRecentLimit(t *testing.T) {
	h := NewBroadcastHandler(discardHandler{}, 10)
	ctx := context.Background()

	for _, msg := range []string{"a", "b", "c"} {
		h.Handle(ctx, newRecord(slog.LevelInfo, msg))
	}

	recent := h.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) 应返回 2 条，实际: %d", len(recent))
	}
	if recent[0].Message != "b" || recent[1].Message != "c" {
		t.Fatalf("应返回最新两条: %+v", recent)
	}
}

func TestBroadcastSink(t *testing.T) {
	h := NewBroadcastHandler(discardHandler{}, 10)

	var seen []LogEntry
	h.AddSink(func(entry LogEntry) { seen = append(seen, entry) })

	h.Handle(context.Background(), newRecord(slog.LevelError, "boom"))

	if len(seen) != 1 {
		t.Fatalf("sink 应收到 1 条，实际: %d", len(seen))
	}
	if seen[0].Level != "error" || seen[0].Message != "boom" {
		t.Fatalf("sink 条目不符: %+v", seen[0])
	}
}

func TestBroadcastAttrsInMessage(t *testing.T) {
	h := NewBroadcastHandler(discardHandler{}, 10)

	record := newRecord(slog.LevelInfo, "connected")
	record.AddAttrs(slog.String("endpoint", "local"))
	h.Handle(context.Background(), record)

	recent := h.Recent(1)
	if len(recent) != 1 {
		t.Fatal("应记录 1 条日志")
	}
	if !strings.Contains(recent[0].Message, "endpoint=local") {
		t.Fatalf("属性应拼接进消息: %s", recent[0].Message)
	}
}

func TestBroadcastDerivedHandlersShareBuffer(t *testing.T) {
	h := NewBroadcastHandler(discardHandler{}, 10)
	derived := h.WithAttrs([]slog.Attr{slog.String("component", "test")})

	derived.Handle(context.Background(), newRecord(slog.LevelInfo, "from derived"))

	recent := h.Recent(0)
	if len(recent) != 1 {
		t.Fatalf("派生 handler 的日志应进入共享缓冲，实际: %d", len(recent))
	}
}
