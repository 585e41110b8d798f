package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// BroadcastHandler 包装另一个 slog.Handler，额外维护一个环形缓冲
// 供应用内日志视图查询，并把每条日志分发给注册的 sink（如 EventEmitter）
type BroadcastHandler struct {
	inner slog.Handler
	state *broadcastState
}

// broadcastState 在 WithAttrs/WithGroup 派生出的 handler 之间共享
type broadcastState struct {
	mu      sync.RWMutex
	buf     []LogEntry
	head    int
	size    int
	maxSize int
	sinks   []func(LogEntry)
}

// NewBroadcastHandler 创建广播处理器，maxSize 为环形缓冲容量
func NewBroadcastHandler(inner slog.Handler, maxSize int) *BroadcastHandler {
	if maxSize < 1 {
		maxSize = 1
	}
	return &BroadcastHandler{
		inner: inner,
		state: &broadcastState{
			buf:     make([]LogEntry, maxSize),
			maxSize: maxSize,
		},
	}
}

// AddSink 注册日志分发目标（在锁外调用，sink 不能阻塞）
func (h *BroadcastHandler) AddSink(sink func(LogEntry)) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.sinks = append(h.state.sinks, sink)
}

func (h *BroadcastHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *BroadcastHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.inner.Handle(ctx, r)

	message := r.Message
	var attrs []string
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
		return true
	})
	if len(attrs) > 0 {
		message = message + " " + strings.Join(attrs, " ")
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     strings.ToLower(r.Level.String()),
		Message:   message,
	}

	s := h.state
	s.mu.Lock()
	s.buf[(s.head+s.size)%s.maxSize] = entry
	if s.size < s.maxSize {
		s.size++
	} else {
		s.head = (s.head + 1) % s.maxSize
	}
	sinks := make([]func(LogEntry), len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.Unlock()

	// sink 在锁外调用
	for _, sink := range sinks {
		sink(entry)
	}

	return err
}

func (h *BroadcastHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &BroadcastHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

func (h *BroadcastHandler) WithGroup(name string) slog.Handler {
	return &BroadcastHandler{inner: h.inner.WithGroup(name), state: h.state}
}

// Recent 返回最近 n 条日志（时间升序）；n<=0 返回全部
func (h *BroadcastHandler) Recent(n int) []LogEntry {
	s := h.state
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > s.size {
		n = s.size
	}

	out := make([]LogEntry, 0, n)
	start := s.size - n
	for i := start; i < s.size; i++ {
		out = append(out, s.buf[(s.head+i)%s.maxSize])
	}
	return out
}
