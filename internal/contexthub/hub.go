// Package contexthub 把各采集器的数据汇总为统一的上下文快照
package contexthub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"orbit-luna/internal/monitor"
	"orbit-luna/internal/store"
)

// WindowSource 前台窗口数据源
type WindowSource interface {
	Last() (monitor.WindowInfo, bool)
}

// IdleSource 空闲时间数据源
type IdleSource interface {
	State() (monitor.IdleState, int, error)
}

// FileSource 文件活动数据源
type FileSource interface {
	RecentEvents(limit int) []monitor.FileEvent
	Summary() monitor.FileSummary
}

// Snapshot 某一时刻的上下文快照
type Snapshot struct {
	Timestamp   time.Time           `json:"timestamp"`
	ActiveApp   string              `json:"active_app"`
	WindowTitle string              `json:"window_title"`
	IdleSeconds int                 `json:"idle_seconds"`
	IdleState   monitor.IdleState   `json:"idle_state"`
	RecentFiles []monitor.FileEvent `json:"recent_files"`
	FileSummary monitor.FileSummary `json:"file_summary"`
}

// Stats 运行统计
type Stats struct {
	SnapshotCount int64     `json:"snapshot_count"`
	StartedAt     time.Time `json:"started_at"`
	Running       bool      `json:"running"`
}

// Hub 上下文汇总器：周期采样、持久化快照、变化回调
// 各数据源均可为 nil（对应采集器被禁用或平台不支持），快照相应字段留空
type Hub struct {
	windowSource WindowSource
	idleSource   IdleSource
	fileSource   FileSource
	eventStore   store.EventStore
	logger       *slog.Logger

	mu        sync.RWMutex
	onChange  func(Snapshot)
	last      Snapshot
	hasLast   bool
	count     int64
	startedAt time.Time
	running   bool
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// New 创建上下文汇总器；eventStore 为 nil 时不持久化
func New(windowSource WindowSource, idleSource IdleSource, fileSource FileSource,
	eventStore store.EventStore, logger *slog.Logger) *Hub {
	return &Hub{
		windowSource: windowSource,
		idleSource:   idleSource,
		fileSource:   fileSource,
		eventStore:   eventStore,
		logger:       logger,
	}
}

// OnChange 注册快照变化回调（活动应用/标题或空闲状态变化时触发）
func (h *Hub) OnChange(callback func(Snapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = callback
}

// Snapshot 采集一份当前上下文快照（逐项 best-effort）
func (h *Hub) Snapshot() Snapshot {
	snap := Snapshot{Timestamp: time.Now()}

	if h.windowSource != nil {
		if info, ok := h.windowSource.Last(); ok {
			snap.ActiveApp = info.AppName
			snap.WindowTitle = info.WindowTitle
		}
	}

	if h.idleSource != nil {
		if state, seconds, err := h.idleSource.State(); err == nil {
			snap.IdleState = state
			snap.IdleSeconds = seconds
		}
	}

	if h.fileSource != nil {
		snap.RecentFiles = h.fileSource.RecentEvents(10)
		snap.FileSummary = h.fileSource.Summary()
	}

	return snap
}

// Start 启动周期采样
func (h *Hub) Start(interval time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}

	h.running = true
	h.startedAt = time.Now()
	h.stopChan = make(chan struct{})
	h.doneChan = make(chan struct{})

	go h.captureLoop(interval, h.stopChan, h.doneChan)

	h.logger.Info("🔭 上下文汇总已启动", "interval", interval)
}

// Stop 停止周期采样
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	stopChan := h.stopChan
	doneChan := h.doneChan
	h.mu.Unlock()

	close(stopChan)
	<-doneChan
}

// GetStats 返回运行统计
func (h *Hub) GetStats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		SnapshotCount: h.count,
		StartedAt:     h.startedAt,
		Running:       h.running,
	}
}

// CleanupOldData 清理早于 days 天的历史事件与快照
func (h *Hub) CleanupOldData(ctx context.Context, days int) {
	if h.eventStore == nil || days <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := h.eventStore.Cleanup(ctx, cutoff)
	if err != nil {
		h.logger.Warn("⚠️ 历史数据清理失败", "error", err)
		return
	}
	if deleted > 0 {
		h.logger.Info("🧹 历史数据已清理", "deleted", deleted, "cutoff_days", days)
	}
}

func (h *Hub) captureLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.capture()
		}
	}
}

func (h *Hub) capture() {
	snap := h.Snapshot()

	h.mu.Lock()
	h.count++
	changed := !h.hasLast ||
		snap.ActiveApp != h.last.ActiveApp ||
		snap.WindowTitle != h.last.WindowTitle ||
		snap.IdleState != h.last.IdleState
	h.last = snap
	h.hasLast = true
	onChange := h.onChange
	h.mu.Unlock()

	if h.eventStore != nil {
		if data, err := json.Marshal(snap); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := h.eventStore.SaveSnapshot(ctx, string(data)); err != nil {
				h.logger.Warn("⚠️ 快照保存失败", "error", err)
			}
			cancel()
		}
	}

	if changed && onChange != nil {
		onChange(snap)
	}
}
