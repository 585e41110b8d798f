package monitor

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher 递归监控一个目录的文件变更，维护最近事件环形历史
type FileWatcher struct {
	path       string
	maxHistory int
	logger     *slog.Logger

	mu       sync.RWMutex
	events   []FileEvent
	counts   map[string]int
	callback func(FileEvent)

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	doneChan chan struct{}
	running  bool
}

// NewFileWatcher 创建文件监控器；maxHistory 为保留的最近事件条数
func NewFileWatcher(path string, maxHistory int, logger *slog.Logger) *FileWatcher {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &FileWatcher{
		path:       path,
		maxHistory: maxHistory,
		logger:     logger,
		counts:     make(map[string]int),
	}
}

// SetCallback 注册变更回调（必须在 Start 之前调用）
func (w *FileWatcher) SetCallback(callback func(FileEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
}

// Start 开始递归监控
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// 递归添加子目录（fsnotify 不支持递归监控）
	count := 0
	err = filepath.WalkDir(w.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // 不可读的目录直接跳过
		}
		if !d.IsDir() {
			return nil
		}
		if isHiddenDir(d.Name()) && path != w.path {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err == nil {
			count++
		}
		return nil
	})
	if err != nil || count == 0 {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.watcher = watcher
	w.stopChan = make(chan struct{})
	w.doneChan = make(chan struct{})
	w.running = true

	go w.watchLoop(watcher, w.stopChan, w.doneChan)

	w.logger.Info("📁 文件监控已启动", "path", w.path, "dirs", count)
	return nil
}

// Stop 停止监控
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopChan := w.stopChan
	doneChan := w.doneChan
	watcher := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	close(stopChan)
	watcher.Close()
	<-doneChan
}

// IsWatching 返回是否在监控中
func (w *FileWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *FileWatcher) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if shouldIgnore(event.Name) {
				continue
			}

			eventType := ""
			switch {
			case event.Has(fsnotify.Create):
				eventType = "created"
				// 新建目录也纳入监控
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHiddenDir(filepath.Base(event.Name)) {
					watcher.Add(event.Name)
				}
			case event.Has(fsnotify.Write):
				eventType = "modified"
			case event.Has(fsnotify.Remove):
				eventType = "deleted"
			case event.Has(fsnotify.Rename):
				eventType = "renamed"
			default:
				continue
			}

			w.record(FileEvent{
				Type:      eventType,
				Path:      event.Name,
				Timestamp: time.Now(),
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("⚠️ 文件监控错误", "error", err)
		}
	}
}

func (w *FileWatcher) record(event FileEvent) {
	w.mu.Lock()
	w.events = append(w.events, event)
	if len(w.events) > w.maxHistory {
		w.events = w.events[len(w.events)-w.maxHistory:]
	}
	w.counts[event.Type]++
	callback := w.callback
	w.mu.Unlock()

	if callback != nil {
		callback(event)
	}
}

// RecentEvents 返回最近 limit 条文件事件（时间升序）
func (w *FileWatcher) RecentEvents(limit int) []FileEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if limit <= 0 || limit > len(w.events) {
		limit = len(w.events)
	}

	out := make([]FileEvent, limit)
	copy(out, w.events[len(w.events)-limit:])
	return out
}

// Summary 返回自启动以来的文件活动汇总
func (w *FileWatcher) Summary() FileSummary {
	w.mu.RLock()
	defer w.mu.RUnlock()

	summary := FileSummary{ByType: make(map[string]int, len(w.counts))}
	for t, n := range w.counts {
		summary.ByType[t] = n
		summary.Total += n
	}
	return summary
}

func isHiddenDir(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// shouldIgnore 过滤编辑器临时文件与隐藏文件的噪声
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, suffix := range []string{"~", ".tmp", ".swp", ".swx", ".part"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
