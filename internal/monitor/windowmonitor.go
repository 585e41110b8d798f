package monitor

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// WindowMonitor 轮询前台窗口，只在应用或标题变化时回调
type WindowMonitor struct {
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	last      WindowInfo
	hasLast   bool
	callback  func(WindowInfo)
	stopChan  chan struct{}
	doneChan  chan struct{}
	running   bool
	probeFunc func() (WindowInfo, error) // 测试注入
}

// NewWindowMonitor 创建前台窗口监控器
func NewWindowMonitor(interval time.Duration, logger *slog.Logger) *WindowMonitor {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &WindowMonitor{
		interval:  interval,
		logger:    logger,
		probeFunc: activeWindow,
	}
}

// SetCallback 注册窗口变化回调（必须在 Start 之前调用）
func (m *WindowMonitor) SetCallback(callback func(WindowInfo)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = callback
}

// Current 返回当前前台窗口信息
func (m *WindowMonitor) Current() (WindowInfo, error) {
	return m.probeFunc()
}

// Last 返回最近一次观察到的前台窗口
func (m *WindowMonitor) Last() (WindowInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.hasLast
}

// Start 启动轮询；平台不支持时返回 ErrUnsupported
func (m *WindowMonitor) Start() error {
	if _, err := m.probeFunc(); errors.Is(err, ErrUnsupported) {
		return ErrUnsupported
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	m.running = true

	go m.pollLoop(m.stopChan, m.doneChan)

	m.logger.Info("🪟 前台窗口监控已启动", "interval", m.interval)
	return nil
}

// Stop 停止轮询
func (m *WindowMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopChan := m.stopChan
	doneChan := m.doneChan
	m.mu.Unlock()

	close(stopChan)
	<-doneChan
}

func (m *WindowMonitor) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *WindowMonitor) poll() {
	info, err := m.probeFunc()
	if err != nil {
		return // 前台窗口暂时不可读，跳过本轮
	}

	m.mu.Lock()
	changed := !m.hasLast || info.AppName != m.last.AppName || info.WindowTitle != m.last.WindowTitle
	if changed {
		m.last = info
		m.hasLast = true
	}
	callback := m.callback
	m.mu.Unlock()

	if changed && callback != nil {
		callback(info)
	}
}
