package monitor

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeProbe 可切换返回值的前台窗口探针
type fakeProbe struct {
	mu   sync.Mutex
	info WindowInfo
	err  error
}

func (p *fakeProbe) set(app, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info = WindowInfo{AppName: app, WindowTitle: title, Timestamp: time.Now()}
}

func (p *fakeProbe) probe() (WindowInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info, p.err
}

func TestWindowMonitorChangeOnlyCallback(t *testing.T) {
	probe := &fakeProbe{}
	probe.set("Code", "main.go")

	m := NewWindowMonitor(10*time.Millisecond, slog.Default())
	m.probeFunc = probe.probe

	changes := make(chan WindowInfo, 16)
	m.SetCallback(func(info WindowInfo) { changes <- info })

	if err := m.Start(); err != nil {
		t.Fatalf("启动监控失败: %v", err)
	}
	defer m.Stop()

	// 首次观察视为变化
	select {
	case info := <-changes:
		if info.AppName != "Code" {
			t.Fatalf("首个变化应为 Code，实际: %s", info.AppName)
		}
	case <-time.After(time.Second):
		t.Fatal("等待首个窗口变化超时")
	}

	// 窗口不变时不再回调
	select {
	case info := <-changes:
		t.Fatalf("窗口未变化不应回调，收到: %+v", info)
	case <-time.After(100 * time.Millisecond):
	}

	// 切换窗口触发回调
	probe.set("Browser", "docs")
	select {
	case info := <-changes:
		if info.AppName != "Browser" {
			t.Fatalf("变化应为 Browser，实际: %s", info.AppName)
		}
	case <-time.After(time.Second):
		t.Fatal("等待窗口切换回调超时")
	}

	last, ok := m.Last()
	if !ok || last.AppName != "Browser" {
		t.Fatalf("Last 应返回最近窗口，实际: %+v ok=%v", last, ok)
	}
}

func TestWindowMonitorTitleChangeTriggersCallback(t *testing.T) {
	probe := &fakeProbe{}
	probe.set("Code", "main.go")

	m := NewWindowMonitor(10*time.Millisecond, slog.Default())
	m.probeFunc = probe.probe

	changes := make(chan WindowInfo, 16)
	m.SetCallback(func(info WindowInfo) { changes <- info })

	if err := m.Start(); err != nil {
		t.Fatalf("启动监控失败: %v", err)
	}
	defer m.Stop()

	<-changes // 首次观察

	// 同应用换标题也算变化
	probe.set("Code", "app.go")
	select {
	case info := <-changes:
		if info.WindowTitle != "app.go" {
			t.Fatalf("标题变化回调不符: %+v", info)
		}
	case <-time.After(time.Second):
		t.Fatal("等待标题变化回调超时")
	}
}

func TestWindowMonitorUnsupportedPlatform(t *testing.T) {
	m := NewWindowMonitor(10*time.Millisecond, slog.Default())
	m.probeFunc = func() (WindowInfo, error) {
		return WindowInfo{}, ErrUnsupported
	}

	if err := m.Start(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("不支持的平台应返回 ErrUnsupported，实际: %v", err)
	}
}

func TestWindowMonitorStopIdempotent(t *testing.T) {
	probe := &fakeProbe{}
	probe.set("Code", "main.go")

	m := NewWindowMonitor(10*time.Millisecond, slog.Default())
	m.probeFunc = probe.probe

	if err := m.Start(); err != nil {
		t.Fatalf("启动监控失败: %v", err)
	}

	m.Stop()
	m.Stop() // 重复停止不应 panic
}
