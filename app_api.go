// app_api.go - 暴露给前端的 API 方法
// 所有方法通过 Wails 绑定自动生成前端调用代码

package main

import (
	"context"
	"fmt"
	"time"

	"orbit-luna/internal/behavior"
	"orbit-luna/internal/contexthub"
	"orbit-luna/internal/logging"
	"orbit-luna/internal/store"
)

// ============================================================
// 通知
// ============================================================

// ShowNotification 发送系统通知
// 成功返回空字符串，失败返回错误描述（前端据此提示）
func (a *App) ShowNotification(title, body string) string {
	if err := a.notifier.Show(title, body); err != nil {
		a.logger.Warn("⚠️ 系统通知发送失败", "title", title, "error", err)
		return err.Error()
	}

	// 系统通知成功后同步一份给前端的应用内通知视图
	a.emitNotification(title, body)
	return ""
}

// ============================================================
// 窗口控制
// ============================================================

// ToggleWindow 切换窗口显示/隐藏
func (a *App) ToggleWindow() {
	a.winCtl.Toggle()
}

// ShowWindow 显示窗口
func (a *App) ShowWindow() {
	a.winCtl.Show()
}

// HideWindow 隐藏窗口到托盘
func (a *App) HideWindow() {
	a.winCtl.Hide()
}

// OpenSettings 打开设置界面（settings_enabled=false 时为空操作）
func (a *App) OpenSettings() {
	a.winCtl.ShowSettings()
}

// GetWindowState 返回当前窗口可见性（"visible" / "hidden"）
func (a *App) GetWindowState() string {
	return string(a.winCtl.State())
}

// ============================================================
// 行为引擎
// ============================================================

// GetBehaviorState 返回当前行为状态的 UI 输出（表情/气泡）
func (a *App) GetBehaviorState() behavior.UIOutput {
	return a.engine.CurrentOutput()
}

// DismissSuggestion 用户关闭当前建议气泡
func (a *App) DismissSuggestion() bool {
	return a.engine.Dismiss()
}

// AcceptSuggestion 用户接受当前建议
func (a *App) AcceptSuggestion() bool {
	return a.engine.Accept()
}

// SetFocusMode 设置专注模式（开启后抑制所有建议弹出）
func (a *App) SetFocusMode(enabled bool) bool {
	return a.engine.SetFocusMode(enabled)
}

// GetBehaviorHistory 返回最近的状态迁移历史
func (a *App) GetBehaviorHistory() []behavior.Transition {
	return a.engine.FSM().History()
}

// ============================================================
// 上下文查询
// ============================================================

// GetContextSnapshot 返回当前上下文快照
func (a *App) GetContextSnapshot() contexthub.Snapshot {
	return a.hub.Snapshot()
}

// GetRecentEvents 返回最近的上下文事件（时间降序）
func (a *App) GetRecentEvents(limit int) []*store.EventRecord {
	if a.eventStore == nil {
		return nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := a.eventStore.RecentEvents(ctx, limit)
	if err != nil {
		a.logger.Warn("⚠️ 上下文事件查询失败", "error", err)
		return nil
	}
	return events
}

// GetRecentLogs 返回内存中最近的日志条目
func (a *App) GetRecentLogs(limit int) []logging.LogEntry {
	if a.logBuffer == nil {
		return nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return a.logBuffer.Recent(limit)
}

// ============================================================
// 系统状态
// ============================================================

// SystemStatus 应用运行状态汇总
type SystemStatus struct {
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	StartTime       string `json:"start_time"`
	WindowState     string `json:"window_state"`
	BehaviorState   string `json:"behavior_state"`
	TrayEnabled     bool   `json:"tray_enabled"`
	SettingsEnabled bool   `json:"settings_enabled"`
	ConfigPath      string `json:"config_path"`
	DBPath          string `json:"db_path"`
	SnapshotCount   int64  `json:"snapshot_count"`
	Running         bool   `json:"running"`
}

// GetSystemStatus 返回系统整体状态
func (a *App) GetSystemStatus() SystemStatus {
	a.mu.RLock()
	cfg := a.config
	running := a.isRunning
	a.mu.RUnlock()

	uptime := time.Since(a.startTime)
	status := SystemStatus{
		Version:       Version,
		Uptime:        formatDuration(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     a.startTime.Format("2006-01-02 15:04:05"),
		ConfigPath:    a.configPath,
		Running:       running,
	}

	if cfg != nil {
		status.TrayEnabled = cfg.Window.TrayEnabled
		status.SettingsEnabled = cfg.Window.SettingsEnabled
		status.DBPath = cfg.App.DBPath
	}
	if a.winCtl != nil {
		status.WindowState = string(a.winCtl.State())
	}
	if a.engine != nil {
		status.BehaviorState = string(a.engine.FSM().Current().State)
	}
	if a.hub != nil {
		status.SnapshotCount = a.hub.GetStats().SnapshotCount
	}

	return status
}

// formatDuration 格式化时长为易读形式
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d秒", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d分钟", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%d小时%d分钟", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%d天%d小时", days, hours)
}
