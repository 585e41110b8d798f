// app_events.go - 后端向前端推送的事件
// 所有事件名集中定义，前端按名订阅

package main

import (
	"orbit-luna/internal/behavior"
	"orbit-luna/internal/contexthub"
	"orbit-luna/internal/winctl"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// 事件名称常量
const (
	// EventBehaviorUpdate 行为状态更新（角色表情/气泡）
	EventBehaviorUpdate = "behavior:update"

	// EventContextUpdate 上下文快照变化（应用/空闲/文件活动）
	EventContextUpdate = "context:update"

	// EventWindowState 窗口可见性变化（visible/hidden）
	EventWindowState = "window:state"

	// EventNotification 应用内通知（与系统通知并行展示）
	EventNotification = "notification"

	// EventSystemStatus 系统状态（版本/运行时间/组件开关）
	EventSystemStatus = "system:status"

	// EventConfigReloaded 配置文件热重载完成
	EventConfigReloaded = "config:reloaded"
)

// NotificationPayload 应用内通知事件的数据
type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// emitBehaviorUpdate 推送行为状态给前端
func (a *App) emitBehaviorUpdate(output behavior.UIOutput) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventBehaviorUpdate, output)
}

// emitContextUpdate 推送上下文快照给前端
func (a *App) emitContextUpdate(snap contexthub.Snapshot) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventContextUpdate, snap)
}

// emitWindowState 推送窗口可见性给前端
func (a *App) emitWindowState(state winctl.State) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventWindowState, string(state))
}

// emitNotification 推送应用内通知给前端
func (a *App) emitNotification(title, body string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventNotification, NotificationPayload{
		Title: title,
		Body:  body,
	})
}

// emitSystemStatus 推送系统状态给前端
func (a *App) emitSystemStatus() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventSystemStatus, a.GetSystemStatus())
}

// emitConfigReloaded 通知前端配置已热重载
func (a *App) emitConfigReloaded() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, EventConfigReloaded, a.configPath)
}
