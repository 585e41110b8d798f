// Package tray 提供系统托盘图标与菜单（平台相关实现）
package tray

import "context"

// 菜单项稳定标识（日志与事件里使用）
const (
	MenuIDToggle   = "toggle"
	MenuIDSettings = "settings"
	MenuIDQuit     = "quit"
)

// Controller 表示托盘控制器（用于停止托盘）。
type Controller interface {
	Stop()
}

// Options 托盘启动参数。
type Options struct {
	// Icon 托盘图标内容（Windows 推荐 .ico 字节；其它平台可忽略）。
	Icon []byte

	// Tooltip 托盘悬浮提示文本。
	Tooltip string

	// SettingsEnabled 是否显示"Settings"菜单项。
	SettingsEnabled bool

	// OnToggle 用户希望切换主窗口可见性时触发
	// （"Show/Hide"菜单项；支持的平台上也含图标左键单击）。
	OnToggle func()

	// OnSettings 用户选择"Settings"时触发。
	OnSettings func()

	// OnQuit 用户选择"Quit"时触发。
	OnQuit func()
}

// Start 启动系统托盘（平台相关实现）。
func Start(ctx context.Context, opts Options) (Controller, error) {
	return start(ctx, opts)
}
