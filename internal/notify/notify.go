// Package notify 把通知请求转发到操作系统通知中心
package notify

import (
	"fmt"
	"os"
	"runtime"

	"github.com/gen2brain/beeep"
)

// Notifier 通知发送接口（单次尝试，不重试不排队）
type Notifier interface {
	Show(title, body string) error
}

// Func 函数适配器，便于测试注入
type Func func(title, body string) error

func (f Func) Show(title, body string) error { return f(title, body) }

type desktopNotifier struct {
	appName  string
	iconPath string
}

// New 创建桌面通知器；iconPath 可为空
func New(appName, iconPath string) Notifier {
	beeep.AppName = appName
	return &desktopNotifier{appName: appName, iconPath: iconPath}
}

// Show 发送一条系统通知，失败时返回含底层原因的错误
func (n *desktopNotifier) Show(title, body string) error {
	// Linux 无显示环境时 beeep 的报错不够直观，先行检查
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return fmt.Errorf("notification center unavailable: no display environment")
	}

	if err := beeep.Notify(title, body, n.iconPath); err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	return nil
}
