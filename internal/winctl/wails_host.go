package winctl

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventSettingsOpen 通知前端切换到设置视图
const EventSettingsOpen = "settings:open"

// WailsHost 基于 Wails runtime 的 Host 实现
// Wails runtime 在上下文无效时会 panic，这里统一转换为 error 交给
// 控制器的 best-effort 策略处理
type WailsHost struct {
	ctx context.Context
}

// NewWailsHost 创建 Wails 宿主适配器；ctx 必须是 Wails 应用上下文
func NewWailsHost(ctx context.Context) *WailsHost {
	return &WailsHost{ctx: ctx}
}

func (h *WailsHost) guard(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", op, r)
		}
	}()
	fn()
	return nil
}

func (h *WailsHost) ShowWindow() error {
	return h.guard("window show", func() { runtime.WindowShow(h.ctx) })
}

func (h *WailsHost) HideWindow() error {
	return h.guard("window hide", func() { runtime.WindowHide(h.ctx) })
}

func (h *WailsHost) SetPosition(x, y int) error {
	return h.guard("window set position", func() { runtime.WindowSetPosition(h.ctx, x, y) })
}

func (h *WailsHost) WindowSize() (int, int, error) {
	var w, height int
	err := h.guard("window get size", func() { w, height = runtime.WindowGetSize(h.ctx) })
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("window size unavailable")
	}
	return w, height, nil
}

func (h *WailsHost) PrimaryScreen() (int, int, error) {
	screens, err := runtime.ScreenGetAll(h.ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("screen query failed: %w", err)
	}

	for _, s := range screens {
		if s.IsPrimary {
			return s.Width, s.Height, nil
		}
	}
	// 个别桌面环境不标记主显示器，退回当前显示器
	for _, s := range screens {
		if s.IsCurrent {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("no primary screen reported")
}

// OpenSettings 显示并置前窗口，同时通知前端切换到设置视图
func (h *WailsHost) OpenSettings() error {
	return h.guard("open settings", func() {
		runtime.WindowShow(h.ctx)
		runtime.WindowUnminimise(h.ctx)
		runtime.EventsEmit(h.ctx, EventSettingsOpen)
	})
}

// WindowPosition 返回主窗口当前位置（持久化窗口状态用）
func (h *WailsHost) WindowPosition() (int, int, error) {
	var x, y int
	err := h.guard("window get position", func() { x, y = runtime.WindowGetPosition(h.ctx) })
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (h *WailsHost) Quit() {
	runtime.Quit(h.ctx)
}
