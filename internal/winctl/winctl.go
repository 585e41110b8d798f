// Package winctl 管理主窗口的可见性状态机与初始定位
//
// Wails 没有窗口可见性查询，可见性由本控制器自己持有：
// 初始 Visible，关闭请求/托盘切换在 Visible 和 Hidden 之间迁移。
package winctl

import (
	"log/slog"
	"sync"
)

// State 主窗口可见性状态
type State string

const (
	StateVisible State = "visible"
	StateHidden  State = "hidden"
)

// Host 抽象窗口宿主能力（Wails runtime 或测试桩）。
// 控制器通过它下发命令，自身不触碰任何全局句柄。
type Host interface {
	ShowWindow() error
	HideWindow() error
	SetPosition(x, y int) error

	// WindowSize 返回主窗口外框尺寸。
	WindowSize() (w, h int, err error)

	// PrimaryScreen 返回主显示器尺寸。
	PrimaryScreen() (w, h int, err error)

	// OpenSettings 显示设置页并将窗口置前聚焦。
	OpenSettings() error

	// Quit 结束应用。
	Quit()
}

// Options 控制器参数
type Options struct {
	MarginX         int // 初始定位右边距（像素）
	MarginY         int // 初始定位下边距（像素）
	SettingsEnabled bool

	// OnStateChange 可见性变化回调（推送给前端/持久化）。
	OnStateChange func(State)
}

// Controller 窗口/托盘控制器
type Controller struct {
	mu     sync.Mutex
	host   Host
	logger *slog.Logger
	opts   Options
	state  State
}

// NewController 创建控制器，初始状态 Visible（窗口随应用启动显示）
func NewController(host Host, logger *slog.Logger, opts Options) *Controller {
	return &Controller{
		host:   host,
		logger: logger,
		opts:   opts,
		state:  StateVisible,
	}
}

// State 返回当前可见性状态
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// try 执行一个 best-effort 宿主调用：失败只记 debug 日志，不上抛不重试
func (c *Controller) try(op string, fn func() error) {
	if err := fn(); err != nil && c.logger != nil {
		c.logger.Debug("🪟 窗口操作失败（忽略）", "op", op, "error", err)
	}
}

// PositionBottomRight 把主窗口放到主显示器右下角（减去边距）
// 拿不到显示器或窗口尺寸时静默跳过
func (c *Controller) PositionBottomRight() {
	sw, sh, err := c.host.PrimaryScreen()
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("🖥️ 无法获取主显示器尺寸，跳过初始定位", "error", err)
		}
		return
	}

	ww, wh, err := c.host.WindowSize()
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("🪟 无法获取窗口尺寸，跳过初始定位", "error", err)
		}
		return
	}

	x := sw - ww - c.opts.MarginX
	y := sh - wh - c.opts.MarginY
	c.try("set_position", func() error { return c.host.SetPosition(x, y) })
}

// HandleCloseRequested 处理主窗口关闭请求：隐藏窗口并拦截关闭
// 返回 true 表示关闭被拦截（调用方必须阻止默认关闭流程）
func (c *Controller) HandleCloseRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hideLocked()
	return true
}

// Toggle 切换主窗口可见性（托盘"Show/Hide"菜单项）
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateVisible {
		c.hideLocked()
	} else {
		c.showLocked()
	}
}

// HandleTrayClick 托盘图标主键单击，与 Toggle 同义
func (c *Controller) HandleTrayClick() {
	c.Toggle()
}

// Show 显示主窗口
func (c *Controller) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showLocked()
}

// Hide 隐藏主窗口
func (c *Controller) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hideLocked()
}

// ShowSettings 显示设置页并聚焦窗口；与可见性状态机无关，
// settings capability 未启用时为空操作
func (c *Controller) ShowSettings() {
	if !c.opts.SettingsEnabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 设置页依附于主窗口，打开设置页意味着窗口必然可见
	c.try("open_settings", func() error { return c.host.OpenSettings() })
	c.setStateLocked(StateVisible)
}

// Quit 结束应用（托盘"Quit"菜单项），不经过隐藏/显示状态机
func (c *Controller) Quit() {
	c.host.Quit()
}

func (c *Controller) hideLocked() {
	c.try("hide", func() error { return c.host.HideWindow() })
	c.setStateLocked(StateHidden)
}

func (c *Controller) showLocked() {
	c.try("show", func() error { return c.host.ShowWindow() })
	c.setStateLocked(StateVisible)
}

func (c *Controller) setStateLocked(next State) {
	if c.state == next {
		return
	}
	c.state = next
	if c.opts.OnStateChange != nil {
		// 回调在锁内同步执行，订阅方不得回调回控制器
		c.opts.OnStateChange(next)
	}
}
