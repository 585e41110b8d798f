package winctl

import (
	"errors"
	"testing"
)

// fakeHost 记录所有宿主调用的测试桩
type fakeHost struct {
	showCalls     int
	hideCalls     int
	settingsCalls int
	quitCalls     int

	positions [][2]int

	screenW, screenH int
	screenErr        error
	windowW, windowH int
	windowErr        error

	showErr     error
	hideErr     error
	positionErr error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		screenW: 1920, screenH: 1080,
		windowW: 400, windowH: 600,
	}
}

func (h *fakeHost) ShowWindow() error {
	h.showCalls++
	return h.showErr
}

func (h *fakeHost) HideWindow() error {
	h.hideCalls++
	return h.hideErr
}

func (h *fakeHost) SetPosition(x, y int) error {
	h.positions = append(h.positions, [2]int{x, y})
	return h.positionErr
}

func (h *fakeHost) WindowSize() (int, int, error) {
	return h.windowW, h.windowH, h.windowErr
}

func (h *fakeHost) PrimaryScreen() (int, int, error) {
	return h.screenW, h.screenH, h.screenErr
}

func (h *fakeHost) OpenSettings() error {
	h.settingsCalls++
	return nil
}

func (h *fakeHost) Quit() {
	h.quitCalls++
}

func newTestController(t *testing.T, host Host, opts Options) *Controller {
	t.Helper()
	if opts.MarginX == 0 {
		opts.MarginX = 20
	}
	if opts.MarginY == 0 {
		opts.MarginY = 60
	}
	return NewController(host, nil, opts)
}

func TestInitialStateVisible(t *testing.T) {
	c := newTestController(t, newFakeHost(), Options{})

	if c.State() != StateVisible {
		t.Fatalf("初始状态应为 visible，实际: %s", c.State())
	}
}

func TestCloseRequestedAlwaysHidesAndSuppresses(t *testing.T) {
	host := newFakeHost()
	c := newTestController(t, host, Options{})

	// 可见时关闭
	if !c.HandleCloseRequested() {
		t.Fatal("关闭请求应被拦截")
	}
	if c.State() != StateHidden {
		t.Fatalf("关闭后状态应为 hidden，实际: %s", c.State())
	}

	// 已隐藏时再次关闭仍然拦截（状态保持 hidden）
	if !c.HandleCloseRequested() {
		t.Fatal("已隐藏时关闭请求也应被拦截")
	}
	if c.State() != StateHidden {
		t.Fatalf("重复关闭后状态应保持 hidden，实际: %s", c.State())
	}
	if host.hideCalls != 2 {
		t.Fatalf("每次关闭请求都应下发隐藏命令，实际次数: %d", host.hideCalls)
	}
}

func TestToggleAlternates(t *testing.T) {
	host := newFakeHost()
	c := newTestController(t, host, Options{})

	c.Toggle()
	if c.State() != StateHidden {
		t.Fatalf("第一次切换后应为 hidden，实际: %s", c.State())
	}

	c.Toggle()
	if c.State() != StateVisible {
		t.Fatalf("第二次切换后应为 visible，实际: %s", c.State())
	}

	c.Toggle()
	if c.State() != StateHidden {
		t.Fatalf("第三次切换后应为 hidden，实际: %s", c.State())
	}

	if host.hideCalls != 2 || host.showCalls != 1 {
		t.Fatalf("宿主调用次数不符: hide=%d show=%d", host.hideCalls, host.showCalls)
	}
}

func TestTrayClickSameAsToggle(t *testing.T) {
	c := newTestController(t, newFakeHost(), Options{})

	c.HandleTrayClick()
	if c.State() != StateHidden {
		t.Fatalf("托盘单击后应为 hidden，实际: %s", c.State())
	}

	c.HandleTrayClick()
	if c.State() != StateVisible {
		t.Fatalf("再次托盘单击后应为 visible，实际: %s", c.State())
	}
}

func TestPositionBottomRight(t *testing.T) {
	host := newFakeHost() // 1920x1080 屏幕, 400x600 窗口
	c := newTestController(t, host, Options{})

	c.PositionBottomRight()

	if len(host.positions) != 1 {
		t.Fatalf("应下发一次定位命令，实际: %d", len(host.positions))
	}
	x, y := host.positions[0][0], host.positions[0][1]
	if x != 1920-400-20 {
		t.Errorf("x 坐标错误: 期望 %d 实际 %d", 1920-400-20, x)
	}
	if y != 1080-600-60 {
		t.Errorf("y 坐标错误: 期望 %d 实际 %d", 1080-600-60, y)
	}
}

func TestPositionSkippedWhenScreenUnavailable(t *testing.T) {
	host := newFakeHost()
	host.screenErr = errors.New("no screens")
	c := newTestController(t, host, Options{})

	c.PositionBottomRight()

	if len(host.positions) != 0 {
		t.Fatalf("无显示器信息时不应下发定位命令，实际: %d", len(host.positions))
	}
}

func TestPositionSkippedWhenWindowSizeUnavailable(t *testing.T) {
	host := newFakeHost()
	host.windowErr = errors.New("window not ready")
	c := newTestController(t, host, Options{})

	c.PositionBottomRight()

	if len(host.positions) != 0 {
		t.Fatalf("无窗口尺寸时不应下发定位命令，实际: %d", len(host.positions))
	}
}

func TestShowSettingsAlwaysVisible(t *testing.T) {
	host := newFakeHost()
	c := newTestController(t, host, Options{SettingsEnabled: true})

	// 窗口隐藏时打开设置
	c.Hide()
	c.ShowSettings()

	if host.settingsCalls != 1 {
		t.Fatalf("应下发一次打开设置命令，实际: %d", host.settingsCalls)
	}
	if c.State() != StateVisible {
		t.Fatalf("打开设置后应为 visible，实际: %s", c.State())
	}

	// 窗口已可见时打开设置同样生效
	c.ShowSettings()
	if host.settingsCalls != 2 {
		t.Fatalf("可见状态下打开设置也应下发命令，实际: %d", host.settingsCalls)
	}
	if c.State() != StateVisible {
		t.Fatalf("状态应保持 visible，实际: %s", c.State())
	}
}

func TestShowSettingsNoopWhenDisabled(t *testing.T) {
	host := newFakeHost()
	c := newTestController(t, host, Options{SettingsEnabled: false})

	c.ShowSettings()

	if host.settingsCalls != 0 {
		t.Fatalf("settings 未启用时不应下发命令，实际: %d", host.settingsCalls)
	}
	if c.State() != StateVisible {
		t.Fatalf("状态不应变化，实际: %s", c.State())
	}
}

func TestQuitBypassesStateMachine(t *testing.T) {
	host := newFakeHost()
	var changes []State
	c := newTestController(t, host, Options{
		OnStateChange: func(s State) { changes = append(changes, s) },
	})

	c.Quit()

	if host.quitCalls != 1 {
		t.Fatalf("应下发一次退出命令，实际: %d", host.quitCalls)
	}
	if len(changes) != 0 {
		t.Fatalf("退出不应触发可见性变化，实际: %v", changes)
	}
}

func TestOnStateChangeFiresOnlyOnChange(t *testing.T) {
	host := newFakeHost()
	var changes []State
	c := newTestController(t, host, Options{
		OnStateChange: func(s State) { changes = append(changes, s) },
	})

	c.Show() // 已经 visible，不应触发
	c.Hide()
	c.Hide() // 已经 hidden，不应触发
	c.Show()

	want := []State{StateHidden, StateVisible}
	if len(changes) != len(want) {
		t.Fatalf("状态变化次数不符: 期望 %v 实际 %v", want, changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("第 %d 次变化不符: 期望 %s 实际 %s", i, want[i], changes[i])
		}
	}
}

func TestHostErrorsAreIgnored(t *testing.T) {
	host := newFakeHost()
	host.hideErr = errors.New("window handle lost")
	host.showErr = errors.New("window handle lost")
	c := newTestController(t, host, Options{})

	// 宿主调用失败时状态机照常迁移（best-effort 语义）
	c.Toggle()
	if c.State() != StateHidden {
		t.Fatalf("宿主失败不应阻止状态迁移，实际: %s", c.State())
	}
	c.Toggle()
	if c.State() != StateVisible {
		t.Fatalf("宿主失败不应阻止状态迁移，实际: %s", c.State())
	}
}
