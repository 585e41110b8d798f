//go:build !stub
// +build !stub

package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"
)

type systrayController struct {
	opts      Options
	ctx       context.Context
	quitCh    chan struct{}
	once      sync.Once
	running   bool
	runningMu sync.Mutex
}

func (c *systrayController) Stop() {
	c.once.Do(func() {
		c.runningMu.Lock()
		if c.running {
			systray.Quit()
			c.running = false
		}
		c.runningMu.Unlock()
		close(c.quitCh)
	})
}

func start(ctx context.Context, opts Options) (Controller, error) {
	ctrl := &systrayController{
		opts:   opts,
		ctx:    ctx,
		quitCh: make(chan struct{}),
	}

	// systray.Run 会阻塞，在单独的 goroutine 中运行
	go func() {
		ctrl.runningMu.Lock()
		ctrl.running = true
		ctrl.runningMu.Unlock()

		systray.Run(
			func() { ctrl.onReady() },
			func() { ctrl.onExit() },
		)
	}()

	return ctrl, nil
}

func (c *systrayController) onReady() {
	if len(c.opts.Icon) > 0 {
		systray.SetIcon(c.opts.Icon)
	}

	if c.opts.Tooltip != "" {
		systray.SetTooltip(c.opts.Tooltip)
	} else {
		systray.SetTooltip("ORBIT Luna")
	}

	// 菜单项标识: toggle / settings / quit
	mToggle := systray.AddMenuItem("Show/Hide Luna", "Toggle the Luna window")

	var settingsCh chan struct{}
	if c.opts.SettingsEnabled {
		mSettings := systray.AddMenuItem("Settings", "Open Luna settings")
		settingsCh = mSettings.ClickedCh
	}

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit ORBIT Luna")

	// 监听菜单点击
	go func() {
		for {
			select {
			case <-c.quitCh:
				return
			case <-mToggle.ClickedCh:
				if c.opts.OnToggle != nil {
					c.opts.OnToggle()
				}
			case <-settingsCh:
				if c.opts.OnSettings != nil {
					c.opts.OnSettings()
				}
			case <-mQuit.ClickedCh:
				if c.opts.OnQuit != nil {
					c.opts.OnQuit()
				}
			}
		}
	}()
}

func (c *systrayController) onExit() {
	// 清理
}
