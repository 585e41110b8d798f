// app.go - Wails 应用核心结构
// 封装所有组件，提供生命周期管理

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"orbit-luna/config"
	"orbit-luna/internal/behavior"
	"orbit-luna/internal/contexthub"
	"orbit-luna/internal/logging"
	"orbit-luna/internal/monitor"
	"orbit-luna/internal/notify"
	"orbit-luna/internal/store"
	"orbit-luna/internal/tray"
	"orbit-luna/internal/winctl"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App 是 Wails 应用的核心结构
// 它封装了所有组件，并暴露方法给前端调用
type App struct {
	// Wails 上下文
	ctx context.Context

	// 核心组件
	config        *config.Config
	configWatcher *config.ConfigWatcher
	logger        *slog.Logger

	// 窗口/托盘
	wailsHost *winctl.WailsHost
	winCtl    *winctl.Controller
	trayCtl   tray.Controller

	// 存储
	db             *sql.DB
	eventStore     store.EventStore
	winStateStore  store.WindowStateStore

	// 通知
	notifier notify.Notifier

	// 上下文监控
	windowMon   *monitor.WindowMonitor
	idleDet     *monitor.IdleDetector
	fileWatcher *monitor.FileWatcher
	hub         *contexthub.Hub

	// 行为引擎
	engine *behavior.Engine

	// 应用状态
	startTime  time.Time
	configPath string

	// 并发控制
	mu        sync.RWMutex
	isRunning bool
	quitting  int32

	// 日志处理器（用于查询和广播）
	logHandler *logging.Handler
	logBuffer  *logging.BroadcastHandler
	logEmitter *logging.EventEmitter
}

// NewApp 创建新的应用实例
func NewApp() *App {
	return &App{
		startTime: time.Now(),
	}
}

// startup 在 Wails 应用启动时调用
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// 1. 加载配置
	a.loadConfig()

	// 2. 初始化日志
	a.setupLogger()

	a.logger.Info("🚀 ORBIT Luna 启动中...",
		"version", Version,
		"config_file", a.configPath)

	// 3. 初始化存储
	a.setupStore()

	// 4. 通知器
	a.notifier = notify.New("ORBIT Luna", "")

	// 5. 窗口控制器
	a.setupWindowController()

	// 6. 初始定位：优先恢复上次位置，否则主显示器右下角
	a.restoreOrPositionWindow()

	// 7. 行为引擎（先于监控启动，hub 回调依赖它）
	a.setupBehaviorEngine()

	// 8. 上下文监控 + 汇总
	a.setupMonitors()

	// 9. 系统托盘
	a.setupTray()

	// 10. 配置热重载
	a.setupConfigReload()

	a.mu.Lock()
	a.isRunning = true
	a.mu.Unlock()

	a.logger.Info("✅ ORBIT Luna 启动完成",
		"tray_enabled", a.config.Window.TrayEnabled,
		"db_path", a.config.App.DBPath)
}

// domReady 在前端 DOM 准备就绪时调用
func (a *App) domReady(ctx context.Context) {
	// 发送初始状态给前端
	a.emitSystemStatus()
	a.emitBehaviorUpdate(a.engine.CurrentOutput())
}

// beforeClose 在窗口关闭前调用，返回 true 阻止关闭
// 用户点关闭按钮时最小化到托盘，而不是退出
func (a *App) beforeClose(ctx context.Context) bool {
	if atomic.LoadInt32(&a.quitting) == 1 {
		// 托盘"Quit"已经在收口，放行默认关闭流程
		return false
	}

	suppressed := a.winCtl.HandleCloseRequested()
	if suppressed {
		a.saveWindowState()
	}
	return suppressed
}

// shutdown 在 Wails 应用关闭时调用
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	a.isRunning = false
	logger := a.logger
	a.mu.Unlock()

	if logger != nil {
		logger.Info("👋 ORBIT Luna 正在关闭...")
	}

	a.saveWindowState()

	if a.trayCtl != nil {
		a.trayCtl.Stop()
	}
	if a.engine != nil {
		a.engine.Stop()
	}
	if a.hub != nil {
		a.hub.Stop()
	}
	if a.windowMon != nil {
		a.windowMon.Stop()
	}
	if a.fileWatcher != nil {
		a.fileWatcher.Stop()
	}
	if a.configWatcher != nil {
		a.configWatcher.Close()
	}
	if a.logEmitter != nil {
		a.logEmitter.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.logHandler != nil {
		a.logHandler.Close()
	}
}

// Quit 主动退出应用（托盘"Quit"菜单项和前端退出按钮共用）
func (a *App) Quit() {
	if !atomic.CompareAndSwapInt32(&a.quitting, 0, 1) {
		return
	}

	// Quit 可能触发同步回调，避免阻塞调用方（托盘 goroutine / UI 线程）
	go runtime.Quit(a.ctx)
}

// ============================================================
// 组件初始化
// ============================================================

func (a *App) loadConfig() {
	path := a.configPath
	if path == "" {
		path = filepath.Join(config.AppDataDir(), "config.yaml")
		a.configPath = path
	}

	// 首次启动：把内嵌默认配置写到数据目录
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			os.WriteFile(path, defaultConfigContent, 0644)
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		// 配置损坏时退回内嵌默认配置，保证应用能起来
		cfg, err = config.ParseConfig(defaultConfigContent)
		if err != nil {
			panic("embedded default config is invalid: " + err.Error())
		}
	}

	a.config = cfg
}

func (a *App) setupLogger() {
	handler, err := logging.NewHandler(logging.Options{
		Level:       a.config.Logging.Level,
		FileEnabled: a.config.Logging.FileEnabled,
		FilePath:    a.config.Logging.FilePath,
		MaxFileSize: a.config.Logging.MaxFileSize,
		MaxFiles:    a.config.Logging.MaxFiles,
		Compress:    a.config.Logging.CompressRotated,
	})
	if err != nil {
		handler, _ = logging.NewHandler(logging.Options{Level: "info"})
	}

	a.logHandler = handler
	a.logBuffer = logging.NewBroadcastHandler(handler, 1000)

	a.logEmitter = logging.NewEventEmitter()
	a.logBuffer.AddSink(a.logEmitter.Emit)
	a.logEmitter.Start(a.ctx)

	a.logger = slog.New(a.logBuffer)
	slog.SetDefault(a.logger)
}

func (a *App) setupStore() {
	db, err := store.Open(a.config.App.DBPath)
	if err != nil {
		a.logger.Error("❌ 数据库打开失败，上下文持久化被禁用", "error", err, "path", a.config.App.DBPath)
		return
	}
	a.db = db

	eventStore := store.NewSQLiteEventStore(db)
	if err := eventStore.InitSchema(a.ctx); err != nil {
		a.logger.Error("❌ 事件表初始化失败", "error", err)
	} else {
		a.eventStore = eventStore
	}

	winStateStore := store.NewSQLiteWindowStateStore(db)
	if err := winStateStore.InitSchema(a.ctx); err != nil {
		a.logger.Error("❌ 窗口状态表初始化失败", "error", err)
	} else {
		a.winStateStore = winStateStore
	}
}

func (a *App) setupWindowController() {
	a.wailsHost = winctl.NewWailsHost(a.ctx)
	a.winCtl = winctl.NewController(a.wailsHost, a.logger, winctl.Options{
		MarginX:         a.config.Window.MarginX,
		MarginY:         a.config.Window.MarginY,
		SettingsEnabled: a.config.Window.SettingsEnabled,
		OnStateChange: func(state winctl.State) {
			a.emitWindowState(state)
		},
	})
}

func (a *App) restoreOrPositionWindow() {
	if a.config.Window.RestoreState && a.winStateStore != nil {
		state, err := a.winStateStore.Load(a.ctx)
		if err == nil {
			a.logger.Debug("🪟 恢复上次窗口位置", "x", state.X, "y", state.Y)
			if err := a.wailsHost.SetPosition(state.X, state.Y); err == nil {
				return
			}
		} else if !errors.Is(err, store.ErrNoWindowState) {
			a.logger.Warn("⚠️ 窗口状态读取失败", "error", err)
		}
	}

	a.winCtl.PositionBottomRight()
}

func (a *App) setupMonitors() {
	cfg := a.config.Monitors

	// 前台窗口监控（平台不支持时静默禁用）
	windowMon := monitor.NewWindowMonitor(cfg.WindowPollInterval, a.logger)
	windowMon.SetCallback(func(info monitor.WindowInfo) {
		a.recordEvent("window_change", info.AppName, info.WindowTitle, "")
	})
	if err := windowMon.Start(); err != nil {
		if errors.Is(err, monitor.ErrUnsupported) {
			a.logger.Info("ℹ️ 当前平台不支持前台窗口监控")
		} else {
			a.logger.Warn("⚠️ 前台窗口监控启动失败", "error", err)
		}
	} else {
		a.windowMon = windowMon
	}

	a.idleDet = monitor.NewIdleDetector()

	// 文件监控（未配置目录时禁用）
	if cfg.WatchPath != "" {
		fw := monitor.NewFileWatcher(cfg.WatchPath, cfg.FileEventHistory, a.logger)
		fw.SetCallback(func(event monitor.FileEvent) {
			a.recordEvent("file_activity", "", "", event.Type+" "+event.Path)
		})
		if err := fw.Start(); err != nil {
			a.logger.Warn("⚠️ 文件监控启动失败", "error", err, "path", cfg.WatchPath)
		} else {
			a.fileWatcher = fw
		}
	}

	// 数据源可能因平台/配置缺席，传接口 nil 而不是 typed nil
	var windowSource contexthub.WindowSource
	if a.windowMon != nil {
		windowSource = a.windowMon
	}
	var fileSource contexthub.FileSource
	if a.fileWatcher != nil {
		fileSource = a.fileWatcher
	}

	a.hub = contexthub.New(windowSource, a.idleDet, fileSource, a.eventStore, a.logger)
	a.hub.OnChange(func(snap contexthub.Snapshot) {
		a.engine.HandleSnapshot(snap)
		a.emitContextUpdate(snap)
	})
	a.hub.Start(cfg.SnapshotInterval)
	a.hub.CleanupOldData(a.ctx, cfg.RetentionDays)
}

func (a *App) setupBehaviorEngine() {
	cfg := a.config.Behavior
	a.engine = behavior.NewEngine(behavior.EngineConfig{
		MinConfidence: cfg.MinConfidence,
		Cooldowns: behavior.Cooldowns{
			PerIntent: cfg.PerIntentCooldown,
			Global:    cfg.GlobalCooldown,
			Dismiss:   cfg.DismissCooldown,
		},
		Timeouts: behavior.Timeouts{
			Observing:  cfg.ObservingTimeout,
			Suggesting: cfg.SuggestingTimeout,
			Executing:  cfg.ExecutingTimeout,
			Suppressed: cfg.SuppressedCooldown,
		},
		HistoryLimit: cfg.HistoryLimit,
	}, a.logger)

	a.engine.FSM().OnChange(func(data behavior.StateData) {
		a.emitBehaviorUpdate(behavior.OutputFor(data))
	})

	a.engine.Start()
}

func (a *App) setupTray() {
	if !a.config.Window.TrayEnabled {
		a.logger.Info("ℹ️ 系统托盘已禁用（纯窗口形态）")
		return
	}

	trayCtl, err := tray.Start(a.ctx, tray.Options{
		Icon:            icon,
		Tooltip:         a.config.Window.Tooltip,
		SettingsEnabled: a.config.Window.SettingsEnabled,
		OnToggle:        a.winCtl.Toggle,
		OnSettings:      a.winCtl.ShowSettings,
		OnQuit:          a.Quit,
	})
	if err != nil {
		a.logger.Warn("⚠️ 系统托盘启动失败", "error", err)
		return
	}
	a.trayCtl = trayCtl
}

func (a *App) setupConfigReload() {
	watcher, err := config.NewConfigWatcher(a.configPath, a.logger)
	if err != nil {
		a.logger.Warn("⚠️ 配置热重载不可用", "error", err)
		return
	}

	watcher.OnConfigChange(func(cfg *config.Config) {
		a.mu.Lock()
		a.config = cfg
		a.mu.Unlock()
		// 托盘/监控等组件的变更重启后生效，这里只刷新状态展示
		a.emitConfigReloaded()
		a.emitSystemStatus()
	})

	a.configWatcher = watcher
}

// ============================================================
// 辅助
// ============================================================

// recordEvent 写入一条上下文事件（存储不可用时丢弃）
func (a *App) recordEvent(eventType, appName, windowTitle, details string) {
	if a.eventStore == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := a.eventStore.InsertEvent(ctx, &store.EventRecord{
		EventType:   eventType,
		AppName:     appName,
		WindowTitle: windowTitle,
		Details:     details,
	})
	if err != nil {
		a.logger.Debug("⚠️ 上下文事件写入失败", "error", err)
	}
}

// saveWindowState 持久化窗口位置与可见性（best-effort）
func (a *App) saveWindowState() {
	if a.winStateStore == nil || a.wailsHost == nil {
		return
	}

	x, y, err := a.wailsHost.WindowPosition()
	if err != nil {
		return
	}
	w, h, err := a.wailsHost.WindowSize()
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	state := &store.WindowState{
		X: x, Y: y, Width: w, Height: h,
		Visible: a.winCtl.State() == winctl.StateVisible,
	}
	if err := a.winStateStore.Save(ctx, state); err != nil {
		a.logger.Debug("⚠️ 窗口状态保存失败", "error", err)
	}
}
