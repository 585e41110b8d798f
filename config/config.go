// Package config 提供应用配置加载、默认值与热重载
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Window   WindowConfig   `yaml:"window"`
	Monitors MonitorsConfig `yaml:"monitors"`
	Behavior BehaviorConfig `yaml:"behavior"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppConfig 应用级配置
type AppConfig struct {
	DataDir string `yaml:"data_dir"` // 数据目录（空则使用平台默认位置）
	DBPath  string `yaml:"db_path"`  // SQLite 数据库路径（空则 data_dir/luna.db）
}

// WindowConfig 窗口与托盘配置
// capability 开关对应两种产品形态：纯窗口 / 托盘+设置页
type WindowConfig struct {
	TrayEnabled     bool   `yaml:"tray_enabled"`     // 启用系统托盘，默认: true
	SettingsEnabled bool   `yaml:"settings_enabled"` // 托盘显示"Settings"入口，默认: true
	Tooltip         string `yaml:"tooltip"`          // 托盘悬浮提示
	MarginX         int    `yaml:"margin_x"`         // 初始定位右边距（像素），默认: 20
	MarginY         int    `yaml:"margin_y"`         // 初始定位下边距（像素），默认: 60
	RestoreState    bool   `yaml:"restore_state"`    // 启动时恢复上次窗口位置，默认: true
}

// MonitorsConfig 上下文监控配置
type MonitorsConfig struct {
	WindowPollInterval time.Duration `yaml:"window_poll_interval"` // 前台窗口轮询间隔，默认: 3s
	SnapshotInterval   time.Duration `yaml:"snapshot_interval"`    // 上下文快照间隔，默认: 10s
	WatchPath          string        `yaml:"watch_path"`           // 文件监控目录（空则禁用文件监控）
	FileEventHistory   int           `yaml:"file_event_history"`   // 文件事件历史条数，默认: 50
	RetentionDays      int           `yaml:"retention_days"`       // 上下文事件保留天数，默认: 7
}

// BehaviorConfig 行为状态机/决策引擎配置
type BehaviorConfig struct {
	ObservingTimeout   time.Duration `yaml:"observing_timeout"`   // OBSERVING 超时，默认: 30s
	SuggestingTimeout  time.Duration `yaml:"suggesting_timeout"`  // SUGGESTING 超时，默认: 60s
	ExecutingTimeout   time.Duration `yaml:"executing_timeout"`   // EXECUTING 超时，默认: 10s
	SuppressedCooldown time.Duration `yaml:"suppressed_cooldown"` // SUPPRESSED 冷却，默认: 10m
	PerIntentCooldown  time.Duration `yaml:"per_intent_cooldown"` // 同类意图冷却，默认: 3m
	GlobalCooldown     time.Duration `yaml:"global_cooldown"`     // 任意弹出之间的全局冷却，默认: 1m
	DismissCooldown    time.Duration `yaml:"dismiss_cooldown"`    // 用户关闭后的冷却，默认: 10m
	MinConfidence      float64       `yaml:"min_confidence"`      // 意图置信度阈值，默认: 0.6
	HistoryLimit       int           `yaml:"history_limit"`       // 状态迁移历史条数，默认: 100
}

type LoggingConfig struct {
	Level           string `yaml:"level"`            // debug/info/warn/error
	FileEnabled     bool   `yaml:"file_enabled"`     // Enable file logging
	FilePath        string `yaml:"file_path"`        // Log file path
	MaxFileSize     string `yaml:"max_file_size"`    // Max file size (e.g., "100MB")
	MaxFiles        int    `yaml:"max_files"`        // Max number of rotated files to keep
	CompressRotated bool   `yaml:"compress_rotated"` // Compress rotated log files
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig 解析配置内容（便于使用内嵌默认配置启动）
func ParseConfig(data []byte) (*Config, error) {
	// 默认开启的布尔项要区分"未配置"与"显式关闭"
	hasTrayConfig := strings.Contains(string(data), "tray_enabled")
	hasSettingsConfig := strings.Contains(string(data), "settings_enabled")
	hasRestoreConfig := strings.Contains(string(data), "restore_state")

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults()

	if !hasTrayConfig {
		config.Window.TrayEnabled = true
	}
	if !hasSettingsConfig {
		config.Window.SettingsEnabled = true
	}
	if !hasRestoreConfig {
		config.Window.RestoreState = true
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.App.DataDir == "" {
		c.App.DataDir = AppDataDir()
	}
	if c.App.DBPath == "" {
		c.App.DBPath = filepath.Join(c.App.DataDir, "luna.db")
	}

	if c.Window.Tooltip == "" {
		c.Window.Tooltip = "ORBIT Luna - AI Desktop Companion"
	}
	if c.Window.MarginX == 0 {
		c.Window.MarginX = 20
	}
	if c.Window.MarginY == 0 {
		c.Window.MarginY = 60
	}

	if c.Monitors.WindowPollInterval == 0 {
		c.Monitors.WindowPollInterval = 3 * time.Second
	}
	if c.Monitors.SnapshotInterval == 0 {
		c.Monitors.SnapshotInterval = 10 * time.Second
	}
	if c.Monitors.FileEventHistory == 0 {
		c.Monitors.FileEventHistory = 50
	}
	if c.Monitors.RetentionDays == 0 {
		c.Monitors.RetentionDays = 7
	}

	if c.Behavior.ObservingTimeout == 0 {
		c.Behavior.ObservingTimeout = 30 * time.Second
	}
	if c.Behavior.SuggestingTimeout == 0 {
		c.Behavior.SuggestingTimeout = 60 * time.Second
	}
	if c.Behavior.ExecutingTimeout == 0 {
		c.Behavior.ExecutingTimeout = 10 * time.Second
	}
	if c.Behavior.SuppressedCooldown == 0 {
		c.Behavior.SuppressedCooldown = 10 * time.Minute
	}
	if c.Behavior.PerIntentCooldown == 0 {
		c.Behavior.PerIntentCooldown = 3 * time.Minute
	}
	if c.Behavior.GlobalCooldown == 0 {
		c.Behavior.GlobalCooldown = time.Minute
	}
	if c.Behavior.DismissCooldown == 0 {
		c.Behavior.DismissCooldown = 10 * time.Minute
	}
	if c.Behavior.MinConfidence == 0 {
		c.Behavior.MinConfidence = 0.6
	}
	if c.Behavior.HistoryLimit == 0 {
		c.Behavior.HistoryLimit = 100
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.App.DataDir, "logs", "luna.log")
	}
	if c.Logging.MaxFileSize == "" {
		c.Logging.MaxFileSize = "100MB"
	}
	if c.Logging.MaxFiles == 0 {
		c.Logging.MaxFiles = 5
	}
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level: %s", c.Logging.Level)
	}

	if c.Window.MarginX < 0 || c.Window.MarginY < 0 {
		return fmt.Errorf("window margins must be non-negative (margin_x=%d, margin_y=%d)",
			c.Window.MarginX, c.Window.MarginY)
	}

	if c.Monitors.WindowPollInterval < time.Second {
		return fmt.Errorf("window_poll_interval too small: %s (minimum 1s)", c.Monitors.WindowPollInterval)
	}
	if c.Monitors.SnapshotInterval < time.Second {
		return fmt.Errorf("snapshot_interval too small: %s (minimum 1s)", c.Monitors.SnapshotInterval)
	}
	if c.Monitors.FileEventHistory < 0 {
		return fmt.Errorf("file_event_history must be non-negative: %d", c.Monitors.FileEventHistory)
	}

	if c.Behavior.MinConfidence < 0 || c.Behavior.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1]: %v", c.Behavior.MinConfidence)
	}

	if c.Monitors.WatchPath != "" {
		if info, err := os.Stat(c.Monitors.WatchPath); err == nil && !info.IsDir() {
			return fmt.Errorf("watch_path is not a directory: %s", c.Monitors.WatchPath)
		}
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AppDataDir 获取应用数据目录（跨平台）
// Windows: %APPDATA%\ORBIT-Luna
// macOS: ~/Library/Application Support/ORBIT-Luna
// Linux: ~/.local/share/orbit-luna
func AppDataDir() string {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(baseDir, "ORBIT-Luna")

	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Application Support", "ORBIT-Luna")

	case "linux":
		homeDir, _ := os.UserHomeDir()
		xdgDataHome := os.Getenv("XDG_DATA_HOME")
		if xdgDataHome != "" {
			return filepath.Join(xdgDataHome, "orbit-luna")
		}
		return filepath.Join(homeDir, ".local", "share", "orbit-luna")

	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".orbit-luna")
	}
}

// ============================================================
// 配置热重载
// ============================================================

// ConfigWatcher handles automatic configuration reloading
type ConfigWatcher struct {
	configPath    string
	config        *Config
	mutex         sync.RWMutex
	watcher       *fsnotify.Watcher
	logger        *slog.Logger
	callbacks     []func(*Config)
	lastModTime   time.Time
	debounceTimer *time.Timer
}

// NewConfigWatcher creates a new configuration watcher
func NewConfigWatcher(configPath string, logger *slog.Logger) (*ConfigWatcher, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	cw := &ConfigWatcher{
		configPath:  configPath,
		config:      config,
		watcher:     watcher,
		logger:      logger,
		callbacks:   make([]func(*Config), 0),
		lastModTime: fileInfo.ModTime(),
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	go cw.watchLoop()

	return cw, nil
}

func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()
	return cw.config
}

func (cw *ConfigWatcher) UpdateLogger(logger *slog.Logger) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.logger = logger
}

// OnConfigChange 注册配置重载成功后的回调
func (cw *ConfigWatcher) OnConfigChange(callback func(*Config)) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Write) {
				fileInfo, err := os.Stat(cw.configPath)
				if err != nil {
					cw.logger.Warn(fmt.Sprintf("⚠️ 无法获取配置文件信息: %v", err))
					continue
				}

				// Skip if modification time hasn't changed
				if !fileInfo.ModTime().After(cw.lastModTime) {
					continue
				}

				cw.lastModTime = fileInfo.ModTime()

				if cw.debounceTimer != nil {
					cw.debounceTimer.Stop()
				}

				// Debounce to avoid multiple rapid reloads
				cw.debounceTimer = time.AfterFunc(500*time.Millisecond, func() {
					cw.logger.Info(fmt.Sprintf("🔄 检测到配置文件变更，正在重新加载... - 文件: %s", event.Name))
					if err := cw.reloadConfig(); err != nil {
						cw.logger.Error(fmt.Sprintf("❌ 配置文件重新加载失败: %v", err))
					} else {
						cw.logger.Info("✅ 配置文件重新加载成功")
					}
				})
			}

			// Some editors rename files during save
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				time.Sleep(100 * time.Millisecond)
				if _, err := os.Stat(cw.configPath); err == nil {
					cw.watcher.Add(cw.configPath)
					cw.logger.Info(fmt.Sprintf("🔄 重新监听配置文件: %s", cw.configPath))
				}
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error(fmt.Sprintf("⚠️ 配置文件监听错误: %v", err))
		}
	}
}

func (cw *ConfigWatcher) reloadConfig() error {
	newConfig, err := LoadConfig(cw.configPath)
	if err != nil {
		return err
	}

	cw.mutex.Lock()
	oldConfig := cw.config
	cw.config = newConfig
	callbacks := make([]func(*Config), len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mutex.Unlock()

	for _, callback := range callbacks {
		callback(newConfig)
	}

	cw.logConfigChanges(oldConfig, newConfig)

	return nil
}

// logConfigChanges logs the key differences between old and new configurations
func (cw *ConfigWatcher) logConfigChanges(oldConfig, newConfig *Config) {
	if oldConfig.Window.TrayEnabled != newConfig.Window.TrayEnabled {
		cw.logger.Info("🖥️ 托盘开关变更（重启后生效）",
			"old_enabled", oldConfig.Window.TrayEnabled,
			"new_enabled", newConfig.Window.TrayEnabled)
	}

	if oldConfig.Monitors.WatchPath != newConfig.Monitors.WatchPath {
		cw.logger.Info("📁 文件监控目录变更",
			"old_path", oldConfig.Monitors.WatchPath,
			"new_path", newConfig.Monitors.WatchPath)
	}

	if oldConfig.Monitors.SnapshotInterval != newConfig.Monitors.SnapshotInterval {
		cw.logger.Info("📸 快照间隔变更",
			"old_interval", oldConfig.Monitors.SnapshotInterval,
			"new_interval", newConfig.Monitors.SnapshotInterval)
	}

	if oldConfig.Behavior.MinConfidence != newConfig.Behavior.MinConfidence {
		cw.logger.Info("🎯 意图置信度阈值变更",
			"old_min", oldConfig.Behavior.MinConfidence,
			"new_min", newConfig.Behavior.MinConfidence)
	}

	if oldConfig.Logging.Level != newConfig.Logging.Level {
		cw.logger.Info("📝 日志级别变更",
			"old_level", oldConfig.Logging.Level,
			"new_level", newConfig.Logging.Level)
	}
}

// Close stops the configuration watcher
func (cw *ConfigWatcher) Close() error {
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	return cw.watcher.Close()
}
