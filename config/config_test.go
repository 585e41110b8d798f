package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEmptyConfigUsesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(""))
	if err != nil {
		t.Fatalf("解析空配置失败: %v", err)
	}

	if !cfg.Window.TrayEnabled {
		t.Error("托盘默认应启用")
	}
	if !cfg.Window.SettingsEnabled {
		t.Error("设置入口默认应启用")
	}
	if !cfg.Window.RestoreState {
		t.Error("窗口状态恢复默认应启用")
	}
	if cfg.Window.MarginX != 20 || cfg.Window.MarginY != 60 {
		t.Errorf("默认边距不符: x=%d y=%d", cfg.Window.MarginX, cfg.Window.MarginY)
	}
	if cfg.Window.Tooltip != "ORBIT Luna - AI Desktop Companion" {
		t.Errorf("默认提示文案不符: %s", cfg.Window.Tooltip)
	}
	if cfg.Monitors.WindowPollInterval != 3*time.Second {
		t.Errorf("默认轮询间隔不符: %s", cfg.Monitors.WindowPollInterval)
	}
	if cfg.Behavior.MinConfidence != 0.6 {
		t.Errorf("默认置信度阈值不符: %v", cfg.Behavior.MinConfidence)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("默认日志级别不符: %s", cfg.Logging.Level)
	}
}

func TestParseExplicitDisable(t *testing.T) {
	// 显式 false 不能被默认值覆盖
	data := []byte(`
window:
  tray_enabled: false
  settings_enabled: false
  restore_state: false
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("解析配置失败: %v", err)
	}

	if cfg.Window.TrayEnabled {
		t.Error("显式关闭的托盘不应被默认值覆盖")
	}
	if cfg.Window.SettingsEnabled {
		t.Error("显式关闭的设置入口不应被默认值覆盖")
	}
	if cfg.Window.RestoreState {
		t.Error("显式关闭的状态恢复不应被默认值覆盖")
	}
}

func TestParseFullConfig(t *testing.T) {
	data := []byte(`
app:
  data_dir: /tmp/luna-test
window:
  tray_enabled: true
  margin_x: 40
  margin_y: 80
  tooltip: "Custom Tooltip"
monitors:
  window_poll_interval: 5s
  snapshot_interval: 30s
  retention_days: 14
behavior:
  min_confidence: 0.8
  global_cooldown: 2m
logging:
  level: debug
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("解析配置失败: %v", err)
	}

	if cfg.Window.MarginX != 40 || cfg.Window.MarginY != 80 {
		t.Errorf("边距不符: x=%d y=%d", cfg.Window.MarginX, cfg.Window.MarginY)
	}
	if cfg.Window.Tooltip != "Custom Tooltip" {
		t.Errorf("提示文案不符: %s", cfg.Window.Tooltip)
	}
	if cfg.Monitors.WindowPollInterval != 5*time.Second {
		t.Errorf("轮询间隔不符: %s", cfg.Monitors.WindowPollInterval)
	}
	if cfg.Monitors.RetentionDays != 14 {
		t.Errorf("保留天数不符: %d", cfg.Monitors.RetentionDays)
	}
	if cfg.Behavior.MinConfidence != 0.8 {
		t.Errorf("置信度阈值不符: %v", cfg.Behavior.MinConfidence)
	}
	if cfg.Behavior.GlobalCooldown != 2*time.Minute {
		t.Errorf("全局冷却不符: %s", cfg.Behavior.GlobalCooldown)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("日志级别不符: %s", cfg.Logging.Level)
	}
	// 未配置的项仍取默认值
	if cfg.App.DBPath != filepath.Join("/tmp/luna-test", "luna.db") {
		t.Errorf("数据库路径不符: %s", cfg.App.DBPath)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("window: [broken")); err == nil {
		t.Fatal("非法 YAML 应返回错误")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"未知日志级别", "logging:\n  level: verbose"},
		{"负边距", "window:\n  margin_x: -5"},
		{"轮询间隔过小", "monitors:\n  window_poll_interval: 100ms"},
		{"快照间隔过小", "monitors:\n  snapshot_interval: 500ms"},
		{"置信度越界", "behavior:\n  min_confidence: 1.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tc.data)); err == nil {
				t.Fatalf("非法配置应被拒绝: %s", tc.data)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("window:\n  margin_x: 30\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Window.MarginX != 30 {
		t.Errorf("边距不符: %d", cfg.Window.MarginX)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("缺失的配置文件应返回错误")
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := ParseConfig([]byte(""))
	if err != nil {
		t.Fatalf("解析默认配置失败: %v", err)
	}
	cfg.Window.MarginX = 77

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("重新加载配置失败: %v", err)
	}
	if loaded.Window.MarginX != 77 {
		t.Errorf("保存的边距丢失: %d", loaded.Window.MarginX)
	}
}

func TestEmbeddedStyleDefaultConfig(t *testing.T) {
	// 覆盖随应用分发的默认配置文件
	data, err := os.ReadFile("config.yaml")
	if err != nil {
		t.Skipf("默认配置文件不存在: %v", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("默认配置文件应可解析: %v", err)
	}
	if !cfg.Window.TrayEnabled {
		t.Error("默认配置应启用托盘")
	}
}
