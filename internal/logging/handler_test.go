package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := ParseLevel(tc.input); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, 期望 %v", tc.input, got, tc.want)
		}
	}
}

func TestParseSizeMB(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"100MB", 100, false},
		{"100", 100, false},
		{"2GB", 2048, false},
		{"512KB", 1, false}, // 不足 1MB 向上取整
		{"2048KB", 2, false},
		{" 50 MB ", 50, false},
		{"100mb", 100, false},
		{"", 0, true},
		{"abc", 0, true},
		{"10TB", 0, true},
		{"-5MB", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseSizeMB(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSizeMB(%q) 应返回错误，实际得到 %d", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSizeMB(%q) 失败: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSizeMB(%q) = %d, 期望 %d", tc.input, got, tc.want)
		}
	}
}

func TestHandlerLevelFiltering(t *testing.T) {
	h, err := NewHandler(Options{Level: "warn"})
	if err != nil {
		t.Fatalf("创建处理器失败: %v", err)
	}
	defer h.Close()

	if h.Enabled(nil, slog.LevelInfo) {
		t.Error("warn 级别不应放行 info 日志")
	}
	if !h.Enabled(nil, slog.LevelWarn) {
		t.Error("warn 级别应放行 warn 日志")
	}
	if !h.Enabled(nil, slog.LevelError) {
		t.Error("warn 级别应放行 error 日志")
	}
}
