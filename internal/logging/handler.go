// Package logging 提供结构化日志处理器与前端日志推送
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志处理器选项（由 config.LoggingConfig 映射而来）
type Options struct {
	Level       string
	FileEnabled bool
	FilePath    string
	MaxFileSize string // 例如 "100MB"
	MaxFiles    int
	Compress    bool
}

// LogEntry 一条日志记录（推送给前端日志视图的格式）
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Handler 简化的日志处理器
// 输出格式: [时间] [PID] [GID] [级别] 消息，同时写控制台和轮转文件
type Handler struct {
	level      slog.Level
	fileWriter *lumberjack.Logger
	attrs      []slog.Attr

	mu sync.Mutex
}

// NewHandler 创建日志处理器，文件输出使用 lumberjack 轮转
func NewHandler(opts Options) (*Handler, error) {
	h := &Handler{
		level: ParseLevel(opts.Level),
	}

	if opts.FileEnabled {
		maxSizeMB, err := ParseSizeMB(opts.MaxFileSize)
		if err != nil {
			fmt.Printf("警告：无法解析日志文件大小配置 '%s'，使用默认值 100MB: %v\n", opts.MaxFileSize, err)
			maxSizeMB = 100
		}

		h.fileWriter = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    maxSizeMB,
			MaxBackups: opts.MaxFiles,
			Compress:   opts.Compress,
		}
	}

	return h, nil
}

// ParseLevel 解析日志级别字符串
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var sizePattern = regexp.MustCompile(`^(\d+)\s*(KB|MB|GB)?$`)

// ParseSizeMB 解析 "100MB" 形式的大小配置，返回 MB 数
func ParseSizeMB(s string) (int, error) {
	m := sizePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	switch m[2] {
	case "KB":
		n = n / 1024
		if n < 1 {
			n = 1
		}
	case "GB":
		n = n * 1024
	}
	// 默认和 MB 都按 MB 处理（lumberjack 以 MB 为单位）
	return n, nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	message := r.Message

	var attrs []string
	for _, a := range h.attrs {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
		return true
	})

	if len(attrs) > 0 {
		message = message + " " + strings.Join(attrs, " ")
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	pid := os.Getpid()
	gid := getGoroutineID()
	level := "INFO"
	switch r.Level {
	case slog.LevelDebug:
		level = "DEBUG"
	case slog.LevelWarn:
		level = "WARN"
	case slog.LevelError:
		level = "ERROR"
	}

	formatted := fmt.Sprintf("[%s] [PID:%d] [GID:%d] [%s] %s", timestamp, pid, gid, level, message)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fileWriter != nil {
		h.fileWriter.Write([]byte(formatted + "\n"))
	}

	fmt.Println(formatted)

	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	// 分组对这种扁平文本格式没有意义
	return h
}

// Close 关闭文件输出
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fileWriter != nil {
		return h.fileWriter.Close()
	}
	return nil
}

func getGoroutineID() int {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	idField := strings.Fields(string(buf))[1]
	id, err := strconv.Atoi(idField)
	if err != nil {
		return 0
	}
	return id
}
