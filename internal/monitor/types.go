// Package monitor 提供上下文采集器：前台窗口、空闲时间、文件活动
package monitor

import (
	"errors"
	"time"
)

// ErrUnsupported 当前平台不支持该采集器（调用方按"数据不可用"处理）
var ErrUnsupported = errors.New("monitor: not supported on this platform")

// WindowInfo 前台窗口信息
type WindowInfo struct {
	AppName     string    `json:"app_name"`
	WindowTitle string    `json:"window_title"`
	Timestamp   time.Time `json:"timestamp"`
}

// IdleState 空闲状态分级
type IdleState string

const (
	IdleActive IdleState = "active"      // < 1 分钟
	IdleShort  IdleState = "idle_short"  // 1-3 分钟
	IdleMedium IdleState = "idle_medium" // 3-5 分钟
	IdleLong   IdleState = "idle_long"   // > 5 分钟
)

// 空闲阈值（秒）
const (
	ThresholdShort  = 60
	ThresholdMedium = 180
	ThresholdLong   = 300
)

// ClassifyIdle 把空闲秒数映射到空闲状态
func ClassifyIdle(seconds int) IdleState {
	switch {
	case seconds < ThresholdShort:
		return IdleActive
	case seconds < ThresholdMedium:
		return IdleShort
	case seconds < ThresholdLong:
		return IdleMedium
	default:
		return IdleLong
	}
}

// FileEvent 一条文件变更事件
type FileEvent struct {
	Type      string    `json:"type"` // created / modified / deleted / renamed
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// FileSummary 文件活动汇总
type FileSummary struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}
