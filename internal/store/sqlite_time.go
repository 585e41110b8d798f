package store

import (
	"strings"
	"time"
)

func parseSQLiteDateTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05.999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05.999",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	// 兜底：SQLite 常把时间存成空格分隔 + 时区后缀，Go 解析需要 'T' 分隔
	if strings.Contains(value, " ") {
		tail := ""
		if len(value) > 19 {
			tail = value[19:]
		}
		if strings.Contains(tail, "+") || strings.Contains(tail, "-") || strings.Contains(tail, "Z") {
			if t, err := time.Parse(time.RFC3339Nano, strings.Replace(value, " ", "T", 1)); err == nil {
				return t
			}
		}
	}

	return time.Time{}
}
