// Package store 提供数据存储层实现（SQLite）
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open 打开（必要时创建）应用数据库
// WAL + NORMAL 同步，单进程桌面应用的常规配置
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 桌面应用单写者，限制连接数避免 SQLITE_BUSY 放大
	db.SetMaxOpenConns(2)

	return db, nil
}
