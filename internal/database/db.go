package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// InitDB 初始化 SQLite 数据库和结果表
func InitDB(dbPath string, tableName string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA encoding = 'UTF-8'"); err != nil {
		db.Close()
		return nil, err
	}

	createStmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL,
    domain_status TEXT NOT NULL,
    redirected_domains TEXT,
    status_code INTEGER
);
`, tableName)

	if _, err := db.Exec(createStmt); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// SaveReport 将汇总报告的数据行写入表中，status_code 为空时存 NULL
func SaveReport(db *sql.DB, tableName string, rows [][]string) error {
	insertSQL := fmt.Sprintf(`
INSERT INTO %s (domain, domain_status, redirected_domains, status_code)
VALUES (?, ?, ?, ?);
`, tableName)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if len(r) < 4 {
			return fmt.Errorf("结果行字段不足: %q", r)
		}
		var status sql.NullInt64
		if code, err := strconv.Atoi(r[3]); err == nil {
			status = sql.NullInt64{Int64: int64(code), Valid: true}
		}
		if _, err := stmt.Exec(r[0], r[1], r[2], status); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", r[0], err)
		}
	}

	return tx.Commit()
}
