package database

import (
	"database/sql"
	"fmt"
)

// StatusCount 按状态码统计
type StatusCount struct {
	StatusCode int // 0 表示未能连接
	Accessible bool
	Count      int
}

// StatusBreakdown 统计各状态码的域名数量，按数量倒序
func StatusBreakdown(db *sql.DB, tableName string) ([]StatusCount, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(status_code, 0) AS code, domain_status, COUNT(*) AS cnt
		FROM %s
		GROUP BY code, domain_status
		ORDER BY cnt DESC, code ASC
	`, tableName)

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("统计状态码失败: %w", err)
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var sc StatusCount
		var status string
		if err := rows.Scan(&sc.StatusCode, &status, &sc.Count); err != nil {
			return nil, err
		}
		sc.Accessible = status == "yes"
		result = append(result, sc)
	}
	return result, rows.Err()
}

// RedirectTargets 统计跳转链中出现次数最多的域名
func RedirectTargets(db *sql.DB, tableName string, limit int) (map[string]int, error) {
	query := fmt.Sprintf(`SELECT redirected_domains FROM %s WHERE redirected_domains IS NOT NULL AND redirected_domains != ''`, tableName)
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var chain string
		if err := rows.Scan(&chain); err != nil {
			return nil, err
		}
		for _, d := range splitChain(chain) {
			counts[d]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topN(counts, limit), nil
}
