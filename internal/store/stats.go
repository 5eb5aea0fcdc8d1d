package store

import "fmt"

// TableCount 单张表的行数统计
type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// TableCounts 返回各业务表的记录数（存储统计页使用）
func (s *Store) TableCounts() ([]TableCount, error) {
	rows, err := s.db.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	counts := make([]TableCount, 0, len(tables))
	for _, tbl := range tables {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + tbl).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count table %s: %w", tbl, err)
		}
		counts = append(counts, TableCount{Table: tbl, Rows: count})
	}
	return counts, nil
}
