package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"finreport/internal/model"
)

const mappingColumns = "id, name, source_file, target_template, target_sheet, target_cell, rules_json, created_at, updated_at"

// InsertMapping 插入映射规则集并回填自增 ID，规则列表 JSON 编码入库
func (s *Store) InsertMapping(m *model.MappingRule) error {
	rulesJSON, err := json.Marshal(m.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO mappings (name, source_file, target_template, target_sheet, target_cell, rules_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.Name, m.SourceFile, m.TargetTemplate, m.TargetSheet, m.TargetCell, string(rulesJSON), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert mapping: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	m.ID = id
	return nil
}

// GetMappingByID 根据 ID 获取映射规则集，不存在时返回 (nil, nil)
func (s *Store) GetMappingByID(id int64) (*model.MappingRule, error) {
	row := s.db.QueryRow("SELECT "+mappingColumns+" FROM mappings WHERE id = ?", id)
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ListMappings 列出全部映射规则集，最新在前。
// 单条记录的规则 JSON 损坏时不会中断整个列表：该条标记为 Corrupt，
// 保留原文供排查，其余记录正常返回。
func (s *Store) ListMappings() ([]*model.MappingRule, error) {
	rows, err := s.db.Query("SELECT " + mappingColumns + " FROM mappings ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var results []*model.MappingRule
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// CountMappings 统计映射规则集数量
func (s *Store) CountMappings() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM mappings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count mappings: %w", err)
	}
	return count, nil
}

func scanMapping(row rowScanner) (*model.MappingRule, error) {
	m := &model.MappingRule{}
	var (
		sourceFile     sql.NullString
		targetTemplate sql.NullString
		targetSheet    sql.NullString
		targetCell     sql.NullString
		rulesJSON      sql.NullString
		updatedAt      sql.NullString
	)
	err := row.Scan(&m.ID, &m.Name, &sourceFile, &targetTemplate, &targetSheet, &targetCell,
		&rulesJSON, &m.CreatedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan mapping: %w", err)
	}
	m.SourceFile = sourceFile.String
	m.TargetTemplate = targetTemplate.String
	m.TargetSheet = targetSheet.String
	m.TargetCell = targetCell.String
	m.UpdatedAt = updatedAt.String

	if rulesJSON.String != "" {
		if err := json.Unmarshal([]byte(rulesJSON.String), &m.Rules); err != nil {
			m.Corrupt = true
			m.RulesRaw = rulesJSON.String
			m.Rules = nil
		}
	}
	return m, nil
}
