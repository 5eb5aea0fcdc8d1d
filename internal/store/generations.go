package store

import (
	"database/sql"
	"fmt"

	"finreport/internal/model"
	"finreport/internal/period"
)

// InsertGeneration 插入生成记录并回填自增 ID。生成记录只增不改。
func (s *Store) InsertGeneration(g *model.Generation) error {
	res, err := s.db.Exec(`
		INSERT INTO generations (period, source_upload_id, mapping_id, ai_model, output_filename, output_path, status, created_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.Period, g.SourceUploadID, g.MappingID, g.EngineName, g.OutputFilename, g.OutputPath,
		string(g.Status), g.CreatedAt, g.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to insert generation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	g.ID = id
	return nil
}

// ListGenerations 列出生成记录，并左连接上传与映射用于展示。
// 被删除的上传/映射引用不会导致记录丢失，对应字段为空。
func (s *Store) ListGenerations(periodFilter string) ([]*model.GenerationRecord, error) {
	query := `
		SELECT g.id, g.period, g.source_upload_id, g.mapping_id, g.ai_model,
		       g.output_filename, g.output_path, g.status, g.created_at, g.duration_seconds,
		       u.filename, m.name
		FROM generations g
		LEFT JOIN uploads u ON g.source_upload_id = u.id
		LEFT JOIN mappings m ON g.mapping_id = m.id
	`
	args := []interface{}{}

	if periodFilter != "" && periodFilter != period.All {
		query += " WHERE g.period = ? ORDER BY g.created_at DESC"
		args = append(args, periodFilter)
	} else {
		query += " ORDER BY g.period DESC, g.created_at DESC"
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var results []*model.GenerationRecord
	for rows.Next() {
		r := &model.GenerationRecord{}
		var (
			uploadID       sql.NullInt64
			mappingID      sql.NullInt64
			engine         sql.NullString
			outputFilename sql.NullString
			outputPath     sql.NullString
			status         sql.NullString
			duration       sql.NullFloat64
			sourceFilename sql.NullString
			mappingName    sql.NullString
		)
		err := rows.Scan(&r.ID, &r.Period, &uploadID, &mappingID, &engine,
			&outputFilename, &outputPath, &status, &r.CreatedAt, &duration,
			&sourceFilename, &mappingName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		if uploadID.Valid {
			r.SourceUploadID = &uploadID.Int64
		}
		if mappingID.Valid {
			r.MappingID = &mappingID.Int64
		}
		r.EngineName = engine.String
		r.OutputFilename = outputFilename.String
		r.OutputPath = outputPath.String
		r.Status = model.GenerationStatus(status.String)
		r.DurationSeconds = duration.Float64
		r.SourceFilename = sourceFilename.String
		r.MappingName = mappingName.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// CountGenerations 统计生成记录总数
func (s *Store) CountGenerations() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM generations").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

// CompletedOutput 已完成生成的可下载产物
type CompletedOutput struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// ListCompletedOutputs 列出已完成生成的输出文件
func (s *Store) ListCompletedOutputs() ([]CompletedOutput, error) {
	rows, err := s.db.Query(
		"SELECT id, output_filename, output_path FROM generations WHERE status = ? ORDER BY created_at DESC",
		string(model.GenerationStatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	defer rows.Close()

	var outputs []CompletedOutput
	for rows.Next() {
		var o CompletedOutput
		var filename, path sql.NullString
		if err := rows.Scan(&o.ID, &filename, &path); err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}
		o.Filename = filename.String
		o.Path = path.String
		outputs = append(outputs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return outputs, nil
}

// GetGenerationByID 根据 ID 获取生成记录（下载用），不存在时返回 (nil, nil)
func (s *Store) GetGenerationByID(id int64) (*model.Generation, error) {
	row := s.db.QueryRow(`
		SELECT id, period, source_upload_id, mapping_id, ai_model, output_filename, output_path, status, created_at, duration_seconds
		FROM generations WHERE id = ?
	`, id)

	g := &model.Generation{}
	var (
		uploadID       sql.NullInt64
		mappingID      sql.NullInt64
		engine         sql.NullString
		outputFilename sql.NullString
		outputPath     sql.NullString
		status         sql.NullString
		duration       sql.NullFloat64
	)
	err := row.Scan(&g.ID, &g.Period, &uploadID, &mappingID, &engine,
		&outputFilename, &outputPath, &status, &g.CreatedAt, &duration)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan generation: %w", err)
	}
	if uploadID.Valid {
		g.SourceUploadID = &uploadID.Int64
	}
	if mappingID.Valid {
		g.MappingID = &mappingID.Int64
	}
	g.EngineName = engine.String
	g.OutputFilename = outputFilename.String
	g.OutputPath = outputPath.String
	g.Status = model.GenerationStatus(status.String)
	g.DurationSeconds = duration.Float64
	return g, nil
}
