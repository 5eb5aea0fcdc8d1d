package store

import (
	"database/sql"
	"errors"
	"fmt"

	"finreport/internal/model"
	"finreport/internal/period"
)

const uploadColumns = "id, period, filename, file_type, sheet_count, row_count, upload_time, file_path, status"

// InsertUpload 插入上传记录并回填自增 ID
func (s *Store) InsertUpload(u *model.Upload) error {
	res, err := s.db.Exec(`
		INSERT INTO uploads (period, filename, file_type, sheet_count, row_count, upload_time, file_path, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.Period, u.Filename, u.FileType, u.SheetCount, u.RowCount, u.UploadTime, u.FilePath, string(u.Status))
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	u.ID = id
	return nil
}

// GetUploadByID 根据 ID 获取上传记录，不存在时返回 (nil, nil)
func (s *Store) GetUploadByID(id int64) (*model.Upload, error) {
	row := s.db.QueryRow("SELECT "+uploadColumns+" FROM uploads WHERE id = ?", id)
	u, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// ListUploads 按期间过滤列出上传记录，periodFilter 为空或“全部月份”时返回全部。
// 排序：期间倒序、上传时间倒序。
func (s *Store) ListUploads(periodFilter string) ([]*model.Upload, error) {
	query := "SELECT " + uploadColumns + " FROM uploads"
	args := []interface{}{}

	if periodFilter != "" && periodFilter != period.All {
		query += " WHERE period = ? ORDER BY upload_time DESC"
		args = append(args, periodFilter)
	} else {
		query += " ORDER BY period DESC, upload_time DESC"
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var results []*model.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// DeleteUpload 删除上传记录。物理文件的清理由调用方负责。
func (s *Store) DeleteUpload(id int64) error {
	if _, err := s.db.Exec("DELETE FROM uploads WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// CountUploads 统计上传记录总数
func (s *Store) CountUploads() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM uploads").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return count, nil
}

// ListPeriodsWithData 返回已有上传数据的期间，最新在前
func (s *Store) ListPeriodsWithData(limit int) ([]string, error) {
	query := "SELECT DISTINCT period FROM uploads WHERE period != '' ORDER BY period DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return periods, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUpload(row rowScanner) (*model.Upload, error) {
	u := &model.Upload{}
	var (
		fileType sql.NullString
		filePath sql.NullString
		status   sql.NullString
	)
	err := row.Scan(&u.ID, &u.Period, &u.Filename, &fileType, &u.SheetCount, &u.RowCount,
		&u.UploadTime, &filePath, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan upload: %w", err)
	}
	u.FileType = fileType.String
	u.FilePath = filePath.String
	u.Status = model.UploadStatus(status.String)
	return u, nil
}
