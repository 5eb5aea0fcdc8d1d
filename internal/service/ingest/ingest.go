package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"finreport/internal/apperr"
	"finreport/internal/artifact"
	"finreport/internal/model"
	"finreport/internal/service/sheet"
	"finreport/internal/store"
)

// TimeLayout 台账中时间戳的格式（ISO-8601，秒级）
const TimeLayout = "2006-01-02T15:04:05"

// Service 数据上传服务：解析文件、落盘、登记台账
type Service struct {
	store     *store.Store
	artifacts *artifact.Store
	log       *logrus.Logger
}

// NewService 创建上传服务
func NewService(st *store.Store, artifacts *artifact.Store, log *logrus.Logger) *Service {
	return &Service{store: st, artifacts: artifacts, log: log}
}

// Ingest 解析原始文件字节，返回命名 sheet 列表与数据总行数。
// 不产生任何持久化副作用。
func (s *Service) Ingest(raw []byte, filename string) ([]model.Sheet, int, error) {
	sheets, err := sheet.Parse(raw, filename)
	if err != nil {
		return nil, 0, err
	}
	return sheets, sheet.TotalDataRows(sheets), nil
}

// PersistUpload 将文件写入期间数据目录并登记上传台账。
// 写入顺序：先写临时文件，再插台账行（引用最终路径），最后原子改名。
// 任一步失败时清理临时文件，保证台账里不会出现没有实体文件的记录。
func (s *Service) PersistUpload(p, filename string, raw []byte, sheets []model.Sheet, totalRows int) (*model.Upload, error) {
	if p == "" {
		return nil, &apperr.ValidationError{Message: "请选择数据所属月份"}
	}
	if filename == "" {
		return nil, &apperr.ValidationError{Message: "文件名不能为空"}
	}

	dir, err := s.artifacts.DataDir(p)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}

	// 同名文件直接覆盖（last-write-wins，不做版本化）
	finalPath := filepath.Join(dir, filepath.Base(filename))
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0644); err != nil {
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}

	u := &model.Upload{
		Period:     p,
		Filename:   filepath.Base(filename),
		FileType:   sheet.Ext(filename),
		SheetCount: len(sheets),
		RowCount:   totalRows,
		UploadTime: time.Now().Format(TimeLayout),
		FilePath:   finalPath,
		Status:     model.UploadStatusUploaded,
	}
	if err := s.store.InsertUpload(u); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		// 改名失败时回撤台账行，避免指向不存在的文件
		if delErr := s.store.DeleteUpload(u.ID); delErr != nil {
			s.log.WithFields(logrus.Fields{"uploadId": u.ID}).Errorf("回撤上传记录失败: %v", delErr)
		}
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to finalize upload file: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"period":   p,
		"filename": u.Filename,
		"sheets":   u.SheetCount,
		"rows":     u.RowCount,
	}).Info("文件已保存")
	return u, nil
}

// DeleteUpload 删除上传记录及其物理文件。
// 文件已不存在时不报错，台账行照常删除；生成记录中的引用允许悬空。
func (s *Service) DeleteUpload(id int64) error {
	u, err := s.store.GetUploadByID(id)
	if err != nil {
		return err
	}
	if u == nil {
		return &apperr.ValidationError{Message: fmt.Sprintf("记录 #%d 不存在", id)}
	}

	if u.FilePath != "" && artifact.FileExists(u.FilePath) {
		if err := os.Remove(u.FilePath); err != nil {
			s.log.Warnf("删除文件失败（继续删除记录）: %v", err)
		}
	}

	return s.store.DeleteUpload(id)
}

// LoadUploadBytes 读取上传文件内容。文件缺失时返回 MissingArtifactError，
// 调用方应提示重新上传而不是崩溃。
func (s *Service) LoadUploadBytes(u *model.Upload) ([]byte, error) {
	if u.FilePath == "" || !artifact.FileExists(u.FilePath) {
		return nil, &apperr.MissingArtifactError{Path: u.FilePath}
	}
	raw, err := os.ReadFile(u.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload file: %w", err)
	}
	return raw, nil
}
