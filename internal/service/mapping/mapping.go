package mapping

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"finreport/internal/apperr"
	"finreport/internal/artifact"
	"finreport/internal/model"
	"finreport/internal/store"
)

const timeLayout = "2006-01-02T15:04:05"

// Service 映射规则注册表。台账是唯一权威来源，
// 独立的 <名称>.json 文件按需再生成，用于人工核对与移植。
type Service struct {
	store     *store.Store
	artifacts *artifact.Store
	log       *logrus.Logger
}

// NewService 创建映射服务
func NewService(st *store.Store, artifacts *artifact.Store, log *logrus.Logger) *Service {
	return &Service{store: st, artifacts: artifacts, log: log}
}

// SaveRequest 保存映射规则集的入参
type SaveRequest struct {
	Name           string            `json:"name"`
	SourceFile     string            `json:"sourceFile"`
	TargetTemplate string            `json:"targetTemplate"`
	TargetSheet    string            `json:"targetSheet"`
	TargetCell     string            `json:"targetCell"`
	Rules          []model.RuleEntry `json:"rules"`
}

// SaveResult 保存结果。台账写入成功但导出文件写入失败时，
// ExportWarning 非空（记录的不一致，不静默修正）。
type SaveResult struct {
	Mapping       *model.MappingRule `json:"mapping"`
	ExportPath    string             `json:"exportPath,omitempty"`
	ExportWarning string             `json:"exportWarning,omitempty"`
}

// SaveMapping 校验并保存映射规则集。
// 名称为空或过滤后无可用规则时返回 ValidationError，什么都不落盘。
func (s *Service) SaveMapping(req SaveRequest) (*SaveResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &apperr.ValidationError{Message: "请输入映射规则名称"}
	}

	rules := make([]model.RuleEntry, 0, len(req.Rules))
	for _, r := range req.Rules {
		if !r.Usable() {
			continue
		}
		if r.Transform == "" {
			r.Transform = model.TransformDirect
		}
		if !r.Transform.Valid() {
			return nil, &apperr.ValidationError{Message: fmt.Sprintf("未知的转换方式: %s", r.Transform)}
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, &apperr.ValidationError{Message: "请至少配置一条映射规则"}
	}

	m := &model.MappingRule{
		Name:           name,
		SourceFile:     req.SourceFile,
		TargetTemplate: req.TargetTemplate,
		TargetSheet:    req.TargetSheet,
		TargetCell:     req.TargetCell,
		Rules:          rules,
		CreatedAt:      time.Now().Format(timeLayout),
	}
	if err := s.store.InsertMapping(m); err != nil {
		return nil, err
	}

	result := &SaveResult{Mapping: m}
	path, err := s.writeDocument(m)
	if err != nil {
		// 台账已写入成功，文件写失败只告警不回滚
		s.log.WithFields(logrus.Fields{"mapping": name}).Warnf("映射文件写入失败: %v", err)
		result.ExportWarning = fmt.Sprintf("映射已保存，但规则文件写入失败: %v", err)
	} else {
		result.ExportPath = path
	}

	s.log.WithFields(logrus.Fields{"mapping": name, "rules": len(rules)}).Info("映射规则已保存")
	return result, nil
}

// ListMappings 列出全部映射规则集，最新在前
func (s *Service) ListMappings() ([]*model.MappingRule, error) {
	return s.store.ListMappings()
}

// ExportMapping 按需从台账重新生成 <名称>.json 并返回文件路径。
// 规则 JSON 损坏的记录返回 CorruptDataError。
func (s *Service) ExportMapping(id int64) (string, error) {
	m, err := s.store.GetMappingByID(id)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", &apperr.ValidationError{Message: fmt.Sprintf("映射 #%d 不存在", id)}
	}
	if m.Corrupt {
		return "", &apperr.CorruptDataError{ID: m.ID, Raw: m.RulesRaw, Err: fmt.Errorf("rules json unparseable")}
	}
	return s.writeDocument(m)
}

func (s *Service) writeDocument(m *model.MappingRule) (string, error) {
	doc := model.MappingDocument{
		Name:           m.Name,
		SourceFile:     m.SourceFile,
		TargetTemplate: m.TargetTemplate,
		Rules:          m.Rules,
		CreatedAt:      m.CreatedAt,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode mapping document: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(s.artifacts.MappingsDir(), sanitizeFilename(m.Name)+".json")
	if err := artifact.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write mapping document: %w", err)
	}
	return path, nil
}

// sanitizeFilename 规则名作文件名时去掉路径分隔符
func sanitizeFilename(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", string(filepath.Separator), "_")
	return r.Replace(name)
}
