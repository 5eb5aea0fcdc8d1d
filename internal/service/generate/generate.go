package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"finreport/internal/apperr"
	"finreport/internal/artifact"
	"finreport/internal/model"
	"finreport/internal/period"
	"finreport/internal/service/sheet"
	"finreport/internal/store"
)

const timeLayout = "2006-01-02T15:04:05"

// DefaultEngine 未指定引擎时使用的本地规则引擎名称
const DefaultEngine = "本地规则引擎（离线·无需API）"

// Steps 生成流程的阶段标签（纯展示用，并非真实的分阶段流水线）
var Steps = []string{
	"📂 读取源数据文件...",
	"🔍 解析数据结构与科目编码...",
	"🔗 加载映射规则...",
	"🤖 调用AI引擎处理数据...",
	"📊 执行数据映射与计算...",
	"📝 生成报表文件...",
	"✅ 数据校验与质量检查...",
	"🎉 报表生成完成！",
}

// Service 报表生成服务
type Service struct {
	store     *store.Store
	artifacts *artifact.Store
	log       *logrus.Logger

	// 同一秒内多次生成时避免输出文件名碰撞
	seq atomic.Int64
}

// NewService 创建生成服务
func NewService(st *store.Store, artifacts *artifact.Store, log *logrus.Logger) *Service {
	return &Service{store: st, artifacts: artifacts, log: log}
}

// Result 一次生成的完整结果
type Result struct {
	Generation *model.Generation     `json:"generation,omitempty"`
	Demo       bool                  `json:"demo"`
	Message    string                `json:"message"`
	RowCount   int                   `json:"rowCount"`
	Summary    []model.ColumnSummary `json:"summary,omitempty"`
	Steps      []string              `json:"steps"`
}

// Generate 执行一次报表生成。
// 源文件在磁盘上缺失时返回演示性结果：不写输出文件，也不落台账，
// 保证“没有产物就没有已完成记录”。输出文件写成功后才插入生成记录。
func (s *Service) Generate(p string, uploadID int64, mappingID *int64, engineName string) (*Result, error) {
	if !period.IsValid(p) {
		return nil, &apperr.ValidationError{Message: "请选择报表所属月份"}
	}
	if engineName == "" {
		engineName = DefaultEngine
	}

	u, err := s.store.GetUploadByID(uploadID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &apperr.ValidationError{Message: fmt.Sprintf("数据文件 #%d 不存在", uploadID)}
	}

	if mappingID != nil {
		m, err := s.store.GetMappingByID(*mappingID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			// 映射被删除不阻断生成，退回无映射路径
			s.log.Warnf("映射 #%d 不存在，按无映射生成", *mappingID)
			mappingID = nil
		}
	}

	if u.FilePath == "" || !artifact.FileExists(u.FilePath) {
		return &Result{
			Demo:    true,
			Message: "✅ 报表生成完成！（演示模式）请先上传实际数据文件以获取真实输出。",
			Steps:   Steps,
		}, nil
	}

	started := time.Now()

	raw, err := os.ReadFile(u.FilePath)
	if err != nil {
		return nil, &apperr.GenerationError{Stage: "读取源文件", Err: err}
	}
	sheets, err := sheet.Parse(raw, u.Filename)
	if err != nil {
		return nil, &apperr.GenerationError{Stage: "解析源文件", Err: err}
	}
	if len(sheets) == 0 {
		return nil, &apperr.GenerationError{Stage: "解析源文件", Err: fmt.Errorf("文件中没有可用的 sheet")}
	}

	first := &sheets[0]
	summaries := sheet.Summarize(first)

	wb, err := sheet.BuildReportWorkbook(first, summaries)
	if err != nil {
		return nil, &apperr.GenerationError{Stage: "生成工作簿", Err: err}
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, &apperr.GenerationError{Stage: "生成工作簿", Err: err}
	}

	outDir, err := s.artifacts.OutputDir(p)
	if err != nil {
		return nil, &apperr.GenerationError{Stage: "准备输出目录", Err: err}
	}

	label, _ := period.Format(p)
	outputName := fmt.Sprintf("报表_%s_%s_%d.xlsx",
		label, time.Now().Format("150405"), s.seq.Add(1))
	outputPath := filepath.Join(outDir, outputName)

	// 先写产物再落台账：写失败时不会留下指向空产物的记录
	if err := artifact.WriteFileAtomic(outputPath, buf.Bytes()); err != nil {
		return nil, &apperr.GenerationError{Stage: "写出报表文件", Err: err}
	}

	g := &model.Generation{
		Period:          p,
		SourceUploadID:  &u.ID,
		MappingID:       mappingID,
		EngineName:      engineName,
		OutputFilename:  outputName,
		OutputPath:      outputPath,
		Status:          model.GenerationStatusCompleted,
		CreatedAt:       time.Now().Format(timeLayout),
		DurationSeconds: time.Since(started).Seconds(),
	}
	if err := s.store.InsertGeneration(g); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"period": p,
		"output": outputName,
		"rows":   first.DataRowCount(),
	}).Info("报表生成完成")

	return &Result{
		Generation: g,
		Message:    fmt.Sprintf("报表已生成：%s", outputName),
		RowCount:   first.DataRowCount(),
		Summary:    summaries,
		Steps:      Steps,
	}, nil
}
