package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"finreport/internal/apperr"
	"finreport/internal/artifact"
	"finreport/internal/config"
	"finreport/internal/model"
	"finreport/internal/period"
	"finreport/internal/service/ai"
	"finreport/internal/service/generate"
	"finreport/internal/service/ingest"
	"finreport/internal/service/mapping"
	"finreport/internal/service/sheet"
	"finreport/internal/store"
)

// SessionKey gin 上下文中会话 ID 的键
const SessionKey = "finreport_session"

// Handlers API处理器
type Handlers struct {
	cfg       *config.AppConfig
	store     *store.Store
	artifacts *artifact.Store
	ingest    *ingest.Service
	mappings  *mapping.Service
	generator *generate.Service
	engine    *ai.Engine
	log       *logrus.Logger

	cache *sessionCache
}

// NewHandlers 创建处理器
func NewHandlers(cfg *config.AppConfig, st *store.Store, artifacts *artifact.Store,
	ingestSvc *ingest.Service, mappingSvc *mapping.Service, generator *generate.Service,
	engine *ai.Engine, log *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:       cfg,
		store:     st,
		artifacts: artifacts,
		ingest:    ingestSvc,
		mappings:  mappingSvc,
		generator: generator,
		engine:    engine,
		log:       log,
		cache:     newSessionCache(),
	}
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// respondError 将错误分类为用户可读的消息；所有已知错误都在操作边界被
// 转成响应，不会作为未处理故障冒泡。
func (h *Handlers) respondError(c *gin.Context, err error) {
	var (
		pe *apperr.ParseError
		ve *apperr.ValidationError
		fe *apperr.FormatError
		me *apperr.MissingArtifactError
		ce *apperr.CorruptDataError
		ge *apperr.GenerationError
	)
	switch {
	case errors.As(err, &pe):
		errorResponse(c, 1002, "文件解析失败："+pe.Error())
	case errors.As(err, &ve):
		errorResponse(c, 3001, ve.Message)
	case errors.As(err, &fe):
		errorResponse(c, 3002, fe.Error())
	case errors.As(err, &me):
		errorResponse(c, 2001, "源文件不存在，请重新上传")
	case errors.As(err, &ce):
		errorResponse(c, 4001, ce.Error())
	case errors.As(err, &ge):
		errorResponse(c, 5002, ge.Error())
	default:
		h.log.Errorf("内部错误: %v", err)
		errorResponse(c, 5001, "内部错误："+err.Error())
	}
}

func (h *Handlers) sessionID(c *gin.Context) string {
	if v, ok := c.Get(SessionKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// ==================== 期间 ====================

type periodItem struct {
	Period string `json:"period"`
	Label  string `json:"label"`
}

// ListPeriods 获取最近24个月的期间选项
// GET /api/periods
func (h *Handlers) ListPeriods(c *gin.Context) {
	opts := period.ListRecentPeriods(period.DefaultRecentCount)
	items := make([]periodItem, 0, len(opts))
	for _, p := range opts {
		items = append(items, periodItem{Period: p, Label: period.FormatOrRaw(p)})
	}
	success(c, gin.H{
		"all":     period.All,
		"periods": items,
	})
}

// ==================== 平台状态 ====================

// GetStatus 平台总览：记录数统计、已有数据月份、AI引擎状态
// GET /api/status
func (h *Handlers) GetStatus(c *gin.Context) {
	uploadCount, err := h.store.CountUploads()
	if err != nil {
		h.respondError(c, err)
		return
	}
	mappingCount, err := h.store.CountMappings()
	if err != nil {
		h.respondError(c, err)
		return
	}
	genCount, err := h.store.CountGenerations()
	if err != nil {
		h.respondError(c, err)
		return
	}
	periodsWithData, err := h.store.ListPeriodsWithData(6)
	if err != nil {
		h.respondError(c, err)
		return
	}

	labels := make([]periodItem, 0, len(periodsWithData))
	for _, p := range periodsWithData {
		labels = append(labels, periodItem{Period: p, Label: period.FormatOrRaw(p)})
	}

	aiStatus := "就绪 ✅"
	if !h.engine.Available() {
		aiStatus = "本地规则引擎（未配置API密钥）"
	}

	success(c, gin.H{
		"uploadCount":     uploadCount,
		"mappingCount":    mappingCount,
		"generationCount": genCount,
		"periodsWithData": labels,
		"aiStatus":        aiStatus,
		"engineOptions":   ai.EngineOptions,
		"defaultPrompt":   ai.DefaultPrompt,
	})
}

// ==================== 数据上传 ====================

type sheetPreview struct {
	Overview []model.SheetInfo `json:"overview"`
}

// PreviewUpload 解析上传文件但不持久化，返回 sheet 概览
// POST /api/uploads/preview
func (h *Handlers) PreviewUpload(c *gin.Context) {
	raw, filename, ok := h.readUploadedFile(c)
	if !ok {
		return
	}

	sheets, totalRows, err := h.ingest.Ingest(raw, filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	fileID := uuid.New().String()
	h.cache.Put(h.sessionID(c), fileID, &cachedFile{
		Filename: filename,
		Bytes:    raw,
		Sheets:   sheets,
	})

	success(c, gin.H{
		"fileId":    fileID,
		"fileName":  filename,
		"totalRows": totalRows,
		"sheets":    sheet.Overview(sheets),
	})
}

// GetPreviewColumns 预览文件的指定 sheet：前50行数据与列详情
// GET /api/preview/:fileId/columns?sheet=
func (h *Handlers) GetPreviewColumns(c *gin.Context) {
	fileID := c.Param("fileId")
	sheetName := c.Query("sheet")

	f, ok := h.cache.Get(h.sessionID(c), fileID)
	if !ok {
		errorResponse(c, 2002, "文件不存在或已过期，请重新上传")
		return
	}

	target := findSheet(f.Sheets, sheetName)
	if target == nil {
		errorResponse(c, 2002, "指定的 sheet 不存在")
		return
	}

	success(c, gin.H{
		"columns":     target.Headers(),
		"previewRows": previewRows(target, 50),
		"columnStats": sheet.ColumnStats(target),
	})
}

// SaveUpload 将文件保存到平台：写入期间目录并登记台账
// POST /api/uploads  (multipart: file, period)
func (h *Handlers) SaveUpload(c *gin.Context) {
	p := strings.TrimSpace(c.PostForm("period"))
	if !period.IsValid(p) {
		errorResponse(c, 3002, "请选择数据所属月份")
		return
	}

	raw, filename, ok := h.readUploadedFile(c)
	if !ok {
		return
	}

	sheets, totalRows, err := h.ingest.Ingest(raw, filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	u, err := h.ingest.PersistUpload(p, filename, raw, sheets, totalRows)
	if err != nil {
		h.respondError(c, err)
		return
	}

	label, _ := period.Format(p)
	success(c, gin.H{
		"upload": u,
		"message": fmt.Sprintf("✅ 文件已保存！【%s】%s（%d sheets, %d 行）",
			label, u.Filename, u.SheetCount, u.RowCount),
		"sheets": sheet.Overview(sheets),
	})
}

// readUploadedFile 读取 multipart 文件并做大小/格式检查
func (h *Handlers) readUploadedFile(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, 1001, "请上传文件")
		return nil, "", false
	}
	defer file.Close()

	maxBytes := h.cfg.MaxUploadBytes()
	if header.Size > maxBytes {
		errorResponse(c, 1003, fmt.Sprintf("文件过大，最大支持%dMB", maxBytes/(1024*1024)))
		return nil, "", false
	}

	if !sheet.Supported(sheet.Ext(header.Filename)) {
		errorResponse(c, 1002, "仅支持 .xlsx / .xls / .csv 格式")
		return nil, "", false
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, 1002, "读取文件失败")
		return nil, "", false
	}
	return raw, header.Filename, true
}

// ListUploads 上传记录列表，支持按期间筛选
// GET /api/uploads?period=
func (h *Handlers) ListUploads(c *gin.Context) {
	uploads, err := h.store.ListUploads(c.Query("period"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	type uploadView struct {
		*model.Upload
		PeriodLabel string `json:"periodLabel"`
	}
	views := make([]uploadView, 0, len(uploads))
	for _, u := range uploads {
		views = append(views, uploadView{Upload: u, PeriodLabel: period.FormatOrRaw(u.Period)})
	}
	success(c, views)
}

// DeleteUpload 删除上传记录及其物理文件；文件缺失时记录照常删除
// DELETE /api/uploads/:id
func (h *Handlers) DeleteUpload(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	if err := h.ingest.DeleteUpload(id); err != nil {
		h.respondError(c, err)
		return
	}
	success(c, gin.H{"deleted": id, "message": fmt.Sprintf("已删除记录 #%d", id)})
}

// GetUploadColumns 已保存上传的指定 sheet 列详情（从磁盘重新解析）
// GET /api/uploads/:id/columns?sheet=
func (h *Handlers) GetUploadColumns(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	u, err := h.store.GetUploadByID(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if u == nil {
		errorResponse(c, 2001, "上传记录不存在")
		return
	}

	raw, err := h.ingest.LoadUploadBytes(u)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sheets, _, err := h.ingest.Ingest(raw, u.Filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sheetName := c.Query("sheet")
	target := findSheet(sheets, sheetName)
	if target == nil {
		errorResponse(c, 2002, "指定的 sheet 不存在")
		return
	}

	success(c, gin.H{
		"overview":    sheet.Overview(sheets),
		"columns":     target.Headers(),
		"previewRows": previewRows(target, 5),
		"columnStats": sheet.ColumnStats(target),
	})
}

// ==================== 映射配置 ====================

// SaveMapping 保存映射规则集
// POST /api/mappings
func (h *Handlers) SaveMapping(c *gin.Context) {
	var req mapping.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	result, err := h.mappings.SaveMapping(req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	msg := fmt.Sprintf("✅ 映射规则「%s」已保存！（%d 条规则）",
		result.Mapping.Name, len(result.Mapping.Rules))
	if result.ExportWarning != "" {
		msg = result.ExportWarning
	}
	success(c, gin.H{
		"mapping": result.Mapping,
		"message": msg,
	})
}

// ListMappings 映射规则列表，最新在前；损坏记录标记后照常返回
// GET /api/mappings
func (h *Handlers) ListMappings(c *gin.Context) {
	mappings, err := h.mappings.ListMappings()
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, mappings)
}

// ExportMapping 按需重新导出映射规则文件
// GET /api/mappings/:id/export
func (h *Handlers) ExportMapping(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	path, err := h.mappings.ExportMapping(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, gin.H{"path": path})
}

// ==================== 报表生成 ====================

type generateRequest struct {
	Period    string `json:"period"`
	UploadID  int64  `json:"uploadId"`
	MappingID *int64 `json:"mappingId"`
	Engine    string `json:"engine"`
	Prompt    string `json:"prompt"`
}

// Generate 执行报表生成并返回汇总与 AI 分析文字
// POST /api/generations
func (h *Handlers) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	result, err := h.generator.Generate(req.Period, req.UploadID, req.MappingID, req.Engine)
	if err != nil {
		h.respondError(c, err)
		return
	}

	commentary := ""
	if !result.Demo {
		commentary = h.engine.Summarize(c.Request.Context(), buildAnalysisPrompt(req.Prompt, result))
	}

	success(c, gin.H{
		"result":     result,
		"commentary": commentary,
	})
}

// buildAnalysisPrompt 将汇总结果拼进提示词，供 AI/本地应答器生成结论
func buildAnalysisPrompt(userPrompt string, result *generate.Result) string {
	if userPrompt == "" {
		userPrompt = ai.DefaultPrompt
	}

	var b strings.Builder
	b.WriteString(userPrompt)
	b.WriteString("\n\n数据汇总：\n")
	for _, s := range result.Summary {
		b.WriteString(fmt.Sprintf("%s 合计: %s 平均: %s 最大: %s 最小: %s\n",
			s.Label, s.Sum, s.Mean.Round(2), s.Max, s.Min))
	}
	b.WriteString(fmt.Sprintf("数据行数: %d\n", result.RowCount))
	return b.String()
}

// ListGenerations 生成记录列表（左连接上传与映射），支持按期间筛选
// GET /api/generations?period=
func (h *Handlers) ListGenerations(c *gin.Context) {
	records, err := h.store.ListGenerations(c.Query("period"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	type genView struct {
		*model.GenerationRecord
		PeriodLabel string `json:"periodLabel"`
	}
	views := make([]genView, 0, len(records))
	for _, r := range records {
		views = append(views, genView{GenerationRecord: r, PeriodLabel: period.FormatOrRaw(r.Period)})
	}
	success(c, views)
}

// DownloadGeneration 下载生成的报表文件
// GET /api/generations/:id/download
func (h *Handlers) DownloadGeneration(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, 1001, "参数错误")
		return
	}

	g, err := h.store.GetGenerationByID(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if g == nil {
		errorResponse(c, 2001, "生成记录不存在")
		return
	}
	if g.OutputPath == "" || !artifact.FileExists(g.OutputPath) {
		errorResponse(c, 2001, "报表文件不存在，请重新生成")
		return
	}

	c.FileAttachment(g.OutputPath, g.OutputFilename)
}

// ==================== 存储统计 ====================

// GetStorageStats 存储空间与数据库统计
// GET /api/storage
func (h *Handlers) GetStorageStats(c *gin.Context) {
	counts, err := h.store.TableCounts()
	if err != nil {
		h.respondError(c, err)
		return
	}

	dataSize := h.artifacts.DataSizeBytes()
	outputSize := h.artifacts.OutputSizeBytes()
	mappingSize := h.artifacts.MappingsSizeBytes()

	var dbSize int64
	if info, err := os.Stat(h.artifacts.DBPath()); err == nil {
		dbSize = info.Size()
	}

	success(c, gin.H{
		"dataSize":        dataSize,
		"outputSize":      outputSize,
		"mappingSize":     mappingSize,
		"totalSize":       dataSize + outputSize + mappingSize,
		"dataSizeText":    artifact.FormatSize(dataSize),
		"outputSizeText":  artifact.FormatSize(outputSize),
		"mappingSizeText": artifact.FormatSize(mappingSize),
		"totalSizeText":   artifact.FormatSize(dataSize + outputSize + mappingSize),
		"dbSizeText":      artifact.FormatSize(dbSize),
		"tables":          counts,
	})
}

// ==================== 工具函数 ====================

func findSheet(sheets []model.Sheet, name string) *model.Sheet {
	if len(sheets) == 0 {
		return nil
	}
	if name == "" {
		return &sheets[0]
	}
	for i := range sheets {
		if sheets[i].Name == name {
			return &sheets[i]
		}
	}
	return nil
}

func previewRows(s *model.Sheet, limit int) [][]string {
	if len(s.Rows) <= 1 {
		return [][]string{}
	}
	end := limit + 1
	if end > len(s.Rows) {
		end = len(s.Rows)
	}
	return s.Rows[1:end]
}
