package model

// GenerationStatus 报表生成任务状态（封闭枚举）
type GenerationStatus string

const (
	GenerationStatusInProgress GenerationStatus = "生成中"
	GenerationStatusCompleted  GenerationStatus = "已完成"
	GenerationStatusFailed     GenerationStatus = "失败"
	// GenerationStatusDemo 源文件缺失时的演示性完成：不产出文件，不落台账
	GenerationStatusDemo GenerationStatus = "演示模式"
)

// Generation 一次报表生成的台账记录。记录创建后不可变更。
type Generation struct {
	ID              int64            `json:"id"`
	Period          string           `json:"period"`
	SourceUploadID  *int64           `json:"sourceUploadId"`
	MappingID       *int64           `json:"mappingId"`
	EngineName      string           `json:"engineName"`
	OutputFilename  string           `json:"outputFilename"`
	OutputPath      string           `json:"outputPath"`
	Status          GenerationStatus `json:"status"`
	CreatedAt       string           `json:"createdAt"`
	DurationSeconds float64          `json:"durationSeconds"`
}

// GenerationRecord 生成记录与上传/映射的左连接视图。
// 引用的上传或映射被删除时，对应字段为空字符串。
type GenerationRecord struct {
	Generation
	SourceFilename string `json:"sourceFilename"`
	MappingName    string `json:"mappingName"`
}
