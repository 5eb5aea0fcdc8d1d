package model

// UploadStatus 上传记录状态
type UploadStatus string

const (
	// UploadStatusUploaded 文件已写入存储并登记台账
	UploadStatusUploaded UploadStatus = "已上传"
)

// Upload 一次文件上传的台账记录
type Upload struct {
	ID         int64        `json:"id"`
	Period     string       `json:"period"`   // YYYY-MM，历史数据可能为空（未分类）
	Filename   string       `json:"filename"`
	FileType   string       `json:"fileType"` // 扩展名：xlsx / xls / csv
	SheetCount int          `json:"sheetCount"`
	RowCount   int          `json:"rowCount"`   // 所有 sheet 的数据行合计
	UploadTime string       `json:"uploadTime"` // ISO-8601
	FilePath   string       `json:"filePath"`
	Status     UploadStatus `json:"status"`
}
