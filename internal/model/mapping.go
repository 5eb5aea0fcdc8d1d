package model

// TransformKind 映射规则的转换方式（封闭枚举）
type TransformKind string

const (
	TransformDirect     TransformKind = "直接映射"
	TransformSum        TransformKind = "求和汇总"
	TransformDifference TransformKind = "差额计算"
	TransformFX         TransformKind = "汇率折算"
	TransformPercentage TransformKind = "百分比计算"
)

// Valid 判断转换方式是否在枚举内
func (k TransformKind) Valid() bool {
	switch k {
	case TransformDirect, TransformSum, TransformDifference, TransformFX, TransformPercentage:
		return true
	}
	return false
}

// RuleEntry 单条映射规则：源列/科目编码 → 目标位置
type RuleEntry struct {
	Source    string        `json:"source"`
	Target    string        `json:"target"` // 例如 Sheet1!B5
	Transform TransformKind `json:"transform"`
}

// Usable 源与目标均非空的规则才会被保存
func (r RuleEntry) Usable() bool {
	return r.Source != "" && r.Target != ""
}

// MappingRule 命名的映射规则集。规则只被记录与导出，
// 报表生成目前并不执行这些规则。
type MappingRule struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	SourceFile     string      `json:"sourceFile"` // 源文件名引用，非强外键
	TargetTemplate string      `json:"targetTemplate"`
	TargetSheet    string      `json:"targetSheet"`
	TargetCell     string      `json:"targetCell"` // 例如 B5 或 B5:F20
	Rules          []RuleEntry `json:"rules"`
	RulesRaw       string      `json:"rulesRaw,omitempty"` // 规则 JSON 损坏时保留原文
	Corrupt        bool        `json:"corrupt,omitempty"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt,omitempty"`
}

// MappingDocument 导出的独立 JSON 文件结构
type MappingDocument struct {
	Name           string      `json:"name"`
	SourceFile     string      `json:"source_file"`
	TargetTemplate string      `json:"target_template"`
	Rules          []RuleEntry `json:"rules"`
	CreatedAt      string      `json:"created_at"`
}
