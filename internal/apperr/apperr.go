package apperr

import "fmt"

// ParseError 输入文件无法解析（格式损坏或不支持的格式）
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("文件解析失败 %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError 用户输入未通过前置校验
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FormatError 期间字符串格式非法
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("非法的期间格式: %q", e.Value)
}

// MissingArtifactError 台账记录引用的文件已不在磁盘上
type MissingArtifactError struct {
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("文件不存在: %s", e.Path)
}

// CorruptDataError 存储的 JSON 负载无法反序列化（隔离到单条记录）
type CorruptDataError struct {
	ID  int64
	Raw string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("记录 #%d 的规则数据已损坏: %v", e.ID, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

// GenerationError 报表生成过程中的计算或写出失败
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("报表生成失败（%s）: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
