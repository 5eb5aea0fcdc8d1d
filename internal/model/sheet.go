package model

import "github.com/shopspring/decimal"

// Sheet 一张已解析的表格。Rows 含表头行（如有），首行视为列名。
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Headers 返回表头行
func (s *Sheet) Headers() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// DataRowCount 数据行数（不含表头）
func (s *Sheet) DataRowCount() int {
	if len(s.Rows) <= 1 {
		return 0
	}
	return len(s.Rows) - 1
}

// ColumnCount 列数（以表头为准）
func (s *Sheet) ColumnCount() int {
	return len(s.Headers())
}

// SheetInfo sheet 概览（上传预览用）
type SheetInfo struct {
	Name        string `json:"name"`
	RowCount    int    `json:"rowCount"`
	ColumnCount int    `json:"columnCount"`
	Columns     string `json:"columns"` // 前若干列名的拼接展示
}

// ColumnStats 列详情（仅展示用，按当前加载的 sheet 即时计算）
type ColumnStats struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"` // 数值 / 文本
	NonNull  int    `json:"nonNull"`
	Null     int    `json:"null"`
	Example  string `json:"example"`
}

// ColumnSummary 数值列聚合：合计、平均、最大、最小
type ColumnSummary struct {
	Label string          `json:"label"`
	Sum   decimal.Decimal `json:"sum"`
	Mean  decimal.Decimal `json:"mean"`
	Max   decimal.Decimal `json:"max"`
	Min   decimal.Decimal `json:"min"`
}
