package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"finreport/internal/apperr"
	"finreport/internal/model"
)

// CSVSheetName CSV 文件解析为单张隐式 sheet 时使用的名称
const CSVSheetName = "Sheet1"

// Ext 返回小写的文件扩展名（不含点）
func Ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// Supported 判断扩展名是否受支持
func Supported(ext string) bool {
	switch ext {
	case "csv", "xls", "xlsx":
		return true
	}
	return false
}

// Parse 将原始字节解析为命名的 sheet 列表。
// csv 解析为单张名为 Sheet1 的表；xls/xlsx 解析全部 sheet。
// 格式损坏或不支持的扩展名返回 ParseError。
func Parse(raw []byte, filename string) ([]model.Sheet, error) {
	ext := Ext(filename)
	switch ext {
	case "csv":
		return parseCSV(raw, filename)
	case "xls", "xlsx":
		return parseWorkbook(raw, filename)
	default:
		return nil, &apperr.ParseError{Filename: filename, Err: fmt.Errorf("不支持的文件格式: %s", ext)}
	}
}

func parseCSV(raw []byte, filename string) ([]model.Sheet, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1 // 允许行间列数不一致

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &apperr.ParseError{Filename: filename, Err: err}
	}

	return []model.Sheet{{Name: CSVSheetName, Rows: rows}}, nil
}

func parseWorkbook(raw []byte, filename string) ([]model.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &apperr.ParseError{Filename: filename, Err: err}
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make([]model.Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &apperr.ParseError{Filename: filename, Err: err}
		}
		sheets = append(sheets, model.Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// TotalDataRows 所有 sheet 的数据行合计（不含表头）
func TotalDataRows(sheets []model.Sheet) int {
	total := 0
	for i := range sheets {
		total += sheets[i].DataRowCount()
	}
	return total
}

// Overview 生成各 sheet 的概览信息（上传预览用）
func Overview(sheets []model.Sheet) []model.SheetInfo {
	infos := make([]model.SheetInfo, 0, len(sheets))
	for i := range sheets {
		s := &sheets[i]
		headers := s.Headers()
		preview := headers
		suffix := ""
		if len(preview) > 5 {
			preview = preview[:5]
			suffix = "..."
		}
		infos = append(infos, model.SheetInfo{
			Name:        s.Name,
			RowCount:    s.DataRowCount(),
			ColumnCount: s.ColumnCount(),
			Columns:     strings.Join(preview, ", ") + suffix,
		})
	}
	return infos
}
