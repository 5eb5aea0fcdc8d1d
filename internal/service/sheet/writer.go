package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"finreport/internal/model"
)

const (
	// RawDataSheetName 输出工作簿中原始数据 sheet 的名称
	RawDataSheetName = "原始数据"
	// SummarySheetName 输出工作簿中数据汇总 sheet 的名称
	SummarySheetName = "数据汇总"
)

var summaryHeaders = []interface{}{"指标", "合计", "平均", "最大", "最小"}

// BuildReportWorkbook 构造两 sheet 的输出工作簿：
// 原始数据（首个输入 sheet 逐行原样写入）与数据汇总（每个数值列一行）。
// 没有数值列时不生成汇总 sheet。
func BuildReportWorkbook(first *model.Sheet, summaries []model.ColumnSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeRawSheet(f, first); err != nil {
		f.Close()
		return nil, err
	}

	if len(summaries) > 0 {
		if err := writeSummarySheet(f, summaries); err != nil {
			f.Close()
			return nil, err
		}
	}

	// 去掉 excelize 默认创建的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)
	return f, nil
}

func writeRawSheet(f *excelize.File, first *model.Sheet) error {
	if _, err := f.NewSheet(RawDataSheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	for i, row := range first.Rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetSheetRow(RawDataSheetName, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, summaries []model.ColumnSummary) error {
	if _, err := f.NewSheet(SummarySheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.SetSheetRow(SummarySheetName, "A1", &summaryHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, s := range summaries {
		row := []interface{}{
			s.Label,
			s.Sum.InexactFloat64(),
			s.Mean.InexactFloat64(),
			s.Max.InexactFloat64(),
			s.Min.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetSheetRow(SummarySheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}
