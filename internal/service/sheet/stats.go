package sheet

import (
	"strings"

	"github.com/shopspring/decimal"

	"finreport/internal/model"
)

const (
	typeNumeric = "数值"
	typeText    = "文本"
)

// column 提取第 idx 列的全部数据单元格（不含表头）
func column(s *model.Sheet, idx int) []string {
	if len(s.Rows) <= 1 {
		return nil
	}
	cells := make([]string, 0, len(s.Rows)-1)
	for _, row := range s.Rows[1:] {
		if idx < len(row) {
			cells = append(cells, row[idx])
		} else {
			cells = append(cells, "")
		}
	}
	return cells
}

// isNumericColumn 所有非空单元格均可解析为数值且至少有一个非空
func isNumericColumn(cells []string) bool {
	nonEmpty := 0
	for _, c := range cells {
		v := strings.TrimSpace(c)
		if v == "" {
			continue
		}
		nonEmpty++
		if _, err := decimal.NewFromString(v); err != nil {
			return false
		}
	}
	return nonEmpty > 0
}

// ColumnStats 计算列详情：推断类型、非空/空值数、示例值。
// 仅用于展示，每次查看时基于当前 sheet 重新计算。
func ColumnStats(s *model.Sheet) []model.ColumnStats {
	headers := s.Headers()
	stats := make([]model.ColumnStats, 0, len(headers))

	for i, name := range headers {
		cells := column(s, i)

		nonNull := 0
		example := "—"
		for _, c := range cells {
			if strings.TrimSpace(c) != "" {
				if nonNull == 0 {
					example = c
				}
				nonNull++
			}
		}

		dataType := typeText
		if isNumericColumn(cells) {
			dataType = typeNumeric
		}

		stats = append(stats, model.ColumnStats{
			Name:     name,
			DataType: dataType,
			NonNull:  nonNull,
			Null:     len(cells) - nonNull,
			Example:  example,
		})
	}
	return stats
}

// Summarize 对每个数值列计算合计、平均、最大、最小。
// 金额计算使用 decimal 避免浮点累计误差。
func Summarize(s *model.Sheet) []model.ColumnSummary {
	headers := s.Headers()
	var summaries []model.ColumnSummary

	for i, name := range headers {
		cells := column(s, i)
		if !isNumericColumn(cells) {
			continue
		}

		var (
			sum   = decimal.Zero
			count int64
			max   decimal.Decimal
			min   decimal.Decimal
		)
		for _, c := range cells {
			v := strings.TrimSpace(c)
			if v == "" {
				continue
			}
			d, err := decimal.NewFromString(v)
			if err != nil {
				continue
			}
			if count == 0 {
				max = d
				min = d
			} else {
				if d.GreaterThan(max) {
					max = d
				}
				if d.LessThan(min) {
					min = d
				}
			}
			sum = sum.Add(d)
			count++
		}
		if count == 0 {
			continue
		}

		summaries = append(summaries, model.ColumnSummary{
			Label: name,
			Sum:   sum,
			Mean:  sum.Div(decimal.NewFromInt(count)),
			Max:   max,
			Min:   min,
		})
	}
	return summaries
}
