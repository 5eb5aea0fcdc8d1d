package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"finreport/internal/apperr"
)

// All 月份筛选中的“全部月份”哨兵值
const All = "全部月份"

// DefaultRecentCount 默认提供最近 24 个月作为可选期间
const DefaultRecentCount = 24

// ListRecentPeriods 生成截至当前月份的最近 count 个期间，格式 YYYY-MM，最新在前
func ListRecentPeriods(count int) []string {
	return ListRecentPeriodsAt(time.Now(), count)
}

// ListRecentPeriodsAt 基于给定时间生成期间列表（含跨年回绕）
func ListRecentPeriodsAt(now time.Time, count int) []string {
	if count <= 0 {
		count = DefaultRecentCount
	}

	opts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		y := now.Year()
		m := int(now.Month()) - i
		for m <= 0 {
			m += 12
			y--
		}
		opts = append(opts, fmt.Sprintf("%04d-%02d", y, m))
	}
	return opts
}

// Format YYYY-MM → 2026年01月；哨兵值原样返回固定标签
func Format(p string) (string, error) {
	if p == All {
		return All, nil
	}

	parts := strings.Split(p, "-")
	if len(parts) != 2 {
		return "", &apperr.FormatError{Value: p}
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil {
			return "", &apperr.FormatError{Value: p}
		}
	}

	return fmt.Sprintf("%s年%s月", parts[0], parts[1]), nil
}

// FormatOrRaw 展示用：非法期间（含空值）退化为“未分类”
func FormatOrRaw(p string) string {
	if p == "" {
		return "未分类"
	}
	label, err := Format(p)
	if err != nil {
		return p
	}
	return label
}

// DirectoryKey 去掉短横线后的文件系统安全键，例如 2026-01 → 202601
func DirectoryKey(p string) string {
	return strings.ReplaceAll(p, "-", "")
}

// IsValid 校验期间是否为合法的 YYYY-MM
func IsValid(p string) bool {
	_, err := Format(p)
	return p != All && err == nil
}
