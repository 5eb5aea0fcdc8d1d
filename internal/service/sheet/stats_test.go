package sheet_test

import (
	"testing"

	"finreport/internal/model"
	"finreport/internal/service/sheet"
)

func TestSummarize_SingleNumericColumn(t *testing.T) {
	s := &model.Sheet{
		Name: "Sheet1",
		Rows: [][]string{
			{"科目", "金额"},
			{"1001", "10"},
			{"1002", "20"},
			{"1003", "30"},
		},
	}

	summaries := sheet.Summarize(s)
	if len(summaries) != 1 {
		t.Fatalf("len(summaries)=%d, want 1", len(summaries))
	}

	got := summaries[0]
	if got.Label != "金额" {
		t.Fatalf("Label=%q, want 金额", got.Label)
	}
	if !got.Sum.Equal(dec("60")) {
		t.Fatalf("Sum=%s, want 60", got.Sum)
	}
	if !got.Mean.Equal(dec("20")) {
		t.Fatalf("Mean=%s, want 20", got.Mean)
	}
	if !got.Max.Equal(dec("30")) {
		t.Fatalf("Max=%s, want 30", got.Max)
	}
	if !got.Min.Equal(dec("10")) {
		t.Fatalf("Min=%s, want 10", got.Min)
	}
}

func TestSummarize_NegativeAndDecimalValues(t *testing.T) {
	s := &model.Sheet{
		Name: "Sheet1",
		Rows: [][]string{
			{"金额"},
			{"-5.5"},
			{"2.5"},
			{""},
			{"3"},
		},
	}

	summaries := sheet.Summarize(s)
	if len(summaries) != 1 {
		t.Fatalf("len(summaries)=%d, want 1", len(summaries))
	}
	got := summaries[0]
	if !got.Sum.Equal(dec("0")) {
		t.Fatalf("Sum=%s, want 0", got.Sum)
	}
	if !got.Min.Equal(dec("-5.5")) {
		t.Fatalf("Min=%s, want -5.5", got.Min)
	}
	if !got.Max.Equal(dec("3")) {
		t.Fatalf("Max=%s, want 3", got.Max)
	}
}

func TestSummarize_NoNumericColumns(t *testing.T) {
	s := &model.Sheet{
		Name: "Sheet1",
		Rows: [][]string{
			{"科目", "备注"},
			{"1001", "现金"},
		},
	}
	if got := sheet.Summarize(s); len(got) != 0 {
		t.Fatalf("summaries=%+v, want empty", got)
	}
}

func TestColumnStats(t *testing.T) {
	s := &model.Sheet{
		Name: "Sheet1",
		Rows: [][]string{
			{"科目", "金额"},
			{"现金", "100"},
			{"", "200"},
			{"应收", ""},
		},
	}

	stats := sheet.ColumnStats(s)
	if len(stats) != 2 {
		t.Fatalf("len(stats)=%d, want 2", len(stats))
	}

	if stats[0].DataType != "文本" {
		t.Fatalf("col0 type=%q, want 文本", stats[0].DataType)
	}
	if stats[0].NonNull != 2 || stats[0].Null != 1 {
		t.Fatalf("col0 nonNull=%d null=%d", stats[0].NonNull, stats[0].Null)
	}
	if stats[0].Example != "现金" {
		t.Fatalf("col0 example=%q", stats[0].Example)
	}

	if stats[1].DataType != "数值" {
		t.Fatalf("col1 type=%q, want 数值", stats[1].DataType)
	}
	if stats[1].NonNull != 2 || stats[1].Null != 1 {
		t.Fatalf("col1 nonNull=%d null=%d", stats[1].NonNull, stats[1].Null)
	}
}
