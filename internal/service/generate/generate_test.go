package generate_test

import (
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"finreport/internal/apperr"
	"finreport/internal/artifact"
	"finreport/internal/model"
	"finreport/internal/period"
	"finreport/internal/service/generate"
	"finreport/internal/service/ingest"
	"finreport/internal/store"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type env struct {
	store     *store.Store
	artifacts *artifact.Store
	ingest    *ingest.Service
	generate  *generate.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()

	artifacts, err := artifact.New(root)
	if err != nil {
		t.Fatalf("artifact.New failed: %v", err)
	}
	st, err := store.New(artifacts.DBPath())
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return &env{
		store:     st,
		artifacts: artifacts,
		ingest:    ingest.NewService(st, artifacts, log),
		generate:  generate.NewService(st, artifacts, log),
	}
}

func (e *env) uploadCSV(t *testing.T, p, filename, content string) *model.Upload {
	t.Helper()
	raw := []byte(content)
	sheets, rows, err := e.ingest.Ingest(raw, filename)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	u, err := e.ingest.PersistUpload(p, filename, raw, sheets, rows)
	if err != nil {
		t.Fatalf("PersistUpload failed: %v", err)
	}
	return u
}

func TestGenerate_CompletesWithSummary(t *testing.T) {
	e := newEnv(t)
	u := e.uploadCSV(t, "2026-01", "余额表.csv", "科目,金额\nA,10\nB,20\nC,30\n")

	result, err := e.generate.Generate("2026-01", u.ID, nil, "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Demo {
		t.Fatalf("unexpected demo outcome")
	}
	if result.Generation == nil || result.Generation.ID == 0 {
		t.Fatalf("generation not recorded: %+v", result)
	}
	if result.Generation.Status != model.GenerationStatusCompleted {
		t.Fatalf("status=%q", result.Generation.Status)
	}
	if result.Generation.EngineName != generate.DefaultEngine {
		t.Fatalf("engine=%q", result.Generation.EngineName)
	}
	if result.RowCount != 3 {
		t.Fatalf("RowCount=%d, want 3", result.RowCount)
	}

	if len(result.Summary) != 1 {
		t.Fatalf("summary=%+v, want one numeric column", result.Summary)
	}
	sum := result.Summary[0]
	if sum.Label != "金额" || !sum.Sum.Equal(d("60")) || !sum.Mean.Equal(d("20")) ||
		!sum.Max.Equal(d("30")) || !sum.Min.Equal(d("10")) {
		t.Fatalf("summary=%+v", sum)
	}

	// 输出文件存在且为两 sheet 工作簿
	if _, err := os.Stat(result.Generation.OutputPath); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	wb, err := excelize.OpenFile(result.Generation.OutputPath)
	if err != nil {
		t.Fatalf("output unreadable: %v", err)
	}
	defer wb.Close()
	names := wb.GetSheetList()
	if len(names) != 2 || names[0] != "原始数据" || names[1] != "数据汇总" {
		t.Fatalf("output sheets=%v", names)
	}
}

func TestGenerate_MissingSourceFile_DemoOutcome(t *testing.T) {
	e := newEnv(t)
	u := e.uploadCSV(t, "2026-01", "余额表.csv", "科目,金额\nA,10\n")

	if err := os.Remove(u.FilePath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	result, err := e.generate.Generate("2026-01", u.ID, nil, "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !result.Demo {
		t.Fatalf("expected demo outcome")
	}
	if result.Generation != nil {
		t.Fatalf("demo outcome must not record a generation: %+v", result.Generation)
	}

	// 台账中不应有任何已完成记录
	records, err := e.store.ListGenerations(period.All)
	if err != nil {
		t.Fatalf("ListGenerations failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records=%+v, want none", records)
	}
}

func TestGenerate_UnknownUpload(t *testing.T) {
	e := newEnv(t)

	_, err := e.generate.Generate("2026-01", 999, nil, "")
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err=%v, want ValidationError", err)
	}
}

func TestGenerate_DeletedMappingFallsBack(t *testing.T) {
	e := newEnv(t)
	u := e.uploadCSV(t, "2026-01", "余额表.csv", "科目,金额\nA,10\n")

	missing := int64(12345)
	result, err := e.generate.Generate("2026-01", u.ID, &missing, "DeepSeek-V3（推荐·成本低）")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Generation.MappingID != nil {
		t.Fatalf("MappingID=%v, want nil fallback", result.Generation.MappingID)
	}
	if result.Generation.EngineName != "DeepSeek-V3（推荐·成本低）" {
		t.Fatalf("engine=%q", result.Generation.EngineName)
	}
}

func TestGenerate_UniqueOutputNamesWithinSecond(t *testing.T) {
	e := newEnv(t)
	u := e.uploadCSV(t, "2026-01", "余额表.csv", "科目,金额\nA,10\n")

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		result, err := e.generate.Generate("2026-01", u.ID, nil, "")
		if err != nil {
			t.Fatalf("Generate[%d] failed: %v", i, err)
		}
		name := result.Generation.OutputFilename
		if seen[name] {
			t.Fatalf("output name collision: %s", name)
		}
		seen[name] = true
	}
}
