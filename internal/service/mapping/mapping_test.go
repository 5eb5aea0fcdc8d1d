package mapping_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"finreport/internal/apperr"
	"finreport/internal/artifact"
	"finreport/internal/model"
	"finreport/internal/service/mapping"
	"finreport/internal/store"
)

func newTestService(t *testing.T) (*mapping.Service, *store.Store, *artifact.Store) {
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

	return mapping.NewService(st, artifacts, log), st, artifacts
}

func TestSaveMapping(t *testing.T) {
	svc, st, artifacts := newTestService(t)

	result, err := svc.SaveMapping(mapping.SaveRequest{
		Name:           "科目余额表 → 公司主报表",
		SourceFile:     "余额表.xlsx",
		TargetTemplate: "公司主报表（人民币版）",
		TargetSheet:    "资产负债表",
		TargetCell:     "B5",
		Rules: []model.RuleEntry{
			{Source: "1001", Target: "Sheet1!B5", Transform: model.TransformDirect},
			{Source: "1002", Target: "Sheet1!B6", Transform: model.TransformSum},
			{Source: "", Target: "Sheet1!B7"}, // 源为空，应被过滤
		},
	})
	if err != nil {
		t.Fatalf("SaveMapping failed: %v", err)
	}
	if result.Mapping.ID == 0 {
		t.Fatalf("ID not assigned")
	}
	if len(result.Mapping.Rules) != 2 {
		t.Fatalf("rules=%d, want 2 after filtering", len(result.Mapping.Rules))
	}
	if result.ExportWarning != "" {
		t.Fatalf("unexpected export warning: %s", result.ExportWarning)
	}

	// 台账行
	mappings, err := st.ListMappings()
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 1 {
		t.Fatalf("len(mappings)=%d, want 1", len(mappings))
	}

	// 独立 JSON 文件
	wantPath := filepath.Join(artifacts.MappingsDir(), "科目余额表 → 公司主报表.json")
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("mapping document missing: %v", err)
	}
	var doc model.MappingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document unmarshal failed: %v", err)
	}
	if doc.Name != "科目余额表 → 公司主报表" || len(doc.Rules) != 2 {
		t.Fatalf("doc=%+v", doc)
	}
}

func TestSaveMapping_EmptyName(t *testing.T) {
	svc, st, artifacts := newTestService(t)

	_, err := svc.SaveMapping(mapping.SaveRequest{
		Name:  "  ",
		Rules: []model.RuleEntry{{Source: "1001", Target: "B5"}},
	})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err=%v, want ValidationError", err)
	}

	// 不应有任何台账行或文件
	mappings, err := st.ListMappings()
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 0 {
		t.Fatalf("len(mappings)=%d, want 0", len(mappings))
	}
	entries, err := os.ReadDir(artifacts.MappingsDir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("mappings dir not empty: %v", entries)
	}
}

func TestSaveMapping_NoUsableRules(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SaveMapping(mapping.SaveRequest{
		Name: "空规则",
		Rules: []model.RuleEntry{
			{Source: "1001", Target: ""},
			{Source: "", Target: "B5"},
		},
	})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err=%v, want ValidationError", err)
	}
}

func TestSaveMapping_UnknownTransform(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SaveMapping(mapping.SaveRequest{
		Name:  "非法转换",
		Rules: []model.RuleEntry{{Source: "1001", Target: "B5", Transform: "魔法映射"}},
	})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err=%v, want ValidationError", err)
	}
}

func TestExportMapping_Regenerates(t *testing.T) {
	svc, _, artifacts := newTestService(t)

	result, err := svc.SaveMapping(mapping.SaveRequest{
		Name:  "导出测试",
		Rules: []model.RuleEntry{{Source: "1001", Target: "B5", Transform: model.TransformDirect}},
	})
	if err != nil {
		t.Fatalf("SaveMapping failed: %v", err)
	}

	// 删除文件后按需导出应重新生成
	docPath := filepath.Join(artifacts.MappingsDir(), "导出测试.json")
	if err := os.Remove(docPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	path, err := svc.ExportMapping(result.Mapping.ID)
	if err != nil {
		t.Fatalf("ExportMapping failed: %v", err)
	}
	if path != docPath {
		t.Fatalf("path=%q, want %q", path, docPath)
	}
	if _, err := os.Stat(docPath); err != nil {
		t.Fatalf("document not regenerated: %v", err)
	}
}

func TestExportMapping_Corrupt(t *testing.T) {
	svc, st, _ := newTestService(t)

	_, err := st.DB().Exec(
		"INSERT INTO mappings (name, rules_json, created_at) VALUES ('坏记录', '{not-json', '2026-01-16T10:00:00')")
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}

	mappings, err := st.ListMappings()
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}

	_, err = svc.ExportMapping(mappings[0].ID)
	var ce *apperr.CorruptDataError
	if !errors.As(err, &ce) {
		t.Fatalf("err=%v, want CorruptDataError", err)
	}
}
