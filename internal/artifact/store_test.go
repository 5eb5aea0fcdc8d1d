package artifact_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"finreport/internal/artifact"
)

func TestDataDir_Idempotent(t *testing.T) {
	s, err := artifact.New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := s.DataDir("2026-01")
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	second, err := s.DataDir("2026-01")
	if err != nil {
		t.Fatalf("DataDir second call failed: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}
	if filepath.Base(first) != "202601" {
		t.Fatalf("dir key=%q, want 202601", filepath.Base(first))
	}
}

func TestDataDir_Concurrent(t *testing.T) {
	s, err := artifact.New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	paths := make([]string, 16)
	errs := make([]error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = s.DataDir("2026-01")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		if errs[i] != nil {
			t.Fatalf("concurrent DataDir[%d] failed: %v", i, errs[i])
		}
		if paths[i] != paths[0] {
			t.Fatalf("path mismatch: %q vs %q", paths[i], paths[0])
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "a.txt")

	if err := artifact.WriteFileAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("content=%q", data)
	}
	if artifact.FileExists(path + ".tmp") {
		t.Fatalf("temp file left behind")
	}
}

func TestDirectorySizeBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "b"), make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}

	if got := artifact.DirectorySizeBytes(dir); got != 150 {
		t.Fatalf("size=%d, want 150", got)
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		512:         "512 B",
		2048:        "2.0 KB",
		3 * 1 << 20: "3.0 MB",
	}
	for b, want := range cases {
		if got := artifact.FormatSize(b); got != want {
			t.Fatalf("FormatSize(%d)=%q, want %q", b, got, want)
		}
	}
}
