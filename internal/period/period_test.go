package period_test

import (
	"errors"
	"testing"
	"time"

	"finreport/internal/apperr"
	"finreport/internal/period"
)

func TestListRecentPeriodsAt_YearRollover(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)
	got := period.ListRecentPeriodsAt(now, 24)

	if len(got) != 24 {
		t.Fatalf("len=%d, want 24", len(got))
	}
	if got[0] != "2026-01" {
		t.Fatalf("got[0]=%q, want 2026-01", got[0])
	}
	if got[1] != "2025-12" {
		t.Fatalf("got[1]=%q, want 2025-12", got[1])
	}
	if got[23] != "2024-02" {
		t.Fatalf("got[23]=%q, want 2024-02", got[23])
	}

	seen := make(map[string]bool, len(got))
	for i, p := range got {
		if seen[p] {
			t.Fatalf("duplicate period %q at index %d", p, i)
		}
		seen[p] = true
		if i > 0 && got[i] >= got[i-1] {
			t.Fatalf("periods not strictly decreasing: %q >= %q", got[i], got[i-1])
		}
	}
}

func TestListRecentPeriodsAt_Consecutive(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	got := period.ListRecentPeriodsAt(now, 6)

	want := []string{"2025-03", "2025-02", "2025-01", "2024-12", "2024-11", "2024-10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d]=%q, want %q", i, got[i], want[i])
		}
	}
}

func TestFormat(t *testing.T) {
	label, err := period.Format("2026-01")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if label != "2026年01月" {
		t.Fatalf("label=%q, want 2026年01月", label)
	}
}

func TestFormat_Invalid(t *testing.T) {
	for _, p := range []string{"not-a-period", "2026", "2026-01-02", ""} {
		_, err := period.Format(p)
		var fe *apperr.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("Format(%q): err=%v, want FormatError", p, err)
		}
	}
}

func TestFormat_AllSentinel(t *testing.T) {
	label, err := period.Format(period.All)
	if err != nil {
		t.Fatalf("Format(All) failed: %v", err)
	}
	if label != period.All {
		t.Fatalf("label=%q, want %q", label, period.All)
	}
}

func TestDirectoryKey(t *testing.T) {
	if got := period.DirectoryKey("2026-01"); got != "202601" {
		t.Fatalf("DirectoryKey=%q, want 202601", got)
	}
}
