package records

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanCompanyName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Acme Corp LIMITED", "Acme"},
		{"Tech Solutions LTD", "Tech Solutions"},
		{"QA Ltd", "QA"},
		{"Makers Academy", "Makers Academy"},
		{"", ""},
		{"  ", "  "},
	}
	for _, tc := range cases {
		if got := CleanCompanyName(tc.in); got != tc.want {
			t.Errorf("CleanCompanyName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanProviderName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Training Provider LTD (12345)", "Training Provider"},
		{"FOUNDERS & CODERS C.I.C.", "FOUNDERS & CODERS"},
		{"BCS Learning (10089999)", "BCS Learning"},
	}
	for _, tc := range cases {
		if got := CleanProviderName(tc.in); got != tc.want {
			t.Errorf("CleanProviderName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"5", 1, 5},
		{"", 1, 1},
		{"", 0, 0},
		{"abc", 1, 1},
		{" 12 ", 0, 12},
		{"-3", 0, 0},
	}
	for _, tc := range cases {
		if got := ParseCount(tc.in, tc.def); got != tc.want {
			t.Errorf("ParseCount(%q, %d) = %d, want %d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestFormatAcademicYear(t *testing.T) {
	cases := []struct{ in, want string }{
		{"202021", "2020-21"},
		{"2020-21", "2020-21"},
		{"2024/25", "2024-25"},
		{"not-a-year", "not-a-year"},
	}
	for _, tc := range cases {
		if got := FormatAcademicYear(tc.in); got != tc.want {
			t.Errorf("FormatAcademicYear(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReadRowsFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "st_code,provider_name,starts\nST0116,Ada College,4\nST0999,Other,9\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadRows(path, func(r Row) bool { return r.Get("st_code") == "ST0116" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Get("provider_name") != "Ada College" {
		t.Fatalf("unexpected row: %v", rows[0])
	}
}

func TestReadRowsStripsHeaderBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "\uFEFFst_code,starts\nST0116,4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadRows(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Get("st_code") != "ST0116" {
		t.Fatalf("header BOM not stripped: %v", rows[0])
	}
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "missing.csv"), nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if errors.Is(err, ErrBadContent) {
		t.Fatal("missing file must not be reported as bad content")
	}
}

func TestReadRowsBadContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n\"unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadRows(path, nil)
	if !errors.Is(err, ErrBadContent) {
		t.Fatalf("expected ErrBadContent, got %v", err)
	}
}
