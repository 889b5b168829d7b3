package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"domain_status_checker/internal/model"
)

func TestPartialStore_AppendIsVisibleImmediately(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "20250101_00000001", 0, ';')
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Close()

	if err := s.Append(model.ProbeOutcome{Domain: "a.com", Accessible: true, StatusCode: 200}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// 未关闭前即可读到已写入的行
	rows, err := ReadRows(s.Path(), ';')
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if want := [][]string{{"a.com", "yes", "", "200"}}; !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}

	if err := s.Append(model.ProbeOutcome{Domain: "b.com", StatusCode: 301, RedirectChain: []string{"x.com", "y.com"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rows, err = ReadRows(s.Path(), ';')
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 || rows[1][2] != "x.com, y.com" || rows[0][0] != "a.com" {
		t.Fatalf("unexpected rows after second append: %q", rows)
	}
}

func TestCreate_RefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "t", 1, ';')
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Close()
	if _, err := Create(dir, "t", 1, ';'); err == nil {
		t.Fatalf("expected error when store already exists")
	}
}

func TestDiscover_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, w := range []int{3, 0, 1} {
		s, err := Create(dir, "t", w, ';')
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		s.Close()
	}
	for _, name := range []string{"result.csv", "temp_file_notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	paths, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "temp_file_t_000.csv"),
		filepath.Join(dir, "temp_file_t_001.csv"),
		filepath.Join(dir, "temp_file_t_003.csv"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("Discover = %v, want %v", paths, want)
	}
}

func TestDiscover_MissingDir(t *testing.T) {
	paths, err := Discover(filepath.Join(t.TempDir(), "missing"))
	if err != nil || len(paths) != 0 {
		t.Fatalf("Discover(missing) = %v, %v", paths, err)
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	dir := t.TempDir()
	for w := 0; w < 3; w++ {
		s, err := Create(dir, "t", w, ';')
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		s.Append(model.Unreachable("x.com", "timeout"))
		s.Close()
	}
	keep := filepath.Join(dir, "result.csv")
	if err := os.WriteFile(keep, []byte("domain"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	n, err := Cleanup(dir)
	if err != nil || n != 3 {
		t.Fatalf("first Cleanup = %d, %v", n, err)
	}
	n, err = Cleanup(dir)
	if err != nil || n != 0 {
		t.Fatalf("second Cleanup = %d, %v", n, err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("Cleanup removed unrelated file: %v", err)
	}
	if paths, _ := Discover(dir); len(paths) != 0 {
		t.Fatalf("residual stores: %v", paths)
	}
}

func TestQuarantine_KeepsContentOutOfDiscover(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "old", 0, ';')
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Append(model.ProbeOutcome{Domain: "a.com", Accessible: true, StatusCode: 200}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s.Close()

	kept, err := Quarantine(dir)
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	want := []string{filepath.Join(dir, "orphan_temp_file_old_000.csv")}
	if !reflect.DeepEqual(kept, want) {
		t.Fatalf("kept = %v, want %v", kept, want)
	}
	if paths, _ := Discover(dir); len(paths) != 0 {
		t.Fatalf("quarantined store still discovered: %v", paths)
	}
	rows, err := ReadRows(kept[0], ';')
	if err != nil || len(rows) != 1 || rows[0][0] != "a.com" {
		t.Fatalf("rows = %q, %v", rows, err)
	}

	kept, err = Quarantine(dir)
	if err != nil || len(kept) != 0 {
		t.Fatalf("second Quarantine = %v, %v", kept, err)
	}
}
