package exporter

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"domain_status_checker/internal/model"
	"domain_status_checker/internal/store"
)

func writeStore(t *testing.T, dir string, worker int, outcomes ...model.ProbeOutcome) {
	t.Helper()
	s, err := store.Create(dir, "task", worker, ';')
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Close()
	for _, o := range outcomes {
		if err := s.Append(o); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestAggregate_LosslessAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, 1,
		model.ProbeOutcome{Domain: "c.com", StatusCode: 500},
	)
	writeStore(t, dir, 0,
		model.ProbeOutcome{Domain: "a.com", Accessible: true, StatusCode: 200},
		model.ProbeOutcome{Domain: "b.com", Accessible: true, StatusCode: 200, RedirectChain: []string{"x.com", "y.com"}},
	)
	writeStore(t, dir, 2)
	writeStore(t, dir, 3, model.Unreachable("d.com", "timeout"))

	report := filepath.Join(dir, "result.csv")
	sum, err := Aggregate(dir, report, ';')
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if sum.Stores != 4 || sum.Rows != 4 {
		t.Fatalf("summary = %+v", sum)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "domain;domain_status;redirected_domains;status_code\n" +
		"a.com;yes;;200\n" +
		"b.com;yes;x.com, y.com;200\n" +
		"c.com;no;;500\n" +
		"d.com;no;;\n"
	if string(data) != want {
		t.Fatalf("report:\n%s\nwant:\n%s", data, want)
	}

	if paths, _ := store.Discover(dir); len(paths) != 0 {
		t.Fatalf("stores left behind: %v", paths)
	}

	rows, err := ReadReport(report, ';')
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if len(rows) != 4 || !reflect.DeepEqual(rows[1], []string{"b.com", "yes", "x.com, y.com", "200"}) {
		t.Fatalf("rows = %q", rows)
	}
}

func TestAggregate_NoStores(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "result.csv")
	sum, err := Aggregate(dir, report, ';')
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if sum.Rows != 0 || sum.Stores != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	data, _ := os.ReadFile(report)
	if string(data) != "domain;domain_status;redirected_domains;status_code\n" {
		t.Fatalf("unexpected report %q", data)
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.xlsx")
	rows := [][]string{
		{"a.com", "yes", "", "200"},
		{"d.com", "no", "", ""},
	}
	if err := ExportXLSX(rows, path); err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(got) != 3 || got[0][0] != "domain" || got[1][3] != "200" || got[2][0] != "d.com" {
		t.Fatalf("rows = %q", got)
	}
}

func TestAggregate_UnreadableStoreLeavesRestOnDisk(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, 0, model.ProbeOutcome{Domain: "a.com", Accessible: true, StatusCode: 200})
	// 指向目录的符号链接，读取时报错
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "temp_file_task_001.csv")); err != nil {
		t.Skipf("symlink: %v", err)
	}
	writeStore(t, dir, 2, model.ProbeOutcome{Domain: "c.com", Accessible: true, StatusCode: 200})

	if _, err := Aggregate(dir, filepath.Join(dir, "result.csv"), ';'); err == nil {
		t.Fatalf("expected error for unreadable store")
	}
	paths, err := store.Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "temp_file_task_001.csv"),
		filepath.Join(dir, "temp_file_task_002.csv"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("stores left = %v, want %v", paths, want)
	}
}
