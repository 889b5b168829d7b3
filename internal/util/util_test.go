package util

import (
	"sort"
	"testing"
	"time"
)

func TestGeneratePartialFileName_SortsByWorker(t *testing.T) {
	names := []string{
		GeneratePartialFileName("20250101_12345678", 10),
		GeneratePartialFileName("20250101_12345678", 2),
		GeneratePartialFileName("20250101_12345678", 0),
	}
	sort.Strings(names)
	want := []string{
		"temp_file_20250101_12345678_000.csv",
		"temp_file_20250101_12345678_002.csv",
		"temp_file_20250101_12345678_010.csv",
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
		if !IsPartialFileName(names[i]) {
			t.Fatalf("IsPartialFileName(%q) = false", names[i])
		}
	}
	if IsPartialFileName("result.csv") || IsPartialFileName("temp_file_1.txt") {
		t.Fatalf("unexpected match for non-partial names")
	}
}

func TestTaskIDAt(t *testing.T) {
	now := time.Date(2025, 7, 26, 15, 51, 3, 0, time.UTC)
	id := taskIDAt(now)
	if len(id) != len("20250726_")+8 || id[:9] != "20250726_" {
		t.Fatalf("unexpected task id %q", id)
	}
	if got := GenerateTableName(id); got != "task_"+id {
		t.Fatalf("GenerateTableName = %q", got)
	}
}

func TestIsValidHost(t *testing.T) {
	tests := map[string]bool{
		"example.com":       true,
		"sub.example.co.uk": true,
		"localhost":         true,
		"127.0.0.1":         true,
		"127.0.0.1:8080":    true,
		"example.com:443":   true,
		"example.com:0":     false,
		"":                  false,
		"   ":               false,
		"exa mple.com":      false,
		"-bad.com":          false,
		"http://x.com":      false,
	}
	for host, want := range tests {
		if got := IsValidHost(host); got != want {
			t.Errorf("IsValidHost(%q) = %v, want %v", host, got, want)
		}
	}
}
