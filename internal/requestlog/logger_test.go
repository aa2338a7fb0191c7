package requestlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tubescout/internal/fetcher"
)

func TestRecordWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer logger.Close()

	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	logger.Record(fetcher.Result{
		Keyword:  "test song",
		Kind:     fetcher.Found,
		VideoID:  "abc123",
		Duration: 1500 * time.Millisecond,
	})
	logger.Record(fetcher.Result{
		Keyword:  "missing",
		Kind:     fetcher.NotFound,
		Detail:   "Video not found",
		Duration: 800 * time.Millisecond,
	})

	path := filepath.Join(dir, "detailed_2026-03-14.log")
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected log file at %s: %v", path, err)
	}
	defer file.Close()

	var lines []entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line entry
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		lines = append(lines, line)
	}
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}

	if lines[0].Keyword != "test song" || lines[0].VideoID != "abc123" || lines[0].Status != "found" {
		t.Fatalf("first line = %+v", lines[0])
	}
	if lines[0].DurationSeconds != 1.5 {
		t.Fatalf("duration = %v, want 1.5", lines[0].DurationSeconds)
	}
	if lines[0].Error != "" {
		t.Fatalf("found entry should carry no error, got %q", lines[0].Error)
	}

	if lines[1].Status != "not_found" || lines[1].Error != "Video not found" {
		t.Fatalf("second line = %+v", lines[1])
	}
}

func TestRecordRollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer logger.Close()

	day := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	logger.now = func() time.Time { return day }
	logger.Record(fetcher.Result{Keyword: "before", Kind: fetcher.Found, VideoID: "x"})

	day = day.Add(2 * time.Minute)
	logger.Record(fetcher.Result{Keyword: "after", Kind: fetcher.Found, VideoID: "y"})

	for _, name := range []string{"detailed_2026-03-14.log", "detailed_2026-03-15.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
}
