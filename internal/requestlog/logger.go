package requestlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tubescout/internal/fetcher"
)

// entry is one line in the detailed request log.
type entry struct {
	Timestamp       string  `json:"timestamp"`
	Keyword         string  `json:"keyword"`
	VideoID         string  `json:"video_id,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
}

// Logger appends every search result as a JSON line to a per-day file named
// detailed_YYYY-MM-DD.log under the configured directory. The file handle
// rolls over when the date changes.
type Logger struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	file    *os.File
	curDate string
}

func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}
	return &Logger{dir: dir, now: time.Now}, nil
}

// Record implements fetcher.Sink. Write errors are logged and swallowed so a
// full disk never fails a search.
func (l *Logger) Record(res fetcher.Result) {
	line := entry{
		Timestamp:       l.now().Format(time.RFC3339),
		Keyword:         res.Keyword,
		VideoID:         res.VideoID,
		DurationSeconds: res.Duration.Seconds(),
		Status:          res.Kind.String(),
	}
	if res.Kind != fetcher.Found {
		line.Error = res.Detail
	}

	data, err := json.Marshal(line)
	if err != nil {
		log.Error("request log: marshal entry", "err", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.currentFileLocked()
	if err != nil {
		log.Error("request log: open file", "err", err)
		return
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		log.Error("request log: write entry", "err", err)
	}
}

func (l *Logger) currentFileLocked() (*os.File, error) {
	date := l.now().Format("2006-01-02")
	if l.file != nil && l.curDate == date {
		return l.file, nil
	}

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	path := filepath.Join(l.dir, "detailed_"+date+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l.file = file
	l.curDate = date
	return file, nil
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
