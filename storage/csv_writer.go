package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"yard-sniper/models"
)

// HistoryTimeFormat is the timestamp layout of scan history rows.
const HistoryTimeFormat = "2006-01-02 15:04:05"

var historyHeader = []string{"timestamp", "query", "yard", "count"}

// CSVHistoryWriter appends scan history rows to a CSV file.
// It is safe for concurrent use.
type CSVHistoryWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVHistoryWriter opens the CSV file at path for appending, writing the
// header row only when the file is new or empty. Intermediate directories are
// created automatically.
func NewCSVHistoryWriter(path string) (*CSVHistoryWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(historyHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVHistoryWriter{file: f, writer: w}, nil
}

// WriteEntries appends one row per entry.
func (c *CSVHistoryWriter) WriteEntries(entries []models.ScanEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		row := []string{
			e.Timestamp.Format(HistoryTimeFormat),
			e.Query,
			e.Yard,
			strconv.Itoa(e.Count),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVHistoryWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
