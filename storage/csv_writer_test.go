package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"yard-sniper/models"
)

func TestCSVHistoryWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scan_history.csv")
	ts := time.Date(2025, 7, 30, 9, 15, 0, 0, time.Local)

	for _, yard := range []string{"LKQ Orlando", "Central Florida Pick and Pay"} {
		w, err := NewCSVHistoryWriter(path)
		if err != nil {
			t.Fatalf("NewCSVHistoryWriter: %v", err)
		}
		err = w.WriteEntries([]models.ScanEntry{{Timestamp: ts, Yard: yard, Query: "2011-2013 kia sorento", Count: 2}})
		if err != nil {
			t.Fatalf("WriteEntries: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"timestamp", "query", "yard", "count"},
		{"2025-07-30 09:15:00", "2011-2013 kia sorento", "LKQ Orlando", "2"},
		{"2025-07-30 09:15:00", "2011-2013 kia sorento", "Central Florida Pick and Pay", "2"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}
