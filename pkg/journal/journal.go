package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionRecord captures one drained subscription stream for audit and
// analysis.
type SessionRecord struct {
	Timestamp    time.Time      `json:"timestamp"`
	Symbol       string         `json:"symbol"`
	Market       string         `json:"market"`
	Resolution   string         `json:"resolution"`
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	Records      int            `json:"records"`
	Events       map[string]int `json:"events,omitempty"`
	FirstRecord  time.Time      `json:"first_record,omitempty"`
	LastRecord   time.Time      `json:"last_record,omitempty"`
	Completed    bool           `json:"completed"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Writer persists session records to a directory as JSON files.
type Writer struct {
	dir   string
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteSession writes a session record to a timestamped JSON file.
func (w *Writer) WriteSession(rec *SessionRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	name := fmt.Sprintf("session_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
