package pipeline

import (
	"encoding/csv"
	"os"
	"sync"
	"time"
)

// FailureLog is the append-only sink for permanently failed items, one CSV
// line per failure: timestamp, locator, error message. The mutex keeps
// concurrent workers from interleaving lines.
type FailureLog struct {
	mu   sync.Mutex
	path string
}

func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

func (l *FailureLog) Record(at time.Time, locator string, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	message := ""
	if cause != nil {
		message = cause.Error()
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{at.Format(time.RFC3339), locator, message}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Path returns the log file location, mainly for reporting at end of run.
func (l *FailureLog) Path() string {
	return l.path
}
