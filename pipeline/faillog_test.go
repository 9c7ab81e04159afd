package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCSV(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err, "failure log must stay valid CSV")
	return records
}

func TestFailureLogRecord(t *testing.T) {
	failures := NewFailureLog(filepath.Join(t.TempDir(), "failed_videos.csv"))

	at := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)
	require.NoError(t, failures.Record(at, "https://example.test/a.mp4", fmt.Errorf("download failed, status 503")))

	data, err := os.ReadFile(failures.Path())
	require.NoError(t, err)

	lines := parseCSV(t, string(data))
	require.Len(t, lines, 1)
	assert.Equal(t, []string{
		"2025-03-06T12:00:00Z",
		"https://example.test/a.mp4",
		"download failed, status 503",
	}, lines[0])
}

func TestFailureLogConcurrentAppends(t *testing.T) {
	failures := NewFailureLog(filepath.Join(t.TempDir(), "failed_videos.csv"))

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := fmt.Sprintf("https://example.test/%d.mp4", i)
			assert.NoError(t, failures.Record(time.Now().UTC(), url, fmt.Errorf("boom %d", i)))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(failures.Path())
	require.NoError(t, err)

	lines := parseCSV(t, string(data))
	assert.Len(t, lines, writers)
	for _, line := range lines {
		require.Len(t, line, 3)
	}
}

func TestFailureLogNilCause(t *testing.T) {
	failures := NewFailureLog(filepath.Join(t.TempDir(), "failed_videos.csv"))
	require.NoError(t, failures.Record(time.Now().UTC(), "https://example.test/a.mp4", nil))

	data, err := os.ReadFile(failures.Path())
	require.NoError(t, err)
	lines := parseCSV(t, string(data))
	require.Len(t, lines, 1)
	assert.Equal(t, "", lines[0][2])
}
