package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"legis-text/errors"
	"legis-text/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDownloader() *Downloader {
	return NewDownloader(Config{
		DownloadTimeout:  5 * time.Second,
		TranscodeTimeout: 5 * time.Second,
		RateLimit:        100,
		RateLimitBurst:   10,
	})
}

func TestIsStreamLocator(t *testing.T) {
	assert.True(t, isStreamLocator("https://cdn.example.test/outputs/x/Default/HLS/out.m3u8"))
	assert.True(t, isStreamLocator("https://cdn.example.test/manifest.MPD"))
	assert.False(t, isStreamLocator("https://www.house.mi.gov/ArchiveVideoFiles/JUD-030625.mp4"))
}

func TestFetchFileWritesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake mp4 payload"))
	}))
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := testDownloader().fetchFile(context.Background(), server.URL, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake mp4 payload", string(data))
}

func TestFetchFileBadStatusLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "out.mp4")
	err := testDownloader().fetchFile(context.Background(), server.URL, path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAcquireNetworkFailure(t *testing.T) {
	workDir := t.TempDir()
	ref := models.VideoReference{
		Source:  models.SourceHouse,
		Locator: "http://127.0.0.1:1/unreachable.mp4",
	}

	_, err := testDownloader().Acquire(context.Background(), ref, workDir)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAcquisition))

	entries, readErr := os.ReadDir(workDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no partial files may remain after a failed acquisition")
}

func TestAcquireTranscodeFailureLeavesNoFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not really a video"))
	}))
	t.Cleanup(server.Close)

	d := NewDownloader(Config{
		FFmpegBin:        "/nonexistent/ffmpeg",
		DownloadTimeout:  5 * time.Second,
		TranscodeTimeout: 5 * time.Second,
		RateLimit:        100,
		RateLimitBurst:   10,
	})

	workDir := t.TempDir()
	ref := models.VideoReference{Source: models.SourceHouse, Locator: server.URL + "/clip.mp4"}

	_, err := d.Acquire(context.Background(), ref, workDir)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAcquisition))

	entries, readErr := os.ReadDir(workDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestAcquireStreamModeSkipsContainer(t *testing.T) {
	// A missing ffmpeg makes the extraction fail, which is enough to show
	// stream mode never attempts an HTTP download of the manifest.
	d := NewDownloader(Config{
		FFmpegBin:        "/nonexistent/ffmpeg",
		TranscodeTimeout: 5 * time.Second,
	})

	workDir := t.TempDir()
	ref := models.VideoReference{
		Source:  models.SourceSenate,
		Locator: "https://cdn.example.test/outputs/x/Default/HLS/out.m3u8",
	}

	_, err := d.Acquire(context.Background(), ref, workDir)
	require.Error(t, err)

	entries, readErr := os.ReadDir(workDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestAssetCleanup(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "a.wav")
	container := filepath.Join(dir, "a.mp4")
	require.NoError(t, os.WriteFile(audio, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(container, []byte("x"), 0o644))

	asset := NewAsset(audio, container, audio)
	asset.Cleanup()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Cleaning an already-clean asset must not blow up.
	asset.Cleanup()
}
