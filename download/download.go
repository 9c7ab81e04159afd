// Package download turns a video locator into a local audio asset ready for
// transcription. Finite files are streamed to disk and the audio track is
// extracted afterwards; streaming manifests are fed to ffmpeg directly so no
// unbounded container ever touches disk.
package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"legis-text/errors"
	"legis-text/fingerprint"
	"legis-text/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Asset is the local output of one acquisition. The caller owns cleanup and
// must call Cleanup on every exit path.
type Asset struct {
	AudioPath string
	paths     []string
}

// NewAsset builds an asset that owns the given temp files. AudioPath must be
// one of paths for Cleanup to remove it.
func NewAsset(audioPath string, paths ...string) *Asset {
	return &Asset{AudioPath: audioPath, paths: paths}
}

// Cleanup removes every temp file the acquisition produced. Removal failures
// are logged and swallowed; a stale temp file must never turn a finished
// transcription into a reported failure.
func (a *Asset) Cleanup() {
	for _, path := range a.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", path).Warn("Failed to remove temp file")
		}
	}
}

type Config struct {
	FFmpegBin        string
	DownloadTimeout  time.Duration
	TranscodeTimeout time.Duration
	PreviewMode      bool
	PreviewSeconds   int
	RateLimit        float64
	RateLimitBurst   int
}

type Downloader struct {
	client  *http.Client
	limiter *rate.Limiter
	config  Config
}

func NewDownloader(cfg Config) *Downloader {
	if cfg.FFmpegBin == "" {
		cfg.FFmpegBin = "ffmpeg"
	}
	if cfg.PreviewSeconds <= 0 {
		cfg.PreviewSeconds = 60
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 1
	}
	return &Downloader{
		client:  &http.Client{Timeout: cfg.DownloadTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		config:  cfg,
	}
}

// Acquire produces the normalized audio asset for a reference under workDir.
// Temp file names are namespaced by the locator fingerprint so concurrent
// workers never collide on different videos and always collide on the same
// one. On error no partial file remains.
func (d *Downloader) Acquire(ctx context.Context, ref models.VideoReference, workDir string) (*Asset, error) {
	const op = "Downloader.Acquire"

	id := fingerprint.Locator(ref.Locator)
	audioPath := filepath.Join(workDir, id+".wav")

	if isStreamLocator(ref.Locator) {
		if err := d.extractAudio(ctx, ref.Locator, audioPath); err != nil {
			return nil, errors.Acquisition(op, err, "failed to extract audio from stream")
		}
		return NewAsset(audioPath, audioPath), nil
	}

	containerPath := filepath.Join(workDir, id+".mp4")
	if err := d.fetchFile(ctx, ref.Locator, containerPath); err != nil {
		return nil, errors.Acquisition(op, err, "failed to download video")
	}
	if err := d.extractAudio(ctx, containerPath, audioPath); err != nil {
		removeQuiet(containerPath)
		return nil, errors.Acquisition(op, err, "failed to extract audio from download")
	}
	return NewAsset(audioPath, containerPath, audioPath), nil
}

// isStreamLocator reports whether the locator points at a segmented
// streaming manifest rather than a finite file.
func isStreamLocator(locator string) bool {
	lower := strings.ToLower(locator)
	return strings.Contains(lower, ".m3u8") || strings.Contains(lower, ".mpd")
}

// fetchFile streams the response body to path. Any failure removes the
// partial file before returning.
func (d *Downloader) fetchFile(ctx context.Context, url, path string) (err error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			removeQuiet(path)
		}
	}()

	if _, err = io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write download: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return nil
}

// extractAudio runs ffmpeg to produce the canonical transcription input:
// mono 16-bit PCM at 16 kHz. input may be a local path or a manifest URL.
func (d *Downloader) extractAudio(ctx context.Context, input, output string) error {
	args := []string{"-y", "-i", input, "-vn", "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1"}
	if d.config.PreviewMode {
		args = append(args, "-t", strconv.Itoa(d.config.PreviewSeconds))
	}
	args = append(args, output)

	runCtx := ctx
	if d.config.TranscodeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.config.TranscodeTimeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, d.config.FFmpegBin, args...)
	cmd.Stderr = &stderr

	logrus.WithFields(logrus.Fields{
		"input":  input,
		"output": output,
	}).Debug("Running ffmpeg audio extraction")

	if err := cmd.Run(); err != nil {
		removeQuiet(output)
		return fmt.Errorf("ffmpeg failed: %v (stderr: %s)", err, tail(stderr.String(), 512))
	}
	return nil
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).WithField("path", path).Warn("Failed to remove partial file")
	}
}

// tail returns at most n trailing bytes of s; ffmpeg puts the useful error
// at the end of a very chatty stderr.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
