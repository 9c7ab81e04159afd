package transcription

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"legis-text/errors"

	"github.com/sirupsen/logrus"
)

// ScriptTranscriber runs a local whisper CLI. The CLI writes a .txt next to
// the audio file; the transcript is read back from there and the sidecar is
// removed.
type ScriptTranscriber struct {
	bin     string
	model   string
	timeout time.Duration
}

type ScriptConfig struct {
	Bin     string
	Model   string
	Timeout time.Duration
}

func NewScriptTranscriber(cfg ScriptConfig) *ScriptTranscriber {
	if cfg.Bin == "" {
		cfg.Bin = "whisper"
	}
	if cfg.Model == "" {
		cfg.Model = "base.en"
	}
	return &ScriptTranscriber{
		bin:     cfg.Bin,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (t *ScriptTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	const op = "ScriptTranscriber.Transcribe"

	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	outputDir := filepath.Dir(audioPath)
	args := []string{
		audioPath,
		"--model", t.model,
		"--output_format", "txt",
		"--output_dir", outputDir,
	}

	logrus.WithFields(logrus.Fields{
		"audio": audioPath,
		"model": t.model,
	}).Info("Starting local transcription")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, t.bin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Transcription(op,
			fmt.Errorf("%v (stderr: %s)", err, strings.TrimSpace(stderr.String())),
			"transcription process failed")
	}

	transcriptPath := sidecarPath(audioPath)
	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", errors.Transcription(op, err, "transcription process produced no output file")
	}

	if err := os.Remove(transcriptPath); err != nil {
		logrus.WithError(err).WithField("path", transcriptPath).Warn("Failed to remove transcript sidecar")
	}

	return ensureText(op, string(data))
}

func sidecarPath(audioPath string) string {
	ext := filepath.Ext(audioPath)
	return strings.TrimSuffix(audioPath, ext) + ".txt"
}
