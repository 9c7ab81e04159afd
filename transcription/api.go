package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"legis-text/errors"

	"github.com/sirupsen/logrus"
)

const defaultAPIEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// APITranscriber calls an OpenAI-compatible transcription endpoint with the
// audio file as a multipart upload.
type APITranscriber struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type APIConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

func NewAPITranscriber(cfg APIConfig) *APITranscriber {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultAPIEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	return &APITranscriber{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

func (t *APITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	const op = "APITranscriber.Transcribe"

	logrus.WithFields(logrus.Fields{
		"audio": audioPath,
		"model": t.model,
	}).Info("Starting API transcription")

	body, contentType, err := buildUpload(audioPath, t.model)
	if err != nil {
		return "", errors.Transcription(op, err, "failed to build upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return "", errors.Transcription(op, err, "failed to build request")
	}
	req.Header.Set("Content-Type", contentType)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Transcription(op, err, "transcription request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Transcription(op,
			fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, detail),
			"transcription request rejected")
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Transcription(op, err, "failed to decode transcription response")
	}

	return ensureText(op, result.Text)
}

// buildUpload assembles the multipart body in memory. Audio assets are
// bounded by the pipeline's normalized format, so buffering is acceptable.
func buildUpload(audioPath, model string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
