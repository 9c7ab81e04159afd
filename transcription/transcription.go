// Package transcription converts a local audio asset into text. The backend
// is pluggable: a hosted speech API or a locally installed whisper binary.
// Neither backend retries; retry budgets belong to the pipeline.
package transcription

import (
	"context"
	"strings"

	"legis-text/errors"
)

// Transcriber is the single contract the pipeline depends on.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ensureText rejects blank transcripts. A backend that returns success with
// no usable text has failed in a way the caller must be able to retry.
func ensureText(op, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.Transcription(op, nil, "backend returned an empty transcript")
	}
	return text, nil
}
