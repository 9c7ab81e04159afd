package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"legis-text/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF fake wav"), 0o644))
	return path
}

func newAPITestTranscriber(t *testing.T, handler http.HandlerFunc) *APITranscriber {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAPITranscriber(APIConfig{
		Endpoint: server.URL,
		APIKey:   "sk-test",
		Model:    "whisper-1",
		Timeout:  5 * time.Second,
	})
}

func TestAPITranscribe(t *testing.T) {
	audioPath := writeAudioFixture(t)

	tr := newAPITestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "audio.wav", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "the committee will come to order"}`))
	})

	text, err := tr.Transcribe(context.Background(), audioPath)
	require.NoError(t, err)
	assert.Equal(t, "the committee will come to order", text)
}

func TestAPITranscribeEmptyTranscript(t *testing.T) {
	tr := newAPITestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "   "}`))
	})

	_, err := tr.Transcribe(context.Background(), writeAudioFixture(t))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTranscription))
}

func TestAPITranscribeBadStatus(t *testing.T) {
	tr := newAPITestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := tr.Transcribe(context.Background(), writeAudioFixture(t))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTranscription))
	assert.Contains(t, err.Error(), "429")
}

func TestAPITranscribeMissingFile(t *testing.T) {
	tr := newAPITestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected when the audio file is missing")
	})

	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
