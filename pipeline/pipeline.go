// Package pipeline drives each discovered video through
// dedup check -> acquisition -> transcription -> storage, with a bounded
// worker pool across items and a fixed retry budget within one item.
package pipeline

import (
	"context"
	"sync"
	"time"

	"legis-text/download"
	"legis-text/errors"
	"legis-text/fingerprint"
	"legis-text/models"
	"legis-text/repository"
	"legis-text/transcription"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxAttempts is the total attempt budget per item; a retry restarts the
// whole acquire -> transcribe -> store sequence.
const maxAttempts = 2

// State is the terminal outcome of one item.
type State string

const (
	StateDone    State = "done"
	StateSkipped State = "skipped"
	StateFailed  State = "failed"
)

// Result is the terminal record for one reference, collected by the run so
// the summary is deterministic rather than fire-and-forget.
type Result struct {
	Reference models.VideoReference
	State     State
	Attempts  int
	Err       error
}

// Summary counts terminal states across a run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// Acquirer matches download.Downloader. It is an interface here so tests can
// force acquisition failures.
type Acquirer interface {
	Acquire(ctx context.Context, ref models.VideoReference, workDir string) (*download.Asset, error)
}

type Config struct {
	WorkDir string
	Workers int
}

type Pipeline struct {
	repo        repository.VideoRepository
	downloader  Acquirer
	transcriber transcription.Transcriber
	failures    *FailureLog
	workDir     string
	workers     int
	now         func() time.Time
}

func New(
	repo repository.VideoRepository,
	downloader Acquirer,
	transcriber transcription.Transcriber,
	failures *FailureLog,
	cfg Config,
) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		repo:        repo,
		downloader:  downloader,
		transcriber: transcriber,
		failures:    failures,
		workDir:     cfg.WorkDir,
		workers:     workers,
		now:         time.Now,
	}
}

// Run processes every reference to a terminal state and returns the summary.
// Items are independent; a permanent failure never aborts the run. The run
// ends early only if ctx is cancelled, in which case unprocessed items are
// reported as failed.
func (p *Pipeline) Run(ctx context.Context, refs []models.VideoReference) Summary {
	runLog := logrus.WithField("run_id", uuid.New().String())
	runLog.WithFields(logrus.Fields{
		"items":   len(refs),
		"workers": p.workers,
	}).Info("Starting ingestion run")

	jobs := make(chan models.VideoReference, len(refs))
	for _, ref := range refs {
		jobs <- ref
	}
	close(jobs)

	results := make(chan Result, len(refs))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				results <- p.process(ctx, ref)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary Summary
	for res := range results {
		switch res.State {
		case StateDone:
			summary.Processed++
		case StateSkipped:
			summary.Skipped++
		case StateFailed:
			summary.Failed++
		}
	}

	runLog.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Ingestion run completed")

	return summary
}

// process runs the per-item state machine to a terminal state.
func (p *Pipeline) process(ctx context.Context, ref models.VideoReference) Result {
	id := fingerprint.Locator(ref.Locator)
	log := logrus.WithFields(logrus.Fields{
		"id":     id,
		"url":    ref.Locator,
		"source": string(ref.Source),
	})

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Reference: ref, State: StateFailed, Attempts: attempt - 1, Err: err}
		}

		state, err := p.attempt(ctx, id, ref)
		if err == nil {
			if state == StateSkipped {
				log.Debug("Video already processed, skipping")
			} else {
				log.WithField("attempts", attempt).Info("Video processed and stored")
			}
			return Result{Reference: ref, State: state, Attempts: attempt}
		}

		if errors.IsDuplicate(err) {
			// Another worker stored this video between our pre-check and
			// insert. Their record is the record; this is not a failure.
			log.Debug("Lost insert race, record already stored")
			return Result{Reference: ref, State: StateSkipped, Attempts: attempt}
		}

		lastErr = err
		log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"kind":    string(errors.KindOf(err)),
		}).Warn("Pipeline attempt failed")
	}

	if err := p.failures.Record(p.now().UTC(), ref.Locator, lastErr); err != nil {
		log.WithError(err).Error("Failed to record permanent failure")
	}
	log.WithError(lastErr).Error("Giving up on video")

	return Result{Reference: ref, State: StateFailed, Attempts: maxAttempts, Err: lastErr}
}

// attempt runs one full pass of the sequence. Temp assets are released on
// every path out of this function.
func (p *Pipeline) attempt(ctx context.Context, id string, ref models.VideoReference) (State, error) {
	exists, err := p.repo.Exists(ctx, id)
	if err != nil {
		return "", err
	}
	if exists {
		return StateSkipped, nil
	}

	asset, err := p.downloader.Acquire(ctx, ref, p.workDir)
	if err != nil {
		return "", err
	}
	defer asset.Cleanup()

	text, err := p.transcriber.Transcribe(ctx, asset.AudioPath)
	if err != nil {
		return "", err
	}

	record := &models.VideoRecord{
		ID:          id,
		Name:        ref.DisplayName(),
		Source:      ref.Source,
		Locator:     ref.Locator,
		PublishedAt: ref.PublishedAt,
		Transcript:  text,
		ProcessedAt: p.now().UTC(),
	}
	if err := p.repo.Insert(ctx, record); err != nil {
		return "", err
	}

	return StateDone, nil
}
