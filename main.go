package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"legis-text/config"
	"legis-text/discovery"
	"legis-text/download"
	"legis-text/logger"
	"legis-text/pipeline"
	"legis-text/repository/sqlite"
	"legis-text/transcription"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	if err := config.ValidateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Setup(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, os.ModePerm); err != nil {
		logrus.WithError(err).Fatal("Failed to create data directory")
	}

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	repo, err := sqlite.NewRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize repository")
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := discovery.NewClient(cfg.FetchTimeout, cfg.RateLimit, cfg.RateLimitBurst)
	var feeds []discovery.Feed
	if cfg.HouseURL != "" {
		feeds = append(feeds, discovery.NewHouseFeed(client, cfg.HouseURL, cfg.DaysBack))
	}
	if cfg.SenateURL != "" {
		feeds = append(feeds, discovery.NewSenateFeed(client, cfg.SenateURL))
	}

	horizon := time.Now().UTC().AddDate(0, 0, -cfg.DaysBack)
	refs := discovery.Discover(ctx, horizon, feeds...)
	if len(refs) == 0 {
		logrus.Info("No new videos within the recency window")
		return
	}

	downloader := download.NewDownloader(download.Config{
		FFmpegBin:        cfg.FFmpegBin,
		DownloadTimeout:  cfg.DownloadTimeout,
		TranscodeTimeout: cfg.TranscodeTimeout,
		PreviewMode:      cfg.PreviewMode,
		PreviewSeconds:   cfg.PreviewSeconds,
		RateLimit:        cfg.RateLimit,
		RateLimitBurst:   cfg.RateLimitBurst,
	})

	failures := pipeline.NewFailureLog(filepath.Join(cfg.DataDir, "failed_videos.csv"))

	p := pipeline.New(repo, downloader, buildTranscriber(cfg), failures, pipeline.Config{
		WorkDir: cfg.DataDir,
		Workers: cfg.MaxWorkers,
	})

	summary := p.Run(ctx, refs)

	logrus.WithFields(logrus.Fields{
		"processed":   summary.Processed,
		"skipped":     summary.Skipped,
		"failed":      summary.Failed,
		"failure_log": failures.Path(),
	}).Info("Run finished")

	// Individual failures live in the failure log; the process only reports
	// failure when nothing at all succeeded.
	if summary.Failed > 0 && summary.Processed == 0 && summary.Skipped == 0 {
		os.Exit(1)
	}
}

func buildTranscriber(cfg *config.Config) transcription.Transcriber {
	switch cfg.Transcriber {
	case config.TranscriberScript:
		return transcription.NewScriptTranscriber(transcription.ScriptConfig{
			Bin:     cfg.WhisperBin,
			Model:   cfg.TranscriptionModel,
			Timeout: cfg.TranscribeTimeout,
		})
	default:
		return transcription.NewAPITranscriber(transcription.APIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.TranscriptionModel,
			Timeout: cfg.TranscribeTimeout,
		})
	}
}
