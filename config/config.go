package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HouseURL  string
	SenateURL string

	DataDir  string
	DBPath   string
	LogDir   string
	LogLevel string

	DaysBack   int
	MaxWorkers int

	FetchTimeout      time.Duration
	DownloadTimeout   time.Duration
	TranscodeTimeout  time.Duration
	TranscribeTimeout time.Duration

	Transcriber        string
	OpenAIAPIKey       string
	TranscriptionModel string
	WhisperBin         string
	FFmpegBin          string

	PreviewMode    bool
	PreviewSeconds int

	RateLimit      float64
	RateLimitBurst int
}

const (
	TranscriberAPI    = "api"
	TranscriberScript = "script"
)

func Load() *Config {
	return &Config{
		HouseURL:  GetEnv("HOUSE_URL", "https://house.mi.gov/VideoArchive"),
		SenateURL: GetEnv("SENATE_URL", "https://cloud.castus.tv/vod/misenate/?page=ALL"),

		DataDir:  GetEnv("DATA_DIR", "./data"),
		DBPath:   GetEnv("DB_PATH", "./data/videos.db"),
		LogDir:   GetEnv("LOG_DIR", "./logs"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		DaysBack:   getEnvAsInt("DAYS_BACK", 60),
		MaxWorkers: getEnvAsInt("MAX_WORKERS", 4),

		FetchTimeout:      getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
		DownloadTimeout:   getEnvAsDuration("DOWNLOAD_TIMEOUT", 30*time.Minute),
		TranscodeTimeout:  getEnvAsDuration("TRANSCODE_TIMEOUT", 30*time.Minute),
		TranscribeTimeout: getEnvAsDuration("TRANSCRIBE_TIMEOUT", 60*time.Minute),

		Transcriber:        GetEnv("TRANSCRIBER", TranscriberAPI),
		OpenAIAPIKey:       GetEnv("OPENAI_API_KEY", ""),
		TranscriptionModel: GetEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		WhisperBin:         GetEnv("WHISPER_BIN", "whisper"),
		FFmpegBin:          GetEnv("FFMPEG_BIN", "ffmpeg"),

		PreviewMode:    getEnvAsBool("PREVIEW_MODE", false),
		PreviewSeconds: getEnvAsInt("PREVIEW_SECONDS", 60),

		RateLimit:      getEnvAsFloat("RATE_LIMIT", 2),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 4),
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid float, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.HouseURL == "" && cfg.SenateURL == "" {
		return errors.New("at least one source URL is required")
	}
	if cfg.DataDir == "" {
		return errors.New("data directory is required")
	}
	if cfg.DBPath == "" {
		return errors.New("database path is required")
	}
	if cfg.DaysBack <= 0 {
		return errors.New("days back must be greater than 0")
	}
	if cfg.MaxWorkers <= 0 {
		return errors.New("max workers must be greater than 0")
	}
	if cfg.DownloadTimeout <= 0 || cfg.TranscodeTimeout <= 0 || cfg.TranscribeTimeout <= 0 {
		return errors.New("stage timeouts must be greater than 0")
	}
	switch cfg.Transcriber {
	case TranscriberAPI:
		if cfg.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the api transcriber")
		}
	case TranscriberScript:
		if cfg.WhisperBin == "" {
			return errors.New("whisper binary is required for the script transcriber")
		}
	default:
		return errors.Errorf("unknown transcriber %q", cfg.Transcriber)
	}
	return nil
}
