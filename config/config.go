package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the service needs. It is loaded once in main
// and handed to component constructors, nothing reads the environment after
// startup.
type Config struct {
	// Postgres
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string

	// YouTube Data API
	YoutubeAPIKey string

	// Summarization (OpenAI-compatible endpoint, points at Gemini's
	// compatibility surface by default)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Transcript fallback provider
	SupadataAPIKey string

	// Mail
	ResendAPIKey string
	EmailFrom    string
	EmailTo      string

	// Digest behavior
	ScanInterval        time.Duration
	DigestInterval      time.Duration
	DigestThreshold     int
	WatermarkWindowDays int
	MaxVideosPerChannel int64
	MaxVideosPerDigest  int

	DashboardBaseURL string

	// HTTP API
	APIPort int

	Workers  int
	LogLevel string
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "tubedigest")
	v.SetDefault("postgres_password", "tubedigest")
	v.SetDefault("postgres_db", "tubedigest")

	v.SetDefault("llm_base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm_model", "gemini-2.0-flash")

	v.SetDefault("email_from", "YouTube Digest <digest@resend.dev>")

	v.SetDefault("scan_interval", 24*time.Hour)
	v.SetDefault("digest_interval", 14*24*time.Hour)
	v.SetDefault("digest_threshold", 10)
	v.SetDefault("watermark_window_days", 14)
	v.SetDefault("max_videos_per_channel", 20)
	v.SetDefault("max_videos_per_digest", 50)

	v.SetDefault("dashboard_base_url", "http://localhost:8080")

	v.SetDefault("api_port", 8080)
	v.SetDefault("workers", 2)
	v.SetDefault("log_level", "info")

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tubedigest")

	v.SetEnvPrefix("TUBEDIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	cfg := &Config{
		PostgresHost:     v.GetString("postgres_host"),
		PostgresPort:     v.GetString("postgres_port"),
		PostgresUser:     v.GetString("postgres_user"),
		PostgresPassword: v.GetString("postgres_password"),
		PostgresDatabase: v.GetString("postgres_db"),

		YoutubeAPIKey: v.GetString("youtube_api_key"),

		LLMAPIKey:  v.GetString("llm_api_key"),
		LLMBaseURL: v.GetString("llm_base_url"),
		LLMModel:   v.GetString("llm_model"),

		SupadataAPIKey: v.GetString("supadata_api_key"),

		ResendAPIKey: v.GetString("resend_api_key"),
		EmailFrom:    v.GetString("email_from"),
		EmailTo:      v.GetString("email_to"),

		ScanInterval:        v.GetDuration("scan_interval"),
		DigestInterval:      v.GetDuration("digest_interval"),
		DigestThreshold:     v.GetInt("digest_threshold"),
		WatermarkWindowDays: v.GetInt("watermark_window_days"),
		MaxVideosPerChannel: v.GetInt64("max_videos_per_channel"),
		MaxVideosPerDigest:  v.GetInt("max_videos_per_digest"),

		DashboardBaseURL: v.GetString("dashboard_base_url"),

		APIPort:  v.GetInt("api_port"),
		Workers:  v.GetInt("workers"),
		LogLevel: v.GetString("log_level"),
	}

	if cfg.DigestThreshold < 1 {
		return nil, fmt.Errorf("digest_threshold must be at least 1, got %d", cfg.DigestThreshold)
	}
	if cfg.MaxVideosPerDigest < 1 {
		return nil, fmt.Errorf("max_videos_per_digest must be at least 1, got %d", cfg.MaxVideosPerDigest)
	}

	return cfg, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDatabase)
}
