package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"ewintr.nl/tubedigest/config"
	"ewintr.nl/tubedigest/digest"
	"ewintr.nl/tubedigest/fetcher"
	"ewintr.nl/tubedigest/handler"
	"ewintr.nl/tubedigest/model"
	"ewintr.nl/tubedigest/process"
	"ewintr.nl/tubedigest/progress"
	"ewintr.nl/tubedigest/storage"
	"ewintr.nl/tubedigest/summarize"
	"ewintr.nl/tubedigest/transcript"
	"ewintr.nl/tubedigest/youtube"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to load configuration: %s\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		logger.Error("unable to open postgres connection", slog.String("error", err.Error()))
		os.Exit(1)
	}
	postgres, err := storage.NewPostgres(db)
	if err != nil {
		logger.Error("unable to migrate postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	channelRepo := storage.NewPostgresChannelRepository(postgres)
	videoRepo := storage.NewPostgresVideoRepository(postgres)
	digestRepo := storage.NewPostgresDigestRepository(postgres)

	ytService, err := youtubeapi.NewService(ctx, option.WithAPIKey(cfg.YoutubeAPIKey))
	if err != nil {
		logger.Error("unable to create youtube service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	ytClient := youtube.NewClient(ytService)

	httpClient := &http.Client{Timeout: time.Minute}
	resolver := transcript.NewResolver(logger,
		transcript.NewCaptionSource(httpClient),
		transcript.NewSupadataSource(cfg.SupadataAPIKey, httpClient),
	)

	summarizer := summarize.NewSummarizer(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger)

	pipeline := process.NewPipeline(videoRepo, channelRepo, resolver, summarizer, logger)
	for i := 0; i < cfg.Workers; i++ {
		go pipeline.Run(ctx)
	}
	logger.Info("pipeline started", slog.Int("workers", cfg.Workers))

	composer := digest.NewComposer(cfg.MaxVideosPerDigest, cfg.DashboardBaseURL, logger)
	sender := digest.NewSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailTo, logger)
	digestService := digest.NewService(videoRepo, channelRepo, digestRepo, composer, sender,
		cfg.DigestThreshold, cfg.DigestInterval, logger)
	go digestService.Run(ctx.Done())
	logger.Info("digest scheduler started")

	sink := progress.NewMemorySink()
	scanner := fetcher.NewScanner(ytClient, channelRepo, videoRepo, pipeline,
		cfg.ScanInterval, time.Duration(cfg.WatermarkWindowDays)*24*time.Hour,
		cfg.MaxVideosPerChannel, sink, logger)
	go scanner.Run(ctx, func(result fetcher.ScanResult) {
		if _, err := digestService.MaybeGenerate(model.TriggerThreshold); err != nil {
			logger.Error("threshold digest failed", slog.String("error", err.Error()))
		}
	})
	logger.Info("scanner started", slog.Duration("interval", cfg.ScanInterval))

	server := handler.NewServer(
		handler.NewVideoAPI(videoRepo, pipeline, logger),
		handler.NewDigestAPI(digestRepo, digestService, logger),
		handler.NewScanAPI(scanner, logger),
		handler.NewStatusAPI(videoRepo, sink),
		logger,
	)
	go http.ListenAndServe(fmt.Sprintf(":%d", cfg.APIPort), server)
	logger.Info("http server started", slog.Int("port", cfg.APIPort))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt)
	<-done
	cancel()

	logger.Info("service stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
