package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/decoyops/honeytrap/internal/api/router"
	appconfig "github.com/decoyops/honeytrap/internal/config"
	"github.com/decoyops/honeytrap/internal/conversation"
	"github.com/decoyops/honeytrap/internal/detection"
	"github.com/decoyops/honeytrap/internal/engagement"
	"github.com/decoyops/honeytrap/internal/honeypot"
	"github.com/decoyops/honeytrap/internal/http/handlers"
	"github.com/decoyops/honeytrap/internal/intel"
	"github.com/decoyops/honeytrap/internal/intelstore"
	"github.com/decoyops/honeytrap/internal/llm"
	"github.com/decoyops/honeytrap/internal/observability/metrics"
	"github.com/decoyops/honeytrap/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting honeytrap API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx := context.Background()

	client, modelID, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize model provider", "error", err)
		os.Exit(1)
	}
	if client == nil {
		logger.Warn("no model provider configured; detection degrades to rules, replies to canned fallbacks")
	}

	store, err := intelstore.NewFileStore(cfg.IntelDBPath, nil)
	if err != nil {
		logger.Error("failed to open intelligence database", "error", err)
		os.Exit(1)
	}

	log := conversation.NewRedisLog(newRedisClient(cfg), nil)

	metricsHandler, honeypotMetrics := setupMetrics()

	classifier := detection.NewClassifier(detection.NewScorer(),
		llm.NewInstrumentedClient(client, "classify", honeypotMetrics), modelID, cfg.ClassifierTimeout, logger)
	planner := engagement.NewPlanner(
		llm.NewInstrumentedClient(client, "generate", honeypotMetrics), modelID, cfg.GeneratorTimeout, cfg.MaxReplyChars, logger)

	svc := honeypot.NewService(classifier, planner, intel.NewExtractor(), log, store, cfg.EngageThreshold, honeypotMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Honeypot:           handlers.NewHoneypotHandler(svc, cfg.RecentLimit, logger),
		APIKey:             cfg.APIKey,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildLLMClient wires the configured model provider. With both providers
// configured, the secondary becomes the failover. A nil client is valid: the
// pipeline degrades to rules and canned replies.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (llm.Client, string, error) {
	var gemini llm.Client
	if cfg.GeminiAPIKey != "" {
		c, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, "", err
		}
		gemini = c
	}

	var bedrock llm.Client
	if cfg.BedrockModelID != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		bedrock = llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			if cfg.AWSEndpointOverride != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpointOverride)
			}
		}))
	}

	switch cfg.LLMProvider {
	case "bedrock":
		if bedrock == nil {
			return nil, "", fmt.Errorf("LLM_PROVIDER=bedrock but BEDROCK_MODEL_ID is not set")
		}
		if gemini != nil {
			return llm.NewFailoverClient(bedrock, gemini, logger.Logger), cfg.BedrockModelID, nil
		}
		return bedrock, cfg.BedrockModelID, nil
	default:
		if gemini == nil {
			return bedrock, cfg.BedrockModelID, nil
		}
		if bedrock != nil {
			return llm.NewFailoverClient(gemini, bedrock, logger.Logger), cfg.GeminiModelID, nil
		}
		return gemini, cfg.GeminiModelID, nil
	}
}

// loadAWSConfig centralizes AWS SDK initialization, including the static
// credential path used with LocalStack in development.
func loadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loaders...)
}

func newRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func setupMetrics() (http.Handler, *metrics.HoneypotMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewHoneypotMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), m
}
